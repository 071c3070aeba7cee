package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

var (
	collectCity    string
	collectBBox    string
	collectRefresh bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch attractions and build the corpus",
	Long: `Fetches tourist attractions inside the configured bounding box, keeps those
with a Wikipedia article, adds the article introduction and writes the
processed corpus to <data_dir>/processed/<city>_documents.json.

Fetched places are cached under <data_dir>/raw; use --refresh to fetch again.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectCity, "city", "", "collect another city (requires --bbox)")
	collectCmd.Flags().StringVar(&collectBBox, "bbox", "", "bounding box lon_min,lat_min,lon_max,lat_max")
	collectCmd.Flags().BoolVar(&collectRefresh, "refresh", false, "ignore the cached places")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}

	req := driving.CollectRequest{City: collectCity, Refresh: collectRefresh}
	if collectBBox != "" {
		req.BBox, err = domain.ParseBoundingBox(collectBBox)
		if err != nil {
			return err
		}
	}

	svc, err := r.Collector(cmd.Context())
	if err != nil {
		return err
	}

	report, err := svc.Collect(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	printCollectReport(cmd, report)
	return nil
}

func printCollectReport(cmd *cobra.Command, report *driving.CollectReport) {
	source := "fetched"
	if report.FromCache {
		source = "from cache"
	}
	cmd.Printf("Collected %s: %d places (%s)\n", report.City, report.Places, source)
	cmd.Printf("  Kept:     %d\n", report.Records.Succeeded)
	cmd.Printf("  Skipped:  %d (no Wikipedia article)\n", report.Records.Skipped)
	if report.Records.Failed > 0 {
		cmd.Printf("  Failed:   %d\n", report.Records.Failed)
	}
	q := report.Quality
	cmd.Printf("  Descriptions: %d of %d, %.0f%% of records complete\n", q.WithDescription, q.Total, q.CompletenessRate())
	cmd.Printf("Wrote %d documents to %s\n", report.Documents, report.Path)
}
