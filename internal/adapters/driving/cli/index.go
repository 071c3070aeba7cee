package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// watchDebounce groups the events of one corpus rewrite.
const watchDebounce = 500 * time.Millisecond

var (
	indexCity  string
	indexReset bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the corpus into the vector store",
	Long: `Embeds every document of the processed corpus and upserts it into the
configured collection. Re-running is safe: documents are replaced by id.

Use --reset after changing the embedding model; it recreates the collection
with the new dimension. Use --watch to re-index whenever 'travelrag collect'
rewrites the corpus.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexCity, "city", "", "index another city's corpus")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "recreate the collection before indexing")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "re-index when the corpus file changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}

	svc, err := r.Indexer(cmd.Context(), indexReset)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, reset bool) error {
		report, err := svc.Index(ctx, driving.IndexRequest{City: indexCity, Reset: reset})
		if report != nil {
			printIndexReport(cmd, report)
		}
		return err
	}

	if err := run(cmd.Context(), indexReset); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if !indexWatch {
		return nil
	}

	path, err := r.DocumentsPath(indexCity)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)
	return watchFile(cmd.Context(), path, func(ctx context.Context) {
		if err := run(ctx, false); err != nil {
			logger.Error("re-index failed: %s", describeError(err))
		}
	})
}

func printIndexReport(cmd *cobra.Command, report *driving.IndexReport) {
	s := report.Summary
	cmd.Printf("Indexed %d documents", s.Succeeded)
	if s.Skipped > 0 {
		cmd.Printf(", skipped %d", s.Skipped)
	}
	if s.Failed > 0 {
		cmd.Printf(", failed %d", s.Failed)
	}
	cmd.Printf(". Collection holds %d entries.\n", report.Count)
	for _, id := range s.FailedIDs {
		cmd.Printf("  %s: %v\n", id, s.Errors[id])
	}
}

// watchFile calls onChange after path is written, created or renamed into
// place. The parent directory is watched because atomic writes replace the
// file. It returns when ctx is done.
func watchFile(ctx context.Context, path string, onChange func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		target = filepath.Clean(path)
	)
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("Corpus changed: %s", event)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}
