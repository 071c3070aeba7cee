// Package cli provides the travelrag command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// Runtime opens the services behind each command. Backends are opened on
// demand so that, for example, config commands work without a model.
type Runtime interface {
	Settings() driving.SettingsService
	Collector(ctx context.Context) (driving.CollectService, error)
	Indexer(ctx context.Context, reset bool) (driving.IndexService, error)
	Asker(ctx context.Context) (driving.AskService, driving.SessionService, error)
	Sessions(ctx context.Context) (driving.SessionService, error)
	DocumentsPath(city string) (string, error)
	Close() error
}

var (
	version = "dev"
	rt      Runtime
	verbose bool
)

var errNoRuntime = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:   "travelrag",
	Short: "Ask grounded questions about tourist attractions",
	Long: `travelrag collects tourist attractions for a city, indexes them in a
vector store and answers questions using only what it has collected.

Typical first run:
  travelrag config set geoapify_api_key <key>
  travelrag collect
  travelrag index
  travelrag chat`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
}

// SetRuntime installs the service provider used by every command.
func SetRuntime(r Runtime) {
	rt = r
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Errors are printed with a message that
// depends on their kind.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error("%s", describeError(err))
	}
	return err
}

func requireRuntime() (Runtime, error) {
	if rt == nil {
		return nil, errNoRuntime
	}
	return rt, nil
}
