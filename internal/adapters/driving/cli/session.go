package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

var sessionFormat string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clear conversation sessions",
	Long: `Inspect and clear conversation sessions.

Sessions are kept in the sqlite session backend by default. With
session.backend = memory they vanish when each command exits.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Forget a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

func init() {
	sessionShowCmd.Flags().StringVarP(&sessionFormat, "format", "f", "text", "output format: text, json or yaml")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	sessions, err := openSessions(cmd, r)
	if err != nil {
		return err
	}

	infos, err := sessions.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		cmd.Println("No sessions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTURNS\tUPDATED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.ID, info.Turns, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	sessions, err := openSessions(cmd, r)
	if err != nil {
		return err
	}

	turns, err := sessions.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("session %s: %w", args[0], err)
	}

	switch sessionFormat {
	case "text":
		out, _ := newRenderer(cmd.OutOrStdout(), formatDetailed)
		out.Turns(turns)
		return nil
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(turns)
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(turns); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q (use text, json or yaml)", domain.ErrInvalidInput, sessionFormat)
	}
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	sessions, err := openSessions(cmd, r)
	if err != nil {
		return err
	}

	if err := sessions.Clear(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Cleared session %s\n", args[0])
	return nil
}

// openSessions opens the session store, warning when it cannot hold
// anything beyond the current command.
func openSessions(cmd *cobra.Command, r Runtime) (driving.SessionService, error) {
	if !persistentSessions(r) {
		cmd.PrintErrln("Warning: session.backend is memory, so no session survives between commands.")
	}
	return r.Sessions(cmd.Context())
}

// persistentSessions reports whether sessions outlive the current process.
func persistentSessions(r Runtime) bool {
	s, err := r.Settings().Get()
	return err == nil && s.Session.Backend != domain.SessionBackendMemory
}
