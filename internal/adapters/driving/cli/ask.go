package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

var (
	askSession string
	askK       int
	askCity    string
	askFormat  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question",
	Long: `Answers a question using only the indexed attractions and prints the
sources it relied on. Pass --session to continue an earlier conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts an interactive conversation. Follow-up questions can refer to
earlier turns.

Commands:
  history     - show the conversation so far
  clear       - forget the conversation and start a new one
  quit, exit  - leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().StringVar(&askSession, "session", "", "continue the given session")
		c.Flags().IntVar(&askK, "k", 0, "number of attractions to retrieve (default from config)")
		c.Flags().StringVar(&askCity, "city", "", "only use attractions in this city")
		c.Flags().StringVar(&askFormat, "format", formatDetailed, "citation format: detailed or compact")
		rootCmd.AddCommand(c)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	out, err := newRenderer(cmd.OutOrStdout(), askFormat)
	if err != nil {
		return err
	}

	ask, _, err := r.Asker(cmd.Context())
	if err != nil {
		return err
	}

	answer, err := ask.Ask(cmd.Context(), askRequest(strings.Join(args, " "), askSession))
	if err != nil {
		return err
	}

	out.Answer(answer)
	if askSession == "" && persistentSessions(r) {
		cmd.Printf("\nSession: %s (continue with --session %s)\n", answer.SessionID, answer.SessionID)
	}
	return nil
}

func askRequest(question, session string) driving.AskRequest {
	return driving.AskRequest{
		Question:  question,
		SessionID: session,
		K:         askK,
		Filter:    domain.CityFilter(askCity),
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	out, err := newRenderer(cmd.OutOrStdout(), askFormat)
	if err != nil {
		return err
	}

	ask, sessions, err := r.Asker(cmd.Context())
	if err != nil {
		return err
	}

	session := askSession
	if session == "" {
		session = sessions.NewSessionID()
	}

	cmd.Println("Ask about attractions. Type 'history', 'clear' or 'quit'.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("\n> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "clear":
			if err := sessions.Clear(cmd.Context(), session); err != nil {
				return err
			}
			session = sessions.NewSessionID()
			cmd.Println("Conversation cleared.")
			continue
		case "history":
			turns, err := sessions.History(cmd.Context(), session)
			if errors.Is(err, domain.ErrNotFound) {
				cmd.Println("No conversation yet.")
				continue
			}
			if err != nil {
				return err
			}
			out.Turns(turns)
			continue
		}

		answer, err := ask.Ask(cmd.Context(), askRequest(line, session))
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			cmd.PrintErrln(describeError(err))
			continue
		}
		cmd.Println()
		out.Answer(answer)
	}
}
