package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Show or change travelrag configuration.

Settings are read from the config file and can be overridden with
TRAVELRAG_<KEY> environment variables, e.g. TRAVELRAG_LLM_PROVIDER=ollama.
Well-known variables such as GEOAPIFY_API_KEY and GEMINI_API_KEY are also
honoured.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display effective settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one setting",
	Example: `  travelrag config set llm.provider ollama
  travelrag config set city Portland`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	svc := r.Settings()
	s, err := svc.Get()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n", svc.Path())
	cmd.Printf("Data dir:    %s\n", s.DataDir)
	cmd.Printf("Timeout:     %s\n", s.RequestTimeout)
	cmd.Println()

	cmd.Println("Collect:")
	cmd.Printf("  City:       %s\n", s.Collect.City)
	cmd.Printf("  BBox:       %s\n", s.Collect.BBox)
	cmd.Printf("  Categories: %s\n", s.Collect.Categories)
	cmd.Printf("  Limit:      %d\n", s.Collect.PlaceLimit)
	cmd.Printf("  Rate limit: %s\n", s.Collect.RateLimitDelay)
	cmd.Printf("  Geoapify:   %s\n", secret(s.Collect.GeoapifyAPIKey))
	cmd.Println()

	cmd.Println("Embedding:")
	cmd.Printf("  Provider:   %s (%s)\n", s.Embedding.Provider, s.Embedding.Provider.Description())
	cmd.Printf("  Model:      %s\n", s.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL:   %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key:    %s\n", secret(s.Embedding.APIKey))
	}
	cmd.Printf("  Status:     %s\n", status(s.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("Vector index:")
	cmd.Printf("  Backend:    %s\n", s.Vector.Backend)
	cmd.Printf("  Collection: %s\n", s.Vector.Collection)
	cmd.Printf("  Metric:     %s\n", s.Vector.Metric)
	if s.Vector.Backend == domain.VectorBackendPGVector {
		cmd.Printf("  DSN:        %s\n", secret(s.Vector.DSN))
	}
	cmd.Println()

	cmd.Println("LLM:")
	cmd.Printf("  Provider:    %s\n", s.LLM.Provider)
	cmd.Printf("  Model:       %s\n", s.LLM.Model)
	if s.LLM.BaseURL != "" {
		cmd.Printf("  Base URL:    %s\n", s.LLM.BaseURL)
	}
	if s.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key:     %s\n", secret(s.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f\n", s.LLM.Temperature)
	cmd.Printf("  Max tokens:  %d\n", s.LLM.MaxTokens)
	cmd.Printf("  Status:      %s\n", status(s.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("Retrieval:")
	cmd.Printf("  Top k:         %d\n", s.Retrieval.TopK)
	cmd.Printf("  Context chars: %d\n", s.Retrieval.MaxContextChars)
	cmd.Printf("  History turns: %d\n", s.Retrieval.HistoryTurns)
	cmd.Printf("  Segment:       %d (overlap %d)\n", s.Segment.Size, s.Segment.Overlap)
	cmd.Println()

	cmd.Println("Sessions:")
	cmd.Printf("  Backend:   %s\n", s.Session.Backend)
	cmd.Printf("  Max turns: %d\n", s.Session.MaxTurns)
	cmd.Printf("  TTL:       %s\n", s.Session.TTL)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	svc := r.Settings()
	if err := svc.Set(args[0], args[1]); err != nil {
		return err
	}

	value := args[1]
	if svc.IsSecret(args[0]) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	r, err := requireRuntime()
	if err != nil {
		return err
	}
	svc := r.Settings()
	for _, k := range svc.Keys() {
		if svc.IsSecret(k) {
			cmd.Printf("%s (secret)\n", k)
			continue
		}
		cmd.Println(k)
	}
	return nil
}

func secret(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

func status(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
