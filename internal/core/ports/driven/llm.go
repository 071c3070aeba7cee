package driven

import "context"

// Generator produces answers with a hosted generative model.
//
// Implementations may include:
//   - Google Gemini
//   - Anthropic (Claude)
//   - OpenAI
//   - Ollama (local models)
type Generator interface {
	// Chat conducts a multi-turn conversation and returns the reply text.
	// Messages with role "system" carry the instruction; implementations map
	// them onto the provider's system prompt.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// SplitSystem separates system messages from the conversation.
// Providers with a dedicated system field use this.
func SplitSystem(messages []ChatMessage) (system string, rest []ChatMessage) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
