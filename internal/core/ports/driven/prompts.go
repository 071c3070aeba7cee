package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in default
	// or an error when no default exists.
	Load(name string) (string, error)
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system instruction for grounded answers.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptCustomRole wraps a user-supplied assistant role and instructions.
	// The template expects two %s placeholders: role, then instructions.
	PromptCustomRole = "custom_role"
)
