package domain

// InsufficientInformation is the fixed reply used when the corpus cannot answer.
const InsufficientInformation = "I don't have information about that in my database"

// Answer is the result of a grounded question.
type Answer struct {
	// Text is the generated reply.
	Text string

	// Sources are the documents the reply was grounded on, always returned.
	Sources RetrievalResult

	// SessionID identifies the conversation the turn was recorded in.
	SessionID string

	// NoContext is set when retrieval found nothing.
	NoContext bool
}
