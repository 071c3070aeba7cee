package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// NoMatchingContext replaces the context block when retrieval is empty.
const NoMatchingContext = "NO MATCHING CONTEXT"

// AssemblerConfig tunes prompt construction and generation.
type AssemblerConfig struct {
	MaxContextChars int
	HistoryTurns    int
	Temperature     float64
	MaxTokens       int

	// SystemPrompt overrides the assistant role. The first line is the role,
	// any further lines are extra instructions.
	SystemPrompt string

	RequestTimeout time.Duration
}

// Assembler turns retrieved documents and history into a grounded answer.
type Assembler struct {
	generator driven.Generator
	prompts   driven.PromptStore
	cfg       AssemblerConfig
}

// NewAssembler creates an answer assembler.
func NewAssembler(generator driven.Generator, prompts driven.PromptStore, cfg AssemblerConfig) *Assembler {
	return &Assembler{generator: generator, prompts: prompts, cfg: cfg}
}

// Assemble invokes the model with the context and returns the answer. The
// sources are attached even when generation fails.
func (a *Assembler) Assemble(
	ctx context.Context, question string, result domain.RetrievalResult, history []domain.Turn,
) (*domain.Answer, error) {
	answer := &domain.Answer{Sources: result, NoContext: result.IsEmpty()}

	messages, err := a.Messages(question, result, history)
	if err != nil {
		return answer, err
	}

	callCtx, cancel := withTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	text, err := a.generator.Chat(callCtx, messages, driven.ChatOptions{
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		err = domain.ClassifyContextError(err)
		if !isKind(err, domain.ErrTimeout, domain.ErrGenerationFailed, domain.ErrLLMUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return answer, err
	}

	text = strings.TrimSpace(text)
	if text == "" && answer.NoContext {
		text = domain.InsufficientInformation + "."
	}
	if text == "" {
		return answer, fmt.Errorf("%w: empty reply", domain.ErrGenerationFailed)
	}
	answer.Text = text
	return answer, nil
}

// Messages builds the request: system instruction, prior turns, then the
// context block and question as the final user message.
func (a *Assembler) Messages(question string, result domain.RetrievalResult, history []domain.Turn) ([]driven.ChatMessage, error) {
	system, err := a.systemPrompt()
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{Role: driven.RoleSystem, Content: system}}

	switch {
	case a.cfg.HistoryTurns <= 0:
		history = nil
	case len(history) > a.cfg.HistoryTurns:
		history = history[len(history)-a.cfg.HistoryTurns:]
	}
	for _, t := range history {
		role := driven.RoleUser
		if t.Role == domain.RoleAssistant {
			role = driven.RoleAssistant
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: t.Text})
	}

	block := BuildContext(result, a.cfg.MaxContextChars)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: "Context:\n" + block + "\n\nQuestion: " + strings.TrimSpace(question),
	})
	return messages, nil
}

func (a *Assembler) systemPrompt() (string, error) {
	custom := strings.TrimSpace(a.cfg.SystemPrompt)
	if custom == "" {
		return a.prompts.Load(driven.PromptAnswerSystem)
	}

	tpl, err := a.prompts.Load(driven.PromptCustomRole)
	if err != nil {
		return "", err
	}
	role, instructions, _ := strings.Cut(custom, "\n")
	return fmt.Sprintf(tpl, strings.TrimSpace(role), strings.TrimSpace(instructions)), nil
}

// BuildContext renders hits as numbered, citable blocks:
//
//	[1] Space Needle (Seattle, Washington, United States) id=p1
//	Name: Space Needle
//	...
//
// The output is at most maxChars runes; the block that crosses the bound is
// truncated and later blocks are dropped. Zero disables the bound.
func BuildContext(result domain.RetrievalResult, maxChars int) string {
	if result.IsEmpty() {
		return NoMatchingContext
	}

	var (
		b    strings.Builder
		used int
	)
	for n, hit := range result.Hits {
		block := citationHeader(n+1, hit.Document) + "\n" + strings.TrimSpace(hit.Document.Content)
		if n > 0 {
			block = "\n\n" + block
		}

		size := utf8.RuneCountInString(block)
		if maxChars > 0 && used+size > maxChars {
			b.WriteString(truncateRunes(block, maxChars-used))
			break
		}
		b.WriteString(block)
		used += size
	}
	return b.String()
}

// citationHeader is "[n] name (city, state, country) id=<id>"; empty
// location parts are left out.
func citationHeader(n int, doc domain.Document) string {
	name, _ := doc.Metadata[domain.MetaName].(string)
	if name == "" {
		name = doc.ID
	}

	var loc []string
	for _, key := range []string{domain.MetaCity, domain.MetaState, domain.MetaCountry} {
		if v, ok := doc.Metadata[key].(string); ok && v != "" {
			loc = append(loc, v)
		}
	}

	header := "[" + strconv.Itoa(n) + "] " + name
	if len(loc) > 0 {
		header += " (" + strings.Join(loc, ", ") + ")"
	}
	return header + " id=" + doc.ID
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
