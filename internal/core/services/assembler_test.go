package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

func hit(id, name, content string, score float64) domain.ScoredDocument {
	return domain.ScoredDocument{
		Document: domain.Document{
			ID:      id,
			Content: content,
			Metadata: map[string]any{
				domain.MetaName:    name,
				domain.MetaCity:    "Seattle",
				domain.MetaState:   "Washington",
				domain.MetaCountry: "United States",
			},
		},
		Score: score,
	}
}

func twoHits() domain.RetrievalResult {
	return domain.RetrievalResult{Hits: []domain.ScoredDocument{
		hit("p1", "Space Needle", "Name: Space Needle\nDescription: Observation tower.", 0.9),
		hit("p2", "Pike Place Market", "Name: Pike Place Market\nDescription: Public market.", 0.7),
	}}
}

func TestBuildContext_Format(t *testing.T) {
	got := BuildContext(twoHits(), 6000)

	want := "[1] Space Needle (Seattle, Washington, United States) id=p1\n" +
		"Name: Space Needle\nDescription: Observation tower.\n\n" +
		"[2] Pike Place Market (Seattle, Washington, United States) id=p2\n" +
		"Name: Pike Place Market\nDescription: Public market."
	assert.Equal(t, want, got)
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, NoMatchingContext, BuildContext(domain.RetrievalResult{}, 6000))
}

func TestBuildContext_Bounded(t *testing.T) {
	long := strings.Repeat("é", 5000)
	res := domain.RetrievalResult{Hits: []domain.ScoredDocument{
		hit("p1", "One", long, 0.9),
		hit("p2", "Two", long, 0.8),
		hit("p3", "Three", long, 0.7),
	}}

	got := BuildContext(res, 6000)

	assert.Equal(t, 6000, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "[2] Two")
	assert.NotContains(t, got, "[3] Three")
}

func TestBuildContext_MissingLocation(t *testing.T) {
	res := domain.RetrievalResult{Hits: []domain.ScoredDocument{{
		Document: domain.Document{ID: "p9", Content: "text", Metadata: map[string]any{}},
	}}}

	assert.Equal(t, "[1] p9 id=p9\ntext", BuildContext(res, 0))
}

func TestAssemble_Messages(t *testing.T) {
	gen := &mockGenerator{reply: "The Space Needle is an observation tower [1]."}
	a := NewAssembler(gen, mockPrompts{}, AssemblerConfig{
		MaxContextChars: 6000,
		HistoryTurns:    2,
		Temperature:     0.7,
		MaxTokens:       1024,
	})
	history := []domain.Turn{
		{Role: domain.RoleUser, Text: "old question"},
		{Role: domain.RoleAssistant, Text: "old answer"},
		{Role: domain.RoleUser, Text: "recent question"},
		{Role: domain.RoleAssistant, Text: "recent answer"},
	}

	answer, err := a.Assemble(context.Background(), "What is the Space Needle?", twoHits(), history)

	require.NoError(t, err)
	assert.Equal(t, "The Space Needle is an observation tower [1].", answer.Text)
	assert.Equal(t, []string{"p1", "p2"}, answer.Sources.IDs())
	assert.False(t, answer.NoContext)

	require.Len(t, gen.messages, 4)
	assert.Equal(t, driven.RoleSystem, gen.messages[0].Role)
	assert.Equal(t, "Answer only from the context.", gen.messages[0].Content)
	assert.Equal(t, "recent question", gen.messages[1].Content)
	assert.Equal(t, driven.RoleAssistant, gen.messages[2].Role)
	assert.True(t, strings.HasPrefix(gen.lastUser(), "Context:\n[1] Space Needle"))
	assert.True(t, strings.HasSuffix(gen.lastUser(), "\n\nQuestion: What is the Space Needle?"))
	assert.Equal(t, driven.ChatOptions{MaxTokens: 1024, Temperature: 0.7}, gen.opts)
}

func TestAssemble_NoHistoryWindow(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	a := NewAssembler(gen, mockPrompts{}, AssemblerConfig{})

	_, err := a.Assemble(context.Background(), "q", twoHits(), []domain.Turn{{Role: domain.RoleUser, Text: "x"}})

	require.NoError(t, err)
	assert.Len(t, gen.messages, 2)
}

func TestAssemble_NoContext(t *testing.T) {
	gen := &mockGenerator{}
	a := NewAssembler(gen, mockPrompts{}, AssemblerConfig{HistoryTurns: 6})

	answer, err := a.Assemble(context.Background(), "Where is the Eiffel Tower?", domain.RetrievalResult{}, nil)

	require.NoError(t, err)
	assert.True(t, answer.NoContext)
	assert.Equal(t, domain.InsufficientInformation+".", answer.Text)
	assert.Contains(t, gen.lastUser(), "Context:\n"+NoMatchingContext+"\n\n")
}

func TestAssemble_EmptyReplyWithContextFails(t *testing.T) {
	a := NewAssembler(&mockGenerator{reply: "  "}, mockPrompts{}, AssemblerConfig{})

	answer, err := a.Assemble(context.Background(), "q", twoHits(), nil)

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, 2, answer.Sources.Len())
}

func TestAssemble_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", fmt.Errorf("gemini: %w", domain.ErrLLMUnavailable), domain.ErrLLMUnavailable},
		{"deadline", context.DeadlineExceeded, domain.ErrTimeout},
		{"other", errors.New("boom"), domain.ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(&mockGenerator{err: tt.err}, mockPrompts{}, AssemblerConfig{})

			answer, err := a.Assemble(context.Background(), "q", twoHits(), nil)

			assert.ErrorIs(t, err, tt.want)
			require.NotNil(t, answer)
			assert.Equal(t, []string{"p1", "p2"}, answer.Sources.IDs())
		})
	}
}

func TestAssemble_CustomRole(t *testing.T) {
	gen := &mockGenerator{reply: "ok"}
	a := NewAssembler(gen, mockPrompts{}, AssemblerConfig{
		SystemPrompt: "a friendly Seattle tour guide\nMention opening hours when known.",
	})

	_, err := a.Assemble(context.Background(), "q", twoHits(), nil)

	require.NoError(t, err)
	assert.Equal(t,
		"You are a friendly Seattle tour guide.\nMention opening hours when known.\nAnswer only from the context.",
		gen.messages[0].Content)
}
