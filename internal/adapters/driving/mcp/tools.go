package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the travel question to answer"`
	SessionID string `json:"session_id,omitempty" jsonschema:"continue an existing conversation; omit to start a new one"`
	K         int    `json:"k,omitempty" jsonschema:"number of attractions to retrieve (default from config)"`
	City      string `json:"city,omitempty" jsonschema:"only use attractions in this city"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string         `json:"answer"`
	SessionID string         `json:"session_id"`
	NoContext bool           `json:"no_context"`
	Sources   []SourceOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to search attractions for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of results (default from config)"`
	City  string `json:"city,omitempty" jsonschema:"only return attractions in this city"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// SourceOutput is one retrieved document.
type SourceOutput struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Score   float64 `json:"score"`
	Content string  `json:"content,omitempty"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to read"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	SessionID string       `json:"session_id"`
	Turns     []TurnOutput `json:"turns"`
}

// TurnOutput is one conversation turn.
type TurnOutput struct {
	Role string `json:"role"`
	Text string `json:"text"`
	At   string `json:"at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a travel question using only the indexed attraction database",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the attractions most similar to a query without generating an answer",
	}, s.handleRetrieve)

	if s.ports.Sessions != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "history",
			Description: "Read the turns of a conversation session",
		}, s.handleHistory)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, driving.AskRequest{
		Question:  input.Question,
		SessionID: input.SessionID,
		K:         input.K,
		Filter:    domain.CityFilter(input.City),
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			return nil, AskOutput{}, fmt.Errorf("could not generate an answer, please try again: %w", err)
		}
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    answer.Text,
		SessionID: answer.SessionID,
		NoContext: answer.NoContext,
		Sources:   sources(answer.Sources, false),
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Ask.Retrieve(ctx, input.Query, input.K, domain.CityFilter(input.City))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	out := sources(result, true)
	return nil, RetrieveOutput{Results: out, Count: len(out)}, nil
}

func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	turns, err := s.ports.Sessions.History(ctx, input.SessionID)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{SessionID: input.SessionID, Turns: turnOutputs(turns)}, nil
}

func sources(result domain.RetrievalResult, withContent bool) []SourceOutput {
	out := make([]SourceOutput, len(result.Hits))
	for i, hit := range result.Hits {
		doc := hit.Document
		out[i] = SourceOutput{
			ID:      doc.ID,
			Name:    doc.String(domain.MetaName),
			City:    doc.String(domain.MetaCity),
			Country: doc.String(domain.MetaCountry),
			Score:   hit.Score,
		}
		if withContent {
			out[i].Content = doc.Content
		}
	}
	return out
}

func turnOutputs(turns []domain.Turn) []TurnOutput {
	out := make([]TurnOutput, len(turns))
	for i, t := range turns {
		out[i] = TurnOutput{Role: string(t.Role), Text: t.Text, At: t.Timestamp.UTC().Format("2006-01-02T15:04:05Z")}
	}
	return out
}
