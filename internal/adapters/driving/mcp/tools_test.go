package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		ask := &mockAskService{answer: &domain.Answer{
			Text:      "The Space Needle is an observation tower [1].",
			SessionID: "s-1",
			Sources:   domain.RetrievalResult{Hits: []domain.ScoredDocument{spaceNeedle()}},
		}}
		server, err := NewServer(&Ports{Ask: ask})
		require.NoError(t, err)

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "What is the Space Needle?", K: 2, City: "Seattle"})

		require.NoError(t, err)
		assert.Equal(t, "s-1", out.SessionID)
		assert.Equal(t, "The Space Needle is an observation tower [1].", out.Answer)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "Space Needle", out.Sources[0].Name)
		assert.Empty(t, out.Sources[0].Content)
		assert.Equal(t, 2, ask.lastReq.K)
		assert.Equal(t, domain.CityFilter("Seattle"), ask.lastReq.Filter)
	})

	t.Run("generation failure asks to retry", func(t *testing.T) {
		server, err := NewServer(&Ports{Ask: &mockAskService{err: domain.ErrGenerationFailed}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.ErrorIs(t, err, domain.ErrGenerationFailed)
		assert.Contains(t, err.Error(), "please try again")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ask := &mockAskService{result: domain.RetrievalResult{Hits: []domain.ScoredDocument{spaceNeedle()}}}
	server, err := NewServer(&Ports{Ask: ask})
	require.NoError(t, err)

	_, out, err := server.handleRetrieve(context.Background(), nil, RetrieveInput{Query: "tower", K: 5})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "p1", out.Results[0].ID)
	assert.Equal(t, "Name: Space Needle", out.Results[0].Content)
	assert.InDelta(t, 0.92, out.Results[0].Score, 1e-9)
	assert.Equal(t, 5, ask.lastK)
	assert.True(t, ask.filter.IsEmpty())
}

func TestServer_handleHistory(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := &mockSessionService{turns: map[string][]domain.Turn{
		"s-1": {
			{Role: domain.RoleUser, Text: "hi", Timestamp: at},
			{Role: domain.RoleAssistant, Text: "hello", Timestamp: at},
		},
	}}
	server, err := NewServer(&Ports{Ask: &mockAskService{}, Sessions: sessions})
	require.NoError(t, err)

	_, out, err := server.handleHistory(context.Background(), nil, HistoryInput{SessionID: "s-1"})
	require.NoError(t, err)
	require.Len(t, out.Turns, 2)
	assert.Equal(t, "user", out.Turns[0].Role)
	assert.Equal(t, "2026-05-01T12:00:00Z", out.Turns[1].At)

	_, _, err = server.handleHistory(context.Background(), nil, HistoryInput{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
