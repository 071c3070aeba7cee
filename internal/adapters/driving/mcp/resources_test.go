package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid session URI", "travelrag://sessions/abc-123", "abc-123"},
		{"invalid prefix", "file://sessions/abc-123", ""},
		{"nested path", "travelrag://sessions/abc/turns", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleSessionsResource(t *testing.T) {
	sessions := &mockSessionService{sessions: []domain.SessionInfo{
		{ID: "s-2", Turns: 4, UpdatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}}
	server, err := NewServer(&Ports{Ask: &mockAskService{}, Sessions: sessions})
	require.NoError(t, err)

	res, err := server.handleSessionsResource(context.Background(), readRequest("travelrag://sessions"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "s-2", got[0]["id"])
	assert.Equal(t, float64(4), got[0]["turns"])
}

func TestServer_handleSessionResource(t *testing.T) {
	sessions := &mockSessionService{turns: map[string][]domain.Turn{
		"s-1": {{Role: domain.RoleUser, Text: "hi"}},
	}}
	server, err := NewServer(&Ports{Ask: &mockAskService{}, Sessions: sessions})
	require.NoError(t, err)

	res, err := server.handleSessionResource(context.Background(), readRequest("travelrag://sessions/s-1"))
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"text": "hi"`)

	_, err = server.handleSessionResource(context.Background(), readRequest("travelrag://sessions/unknown"))
	assert.Error(t, err)

	_, err = server.handleSessionResource(context.Background(), readRequest("travelrag://other"))
	assert.Error(t, err)
}
