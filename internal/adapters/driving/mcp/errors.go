// Package mcp provides an MCP (Model Context Protocol) server adapter for travelrag.
// It lets AI assistants ask grounded travel questions and read session history.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
