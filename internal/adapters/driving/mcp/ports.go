package mcp

import (
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Ask answers questions and retrieves documents.
	Ask driving.AskService

	// Sessions exposes conversation history. Optional.
	Sessions driving.SessionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
