// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): collection, indexing,
// retrieval, answer assembly, sessions and settings.
package services
