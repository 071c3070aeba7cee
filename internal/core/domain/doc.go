// Package domain defines the core business entities for travelrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CanonicalRecord: A source-independent attraction
//   - Document: A retrievable text unit with scalar metadata
//   - IndexedEntry: A document paired with its embedding
//   - Turn: One message of a conversation
//   - RetrievalResult: Ranked hits for a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
