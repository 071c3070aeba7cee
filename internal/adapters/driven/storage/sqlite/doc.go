// Package sqlite provides the persistent SQLite implementations of the
// vector index and conversation store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database file:
//
//   - VectorIndex: named collections of embeddings with their documents
//   - ConversationStore: per-session turn history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data_dir>/vectors.db, by default ~/.travelrag/data/vectors.db.
//
// # Queries
//
// Similarity search is a brute-force scan of the collection. Vectors are
// stored as little-endian float32 blobs.
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised by the store and
// SQLite runs in WAL mode so readers never block.
package sqlite
