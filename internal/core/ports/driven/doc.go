// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Ingestion
//
//   - PlaceSource, DescriptionSource: Fetch raw records from remote APIs
//   - PlaceNormaliser, DescriptionNormaliser: Map raw records onto the domain
//   - PostProcessor: Segments built documents
//   - CorpusStore: Persists the processed corpus between collection and indexing
//
// # Retrieval and Generation
//
//   - Embedder: Generates vector embeddings
//   - VectorIndex: Stores embeddings and answers similarity queries
//   - Generator: Hosted generative model
//   - ConversationStore: Session history
//
// # Configuration
//
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
