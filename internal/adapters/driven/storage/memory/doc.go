// Package memory provides in-memory implementations of the vector index,
// conversation store and config store. Nothing survives a restart; the
// sqlite package is the persistent counterpart.
//
// The vector index and conversation store back the memory settings of
// vector.backend and session.backend. ConfigStore is not used by the
// application, which reads config.toml through the file package; it exists
// as the test double for services.SettingsService.
package memory
