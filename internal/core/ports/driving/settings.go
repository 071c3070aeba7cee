package driving

import "github.com/custodia-labs/travelrag/internal/core/domain"

// SettingsService resolves application settings from config and environment.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment overrides.
	Get() (*domain.AppSettings, error)

	// Set validates and persists one dotted key.
	Set(key, value string) error

	// Keys lists the recognised configuration keys.
	Keys() []string

	// IsSecret reports whether key holds a credential that must be masked.
	IsSecret(key string) bool

	// Path returns the config file location.
	Path() string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
