package driving

import "github.com/activemonkeys/geneax/internal/core/domain"

// SettingsService exposes application settings.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set persists a single configuration key.
	Set(key string, value any) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
