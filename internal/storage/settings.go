package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// SettingsStore caches the runtime settings and persists them on explicit update
type SettingsStore struct {
	file     *jsonFile
	log      *slog.Logger
	validate *validator.Validate

	mu  sync.RWMutex
	cur models.Settings
}

// NewSettingsStore loads settings from path. A missing file is created with defaults,
// a corrupt one is left untouched and defaults are used in memory.
func NewSettingsStore(path string, log *slog.Logger) *SettingsStore {
	s := &SettingsStore{
		file:     newJSONFile(path),
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	cfg := models.DefaultSettings()
	err := s.file.load(&cfg)
	switch {
	case err == nil:
		log.Info("settings loaded", "path", path)
	case errors.Is(err, os.ErrNotExist):
		log.Info("settings file not found, writing defaults", "path", path)
		cfg = models.DefaultSettings()
		if err := s.file.save(cfg); err != nil {
			log.Error("save default settings", "error", err)
		}
	default:
		log.Error("load settings", "path", path, "error", err)
		cfg = models.DefaultSettings()
	}

	s.cur = cfg
	return s
}

// Get returns a copy of the current settings
func (s *SettingsStore) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Update applies fn to a copy of the settings, validates and saves the result.
// The cached settings change only when the save succeeds.
func (s *SettingsStore) Update(fn func(*models.Settings)) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.Clone()
	fn(&next)

	if err := s.validate.Struct(next); err != nil {
		return s.cur.Clone(), fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.file.save(next); err != nil {
		return s.cur.Clone(), fmt.Errorf("save settings: %w", err)
	}

	s.cur = next
	s.log.Info("settings saved")
	return next.Clone(), nil
}
