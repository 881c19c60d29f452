// Package store persists settings documents as one JSON file per culture.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/schemas"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

// FileStore keeps {culture}.json documents in a directory. Writes go to a
// temporary file that is renamed over the target.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir, creating the directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("settings directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logging.OrNop(logger)}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(culture string) (string, error) {
	if culture == "" || strings.ContainsAny(culture, `/\`) || strings.HasPrefix(culture, ".") {
		return "", fmt.Errorf("invalid culture %q", culture)
	}
	return filepath.Join(s.dir, culture+".json"), nil
}

// Load reads the settings document for culture. A missing file returns an
// error wrapping settings.ErrNotFound.
func (s *FileStore) Load(_ context.Context, culture string) ([]types.StoredSetting, error) {
	path, err := s.path(culture)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("culture %s: %w", culture, settings.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := schemas.ValidateSettings(data); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}

	var stored []types.StoredSetting
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return stored, nil
}

// Save writes the settings document for culture.
func (s *FileStore) Save(_ context.Context, culture string, stored []types.StoredSetting) error {
	path, err := s.path(culture)
	if err != nil {
		return err
	}
	if stored == nil {
		stored = []types.StoredSetting{}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := schemas.ValidateSettings(data); err != nil {
		return fmt.Errorf("refusing to save invalid settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, culture+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.logger.Debug("saved settings", zap.String("culture", culture), zap.String("path", path))
	return nil
}
