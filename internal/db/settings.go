package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/preflight/internal/schemas"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

// Load returns the persisted settings of culture. A culture without a row
// returns an error wrapping settings.ErrNotFound.
func (db *DB) Load(ctx context.Context, culture string) ([]types.StoredSetting, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT settings FROM preflight_settings WHERE culture = $1`,
		culture,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("culture %s: %w", culture, settings.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load settings for %s: %w", culture, err)
	}
	return decodeSettings(culture, raw)
}

// Save replaces the persisted settings of culture.
func (db *DB) Save(ctx context.Context, culture string, stored []types.StoredSetting) error {
	data, err := encodeSettings(stored)
	if err != nil {
		return fmt.Errorf("culture %s: %w", culture, err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO preflight_settings (culture, settings)
		 VALUES ($1, $2)
		 ON CONFLICT (culture) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()`,
		culture, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", culture, err)
	}
	return nil
}

// Cultures lists the cultures that have persisted settings.
func (db *DB) Cultures(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT culture FROM preflight_settings ORDER BY culture`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings cultures: %w", err)
	}
	cultures, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan settings cultures: %w", err)
	}
	return cultures, nil
}

func encodeSettings(stored []types.StoredSetting) ([]byte, error) {
	if stored == nil {
		stored = []types.StoredSetting{}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := schemas.ValidateSettings(data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeSettings(culture string, raw []byte) ([]types.StoredSetting, error) {
	if err := schemas.ValidateSettings(raw); err != nil {
		return nil, fmt.Errorf("stored settings for %s are invalid: %w", culture, err)
	}
	var stored []types.StoredSetting
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse settings for %s: %w", culture, err)
	}
	return stored, nil
}
