package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
)

// SaveSetting stores a JSON-encoded value under the given key.
func (db *DB) SaveSetting(ctx context.Context, key string, value interface{}) error {
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting value: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, val,
	); err != nil {
		return fmt.Errorf("%w: save setting %q: %w", apperrors.ErrStorage, key, err)
	}

	return nil
}

// GetSetting unmarshals the value stored under key into target. A missing
// key leaves target untouched and returns nil.
func (db *DB) GetSetting(ctx context.Context, key string, target interface{}) error {
	var val []byte

	err := db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&val)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}

		return fmt.Errorf("%w: get setting %q: %w", apperrors.ErrStorage, key, err)
	}

	if err := json.Unmarshal(val, target); err != nil {
		return fmt.Errorf("unmarshal setting %q: %w", key, err)
	}

	return nil
}
