package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// The kv table is the durable key-value substrate: the legacy flat blob,
// both migration completion flags and the theme preference live here.

// GetValue reports (value, true) when the key exists, ("", false) otherwise.
func (q *Queries) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := q.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get value %q: %w", key, err)
	}
	return value, true, nil
}

func (q *Queries) SetValue(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("set value %q: %w", key, err)
	}
	return nil
}

func (q *Queries) DeleteValue(ctx context.Context, key string) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete value %q: %w", key, err)
	}
	return nil
}
