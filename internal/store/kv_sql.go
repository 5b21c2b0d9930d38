package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// SQLKV stores collections in a single two-column table.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLKV(db *sql.DB, d Dialect) *SQLKV {
	return &SQLKV{db: db, dialect: d}
}

// Migrate creates the backing table if it does not exist yet.
func (s *SQLKV) Migrate(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS storefront_kv (
				kv_key   TEXT PRIMARY KEY,
				kv_value %s NOT NULL
			)`, s.dialect.blobType()))
		if err != nil {
			return fmt.Errorf("create storefront_kv: %w", err)
		}
		return nil
	})
}

func (s *SQLKV) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.db.PingContext)
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, s.dialect.Rebind(`
			SELECT kv_value FROM storefront_kv WHERE kv_key = ?
		`), key).Scan(&v)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sql get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
			INSERT INTO storefront_kv (kv_key, kv_value)
			VALUES (?, ?)
			ON CONFLICT (kv_key) DO UPDATE SET kv_value = excluded.kv_value
		`), key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("sql set %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
			DELETE FROM storefront_kv WHERE kv_key = ?
		`), key)
		return err
	})
	if err != nil {
		return fmt.Errorf("sql delete %s: %w", key, err)
	}
	return nil
}
