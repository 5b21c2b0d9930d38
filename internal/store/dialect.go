package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect covers the two SQL engines the storefront runs on.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) driver() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) blobType() string {
	if d == SQLite {
		return "BLOB"
	}
	return "BYTEA"
}

// Rebind rewrites ? placeholders into $N for Postgres. Queries must not
// contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// OpenSQL opens and pings a database for the dialect. For SQLite the dsn is
// a file path (or ":memory:").
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	if d == SQLite && dsn != ":memory:" {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver(), err)
	}
	if d == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver(), err)
	}
	return db, nil
}
