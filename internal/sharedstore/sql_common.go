package sharedstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studio/internal/domain"
)

// sqlBackend is the shared implementation for MySQL, Postgres, and SQLite.
type sqlBackend struct {
	driverName string
	db         *sql.DB
}

func newSQLBackend(driverName, dsn string) (*sqlBackend, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// Sensible pool settings for a desktop app
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	b := &sqlBackend{driverName: driverName, db: db}
	if err := b.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *sqlBackend) ensureSchema() error {
	ddl := `CREATE TABLE IF NOT EXISTS shared_symbols (
		id VARCHAR(128) PRIMARY KEY,
		scope VARCHAR(32) NOT NULL,
		owner_id VARCHAR(128) NOT NULL,
		name TEXT NOT NULL,
		fragment_json TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	_, err := b.db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("ensure shared_symbols schema: %w", err)
	}
	return nil
}

// rebind converts ? placeholders to $N for Postgres. MySQL and SQLite use ?
// natively.
func (b *sqlBackend) rebind(query string) string {
	if b.driverName != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (b *sqlBackend) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) ListSymbols(ctx context.Context, ownerID string, scope domain.SymbolScope) ([]domain.Symbol, error) {
	rows, err := b.db.QueryContext(ctx, b.rebind(
		`SELECT id, scope, owner_id, name, fragment_json, created_at, updated_at
		 FROM shared_symbols WHERE owner_id = ? AND scope = ? ORDER BY created_at ASC`),
		ownerID, string(scope),
	)
	if err != nil {
		return nil, fmt.Errorf("list shared symbols: %w", err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		var fragment string
		if err := rows.Scan(&sym.ID, &sym.Scope, &sym.OwnerID, &sym.Name, &fragment, &sym.CreatedAt, &sym.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shared symbol: %w", err)
		}
		frag, err := domain.UnmarshalFragment(fragment)
		if err != nil {
			return nil, fmt.Errorf("parse fragment %s: %w", sym.ID, err)
		}
		sym.Fragment = frag
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (b *sqlBackend) CreateSymbol(ctx context.Context, sym *domain.Symbol) error {
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	now := time.Now()
	sym.CreatedAt = now
	sym.UpdatedAt = now
	_, err = b.db.ExecContext(ctx, b.rebind(
		`INSERT INTO shared_symbols (id, scope, owner_id, name, fragment_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		sym.ID, string(sym.Scope), sym.OwnerID, sym.Name, fragment, sym.CreatedAt, sym.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert shared symbol: %w", err)
	}
	return nil
}

func (b *sqlBackend) UpdateSymbol(ctx context.Context, sym *domain.Symbol) error {
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	sym.UpdatedAt = time.Now()
	_, err = b.db.ExecContext(ctx, b.rebind(
		`UPDATE shared_symbols SET name = ?, fragment_json = ?, updated_at = ? WHERE id = ?`),
		sym.Name, fragment, sym.UpdatedAt, sym.ID,
	)
	if err != nil {
		return fmt.Errorf("update shared symbol: %w", err)
	}
	return nil
}

func (b *sqlBackend) DeleteSymbol(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, b.rebind(`DELETE FROM shared_symbols WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete shared symbol: %w", err)
	}
	return nil
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}
