package storage

import (
	"fmt"
	"time"

	"studio/internal/domain"
)

// LocalSymbolStore implements domain.SymbolStore for one scope using SQLite.
// Prototype-scope symbols always live here; team and organization scopes use
// it on standalone installs where no shared store is configured.
type LocalSymbolStore struct {
	db    *DB
	scope domain.SymbolScope
}

func NewLocalSymbolStore(db *DB, scope domain.SymbolScope) *LocalSymbolStore {
	return &LocalSymbolStore{db: db, scope: scope}
}

func (s *LocalSymbolStore) ListSymbols(ownerID string) ([]domain.Symbol, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, scope, owner_id, name, fragment_json, created_at, updated_at
		 FROM symbols WHERE owner_id = ? AND scope = ? ORDER BY created_at ASC`,
		ownerID, string(s.scope),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		var fragment string
		if err := rows.Scan(&sym.ID, &sym.Scope, &sym.OwnerID, &sym.Name, &fragment, &sym.CreatedAt, &sym.UpdatedAt); err != nil {
			return nil, err
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

func (s *LocalSymbolStore) CreateSymbol(sym *domain.Symbol) error {
	now := time.Now()
	sym.CreatedAt = now
	sym.UpdatedAt = now
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	_, err = s.db.conn.Exec(
		`INSERT INTO symbols (id, scope, owner_id, name, fragment_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sym.ID, string(sym.Scope), sym.OwnerID, sym.Name, fragment, sym.CreatedAt, sym.UpdatedAt,
	)
	return err
}

func (s *LocalSymbolStore) UpdateSymbol(sym *domain.Symbol) error {
	sym.UpdatedAt = time.Now()
	fragment, err := domain.MarshalFragment(sym.Fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment: %w", err)
	}
	_, err = s.db.conn.Exec(
		`UPDATE symbols SET name = ?, fragment_json = ?, updated_at = ? WHERE id = ?`,
		sym.Name, fragment, sym.UpdatedAt, sym.ID,
	)
	return err
}

func (s *LocalSymbolStore) DeleteSymbol(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM symbols WHERE id = ?`, id)
	return err
}
