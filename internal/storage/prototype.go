package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"studio/internal/domain"
)

// PrototypeStore implements domain.PrototypeStore using SQLite. The document
// is stored as a single JSON blob so it round-trips exactly.
type PrototypeStore struct {
	db *DB
}

func NewPrototypeStore(db *DB) *PrototypeStore {
	return &PrototypeStore{db: db}
}

func (s *PrototypeStore) CreatePrototype(p *domain.Prototype, doc *domain.Document) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.conn.Exec(
		`INSERT INTO prototypes (id, name, team_id, org_id, document_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.TeamID, p.OrgID, string(blob), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PrototypeStore) GetPrototype(id string) (*domain.Prototype, error) {
	p := &domain.Prototype{}
	err := s.db.conn.QueryRow(
		`SELECT id, name, team_id, org_id, created_at, updated_at FROM prototypes WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.TeamID, &p.OrgID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get prototype: %w", err)
	}
	return p, nil
}

func (s *PrototypeStore) ListPrototypes() ([]domain.Prototype, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, team_id, org_id, created_at, updated_at FROM prototypes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prototypes []domain.Prototype
	for rows.Next() {
		var p domain.Prototype
		if err := rows.Scan(&p.ID, &p.Name, &p.TeamID, &p.OrgID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prototypes = append(prototypes, p)
	}
	return prototypes, rows.Err()
}

func (s *PrototypeStore) LoadDocument(prototypeID string) (*domain.Document, error) {
	var blob string
	err := s.db.conn.QueryRow(
		`SELECT document_json FROM prototypes WHERE id = ?`, prototypeID,
	).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc := &domain.Document{}
	if err := json.Unmarshal([]byte(blob), doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (s *PrototypeStore) SaveDocument(prototypeID string, doc *domain.Document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.conn.Exec(
		`UPDATE prototypes SET document_json = ?, updated_at = ? WHERE id = ?`,
		string(blob), time.Now(), prototypeID,
	)
	return err
}

func (s *PrototypeStore) RenamePrototype(id, name string) error {
	_, err := s.db.conn.Exec(
		`UPDATE prototypes SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now(), id,
	)
	return err
}

func (s *PrototypeStore) DeletePrototype(id string) error {
	_, _ = s.db.conn.Exec(`DELETE FROM snapshot_state WHERE prototype_id = ?`, id)
	_, _ = s.db.conn.Exec(`DELETE FROM snapshots WHERE prototype_id = ?`, id)
	_, _ = s.db.conn.Exec(`DELETE FROM symbols WHERE owner_id = ? AND scope = 'prototype'`, id)
	_, err := s.db.conn.Exec(`DELETE FROM prototypes WHERE id = ?`, id)
	return err
}
