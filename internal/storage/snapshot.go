package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Snapshot represents a single saved revision of a prototype's document.
type Snapshot struct {
	ID           string    `json:"id"`
	PrototypeID  string    `json:"prototypeId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	DocumentJSON string    `json:"documentJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SnapshotHistory is the full revision history returned to the frontend.
type SnapshotHistory struct {
	Snapshots []Snapshot `json:"snapshots"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// SnapshotStore manages revision history in SQLite. The snapshot under the
// current pointer doubles as the persisted local fallback: it is read on
// session start when no network persistence is configured and written on
// every successful save.
type SnapshotStore struct {
	db *DB
}

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// LoadHistory returns the full revision history for a prototype.
func (s *SnapshotStore) LoadHistory(prototypeID string) (*SnapshotHistory, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, prototype_id, parent_id, label, document_json, created_at
		 FROM snapshots WHERE prototype_id = ? ORDER BY created_at ASC`, prototypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	var rootID string
	for rows.Next() {
		var n Snapshot
		if err := rows.Scan(&n.ID, &n.PrototypeID, &n.ParentID, &n.Label, &n.DocumentJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		snapshots = append(snapshots, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		return nil, nil // No history yet
	}

	var currentID string
	err = s.db.Conn().QueryRow(
		`SELECT current_snapshot_id FROM snapshot_state WHERE prototype_id = ?`, prototypeID,
	).Scan(&currentID)
	if err != nil {
		currentID = rootID // Fallback
	}

	return &SnapshotHistory{
		Snapshots: snapshots,
		CurrentID: currentID,
		RootID:    rootID,
	}, nil
}

// Current returns the snapshot the pointer rests on, or nil when no history
// exists. Used as the local-fallback document source on session start.
func (s *SnapshotStore) Current(prototypeID string) (*Snapshot, error) {
	var currentID string
	err := s.db.Conn().QueryRow(
		`SELECT current_snapshot_id FROM snapshot_state WHERE prototype_id = ?`, prototypeID,
	).Scan(&currentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot pointer: %w", err)
	}

	var n Snapshot
	err = s.db.Conn().QueryRow(
		`SELECT id, prototype_id, parent_id, label, document_json, created_at FROM snapshots WHERE id = ?`, currentID,
	).Scan(&n.ID, &n.PrototypeID, &n.ParentID, &n.Label, &n.DocumentJSON, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load current snapshot: %w", err)
	}
	return &n, nil
}

// Push creates a new snapshot with the given ID under the specified parent
// and moves the pointer to it.
func (s *SnapshotStore) Push(prototypeID, snapshotID, parentID, label, documentJSON string) (*Snapshot, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO snapshots (id, prototype_id, parent_id, label, document_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snapshotID, prototypeID, pID, label, documentJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO snapshot_state (prototype_id, current_snapshot_id) VALUES (?, ?)
		 ON CONFLICT(prototype_id) DO UPDATE SET current_snapshot_id = excluded.current_snapshot_id`,
		prototypeID, snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("update snapshot pointer: %w", err)
	}

	s.pruneIfNeeded(prototypeID, 40)

	return &Snapshot{
		ID:           snapshotID,
		PrototypeID:  prototypeID,
		ParentID:     pID,
		Label:        label,
		DocumentJSON: documentJSON,
		CreatedAt:    now,
	}, nil
}

// GoTo moves the current pointer to an existing snapshot.
func (s *SnapshotStore) GoTo(prototypeID, snapshotID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO snapshot_state (prototype_id, current_snapshot_id) VALUES (?, ?)
		 ON CONFLICT(prototype_id) DO UPDATE SET current_snapshot_id = excluded.current_snapshot_id`,
		prototypeID, snapshotID,
	)
	return err
}

// ClearPrototype removes all revision data for a prototype.
func (s *SnapshotStore) ClearPrototype(prototypeID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM snapshot_state WHERE prototype_id = ?`, prototypeID)
	_, err := s.db.Conn().Exec(`DELETE FROM snapshots WHERE prototype_id = ?`, prototypeID)
	return err
}

// pruneIfNeeded removes oldest snapshots when count exceeds maxSnapshots,
// re-parenting children so the history stays connected.
func (s *SnapshotStore) pruneIfNeeded(prototypeID string, maxSnapshots int) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM snapshots WHERE prototype_id = ?`, prototypeID).Scan(&count)
	if count <= maxSnapshots {
		return
	}

	toDelete := count - maxSnapshots

	// Get current pointer BEFORE opening rows cursor (avoid nested query deadlock)
	var currentID string
	s.db.Conn().QueryRow(`SELECT current_snapshot_id FROM snapshot_state WHERE prototype_id = ?`, prototypeID).Scan(&currentID)

	// Collect IDs to delete FIRST (close rows before doing any writes)
	rows, err := s.db.Conn().Query(
		`SELECT id FROM snapshots WHERE prototype_id = ?
		 ORDER BY created_at ASC LIMIT ?`, prototypeID, toDelete,
	)
	if err != nil {
		return
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM snapshots WHERE id = ?`, id).Scan(&parentID)

		if parentID.Valid {
			s.db.Conn().Exec(
				`UPDATE snapshots SET parent_id = ? WHERE parent_id = ?`,
				parentID.String, id,
			)
		} else {
			s.db.Conn().Exec(
				`UPDATE snapshots SET parent_id = NULL WHERE parent_id = ?`, id,
			)
		}

		s.db.Conn().Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	}
}
