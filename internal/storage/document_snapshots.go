package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

// DocumentSnapshots adapts the snapshot store to whole-document reads and
// writes. The session controller uses it as the revision sink on every save
// and as the fallback document source on standalone installs.
type DocumentSnapshots struct {
	store *SnapshotStore
}

func NewDocumentSnapshots(store *SnapshotStore) *DocumentSnapshots {
	return &DocumentSnapshots{store: store}
}

// ReadCurrent returns the document under the snapshot pointer, or nil when
// the prototype has no history.
func (d *DocumentSnapshots) ReadCurrent(prototypeID string) (*domain.Document, error) {
	cur, err := d.store.Current(prototypeID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(cur.DocumentJSON), &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", cur.ID, err)
	}
	return &doc, nil
}

// WriteSnapshot appends a revision under the current pointer and advances it.
func (d *DocumentSnapshots) WriteSnapshot(prototypeID string, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	parentID := ""
	if cur, err := d.store.Current(prototypeID); err == nil && cur != nil {
		parentID = cur.ID
	}

	label := time.Now().Format("2006-01-02 15:04:05")
	_, err = d.store.Push(prototypeID, uuid.New().String(), parentID, label, string(data))
	return err
}
