// Package history persists run results so past runs can be listed,
// inspected, and compared.
//
// Results live in a single bbolt file under the user's home directory.
// Keys are the run start time plus the run ID, so a reverse cursor
// walks runs newest-first without a secondary index.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/radload-io/radload/internal/engine"
)

const (
	// BucketRuns holds one entry per completed run.
	BucketRuns = "runs"

	keyTimeLayout = "20060102T150405"
)

// Store is a persistent run history backed by bbolt.
type Store struct {
	db *bbolt.DB
}

// Entry is one stored run, summarized for listing. The fields mirror
// the result document's top-level keys.
type Entry struct {
	Key       string        `json:"key"`
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Mode      string        `json:"mode"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Totals    engine.Totals `json:"totals"`
	Passed    bool          `json:"passed"`
}

// DefaultPath returns the standard history location,
// ~/.radload/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".radload", "history.db"), nil
}

// NewStore opens the history at the default location.
func NewStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open opens (or creates) a history file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Key derives the storage key for a result.
func Key(result *engine.RunResult) string {
	return fmt.Sprintf("%s_%s", result.StartTime.Format(keyTimeLayout), result.ID)
}

// Save stores a run result and returns its key.
func (s *Store) Save(result *engine.RunResult) (string, error) {
	key := Key(result)

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketRuns)).Put([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketRuns)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}

			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				// A corrupt entry should not hide the rest
				continue
			}
			entry.Key = string(k)
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns the raw result document for a key. A unique key prefix
// is accepted, so runs can be addressed by their timestamp alone.
func (s *Store) Get(key string) ([]byte, error) {
	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))

		if v := b.Get([]byte(key)); v != nil {
			data = append(data, v...)
			return nil
		}

		// Prefix lookup
		prefix := []byte(key)
		c := b.Cursor()
		k, v := c.Seek(prefix)
		if k == nil || !bytes.HasPrefix(k, prefix) {
			return fmt.Errorf("run %q not found", key)
		}
		if next, _ := c.Next(); next != nil && bytes.HasPrefix(next, prefix) {
			return fmt.Errorf("run %q is ambiguous, use a longer key", key)
		}

		data = append(data, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
