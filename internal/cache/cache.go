// Package cache stores parsed receipt records keyed by the image digest,
// so the same photo is not recognised twice.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/MeKo-Tech/scontrino/internal/receipt"
)

const bucketName = "records"

// Entry is one cached result. Unreadable is filled by Put from the
// record and applied again by Get, since the record's JSON form renders
// unreadable values as zero.
type Entry struct {
	Record     receipt.Record  `json:"record"`
	Unreadable []receipt.Field `json:"unreadable,omitempty"`
	Rectified  bool            `json:"rectified"`
	StoredAt   time.Time       `json:"stored_at"`
}

// Store is a bbolt backed record cache. Keys combine the image digest
// with a configuration fingerprint, so changing a setting that affects
// parsing misses instead of returning a stale record.
type Store struct {
	db          *bbolt.DB
	fingerprint string
}

// Open opens (or creates) the cache file at path.
func Open(path, fingerprint string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &Store{db: db, fingerprint: fingerprint}, nil
}

// Key returns the cache key of an image under fingerprint.
func Key(image []byte, fingerprint string) []byte {
	sum := sha256.Sum256(image)
	return []byte(hex.EncodeToString(sum[:]) + ":" + fingerprint)
}

// Get looks up the record cached for image.
func (s *Store) Get(image []byte) (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(Key(image, s.fingerprint))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	entry.Record = entry.Record.WithUnreadable(entry.Unreadable...)
	return entry, found, nil
}

// Put stores the record for image.
func (s *Store) Put(image []byte, entry Entry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	entry.Unreadable = entry.Record.UnreadableFields()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(Key(image, s.fingerprint), data)
	})
}

// Len returns the number of cached entries, any fingerprint.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Prune deletes entries written under another fingerprint and returns
// how many were removed.
func (s *Store) Prune() (int, error) {
	suffix := []byte(":" + s.fingerprint)
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if !bytes.HasSuffix(k, suffix) {
				stale = append(stale, bytes.Clone(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return removed, nil
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.db.Path() }

// Close closes the cache file.
func (s *Store) Close() error { return s.db.Close() }
