package repl

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketHistory = "history"

// History is the REPL's persistent line history, one bolt record per line
// keyed by sequence number.
type History struct {
	db *bolt.DB
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &History{db: db}, nil
}

// DefaultHistoryPath is history.db under the user cache directory.
func DefaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "viewscope", "history.db")
}

// Add appends line unless it repeats the previous entry.
func (h *History) Add(line string) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		if _, last := b.Cursor().Last(); last != nil && string(last) == line {
			return nil
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(line))
	})
}

// Recent returns up to n of the latest lines, oldest first.
func (h *History) Recent(n int) ([]string, error) {
	var lines []string
	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.Last(); k != nil && len(lines) < n; k, v = c.Prev() {
			lines = append(lines, string(v))
		}
		return nil
	})
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, err
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
