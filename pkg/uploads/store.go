// Package uploads persists incoming photographs under collision-resistant
// names.  The naming scheme prefixes the receive time in epoch
// milliseconds, so concurrent uploads from different users never collide
// unless two identical file names land in the same millisecond — an
// accepted risk, not an eliminated one.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Record describes one stored upload.
type Record struct {
	StoredName   string
	OriginalName string
	ReceivedAt   int64 // epoch milliseconds
	Size         int64
}

// Store writes uploads into one directory.  The clock is a field so tests
// can pin the millisecond prefix.
type Store struct {
	Dir string
	Now func() time.Time
}

// NewStore roots a store at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: time.Now}
}

// Save persists the reader's bytes under "<epochMillis>--<sanitized name>"
// and returns the record.  A partially written file on failure is left in
// place; orphans are a cleanup concern, not a correctness one.
func (s *Store) Save(originalName string, r io.Reader) (Record, error) {
	received := s.Now().UnixMilli()
	stored := fmt.Sprintf("%d--%s", received, sanitizeName(originalName))
	path := filepath.Join(s.Dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return Record{}, fmt.Errorf("store upload %s: %w", stored, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Record{}, fmt.Errorf("store upload %s: %w", stored, err)
	}

	return Record{
		StoredName:   stored,
		OriginalName: originalName,
		ReceivedAt:   received,
		Size:         size,
	}, nil
}

// Path returns the absolute location of a stored name.
func (s *Store) Path(storedName string) string {
	return filepath.Join(s.Dir, storedName)
}

// sanitizeName strips every whitespace rune and any directory component
// from a client-supplied file name, leaving something safe to join onto
// the uploads directory.
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, base)
}
