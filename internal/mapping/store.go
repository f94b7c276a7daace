// Package mapping holds the mutable column-to-field mapping of one import
// session.
package mapping

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nconklindev/sheetsync/internal/types"
)

// ErrUnknownColumn is returned when a column is not part of the session's
// ColumnSet.
var ErrUnknownColumn = errors.New("unknown column")

// Store maps source columns to target field ids. Several columns may point
// at the same field id. Field ids are not validated against the field list.
type Store struct {
	mu      sync.RWMutex
	columns types.ColumnSet
	seed    map[string]string
	current map[string]string
}

// New returns an empty store for columns.
func New(columns types.ColumnSet) *Store {
	return &Store{
		columns: columns,
		seed:    make(map[string]string),
		current: make(map[string]string),
	}
}

// Seed replaces the store's contents with m and remembers it for Reset.
func (s *Store) Seed(m types.Mapping) error {
	seed := make(map[string]string, len(m))
	for _, a := range m {
		if !s.columns.Contains(a.Column) {
			return fmt.Errorf("seed %q: %w", a.Column, ErrUnknownColumn)
		}
		seed[a.Column] = a.FieldID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seed = seed
	s.current = make(map[string]string, len(seed))
	for k, v := range seed {
		s.current[k] = v
	}
	return nil
}

// Set assigns fieldID to column, overwriting any previous value.
func (s *Store) Set(column, fieldID string) error {
	if !s.columns.Contains(column) {
		return fmt.Errorf("set %q: %w", column, ErrUnknownColumn)
	}

	s.mu.Lock()
	s.current[column] = fieldID
	s.mu.Unlock()
	return nil
}

// Unset removes column from the mapping.
func (s *Store) Unset(column string) {
	s.mu.Lock()
	delete(s.current, column)
	s.mu.Unlock()
}

// Get returns the field id for column, or false when it is unset.
func (s *Store) Get(column string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.current[column]
	return id, ok
}

// Reset restores the seeded mapping, dropping all overrides.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = make(map[string]string, len(s.seed))
	for k, v := range s.seed {
		s.current[k] = v
	}
}

// Len returns the number of mapped columns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// Columns returns the session's ColumnSet.
func (s *Store) Columns() types.ColumnSet {
	return s.columns
}

// Mapping returns a snapshot in ColumnSet order.
func (s *Store) Mapping() types.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := make(types.Mapping, 0, len(s.current))
	for _, col := range s.columns {
		if id, ok := s.current[col]; ok {
			m = append(m, types.Assignment{Column: col, FieldID: id})
		}
	}
	return m
}
