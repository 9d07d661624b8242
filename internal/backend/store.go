// Package backend is a small json-server compatible REST service for toys.
//
// Records are free-form JSON objects keyed by "id". New records get the next
// numeric id; PATCH merges whatever fields it is sent. The collection can be
// persisted to a db.json style file under the "toys" key.
package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// CollectionKey is the top-level key holding toys in the database file.
const CollectionKey = "toys"

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("backend: record not found")

// Record is one stored object.
type Record map[string]any

// idKey returns the lookup form of an id value.
func idKey(v any) string {
	switch id := v.(type) {
	case json.Number:
		return id.String()
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store holds the toy collection. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records []Record
	nextID  int64
	path    string
	// other top-level keys of the database file, written back untouched
	extra map[string]json.RawMessage
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{nextID: 1, extra: map[string]json.RawMessage{}}
}

// Open loads path into a store that saves back after every change. A missing
// file starts an empty collection.
func Open(path string) (*Store, error) {
	s := NewStore()
	s.path = path

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if raw, ok := doc[CollectionKey]; ok {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&s.records); err != nil {
			return nil, fmt.Errorf("json unmarshal %s: %w", CollectionKey, err)
		}
		delete(doc, CollectionKey)
	}
	s.extra = doc
	if s.extra == nil {
		s.extra = map[string]json.RawMessage{}
	}

	for _, r := range s.records {
		if n, err := strconv.ParseInt(idKey(r["id"]), 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	return s, nil
}

// Seed appends records as given, for tests and demos.
func (s *Store) Seed(records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.withCapacity(len(records))
	nextID := s.nextID
	for _, r := range records {
		r = r.clone()
		if _, ok := r["id"]; !ok {
			r["id"] = nextID
		}
		if n, err := strconv.ParseInt(idKey(r["id"]), 10, 64); err == nil && n >= nextID {
			nextID = n + 1
		}
		next = append(next, r)
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.records, s.nextID = next, nextID
	return nil
}

// List returns every record in insertion order.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// Get returns the record with id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return s.records[i].clone(), nil
}

// Create stores fields under the next numeric id. Any id in fields is
// ignored.
func (s *Store) Create(fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := fields.clone()
	r["id"] = s.nextID
	next := append(s.withCapacity(1), r)

	if err := s.save(next); err != nil {
		return nil, err
	}
	s.records = next
	s.nextID++
	return r.clone(), nil
}

// Patch merges fields into the record with id. The id itself never changes.
func (s *Store) Patch(id string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r := s.records[i].clone()
	for k, v := range fields {
		if k != "id" {
			r[k] = v
		}
	}
	next := s.withCapacity(0)
	next[i] = r

	if err := s.save(next); err != nil {
		return nil, err
	}
	s.records = next
	return r.clone(), nil
}

// Delete removes the record with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	next := make([]Record, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)

	if err := s.save(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// withCapacity copies the record slice with room for extra more records, so
// a change can be saved before it is installed. Records themselves are
// shared; callers replace rather than mutate them.
func (s *Store) withCapacity(extra int) []Record {
	next := make([]Record, len(s.records), len(s.records)+extra)
	copy(next, s.records)
	return next
}

func (s *Store) index(id string) int {
	for i, r := range s.records {
		if idKey(r["id"]) == id {
			return i
		}
	}
	return -1
}

// save writes records as the database file. Callers hold mu and install
// records only when save succeeds.
func (s *Store) save(records []Record) error {
	if s.path == "" {
		return nil
	}

	if records == nil {
		records = []Record{}
	}
	doc := make(map[string]any, len(s.extra)+1)
	for k, v := range s.extra {
		doc[k] = v
	}
	doc[CollectionKey] = records

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
