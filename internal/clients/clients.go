// Package clients persists the flat client list as a JSON file in the
// data directory. Older files stored keywords as a single comma-joined
// string and target cities joined with ";"; Load accepts both shapes and
// Save always writes plain arrays.
package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"leadscout-engine/internal/domain"
)

const FileName = "clients.json"

var ErrNotFound = errors.New("clients: no such client")

// Store is the file-backed client collection. All mutations rewrite the
// whole file; the lock serializes writers within the process.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, FileName)}
}

// splitList unmarshals either a JSON string list or a delimiter-joined
// string into a []string, trimming entries and dropping empties.
type splitList struct {
	sep   string
	items []string
}

func (l *splitList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		l.items = trimAll(arr)
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err != nil {
		return fmt.Errorf("expected string or list, got %s", string(b))
	}
	l.items = trimAll(strings.Split(joined, l.sep))
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type clientRecord struct {
	Email        string          `json:"email"`
	BusinessName string          `json:"businessName"`
	ContactName  string          `json:"contactName,omitempty"`
	TargetCities json.RawMessage `json:"targetCities"`
	Keywords     json.RawMessage `json:"keywords,omitempty"`
	Keyword      json.RawMessage `json:"keyword,omitempty"`
	IsActive     bool            `json:"isActive"`
}

func (r clientRecord) toDomain() (domain.Client, error) {
	c := domain.Client{
		Email:        strings.TrimSpace(r.Email),
		BusinessName: strings.TrimSpace(r.BusinessName),
		ContactName:  strings.TrimSpace(r.ContactName),
		IsActive:     r.IsActive,
	}
	if len(r.TargetCities) > 0 {
		l := splitList{sep: ";"}
		if err := json.Unmarshal(r.TargetCities, &l); err != nil {
			return c, fmt.Errorf("targetCities: %w", err)
		}
		c.TargetCities = l.items
	}
	// Prefer the keywords list; fall back to the legacy comma string.
	kw := r.Keywords
	sep := ","
	if len(kw) == 0 {
		kw = r.Keyword
	}
	if len(kw) > 0 {
		l := splitList{sep: sep}
		if err := json.Unmarshal(kw, &l); err != nil {
			return c, fmt.Errorf("keywords: %w", err)
		}
		c.Keywords = l.items
	}
	return c, nil
}

// Load reads the client list. A missing file means no clients yet.
func (s *Store) Load() ([]domain.Client, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Client{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var records []clientRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	out := make([]domain.Client, 0, len(records))
	for i, r := range records {
		c, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Save writes the whole list atomically: tmp write, rotate the previous
// file to .bak, rename into place.
func (s *Store) Save(list []domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(list)
}

func (s *Store) saveLocked(list []domain.Client) error {
	for i, c := range list {
		if strings.TrimSpace(c.Email) == "" {
			return fmt.Errorf("client %d: email is required", i)
		}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		_ = os.Rename(s.path, s.path+".bak")
	}
	return os.Rename(tmp, s.path)
}

// Add appends a client. Email must be unique within the list.
func (s *Store) Add(c domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.Load()
	if err != nil {
		return err
	}
	for _, existing := range list {
		if strings.EqualFold(existing.Email, c.Email) {
			return fmt.Errorf("client %q already exists", c.Email)
		}
	}
	return s.saveLocked(append(list, c))
}

// Update replaces the client at index.
func (s *Store) Update(index int, c domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.Load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return ErrNotFound
	}
	list[index] = c
	return s.saveLocked(list)
}

// Delete removes the client at index and returns the removed record so
// the caller can cascade-delete its lead store.
func (s *Store) Delete(index int) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.Load()
	if err != nil {
		return domain.Client{}, err
	}
	if index < 0 || index >= len(list) {
		return domain.Client{}, ErrNotFound
	}
	removed := list[index]
	list = append(list[:index], list[index+1:]...)
	if err := s.saveLocked(list); err != nil {
		return domain.Client{}, err
	}
	return removed, nil
}

// Get returns the client at index.
func (s *Store) Get(index int) (domain.Client, error) {
	list, err := s.Load()
	if err != nil {
		return domain.Client{}, err
	}
	if index < 0 || index >= len(list) {
		return domain.Client{}, ErrNotFound
	}
	return list[index], nil
}

// Active returns only clients with isActive set, preserving order.
func (s *Store) Active() ([]domain.Client, error) {
	list, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := list[:0:0]
	for _, c := range list {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}
