package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry owns every open per-client store. One client's store failing or
// bloating cannot affect another's; the registry is the only component that
// maps client identity to a database handle.
type Registry struct {
	dir string

	mu     sync.Mutex
	stores map[string]*ClientStore
}

func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		stores: make(map[string]*ClientStore),
	}
}

// Acquire opens (or returns the cached handle for) a client's store,
// creating the file, schema and indexes on first use.
func (r *Registry) Acquire(clientEmail string) (*ClientStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[clientEmail]; ok {
		return s, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	path := filepath.Join(r.dir, DBFileName(clientEmail))
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open store for %s: %w", clientEmail, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store for %s: %w", clientEmail, err)
	}

	s := &ClientStore{Email: clientEmail, Path: path, db: db}
	r.stores[clientEmail] = s
	return s, nil
}

// CheckpointAll flushes the WAL of every open store to its main file. Safe to
// run while scans are writing; each store serializes on its own connection.
func (r *Registry) CheckpointAll(ctx context.Context) error {
	r.mu.Lock()
	open := make([]*ClientStore, 0, len(r.stores))
	for _, s := range r.stores {
		open = append(open, s)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range open {
		s := s
		g.Go(func() error {
			if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(PASSIVE);`); err != nil {
				return fmt.Errorf("checkpoint %s: %w", s.Email, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CloseAll checkpoints and closes every open store.
func (r *Registry) CloseAll(ctx context.Context) error {
	_ = r.CheckpointAll(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for email, s := range r.stores {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store for %s: %w", email, err)
		}
		delete(r.stores, email)
	}
	return firstErr
}

// Remove closes a client's store and deletes its file. Used when a client is
// deleted; leads cascade with the file.
func (r *Registry) Remove(clientEmail string) error {
	r.mu.Lock()
	s, ok := r.stores[clientEmail]
	if ok {
		delete(r.stores, clientEmail)
	}
	r.mu.Unlock()

	path := filepath.Join(r.dir, DBFileName(clientEmail))
	if ok {
		_ = s.db.Close()
		path = s.Path
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove store for %s: %w", clientEmail, err)
	}
	return nil
}

// Reset closes everything without deleting files. Tests use it to start from
// a cold registry.
func (r *Registry) Reset(ctx context.Context) {
	_ = r.CloseAll(ctx)
}
