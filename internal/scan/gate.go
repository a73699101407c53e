package scan

import (
	"errors"
	"sync"
)

// ErrScanBusy is returned to a trigger that arrives while a scan is already
// in flight. Callers surface it immediately; nothing is queued.
var ErrScanBusy = errors.New("a scan is already in progress")

// Gate is the single admission token shared by the manual trigger and the
// scheduled pass, so two browser sessions can never run concurrently.
type Gate struct {
	mu      sync.Mutex
	running bool
}

func (g *Gate) TryAcquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return ErrScanBusy
	}
	g.running = true
	return nil
}

func (g *Gate) Release() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *Gate) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
