package types

import (
	"context"
	"errors"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/store"
)

// Job narrows a client to one (keyword, city) cell for a single adapter call.
type Job struct {
	Client     domain.Client
	Keyword    string
	TargetCity string
	Store      *store.ClientStore
}

// Result carries only the leads newly persisted by this call.
type Result struct {
	Source domain.SourceKind
	Leads  []domain.Lead
}

// Source is one lead producer. Scan never returns an error for conditions
// the pipeline treats as empty results (missing API key, zero matches); the
// error path is reserved for failures worth a history entry.
type Source interface {
	Name() string
	Scan(ctx context.Context, job Job) (Result, error)
}

// ErrChallenge marks a bot-check page. The caller records the combination
// as skipped and moves on without retrying.
var ErrChallenge = errors.New("challenge page detected")

type ScanStatus struct {
	Running           bool   `json:"running"`
	GlobalScanEnabled bool   `json:"global_scan_enabled"`
	LastRunAt         string `json:"last_run_at"`
	LastError         string `json:"last_error"`
	LastAdded         int    `json:"last_added"`
}
