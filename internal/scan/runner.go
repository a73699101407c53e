// Package scan orchestrates one full pass over a client's keyword x city
// grid, feeding both source adapters and aggregating their output into
// per-source batches for the notification boundary.
package scan

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/store"
)

// Notifier consumes the aggregated batch. In dry-run mode implementations
// still produce export artifacts but must not dispatch anything external.
type Notifier interface {
	SendBatch(ctx context.Context, client domain.Client, batches domain.Batches, dryRun bool) error
}

type Summary struct {
	Success    bool   `json:"success"`
	LeadsFound int    `json:"leadsFound"`
	MapsLeads  int    `json:"mapsLeads"`
	YelpLeads  int    `json:"yelpLeads"`
	Error      string `json:"error,omitempty"`
}

type Runner struct {
	Registry *store.Registry
	Clients  *clients.Store
	Maps     types.Source
	Yelp     types.Source
	Notifier Notifier
	Gate     *Gate
	Settings func() config.Settings

	mu     sync.Mutex
	status types.ScanStatus
}

// ScanClient runs a manual scan for one client. It holds the shared gate
// for the whole scan and reports busy rather than queueing.
func (r *Runner) ScanClient(ctx context.Context, client domain.Client) (Summary, error) {
	if err := r.Gate.TryAcquire(); err != nil {
		return Summary{Error: err.Error()}, err
	}
	defer r.Gate.Release()

	cfg := r.Settings()
	delay := time.Duration(cfg.Scan.ManualDelaySeconds) * time.Second
	sum := r.runClient(ctx, client, cfg, delay)
	r.recordOutcome(sum)
	return sum, nil
}

// GlobalPass runs one scheduled cycle over every active client,
// sequentially. A pass that fires while the gate is held is skipped
// entirely and logged.
func (r *Runner) GlobalPass(ctx context.Context) error {
	if err := r.Gate.TryAcquire(); err != nil {
		log.Printf("[scan] scan already in progress, skipping this cycle")
		return err
	}
	defer r.Gate.Release()

	log.Printf("[scan] starting global scan cycle")
	active, err := r.Clients.Active()
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	log.Printf("[scan] %d active client(s)", len(active))

	cfg := r.Settings()
	delay := time.Duration(cfg.Scan.GlobalDelaySeconds) * time.Second

	total := 0
	for _, client := range active {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sum := r.runClient(ctx, client, cfg, delay)
		if !sum.Success {
			log.Printf("[scan] client %s failed, continuing to next: %s", client.BusinessName, sum.Error)
			continue
		}
		total += sum.LeadsFound
	}

	r.recordOutcome(Summary{Success: true, LeadsFound: total})
	log.Printf("[scan] global scan cycle completed, %d new lead(s)", total)
	return nil
}

// runClient iterates all combinations with inter-call delays. One bad
// combination is logged and skipped; the rest of the grid still runs.
func (r *Runner) runClient(ctx context.Context, client domain.Client, cfg config.Settings, delay time.Duration) Summary {
	st, err := r.Registry.Acquire(client.Email)
	if err != nil {
		return Summary{Error: fmt.Sprintf("open store: %v", err)}
	}

	var batches domain.Batches
	for _, combo := range client.Combinations() {
		log.Printf("[scan] scanning %s - %q in %q", client.BusinessName, combo.Keyword, combo.TargetCity)
		job := types.Job{
			Client:     client,
			Keyword:    combo.Keyword,
			TargetCity: combo.TargetCity,
			Store:      st,
		}

		r.runCombination(ctx, job, delay, &batches)

		if ctx.Err() != nil {
			break
		}
	}

	if !batches.Empty() {
		if err := r.Notifier.SendBatch(ctx, client, batches, cfg.DryRunMode); err != nil {
			log.Printf("[scan] notification failed for %s: %v", client.BusinessName, err)
		}
		log.Printf("[scan] total leads for %s: %d (maps: %d, yelp: %d)",
			client.BusinessName, batches.Total(), batchTotal(batches.Maps), batchTotal(batches.Yelp))
	}
	return Summary{
		Success:    true,
		LeadsFound: batches.Total(),
		MapsLeads:  batchTotal(batches.Maps),
		YelpLeads:  batchTotal(batches.Yelp),
	}
}

// runCombination isolates one (keyword, city) cell: a panic or adapter
// error here never aborts sibling combinations.
func (r *Runner) runCombination(ctx context.Context, job types.Job, delay time.Duration, batches *domain.Batches) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[scan] panic scanning %q in %q: %v", job.Keyword, job.TargetCity, rec)
		}
	}()

	mapsRes, err := r.Maps.Scan(ctx, job)
	if err != nil {
		log.Printf("[scan] failed combination %q in %q for %s: %v",
			job.Keyword, job.TargetCity, job.Client.BusinessName, err)
		return
	}
	if len(mapsRes.Leads) > 0 {
		batches.Maps = append(batches.Maps, domain.Batch{
			Keyword: job.Keyword, TargetCity: job.TargetCity, Leads: mapsRes.Leads,
		})
	}
	sleep(ctx, delay)

	yelpRes, err := r.Yelp.Scan(ctx, job)
	if err != nil {
		log.Printf("[scan] failed combination %q in %q for %s: %v",
			job.Keyword, job.TargetCity, job.Client.BusinessName, err)
		return
	}
	if len(yelpRes.Leads) > 0 {
		batches.Yelp = append(batches.Yelp, domain.Batch{
			Keyword: job.Keyword, TargetCity: job.TargetCity, Leads: yelpRes.Leads,
		})
	}
	sleep(ctx, delay)
}

// Status reports the trigger-facing view: whether a scan is running now
// and whether the scheduler is armed.
func (r *Runner) Status() types.ScanStatus {
	r.mu.Lock()
	s := r.status
	r.mu.Unlock()
	s.Running = r.Gate.Running()
	s.GlobalScanEnabled = r.Settings().GlobalScanEnabled
	return s
}

func (r *Runner) recordOutcome(sum Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRunAt = time.Now().UTC().Format(time.RFC3339)
	r.status.LastAdded = sum.LeadsFound
	r.status.LastError = sum.Error
}

func batchTotal(batches []domain.Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Leads)
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
