package scan

import (
	"context"
	"testing"
	"time"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/store"
)

// fakeSource returns canned leads per (keyword, city) cell and can be told
// to panic on a specific cell.
type fakeSource struct {
	name    string
	kind    domain.SourceKind
	leads   map[string][]domain.Lead
	panicOn string
	calls   []string
}

func cellKey(keyword, city string) string { return keyword + "|" + city }

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Scan(_ context.Context, job types.Job) (types.Result, error) {
	key := cellKey(job.Keyword, job.TargetCity)
	f.calls = append(f.calls, key)
	if key == f.panicOn {
		panic("boom")
	}
	return types.Result{Source: f.kind, Leads: f.leads[key]}, nil
}

type fakeNotifier struct {
	calls   int
	batches domain.Batches
	dryRun  bool
}

func (f *fakeNotifier) SendBatch(_ context.Context, _ domain.Client, b domain.Batches, dryRun bool) error {
	f.calls++
	f.batches = b
	f.dryRun = dryRun
	return nil
}

func testRunner(t *testing.T, maps, yelp types.Source, cfg config.Settings) (*Runner, *fakeNotifier) {
	t.Helper()
	cfg.Scan.ManualDelaySeconds = 0
	cfg.Scan.GlobalDelaySeconds = 0
	dir := t.TempDir()
	reg := store.NewRegistry(dir)
	t.Cleanup(func() { reg.Reset(context.Background()) })

	notifier := &fakeNotifier{}
	return &Runner{
		Registry: reg,
		Clients:  clients.NewStore(dir),
		Maps:     maps,
		Yelp:     yelp,
		Notifier: notifier,
		Gate:     &Gate{},
		Settings: func() config.Settings { return cfg },
	}, notifier
}

func lead(name, keyword, city string) domain.Lead {
	return domain.Lead{
		Source:        domain.SourceMaps,
		SourceID:      "0x" + name,
		BusinessName:  name,
		SearchKeyword: keyword,
		TargetCity:    city,
		FoundAt:       time.Now().UTC(),
	}
}

func TestScanClientAggregatesBatches(t *testing.T) {
	maps := &fakeSource{
		name: "maps", kind: domain.SourceMaps,
		leads: map[string][]domain.Lead{
			cellKey("bakery", "Austin, TX"): {lead("Sweet Stuff", "bakery", "Austin, TX")},
		},
	}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	r, notifier := testRunner(t, maps, yelp, config.Defaults())

	client := domain.Client{
		Email:        "a@b.com",
		BusinessName: "Acme",
		Keywords:     []string{"bakery"},
		TargetCities: []string{"Austin, TX"},
		IsActive:     true,
	}
	sum, err := r.ScanClient(context.Background(), client)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !sum.Success || sum.LeadsFound != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d", notifier.calls)
	}
	if len(notifier.batches.Maps) != 1 {
		t.Fatalf("maps batches = %d", len(notifier.batches.Maps))
	}
	b := notifier.batches.Maps[0]
	if b.Keyword != "bakery" || b.TargetCity != "Austin, TX" || len(b.Leads) != 1 {
		t.Fatalf("unexpected batch: %+v", b)
	}
	if b.Leads[0].BusinessName != "Sweet Stuff" {
		t.Fatalf("lead = %+v", b.Leads[0])
	}
	if len(notifier.batches.Yelp) != 0 {
		t.Fatalf("empty yelp combos must be omitted, got %d", len(notifier.batches.Yelp))
	}
}

func TestScanClientCombinationIsolation(t *testing.T) {
	maps := &fakeSource{
		name: "maps", kind: domain.SourceMaps,
		panicOn: cellKey("bakery", "Austin, TX"),
		leads: map[string][]domain.Lead{
			cellKey("bakery", "Dallas, TX"): {lead("Tasty", "bakery", "Dallas, TX")},
			cellKey("cafe", "Austin, TX"):   {lead("Brews", "cafe", "Austin, TX")},
		},
	}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	r, notifier := testRunner(t, maps, yelp, config.Defaults())

	client := domain.Client{
		Email:        "a@b.com",
		BusinessName: "Acme",
		Keywords:     []string{"bakery", "cafe"},
		TargetCities: []string{"Austin, TX", "Dallas, TX"},
		IsActive:     true,
	}
	sum, err := r.ScanClient(context.Background(), client)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sum.LeadsFound != 2 {
		t.Fatalf("leads found = %d, want 2", sum.LeadsFound)
	}
	if len(maps.calls) != 4 {
		t.Fatalf("all 4 combinations should run, got %v", maps.calls)
	}
	if len(notifier.batches.Maps) != 2 {
		t.Fatalf("expected 2 non-empty batches, got %d", len(notifier.batches.Maps))
	}
}

func TestScanClientBusyGuard(t *testing.T) {
	maps := &fakeSource{name: "maps", kind: domain.SourceMaps}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	r, _ := testRunner(t, maps, yelp, config.Defaults())

	if err := r.Gate.TryAcquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer r.Gate.Release()

	client := domain.Client{Email: "a@b.com", Keywords: []string{"bakery"}, TargetCities: []string{"Austin, TX"}}
	_, err := r.ScanClient(context.Background(), client)
	if err != ErrScanBusy {
		t.Fatalf("expected ErrScanBusy, got %v", err)
	}
	if len(maps.calls) != 0 {
		t.Fatal("busy scan must not invoke any source")
	}
}

func TestScanClientDryRunReachesNotifier(t *testing.T) {
	maps := &fakeSource{
		name: "maps", kind: domain.SourceMaps,
		leads: map[string][]domain.Lead{
			cellKey("bakery", "Austin, TX"): {lead("Sweet Stuff", "bakery", "Austin, TX")},
		},
	}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	cfg := config.Defaults()
	cfg.DryRunMode = true
	r, notifier := testRunner(t, maps, yelp, cfg)

	client := domain.Client{Email: "a@b.com", Keywords: []string{"bakery"}, TargetCities: []string{"Austin, TX"}}
	if _, err := r.ScanClient(context.Background(), client); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if notifier.calls != 1 || !notifier.dryRun {
		t.Fatalf("dry-run flag must reach the notifier: calls=%d dryRun=%v", notifier.calls, notifier.dryRun)
	}
}

func TestScanClientNoLeadsSkipsNotifier(t *testing.T) {
	maps := &fakeSource{name: "maps", kind: domain.SourceMaps}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	r, notifier := testRunner(t, maps, yelp, config.Defaults())

	client := domain.Client{Email: "a@b.com", Keywords: []string{"bakery"}, TargetCities: []string{"Austin, TX"}}
	if _, err := r.ScanClient(context.Background(), client); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if notifier.calls != 0 {
		t.Fatalf("empty aggregate must not notify, calls=%d", notifier.calls)
	}
}

func TestGlobalPassSkipsInactiveAndReleasesGate(t *testing.T) {
	maps := &fakeSource{
		name: "maps", kind: domain.SourceMaps,
		leads: map[string][]domain.Lead{
			cellKey("bakery", "Austin, TX"): {lead("Sweet Stuff", "bakery", "Austin, TX")},
		},
	}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	cfg := config.Defaults()
	r, _ := testRunner(t, maps, yelp, cfg)

	active := domain.Client{Email: "a@b.com", BusinessName: "A", Keywords: []string{"bakery"}, TargetCities: []string{"Austin, TX"}, IsActive: true}
	inactive := domain.Client{Email: "c@d.com", BusinessName: "C", Keywords: []string{"bakery"}, TargetCities: []string{"Austin, TX"}, IsActive: false}
	if err := r.Clients.Add(active); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Clients.Add(inactive); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := r.GlobalPass(context.Background()); err != nil {
		t.Fatalf("global pass: %v", err)
	}
	if len(maps.calls) != 1 {
		t.Fatalf("only the active client should be scanned, calls=%v", maps.calls)
	}
	if r.Gate.Running() {
		t.Fatal("gate must be released after the pass")
	}

	status := r.Status()
	if status.LastAdded != 1 {
		t.Fatalf("status.LastAdded = %d", status.LastAdded)
	}
}

func TestGlobalPassBusySkipsCycle(t *testing.T) {
	maps := &fakeSource{name: "maps", kind: domain.SourceMaps}
	yelp := &fakeSource{name: "yelp", kind: domain.SourceYelp}
	r, _ := testRunner(t, maps, yelp, config.Defaults())

	if err := r.Gate.TryAcquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer r.Gate.Release()

	if err := r.GlobalPass(context.Background()); err != ErrScanBusy {
		t.Fatalf("expected ErrScanBusy, got %v", err)
	}
}
