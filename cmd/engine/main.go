package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/httpapi"
	"leadscout-engine/internal/logging"
	"leadscout-engine/internal/notify"
	"leadscout-engine/internal/scan"
	"leadscout-engine/internal/scheduler"
	"leadscout-engine/internal/scrape/gmaps"
	"leadscout-engine/internal/scrape/util"
	"leadscout-engine/internal/scrape/yelp"
	"leadscout-engine/internal/secrets"
	"leadscout-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the desktop shell can pass one),
	// else local folder.
	dataDir := os.Getenv("LEADSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir. A second instance would fight over the
	// per-client databases and the browser.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running against %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Settings
	loadCfg := func() (config.Settings, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)
	settings := func() config.Settings {
		return cfgVal.Load().(config.Settings)
	}

	hub := events.NewHub()
	sink, err := logging.Setup(dataDir, hub)
	if err != nil {
		log.Fatalf("log setup failed: %v", err)
	}
	defer sink.Close()

	registry := store.NewRegistry(filepath.Join(dataDir, "stores"))
	clientStore := clients.NewStore(dataDir)

	// One limiter across both sources; per-host buckets keep Yelp API calls
	// from being throttled by Maps page loads.
	limiter := util.NewHostLimiter(1, 2)

	mapsScraper := gmaps.New(gmaps.Options{
		Headless:    cfg.Browser.Headless,
		Timeout:     time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
		MaxNewLeads: cfg.Scan.MaxNewLeads,
	}, limiter)

	yelpScraper := yelp.New(func() string {
		if key := secrets.GetYelpAPIKey(); key != "" {
			return key
		}
		return settings().YelpAPIKey
	}, limiter)

	emailer := notify.NewEmailer(dataDir, settings, func() (string, error) {
		s := settings()
		if pw, err := secrets.GetSMTPPassword(s.SMTP.User); err == nil && pw != "" {
			return pw, nil
		}
		return s.SMTP.Pass, nil
	})

	runner := &scan.Runner{
		Registry: registry,
		Clients:  clientStore,
		Maps:     mapsScraper,
		Yelp:     yelpScraper,
		Notifier: emailer,
		Gate:     &scan.Gate{},
		Settings: settings,
	}

	sched := scheduler.New("global-scan", runner.GlobalPass)
	applyScheduler := func(s config.Settings) {
		sched.Apply(s.GlobalScanEnabled, time.Duration(s.Scan.IntervalMinutes)*time.Minute)
	}
	applyScheduler(cfg)
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic WAL checkpoints keep the per-client database files small and
	// safe to copy while the engine is running.
	go func() {
		interval := time.Duration(cfg.Scan.CheckpointSeconds) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := registry.CheckpointAll(ctx); err != nil {
					log.Printf("[store] checkpoint: %v", err)
				}
			}
		}
	}()

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:             hub,
		Clients:         clientStore,
		Registry:        registry,
		Runner:          runner,
		Logs:            sink,
		CfgVal:          &cfgVal,
		UserCfgPath:     userCfgPath,
		LoadCfg:         loadCfg,
		OnSettingsSaved: applyScheduler,
	})
	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.AccessLog,
		httpapi.Recover,
		httpapi.Cors,
	)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := registry.CheckpointAll(shutdownCtx); err != nil {
		log.Printf("final checkpoint: %v", err)
	}
	if err := registry.CloseAll(shutdownCtx); err != nil {
		log.Printf("store close: %v", err)
	}
}
