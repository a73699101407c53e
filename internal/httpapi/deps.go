package httpapi

import (
	"sync/atomic"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/logging"
	"leadscout-engine/internal/scan"
	"leadscout-engine/internal/store"
)

type Deps struct {
	Hub      *events.Hub
	Clients  *clients.Store
	Registry *store.Registry
	Runner   *scan.Runner
	Logs     *logging.Sink

	// CfgVal holds the current config.Settings snapshot.
	CfgVal      *atomic.Value
	UserCfgPath string
	LoadCfg     func() (config.Settings, error)

	// OnSettingsSaved lets main transition the scheduler when
	// globalScanEnabled flips.
	OnSettingsSaved func(config.Settings)
}
