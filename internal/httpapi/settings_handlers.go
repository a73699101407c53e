package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/events"
)

type SettingsHandler struct {
	CfgVal          *atomic.Value // stores config.Settings
	UserCfgPath     string
	LoadCfg         func() (config.Settings, error)
	Hub             *events.Hub
	OnSettingsSaved func(config.Settings)
}

func (h SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.CfgVal.Load().(config.Settings))
}

// Put persists the whole settings document and hands the saved snapshot to
// main so the scheduler can transition on globalScanEnabled flips.
func (h SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Settings
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)

	if h.OnSettingsSaved != nil {
		h.OnSettingsSaved(saved)
	}
	if h.Hub != nil {
		h.Hub.Publish(events.Make(events.TypeSettingsSaved, map[string]any{
			"globalScanEnabled": saved.GlobalScanEnabled,
			"dryRunMode":        saved.DryRunMode,
		}))
	}
	writeJSON(w, saved)
}
