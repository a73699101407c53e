package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/scan"
)

type ScanHandler struct {
	Runner  *scan.Runner
	Clients *clients.Store
	Hub     *events.Hub
}

type scanRunReq struct {
	ClientIndex int `json:"clientIndex"`
}

// Run executes a manual scan synchronously and reports the final summary,
// so the caller gets success/leadsFound in one round trip. A scan already
// in flight answers 409 immediately.
func (h ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req scanRunReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	client, err := h.Clients.Get(req.ClientIndex)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "client_not_found", "client not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "clients_load_failed", err.Error())
		return
	}

	h.Hub.Publish(events.Make(events.TypeScanStarted, map[string]any{
		"client": client.BusinessName,
	}))

	sum, err := h.Runner.ScanClient(r.Context(), client)
	if err != nil {
		if errors.Is(err, scan.ErrScanBusy) {
			h.Hub.Publish(events.Make(events.TypeScanSkipped, nil))
			WriteError(w, r, http.StatusConflict, "scan_busy", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "scan_failed", err.Error())
		return
	}

	h.Hub.Publish(events.Make(events.TypeScanCompleted, sum))
	writeJSON(w, sum)
}

func (h ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.Runner.Status()
	writeJSON(w, map[string]any{
		"isScanning":        st.Running,
		"globalScanEnabled": st.GlobalScanEnabled,
		"lastRunAt":         st.LastRunAt,
		"lastAdded":         st.LastAdded,
		"lastError":         st.LastError,
	})
}
