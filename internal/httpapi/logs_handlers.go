package httpapi

import (
	"net/http"

	"leadscout-engine/internal/logging"
)

type LogsHandler struct {
	Logs *logging.Sink
}

func (h LogsHandler) Get(w http.ResponseWriter, r *http.Request) {
	text, err := h.Logs.Read()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "logs_read_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (h LogsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Logs.Clear(); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "logs_clear_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
