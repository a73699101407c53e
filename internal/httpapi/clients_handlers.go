package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/store"
)

type ClientsHandler struct {
	Clients  *clients.Store
	Registry *store.Registry
}

func (h ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clients.Load()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "clients_load_failed", err.Error())
		return
	}
	writeJSON(w, list)
}

func (h ClientsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var c domain.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Clients.Add(c); err != nil {
		WriteError(w, r, http.StatusBadRequest, "client_add_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (h ClientsHandler) UpdateByPath(w http.ResponseWriter, r *http.Request) {
	index, ok := clientIndexFromPath(w, r)
	if !ok {
		return
	}
	var c domain.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Clients.Update(index, c); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "client_not_found", "client not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "client_update_failed", err.Error())
		return
	}
	writeJSON(w, c)
}

// DeleteByPath removes the client and cascades to its lead store.
func (h ClientsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	index, ok := clientIndexFromPath(w, r)
	if !ok {
		return
	}
	removed, err := h.Clients.Delete(index)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "client_not_found", "client not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "client_delete_failed", err.Error())
		return
	}
	if err := h.Registry.Remove(removed.Email); err != nil {
		// The client record is gone either way; an orphaned store file is
		// worth a log line, not a failed delete.
		log.Printf("[api] failed to remove lead store for %s: %v", removed.Email, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientIndexFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/clients/")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_index", "client index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
