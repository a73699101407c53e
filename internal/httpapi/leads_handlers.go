package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"leadscout-engine/internal/clients"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/store"
)

type LeadsHandler struct {
	Clients  *clients.Store
	Registry *store.Registry
}

// List returns one client's leads when ?client= is given, otherwise all
// clients' leads newest first.
func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("client"))
	if email != "" {
		st, err := h.Registry.Acquire(email)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "store_open_failed", err.Error())
			return
		}
		leads, err := st.ListLeads(r.Context())
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "leads_read_failed", err.Error())
			return
		}
		writeJSON(w, leads)
		return
	}

	list, err := h.Clients.Load()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "clients_load_failed", err.Error())
		return
	}
	all := []domain.Lead{}
	for _, c := range list {
		st, err := h.Registry.Acquire(c.Email)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "store_open_failed", err.Error())
			return
		}
		leads, err := st.ListLeads(r.Context())
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "leads_read_failed", err.Error())
			return
		}
		all = append(all, leads...)
	}
	sortLeadsNewestFirst(all)
	writeJSON(w, all)
}

// DeleteByPath expects /leads/{id}?client=email; the id is only unique
// within one client's store.
func (h LeadsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("client"))
	if email == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_client", "client query parameter is required")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/leads/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "lead id must be an integer")
		return
	}

	st, err := h.Registry.Acquire(email)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_open_failed", err.Error())
		return
	}
	deleted, err := st.DeleteLead(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "lead_delete_failed", err.Error())
		return
	}
	if !deleted {
		WriteError(w, r, http.StatusNotFound, "lead_not_found", "no such lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type leadStats struct {
	TotalClients  int            `json:"totalClients"`
	ActiveClients int            `json:"activeClients"`
	TotalLeads    int            `json:"totalLeads"`
	LeadsToday    int            `json:"leadsToday"`
	LeadsThisWeek int            `json:"leadsThisWeek"`
	PerClient     map[string]int `json:"perClient"`
}

func (h LeadsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clients.Load()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "clients_load_failed", err.Error())
		return
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	stats := leadStats{TotalClients: len(list), PerClient: map[string]int{}}
	for _, c := range list {
		if c.IsActive {
			stats.ActiveClients++
		}
		st, err := h.Registry.Acquire(c.Email)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "store_open_failed", err.Error())
			return
		}
		n, err := st.CountLeads(r.Context(), time.Time{})
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "leads_read_failed", err.Error())
			return
		}
		today, err := st.CountLeads(r.Context(), midnight)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "leads_read_failed", err.Error())
			return
		}
		week, err := st.CountLeads(r.Context(), weekAgo)
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "leads_read_failed", err.Error())
			return
		}
		stats.PerClient[c.Email] = n
		stats.TotalLeads += n
		stats.LeadsToday += today
		stats.LeadsThisWeek += week
	}
	writeJSON(w, stats)
}

// History returns scan history for one client, newest first.
func (h LeadsHandler) History(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("client"))
	if email == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_client", "client query parameter is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	st, err := h.Registry.Acquire(email)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_open_failed", err.Error())
		return
	}
	entries, err := st.History(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "history_read_failed", err.Error())
		return
	}
	writeJSON(w, entries)
}

func sortLeadsNewestFirst(leads []domain.Lead) {
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].FoundAt.After(leads[j].FoundAt)
	})
}
