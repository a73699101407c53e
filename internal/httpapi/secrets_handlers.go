package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value
}

func (h SecretsHandler) settings() config.Settings {
	if v, ok := h.CfgVal.Load().(config.Settings); ok {
		return v
	}
	return config.Defaults()
}

// SetSMTPPassword stores the password in the OS keychain under the
// configured SMTP user. An empty password removes the entry.
func (h SecretsHandler) SetSMTPPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	user := strings.TrimSpace(h.settings().SMTP.User)
	if user == "" {
		WriteError(w, r, http.StatusBadRequest, "smtp_user_not_set", "set the SMTP user in settings first")
		return
	}

	var err error
	if body.Password == "" {
		err = secrets.DeleteSMTPPassword(user)
	} else {
		err = secrets.SetSMTPPassword(user, body.Password)
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_write_failed", err.Error())
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// SetYelpAPIKey stores the Yelp Fusion key; an empty key removes it and
// disables the Yelp source.
func (h SecretsHandler) SetYelpAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	var err error
	if strings.TrimSpace(body.APIKey) == "" {
		err = secrets.DeleteYelpAPIKey()
	} else {
		err = secrets.SetYelpAPIKey(body.APIKey)
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_write_failed", err.Error())
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}
