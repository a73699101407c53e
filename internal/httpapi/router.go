package httpapi

import "net/http"

// NewMux wires the trigger, settings, clients, leads, history, logs,
// secrets and event-stream surfaces.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	sh := ScanHandler{Runner: d.Runner, Clients: d.Clients, Hub: d.Hub}
	mux.HandleFunc("/scan/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Run,
	}))
	mux.HandleFunc("/scan/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))

	gh := SettingsHandler{
		CfgVal:          d.CfgVal,
		UserCfgPath:     d.UserCfgPath,
		LoadCfg:         d.LoadCfg,
		Hub:             d.Hub,
		OnSettingsSaved: d.OnSettingsSaved,
	}
	mux.HandleFunc("/settings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: gh.Get,
		http.MethodPut: gh.Put,
	}))

	ch := ClientsHandler{Clients: d.Clients, Registry: d.Registry}
	mux.HandleFunc("/clients", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ch.List,
		http.MethodPost: ch.Add,
	}))
	mux.HandleFunc("/clients/", methodMux(map[string]http.HandlerFunc{
		http.MethodPut:    ch.UpdateByPath, // /clients/{index}
		http.MethodDelete: ch.DeleteByPath,
	}))

	lh := LeadsHandler{Clients: d.Clients, Registry: d.Registry}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/leads/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Stats,
	}))
	mux.HandleFunc("/leads/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: lh.DeleteByPath, // /leads/{id}?client=
	}))
	mux.HandleFunc("/history", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.History,
	}))

	logh := LogsHandler{Logs: d.Logs}
	mux.HandleFunc("/logs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    logh.Get,
		http.MethodDelete: logh.Clear,
	}))

	sech := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets/smtp", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sech.SetSMTPPassword,
	}))
	mux.HandleFunc("/secrets/yelp", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sech.SetYelpAPIKey,
	}))

	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
