package config

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ConfigAPI exposes the running configuration over HTTP. It is read-only:
// configuration is fixed once the process has started.
type ConfigAPI struct {
	cfg    Config
	router *mux.Router
}

func NewConfigAPI(cfg *Config) *ConfigAPI {
	api := &ConfigAPI{
		cfg:    *cfg,
		router: mux.NewRouter(),
	}
	api.routes()
	return api
}

func (api *ConfigAPI) Router() *mux.Router {
	return api.router
}

func (api *ConfigAPI) routes() {
	api.router.HandleFunc("/configure", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/{section}", api.getSection).Methods("GET")
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.cfg.Redacted())
}

func (api *ConfigAPI) getSection(w http.ResponseWriter, r *http.Request) {
	safe := api.cfg.Redacted()
	section := mux.Vars(r)["section"]
	var out interface{}

	switch section {
	case "server":
		out = safe.Server
	case "provider":
		out = safe.Provider
	case "analysis":
		out = safe.Analysis
	case "chat":
		out = safe.Chat
	case "segmenter":
		out = safe.Segmenter
	case "sessions":
		out = safe.Sessions
	case "fetch":
		out = safe.Fetch
	case "storage":
		out = safe.Storage
	case "audit":
		out = safe.Audit
	default:
		http.Error(w, fmt.Sprintf("unknown section: %s", section), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Redacted returns a copy with credentials masked.
func (c Config) Redacted() Config {
	if c.Provider.APIKey != "" {
		c.Provider.APIKey = "***"
	}
	if c.Storage.AccessKey != "" {
		c.Storage.AccessKey = "***"
	}
	if c.Storage.SecretKey != "" {
		c.Storage.SecretKey = "***"
	}
	return c
}
