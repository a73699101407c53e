// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SMTP struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	User string `yaml:"user" json:"user"`
	Pass string `yaml:"pass" json:"pass"`
}

type Settings struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	SMTP SMTP `yaml:"smtp" json:"smtp"`

	// Empty key means the Yelp source is disabled, not misconfigured.
	YelpAPIKey string `yaml:"yelp_api_key" json:"yelp_api_key"`

	DryRunMode        bool `yaml:"dry_run_mode" json:"dry_run_mode"`
	GlobalScanEnabled bool `yaml:"global_scan_enabled" json:"global_scan_enabled"`

	Scan struct {
		IntervalMinutes    int `yaml:"interval_minutes" json:"interval_minutes"`
		ManualDelaySeconds int `yaml:"manual_delay_seconds" json:"manual_delay_seconds"`
		GlobalDelaySeconds int `yaml:"global_delay_seconds" json:"global_delay_seconds"`
		CheckpointSeconds  int `yaml:"checkpoint_seconds" json:"checkpoint_seconds"`
		MaxNewLeads        int `yaml:"max_new_leads" json:"max_new_leads"`
	} `yaml:"scan" json:"scan"`

	Browser struct {
		Headless       bool `yaml:"headless" json:"headless"`
		TimeoutSeconds int  `yaml:"timeout_seconds" json:"timeout_seconds"`
	} `yaml:"browser" json:"browser"`
}

// Defaults returns the baseline settings saved values are merged over.
func Defaults() Settings {
	var s Settings
	s.App.Port = 38471
	s.App.DataDir = "."
	s.SMTP.Host = "smtp.gmail.com"
	s.SMTP.Port = 587
	s.Scan.IntervalMinutes = 60
	s.Scan.ManualDelaySeconds = 5
	s.Scan.GlobalDelaySeconds = 10
	s.Scan.CheckpointSeconds = 30
	s.Scan.MaxNewLeads = 20
	s.Browser.Headless = true
	s.Browser.TimeoutSeconds = 60
	return s
}

// Load reads settings from path, merged over Defaults so fields absent from
// an older file keep their baseline values.
func Load(path string) (Settings, error) {
	s := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = yaml.Unmarshal(b, &s)
	return s, err
}
