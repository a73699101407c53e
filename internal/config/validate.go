package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus any problems found.
func NormalizeAndValidate(s Settings) (Settings, Validation) {
	out := s
	var res Validation

	out.SMTP.Host = strings.TrimSpace(out.SMTP.Host)
	out.SMTP.User = strings.TrimSpace(out.SMTP.User)
	out.YelpAPIKey = strings.TrimSpace(out.YelpAPIKey)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Scan.IntervalMinutes <= 0 {
		res.addErr("scan.interval_minutes must be > 0")
	} else if out.Scan.IntervalMinutes < 15 {
		res.addWarn("scan.interval_minutes is very low (%d) and may trigger bot checks.", out.Scan.IntervalMinutes)
	}
	if out.Scan.ManualDelaySeconds < 0 {
		res.addErr("scan.manual_delay_seconds must be >= 0")
	}
	if out.Scan.GlobalDelaySeconds < 0 {
		res.addErr("scan.global_delay_seconds must be >= 0")
	}
	if out.Scan.CheckpointSeconds <= 0 {
		res.addErr("scan.checkpoint_seconds must be > 0")
	}
	if out.Scan.MaxNewLeads <= 0 {
		res.addErr("scan.max_new_leads must be > 0")
	} else if out.Scan.MaxNewLeads > 100 {
		res.addWarn("scan.max_new_leads is high (%d); scans will take a long time.", out.Scan.MaxNewLeads)
	}

	if out.Browser.TimeoutSeconds <= 0 {
		res.addErr("browser.timeout_seconds must be > 0")
	}

	// SMTP fields matter only once sending is possible; password lives in the
	// keychain, so its absence here is not an error.
	if out.SMTP.User != "" {
		if out.SMTP.Host == "" {
			res.addErr("smtp.host is required when smtp.user is set")
		}
		if out.SMTP.Port <= 0 || out.SMTP.Port > 65535 {
			res.addErr("smtp.port must be 1..65535 when smtp.user is set")
		}
	} else if !out.DryRunMode {
		res.addWarn("smtp.user is empty; scans will find leads but no email can be sent.")
	}

	return out, res
}
