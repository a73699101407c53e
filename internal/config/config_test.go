package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")

	// An older file that only knows about a few fields.
	partial := "scan:\n  interval_minutes: 30\nglobal_scan_enabled: true\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Scan.IntervalMinutes != 30 {
		t.Fatalf("interval = %d, want 30", s.Scan.IntervalMinutes)
	}
	if !s.GlobalScanEnabled {
		t.Fatalf("globalScanEnabled = false, want true")
	}
	// Fields absent from the file keep their baseline values.
	if s.Scan.MaxNewLeads != 20 {
		t.Fatalf("maxNewLeads = %d, want 20", s.Scan.MaxNewLeads)
	}
	if s.Scan.CheckpointSeconds != 30 {
		t.Fatalf("checkpointSeconds = %d, want 30", s.Scan.CheckpointSeconds)
	}
	if !s.Browser.Headless {
		t.Fatalf("headless = false, want true")
	}
}

func TestLoadMissingFileReturnsDefaultsAndError(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if s.App.Port != 38471 {
		t.Fatalf("port = %d, want default", s.App.Port)
	}
}

func TestSaveAtomicRotatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")

	first := Defaults()
	if err := SaveAtomic(path, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := Defaults()
	second.Scan.IntervalMinutes = 45
	if err := SaveAtomic(path, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Scan.IntervalMinutes != 45 {
		t.Fatalf("interval = %d, want 45", got.Scan.IntervalMinutes)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(bak), "interval_minutes: 60") {
		t.Fatalf("backup does not hold the previous revision:\n%s", bak)
	}
}

func TestEnsureUserConfigWritesDefaultsWhenNoTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing-template.yml"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Scan.IntervalMinutes != 60 {
		t.Fatalf("interval = %d, want 60", s.Scan.IntervalMinutes)
	}

	// Second call must not clobber the existing file.
	s.Scan.IntervalMinutes = 25
	if err := SaveAtomic(path, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := EnsureUserConfig(dir, filepath.Join(dir, "missing-template.yml"))
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again != path {
		t.Fatalf("path changed: %s vs %s", again, path)
	}
	s2, _ := Load(path)
	if s2.Scan.IntervalMinutes != 25 {
		t.Fatalf("interval = %d, want 25 (file was clobbered)", s2.Scan.IntervalMinutes)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		_, vr := NormalizeAndValidate(Defaults())
		if !vr.OK() {
			t.Fatalf("errors = %v", vr.Errors)
		}
	})

	t.Run("trims and flags bad values", func(t *testing.T) {
		s := Defaults()
		s.SMTP.User = "  owner@example.com  "
		s.Scan.IntervalMinutes = 0
		s.Scan.MaxNewLeads = -1
		out, vr := NormalizeAndValidate(s)
		if out.SMTP.User != "owner@example.com" {
			t.Fatalf("user = %q", out.SMTP.User)
		}
		if vr.OK() {
			t.Fatalf("expected errors")
		}
		if len(vr.Errors) != 2 {
			t.Fatalf("errors = %v", vr.Errors)
		}
	})

	t.Run("low interval warns", func(t *testing.T) {
		s := Defaults()
		s.Scan.IntervalMinutes = 5
		_, vr := NormalizeAndValidate(s)
		if !vr.OK() {
			t.Fatalf("errors = %v", vr.Errors)
		}
		if len(vr.Warnings) == 0 {
			t.Fatalf("expected a warning for a 5 minute interval")
		}
	})

	t.Run("smtp server required with user", func(t *testing.T) {
		s := Defaults()
		s.SMTP.User = "owner@example.com"
		s.SMTP.Host = ""
		_, vr := NormalizeAndValidate(s)
		if vr.OK() {
			t.Fatalf("expected smtp.host error")
		}
	})
}
