package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected INFO threshold, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.DefaultLevel != "INFO" {
		t.Errorf("expected INFO default level, got %s", cfg.Logging.DefaultLevel)
	}
	if cfg.Alarm.Level != "ALERT" {
		t.Errorf("expected ALERT alarm level, got %s", cfg.Alarm.Level)
	}
	if cfg.Alarm.IntervalSeconds != 60 {
		t.Errorf("expected 60s alarm interval, got %d", cfg.Alarm.IntervalSeconds)
	}
	if cfg.VolumeRoot != "/root" {
		t.Errorf("expected /root volume root, got %s", cfg.VolumeRoot)
	}
}

func TestLoad_NotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default config, got threshold %s", cfg.Logging.Level)
	}
}

func TestLoad_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: DEBUG
  default_level: NOTICE
alarm:
  level: CRIT
  interval_seconds: 10
volume_root: /srv/volumes
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected DEBUG, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.DefaultLevel != "NOTICE" {
		t.Errorf("expected NOTICE, got %s", cfg.Logging.DefaultLevel)
	}
	if cfg.Alarm.Level != "CRIT" {
		t.Errorf("expected CRIT, got %s", cfg.Alarm.Level)
	}
	if cfg.VolumeRoot != "/srv/volumes" {
		t.Errorf("expected /srv/volumes, got %s", cfg.VolumeRoot)
	}
	if cfg.AlarmInterval() != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.AlarmInterval())
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("VOLINIT_LOG_LEVEL", "7")
	t.Setenv("VOLINIT_ALARM_LEVEL", "EMERG")
	t.Setenv("VOLINIT_ALARM_INTERVAL", "5")
	t.Setenv("VOLINIT_VOLUME_ROOT", "/data")

	cfg := Default()
	warnings := cfg.ApplyEnv()
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if cfg.Logging.Level != "7" {
		t.Errorf("expected 7, got %s", cfg.Logging.Level)
	}
	if cfg.Alarm.Level != "EMERG" {
		t.Errorf("expected EMERG, got %s", cfg.Alarm.Level)
	}
	if cfg.Alarm.IntervalSeconds != 5 {
		t.Errorf("expected 5, got %d", cfg.Alarm.IntervalSeconds)
	}
	if cfg.VolumeRoot != "/data" {
		t.Errorf("expected /data, got %s", cfg.VolumeRoot)
	}
}

func TestAlarmInterval_NonPositiveFallsBack(t *testing.T) {
	// A config file can say interval_seconds: 0 (or negative); the alarm
	// must still be able to tick, so the default takes over.
	for _, n := range []int{0, -5} {
		cfg := Default()
		cfg.Alarm.IntervalSeconds = n
		if cfg.AlarmInterval() != 60*time.Second {
			t.Errorf("IntervalSeconds=%d: expected 60s fallback, got %v", n, cfg.AlarmInterval())
		}
	}
}

func TestApplyEnv_InvalidInterval(t *testing.T) {
	t.Setenv("VOLINIT_ALARM_INTERVAL", "soon")

	cfg := Default()
	warnings := cfg.ApplyEnv()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if cfg.Alarm.IntervalSeconds != 60 {
		t.Errorf("expected default interval kept, got %d", cfg.Alarm.IntervalSeconds)
	}
}
