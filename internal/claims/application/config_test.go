package application

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Tolerances.VolumeLitres != 50 || cfg.Tolerances.DistancePct != 0.10 {
		t.Fatalf("unexpected tolerances: %+v", cfg.Tolerances)
	}
	if cfg.AgingThresholdDays != 30 {
		t.Fatalf("aging threshold = %d, want 30", cfg.AgingThresholdDays)
	}
	if cfg.Schedule.DailyAt != "00:00" {
		t.Fatalf("daily at = %s, want 00:00", cfg.Schedule.DailyAt)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uppf.yaml")
	content := []byte(`
tolerances:
  volume_litres: 25
  distance_pct: 0.05
aging_threshold_days: 14
schedule:
  daily_at: "03:15"
webhook_url: "https://hooks.example.com/uppf"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("UPPF_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Tolerances.VolumeLitres != 25 || cfg.Tolerances.DistancePct != 0.05 {
		t.Fatalf("yaml tolerances not applied: %+v", cfg.Tolerances)
	}
	if cfg.AgingThresholdDays != 14 {
		t.Fatalf("aging threshold = %d, want 14", cfg.AgingThresholdDays)
	}
	if cfg.Schedule.DailyAt != "03:15" {
		t.Fatalf("daily at = %s, want 03:15", cfg.Schedule.DailyAt)
	}
	if cfg.WebhookURL != "https://hooks.example.com/uppf" {
		t.Fatalf("webhook url = %s", cfg.WebhookURL)
	}
}

func TestLoadConfig_EnvFallbacks(t *testing.T) {
	t.Setenv("UPPF_AGING_THRESHOLD_DAYS", "45")
	t.Setenv("UPPF_VOLUME_TOLERANCE_LITRES", "75")
	t.Setenv("UPPF_AGING_CHECK_AT", "06:00")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.AgingThresholdDays != 45 {
		t.Fatalf("aging threshold = %d, want 45", cfg.AgingThresholdDays)
	}
	if cfg.Tolerances.VolumeLitres != 75 {
		t.Fatalf("volume tolerance = %.1f, want 75", cfg.Tolerances.VolumeLitres)
	}
	if cfg.Schedule.DailyAt != "06:00" {
		t.Fatalf("daily at = %s, want 06:00", cfg.Schedule.DailyAt)
	}
}
