package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines the claims engine tunables: reconciliation tolerances, the
// aging threshold and the monitor schedule. Loaded from a YAML file when
// UPPF_CONFIG is set, with env fallbacks for the common knobs.
type Config struct {
	Tolerances         Tolerances     `yaml:"tolerances"`
	AgingThresholdDays int            `yaml:"aging_threshold_days"`
	Schedule           ScheduleConfig `yaml:"schedule"`
	WebhookURL         string         `yaml:"webhook_url"`
}

// ScheduleConfig defines the daily monitor schedule.
type ScheduleConfig struct {
	DailyAt string `yaml:"daily_at"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		AgingThresholdDays: getenvIntDefault("UPPF_AGING_THRESHOLD_DAYS", 30),
		WebhookURL:         os.Getenv("UPPF_ALERT_WEBHOOK_URL"),
	}

	if path := os.Getenv("UPPF_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("UPPF_AGING_CHECK_AT", "00:00")
	}
	if cfg.Tolerances.VolumeLitres <= 0 {
		cfg.Tolerances.VolumeLitres = getenvFloatDefault("UPPF_VOLUME_TOLERANCE_LITRES", defaultVolumeToleranceLitres)
	}
	if cfg.Tolerances.DistancePct <= 0 {
		cfg.Tolerances.DistancePct = getenvFloatDefault("UPPF_DISTANCE_TOLERANCE_PCT", defaultDistanceTolerancePct)
	}
	if cfg.AgingThresholdDays <= 0 {
		cfg.AgingThresholdDays = 30
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
