package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickIntervalMs     int `yaml:"tick_interval_ms"`
	AutosaveIntervalMs int `yaml:"autosave_interval_ms"`

	OfflineCapDays             int     `yaml:"offline_cap_days"`
	MaxEventsLive              int     `yaml:"max_events_live"`
	MaxEventsOffline           int     `yaml:"max_events_offline"`
	TimeTravelToleranceSeconds float64 `yaml:"time_travel_tolerance_seconds"`
	AlertCooldownSeconds       float64 `yaml:"alert_cooldown_seconds"`
	EventLogLimit              int     `yaml:"event_log_limit"`

	BackupCount int `yaml:"backup_count"`
}

func Defaults() Tuning {
	return Tuning{
		TickIntervalMs:             1000,
		AutosaveIntervalMs:         30000,
		OfflineCapDays:             7,
		MaxEventsLive:              3,
		MaxEventsOffline:           20,
		TimeTravelToleranceSeconds: 60,
		AlertCooldownSeconds:       3600,
		EventLogLimit:              200,
		BackupCount:                3,
	}
}

// Load overlays the file at path on Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickIntervalMs <= 0:
		return fmt.Errorf("tick_interval_ms must be positive")
	case t.AutosaveIntervalMs <= 0:
		return fmt.Errorf("autosave_interval_ms must be positive")
	case t.OfflineCapDays < 0:
		return fmt.Errorf("offline_cap_days must not be negative")
	case t.MaxEventsLive < 0 || t.MaxEventsOffline < 0:
		return fmt.Errorf("max_events_* must not be negative")
	case t.TimeTravelToleranceSeconds < 0:
		return fmt.Errorf("time_travel_tolerance_seconds must not be negative")
	case t.AlertCooldownSeconds < 0:
		return fmt.Errorf("alert_cooldown_seconds must not be negative")
	case t.EventLogLimit <= 0:
		return fmt.Errorf("event_log_limit must be positive")
	case t.BackupCount < 0:
		return fmt.Errorf("backup_count must not be negative")
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Duration(t.TickIntervalMs) * time.Millisecond
}

func (t Tuning) AutosaveInterval() time.Duration {
	return time.Duration(t.AutosaveIntervalMs) * time.Millisecond
}
