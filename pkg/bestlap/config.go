package bestlap

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("bestlap: invalid config")

type Config struct {
	NotificationURL            string `json:"notification_url" yaml:"notification_url"`
	NotificationTimeoutSeconds int    `json:"notification_timeout_seconds" yaml:"notification_timeout_seconds"`

	PersistenceEnabled   bool   `json:"persistence_enabled" yaml:"persistence_enabled"`
	PersistenceDirectory string `json:"persistence_directory" yaml:"persistence_directory"`
	PersistenceFilename  string `json:"persistence_filename" yaml:"persistence_filename"`

	MinimumLapTimeMs uint32 `json:"minimum_lap_time_ms" yaml:"minimum_lap_time_ms"`
	MaxAllowedCuts   uint32 `json:"max_allowed_cuts" yaml:"max_allowed_cuts"`

	// SubmitAllLaps sends every accepted lap to the collector, not just personal bests.
	SubmitAllLaps bool `json:"submit_all_laps" yaml:"submit_all_laps"`

	// SessionMode judges notification eligibility against bests set during this run only.
	SessionMode bool `json:"session_mode" yaml:"session_mode"`
}

// DefaultConfig allows no cuts, sets a ten second minimum lap and notifies on all-time
// bests only. NotificationURL must still be set.
func DefaultConfig() Config {
	return Config{
		NotificationTimeoutSeconds: 10,
		PersistenceEnabled:         true,
		PersistenceDirectory:       "data",
		PersistenceFilename:        "best_laps.csv",
		MinimumLapTimeMs:           10000,
		MaxAllowedCuts:             0,
	}
}

func (c Config) Validate() error {
	if c.NotificationURL == "" {
		return errors.Wrap(ErrInvalidConfig, "notification_url is required")
	}

	u, err := url.Parse(c.NotificationURL)

	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Wrapf(ErrInvalidConfig, "notification_url %q must be an absolute http or https url", c.NotificationURL)
	}

	if c.NotificationTimeoutSeconds <= 0 {
		return errors.Wrap(ErrInvalidConfig, "notification_timeout_seconds must be greater than zero")
	}

	if c.PersistenceEnabled && (c.PersistenceDirectory == "" || c.PersistenceFilename == "") {
		return errors.Wrap(ErrInvalidConfig, "persistence_directory and persistence_filename are required when persistence is enabled")
	}

	if c.MinimumLapTimeMs == 0 {
		return errors.Wrap(ErrInvalidConfig, "minimum_lap_time_ms must be greater than zero")
	}

	return nil
}

func (c Config) NotificationTimeout() time.Duration {
	return time.Duration(c.NotificationTimeoutSeconds) * time.Second
}

func (c Config) SnapshotPath() string {
	return filepath.Join(c.PersistenceDirectory, c.PersistenceFilename)
}
