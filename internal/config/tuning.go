// Package config loads the linkage tuning parameters from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig is the root configuration for the linkage pipeline. All fields
// are optional; Get* accessors supply the defaults, so partial config files
// are safe.
type TuningConfig struct {
	// Inter-night association criteria
	SepCriterionDeg   *float64 `json:"sep_criterion_deg,omitempty"`
	MagSameFid        *float64 `json:"mag_criterion_same_fid,omitempty"`
	MagDiffFid        *float64 `json:"mag_criterion_diff_fid,omitempty"`
	AngleCriterionDeg *float64 `json:"angle_criterion_deg,omitempty"`

	// Intra-night tracklet criteria
	IntraSepArcsec  *float64 `json:"intra_night_sep_arcsec,omitempty"`
	IntraMagSameFid *float64 `json:"intra_night_mag_criterion_same_fid,omitempty"`
	IntraMagDiffFid *float64 `json:"intra_night_mag_criterion_diff_fid,omitempty"`

	// Retention horizons, in nights
	TrajectoryWindow  *int `json:"trajectory_window_nights,omitempty"`
	ObservationWindow *int `json:"observation_window_nights,omitempty"`

	// Orbit computation
	OrbfitLimit *int    `json:"orbfit_limit,omitempty"`
	ScratchDir  *string `json:"scratch_dir,omitempty"`

	// Acceleration filter threshold, degrees/day²
	AccelThreshold *float64 `json:"accel_threshold,omitempty"`

	// RunMetrics enables accuracy metrics when ground-truth labels are
	// present on the inputs.
	RunMetrics *bool `json:"run_metrics,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the file keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.SepCriterionDeg != nil && *c.SepCriterionDeg <= 0 {
		return fmt.Errorf("sep_criterion_deg must be positive, got %f", *c.SepCriterionDeg)
	}
	if c.AngleCriterionDeg != nil && (*c.AngleCriterionDeg <= 0 || *c.AngleCriterionDeg > 180) {
		return fmt.Errorf("angle_criterion_deg must be in (0, 180], got %f", *c.AngleCriterionDeg)
	}
	if c.TrajectoryWindow != nil && *c.TrajectoryWindow < 1 {
		return fmt.Errorf("trajectory_window_nights must be >= 1, got %d", *c.TrajectoryWindow)
	}
	if c.ObservationWindow != nil && *c.ObservationWindow < 1 {
		return fmt.Errorf("observation_window_nights must be >= 1, got %d", *c.ObservationWindow)
	}
	if c.OrbfitLimit != nil && *c.OrbfitLimit < 2 {
		return fmt.Errorf("orbfit_limit must be >= 2, got %d", *c.OrbfitLimit)
	}
	if c.AccelThreshold != nil && *c.AccelThreshold <= 0 {
		return fmt.Errorf("accel_threshold must be positive, got %f", *c.AccelThreshold)
	}
	return nil
}

// GetSepCriterionDeg returns the inter-night separation criterion or the default.
func (c *TuningConfig) GetSepCriterionDeg() float64 {
	if c.SepCriterionDeg == nil {
		return 0.24
	}
	return *c.SepCriterionDeg
}

// GetMagSameFid returns the same-filter magnitude criterion or the default.
func (c *TuningConfig) GetMagSameFid() float64 {
	if c.MagSameFid == nil {
		return 0.18
	}
	return *c.MagSameFid
}

// GetMagDiffFid returns the cross-filter magnitude criterion or the default.
func (c *TuningConfig) GetMagDiffFid() float64 {
	if c.MagDiffFid == nil {
		return 0.7
	}
	return *c.MagDiffFid
}

// GetAngleCriterionDeg returns the cone-search angle criterion or the default.
func (c *TuningConfig) GetAngleCriterionDeg() float64 {
	if c.AngleCriterionDeg == nil {
		return 8.8
	}
	return *c.AngleCriterionDeg
}

// GetIntraSepArcsec returns the intra-night separation criterion or the default.
func (c *TuningConfig) GetIntraSepArcsec() float64 {
	if c.IntraSepArcsec == nil {
		return 145.0
	}
	return *c.IntraSepArcsec
}

// GetIntraMagSameFid returns the intra-night same-filter magnitude criterion or the default.
func (c *TuningConfig) GetIntraMagSameFid() float64 {
	if c.IntraMagSameFid == nil {
		return 2.21
	}
	return *c.IntraMagSameFid
}

// GetIntraMagDiffFid returns the intra-night cross-filter magnitude criterion or the default.
func (c *TuningConfig) GetIntraMagDiffFid() float64 {
	if c.IntraMagDiffFid == nil {
		return 1.75
	}
	return *c.IntraMagDiffFid
}

// GetTrajectoryWindow returns the trajectory retention horizon or the default.
func (c *TuningConfig) GetTrajectoryWindow() int {
	if c.TrajectoryWindow == nil {
		return 5
	}
	return *c.TrajectoryWindow
}

// GetObservationWindow returns the observation retention horizon or the default.
func (c *TuningConfig) GetObservationWindow() int {
	if c.ObservationWindow == nil {
		return 5
	}
	return *c.ObservationWindow
}

// GetOrbfitLimit returns the orbit-eligibility point threshold or the default.
func (c *TuningConfig) GetOrbfitLimit() int {
	if c.OrbfitLimit == nil {
		return 3
	}
	return *c.OrbfitLimit
}

// GetScratchDir returns the orbit scratch directory or the default (system temp).
func (c *TuningConfig) GetScratchDir() string {
	if c.ScratchDir == nil || *c.ScratchDir == "" {
		return os.TempDir()
	}
	return *c.ScratchDir
}

// GetAccelThreshold returns the acceleration-filter threshold or the default.
func (c *TuningConfig) GetAccelThreshold() float64 {
	if c.AccelThreshold == nil {
		return 0.5
	}
	return *c.AccelThreshold
}

// GetRunMetrics reports whether accuracy metrics are enabled.
func (c *TuningConfig) GetRunMetrics() bool {
	if c.RunMetrics == nil {
		return false
	}
	return *c.RunMetrics
}
