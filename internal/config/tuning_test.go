package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	cfg := &TuningConfig{}
	if got := cfg.GetSepCriterionDeg(); got != 0.24 {
		t.Errorf("sep default = %v, want 0.24", got)
	}
	if got := cfg.GetMagSameFid(); got != 0.18 {
		t.Errorf("mag same default = %v, want 0.18", got)
	}
	if got := cfg.GetMagDiffFid(); got != 0.7 {
		t.Errorf("mag diff default = %v, want 0.7", got)
	}
	if got := cfg.GetAngleCriterionDeg(); got != 8.8 {
		t.Errorf("angle default = %v, want 8.8", got)
	}
	if got := cfg.GetIntraSepArcsec(); got != 145.0 {
		t.Errorf("intra sep default = %v, want 145", got)
	}
	if got := cfg.GetTrajectoryWindow(); got != 5 {
		t.Errorf("trajectory window default = %v, want 5", got)
	}
	if got := cfg.GetOrbfitLimit(); got != 3 {
		t.Errorf("orbfit limit default = %v, want 3", got)
	}
	if got := cfg.GetAccelThreshold(); got != 0.5 {
		t.Errorf("accel threshold default = %v, want 0.5", got)
	}
	if cfg.GetRunMetrics() {
		t.Error("metrics must default off")
	}
	if cfg.GetScratchDir() == "" {
		t.Error("scratch dir default must not be empty")
	}
}

func TestLoadTuningConfig_PartialFile(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"sep_criterion_deg": 0.5, "orbfit_limit": 4}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cfg.GetSepCriterionDeg(); got != 0.5 {
		t.Errorf("sep = %v, want 0.5", got)
	}
	if got := cfg.GetOrbfitLimit(); got != 4 {
		t.Errorf("orbfit limit = %v, want 4", got)
	}
	// Untouched fields keep defaults.
	if got := cfg.GetAngleCriterionDeg(); got != 8.8 {
		t.Errorf("angle = %v, want default 8.8", got)
	}
}

func TestLoadTuningConfig_RejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `{}`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected extension error")
	}
}

func TestLoadTuningConfig_RejectsBadJSON(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"sep_criterion_deg": `)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadTuningConfig_MissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	n := func(v int) *int { return &v }

	cases := []struct {
		name    string
		cfg     TuningConfig
		wantErr bool
	}{
		{"empty ok", TuningConfig{}, false},
		{"negative sep", TuningConfig{SepCriterionDeg: f(-1)}, true},
		{"zero sep", TuningConfig{SepCriterionDeg: f(0)}, true},
		{"angle over 180", TuningConfig{AngleCriterionDeg: f(181)}, true},
		{"angle ok", TuningConfig{AngleCriterionDeg: f(180)}, false},
		{"window below one", TuningConfig{TrajectoryWindow: n(0)}, true},
		{"orbfit limit one", TuningConfig{OrbfitLimit: n(1)}, true},
		{"orbfit limit two", TuningConfig{OrbfitLimit: n(2)}, false},
		{"negative accel", TuningConfig{AccelThreshold: f(-0.1)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
