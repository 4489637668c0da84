package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quoteflow-systems/engine/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefaultWeights(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	if cfg.Weights.Cost != 0.5 || cfg.Weights.Delivery != 0.3 || cfg.Weights.Reliability != 0.2 {
		t.Errorf("default weights = %+v, want 0.5/0.3/0.2", cfg.Weights)
	}
	if cfg.OutlierZScore != 2.0 {
		t.Errorf("default outlier z-score = %v, want 2.0", cfg.OutlierZScore)
	}
}

func TestScoringConfig_InvalidWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights config.Weights
	}{
		{name: "sum below one", weights: config.Weights{Cost: 0.5, Delivery: 0.3, Reliability: 0.1}},
		{name: "sum above one", weights: config.Weights{Cost: 0.6, Delivery: 0.3, Reliability: 0.2}},
		{name: "negative weight", weights: config.Weights{Cost: 1.2, Delivery: -0.3, Reliability: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultScoringConfig()
			cfg.Weights = tt.weights

			err := cfg.Validate()
			if !errors.Is(err, config.ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got: %v", err)
			}
		})
	}
}

func TestScoringConfig_WeightsNeverNormalized(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	cfg.Weights = config.Weights{Cost: 1.0, Delivery: 1.0, Reliability: 1.0}

	if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got: %v", err)
	}
	if cfg.Weights.Sum() != 3.0 {
		t.Errorf("weights were mutated during validation: %+v", cfg.Weights)
	}
}

func TestOptimizeConfig_MixCapRequiresMultiSource(t *testing.T) {
	cfg := config.DefaultOptimizeConfig()
	cfg.SupplierMixCap = 0.6

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when mix cap set without multi_source")
	}

	cfg.MultiSource = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestEscalationConfig_MarginRange(t *testing.T) {
	cfg := config.DefaultEscalationConfig()
	cfg.MarginMin = 0.4
	cfg.MarginMax = 0.3

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for inverted margin range")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := config.DefaultConfig()
	override := config.Config{
		Collector: config.CollectorConfig{Threshold: 5000, MaxConcurrent: 2},
		Scoring:   config.ScoringConfig{Weights: config.Weights{Cost: 0.4, Delivery: 0.4, Reliability: 0.2}},
		Observer:  "noop",
	}

	cfg.Merge(&override)

	if cfg.Collector.Threshold != 5000 {
		t.Errorf("threshold = %v, want 5000", cfg.Collector.Threshold)
	}
	if cfg.Collector.MaxConcurrent != 2 {
		t.Errorf("max_concurrent = %d, want 2", cfg.Collector.MaxConcurrent)
	}
	if cfg.Collector.SupplierTimeoutSeconds != 10 {
		t.Errorf("unset override should keep default timeout, got %d", cfg.Collector.SupplierTimeoutSeconds)
	}
	if cfg.Scoring.Weights.Cost != 0.4 {
		t.Errorf("weights not merged: %+v", cfg.Scoring.Weights)
	}
	if cfg.Observer != "noop" {
		t.Errorf("observer = %q, want noop", cfg.Observer)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
collector:
  threshold: 5000
  max_concurrent: 4
scoring:
  weights:
    cost: 0.6
    delivery: 0.2
    reliability: 0.2
escalation:
  value_ceiling: 20000
observer: noop
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Collector.Threshold != 5000 {
		t.Errorf("threshold = %v, want 5000", cfg.Collector.Threshold)
	}
	if cfg.Scoring.Weights.Cost != 0.6 {
		t.Errorf("cost weight = %v, want 0.6", cfg.Scoring.Weights.Cost)
	}
	if cfg.Escalation.ValueCeiling != 20000 {
		t.Errorf("value_ceiling = %v, want 20000", cfg.Escalation.ValueCeiling)
	}
	if cfg.Optimize.MinMargin != 0.20 {
		t.Errorf("untouched section should keep defaults, got min_margin %v", cfg.Optimize.MinMargin)
	}
}

func TestLoad_InvalidWeightsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
scoring:
  weights:
    cost: 0.9
    delivery: 0.3
    reliability: 0.2
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := config.Load(path)
	if !errors.Is(err, config.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights at load time, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
