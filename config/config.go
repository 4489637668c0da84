// Package config defines the externally supplied configuration surface of the
// quote pipeline. Each section follows the same shape: a Default constructor,
// a Merge that applies non-zero overrides, and validation at startup so a bad
// configuration never reaches per-request processing.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidWeights is returned when scoring weights do not sum to 1.0.
// This is a startup-time configuration error, never a per-request one, and
// weights are never silently normalized.
var ErrInvalidWeights = errors.New("scoring weights must sum to 1.0")

// weightEpsilon is the tolerance for the weight-sum check.
const weightEpsilon = 1e-9

// Weights are the scoring weights for the three sub-scores.
type Weights struct {
	Cost        float64 `yaml:"cost" json:"cost"`
	Delivery    float64 `yaml:"delivery" json:"delivery"`
	Reliability float64 `yaml:"reliability" json:"reliability"`
}

// Sum returns the total of the three weights.
func (w Weights) Sum() float64 {
	return w.Cost + w.Delivery + w.Reliability
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	Weights Weights `yaml:"weights" json:"weights"`

	// OutlierZScore is the number of standard deviations a score may deviate
	// from the set mean before the quote is flagged.
	OutlierZScore float64 `yaml:"outlier_zscore" json:"outlier_zscore"`
}

// DefaultScoringConfig returns the documented default weighting 0.5/0.3/0.2
// and a 2-sigma outlier threshold.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:       Weights{Cost: 0.5, Delivery: 0.3, Reliability: 0.2},
		OutlierZScore: 2.0,
	}
}

func (c *ScoringConfig) Merge(source *ScoringConfig) {
	if source.Weights != (Weights{}) {
		c.Weights = source.Weights
	}
	if source.OutlierZScore > 0 {
		c.OutlierZScore = source.OutlierZScore
	}
}

// Validate checks the weight sum and outlier threshold.
func (c *ScoringConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > weightEpsilon {
		return fmt.Errorf("%w: got %v", ErrInvalidWeights, c.Weights.Sum())
	}
	if c.Weights.Cost < 0 || c.Weights.Delivery < 0 || c.Weights.Reliability < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	if c.OutlierZScore <= 0 {
		return fmt.Errorf("outlier_zscore must be positive, got %v", c.OutlierZScore)
	}
	return nil
}

// CollectorConfig configures supplier solicitation and negotiation.
type CollectorConfig struct {
	// Threshold is the monetary ceiling above which a quote routes to human
	// review instead of automated negotiation.
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// MaxConcurrent bounds parallel supplier calls.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// SupplierTimeoutSeconds is the per-call timeout. A timed-out supplier is
	// excluded and recorded, never fatal on its own.
	SupplierTimeoutSeconds int `yaml:"supplier_timeout_seconds" json:"supplier_timeout_seconds"`

	// RatePerSecond limits RFQ dispatch across all workers (0 = unlimited).
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`

	// NegotiationDiscount is the price reduction fraction the automated
	// negotiation pulls toward.
	NegotiationDiscount float64 `yaml:"negotiation_discount" json:"negotiation_discount"`
}

func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Threshold:              10000,
		MaxConcurrent:          8,
		SupplierTimeoutSeconds: 10,
		RatePerSecond:          0,
		NegotiationDiscount:    0.03,
	}
}

// SupplierTimeout returns the per-call timeout as a duration.
func (c CollectorConfig) SupplierTimeout() time.Duration {
	return time.Duration(c.SupplierTimeoutSeconds) * time.Second
}

func (c *CollectorConfig) Merge(source *CollectorConfig) {
	if source.Threshold > 0 {
		c.Threshold = source.Threshold
	}
	if source.MaxConcurrent > 0 {
		c.MaxConcurrent = source.MaxConcurrent
	}
	if source.SupplierTimeoutSeconds > 0 {
		c.SupplierTimeoutSeconds = source.SupplierTimeoutSeconds
	}
	if source.RatePerSecond > 0 {
		c.RatePerSecond = source.RatePerSecond
	}
	if source.NegotiationDiscount > 0 {
		c.NegotiationDiscount = source.NegotiationDiscount
	}
}

func (c *CollectorConfig) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", c.Threshold)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.SupplierTimeoutSeconds <= 0 {
		return fmt.Errorf("supplier_timeout_seconds must be positive, got %d", c.SupplierTimeoutSeconds)
	}
	if c.NegotiationDiscount < 0 || c.NegotiationDiscount >= 1 {
		return fmt.Errorf("negotiation_discount must be in [0,1), got %v", c.NegotiationDiscount)
	}
	return nil
}

// OptimizeConfig configures the optimization stage.
type OptimizeConfig struct {
	// MinMargin is the hard minimum implied margin, as a fraction.
	MinMargin float64 `yaml:"min_margin" json:"min_margin"`

	// SupplierMixCap caps the fraction of quantity any single supplier may
	// serve when multi-sourcing (0 = no cap).
	SupplierMixCap float64 `yaml:"supplier_mix_cap" json:"supplier_mix_cap"`

	// MultiSource permits composing the final offer across suppliers.
	MultiSource bool `yaml:"multi_source" json:"multi_source"`
}

func DefaultOptimizeConfig() OptimizeConfig {
	return OptimizeConfig{
		MinMargin:      0.20,
		SupplierMixCap: 0,
		MultiSource:    false,
	}
}

func (c *OptimizeConfig) Merge(source *OptimizeConfig) {
	if source.MinMargin > 0 {
		c.MinMargin = source.MinMargin
	}
	if source.SupplierMixCap > 0 {
		c.SupplierMixCap = source.SupplierMixCap
	}
	if source.MultiSource {
		c.MultiSource = true
	}
}

func (c *OptimizeConfig) Validate() error {
	if c.MinMargin < 0 || c.MinMargin >= 1 {
		return fmt.Errorf("min_margin must be in [0,1), got %v", c.MinMargin)
	}
	if c.SupplierMixCap < 0 || c.SupplierMixCap > 1 {
		return fmt.Errorf("supplier_mix_cap must be in [0,1], got %v", c.SupplierMixCap)
	}
	if c.SupplierMixCap > 0 && !c.MultiSource {
		return fmt.Errorf("supplier_mix_cap requires multi_source")
	}
	return nil
}

// EscalationConfig configures the escalation gate and reviewer queue.
type EscalationConfig struct {
	// ValueCeiling is the monetary value above which a case always escalates.
	ValueCeiling float64 `yaml:"value_ceiling" json:"value_ceiling"`

	// MarginMin/MarginMax bound the acceptable margin range; a final offer
	// outside it escalates.
	MarginMin float64 `yaml:"margin_min" json:"margin_min"`
	MarginMax float64 `yaml:"margin_max" json:"margin_max"`

	// ReviewSLASeconds is the operational SLA for human review. Breaching it
	// raises a stalled-case alert; the case stays suspended, it never falls
	// back to auto-approval.
	ReviewSLASeconds int `yaml:"review_sla_seconds" json:"review_sla_seconds"`
}

func DefaultEscalationConfig() EscalationConfig {
	return EscalationConfig{
		ValueCeiling:     10000,
		MarginMin:        0.15,
		MarginMax:        0.35,
		ReviewSLASeconds: 900,
	}
}

// ReviewSLA returns the review SLA as a duration.
func (c EscalationConfig) ReviewSLA() time.Duration {
	return time.Duration(c.ReviewSLASeconds) * time.Second
}

func (c *EscalationConfig) Merge(source *EscalationConfig) {
	if source.ValueCeiling > 0 {
		c.ValueCeiling = source.ValueCeiling
	}
	if source.MarginMin > 0 {
		c.MarginMin = source.MarginMin
	}
	if source.MarginMax > 0 {
		c.MarginMax = source.MarginMax
	}
	if source.ReviewSLASeconds > 0 {
		c.ReviewSLASeconds = source.ReviewSLASeconds
	}
}

func (c *EscalationConfig) Validate() error {
	if c.ValueCeiling <= 0 {
		return fmt.Errorf("value_ceiling must be positive, got %v", c.ValueCeiling)
	}
	if c.MarginMin < 0 || c.MarginMax > 1 || c.MarginMin >= c.MarginMax {
		return fmt.Errorf("margin range [%v, %v] invalid", c.MarginMin, c.MarginMax)
	}
	if c.ReviewSLASeconds <= 0 {
		return fmt.Errorf("review_sla_seconds must be positive, got %d", c.ReviewSLASeconds)
	}
	return nil
}

// Config holds all pipeline configuration sections.
type Config struct {
	Collector  CollectorConfig  `yaml:"collector" json:"collector"`
	Scoring    ScoringConfig    `yaml:"scoring" json:"scoring"`
	Optimize   OptimizeConfig   `yaml:"optimize" json:"optimize"`
	Escalation EscalationConfig `yaml:"escalation" json:"escalation"`

	// Observer names the registered observer implementation ("noop", "slog").
	Observer string `yaml:"observer" json:"observer"`
}

// DefaultConfig returns a Config with sensible defaults for all sections.
func DefaultConfig() Config {
	return Config{
		Collector:  DefaultCollectorConfig(),
		Scoring:    DefaultScoringConfig(),
		Optimize:   DefaultOptimizeConfig(),
		Escalation: DefaultEscalationConfig(),
		Observer:   "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// section's Merge method.
func (c *Config) Merge(source *Config) {
	c.Collector.Merge(&source.Collector)
	c.Scoring.Merge(&source.Scoring)
	c.Optimize.Merge(&source.Optimize)
	c.Escalation.Merge(&source.Escalation)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// Validate checks every section. Called once at startup; a failure here is
// fatal and never surfaces per-request.
func (c *Config) Validate() error {
	if err := c.Collector.Validate(); err != nil {
		return fmt.Errorf("collector: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Optimize.Validate(); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	if err := c.Escalation.Validate(); err != nil {
		return fmt.Errorf("escalation: %w", err)
	}
	return nil
}
