// Package health blends operational, financial and compliance rates into a
// single business health score.
package health

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
)

// Labels for the three health bands.
const (
	LabelHealthy        = "Healthy"
	LabelNeedsAttention = "Needs Attention"
	LabelAtRisk         = "At Risk"
)

// DefaultConfig returns the health weight table and bands. Weights sum to 100.
func DefaultConfig() config.HealthConfig {
	return config.Default().Health
}

// WeightSum returns the sum of all factor weights.
func WeightSum(c config.HealthConfig) int {
	return c.CompletionWeight + c.NoShowWeight + c.ConversionWeight +
		c.IntakeWeight + c.DisclaimerWeight + c.ReliabilityWeight
}

// ValidateConfig checks that a HealthConfig is internally consistent.
func ValidateConfig(c config.HealthConfig) error {
	var errs []string

	weights := map[string]int{
		"completion_weight":  c.CompletionWeight,
		"no_show_weight":     c.NoShowWeight,
		"conversion_weight":  c.ConversionWeight,
		"intake_weight":      c.IntakeWeight,
		"disclaimer_weight":  c.DisclaimerWeight,
		"reliability_weight": c.ReliabilityWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if sum := WeightSum(c); sum != 100 {
		errs = append(errs, fmt.Sprintf("weights must sum to 100, got %d", sum))
	}
	if c.NoShowMultiplier < 0 {
		errs = append(errs, "no_show_multiplier must be >= 0")
	}
	if c.AttentionMin <= 0 || c.HealthyMin <= c.AttentionMin || c.HealthyMin > 100 {
		errs = append(errs, "bands must satisfy 0 < attention_min < healthy_min <= 100")
	}

	if len(errs) > 0 {
		return eris.Errorf("health: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Inputs are the business-wide rates the score is built from, each a
// percentage in [0, 100].
type Inputs struct {
	CompletionRate     float64 `json:"completion_rate"`
	NoShowRate         float64 `json:"no_show_rate"`
	ConversionRate     float64 `json:"conversion_rate"`
	IntakeValidRate    float64 `json:"intake_valid_rate"`
	DisclaimerCoverage float64 `json:"disclaimer_coverage"`
	AvgReliability     float64 `json:"avg_reliability"`
}

// Factor is one weighted component of the score.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"`
	Weight int     `json:"weight"`
}

// Score is the composite health result.
type Score struct {
	HealthScore int      `json:"healthScore"`
	HealthLabel string   `json:"healthLabel"`
	Factors     []Factor `json:"factors"`
}

// Compute scores in against the weight table in cfg. Every factor is clamped
// to [0, 100] before weighting, so the result is always in [0, 100]. Factor
// values and scores are rounded for display only.
func Compute(in Inputs, cfg config.HealthConfig) Score {
	type input struct {
		name   string
		value  float64
		score  float64
		weight int
	}
	inputs := []input{
		{"completion", in.CompletionRate, in.CompletionRate, cfg.CompletionWeight},
		{"no_show_inverse", in.NoShowRate, 100 - in.NoShowRate*cfg.NoShowMultiplier, cfg.NoShowWeight},
		{"conversion", in.ConversionRate, in.ConversionRate, cfg.ConversionWeight},
		{"intake_compliance", in.IntakeValidRate, in.IntakeValidRate, cfg.IntakeWeight},
		{"disclaimer_coverage", in.DisclaimerCoverage, in.DisclaimerCoverage, cfg.DisclaimerWeight},
		{"reliability", in.AvgReliability, in.AvgReliability, cfg.ReliabilityWeight},
	}

	factors := make([]Factor, len(inputs))
	scores := make([]float64, len(inputs))
	weights := make([]float64, len(inputs))
	for i, f := range inputs {
		scores[i] = metrics.Clamp(f.score, 0, 100)
		weights[i] = float64(f.weight)
		factors[i] = Factor{
			Name:   f.name,
			Value:  metrics.Round(f.value, 1),
			Score:  metrics.Round(scores[i], 1),
			Weight: f.weight,
		}
	}

	// scores and weights share a length, so this cannot fail.
	avg, _ := metrics.WeightedAverage(scores, weights)
	score := int(metrics.Clamp(math.Round(avg), 0, 100))

	return Score{
		HealthScore: score,
		HealthLabel: LabelFor(score, cfg),
		Factors:     factors,
	}
}

// LabelFor bands a health score.
func LabelFor(score int, cfg config.HealthConfig) string {
	switch {
	case score >= cfg.HealthyMin:
		return LabelHealthy
	case score >= cfg.AttentionMin:
		return LabelNeedsAttention
	default:
		return LabelAtRisk
	}
}
