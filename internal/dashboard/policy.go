// Package dashboard composes the scorers into the owner dashboard report.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/demand"
	"github.com/sells-group/booking-insights/internal/health"
	"github.com/sells-group/booking-insights/internal/recommend"
	"github.com/sells-group/booking-insights/internal/reliability"
	"github.com/sells-group/booking-insights/internal/revenue"
	"github.com/sells-group/booking-insights/internal/risk"
)

// Policy is every threshold and weight table a report depends on.
type Policy struct {
	Timezone    string                   `yaml:"timezone" json:"timezone"`
	Reliability config.ReliabilityConfig `yaml:"reliability" json:"reliability"`
	Risk        config.RiskConfig        `yaml:"risk" json:"risk"`
	Recommend   config.RecommendConfig   `yaml:"recommend" json:"recommend"`
	Demand      config.DemandConfig      `yaml:"demand" json:"demand"`
	Revenue     config.RevenueConfig     `yaml:"revenue" json:"revenue"`
	Health      config.HealthConfig      `yaml:"health" json:"health"`
	Quadrant    config.QuadrantConfig    `yaml:"quadrant" json:"quadrant"`
	Monitoring  config.MonitoringConfig  `yaml:"monitoring" json:"monitoring"`

	// Capacity overrides the opening-hours capacity model. Nil uses
	// demand.OpeningHours.
	Capacity demand.Capacity `yaml:"-" json:"-"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return PolicyFromConfig(config.Default())
}

// PolicyFromConfig builds a policy from loaded configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		Timezone:    cfg.Business.Timezone,
		Reliability: cfg.Reliability,
		Risk:        cfg.Risk,
		Recommend:   cfg.Recommend,
		Demand:      cfg.Demand,
		Revenue:     cfg.Revenue,
		Health:      cfg.Health,
		Quadrant:    cfg.Quadrant,
		Monitoring:  cfg.Monitoring,
	}
}

// Validate checks every section of the policy and reports all problems.
func (p Policy) Validate() error {
	var errs []string

	if _, err := time.LoadLocation(p.Timezone); err != nil || p.Timezone == "" {
		errs = append(errs, fmt.Sprintf("unknown timezone %q", p.Timezone))
	}
	for _, err := range []error{
		reliability.ValidateConfig(p.Reliability),
		risk.ValidateConfig(p.Risk),
		recommend.ValidateConfig(p.Recommend),
		demand.ValidateConfig(p.Demand),
		revenue.ValidateConfig(p.Revenue),
		health.ValidateConfig(p.Health),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if p.Quadrant.LookbackDays <= 0 {
		errs = append(errs, "quadrant: lookback_days must be > 0")
	}
	if p.Quadrant.FrequencyThreshold < 1 {
		errs = append(errs, "quadrant: frequency_threshold must be >= 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("dashboard: invalid policy: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (p Policy) capacity() demand.Capacity {
	if p.Capacity != nil {
		return p.Capacity
	}
	return demand.OpeningHours(p.Demand)
}
