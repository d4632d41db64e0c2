package config

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration. Load seeds viper from it and
// every scoring package's DefaultConfig reads its section from it.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			TimeoutSecs: 30,
			RatePerSec:  10,
			Burst:       10,
			MaxRetries:  3,
			PageSize:    200,
		},
		Business: BusinessConfig{Timezone: "Europe/London"},
		Reliability: ReliabilityConfig{
			NoShowPenalty:       60,
			CancellationPenalty: 20,
			StreakPenalty:       25,
			ReliableMin:         80,
			WatchMin:            60,
			ExcellentMin:        90,
			GoodMin:             75,
			FairMin:             50,
		},
		Risk: RiskConfig{
			ReliabilityWeight: 0.6,
			PaymentPoints: map[string]float64{
				"pending":  15,
				"failed":   25,
				"refunded": 15,
				"paid":     0,
			},
			ShortLeadHours:         24,
			ShortLeadPoints:        15,
			MediumLeadHours:        72,
			MediumLeadPoints:       8,
			StreakPoints:           10,
			MaxStreakPoints:        30,
			PaidDampening:          0.5,
			CriticalReliabilityMax: 60,
			MediumMin:              25,
			HighMin:                50,
			CriticalMin:            75,
		},
		Recommend: RecommendConfig{
			ZoneDeposits: map[string]float64{
				"reliable":  25,
				"watch":     50,
				"high_risk": 100,
			},
			RepeatNoShowThreshold:    2,
			MinHistory:               1,
			BaseConfidence:           30,
			PerBookingConfidence:     10,
			MaxConfidence:            95,
			ApplyThreshold:           60,
			ServiceReliableNoShowMax: 10,
			ServiceWatchNoShowMax:    20,
			HighDemandIndex:          80,
			LowDemandIndex:           30,
			PeakSurcharge:            0.10,
			OffPeakDiscount:          0.05,
		},
		Demand: DemandConfig{
			WindowDays:     30,
			PeakStartHour:  10,
			PeakEndHour:    14,
			NoShowFlagRate: 20,
			SlotsPerHour:   2,
			OpenHour:       9,
			CloseHour:      18,
		},
		Revenue: RevenueConfig{WindowDays: 7},
		Health: HealthConfig{
			CompletionWeight:  25,
			NoShowWeight:      20,
			ConversionWeight:  15,
			IntakeWeight:      15,
			DisclaimerWeight:  10,
			ReliabilityWeight: 15,
			NoShowMultiplier:  5,
			HealthyMin:        75,
			AttentionMin:      50,
		},
		Quadrant: QuadrantConfig{LookbackDays: 90, FrequencyThreshold: 4},
		Monitoring: MonitoringConfig{
			CheckIntervalSecs:     900,
			AtRiskShareHigh:       20,
			IntakeValidMin:        80,
			DisclaimerCoverageMin: 90,
		},
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// setDefaults registers every leaf of cfg as a viper default, keyed by its
// dotted yaml path, so env overrides resolve for keys absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}
	setTree(v, "", tree)
	return nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok && len(sub) > 0 {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}
