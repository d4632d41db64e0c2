package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Backend     BackendConfig     `yaml:"backend" mapstructure:"backend"`
	Business    BusinessConfig    `yaml:"business" mapstructure:"business"`
	Reliability ReliabilityConfig `yaml:"reliability" mapstructure:"reliability"`
	Risk        RiskConfig        `yaml:"risk" mapstructure:"risk"`
	Recommend   RecommendConfig   `yaml:"recommend" mapstructure:"recommend"`
	Demand      DemandConfig      `yaml:"demand" mapstructure:"demand"`
	Revenue     RevenueConfig     `yaml:"revenue" mapstructure:"revenue"`
	Health      HealthConfig      `yaml:"health" mapstructure:"health"`
	Quadrant    QuadrantConfig    `yaml:"quadrant" mapstructure:"quadrant"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// BackendConfig holds settings for the booking platform REST API.
type BackendConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	Tenant      string  `yaml:"tenant" mapstructure:"tenant"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
}

// BusinessConfig describes the tenant the metrics are computed for.
type BusinessConfig struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// ReliabilityConfig configures client reliability scoring and banding.
// Penalties are points removed at a 100% rate (or per streak step).
type ReliabilityConfig struct {
	NoShowPenalty       float64 `yaml:"no_show_penalty" mapstructure:"no_show_penalty"`
	CancellationPenalty float64 `yaml:"cancellation_penalty" mapstructure:"cancellation_penalty"`
	StreakPenalty       float64 `yaml:"streak_penalty" mapstructure:"streak_penalty"`

	// Zone cut points (Reliable / Watch / High Risk).
	ReliableMin float64 `yaml:"reliable_min" mapstructure:"reliable_min"`
	WatchMin    float64 `yaml:"watch_min" mapstructure:"watch_min"`

	// Distribution bands (excellent / good / fair / poor).
	ExcellentMin float64 `yaml:"excellent_min" mapstructure:"excellent_min"`
	GoodMin      float64 `yaml:"good_min" mapstructure:"good_min"`
	FairMin      float64 `yaml:"fair_min" mapstructure:"fair_min"`
}

// RiskConfig configures booking risk scoring and level cut points.
type RiskConfig struct {
	ReliabilityWeight float64            `yaml:"reliability_weight" mapstructure:"reliability_weight"`
	PaymentPoints     map[string]float64 `yaml:"payment_points" mapstructure:"payment_points"`
	ShortLeadHours    float64            `yaml:"short_lead_hours" mapstructure:"short_lead_hours"`
	ShortLeadPoints   float64            `yaml:"short_lead_points" mapstructure:"short_lead_points"`
	MediumLeadHours   float64            `yaml:"medium_lead_hours" mapstructure:"medium_lead_hours"`
	MediumLeadPoints  float64            `yaml:"medium_lead_points" mapstructure:"medium_lead_points"`
	StreakPoints      float64            `yaml:"streak_points" mapstructure:"streak_points"`
	MaxStreakPoints   float64            `yaml:"max_streak_points" mapstructure:"max_streak_points"`
	PaidDampening     float64            `yaml:"paid_dampening" mapstructure:"paid_dampening"`

	// CRITICAL needs reliability below this, an unpaid booking, and either a
	// short lead time or an active no-show streak.
	CriticalReliabilityMax float64 `yaml:"critical_reliability_max" mapstructure:"critical_reliability_max"`

	// Level cut points; must be strictly ascending.
	MediumMin   float64 `yaml:"medium_min" mapstructure:"medium_min"`
	HighMin     float64 `yaml:"high_min" mapstructure:"high_min"`
	CriticalMin float64 `yaml:"critical_min" mapstructure:"critical_min"`
}

// RecommendConfig configures payment and deposit recommendations.
type RecommendConfig struct {
	// ZoneDeposits maps a reliability zone (reliable, watch, high_risk) to a deposit percent.
	ZoneDeposits          map[string]float64 `yaml:"zone_deposits" mapstructure:"zone_deposits"`
	RepeatNoShowThreshold int                `yaml:"repeat_no_show_threshold" mapstructure:"repeat_no_show_threshold"`
	MinHistory            int                `yaml:"min_history" mapstructure:"min_history"`

	BaseConfidence       float64 `yaml:"base_confidence" mapstructure:"base_confidence"`
	PerBookingConfidence float64 `yaml:"per_booking_confidence" mapstructure:"per_booking_confidence"`
	MaxConfidence        float64 `yaml:"max_confidence" mapstructure:"max_confidence"`
	ApplyThreshold       float64 `yaml:"apply_threshold" mapstructure:"apply_threshold"`

	// Service-level policy.
	ServiceReliableNoShowMax float64 `yaml:"service_reliable_no_show_max" mapstructure:"service_reliable_no_show_max"`
	ServiceWatchNoShowMax    float64 `yaml:"service_watch_no_show_max" mapstructure:"service_watch_no_show_max"`
	HighDemandIndex          float64 `yaml:"high_demand_index" mapstructure:"high_demand_index"`
	LowDemandIndex           float64 `yaml:"low_demand_index" mapstructure:"low_demand_index"`
	PeakSurcharge            float64 `yaml:"peak_surcharge" mapstructure:"peak_surcharge"`
	OffPeakDiscount          float64 `yaml:"off_peak_discount" mapstructure:"off_peak_discount"`
}

// DemandConfig configures demand and utilisation indexing.
type DemandConfig struct {
	WindowDays     int     `yaml:"window_days" mapstructure:"window_days"`
	PeakStartHour  int     `yaml:"peak_start_hour" mapstructure:"peak_start_hour"`
	PeakEndHour    int     `yaml:"peak_end_hour" mapstructure:"peak_end_hour"`
	NoShowFlagRate float64 `yaml:"no_show_flag_rate" mapstructure:"no_show_flag_rate"`
	// SlotsPerHour is the weekly bookable capacity per (service, weekday, hour)
	// used when no staff schedule is supplied.
	SlotsPerHour int `yaml:"slots_per_hour" mapstructure:"slots_per_hour"`
	OpenHour     int `yaml:"open_hour" mapstructure:"open_hour"`
	CloseHour    int `yaml:"close_hour" mapstructure:"close_hour"`
}

// RevenueConfig configures the forward revenue window.
type RevenueConfig struct {
	WindowDays int `yaml:"window_days" mapstructure:"window_days"`
}

// HealthConfig holds the business health weight table and bands.
// Weights must sum to exactly 100.
type HealthConfig struct {
	CompletionWeight  int     `yaml:"completion_weight" mapstructure:"completion_weight"`
	NoShowWeight      int     `yaml:"no_show_weight" mapstructure:"no_show_weight"`
	ConversionWeight  int     `yaml:"conversion_weight" mapstructure:"conversion_weight"`
	IntakeWeight      int     `yaml:"intake_weight" mapstructure:"intake_weight"`
	DisclaimerWeight  int     `yaml:"disclaimer_weight" mapstructure:"disclaimer_weight"`
	ReliabilityWeight int     `yaml:"reliability_weight" mapstructure:"reliability_weight"`
	NoShowMultiplier  float64 `yaml:"no_show_multiplier" mapstructure:"no_show_multiplier"`
	HealthyMin        int     `yaml:"healthy_min" mapstructure:"healthy_min"`
	AttentionMin      int     `yaml:"attention_min" mapstructure:"attention_min"`
}

// QuadrantConfig configures the client reliability/frequency quadrant.
type QuadrantConfig struct {
	LookbackDays       int `yaml:"lookback_days" mapstructure:"lookback_days"`
	FrequencyThreshold int `yaml:"frequency_threshold" mapstructure:"frequency_threshold"`
}

// MonitoringConfig configures owner action thresholds and webhook delivery.
type MonitoringConfig struct {
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	AtRiskShareHigh       float64 `yaml:"at_risk_share_high" mapstructure:"at_risk_share_high"`
	IntakeValidMin        float64 `yaml:"intake_valid_min" mapstructure:"intake_valid_min"`
	DisclaimerCoverageMin float64 `yaml:"disclaimer_coverage_min" mapstructure:"disclaimer_coverage_min"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v, Default()); err != nil {
		return nil, err
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings required by the given mode are present.
// Modes: "backend" (fetching snapshots from the API), "serve" and "score".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "backend":
		if c.Backend.BaseURL == "" {
			errs = append(errs, "backend.base_url is required")
		}
		if c.Backend.Token == "" {
			errs = append(errs, "backend.token is required")
		}
		if c.Backend.RatePerSec <= 0 {
			errs = append(errs, "backend.rate_per_sec must be > 0")
		}
		if c.Backend.PageSize <= 0 {
			errs = append(errs, "backend.page_size must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "score":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Business.Timezone == "" {
		errs = append(errs, "business.timezone is required")
	}
	if c.Revenue.WindowDays <= 0 {
		errs = append(errs, "revenue.window_days must be > 0")
	}
	if c.Monitoring.WebhookURL != "" && c.Monitoring.CheckIntervalSecs <= 0 {
		errs = append(errs, "monitoring.check_interval_secs must be > 0 when a webhook is set")
	}
	if c.Quadrant.LookbackDays <= 0 {
		errs = append(errs, "quadrant.lookback_days must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
