package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Limit    LimitConfig    `mapstructure:"limit"`
	Cron     CronConfig     `mapstructure:"cron"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type StoreConfig struct {
	// Backend selects the persistence layer: "memory" or "firestore".
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
}

type QuotesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ForecastConfig struct {
	// LookbackMonths bounds how far back expense history is read.
	LookbackMonths int `mapstructure:"lookback_months"`
	// QuoteLookbackDays bounds how far back price history is read.
	QuoteLookbackDays int `mapstructure:"quote_lookback_days"`
	DefaultHorizon    int `mapstructure:"default_horizon"`
	MaxHorizon        int `mapstructure:"max_horizon"`
}

type SuggestConfig struct {
	// MaxSuggestions caps the ranked list returned to the client.
	MaxSuggestions int `mapstructure:"max_suggestions"`
}

type LimitConfig struct {
	// DailyCap is the default daily spend cap applied when a request
	// doesn't carry its own.
	DailyCap float64 `mapstructure:"daily_cap"`
}

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// LimitSweep is the schedule for the daily-limit sweep over active
	// owners.
	LimitSweep string `mapstructure:"limit_sweep"`
	// DailyDigest is the schedule for the prior-day summary delivery.
	DailyDigest string `mapstructure:"daily_digest"`
}

type WebhookConfig struct {
	// URL receives breach alert notifications; empty disables delivery.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXPENSETRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.project_id", "")
	v.SetDefault("quotes.base_url", "https://quotes.expensetrade.dev")
	v.SetDefault("quotes.api_key", "")
	v.SetDefault("quotes.timeout", "30s")
	v.SetDefault("forecast.lookback_months", 12)
	v.SetDefault("forecast.quote_lookback_days", 180)
	v.SetDefault("forecast.default_horizon", 3)
	v.SetDefault("forecast.max_horizon", 24)
	v.SetDefault("suggest.max_suggestions", 5)
	v.SetDefault("limit.daily_cap", 1000)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.limit_sweep", "0 */15 * * * *")
	v.SetDefault("cron.daily_digest", "0 0 6 * * *")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
