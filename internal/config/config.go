// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. REVIEWS_SCRAPER_PAGE_DELAY.
const EnvPrefix = "REVIEWS"

// Fetch modes accepted by http.mode.
const (
	ModeColly    = "colly"
	ModeHeadless = "headless"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScraperConfig governs listing URLs and pacing.
type ScraperConfig struct {
	SiteRoot     string        `mapstructure:"site_root"`
	UserAgent    string        `mapstructure:"user_agent"`
	PageParam    string        `mapstructure:"page_param"`
	FetchDelay   time.Duration `mapstructure:"fetch_delay"`
	PageDelay    time.Duration `mapstructure:"page_delay"`
	CompanyDelay time.Duration `mapstructure:"company_delay"`
	MaxPages     int           `mapstructure:"max_pages"`
}

// HTTPConfig selects and tunes the page fetcher.
type HTTPConfig struct {
	Mode              string `mapstructure:"mode"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
}

// StorageConfig sets where reviews and summaries are written.
type StorageConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	SummaryPath string `mapstructure:"summary_path"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	GCSPrefix   string `mapstructure:"gcs_prefix"`
}

// DBConfig controls the optional Postgres review mirror.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	Table        string `mapstructure:"table"`
	MaxConns     int32  `mapstructure:"max_conns"`
	EnsureSchema bool   `mapstructure:"ensure_schema"`
}

// PubSubConfig holds metadata for the per-run completion notice.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig controls how Prometheus metrics leave the process.
type MetricsConfig struct {
	// ListenAddr serves /metrics and /healthz while a run is in progress.
	ListenAddr string `mapstructure:"listen_addr"`
	// TextfilePath receives a node-exporter textfile when the run ends.
	TextfilePath string `mapstructure:"textfile_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.site_root", "https://www.trustpilot.com")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0")
	v.SetDefault("scraper.page_param", "page")
	v.SetDefault("scraper.fetch_delay", "2s")
	v.SetDefault("scraper.page_delay", "1s")
	v.SetDefault("scraper.company_delay", "5s")
	v.SetDefault("scraper.max_pages", 0)
	v.SetDefault("http.mode", ModeColly)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.nav_timeout_seconds", 45)
	v.SetDefault("storage.output_dir", ".")
	v.SetDefault("storage.summary_path", "scraping_summary.json")
	v.SetDefault("storage.gcs_prefix", "review-scraper")
	v.SetDefault("db.table", "reviews")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	// Keys without defaults are bound explicitly so env overrides reach Unmarshal.
	for _, key := range []string{
		"storage.gcs_bucket",
		"db.dsn",
		"db.max_conns",
		"db.ensure_schema",
		"pubsub.project_id",
		"pubsub.topic_name",
		"metrics.listen_addr",
		"metrics.textfile_path",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Scraper.SiteRoot, "http://") && !strings.HasPrefix(c.Scraper.SiteRoot, "https://") {
		return fmt.Errorf("scraper.site_root must be an http(s) URL")
	}
	if c.Scraper.FetchDelay < 0 || c.Scraper.PageDelay < 0 || c.Scraper.CompanyDelay < 0 {
		return fmt.Errorf("scraper delays must be >= 0")
	}
	if c.Scraper.MaxPages < 0 {
		return fmt.Errorf("scraper.max_pages must be >= 0")
	}
	switch c.HTTP.Mode {
	case ModeColly, ModeHeadless:
	default:
		return fmt.Errorf("http.mode must be %q or %q", ModeColly, ModeHeadless)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.Mode == ModeHeadless && c.HTTP.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("http.nav_timeout_seconds must be > 0 in headless mode")
	}
	if strings.TrimSpace(c.Storage.OutputDir) == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavigationTimeout converts the headless navigation timeout into a duration.
func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.HTTP.NavTimeoutSeconds) * time.Second
}
