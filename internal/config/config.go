package config

import "time"

// Config is the root configuration for the seoulhigh service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DBConfig         `yaml:"database"`
	Polymarket PolymarketConfig `yaml:"polymarket"`
	Weather    WeatherConfig    `yaml:"weather"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DBConfig holds the Postgres connection for the snapshot store.
// An empty Host disables the store; the API then answers 503 for history.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool { return db.Host != "" }

// PolymarketConfig holds gamma and CLOB endpoints.
type PolymarketConfig struct {
	GammaURL   string        `yaml:"gamma_url"`
	ClobURL    string        `yaml:"clob_url"`
	SlugPrefix string        `yaml:"slug_prefix"` // e.g. "highest-temperature-in-seoul-on"
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RateLimit  float64       `yaml:"rate_limit"` // requests per second
	RateBurst  int           `yaml:"rate_burst"`
}

// WeatherConfig holds METAR and forecast sources.
type WeatherConfig struct {
	Station      string        `yaml:"station"`
	AWCURL       string        `yaml:"awc_url"`
	OpenMeteoURL string        `yaml:"open_meteo_url"`
	Latitude     float64       `yaml:"latitude"`
	Longitude    float64       `yaml:"longitude"`
	Models       []string      `yaml:"models"` // open-meteo model names, first is the default
	ForecastDays int           `yaml:"forecast_days"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`

	// Weather Underground daily history pages.
	WundergroundURL       string `yaml:"wunderground_url"`
	WundergroundLocation  string `yaml:"wunderground_location"` // e.g. "kr/incheon"
	WundergroundUserAgent string `yaml:"wunderground_user_agent"`
}

// IngestionConfig holds poller cadence.
type IngestionConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MarketInterval   time.Duration `yaml:"market_interval"`
	EventRefresh     time.Duration `yaml:"event_refresh"`
	WeatherInterval  time.Duration `yaml:"weather_interval"`
	ForecastInterval time.Duration `yaml:"forecast_interval"`
	WUInterval       time.Duration `yaml:"wunderground_interval"`
	BookConcurrency  int           `yaml:"book_concurrency"`
}

// LoggingConfig controls the slog handler and optional file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // empty means stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
