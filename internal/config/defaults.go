package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr            = ":8000"
	DefaultServerMode            = "release"
	DefaultReadTimeout           = 15 * time.Second
	DefaultWriteTimeout          = 30 * time.Second
	DefaultShutdownTimeout       = 10 * time.Second
	DefaultDBPort                = 5432
	DefaultDBSSLMode             = "prefer"
	DefaultMaxConns              = 10
	DefaultMinConns              = 2
	DefaultGammaURL              = "https://gamma-api.polymarket.com"
	DefaultClobURL               = "https://clob.polymarket.com"
	DefaultSlugPrefix            = "highest-temperature-in-seoul-on"
	DefaultAPITimeout            = 15 * time.Second
	DefaultMaxRetries            = 3
	DefaultRateLimit             = 10.0
	DefaultRateBurst             = 5
	DefaultStation               = "RKSI"
	DefaultAWCURL                = "https://aviationweather.gov/api/data/metar"
	DefaultOpenMeteoURL          = "https://api.open-meteo.com/v1/forecast"
	DefaultLatitude              = 37.469
	DefaultLongitude             = 126.451
	DefaultForecastDays          = 3
	DefaultMarketInterval        = 30 * time.Second
	DefaultEventRefresh          = 15 * time.Minute
	DefaultWeatherInterval       = 60 * time.Second
	DefaultForecastInterval      = time.Hour
	DefaultWUInterval            = 5 * time.Minute
	DefaultWundergroundURL       = "https://www.wunderground.com"
	DefaultWundergroundLocation  = "kr/incheon"
	DefaultWundergroundUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultBookConcurrency       = 8
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
	DefaultLogMaxSizeMB          = 100
	DefaultLogMaxBackups         = 5
	DefaultLogMaxAgeDays         = 28
	DefaultMetricsPath           = "/metrics"
)

// DefaultModels are the KMA models requested from open-meteo.
var DefaultModels = []string{"kma_seamless", "kma_gdps", "kma_ldps"}

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultServerMode
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	applyDBDefaults(&c.Database)

	// Polymarket defaults
	if c.Polymarket.GammaURL == "" {
		c.Polymarket.GammaURL = DefaultGammaURL
	}
	if c.Polymarket.ClobURL == "" {
		c.Polymarket.ClobURL = DefaultClobURL
	}
	if c.Polymarket.SlugPrefix == "" {
		c.Polymarket.SlugPrefix = DefaultSlugPrefix
	}
	if c.Polymarket.Timeout == 0 {
		c.Polymarket.Timeout = DefaultAPITimeout
	}
	if c.Polymarket.MaxRetries == 0 {
		c.Polymarket.MaxRetries = DefaultMaxRetries
	}
	if c.Polymarket.RateLimit == 0 {
		c.Polymarket.RateLimit = DefaultRateLimit
	}
	if c.Polymarket.RateBurst == 0 {
		c.Polymarket.RateBurst = DefaultRateBurst
	}

	// Weather defaults
	if c.Weather.Station == "" {
		c.Weather.Station = DefaultStation
	}
	if c.Weather.AWCURL == "" {
		c.Weather.AWCURL = DefaultAWCURL
	}
	if c.Weather.OpenMeteoURL == "" {
		c.Weather.OpenMeteoURL = DefaultOpenMeteoURL
	}
	if c.Weather.Latitude == 0 && c.Weather.Longitude == 0 {
		c.Weather.Latitude = DefaultLatitude
		c.Weather.Longitude = DefaultLongitude
	}
	if len(c.Weather.Models) == 0 {
		c.Weather.Models = append([]string(nil), DefaultModels...)
	}
	if c.Weather.ForecastDays == 0 {
		c.Weather.ForecastDays = DefaultForecastDays
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = DefaultAPITimeout
	}
	if c.Weather.MaxRetries == 0 {
		c.Weather.MaxRetries = DefaultMaxRetries
	}
	if c.Weather.WundergroundURL == "" {
		c.Weather.WundergroundURL = DefaultWundergroundURL
	}
	if c.Weather.WundergroundLocation == "" {
		c.Weather.WundergroundLocation = DefaultWundergroundLocation
	}
	if c.Weather.WundergroundUserAgent == "" {
		c.Weather.WundergroundUserAgent = DefaultWundergroundUserAgent
	}

	// Ingestion defaults
	if c.Ingestion.MarketInterval == 0 {
		c.Ingestion.MarketInterval = DefaultMarketInterval
	}
	if c.Ingestion.EventRefresh == 0 {
		c.Ingestion.EventRefresh = DefaultEventRefresh
	}
	if c.Ingestion.WeatherInterval == 0 {
		c.Ingestion.WeatherInterval = DefaultWeatherInterval
	}
	if c.Ingestion.ForecastInterval == 0 {
		c.Ingestion.ForecastInterval = DefaultForecastInterval
	}
	if c.Ingestion.WUInterval == 0 {
		c.Ingestion.WUInterval = DefaultWUInterval
	}
	if c.Ingestion.BookConcurrency == 0 {
		c.Ingestion.BookConcurrency = DefaultBookConcurrency
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
