package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Polymarket.RateLimit <= 0 {
		return errors.New("polymarket.rate_limit must be > 0")
	}
	if c.Polymarket.RateBurst < 1 {
		return errors.New("polymarket.rate_burst must be >= 1")
	}
	if c.Polymarket.MaxRetries < 0 {
		return errors.New("polymarket.max_retries must be >= 0")
	}

	if c.Weather.Station == "" {
		return errors.New("weather.station is required")
	}
	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return fmt.Errorf("weather.latitude must be between -90 and 90, got %v", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return fmt.Errorf("weather.longitude must be between -180 and 180, got %v", c.Weather.Longitude)
	}
	if c.Weather.ForecastDays < 1 || c.Weather.ForecastDays > 16 {
		return fmt.Errorf("weather.forecast_days must be between 1 and 16, got %d", c.Weather.ForecastDays)
	}

	if !strings.HasPrefix(c.Weather.WundergroundURL, "http://") && !strings.HasPrefix(c.Weather.WundergroundURL, "https://") {
		return fmt.Errorf("weather.wunderground_url must be an http(s) URL, got %q", c.Weather.WundergroundURL)
	}
	if strings.Count(strings.Trim(c.Weather.WundergroundLocation, "/"), "/") != 1 {
		return fmt.Errorf("weather.wunderground_location must be country/city, got %q", c.Weather.WundergroundLocation)
	}

	if c.Ingestion.Enabled && !c.Database.Enabled() {
		return errors.New("ingestion.enabled requires database.host")
	}
	if c.Ingestion.BookConcurrency < 1 {
		return errors.New("ingestion.book_concurrency must be >= 1")
	}
	if c.Ingestion.MarketInterval < 0 || c.Ingestion.WeatherInterval < 0 || c.Ingestion.ForecastInterval < 0 || c.Ingestion.WUInterval < 0 {
		return errors.New("ingestion intervals must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
