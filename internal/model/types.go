package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
)

// -----------------------------------------------------------------------------
// Relational Types
// -----------------------------------------------------------------------------

// Event is one daily "highest temperature in Seoul" Polymarket event.
type Event struct {
	ID           uuid.UUID // Primary key
	DateKST      kst.Date  // Calendar day the event resolves on
	Slug         string    // Gamma slug (e.g., "highest-temperature-in-seoul-on-january-15")
	GammaEventID string    // Gamma event id
	LastSeenAt   time.Time // Last time the market poller saw the event
}

// Market is one outcome bucket of an event.
type Market struct {
	ID                 uuid.UUID      // Primary key
	EventID            uuid.UUID      // Foreign key to Event
	GammaMarketID      string         // Gamma market id
	ConditionID        string         // CTF condition id
	Slug               string         // Market slug
	Question           string         // Full market question
	GroupItemTitle     string         // Free-text bucket label (e.g., "-2°C", "5°C or below")
	GroupItemThreshold *int           // Ordering key within the event
	Outcome            bucket.Outcome // Parsed once from GroupItemTitle at ingestion
	YesTokenID         string         // CLOB token for the YES side
	NoTokenID          string         // CLOB token for the NO side
}

// LowerBoundC returns the inclusive lower bound in °C, nil when open below.
func (m Market) LowerBoundC() *int { return m.Outcome.Lower() }

// UpperBoundC returns the inclusive upper bound in °C, nil when open above.
func (m Market) UpperBoundC() *int { return m.Outcome.Upper() }

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// Snapshot is the top-of-book state of one market at one instant.
type Snapshot struct {
	MarketID        uuid.UUID
	EventID         uuid.UUID
	CapturedAt      time.Time
	YesBestBid      *float64 // Probability [0,1]
	YesBestAsk      *float64
	NoBestBid       *float64
	NoBestAsk       *float64
	YesBidSize      *float64
	YesAskSize      *float64
	NoBidSize       *float64
	NoAskSize       *float64
	AcceptingOrders *bool
	Volume24h       *float64
	Source          string // "clob_orderbook"
}

// WeatherObservation is one temperature report for a station.
// Unique per (Station, Source, ObservedAt).
type WeatherObservation struct {
	Station        string // ICAO id (e.g., "RKSI")
	Source         string // "awc"
	ObservedAt     time.Time
	TempC          float64
	DewpointC      *float64
	WindDirDeg     *int
	WindSpeedKt    *int
	WindGustKt     *int
	PressureHPa    *float64
	Visibility     string
	FlightCategory string
	RawText        string
}

// WUObservation is the latest row of a Weather Underground daily history
// page with the page's daily summary. Unique per (Station, ObservedAt).
type WUObservation struct {
	Station    string
	ObservedAt time.Time
	TempC      float64
	DayHighC   *float64
	DayLowC    *float64
	SourceURL  string
}

// DayHighChange records the moment the day's (floored) high increased.
type DayHighChange struct {
	DateKST       kst.Date
	ObservedAt    time.Time
	PreviousHighC *int
	HighC         int
	Source        string
}

// ForecastRun is one fetch of a forecast model.
type ForecastRun struct {
	ID      uuid.UUID
	Model   string // e.g., "kma_seamless"
	Station string
	RunAt   time.Time
	Source  string // "open-meteo"
}

// ForecastPoint is one hourly value of a ForecastRun.
type ForecastPoint struct {
	RunID   uuid.UUID
	ValidAt time.Time
	TempC   float64
}
