package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/trend"
)

// MarketView is a market as served to clients.
type MarketView struct {
	ID                 uuid.UUID `json:"id"`
	GammaMarketID      string    `json:"gamma_market_id"`
	Question           string    `json:"question"`
	GroupItemTitle     string    `json:"group_item_title"`
	GroupItemThreshold *int      `json:"group_item_threshold"`
	BucketKind         string    `json:"bucket_kind"`
	LowerBoundC        *int      `json:"lower_bound_celsius"`
	UpperBoundC        *int      `json:"upper_bound_celsius"`
	YesTokenID         string    `json:"yes_token_id"`
	NoTokenID          string    `json:"no_token_id"`
}

func marketView(m model.Market) MarketView {
	return MarketView{
		ID:                 m.ID,
		GammaMarketID:      m.GammaMarketID,
		Question:           m.Question,
		GroupItemTitle:     m.GroupItemTitle,
		GroupItemThreshold: m.GroupItemThreshold,
		BucketKind:         m.Outcome.Kind.String(),
		LowerBoundC:        m.LowerBoundC(),
		UpperBoundC:        m.UpperBoundC(),
		YesTokenID:         m.YesTokenID,
		NoTokenID:          m.NoTokenID,
	}
}

func marketViews(markets []model.Market) []MarketView {
	out := make([]MarketView, len(markets))
	for i, m := range markets {
		out[i] = marketView(m)
	}
	return out
}

// DatesResponse lists the dates with an event, newest first.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// MarketsResponse is an event's markets with the day high and default market.
type MarketsResponse struct {
	DateKST         string       `json:"date_kst"`
	Slug            string       `json:"slug"`
	EventID         uuid.UUID    `json:"event_id"`
	DayHighC        *int         `json:"day_high_c"`
	DayHighSource   string       `json:"day_high_source,omitempty"`
	DefaultMarketID *uuid.UUID   `json:"default_market_id"`
	Markets         []MarketView `json:"markets"`
}

// TrendMeta echoes the resolved trend query.
type TrendMeta struct {
	DateKST         string    `json:"date_kst"`
	Slug            string    `json:"slug"`
	EventID         uuid.UUID `json:"event_id"`
	MarketID        uuid.UUID `json:"market_id"`
	MarketLabel     *string   `json:"market_label"`
	TempSource      *string   `json:"temp_source"`
	Timezone        string    `json:"timezone"`
	IntervalMinutes int       `json:"interval_minutes"`
	StartKST        string    `json:"start_kst"`
	EndKST          string    `json:"end_kst"`
	Mode            string    `json:"mode"`
}

// TrendResponse is one market's resampled series.
type TrendResponse struct {
	Meta     TrendMeta      `json:"meta"`
	Coverage trend.Coverage `json:"coverage"`
	Series   []trend.Point  `json:"series"`
}

// NewHighView is one increase of the day high.
type NewHighView struct {
	ObservedAt    time.Time `json:"observed_at"`
	ObservedKST   string    `json:"observed_kst"`
	PreviousHighC *int      `json:"previous_high_celsius"`
	HighC         int       `json:"high_celsius"`
	Source        string    `json:"source"`
}

func newHighView(c model.DayHighChange) NewHighView {
	return NewHighView{
		ObservedAt:    c.ObservedAt.UTC(),
		ObservedKST:   kst.HHMM(c.ObservedAt),
		PreviousHighC: c.PreviousHighC,
		HighC:         c.HighC,
		Source:        c.Source,
	}
}

// NewHighsResponse lists a day's new-high events, oldest first.
type NewHighsResponse struct {
	DateKST string        `json:"date_kst"`
	Events  []NewHighView `json:"events"`
}

// EventStudyMeta echoes the resolved event-study query.
type EventStudyMeta struct {
	DateKST         string     `json:"date_kst"`
	EventID         *uuid.UUID `json:"event_id,omitempty"`
	Slug            string     `json:"slug,omitempty"`
	HighC           *int       `json:"high_celsius,omitempty"`
	ObservedAt      *time.Time `json:"observed_at,omitempty"`
	ObservedKST     string     `json:"observed_kst,omitempty"`
	PreMinutes      int        `json:"pre_minutes,omitempty"`
	PostMinutes     int        `json:"post_minutes,omitempty"`
	IntervalMinutes int        `json:"interval_minutes,omitempty"`
	Mode            string     `json:"mode,omitempty"`
}

// StudyPoint is a resampled point with its offset from the new-high moment.
type StudyPoint struct {
	OffsetMinutes int `json:"offset_minutes"`
	trend.Point
}

// StudySeries is one market's points around the event.
type StudySeries struct {
	MarketID    uuid.UUID    `json:"market_id"`
	MarketLabel *string      `json:"market_label"`
	Points      []StudyPoint `json:"points"`
}

// EventStudyResponse is price action around one new-high event. Event is nil
// when the day has no new highs.
type EventStudyResponse struct {
	Meta   EventStudyMeta `json:"meta"`
	Event  *NewHighView   `json:"event"`
	Series []StudySeries  `json:"series"`
}

// QuoteView is the latest top of book of a market.
type QuoteView struct {
	CapturedAt      time.Time `json:"captured_at"`
	YesBestBid      *float64  `json:"yes_best_bid"`
	YesBestAsk      *float64  `json:"yes_best_ask"`
	NoBestBid       *float64  `json:"no_best_bid"`
	NoBestAsk       *float64  `json:"no_best_ask"`
	YesBidSize      *float64  `json:"yes_bid_size"`
	YesAskSize      *float64  `json:"yes_ask_size"`
	NoBidSize       *float64  `json:"no_bid_size"`
	NoAskSize       *float64  `json:"no_ask_size"`
	AcceptingOrders *bool     `json:"accepting_orders"`
	Volume24h       *float64  `json:"volume_24h"`
}

func quoteView(s *model.Snapshot) *QuoteView {
	if s == nil {
		return nil
	}
	return &QuoteView{
		CapturedAt:      s.CapturedAt.UTC(),
		YesBestBid:      s.YesBestBid,
		YesBestAsk:      s.YesBestAsk,
		NoBestBid:       s.NoBestBid,
		NoBestAsk:       s.NoBestAsk,
		YesBidSize:      s.YesBidSize,
		YesAskSize:      s.YesAskSize,
		NoBidSize:       s.NoBidSize,
		NoAskSize:       s.NoAskSize,
		AcceptingOrders: s.AcceptingOrders,
		Volume24h:       s.Volume24h,
	}
}

// OutcomeView is a market with its latest quote.
type OutcomeView struct {
	MarketView
	Quote *QuoteView `json:"quote"`
}

// ObservationView is a METAR report.
type ObservationView struct {
	Station        string    `json:"station"`
	ObservedAt     time.Time `json:"observed_at"`
	ObservedKST    string    `json:"observed_kst"`
	TempC          float64   `json:"temp_c"`
	DewpointC      *float64  `json:"dewpoint_c"`
	WindDirDeg     *int      `json:"wind_dir_deg"`
	WindSpeedKt    *int      `json:"wind_speed_kt"`
	WindGustKt     *int      `json:"wind_gust_kt"`
	PressureHPa    *float64  `json:"pressure_hpa"`
	Visibility     string    `json:"visibility"`
	FlightCategory string    `json:"flight_category"`
	RawText        string    `json:"raw_text"`
}

func observationView(o *model.WeatherObservation) *ObservationView {
	if o == nil {
		return nil
	}
	return &ObservationView{
		Station:        o.Station,
		ObservedAt:     o.ObservedAt.UTC(),
		ObservedKST:    kst.HHMM(o.ObservedAt),
		TempC:          o.TempC,
		DewpointC:      o.DewpointC,
		WindDirDeg:     o.WindDirDeg,
		WindSpeedKt:    o.WindSpeedKt,
		WindGustKt:     o.WindGustKt,
		PressureHPa:    o.PressureHPa,
		Visibility:     o.Visibility,
		FlightCategory: o.FlightCategory,
		RawText:        o.RawText,
	}
}

// ForecastHour is one forecast value.
type ForecastHour struct {
	ValidAt  time.Time `json:"valid_at"`
	ValidKST string    `json:"valid_kst"`
	TempC    float64   `json:"temp_c"`
}

// ForecastView is the latest run of one model.
type ForecastView struct {
	Model    string         `json:"model"`
	RunAt    time.Time      `json:"run_at"`
	DayHighC *float64       `json:"day_high_c"`
	Hourly   []ForecastHour `json:"hourly"`
}

// HealthView is the last outcome of an ingestion job.
type HealthView struct {
	LastSuccessAt *time.Time `json:"last_success_at"`
	LastError     *string    `json:"last_error"`
	LastErrorAt   *time.Time `json:"last_error_at"`
}

// DashboardMeta describes the dashboard payload.
type DashboardMeta struct {
	LastRefresh time.Time             `json:"last_refresh"`
	UpdatedAt   *time.Time            `json:"updated_at"`
	DateKST     string                `json:"date_kst"`
	Slug        string                `json:"slug"`
	EventFound  bool                  `json:"event_found"`
	Health      map[string]HealthView `json:"health"`
}

// DashboardWeather is today's weather state.
type DashboardWeather struct {
	Latest        *ObservationView  `json:"latest"`
	DayHighC      *int              `json:"day_high_c"`
	DayHighSource *string           `json:"day_high_source"`
	Wunderground  *WundergroundView `json:"wunderground"`
}

// WundergroundView is today's Weather Underground history page.
type WundergroundView struct {
	URL          string     `json:"url"`
	DayHighC     *float64   `json:"day_high_c"`
	DayLowC      *float64   `json:"day_low_c"`
	ObservedMaxC *int       `json:"observed_max_c"`
	LatestAt     *time.Time `json:"latest_at"`
	LatestKST    *string    `json:"latest_kst"`
	LatestTempC  *float64   `json:"latest_temp_c"`
}

func wundergroundView(w *state.Wunderground) *WundergroundView {
	v := &WundergroundView{
		URL:          w.URL,
		DayHighC:     w.DayHighC,
		DayLowC:      w.DayLowC,
		ObservedMaxC: w.ObservedMaxC,
	}
	if o := w.Latest; o != nil {
		at, hhmm, temp := o.ObservedAt.UTC(), kst.HHMM(o.ObservedAt), o.TempC
		v.LatestAt, v.LatestKST, v.LatestTempC = &at, &hhmm, &temp
	}
	return v
}

// DashboardMarket is today's event state.
type DashboardMarket struct {
	EventID         *uuid.UUID    `json:"event_id"`
	DefaultMarketID *uuid.UUID    `json:"default_market_id"`
	Outcomes        []OutcomeView `json:"outcomes"`
}

// DashboardResponse is the live view built from the latest ingested state.
type DashboardResponse struct {
	Meta     DashboardMeta    `json:"meta"`
	Weather  DashboardWeather `json:"weather"`
	Market   DashboardMarket  `json:"market"`
	Forecast []ForecastView   `json:"forecast"`
}
