package service

import (
	"time"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/polymarket"
	"github.com/rickgao/seoulhigh/internal/state"
)

// Dashboard renders the latest ingested state for today's KST date. Event and
// outcomes from an earlier day are not shown.
func (s *Service) Dashboard() DashboardResponse {
	return s.DashboardOf(s.state.Load())
}

// DashboardOf renders a given snapshot, as pushed to websocket clients.
func (s *Service) DashboardOf(snap *state.Snapshot) DashboardResponse {
	return DashboardFrom(snap, kst.DateOf(s.now()), s.cfg.SlugPrefix, s.now)
}

// State returns the cache the dashboard is rendered from.
func (s *Service) State() *state.Cache {
	return s.state
}

// DashboardFrom renders snap for today.
func DashboardFrom(snap *state.Snapshot, today kst.Date, slugPrefix string, now func() time.Time) DashboardResponse {
	resp := DashboardResponse{
		Meta: DashboardMeta{
			LastRefresh: now().UTC(),
			DateKST:     today.String(),
			Slug:        polymarket.Slug(slugPrefix, today),
			Health:      make(map[string]HealthView, len(snap.Health)),
		},
		Market:   DashboardMarket{Outcomes: []OutcomeView{}},
		Forecast: make([]ForecastView, 0, len(snap.Forecast)),
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt.UTC()
		resp.Meta.UpdatedAt = &updated
	}
	for job, h := range snap.Health {
		v := HealthView{LastSuccessAt: h.LastSuccessAt, LastErrorAt: h.LastErrorAt}
		if h.LastError != "" {
			msg := h.LastError
			v.LastError = &msg
		}
		resp.Meta.Health[job] = v
	}

	if snap.Day == today && snap.Event != nil {
		id := snap.Event.ID
		resp.Meta.EventFound = true
		resp.Market.EventID = &id
		resp.Market.DefaultMarketID = snap.DefaultMarketID
		for _, o := range snap.Outcomes {
			resp.Market.Outcomes = append(resp.Market.Outcomes, OutcomeView{
				MarketView: marketView(o.Market),
				Quote:      quoteView(o.Quote),
			})
		}
	}

	if snap.LatestMETAR != nil {
		resp.Weather.Latest = observationView(snap.LatestMETAR)
	}
	if high, source := snap.DayHigh(today); high != nil {
		resp.Weather.DayHighC = high
		resp.Weather.DayHighSource = &source
	}
	if w := snap.Wunderground; w != nil && w.Day == today {
		resp.Weather.Wunderground = wundergroundView(w)
	}

	for _, f := range snap.Forecast {
		v := ForecastView{Model: f.Model, RunAt: f.RunAt.UTC(), Hourly: make([]ForecastHour, len(f.Points))}
		for i, p := range f.Points {
			v.Hourly[i] = ForecastHour{ValidAt: p.ValidAt.UTC(), ValidKST: kst.HHMM(p.ValidAt), TempC: p.TempC}
			if today.Contains(p.ValidAt) && (v.DayHighC == nil || p.TempC > *v.DayHighC) {
				t := p.TempC
				v.DayHighC = &t
			}
		}
		resp.Forecast = append(resp.Forecast, v)
	}
	return resp
}
