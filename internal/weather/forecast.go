package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/seoulhigh/internal/kst"
)

// SourceOpenMeteo labels forecast runs read from open-meteo.
const SourceOpenMeteo = "open-meteo"

// ForecastRequest selects the location and models of a forecast.
type ForecastRequest struct {
	Latitude  float64
	Longitude float64
	Models    []string
	Days      int
}

// HourlyPoint is one forecast hour.
type HourlyPoint struct {
	ValidAt time.Time
	TempC   float64
}

// Forecast is the hourly temperature per model.
type Forecast struct {
	Models  []string
	Hourly  map[string][]HourlyPoint
	Fetched time.Time
}

type forecastResponse struct {
	Timezone string                     `json:"timezone"`
	Hourly   map[string]json.RawMessage `json:"hourly"`
}

// Forecast fetches hourly temperatures for every requested model. Hours with
// a null value are skipped.
func (c *Client) Forecast(ctx context.Context, req ForecastRequest) (*Forecast, error) {
	if len(req.Models) == 0 {
		return nil, fmt.Errorf("forecast: no models requested")
	}
	query := url.Values{
		"latitude":      {strconv.FormatFloat(req.Latitude, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(req.Longitude, 'f', -1, 64)},
		"hourly":        {"temperature_2m"},
		"models":        {strings.Join(req.Models, ",")},
		"timezone":      {"Asia/Seoul"},
		"forecast_days": {strconv.Itoa(req.Days)},
	}

	var resp forecastResponse
	if err := c.openMeteo.GetJSON(ctx, "", query, &resp); err != nil {
		return nil, fmt.Errorf("get forecast: %w", err)
	}

	var rawTimes []string
	if err := json.Unmarshal(resp.Hourly["time"], &rawTimes); err != nil {
		return nil, fmt.Errorf("decode forecast times: %w", err)
	}
	times, err := parseHourlyTimes(rawTimes)
	if err != nil {
		return nil, err
	}

	f := &Forecast{Models: req.Models, Hourly: make(map[string][]HourlyPoint, len(req.Models)), Fetched: time.Now().UTC()}
	for _, m := range req.Models {
		key := "temperature_2m_" + m
		if len(req.Models) == 1 {
			if _, ok := resp.Hourly[key]; !ok {
				key = "temperature_2m"
			}
		}
		var temps []*float64
		if raw, ok := resp.Hourly[key]; ok {
			if err := json.Unmarshal(raw, &temps); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
		points := make([]HourlyPoint, 0, len(times))
		for i, t := range times {
			if i >= len(temps) || temps[i] == nil {
				continue
			}
			points = append(points, HourlyPoint{ValidAt: t, TempC: *temps[i]})
		}
		f.Hourly[m] = points
	}
	return f, nil
}

// parseHourlyTimes reads open-meteo local times ("2006-01-02T15:04") as KST.
func parseHourlyTimes(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := time.ParseInLocation("2006-01-02T15:04", s, kst.Location)
		if err != nil {
			return nil, fmt.Errorf("parse forecast time %q: %w", s, err)
		}
		out[i] = t.UTC()
	}
	return out, nil
}
