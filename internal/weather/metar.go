package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/seoulhigh/internal/model"
)

// SourceAWC labels observations read from aviationweather.gov.
const SourceAWC = "awc"

// METAR is one report from the AWC data API.
type METAR struct {
	ICAOID      string          `json:"icaoId"`
	ReportTime  string          `json:"reportTime"`
	ReceiptTime string          `json:"receiptTime"`
	ObsTime     int64           `json:"obsTime"`
	Temp        *float64        `json:"temp"`
	Dewpoint    *float64        `json:"dewp"`
	WindDir     json.RawMessage `json:"wdir"` // degrees or "VRB"
	WindSpeed   *int            `json:"wspd"`
	WindGust    *int            `json:"wgst"`
	Altimeter   *float64        `json:"altim"` // hPa
	Visibility  json.RawMessage `json:"visib"` // number or string such as "6+"
	FlightCat   string          `json:"fltCat"`
	RawOb       string          `json:"rawOb"`
}

// ObservedAt is the report time, falling back to the receipt time and then
// the unix observation time.
func (m *METAR) ObservedAt() (time.Time, bool) {
	for _, s := range []string{m.ReportTime, m.ReceiptTime} {
		if t, err := parseTime(s); err == nil {
			return t, true
		}
	}
	if m.ObsTime > 0 {
		return time.Unix(m.ObsTime, 0).UTC(), true
	}
	return time.Time{}, false
}

// ToModel converts a report to an observation. ok is false when the report has
// no temperature or no usable time.
func (m *METAR) ToModel(station string) (model.WeatherObservation, bool) {
	at, ok := m.ObservedAt()
	if !ok || m.Temp == nil {
		return model.WeatherObservation{}, false
	}
	if m.ICAOID != "" {
		station = m.ICAOID
	}
	return model.WeatherObservation{
		Station:        station,
		Source:         SourceAWC,
		ObservedAt:     at,
		TempC:          *m.Temp,
		DewpointC:      m.Dewpoint,
		WindDirDeg:     rawInt(m.WindDir),
		WindSpeedKt:    m.WindSpeed,
		WindGustKt:     m.WindGust,
		PressureHPa:    m.Altimeter,
		Visibility:     rawString(m.Visibility),
		FlightCategory: m.FlightCat,
		RawText:        m.RawOb,
	}, true
}

// METARs fetches the last hours of reports for station from the AWC API and
// returns them as observations sorted oldest first. Reports without a
// temperature are dropped.
func (c *Client) METARs(ctx context.Context, station string, hours int) ([]model.WeatherObservation, error) {
	query := url.Values{
		"ids":    {station},
		"format": {"json"},
		"hours":  {strconv.Itoa(hours)},
	}

	var reports []METAR
	if err := c.awc.GetJSON(ctx, "", query, &reports); err != nil {
		return nil, fmt.Errorf("get metar %s: %w", station, err)
	}

	obs := make([]model.WeatherObservation, 0, len(reports))
	for i := range reports {
		if o, ok := reports[i].ToModel(station); ok {
			obs = append(obs, o)
		}
	}
	sortObservations(obs)
	return obs, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func rawInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
