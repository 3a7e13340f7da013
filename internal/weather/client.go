// Package weather reads METAR observations from aviationweather.gov and
// hourly model forecasts from open-meteo.
package weather

import (
	"sort"

	"github.com/rickgao/seoulhigh/internal/api"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Client wraps the AWC and open-meteo endpoints. Each api.Client is rooted at
// the full endpoint URL, so requests pass an empty path.
type Client struct {
	awc       *api.Client
	openMeteo *api.Client
}

// NewClient returns a weather client.
func NewClient(awc, openMeteo *api.Client) *Client {
	return &Client{awc: awc, openMeteo: openMeteo}
}

func sortObservations(obs []model.WeatherObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].ObservedAt.Before(obs[j].ObservedAt)
	})
}

// Latest returns the most recent observation.
func Latest(obs []model.WeatherObservation) (model.WeatherObservation, bool) {
	var latest model.WeatherObservation
	found := false
	for _, o := range obs {
		if !found || o.ObservedAt.After(latest.ObservedAt) {
			latest, found = o, true
		}
	}
	return latest, found
}
