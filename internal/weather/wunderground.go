package weather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rickgao/seoulhigh/internal/api"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Day-high change sources written from Weather Underground pages.
const (
	SourceWunderground         = "wunderground"
	SourceWundergroundObserved = "wunderground_observed"
)

// ErrNoHistory is returned when a history page carries neither a daily
// summary nor an observation row.
var ErrNoHistory = errors.New("no temperatures on history page")

var (
	wuSummaryHigh = regexp.MustCompile(`(?i)Temperature\s+High\s+(-?\d+(?:\.\d+)?)\s*°?\s*([FC])`)
	wuSummaryLow  = regexp.MustCompile(`(?i)Temperature\s+Low\s+(-?\d+(?:\.\d+)?)\s*°?\s*([FC])`)
	wuDailyHigh   = regexp.MustCompile(`(?i)Daily Summary\s+High\s+(-?\d+(?:\.\d+)?)\s*°?\s*([FC])`)
	wuDailyLow    = regexp.MustCompile(`(?i)Daily Summary\s+Low\s+(-?\d+(?:\.\d+)?)\s*°?\s*([FC])`)
	wuObsRow      = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)?\s+(-?\d+(?:\.\d+)?)\s*°?\s*([FC])`)
)

// WUReading is one row of the observation table.
type WUReading struct {
	ObservedAt time.Time
	TempC      float64
}

// WUHistory is what a daily history page yields.
type WUHistory struct {
	Date     kst.Date
	URL      string
	DayHighC *float64
	DayLowC  *float64
	Latest   *WUReading
}

// Observation returns the latest row as a stored observation.
func (h *WUHistory) Observation(station string) (model.WUObservation, bool) {
	if h.Latest == nil {
		return model.WUObservation{}, false
	}
	return model.WUObservation{
		Station:    station,
		ObservedAt: h.Latest.ObservedAt,
		TempC:      h.Latest.TempC,
		DayHighC:   h.DayHighC,
		DayLowC:    h.DayLowC,
		SourceURL:  h.URL,
	}, true
}

// Wunderground reads daily history pages. The api.Client is rooted at the
// site, e.g. https://www.wunderground.com.
type Wunderground struct {
	site     *api.Client
	location string
}

// NewWunderground returns a history reader for a location path such as
// "kr/incheon".
func NewWunderground(site *api.Client, location string) *Wunderground {
	return &Wunderground{site: site, location: strings.Trim(location, "/")}
}

// HistoryPath is the page path for station on day. Month and day are not
// zero padded.
func HistoryPath(location, station string, day kst.Date) string {
	return fmt.Sprintf("/history/daily/%s/%s/date/%d-%d-%d",
		strings.Trim(location, "/"), station, day.Year, int(day.Month), day.Day)
}

// History fetches and parses the page for station on day.
func (w *Wunderground) History(ctx context.Context, station string, day kst.Date) (*WUHistory, error) {
	path := HistoryPath(w.location, station, day)
	page, err := w.site.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch wunderground history: %w", err)
	}
	h, err := ParseHistory(page, day)
	if err != nil {
		return nil, err
	}
	h.URL = w.site.BaseURL() + path
	return h, nil
}

// ParseHistory extracts the daily summary and the latest observation row from
// a history page. Row times are read as KST on day. Fahrenheit values are
// converted to Celsius.
func ParseHistory(page []byte, day kst.Date) (*WUHistory, error) {
	text := pageText(page)
	h := &WUHistory{Date: day}

	h.DayHighC = matchTemp(wuSummaryHigh, text)
	h.DayLowC = matchTemp(wuSummaryLow, text)
	if h.DayHighC == nil {
		h.DayHighC = matchTemp(wuDailyHigh, text)
	}
	if h.DayLowC == nil {
		h.DayLowC = matchTemp(wuDailyLow, text)
	}

	if i := strings.Index(strings.ToLower(text), "observations"); i >= 0 {
		h.Latest = latestRow(text[i:], day)
	}

	if h.DayHighC == nil && h.Latest == nil {
		return nil, ErrNoHistory
	}
	return h, nil
}

// pageText flattens the page to its visible text with whitespace collapsed.
func pageText(page []byte) string {
	var b strings.Builder
	z := html.NewTokenizer(bytes.NewReader(page))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if a := tagAtom(z); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			if a := tagAtom(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

func matchTemp(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	c := toCelsius(v, m[2])
	return &c
}

// latestRow returns the row with the latest time of day.
func latestRow(text string, day kst.Date) *WUReading {
	var (
		latest *WUReading
		best   = -1
	)
	for _, m := range wuObsRow.FindAllStringSubmatch(text, -1) {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		switch strings.ToUpper(m[3]) {
		case "AM":
			if hour == 12 {
				hour = 0
			}
		case "PM":
			if hour != 12 {
				hour += 12
			}
		}
		if hour > 23 || minute > 59 {
			continue
		}
		v, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			continue
		}
		mins := hour*60 + minute
		if mins <= best {
			continue
		}
		best = mins
		latest = &WUReading{
			ObservedAt: kst.Clock(time.Duration(mins) * time.Minute).On(day),
			TempC:      toCelsius(v, m[5]),
		}
	}
	return latest
}

func toCelsius(v float64, unit string) float64 {
	if strings.EqualFold(unit, "F") {
		v = (v - 32) * 5 / 9
	}
	return math.Round(v*100) / 100
}
