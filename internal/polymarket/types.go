package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Event is a gamma event with its markets.
type Event struct {
	ID      string   `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Active  bool     `json:"active"`
	Closed  bool     `json:"closed"`
	Markets []Market `json:"markets,omitempty"`
}

// Market is one gamma market (an outcome bucket of an event).
type Market struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question"`
	ConditionID        string   `json:"conditionId"`
	Slug               string   `json:"slug"`
	GroupItemTitle     string   `json:"groupItemTitle"`
	GroupItemThreshold FlexInt  `json:"groupItemThreshold"`
	Active             bool     `json:"active"`
	Closed             bool     `json:"closed"`
	AcceptingOrders    *bool    `json:"acceptingOrders"`
	Volume24hr         *float64 `json:"volume24hr"`
	Volume24hrClob     *float64 `json:"volume24hrClob"`

	// These fields are JSON strings that need secondary parsing
	ClobTokenIds  string `json:"clobTokenIds"`  // JSON array as string
	Outcomes      string `json:"outcomes"`      // JSON array as string
	OutcomePrices string `json:"outcomePrices"` // JSON array as string
}

// ParseTokenIDs parses the ClobTokenIds JSON string into a slice of token IDs.
func (m *Market) ParseTokenIDs() ([]string, error) {
	return parseStringArray(m.ClobTokenIds)
}

// ParseOutcomes parses the Outcomes JSON string into a slice of outcome names.
func (m *Market) ParseOutcomes() ([]string, error) {
	return parseStringArray(m.Outcomes)
}

// Volume returns the 24h volume, preferring the gamma figure over the CLOB one.
func (m *Market) Volume() *float64 {
	if m.Volume24hr != nil && *m.Volume24hr != 0 {
		return m.Volume24hr
	}
	if m.Volume24hrClob != nil {
		return m.Volume24hrClob
	}
	return m.Volume24hr
}

// Title is the bucket label, falling back to the question.
func (m *Market) Title() string {
	if m.GroupItemTitle != "" {
		return m.GroupItemTitle
	}
	return m.Question
}

func parseStringArray(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FlexInt decodes an integer that gamma sends either as a number or as a
// quoted string. Null, empty and non-integer values decode to nil.
type FlexInt struct {
	V *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	f.V = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if n, err := strconv.Atoi(s); err == nil {
		f.V = &n
		return nil
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil && x == float64(int(x)) {
		n := int(x)
		f.V = &n
	}
	return nil
}

// Book is a CLOB order book for one token.
type Book struct {
	Market    string  `json:"market"`
	AssetID   string  `json:"asset_id"`
	Timestamp string  `json:"timestamp"`
	Hash      string  `json:"hash"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
	TickSize  string  `json:"tick_size"`
}

// Level is one price level. Price and size are decimal strings.
type Level struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// eventList is the /events?slug= response, which is either a bare array or an
// object wrapping one.
type eventList []Event

func (l *eventList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var events []Event
		if err := json.Unmarshal(data, &events); err != nil {
			return err
		}
		*l = events
		return nil
	}
	var wrapped struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Events
	return nil
}
