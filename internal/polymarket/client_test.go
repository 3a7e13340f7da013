package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/api"
	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
)

const eventJSON = `{
  "id": "90210",
  "slug": "highest-temperature-in-seoul-on-march-3",
  "title": "Highest temperature in Seoul on March 3?",
  "active": true,
  "markets": [
    {
      "id": "m1",
      "question": "Will the highest temperature in Seoul be 3°C on March 3?",
      "conditionId": "0xabc",
      "groupItemTitle": "3°C",
      "groupItemThreshold": "4",
      "acceptingOrders": true,
      "volume24hr": 1520.5,
      "clobTokenIds": "[\"111\", \"222\"]",
      "outcomes": "[\"Yes\", \"No\"]"
    },
    {
      "id": "m2",
      "groupItemTitle": "5°C or higher",
      "groupItemThreshold": 6,
      "clobTokenIds": "[\"333\", \"444\"]",
      "outcomes": "[\"No\", \"Yes\"]"
    }
  ]
}`

func newTestClient(url string) *Client {
	c := api.NewClient(url, api.WithRetries(0, time.Millisecond))
	return NewClient(c, c)
}

func TestEventBySlug(t *testing.T) {
	t.Run("slug path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events/slug/highest-temperature-in-seoul-on-march-3" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Write([]byte(eventJSON))
		}))
		defer server.Close()

		ev, err := newTestClient(server.URL).EventBySlug(context.Background(), "highest-temperature-in-seoul-on-march-3")
		if err != nil {
			t.Fatalf("EventBySlug failed: %v", err)
		}
		if ev.ID != "90210" || len(ev.Markets) != 2 {
			t.Errorf("event = %+v", ev)
		}
		if ev.Markets[0].GroupItemThreshold.V == nil || *ev.Markets[0].GroupItemThreshold.V != 4 {
			t.Errorf("quoted threshold not decoded: %+v", ev.Markets[0].GroupItemThreshold)
		}
		if ev.Markets[1].GroupItemThreshold.V == nil || *ev.Markets[1].GroupItemThreshold.V != 6 {
			t.Errorf("numeric threshold not decoded: %+v", ev.Markets[1].GroupItemThreshold)
		}
	})

	t.Run("falls back to query on 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events" {
				http.NotFound(w, r)
				return
			}
			if r.URL.Query().Get("slug") != "s" {
				t.Errorf("slug = %q, want s", r.URL.Query().Get("slug"))
			}
			w.Write([]byte(`[` + eventJSON + `]`))
		}))
		defer server.Close()

		ev, err := newTestClient(server.URL).EventBySlug(context.Background(), "s")
		if err != nil {
			t.Fatalf("EventBySlug failed: %v", err)
		}
		if ev.ID != "90210" {
			t.Errorf("ID = %q, want 90210", ev.ID)
		}
	})

	t.Run("wrapped list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(`{"events": [` + eventJSON + `]}`))
		}))
		defer server.Close()

		if _, err := newTestClient(server.URL).EventBySlug(context.Background(), "s"); err != nil {
			t.Fatalf("EventBySlug failed: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).EventBySlug(context.Background(), "s")
		if !errors.Is(err, ErrEventNotFound) {
			t.Errorf("error = %v, want ErrEventNotFound", err)
		}
	})

	t.Run("server error is not a miss", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).EventBySlug(context.Background(), "s")
		if err == nil || errors.Is(err, ErrEventNotFound) {
			t.Errorf("error = %v, want upstream failure", err)
		}
	})
}

func TestBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book" || r.URL.Query().Get("token_id") != "111" {
			t.Errorf("request = %s", r.URL)
		}
		w.Write([]byte(`{"asset_id":"111","bids":[{"price":"0.31","size":"100"}],"asks":[{"price":"0.35","size":"40"}]}`))
	}))
	defer server.Close()

	b, err := newTestClient(server.URL).Book(context.Background(), "111")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if b.AssetID != "111" || len(b.Bids) != 1 || len(b.Asks) != 1 {
		t.Errorf("book = %+v", b)
	}
}

func TestTopOfBook(t *testing.T) {
	b := &Book{
		Bids: []Level{{"0.30", "10"}, {"0.33", "25"}, {"bad", "1"}, {"0.31", "5"}},
		Asks: []Level{{"0.40", "7"}, {"0.36", "12"}, {"0.99", "1000"}},
	}
	top := TopOfBook(b)

	check := func(name string, got *float64, want float64) {
		t.Helper()
		if got == nil || *got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	check("BestBid", Float(top.BestBid), 0.33)
	check("BidSize", Float(top.BidSize), 25)
	check("BestAsk", Float(top.BestAsk), 0.36)
	check("AskSize", Float(top.AskSize), 12)

	empty := TopOfBook(&Book{})
	if empty.BestBid != nil || empty.BestAsk != nil {
		t.Errorf("empty book top = %+v", empty)
	}
	if top := TopOfBook(nil); top.BestBid != nil {
		t.Errorf("nil book top = %+v", top)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name    string
		m       Market
		yes, no string
	}{
		{"yes first", Market{ClobTokenIds: `["1","2"]`, Outcomes: `["Yes","No"]`}, "1", "2"},
		{"no first", Market{ClobTokenIds: `["1","2"]`, Outcomes: `["No","Yes"]`}, "2", "1"},
		{"no outcomes", Market{ClobTokenIds: `["1","2"]`}, "1", "2"},
		{"single token", Market{ClobTokenIds: `["1"]`}, "1", ""},
		{"no tokens", Market{}, "", ""},
		{"bad json", Market{ClobTokenIds: `[1,`}, "", ""},
	}
	for _, tt := range tests {
		yes, no := Tokens(&tt.m)
		if yes != tt.yes || no != tt.no {
			t.Errorf("%s: Tokens = %q, %q; want %q, %q", tt.name, yes, no, tt.yes, tt.no)
		}
	}
}

func TestSlug(t *testing.T) {
	got := Slug("highest-temperature-in-seoul-on", kst.Date{Year: 2025, Month: time.January, Day: 5})
	if got != "highest-temperature-in-seoul-on-january-5" {
		t.Errorf("Slug = %q", got)
	}
}

func TestToModelAndSnapshot(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(eventJSON), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	eventID := uuid.New()

	m := ev.Markets[1].ToModel(eventID)
	if m.Outcome != bucket.AtOrAboveOf(5) {
		t.Errorf("Outcome = %+v, want at or above 5", m.Outcome)
	}
	if m.YesTokenID != "444" || m.NoTokenID != "333" {
		t.Errorf("tokens = %q/%q, want 444/333", m.YesTokenID, m.NoTokenID)
	}
	if m.EventID != eventID || m.GammaMarketID != "m2" {
		t.Errorf("market = %+v", m)
	}

	m.ID = uuid.New()
	now := time.Date(2025, 3, 3, 5, 0, 0, 0, time.UTC)
	yes := TopOfBook(&Book{Bids: []Level{{"0.2", "1"}}, Asks: []Level{{"0.25", "2"}}})
	snap := Snapshot(m, &ev.Markets[0], yes, Top{}, now)

	if snap.MarketID != m.ID || !snap.CapturedAt.Equal(now) || snap.Source != SnapshotSource {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.YesBestAsk == nil || *snap.YesBestAsk != 0.25 || snap.NoBestAsk != nil {
		t.Errorf("prices = %v / %v", snap.YesBestAsk, snap.NoBestAsk)
	}
	if snap.AcceptingOrders == nil || !*snap.AcceptingOrders {
		t.Errorf("AcceptingOrders = %v, want true", snap.AcceptingOrders)
	}
	if snap.Volume24h == nil || *snap.Volume24h != 1520.5 {
		t.Errorf("Volume24h = %v, want 1520.5", snap.Volume24h)
	}
}
