package polymarket

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/model"
)

// SnapshotSource labels snapshots built from CLOB books.
const SnapshotSource = "clob_orderbook"

// ToModel converts a gamma market to model.Market, parsing the bucket label
// once. The returned market has no ID; the store assigns or reuses one.
func (m *Market) ToModel(eventID uuid.UUID) model.Market {
	yes, no := Tokens(m)
	return model.Market{
		EventID:            eventID,
		GammaMarketID:      m.ID,
		ConditionID:        m.ConditionID,
		Slug:               m.Slug,
		Question:           m.Question,
		GroupItemTitle:     m.Title(),
		GroupItemThreshold: m.GroupItemThreshold.V,
		Outcome:            bucket.ParseLabel(m.Title()),
		YesTokenID:         yes,
		NoTokenID:          no,
	}
}

// Snapshot builds the stored snapshot of one market from its two books.
func Snapshot(market model.Market, gm *Market, yes, no Top, capturedAt time.Time) model.Snapshot {
	return model.Snapshot{
		MarketID:        market.ID,
		EventID:         market.EventID,
		CapturedAt:      capturedAt,
		YesBestBid:      Float(yes.BestBid),
		YesBestAsk:      Float(yes.BestAsk),
		NoBestBid:       Float(no.BestBid),
		NoBestAsk:       Float(no.BestAsk),
		YesBidSize:      Float(yes.BidSize),
		YesAskSize:      Float(yes.AskSize),
		NoBidSize:       Float(no.BidSize),
		NoAskSize:       Float(no.AskSize),
		AcceptingOrders: gm.AcceptingOrders,
		Volume24h:       gm.Volume(),
		Source:          SnapshotSource,
	}
}
