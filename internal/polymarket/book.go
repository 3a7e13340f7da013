package polymarket

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Top is the best bid and ask of a book. Nil fields mean the side is empty.
type Top struct {
	BestBid *decimal.Decimal
	BestAsk *decimal.Decimal
	BidSize *decimal.Decimal
	AskSize *decimal.Decimal
}

// TopOfBook returns the highest bid and lowest ask of b. Levels whose price
// does not parse are skipped. A nil book yields an empty Top.
func TopOfBook(b *Book) Top {
	var t Top
	if b == nil {
		return t
	}
	t.BestBid, t.BidSize = best(b.Bids, func(p, cur decimal.Decimal) bool { return p.GreaterThan(cur) })
	t.BestAsk, t.AskSize = best(b.Asks, func(p, cur decimal.Decimal) bool { return p.LessThan(cur) })
	return t
}

func best(levels []Level, better func(p, cur decimal.Decimal) bool) (*decimal.Decimal, *decimal.Decimal) {
	var price, size *decimal.Decimal
	for _, l := range levels {
		p, err := decimal.NewFromString(strings.TrimSpace(l.Price))
		if err != nil {
			continue
		}
		if price != nil && !better(p, *price) {
			continue
		}
		price = &p
		size = nil
		if s, err := decimal.NewFromString(strings.TrimSpace(l.Size)); err == nil {
			size = &s
		}
	}
	return price, size
}

// Float converts an optional decimal to an optional float64.
func Float(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// Tokens picks the YES and NO token ids of a market by matching the outcome
// names. When the names are missing, the first token is YES and the second
// is NO.
func Tokens(m *Market) (yes, no string) {
	ids, err := m.ParseTokenIDs()
	if err != nil || len(ids) == 0 {
		return "", ""
	}
	outcomes, _ := m.ParseOutcomes()
	for i, o := range outcomes {
		if i >= len(ids) {
			break
		}
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "yes":
			yes = ids[i]
		case "no":
			no = ids[i]
		}
	}
	if yes == "" {
		yes = ids[0]
	}
	if no == "" && len(ids) > 1 {
		no = ids[1]
	}
	return yes, no
}
