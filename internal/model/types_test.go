package model

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
)

func TestMarket_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantLower *int
		wantUpper *int
	}{
		{"exact", "-2°C", intPtr(-2), intPtr(-2)},
		{"open below", "5°C or below", nil, intPtr(5)},
		{"open above", "12°C or higher", intPtr(12), nil},
		{"unparseable", "Other", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Market{
				ID:             uuid.New(),
				GroupItemTitle: tt.title,
				Outcome:        bucket.ParseLabel(tt.title),
			}

			if !equalIntPtr(m.LowerBoundC(), tt.wantLower) {
				t.Errorf("LowerBoundC() = %v, want %v", m.LowerBoundC(), tt.wantLower)
			}
			if !equalIntPtr(m.UpperBoundC(), tt.wantUpper) {
				t.Errorf("UpperBoundC() = %v, want %v", m.UpperBoundC(), tt.wantUpper)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
