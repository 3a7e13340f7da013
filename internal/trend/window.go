package trend

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/seoulhigh/internal/kst"
)

var (
	// ErrInvalidWindow is returned when a window does not end after it starts.
	ErrInvalidWindow = errors.New("window end must be after start")

	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrInvalidMode is returned for fill modes other than closest and carry.
	ErrInvalidMode = errors.New("mode must be closest or carry")
)

// Mode is the fill policy used to pick a snapshot for an anchor.
type Mode string

const (
	// Closest picks the snapshot nearest to the anchor within Tolerance.
	Closest Mode = "closest"

	// Carry picks the latest snapshot at or before the anchor.
	Carry Mode = "carry"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Closest, Carry:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Tolerance is the furthest a snapshot may sit from an anchor and still fill
// it in Closest mode. It is inclusive.
func Tolerance(interval time.Duration) time.Duration {
	return interval / 2
}

// Window is the half-open range [Start, End) of a trend query.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window between two wall-clock times of a KST day.
// An end of 24:00 is the following midnight.
func NewWindow(day kst.Date, start, end kst.Clock) (Window, error) {
	w := Window{Start: start.On(day), End: end.On(day)}
	if err := w.validate(); err != nil {
		return Window{}, fmt.Errorf("%w: %s-%s", err, start, end)
	}
	return w, nil
}

// DayWindow is the full [00:00, 24:00) window of a KST day.
func DayWindow(day kst.Date) Window {
	start, end := day.Bounds()
	return Window{Start: start, End: end}
}

func (w Window) validate() error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// AnchorCount is ceil((End-Start)/interval).
func (w Window) AnchorCount(interval time.Duration) int {
	span := w.End.Sub(w.Start)
	if span <= 0 || interval <= 0 {
		return 0
	}
	return int((span + interval - 1) / interval)
}

// Anchors returns Start, Start+interval, ... strictly before End.
func (w Window) Anchors(interval time.Duration) []time.Time {
	n := w.AnchorCount(interval)
	anchors := make([]time.Time, n)
	for i := range anchors {
		anchors[i] = w.Start.Add(time.Duration(i) * interval)
	}
	return anchors
}

// CarryLookback is the least Carry reaches back before Start, so a short
// interval still carries across a poller gap at the window edge.
const CarryLookback = 15 * time.Minute

// FetchRange is the [from, to) range of snapshots a caller must load so every
// anchor of the window can be filled. Closest needs Tolerance on both sides;
// Carry looks back max(interval, CarryLookback) before Start and never past End.
func (w Window) FetchRange(interval time.Duration, mode Mode) (from, to time.Time) {
	if mode == Carry {
		return w.Start.Add(-max(interval, CarryLookback)), w.End
	}
	tol := Tolerance(interval)
	return w.Start.Add(-tol), w.End.Add(tol)
}

// AnchorsAround returns anchors from center-before to center+after inclusive,
// stepping by interval, together with each anchor's offset from center.
func AnchorsAround(center time.Time, before, after, interval time.Duration) ([]time.Time, []time.Duration) {
	if interval <= 0 || before < 0 || after < 0 {
		return nil, nil
	}
	var anchors []time.Time
	var offsets []time.Duration
	for off := -before; off <= after; off += interval {
		anchors = append(anchors, center.Add(off))
		offsets = append(offsets, off)
	}
	return anchors, offsets
}
