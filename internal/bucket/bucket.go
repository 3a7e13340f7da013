// Package bucket parses market outcome labels into temperature buckets and
// matches a temperature against a set of buckets.
//
// Labels are parsed once, when markets are ingested. The parsed Outcome is
// stored as plain bounds and rebuilt with FromBounds at query time, so
// matching never touches text.
package bucket

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the shape of a bucket.
type Kind uint8

const (
	Unparseable Kind = iota
	Exact            // lo == hi
	Range            // lo <= v <= hi
	AtOrBelow        // v <= hi
	AtOrAbove        // v >= lo
)

var kindNames = [...]string{
	Unparseable: "unparseable",
	Exact:       "exact",
	Range:       "range",
	AtOrBelow:   "at_or_below",
	AtOrAbove:   "at_or_above",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String. Unknown names map to Unparseable.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return Unparseable
}

// Outcome is a parsed bucket. Only the bounds relevant to Kind are meaningful.
type Outcome struct {
	Kind Kind
	Lo   int
	Hi   int
}

// ExactOf returns the bucket holding exactly n.
func ExactOf(n int) Outcome { return Outcome{Kind: Exact, Lo: n, Hi: n} }

// RangeOf returns the closed bucket [a, b] regardless of argument order.
func RangeOf(a, b int) Outcome {
	if a > b {
		a, b = b, a
	}
	if a == b {
		return ExactOf(a)
	}
	return Outcome{Kind: Range, Lo: a, Hi: b}
}

// AtOrBelowOf returns the open bucket v <= n.
func AtOrBelowOf(n int) Outcome { return Outcome{Kind: AtOrBelow, Hi: n} }

// AtOrAboveOf returns the open bucket v >= n.
func AtOrAboveOf(n int) Outcome { return Outcome{Kind: AtOrAbove, Lo: n} }

// FromBounds rebuilds an Outcome from stored nullable bounds.
func FromBounds(lower, upper *int) Outcome {
	switch {
	case lower != nil && upper != nil:
		return RangeOf(*lower, *upper)
	case lower != nil:
		return AtOrAboveOf(*lower)
	case upper != nil:
		return AtOrBelowOf(*upper)
	default:
		return Outcome{}
	}
}

// Parsed reports whether the label produced a usable bucket.
func (o Outcome) Parsed() bool { return o.Kind != Unparseable }

// Lower returns the inclusive lower bound, or nil when open below.
func (o Outcome) Lower() *int {
	switch o.Kind {
	case Exact, Range, AtOrAbove:
		lo := o.Lo
		return &lo
	}
	return nil
}

// Upper returns the inclusive upper bound, or nil when open above.
func (o Outcome) Upper() *int {
	switch o.Kind {
	case Exact, Range, AtOrBelow:
		hi := o.Hi
		return &hi
	}
	return nil
}

// Representative is the midpoint of a closed bucket or the single bound of an
// open one. It is NaN for unparseable buckets.
func (o Outcome) Representative() float64 {
	switch o.Kind {
	case Exact, Range:
		return float64(o.Lo+o.Hi) / 2
	case AtOrBelow:
		return float64(o.Hi)
	case AtOrAbove:
		return float64(o.Lo)
	}
	return math.NaN()
}

// Contains reports whether v falls in the bucket.
func (o Outcome) Contains(v float64) bool {
	switch o.Kind {
	case Exact, Range:
		return float64(o.Lo) <= v && v <= float64(o.Hi)
	case AtOrBelow:
		return v <= float64(o.Hi)
	case AtOrAbove:
		return v >= float64(o.Lo)
	}
	return false
}

var (
	betweenPattern = regexp.MustCompile(`between\s+(-?\d+)\s*(?:°\s*[cf])?\s+and\s+(-?\d+)`)
	rangePattern   = regexp.MustCompile(`(-?\d+)\s*(?:°\s*[cf])?\s*(?:-|–|—|\bto\b)\s*(-?\d+)`)
	intPattern     = regexp.MustCompile(`-?\d+`)
)

// ParseLabel parses a free-text bucket label such as "-2°C", "5°C or below",
// "10°C or higher", "0-1°C" or "between -2 and 0". Labels without an integer
// parse to Unparseable.
func ParseLabel(label string) Outcome {
	s := normalize(label)

	if m := betweenPattern.FindStringSubmatch(s); m != nil {
		if a, b, ok := atoi2(m[1], m[2]); ok {
			return RangeOf(a, b)
		}
	}
	if m := rangePattern.FindStringSubmatch(s); m != nil {
		if a, b, ok := atoi2(m[1], m[2]); ok {
			return RangeOf(a, b)
		}
	}

	m := intPattern.FindString(s)
	if m == "" {
		return Outcome{}
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return Outcome{}
	}

	switch {
	case strings.Contains(s, "or below"), strings.Contains(s, "or lower"):
		return AtOrBelowOf(n)
	case strings.Contains(s, "or higher"), strings.Contains(s, "or above"):
		return AtOrAboveOf(n)
	}
	return ExactOf(n)
}

// normalize lowercases the label and folds the unicode minus sign to '-'.
func normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	return strings.ReplaceAll(s, "−", "-")
}

func atoi2(a, b string) (int, int, bool) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
