package bucket

// Match selects the bucket that best represents v and returns its index in
// outcomes, or -1 when nothing matches.
//
// Priority:
//  1. an Exact bucket equal to v (first encountered);
//  2. the narrowest Range containing v (first encountered on equal width);
//  3. the first open-ended bucket whose condition holds.
//
// Unparseable buckets never match.
func Match(v float64, outcomes []Outcome) int {
	narrowest, narrowestWidth := -1, 0
	open := -1

	for i, o := range outcomes {
		switch o.Kind {
		case Exact:
			if float64(o.Lo) == v {
				return i
			}
		case Range:
			if !o.Contains(v) {
				continue
			}
			if w := o.Hi - o.Lo; narrowest < 0 || w < narrowestWidth {
				narrowest, narrowestWidth = i, w
			}
		case AtOrBelow, AtOrAbove:
			if open < 0 && o.Contains(v) {
				open = i
			}
		}
	}

	if narrowest >= 0 {
		return narrowest
	}
	return open
}

// MatchOutcome is Match returning the matched Outcome itself.
func MatchOutcome(v float64, outcomes []Outcome) (Outcome, bool) {
	i := Match(v, outcomes)
	if i < 0 {
		return Outcome{}, false
	}
	return outcomes[i], true
}
