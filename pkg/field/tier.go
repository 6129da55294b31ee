package field

import "strings"

// Tier maps a text pattern to the points it is worth.
type Tier struct {
	Pattern string  `json:"pattern" yaml:"pattern"`
	Points  float64 `json:"points" yaml:"points"`
}

// TierTable is an ordered categorical lookup. The first tier whose pattern
// is a case-sensitive substring of the text wins, so more specific patterns
// must come first ("Gold" before "80+").
type TierTable []Tier

// Match returns the points of the first matching tier.
func (t TierTable) Match(text string) (float64, bool) {
	for _, tier := range t {
		if strings.Contains(text, tier.Pattern) {
			return tier.Points, true
		}
	}
	return 0, false
}

// Lookup matches the text form of v, returning fallback when nothing
// matches. Absent values return ErrAbsent.
func (t TierTable) Lookup(v Value, fallback float64) (float64, error) {
	if v.IsAbsent() {
		return 0, ErrAbsent
	}
	if p, ok := t.Match(v.String()); ok {
		return p, nil
	}
	return fallback, nil
}
