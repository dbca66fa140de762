// Package fairuse implements the daily usage governor: a per-(student, day)
// query counter with a three-tier state that bounds per-student AI-tutoring
// cost. The governor knows nothing about content generation; downstream
// consumers read the tier and select a cheaper response profile themselves.
package fairuse

// Tier is the fair-use tier derived from the day's query count.
type Tier string

const (
	// TierNormal means the student is well under the daily limit.
	TierNormal Tier = "normal"

	// TierPreCap means the student has used 80% or more of the daily limit.
	TierPreCap Tier = "pre-cap"

	// TierCapped means the student has reached the daily limit.
	TierCapped Tier = "capped"
)

// DefaultDailyLimit is the default number of AI-tutor queries per day.
const DefaultDailyLimit = 200

// PreCapRatio is the fraction of the daily limit at which the pre-cap
// warning tier begins.
const PreCapRatio = 0.8

// Counter is the usage record for one (student, calendar day). A fresh day
// is a fresh record: counters are keyed by date and never explicitly reset.
type Counter struct {
	// Count is the number of queries made today, monotonically increasing.
	Count int `json:"count"`

	// BannersShown records which tier banners were already surfaced today,
	// so each tier notification fires at most once per day.
	BannersShown map[Tier]bool `json:"bannersShown,omitempty"`
}

// TierFor derives the tier for a given count against a daily limit. The tier
// is a pure function of the count; no state is consulted.
func TierFor(count, limit int) Tier {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	switch {
	case count >= limit:
		return TierCapped
	case float64(count) >= PreCapRatio*float64(limit):
		return TierPreCap
	default:
		return TierNormal
	}
}

// Increment bumps the counter and reports the resulting tier together with
// whether this increment is the first crossing into that tier today (i.e.
// whether a banner should be surfaced). The receiver is not mutated.
func (c Counter) Increment(limit int) (Counter, Tier, bool) {
	updated := c
	updated.Count++

	tier := TierFor(updated.Count, limit)
	if tier == TierNormal {
		return updated, tier, false
	}

	if updated.BannersShown == nil {
		updated.BannersShown = make(map[Tier]bool, 2)
	} else {
		// Copy-on-write so callers holding the old counter are unaffected.
		shown := make(map[Tier]bool, len(updated.BannersShown)+1)
		for k, v := range updated.BannersShown {
			shown[k] = v
		}
		updated.BannersShown = shown
	}

	firstCrossing := !updated.BannersShown[tier]
	updated.BannersShown[tier] = true

	return updated, tier, firstCrossing
}

// State is the read-only view of a student's usage for the day.
type State struct {
	Count int  `json:"count"`
	Limit int  `json:"limit"`
	Tier  Tier `json:"tier"`
}

// StateFor builds the read-only state for a counter.
func StateFor(c Counter, limit int) State {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return State{
		Count: c.Count,
		Limit: limit,
		Tier:  TierFor(c.Count, limit),
	}
}
