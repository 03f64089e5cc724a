package window

import (
	"time"

	"fraudwatch/pkg/model"
)

// Horizon names a rolling time span tracked by the store.
type Horizon string

const (
	// Last30Minutes is the fastest-moving window, backing the live map view.
	Last30Minutes Horizon = "30m"
	// LastHour backs the fraud pattern breakdowns.
	LastHour Horizon = "1h"
	// Last2Hours backs the alerts timeline.
	Last2Hours Horizon = "2h"
	// Last12Hours backs the overview and age segment analysis.
	Last12Hours Horizon = "12h"
	// All is the unbounded feed of every observed transaction.
	All Horizon = "all"
)

// Rolling returns the bounded horizons, shortest first.
func Rolling() []Horizon {
	return []Horizon{Last30Minutes, LastHour, Last2Hours, Last12Hours}
}

// Horizons returns every tracked horizon including the unbounded one.
func Horizons() []Horizon {
	return append(Rolling(), All)
}

// Span returns the horizon's time span, or 0 for the unbounded horizon.
func (h Horizon) Span() time.Duration {
	switch h {
	case Last30Minutes:
		return 30 * time.Minute
	case LastHour:
		return time.Hour
	case Last2Hours:
		return 2 * time.Hour
	case Last12Hours:
		return 12 * time.Hour
	}
	return 0
}

// Minutes returns the horizon span in whole minutes, as sent to the feed.
func (h Horizon) Minutes() int {
	return int(h.Span() / time.Minute)
}

// String returns the horizon name.
func (h Horizon) String() string {
	return string(h)
}

// Valid reports whether h names a tracked horizon.
func (h Horizon) Valid() bool {
	switch h {
	case Last30Minutes, LastHour, Last2Hours, Last12Hours, All:
		return true
	}
	return false
}

// Contains reports whether a record belongs to the horizon evaluated
// against now. A record whose timestamp could not be extracted is always a
// member: an unparsable time is still real data, and silently dropping it
// would undercount (fail-open).
func (h Horizon) Contains(t model.Transaction, now time.Time) bool {
	span := h.Span()
	if span == 0 {
		return true
	}
	if !t.HasTimestamp() {
		return true
	}
	return now.Sub(t.Time()) <= span
}
