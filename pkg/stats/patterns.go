package stats

import (
	"strings"
	"time"

	"fraudwatch/pkg/model"
)

// NotApplicable is the sentinel name for a pattern slot with no fraud
// observations. It distinguishes "no data" from "zero risk": a zero-filled
// merchant entry would read as a real merchant with no fraud.
const NotApplicable = "N/A"

// fraudMerchantPrefix marks synthetic fraud-test merchants in the feed.
// It is stripped before grouping and display.
const fraudMerchantPrefix = "fraud_"

// PatternEntry is one ranked breakdown result: the winning group and its
// fraud count.
type PatternEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Patterns is the fraud pattern breakdown for one window, computed over the
// fraud subset only.
type Patterns struct {
	TopMerchant    PatternEntry `json:"topMerchant"`
	TopCategory    PatternEntry `json:"topCategory"`
	TopAgeBracket  PatternEntry `json:"topAgeBracket"`
	TopState       PatternEntry `json:"topState"`
	AvgFraudAmount float64      `json:"avgFraudAmount"`
	FraudCount     int          `json:"fraudCount"`
}

// ComputePatterns derives the fraud pattern breakdown for a collection at
// the given instant. A collection with no fraud yields NotApplicable
// entries with count 0 in every slot.
func ComputePatterns(records []model.Transaction, now time.Time) Patterns {
	merchants := newRanking()
	categories := newRanking()
	brackets := newRanking()
	states := newRanking()

	var fraudCount int
	var fraudAmount float64

	for _, t := range records {
		if !t.Fraud {
			continue
		}
		fraudCount++
		fraudAmount += t.Amount

		merchants.add(DisplayMerchant(t.MerchantName))
		categories.add(t.Category)
		states.add(t.State)
		if t.DateOfBirth != nil {
			// Records without a parsable date of birth are excluded from
			// age analysis; age cannot be defaulted.
			if b := SixBand.Bracket(model.AgeAt(*t.DateOfBirth, now)); b != "" {
				brackets.add(b)
			}
		}
	}

	p := Patterns{
		TopMerchant:   merchants.top(),
		TopCategory:   categories.top(),
		TopAgeBracket: brackets.top(),
		TopState:      states.top(),
		FraudCount:    fraudCount,
	}
	if fraudCount > 0 {
		p.AvgFraudAmount = fraudAmount / float64(fraudCount)
	}
	return p
}

// DisplayMerchant strips the synthetic fraud-test prefix from a merchant
// name for grouping and display.
func DisplayMerchant(name string) string {
	return strings.TrimPrefix(name, fraudMerchantPrefix)
}

// ranking counts group members and tracks the current leader. Ties are
// broken by first encountered in input order, which keeps the result stable
// for a fixed input.
type ranking struct {
	counts map[string]int
	lead   string
	leadN  int
}

func newRanking() *ranking {
	return &ranking{counts: make(map[string]int)}
}

func (r *ranking) add(name string) {
	if name == "" {
		return
	}
	r.counts[name]++
	if r.counts[name] > r.leadN {
		r.lead = name
		r.leadN = r.counts[name]
	}
}

func (r *ranking) top() PatternEntry {
	if r.leadN == 0 {
		return PatternEntry{Name: NotApplicable}
	}
	return PatternEntry{Name: r.lead, Count: r.leadN}
}
