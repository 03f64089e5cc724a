package stats

import (
	"time"

	"fraudwatch/pkg/model"
)

// Banding is an age bracketing scheme. The aggregator does not pick one;
// the consuming view does.
type Banding int

const (
	// SixBand is the fine-grained scheme used by the age segment analysis:
	// 18-25, 26-35, 36-45, 46-55, 56-65, 65+.
	SixBand Banding = iota
	// FourBand is the coarser scheme used by the demographics overview:
	// 18-30, 31-45, 46-60, 60+.
	FourBand
)

// Brackets returns the scheme's bracket labels in ascending age order.
func (b Banding) Brackets() []string {
	if b == FourBand {
		return []string{"18-30", "31-45", "46-60", "60+"}
	}
	return []string{"18-25", "26-35", "36-45", "46-55", "56-65", "65+"}
}

// Bracket returns the label for a whole-year age, or "" when the age falls
// under the minimum of 18.
func (b Banding) Bracket(age int) string {
	if age < 18 {
		return ""
	}
	if b == FourBand {
		switch {
		case age <= 30:
			return "18-30"
		case age <= 45:
			return "31-45"
		case age <= 60:
			return "46-60"
		default:
			return "60+"
		}
	}
	switch {
	case age <= 25:
		return "18-25"
	case age <= 35:
		return "26-35"
	case age <= 45:
		return "36-45"
	case age <= 55:
		return "46-55"
	case age <= 65:
		return "56-65"
	default:
		return "65+"
	}
}

// AgeSegment holds per-bracket transaction and fraud figures.
type AgeSegment struct {
	Bracket     string  `json:"age"`
	Total       int     `json:"total"`
	Fraud       int     `json:"fraud"`
	FraudRate   float64 `json:"fraudRate"`
	TotalAmount float64 `json:"totalAmount"`
	FraudAmount float64 `json:"fraudAmount"`
	AvgAmount   float64 `json:"avgTransactionAmount"`
}

// AgeSegments buckets a collection into the scheme's brackets at the given
// instant. Output order follows Brackets(); records without a parsable date
// of birth are excluded entirely.
func AgeSegments(records []model.Transaction, now time.Time, banding Banding) []AgeSegment {
	labels := banding.Brackets()
	byLabel := make(map[string]*AgeSegment, len(labels))
	segments := make([]AgeSegment, len(labels))
	for i, label := range labels {
		segments[i] = AgeSegment{Bracket: label}
		byLabel[label] = &segments[i]
	}

	for _, t := range records {
		if t.DateOfBirth == nil {
			continue
		}
		label := banding.Bracket(model.AgeAt(*t.DateOfBirth, now))
		if label == "" {
			continue
		}
		seg := byLabel[label]
		seg.Total++
		seg.TotalAmount += t.Amount
		if t.Fraud {
			seg.Fraud++
			seg.FraudAmount += t.Amount
		}
	}

	for i := range segments {
		if segments[i].Total > 0 {
			segments[i].FraudRate = float64(segments[i].Fraud) / float64(segments[i].Total) * 100
			segments[i].AvgAmount = segments[i].TotalAmount / float64(segments[i].Total)
		}
	}
	return segments
}

// MostExposed returns the segment with the highest fraud rate among those
// with at least one observation, or a NotApplicable segment when none have
// observations. Ties keep the earlier bracket.
func MostExposed(segments []AgeSegment) AgeSegment {
	best := AgeSegment{Bracket: NotApplicable}
	found := false
	for _, seg := range segments {
		if seg.Total == 0 {
			continue
		}
		if !found || seg.FraudRate > best.FraudRate {
			best = seg
			found = true
		}
	}
	return best
}
