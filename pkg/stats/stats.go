// Package stats reduces window collections into summary statistics and
// fraud pattern breakdowns. Every function here is a pure function of its
// input and the supplied clock: no hidden state, identical output on
// repeated invocation, and the input slice is never mutated.
package stats

import (
	"fraudwatch/pkg/model"
)

// Summary holds the basic statistics for one window collection.
type Summary struct {
	Total           int     `json:"totalTransactions"`
	FraudCount      int     `json:"fraudCount"`
	LegitimateCount int     `json:"legitimateCount"`
	FraudRate       float64 `json:"fraudRate"`
	TotalAmount     float64 `json:"totalAmount"`
	AvgAmount       float64 `json:"avgAmount"`
}

// Compute derives the basic statistics for a collection.
// An empty collection yields all zeroes, never NaN.
func Compute(records []model.Transaction) Summary {
	s := Summary{Total: len(records)}

	for _, t := range records {
		if t.Fraud {
			s.FraudCount++
		}
		s.TotalAmount += t.Amount
	}

	s.LegitimateCount = s.Total - s.FraudCount
	if s.Total > 0 {
		s.FraudRate = float64(s.FraudCount) / float64(s.Total) * 100
		s.AvgAmount = s.TotalAmount / float64(s.Total)
	}
	return s
}
