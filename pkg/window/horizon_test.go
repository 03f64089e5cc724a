package window

import (
	"testing"
	"time"

	"fraudwatch/pkg/model"
)

func TestHorizon_Span(t *testing.T) {
	tests := []struct {
		horizon Horizon
		want    time.Duration
	}{
		{Last30Minutes, 30 * time.Minute},
		{LastHour, time.Hour},
		{Last2Hours, 2 * time.Hour},
		{Last12Hours, 12 * time.Hour},
		{All, 0},
	}

	for _, tt := range tests {
		t.Run(tt.horizon.String(), func(t *testing.T) {
			if got := tt.horizon.Span(); got != tt.want {
				t.Errorf("Span() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHorizon_Contains(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	at := func(d time.Duration) model.Transaction {
		return model.Transaction{TransactionID: "t", Timestamp: now.Add(-d).UnixMilli()}
	}

	tests := []struct {
		name    string
		horizon Horizon
		record  model.Transaction
		want    bool
	}{
		{"well inside", LastHour, at(10 * time.Minute), true},
		{"exactly on the edge", LastHour, at(time.Hour), true},
		{"just outside", LastHour, at(time.Hour + time.Second), false},
		{"old record, long horizon", Last12Hours, at(11 * time.Hour), true},
		{"unknown timestamp fails open", Last30Minutes, model.Transaction{TransactionID: "t"}, true},
		{"unbounded accepts anything", All, at(1000 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.horizon.Contains(tt.record, now); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRolling_ExcludesUnbounded(t *testing.T) {
	for _, h := range Rolling() {
		if h == All {
			t.Fatal("Rolling() must not include the unbounded horizon")
		}
		if h.Span() == 0 {
			t.Errorf("horizon %s: Span() = 0, want bounded", h)
		}
	}
}

func TestHorizon_Valid(t *testing.T) {
	if !LastHour.Valid() {
		t.Error("LastHour should be valid")
	}
	if Horizon("45m").Valid() {
		t.Error("unknown horizon should be invalid")
	}
}
