package window

import (
	"fmt"
	"testing"

	"fraudwatch/pkg/model"
)

func tx(id string) model.Transaction {
	return model.Transaction{TransactionID: id, Amount: 10}
}

func txs(ids ...string) []model.Transaction {
	out := make([]model.Transaction, len(ids))
	for i, id := range ids {
		out[i] = tx(id)
	}
	return out
}

func TestStore_MergeAppendsEverywhere(t *testing.T) {
	s := NewStore()

	if got := s.Merge(tx("a")); got != len(Horizons()) {
		t.Fatalf("Merge() appended to %d windows, want %d", got, len(Horizons()))
	}

	for _, h := range Horizons() {
		if s.Len(h) != 1 {
			t.Errorf("window %s: len = %d, want 1", h, s.Len(h))
		}
	}
}

func TestStore_MergeIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Merge(tx("a"))

	before := make(map[Horizon][]model.Transaction)
	for _, h := range Horizons() {
		before[h] = s.Snapshot(h)
	}

	// Applying the same most-recent response again must change nothing.
	if got := s.Merge(tx("a")); got != 0 {
		t.Errorf("repeat Merge() appended to %d windows, want 0", got)
	}

	for _, h := range Horizons() {
		after := s.Snapshot(h)
		if len(after) != len(before[h]) {
			t.Errorf("window %s: len changed %d -> %d", h, len(before[h]), len(after))
		}
		for i := range after {
			if after[i].TransactionID != before[h][i].TransactionID {
				t.Errorf("window %s: content changed at %d", h, i)
			}
		}
	}
}

func TestStore_MergeDeduplicatesAcrossPaths(t *testing.T) {
	s := NewStore()

	// Wholesale refresh inserts id X, then the incremental path reports it.
	s.Replace(LastHour, txs("x", "y"))
	s.Merge(tx("x"))

	if got := s.Len(LastHour); got != 2 {
		t.Errorf("window %s: len = %d, want 2 (no duplicate of x)", LastHour, got)
	}
	// Windows that had never seen x still receive it.
	if got := s.Len(All); got != 1 {
		t.Errorf("window %s: len = %d, want 1", All, got)
	}
}

func TestStore_MergeRejectsEmptyID(t *testing.T) {
	s := NewStore()
	if got := s.Merge(model.Transaction{}); got != 0 {
		t.Errorf("Merge() with empty id appended to %d windows, want 0", got)
	}
}

func TestStore_ReplaceIsFullReplace(t *testing.T) {
	s := NewStore()
	s.Replace(Last2Hours, txs("old-1", "old-2", "old-3"))
	s.Replace(Last2Hours, txs("old-2", "new-1"))

	got := s.Snapshot(Last2Hours)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TransactionID != "old-2" || got[1].TransactionID != "new-1" {
		t.Errorf("contents = [%s %s], want [old-2 new-1]", got[0].TransactionID, got[1].TransactionID)
	}
	if s.Contains(Last2Hours, "old-1") {
		t.Error("old-1 still present after replace")
	}

	// Other windows are untouched by a single-horizon replace.
	if s.Len(LastHour) != 0 {
		t.Errorf("window %s: len = %d, want 0", LastHour, s.Len(LastHour))
	}
}

func TestStore_ReplaceDropsDuplicateIDs(t *testing.T) {
	s := NewStore()
	s.Replace(LastHour, txs("a", "b", "a"))

	if got := s.Len(LastHour); got != 2 {
		t.Errorf("len = %d, want 2 (duplicate id dropped)", got)
	}
}

func TestStore_ReplaceThenMergePreservesOrder(t *testing.T) {
	s := NewStore()
	s.Replace(LastHour, txs("a", "b"))
	s.Merge(tx("c"))

	got := s.Snapshot(LastHour)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].TransactionID != id {
			t.Errorf("position %d: id = %s, want %s (arrival order)", i, got[i].TransactionID, id)
		}
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Replace(LastHour, txs("a"))

	snap := s.Snapshot(LastHour)
	snap[0].TransactionID = "mutated"

	if got := s.Snapshot(LastHour)[0].TransactionID; got != "a" {
		t.Errorf("store record = %q, want %q (snapshot must not alias)", got, "a")
	}
}

func TestStore_ConcurrentMergeAndReplace(t *testing.T) {
	s := NewStore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Merge(tx(fmt.Sprintf("merge-%d", i)))
		}
	}()

	for i := 0; i < 200; i++ {
		s.Replace(Last30Minutes, txs(fmt.Sprintf("replace-%d", i)))
		s.Snapshot(Last30Minutes)
	}
	<-done

	// The unbounded window only ever grows through Merge.
	if got := s.Len(All); got != 200 {
		t.Errorf("window %s: len = %d, want 200", All, got)
	}
}
