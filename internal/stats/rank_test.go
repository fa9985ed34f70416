package stats

import (
	"slices"
	"testing"
)

func labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label()
	}
	return out
}

func TestRank_TieBreakAndTopN(t *testing.T) {
	results := []Result{
		{Key: GroupKey{"Z"}, Count: 4, Value: 1.0},
		{Key: GroupKey{"Y"}, Count: 2, Value: 2.0},
		{Key: GroupKey{"X"}, Count: 3, Value: 1.0},
	}

	got := Rank(results, Ascending, 2)
	if want := []string{"X", "Z"}; !slices.Equal(labels(got), want) {
		t.Errorf("Expected %v, got %v", want, labels(got))
	}
	if got[0].Position != 1 || got[1].Position != 2 {
		t.Errorf("Expected 1-based positions, got %d %d", got[0].Position, got[1].Position)
	}
}

func TestRank_Descending(t *testing.T) {
	results := []Result{
		{Key: GroupKey{"A"}, Count: 1, Value: 1},
		{Key: GroupKey{"B"}, Count: 1, Value: 5},
		{Key: GroupKey{"C"}, Count: 1, Value: 5},
		{Key: GroupKey{"D"}, Count: 1, Value: 3},
	}

	got := Rank(results, Descending, 0)
	if want := []string{"B", "C", "D", "A"}; !slices.Equal(labels(got), want) {
		t.Errorf("Expected %v, got %v", want, labels(got))
	}
}

func TestRank_SuppressesEmptyGroups(t *testing.T) {
	results := []Result{
		{Key: GroupKey{"A"}, Count: 0, Value: 0},
		{Key: GroupKey{"B"}, Count: 2, Value: 4},
	}

	got := Rank(results, Ascending, 10)
	if want := []string{"B"}; !slices.Equal(labels(got), want) {
		t.Errorf("Expected %v, got %v", want, labels(got))
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	results := []Result{
		{Key: GroupKey{"B"}, Count: 1, Value: 2},
		{Key: GroupKey{"A"}, Count: 1, Value: 1},
	}
	Rank(results, Ascending, 0)
	if results[0].Key.String() != "B" {
		t.Errorf("Expected input order to be preserved")
	}
}
