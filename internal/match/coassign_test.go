package match

import (
	"maps"
	"testing"
)

func TestCoAssignOneSourcePerItem(t *testing.T) {
	pairs := []Pair[string, uint64]{
		{Source: "url-a", Item: 0, Distance: 10},
		{Source: "url-b", Item: 0, Distance: 3},
		{Source: "url-a", Item: 1, Distance: 4},
		{Source: "url-b", Item: 1, Distance: 50},
	}
	got := CoAssign(pairs, 0)
	want := map[int]string{0: "url-b", 1: "url-a"}
	if !maps.Equal(got, want) {
		t.Fatalf("CoAssign = %v, want %v", got, want)
	}
}

func TestCoAssignSharesSourceWithinTolerance(t *testing.T) {
	pairs := []Pair[uint32, float64]{
		{Source: 1, Item: 0, Distance: 2.0},
		{Source: 1, Item: 1, Distance: 2.5},
		{Source: 1, Item: 2, Distance: 9.0},
	}
	got := CoAssign(pairs, 1.0)
	want := map[int]uint32{0: 1, 1: 1}
	if !maps.Equal(got, want) {
		t.Fatalf("CoAssign = %v, want %v", got, want)
	}
}

func TestCoAssignTieBreak(t *testing.T) {
	pairs := []Pair[string, uint64]{
		{Source: "late", Item: 0, Distance: 5, Tie: 9},
		{Source: "early", Item: 0, Distance: 5, Tie: 1},
	}
	if got := CoAssign(pairs, 0); !maps.Equal(got, map[int]string{0: "early"}) {
		t.Fatalf("expected the lower tie key to win, got %v", got)
	}
}
