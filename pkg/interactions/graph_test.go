package interactions

import (
	"reflect"
	"testing"
)

func TestInteractionGraph_Add(t *testing.T) {
	g := make(InteractionGraph)
	g.Add("Alice", "Bob", 3)
	g.Add("Alice", "Bob", 2)
	g.Add("Bob", "Carol", 1)

	if g["Alice"]["Bob"] != 5 {
		t.Fatalf("expected 5 interactions for Alice -> Bob, got %d", g["Alice"]["Bob"])
	}
	if g["Bob"]["Carol"] != 1 {
		t.Fatalf("expected 1 interaction for Bob -> Carol, got %d", g["Bob"]["Carol"])
	}
	if g.Edges() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.Edges())
	}
}

func TestMerge_SumsDuplicatePairs(t *testing.T) {
	partials := []PartialResult{
		{
			Segment: 0,
			Graph:   InteractionGraph{"Alice": {"Bob": 3}},
		},
		{
			Segment: 1,
			Graph: InteractionGraph{
				"Alice": {"Bob": 1},
				"Bob":   {"Carol": 5},
			},
		},
	}

	got := Merge(partials)
	want := InteractionGraph{
		"Alice": {"Bob": 4},
		"Bob":   {"Carol": 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected merge result: got %v, want %v", got, want)
	}
}

func TestMerge_OrderIndependent(t *testing.T) {
	a := PartialResult{Segment: 0, Graph: InteractionGraph{"Tom": {"Huck": 2}}}
	b := PartialResult{Segment: 1, Graph: InteractionGraph{"Tom": {"Huck": 3}, "Huck": {"Jim": 1}}}
	c := PartialResult{Segment: 2, Graph: InteractionGraph{"Jim": {"Tom": 7}}}

	orders := [][]PartialResult{
		{a, b, c},
		{c, b, a},
		{b, a, c},
	}

	want := Merge(orders[0])
	for i, order := range orders[1:] {
		if got := Merge(order); !reflect.DeepEqual(got, want) {
			t.Fatalf("order %d produced a different graph: got %v, want %v", i+1, got, want)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	got := Merge(nil)
	if got == nil {
		t.Fatal("expected non-nil graph for empty input")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty graph, got %v", got)
	}
}

func TestMerge_NoReverseEdgeSynthesis(t *testing.T) {
	got := Merge([]PartialResult{
		{Segment: 0, Graph: InteractionGraph{"Alice": {"Bob": 2}}},
	})
	if _, ok := got["Bob"]; ok {
		t.Fatal("expected no synthesized reverse edge for Bob")
	}
}

func TestMerge_CaseSensitiveNames(t *testing.T) {
	got := Merge([]PartialResult{
		{Segment: 0, Graph: InteractionGraph{"Tom": {"Huck": 1}}},
		{Segment: 1, Graph: InteractionGraph{"tom": {"Huck": 1}}},
	})
	if len(got) != 2 {
		t.Fatalf("expected distinct nodes for Tom and tom, got %v", got)
	}
}
