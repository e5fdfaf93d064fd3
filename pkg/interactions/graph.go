package interactions

// InteractionGraph is the canonical analysis output. It maps a character
// name to the characters they interact with and the number of interactions
// reported for each pair.
//
// Names are case-sensitive and used exactly as the model surfaced them;
// "Tom" and "tom" are distinct nodes. An edge A -> B does not imply the
// reverse edge B -> A exists, because the model may report pairs
// asymmetrically and the merge never synthesizes edges.
type InteractionGraph map[string]map[string]int

// Add increments the interaction count for the pair (a, b). Missing keys
// are created on first use.
func (g InteractionGraph) Add(a, b string, count int) {
	inner, ok := g[a]
	if !ok {
		inner = make(map[string]int)
		g[a] = inner
	}
	inner[b] += count
}

// Edges returns the number of directed character pairs in the graph.
func (g InteractionGraph) Edges() int {
	n := 0
	for _, inner := range g {
		n += len(inner)
	}
	return n
}

// PartialResult is the validated output of one segment extraction. It is
// consumed by Merge and discarded afterwards.
type PartialResult struct {
	Segment int
	Graph   InteractionGraph
}

// Merge folds the partial graphs into one canonical graph by summing the
// counts of duplicate pairs. The fold is commutative and associative, so
// the result is independent of segment completion order. An empty or
// all-failed input yields an empty, non-nil graph.
func Merge(partials []PartialResult) InteractionGraph {
	merged := make(InteractionGraph)
	for _, partial := range partials {
		for a, inner := range partial.Graph {
			for b, count := range inner {
				merged.Add(a, b, count)
			}
		}
	}
	return merged
}
