package scc

import "testing"

type adjGraph struct {
	n   int
	adj map[int][]int
}

func (g adjGraph) NumNodes() int { return g.n }
func (g adjGraph) VisitSuccessors(node int, visit func(int)) {
	for _, s := range g.adj[node] {
		visit(s)
	}
}

func TestCompute_SingleCycle(t *testing.T) {
	g := adjGraph{n: 3, adj: map[int][]int{0: {1}, 1: {2}, 2: {0}}}
	c := Compute(g)
	first := c.ComponentOf[0]
	for i := 1; i < 3; i++ {
		if c.ComponentOf[i] != first {
			t.Fatalf("node %d in a different component than node 0, want same cycle", i)
		}
	}
	if len(c.Members) != 1 {
		t.Fatalf("len(Members) = %d, want 1", len(c.Members))
	}
}

func TestCompute_Dag(t *testing.T) {
	g := adjGraph{n: 4, adj: map[int][]int{0: {1}, 1: {2}, 2: {3}}}
	c := Compute(g)
	seen := map[int]bool{}
	for _, comp := range c.ComponentOf {
		seen[comp] = true
	}
	if len(seen) != 4 {
		t.Fatalf("got %d distinct components over a DAG with 4 nodes, want 4", len(seen))
	}
}

func TestCompute_TwoCycles(t *testing.T) {
	g := adjGraph{n: 6, adj: map[int][]int{
		0: {1}, 1: {0, 2}, // 1->2 bridges cycle A into cycle B without merging them
		2: {3}, 3: {4}, 4: {2},
	}}
	c := Compute(g)
	if c.ComponentOf[0] != c.ComponentOf[1] {
		t.Fatalf("nodes 0,1 should share a component")
	}
	if c.ComponentOf[2] != c.ComponentOf[3] || c.ComponentOf[3] != c.ComponentOf[4] {
		t.Fatalf("nodes 2,3,4 should share a component")
	}
	if c.ComponentOf[0] == c.ComponentOf[2] {
		t.Fatalf("the two cycles should not share a component")
	}
}

func TestCompute_LargeChainIsIterative(t *testing.T) {
	const n = 20000
	adj := make(map[int][]int, n)
	for i := 0; i < n-1; i++ {
		adj[i] = []int{i + 1}
	}
	g := adjGraph{n: n, adj: adj}
	c := Compute(g) // would stack-overflow a naive recursive Tarjan at this depth
	seen := map[int]bool{}
	for _, comp := range c.ComponentOf {
		seen[comp] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d components for an n-node chain, want %d", len(seen), n)
	}
}
