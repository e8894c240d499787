// Package maxoccurrence computes minimal(-ish) explanations for
// matching-based propagators (spec §4.10), grounded on
// original_source/vertexy/src/private/constraints/MaxOccurrenceExplainer.cpp.
package maxoccurrence

import (
	"github.com/domainkit/fdsolver/internal/matching"
	"github.com/domainkit/fdsolver/internal/scc"
)

// VarReach records, for one variable node touched by the explanation
// search, the set of value indices reached through it. The caller builds
// Literal(var, complement(Values)) from this (spec §4.10).
type VarReach struct {
	Left   int
	Values []int
}

// Explainer wraps a matching.Graph to answer "why was this value excluded
// from this variable" queries against its current matching.
type Explainer struct {
	g *matching.Graph
}

// New returns an Explainer over g's current matching state. Callers must
// not mutate g between building an explanation and matching() calls that
// assume the same state.
func New(g *matching.Graph) *Explainer { return &Explainer{g: g} }

func (e *Explainer) numLeft() int  { return e.g.NumLeft() }
func (e *Explainer) numRight() int { return e.g.NumRight() }
func (e *Explainer) sink() int     { return e.numLeft() + e.numRight() }
func (e *Explainer) valueNode(r int) int { return e.numLeft() + r }
func (e *Explainer) numNodes() int       { return e.numLeft() + e.numRight() + 1 }

// Residual exposes the implicit matched/unmatched/sink graph (spec §4.10)
// as an scc.Graph so other propagators (Cardinality's upper-bound
// consistency pass) can run Tarjan SCC over the same structure this
// package uses for explanations, without duplicating the adjacency rules.
func Residual(g *matching.Graph) scc.Graph {
	return residualGraph{e: New(g)}
}

type residualGraph struct{ e *Explainer }

func (rg residualGraph) NumNodes() int { return rg.e.numNodes() }

func (rg residualGraph) VisitSuccessors(node int, visit func(int)) {
	e := rg.e
	n := e.numLeft()
	switch {
	case node < n:
		l := node
		if r := e.g.MatchedRight(l); r >= 0 {
			visit(e.valueNode(r))
		}
	case node < n+e.numRight():
		r := node - n
		matched := e.g.MatchedLeft(r)
		for _, l := range e.g.AdjacentLeft(r) {
			if !containsInt(matched, l) {
				visit(l)
			}
		}
		if e.g.NumRightMatched(r) < e.g.Capacity(r) {
			visit(e.sink())
		}
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (e *Explainer) isFree(r int) bool {
	return e.g.NumRightMatched(r) < e.g.Capacity(r)
}

// reachableFrom returns the set of nodes forward-reachable from any of
// the given starting nodes, optionally stopping at (not expanding past)
// nodes in block.
func (e *Explainer) reachableFrom(starts []int, block map[int]bool) map[int]bool {
	rg := residualGraph{e: e}
	visited := make(map[int]bool, len(starts))
	queue := append([]int(nil), starts...)
	for _, s := range starts {
		visited[s] = true
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if block != nil && block[v] {
			continue
		}
		rg.VisitSuccessors(v, func(w int) {
			if !visited[w] {
				visited[w] = true
				queue = append(queue, w)
			}
		})
	}
	return visited
}

// Explain computes the explanation for removing removedValues from
// explainVar's domain (or, if removedValues is empty, for a matching
// failure involving explainVar — spec §4.10's "if no specific removed
// values are supplied, start from the first unmatched variable instead").
func (e *Explainer) Explain(explainVar int, removedValues []int) []VarReach {
	components := scc.Compute(residualGraph{e: e})
	explainSCC := components.ComponentOf[explainVar]

	var freeStarts []int
	for r := 0; r < e.numRight(); r++ {
		if e.isFree(r) {
			freeStarts = append(freeStarts, e.valueNode(r))
		}
	}
	freeReach := e.reachableFrom(freeStarts, nil)

	block := make(map[int]bool, len(freeReach))
	for n := range freeReach {
		block[n] = true
	}
	for n, c := range components.ComponentOf {
		if c == explainSCC {
			block[n] = true
		}
	}

	var starts []int
	if len(removedValues) == 0 {
		starts = []int{explainVar}
	} else {
		for _, v := range removedValues {
			starts = append(starts, e.valueNode(v))
		}
	}

	touched := e.reachableFrom(starts, block)

	perVar := map[int][]int{}
	var order []int
	for node := range touched {
		if node >= e.numLeft() {
			continue
		}
		l := node
		r := e.g.MatchedRight(l)
		if r < 0 {
			continue
		}
		if _, ok := perVar[l]; !ok {
			order = append(order, l)
		}
		perVar[l] = append(perVar[l], r)
	}

	out := make([]VarReach, 0, len(order))
	for _, l := range order {
		out = append(out, VarReach{Left: l, Values: perVar[l]})
	}
	return out
}
