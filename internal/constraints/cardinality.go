package constraints

import (
	"github.com/domainkit/fdsolver/internal/bitset"
	"github.com/domainkit/fdsolver/internal/engine"
	"github.com/domainkit/fdsolver/internal/matching"
	"github.com/domainkit/fdsolver/internal/maxoccurrence"
	"github.com/domainkit/fdsolver/internal/scc"
)

// Bound is a per-value occurrence bound for Cardinality.
type Bound struct {
	Min int
	Max int
}

// Cardinality generalizes AllDifferent with per-value occurrence bounds
// (spec §4.9). Propagation combines an upper-bound consistency pass
// (matching + Tarjan SCC, following Régin's AllDifferent-GAC argument
// generalized with right-side capacities) with a lower-bound feasibility
// check.
//
// The full Quimper et al. LBC bounds-consistency procedure spec §4.9
// describes (two union-find sweeps over ascending/descending intervals)
// is not implemented; instead LBC here only detects infeasibility (not
// enough remaining support to meet a value's minimum), a strictly weaker
// but sound necessary condition. See DESIGN.md.
type Cardinality struct {
	id         engine.ConstraintID
	vars       []engine.VarID
	domainSize int
	bounds     map[int]Bound

	handles []engine.WatchHandle
}

// NewCardinality returns a constructor usable with Driver.Install. bounds
// maps a value to its (min, max) required occurrence count; values absent
// from bounds default to (0, len(vars)).
func NewCardinality(vars []engine.VarID, domainSize int, bounds map[int]Bound) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Cardinality{id: id, vars: append([]engine.VarID(nil), vars...), domainSize: domainSize, bounds: bounds}
	}
}

func (c *Cardinality) ID() engine.ConstraintID { return c.id }

func (c *Cardinality) boundOf(v int) Bound {
	if b, ok := c.bounds[v]; ok {
		return b
	}
	return Bound{Min: 0, Max: len(c.vars)}
}

func (c *Cardinality) Initialize(db *engine.VariableDatabase) engine.Status {
	c.handles = make([]engine.WatchHandle, len(c.vars))
	for i, v := range c.vars {
		c.handles[i] = db.WatchAnyChange(v, c.id)
	}
	db.QueuePropagation(c.id)
	return engine.Ok
}

func (c *Cardinality) Reset(db *engine.VariableDatabase) {
	for i, v := range c.vars {
		db.RemoveWatch(v, c.handles[i])
	}
}

func (c *Cardinality) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	db.QueuePropagation(c.id)
	return true, false
}

func (c *Cardinality) buildGraph(db *engine.VariableDatabase) *matching.Graph {
	g := matching.New(len(c.vars), c.domainSize)
	for val := 0; val < c.domainSize; val++ {
		g.SetCapacity(val, c.boundOf(val).Max)
	}
	for i, v := range c.vars {
		for _, val := range db.GetPotential(v).Values() {
			g.AddEdge(i, val)
		}
	}
	return g
}

func (c *Cardinality) freeReachable(g *matching.Graph) map[int]bool {
	n := g.NumLeft()
	visited := map[int]bool{}
	var queue []int
	for r := 0; r < g.NumRight(); r++ {
		if g.NumRightMatched(r) < g.Capacity(r) {
			node := n + r
			visited[node] = true
			queue = append(queue, node)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node < n {
			if r := g.MatchedRight(node); r >= 0 {
				w := n + r
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
			continue
		}
		r := node - n
		matched := g.MatchedLeft(r)
		for _, l := range g.AdjacentLeft(r) {
			if containsInt(matched, l) {
				continue
			}
			if !visited[l] {
				visited[l] = true
				queue = append(queue, l)
			}
		}
	}
	return visited
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (c *Cardinality) explainer(g *matching.Graph, v engine.VarID, removed int) engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		idx := -1
		for i, u := range c.vars {
			if u == v {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		reach := maxoccurrence.New(g).Explain(idx, []int{removed})
		out := make([]engine.Literal, 0, len(reach))
		for _, r := range reach {
			values := bitset.New(db.DomainSize(c.vars[r.Left]))
			for _, val := range r.Values {
				values.Set(val)
			}
			out = append(out, engine.Literal{Var: c.vars[r.Left], Values: values}.Opposite())
		}
		return out
	}
}

// Propagate runs the upper-bound consistency pass and the lower-bound
// feasibility check.
func (c *Cardinality) Propagate(db *engine.VariableDatabase) engine.Status {
	for val := 0; val < c.domainSize; val++ {
		b := c.boundOf(val)
		if b.Min == 0 {
			continue
		}
		support := 0
		for _, v := range c.vars {
			if db.IsPossible(v, val) {
				support++
			}
		}
		if support < b.Min {
			return engine.Contradiction
		}
	}

	g := c.buildGraph(db)
	matched := g.ComputeMaximalMatching(-1)
	if matched < len(c.vars) {
		return engine.Contradiction
	}

	components := scc.Compute(maxoccurrence.Residual(g))
	free := c.freeReachable(g)
	n := len(c.vars)

	for i, v := range c.vars {
		if db.IsSolved(v) {
			continue
		}
		myComp := components.ComponentOf[i]
		matchedVal := g.MatchedRight(i)
		for _, val := range db.GetPotential(v).Values() {
			if val == matchedVal {
				continue
			}
			valNode := n + val
			if free[valNode] || components.ComponentOf[valNode] == myComp {
				continue
			}
			if st := db.ExcludeValue(v, val, c.id, c.explainer(g, v, val)); st == engine.Contradiction {
				return engine.Contradiction
			}
		}
	}
	return engine.Ok
}

func (c *Cardinality) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	out := make([]engine.Literal, 0, len(c.vars))
	for _, v := range c.vars {
		out = append(out, engine.Literal{Var: v, Values: db.GetPotential(v)}.Opposite())
	}
	return out
}

func (c *Cardinality) CheckConflicting(db *engine.VariableDatabase) bool {
	counts := map[int]int{}
	for _, v := range c.vars {
		if db.IsSolved(v) {
			counts[db.SolvedValue(v)]++
		}
	}
	for val, cnt := range counts {
		if cnt > c.boundOf(val).Max {
			return true
		}
	}
	return false
}

