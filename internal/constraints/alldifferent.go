// Package constraints implements the global constraint kinds spec §4
// names on top of the internal/engine propagation core: AllDifferent,
// Cardinality, Disjunction, and the simpler Inequality/Sum/Iff/Table
// kinds SPEC_FULL.md's Supplemented Features section adds.
package constraints

import (
	"github.com/domainkit/fdsolver/internal/engine"
	"github.com/domainkit/fdsolver/internal/hallival"
)

// AllDifferent guarantees pairwise distinct values among its variables
// (spec §4.6). In weak mode it only excludes solved values from other
// variables; in strong mode it additionally runs Hall-interval
// bounds-consistency on every change.
type AllDifferent struct {
	id     engine.ConstraintID
	db     *engine.VariableDatabase
	vars   []engine.VarID
	strong bool

	singletonHandles []engine.WatchHandle
	boundHandles     []engine.WatchHandle
}

// NewAllDifferent returns a constructor usable with Driver.Install.
func NewAllDifferent(vars []engine.VarID, strong bool) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &AllDifferent{id: id, vars: append([]engine.VarID(nil), vars...), strong: strong}
	}
}

func (c *AllDifferent) ID() engine.ConstraintID { return c.id }

func (c *AllDifferent) Initialize(db *engine.VariableDatabase) engine.Status {
	c.db = db
	c.singletonHandles = make([]engine.WatchHandle, len(c.vars))
	for i, v := range c.vars {
		c.singletonHandles[i] = db.WatchBecameSingleton(v, c.id)
		if db.IsSolved(v) {
			if st := c.excludeSolved(db, v); st == engine.Contradiction {
				return engine.Contradiction
			}
		}
	}
	if c.strong {
		c.boundHandles = make([]engine.WatchHandle, 2*len(c.vars))
		for i, v := range c.vars {
			c.boundHandles[2*i] = db.WatchLowerBoundRaised(v, c.id)
			c.boundHandles[2*i+1] = db.WatchUpperBoundLowered(v, c.id)
		}
		db.QueuePropagation(c.id)
	}
	return engine.Ok
}

func (c *AllDifferent) Reset(db *engine.VariableDatabase) {
	for i, v := range c.vars {
		db.RemoveWatch(v, c.singletonHandles[i])
	}
	for i, h := range c.boundHandles {
		db.RemoveWatch(c.vars[i/2], h)
	}
}

func (c *AllDifferent) excludeSolved(db *engine.VariableDatabase, v engine.VarID) engine.Status {
	val := db.SolvedValue(v)
	for _, u := range c.vars {
		if u == v {
			continue
		}
		exclude := v
		if st := db.ExcludeValue(u, val, c.id, c.groupExplainer(exclude)); st == engine.Contradiction {
			return engine.Contradiction
		}
	}
	return engine.Ok
}

func (c *AllDifferent) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	if db.IsSolved(v) {
		if st := c.excludeSolved(db, v); st == engine.Contradiction {
			return false, false
		}
	}
	if c.strong {
		db.QueuePropagation(c.id)
	}
	return true, false
}

// groupExplainer is a deliberately conservative (sound but not minimal)
// explanation: the full current domain of every other variable in the
// group, plus the solved variable's own value. An exact minimal
// explanation would trace the precise Hall set via MaxOccurrenceExplainer
// (as spec §4.6 calls for), which requires a bipartite matching; this
// constraint builds no matching at all (Propagate works from Hall
// intervals alone), so it falls back to the coarser whole-group
// explanation. See DESIGN.md.
func (c *AllDifferent) groupExplainer(cause engine.VarID) engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		out := make([]engine.Literal, 0, len(c.vars))
		for _, u := range c.vars {
			out = append(out, engine.Literal{Var: u, Values: db.GetPotential(u)}.Opposite())
		}
		return out
	}
}

func (c *AllDifferent) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	return c.groupExplainer(engine.InvalidVar)(db)
}

func (c *AllDifferent) CheckConflicting(db *engine.VariableDatabase) bool {
	for i, v := range c.vars {
		if !db.IsSolved(v) {
			continue
		}
		val := db.SolvedValue(v)
		for _, u := range c.vars[i+1:] {
			if db.IsSolved(u) && db.SolvedValue(u) == val {
				return true
			}
		}
	}
	return false
}

// Propagate runs Hall-interval bounds consistency in both directions
// (spec §4.6 strong mode), then runs the weak (solved-value) propagation
// on any variable that became solved as a side effect.
func (c *AllDifferent) Propagate(db *engine.VariableDatabase) engine.Status {
	domainSize := 0
	for _, v := range c.vars {
		if s := db.DomainSize(v); s > domainSize {
			domainSize = s
		}
	}

	capOf := func(v int) int {
		if v < 0 || v >= domainSize {
			return 0
		}
		return 1
	}

	varByKey := make(map[int]engine.VarID, len(c.vars))
	intervals := make([]hallival.Interval, 0, len(c.vars))
	for i, v := range c.vars {
		if db.IsSolved(v) {
			continue
		}
		varByKey[i] = v
		intervals = append(intervals, hallival.Interval{Key: i, Min: db.GetMin(v), Max: db.GetMax(v)})
	}

	newlySolved := map[engine.VarID]bool{}
	failed := false

	onLowerPrune := func(key, newMin int) bool {
		v := varByKey[key]
		before := db.IsSolved(v)
		status := db.ExcludeLessThan(v, newMin, c.id, c.groupExplainer(v))
		if status == engine.Contradiction {
			failed = true
		} else if !before && db.IsSolved(v) {
			newlySolved[v] = true
		}
		return true
	}
	if !hallival.Prune(intervals, capOf, onLowerPrune) || failed {
		return engine.Contradiction
	}

	inverted := hallival.Invert(intervals)
	invertedCapOf := func(v int) int { return capOf(-v) }
	onUpperPrune := func(key, newMin int) bool {
		v := varByKey[key]
		before := db.IsSolved(v)
		status := db.ExcludeGreaterThan(v, -newMin, c.id, c.groupExplainer(v))
		if status == engine.Contradiction {
			failed = true
		} else if !before && db.IsSolved(v) {
			newlySolved[v] = true
		}
		return true
	}
	if !hallival.Prune(inverted, invertedCapOf, onUpperPrune) || failed {
		return engine.Contradiction
	}

	for v := range newlySolved {
		if st := c.excludeSolved(db, v); st == engine.Contradiction {
			return engine.Contradiction
		}
	}
	return engine.Ok
}
