package constraints

import "github.com/domainkit/fdsolver/internal/engine"

// Table restricts vars to one of an explicit list of allowed tuples (spec
// §6's ConstraintFactory surface; spec.md §9 waves off the STR3
// incremental algorithm as peripheral but still requires a Table
// constraint kind to exist). Propagation here recounts support from
// scratch on every call rather than maintaining STR3's backtrack-stack
// and cursor-map incrementality: simple support-counting over the
// remaining tuples, generalized-arc-consistent but not sub-linear in the
// number of tuples. See DESIGN.md.
type Table struct {
	id     engine.ConstraintID
	vars   []engine.VarID
	tuples [][]int

	handles []engine.WatchHandle
}

// NewTable returns a constructor usable with Driver.Install. Every tuple
// must have len(vars) entries.
func NewTable(vars []engine.VarID, tuples [][]int) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Table{id: id, vars: append([]engine.VarID(nil), vars...), tuples: tuples}
	}
}

func (c *Table) ID() engine.ConstraintID { return c.id }

func (c *Table) Initialize(db *engine.VariableDatabase) engine.Status {
	c.handles = make([]engine.WatchHandle, len(c.vars))
	for i, v := range c.vars {
		c.handles[i] = db.WatchAnyChange(v, c.id)
	}
	db.QueuePropagation(c.id)
	return engine.Ok
}

func (c *Table) Reset(db *engine.VariableDatabase) {
	for i, v := range c.vars {
		db.RemoveWatch(v, c.handles[i])
	}
}

func (c *Table) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	db.QueuePropagation(c.id)
	return true, false
}

func (c *Table) tupleSupported(db *engine.VariableDatabase, t []int) bool {
	for i, v := range c.vars {
		if !db.IsPossible(v, t[i]) {
			return false
		}
	}
	return true
}

func (c *Table) explainer() engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		out := make([]engine.Literal, 0, len(c.vars))
		for _, v := range c.vars {
			out = append(out, engine.Literal{Var: v, Values: db.GetPotential(v)}.Opposite())
		}
		return out
	}
}

// Propagate counts, per (variable, value) pair still present in some
// variable's domain, whether any surviving tuple supports it, and
// excludes the ones that have lost all support.
func (c *Table) Propagate(db *engine.VariableDatabase) engine.Status {
	supported := make([]map[int]bool, len(c.vars))
	for i := range supported {
		supported[i] = map[int]bool{}
	}
	anyTuple := false
	for _, t := range c.tuples {
		if !c.tupleSupported(db, t) {
			continue
		}
		anyTuple = true
		for i, val := range t {
			supported[i][val] = true
		}
	}
	if !anyTuple {
		return engine.Contradiction
	}

	for i, v := range c.vars {
		for _, val := range db.GetPotential(v).Values() {
			if supported[i][val] {
				continue
			}
			if st := db.ExcludeValue(v, val, c.id, c.explainer()); st == engine.Contradiction {
				return engine.Contradiction
			}
		}
	}
	return engine.Ok
}

func (c *Table) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	return c.explainer()(db)
}

func (c *Table) CheckConflicting(db *engine.VariableDatabase) bool {
	allSolved := true
	tuple := make([]int, len(c.vars))
	for i, v := range c.vars {
		if !db.IsSolved(v) {
			allSolved = false
			break
		}
		tuple[i] = db.SolvedValue(v)
	}
	if !allSolved {
		return false
	}
	for _, t := range c.tuples {
		match := true
		for i := range t {
			if t[i] != tuple[i] {
				match = false
				break
			}
		}
		if match {
			return false
		}
	}
	return true
}
