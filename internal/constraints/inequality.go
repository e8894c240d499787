package constraints

import "github.com/domainkit/fdsolver/internal/engine"

// InequalityOp names a comparison operator between two variables.
type InequalityOp int

const (
	LessThan InequalityOp = iota
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	Equal
	NotEqual
)

// Inequality constrains `a op b` (spec SUPPLEMENTED FEATURES §5, grounded
// on original_source/vertexy/src/private/constraints/InequalityConstraint.cpp).
// Propagation is bounds-consistency only: incompatible bound combinations
// are excluded, but != and == get no arc-consistency beyond the singleton
// case (matching the original's scope).
type Inequality struct {
	id   engine.ConstraintID
	a, b engine.VarID
	op   InequalityOp

	handleA, handleB engine.WatchHandle
}

// NewInequality returns a constructor usable with Driver.Install.
func NewInequality(a engine.VarID, op InequalityOp, b engine.VarID) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Inequality{id: id, a: a, b: b, op: op}
	}
}

func (c *Inequality) ID() engine.ConstraintID { return c.id }

func (c *Inequality) Initialize(db *engine.VariableDatabase) engine.Status {
	c.handleA = db.WatchAnyChange(c.a, c.id)
	c.handleB = db.WatchAnyChange(c.b, c.id)
	db.QueuePropagation(c.id)
	return engine.Ok
}

func (c *Inequality) Reset(db *engine.VariableDatabase) {
	db.RemoveWatch(c.a, c.handleA)
	db.RemoveWatch(c.b, c.handleB)
}

func (c *Inequality) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	db.QueuePropagation(c.id)
	return true, false
}

func (c *Inequality) explainer() engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		return []engine.Literal{
			engine.Literal{Var: c.a, Values: db.GetPotential(c.a)}.Opposite(),
			engine.Literal{Var: c.b, Values: db.GetPotential(c.b)}.Opposite(),
		}
	}
}

// Propagate tightens each variable's bounds against the other's current
// bounds according to op.
func (c *Inequality) Propagate(db *engine.VariableDatabase) engine.Status {
	aMin, aMax := db.GetMin(c.a), db.GetMax(c.a)
	bMin, bMax := db.GetMin(c.b), db.GetMax(c.b)

	fail := false
	excludeAGE := func(bound int) {
		if st := db.ExcludeLessThan(c.a, bound, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	}
	excludeALE := func(bound int) {
		if st := db.ExcludeGreaterThan(c.a, bound, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	}
	excludeBGE := func(bound int) {
		if st := db.ExcludeLessThan(c.b, bound, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	}
	excludeBLE := func(bound int) {
		if st := db.ExcludeGreaterThan(c.b, bound, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	}

	switch c.op {
	case LessThan:
		excludeAGE(0)
		excludeALE(bMax - 1)
		excludeBGE(aMin + 1)
	case LessOrEqual:
		excludeALE(bMax)
		excludeBGE(aMin)
	case GreaterThan:
		excludeAGE(bMin + 1)
		excludeBLE(aMax - 1)
	case GreaterOrEqual:
		excludeAGE(bMin)
		excludeBLE(aMax)
	case Equal:
		lo, hi := aMin, aMax
		if bMin > lo {
			lo = bMin
		}
		if bMax < hi {
			hi = bMax
		}
		excludeALE(hi)
		excludeAGE(lo)
		excludeBLE(hi)
		excludeBGE(lo)
	case NotEqual:
		if db.IsSolved(c.a) {
			if st := db.ExcludeValue(c.b, db.SolvedValue(c.a), c.id, c.explainer()); st == engine.Contradiction {
				fail = true
			}
		}
		if db.IsSolved(c.b) {
			if st := db.ExcludeValue(c.a, db.SolvedValue(c.b), c.id, c.explainer()); st == engine.Contradiction {
				fail = true
			}
		}
	}

	if fail {
		return engine.Contradiction
	}
	return engine.Ok
}

func (c *Inequality) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	return c.explainer()(db)
}

func (c *Inequality) CheckConflicting(db *engine.VariableDatabase) bool {
	if !db.IsSolved(c.a) || !db.IsSolved(c.b) {
		return false
	}
	av, bv := db.SolvedValue(c.a), db.SolvedValue(c.b)
	switch c.op {
	case LessThan:
		return !(av < bv)
	case LessOrEqual:
		return !(av <= bv)
	case GreaterThan:
		return !(av > bv)
	case GreaterOrEqual:
		return !(av >= bv)
	case Equal:
		return av != bv
	case NotEqual:
		return av == bv
	}
	return false
}
