package constraints

import "github.com/domainkit/fdsolver/internal/engine"

// SumTarget is either a fixed constant or another variable (spec
// SUPPLEMENTED FEATURES §5: "target may be a constant or another
// variable").
type SumTarget struct {
	Var   engine.VarID // InvalidVar if Const is used
	Const int
}

// ConstTarget returns a SumTarget pinned to a constant value.
func ConstTarget(v int) SumTarget { return SumTarget{Var: engine.InvalidVar, Const: v} }

// VarTarget returns a SumTarget equal to another variable's value.
func VarTarget(v engine.VarID) SumTarget { return SumTarget{Var: v} }

func (t SumTarget) bounds(db *engine.VariableDatabase) (min, max int) {
	if !t.Var.IsValid() {
		return t.Const, t.Const
	}
	return db.GetMin(t.Var), db.GetMax(t.Var)
}

// Sum constrains Σvars == target (spec SUPPLEMENTED FEATURES §5, grounded
// on original_source/vertexy/src/private/constraints/SumConstraint.cpp).
// Propagation is bounds arithmetic over the sum of mins/maxes: each term
// (including the target, if it is a variable) is tightened against what
// the others' current bounds require.
type Sum struct {
	id     engine.ConstraintID
	vars   []engine.VarID
	target SumTarget

	handles       []engine.WatchHandle
	targetHandle  engine.WatchHandle
	hasTargetVar  bool
}

// NewSum returns a constructor usable with Driver.Install.
func NewSum(vars []engine.VarID, target SumTarget) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Sum{id: id, vars: append([]engine.VarID(nil), vars...), target: target}
	}
}

func (c *Sum) ID() engine.ConstraintID { return c.id }

func (c *Sum) Initialize(db *engine.VariableDatabase) engine.Status {
	c.handles = make([]engine.WatchHandle, len(c.vars))
	for i, v := range c.vars {
		c.handles[i] = db.WatchAnyChange(v, c.id)
	}
	if c.target.Var.IsValid() {
		c.hasTargetVar = true
		c.targetHandle = db.WatchAnyChange(c.target.Var, c.id)
	}
	db.QueuePropagation(c.id)
	return engine.Ok
}

func (c *Sum) Reset(db *engine.VariableDatabase) {
	for i, v := range c.vars {
		db.RemoveWatch(v, c.handles[i])
	}
	if c.hasTargetVar {
		db.RemoveWatch(c.target.Var, c.targetHandle)
	}
}

func (c *Sum) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	db.QueuePropagation(c.id)
	return true, false
}

func (c *Sum) explainer() engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		out := make([]engine.Literal, 0, len(c.vars)+1)
		for _, v := range c.vars {
			out = append(out, engine.Literal{Var: v, Values: db.GetPotential(v)}.Opposite())
		}
		if c.hasTargetVar {
			out = append(out, engine.Literal{Var: c.target.Var, Values: db.GetPotential(c.target.Var)}.Opposite())
		}
		return out
	}
}

// Propagate tightens every term (and the target, if a variable) against
// the sum of the others' current bounds.
func (c *Sum) Propagate(db *engine.VariableDatabase) engine.Status {
	sumMin, sumMax := 0, 0
	mins := make([]int, len(c.vars))
	maxs := make([]int, len(c.vars))
	for i, v := range c.vars {
		mins[i], maxs[i] = db.GetMin(v), db.GetMax(v)
		sumMin += mins[i]
		sumMax += maxs[i]
	}
	targetMin, targetMax := c.target.bounds(db)

	fail := false
	for i, v := range c.vars {
		restMin := sumMin - mins[i]
		restMax := sumMax - maxs[i]
		lo := targetMin - restMax
		hi := targetMax - restMin
		if st := db.ExcludeLessThan(v, lo, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
		if st := db.ExcludeGreaterThan(v, hi, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	}
	if c.hasTargetVar {
		if st := db.ExcludeLessThan(c.target.Var, sumMin, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
		if st := db.ExcludeGreaterThan(c.target.Var, sumMax, c.id, c.explainer()); st == engine.Contradiction {
			fail = true
		}
	} else if sumMin > c.target.Const || sumMax < c.target.Const {
		fail = true
	}

	if fail {
		return engine.Contradiction
	}
	return engine.Ok
}

func (c *Sum) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	return c.explainer()(db)
}

func (c *Sum) CheckConflicting(db *engine.VariableDatabase) bool {
	sum := 0
	for _, v := range c.vars {
		if !db.IsSolved(v) {
			return false
		}
		sum += db.SolvedValue(v)
	}
	if c.hasTargetVar {
		if !db.IsSolved(c.target.Var) {
			return false
		}
		return sum != db.SolvedValue(c.target.Var)
	}
	return sum != c.target.Const
}
