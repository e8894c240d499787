package constraints

import (
	"github.com/domainkit/fdsolver/internal/bitset"
	"github.com/domainkit/fdsolver/internal/engine"
)

// Iff constrains two single-bit (0/1 domain) variables to be equal (spec
// SUPPLEMENTED FEATURES §5, grounded on
// original_source/vertexy/src/private/constraints/IffConstraint.cpp, which
// notes IffConstraint is a thin convenience over two implications, a ∨ ¬b
// and ¬a ∨ b). Rather than installing two ClauseConstraints this
// propagates the same pair of implications directly: whichever side
// becomes singleton first forces the other to the same value.
type Iff struct {
	id   engine.ConstraintID
	a, b engine.VarID

	handleA, handleB engine.WatchHandle
}

// NewIff returns a constructor usable with Driver.Install. a and b must
// both have domain size 2.
func NewIff(a, b engine.VarID) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Iff{id: id, a: a, b: b}
	}
}

func (c *Iff) ID() engine.ConstraintID { return c.id }

func (c *Iff) Initialize(db *engine.VariableDatabase) engine.Status {
	c.handleA = db.WatchBecameSingleton(c.a, c.id)
	c.handleB = db.WatchBecameSingleton(c.b, c.id)
	if db.IsSolved(c.a) {
		if st := c.forceEqual(db, c.a, c.b); st == engine.Contradiction {
			return engine.Contradiction
		}
	} else if db.IsSolved(c.b) {
		if st := c.forceEqual(db, c.b, c.a); st == engine.Contradiction {
			return engine.Contradiction
		}
	}
	return engine.Ok
}

func (c *Iff) Reset(db *engine.VariableDatabase) {
	db.RemoveWatch(c.a, c.handleA)
	db.RemoveWatch(c.b, c.handleB)
}

func (c *Iff) explainer(known engine.VarID) engine.Explainer {
	return func(db *engine.VariableDatabase) []engine.Literal {
		return []engine.Literal{engine.Literal{Var: known, Values: db.GetPotential(known)}.Opposite()}
	}
}

func (c *Iff) forceEqual(db *engine.VariableDatabase, known, other engine.VarID) engine.Status {
	val := db.SolvedValue(known)
	return db.Narrow(other, bitset.Single(db.DomainSize(other), val), c.id, c.explainer(known))
}

func (c *Iff) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	var known, other engine.VarID
	if v == c.a {
		known, other = c.a, c.b
	} else {
		known, other = c.b, c.a
	}
	if db.IsSolved(other) {
		return true, false
	}
	status := c.forceEqual(db, known, other)
	return status == engine.Ok, false
}

func (c *Iff) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	if db.IsSolved(c.a) {
		return c.explainer(c.a)(db)
	}
	return c.explainer(c.b)(db)
}

func (c *Iff) CheckConflicting(db *engine.VariableDatabase) bool {
	return db.IsSolved(c.a) && db.IsSolved(c.b) && db.SolvedValue(c.a) != db.SolvedValue(c.b)
}
