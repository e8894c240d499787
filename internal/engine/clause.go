package engine

import (
	"fmt"
	"strings"
)

// clauseStatus mirrors yass's sat/clauses.go status bitmask
// (statusLearnt/statusProtected) rather than the older internal/sat
// boolean-field Clause; the bitmask version is the newer of the two
// retrieved teacher variants.
type clauseStatus uint8

const (
	statusLearnt clauseStatus = 1 << iota
	statusProtected
)

// ClauseConstraint is a disjunction of Literals, propagated with the
// classic two-watched-literal scheme generalized from boolean SAT
// literals to ValueSet literals (spec §4.4). Grounded on
// rhartert-yass/sat/clauses.go and internal/sat/clauses.go, merged into a
// single design since both retrieved teacher variants implement the same
// algorithm with minor bookkeeping differences.
type ClauseConstraint struct {
	id       ConstraintID
	literals []Literal
	status   clauseStatus

	activity float64
	lbd      int

	watchHandles [2]WatchHandle
	watchesSet   bool
}

// NewClauseConstraint returns a non-learned (originally stated) clause.
func NewClauseConstraint(id ConstraintID, literals []Literal) *ClauseConstraint {
	return &ClauseConstraint{id: id, literals: append([]Literal(nil), literals...)}
}

// NewLearnedClause returns a clause produced by the conflict analyzer.
// literals[0] must be the First-UIP literal and literals[1] the literal
// from the backtrack level, per spec §4.5.
func NewLearnedClause(id ConstraintID, literals []Literal, lbd int) *ClauseConstraint {
	return &ClauseConstraint{
		id:       id,
		literals: append([]Literal(nil), literals...),
		status:   statusLearnt,
		lbd:      lbd,
	}
}

func (c *ClauseConstraint) ID() ConstraintID { return c.id }

func (c *ClauseConstraint) IsLearnt() bool     { return c.status&statusLearnt != 0 }
func (c *ClauseConstraint) IsProtected() bool  { return c.status&statusProtected != 0 }
func (c *ClauseConstraint) Protect()           { c.status |= statusProtected }
func (c *ClauseConstraint) Unprotect()         { c.status &^= statusProtected }
func (c *ClauseConstraint) Activity() float64  { return c.activity }
func (c *ClauseConstraint) LBD() int           { return c.lbd }
func (c *ClauseConstraint) Literals() []Literal { return c.literals }

func (c *ClauseConstraint) BumpActivity(inc float64) { c.activity += inc }
func (c *ClauseConstraint) RescaleActivity(factor float64) { c.activity *= factor }

// possible reports whether literal l's value set still intersects the
// variable's current domain.
func possible(db *VariableDatabase, l Literal) bool {
	return db.AnyPossible(l.Var, l.Values)
}

// Initialize rearranges the clause so positions 0 and 1 hold the two most
// supported literals, unit-propagates if only one is supported, and fails
// if none are (spec §4.4).
func (c *ClauseConstraint) Initialize(db *VariableDatabase) Status {
	support := -1
	for i, l := range c.literals {
		if !possible(db, l) {
			continue
		}
		if support == -1 {
			c.literals[0], c.literals[i] = c.literals[i], c.literals[0]
			support = 0
		} else if support == 0 {
			c.literals[1], c.literals[i] = c.literals[i], c.literals[1]
			support = 1
			break
		}
	}

	switch support {
	case -1:
		return Contradiction
	case 0:
		l := c.literals[0]
		return db.Narrow(l.Var, l.Values, c.id, nil)
	default:
		c.watchHandles[0] = db.WatchDisjointFrom(c.literals[0].Var, c.literals[0].Values, c.id)
		c.watchHandles[1] = db.WatchDisjointFrom(c.literals[1].Var, c.literals[1].Values, c.id)
		c.watchesSet = true
		return Ok
	}
}

func (c *ClauseConstraint) Reset(db *VariableDatabase) {
	if !c.watchesSet {
		return
	}
	db.RemoveWatch(c.literals[0].Var, c.watchHandles[0])
	db.RemoveWatch(c.literals[1].Var, c.watchHandles[1])
	c.watchesSet = false
}

// OnVariableNarrowed implements the two-watched-literal update (spec
// §4.4). v is guaranteed to be the variable of one of the two watched
// positions, found by scanning (clauses rarely exceed a handful of
// literals in this domain, so a linear scan over the two watch slots is
// cheap and avoids a separate index map).
func (c *ClauseConstraint) OnVariableNarrowed(db *VariableDatabase, v VarID, previous Literal) (bool, bool) {
	i := 0
	if c.literals[0].Var != v {
		i = 1
	}
	j := 1 - i

	if possible(db, c.literals[i]) {
		return true, false
	}

	for k := 2; k < len(c.literals); k++ {
		if possible(db, c.literals[k]) {
			c.literals[i], c.literals[k] = c.literals[k], c.literals[i]
			c.watchHandles[i] = db.WatchDisjointFrom(c.literals[i].Var, c.literals[i].Values, c.id)
			return true, true
		}
	}

	lj := c.literals[j]
	status := db.Narrow(lj.Var, lj.Values, c.id, nil)
	return status == Ok, false
}

// Explain returns the clause's own literals: the disjunction that was
// falsified under the state at the time of the propagation or conflict
// being explained (spec §4.4).
func (c *ClauseConstraint) Explain(db *VariableDatabase, ctx ExplainContext) []Literal {
	out := make([]Literal, 0, len(c.literals))
	for _, l := range c.literals {
		if ctx.Propagated.Var.IsValid() && l.Var == ctx.Propagated.Var && !ctx.IsConflict {
			continue
		}
		out = append(out, l.Opposite())
	}
	return out
}

// CheckConflicting reports whether every literal is currently impossible.
func (c *ClauseConstraint) CheckConflicting(db *VariableDatabase) bool {
	for _, l := range c.literals {
		if possible(db, l) {
			return false
		}
	}
	return true
}

// Locked reports whether the clause is currently the recorded reason for
// its first watched literal's variable, and therefore cannot be deleted
// (spec §4.2). Equivalent to yass's `solver.reason[c.literals[0].VarID()]
// == c` lock check, expressed through CurrentReason since trail entries
// reference constraints by id (see DESIGN.md).
func (c *ClauseConstraint) Locked(db *VariableDatabase) bool {
	if len(c.literals) == 0 {
		return false
	}
	return db.CurrentReason(c.literals[0].Var) == c.id
}

func (c *ClauseConstraint) String() string {
	parts := make([]string, len(c.literals))
	for i, l := range c.literals {
		parts[i] = l.String()
	}
	return fmt.Sprintf("Clause#%d[%s]", c.id, strings.Join(parts, " ∨ "))
}
