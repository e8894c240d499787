package engine

import (
	"testing"

	"github.com/domainkit/fdsolver/internal/bitset"
)

func lit(v VarID, size int, values ...int) Literal {
	vs := bitset.New(size)
	for _, x := range values {
		vs.Set(x)
	}
	return Literal{Var: v, Values: vs}
}

// Scenario 1 (spec §8): a,b in {0,1}, clause (a=0 ∨ b=0), clause (a=1).
// Solve must reach a=1, b=0.
func TestDriver_UnitClause(t *testing.T) {
	d := NewDriver(DefaultOptions())
	a := d.NewVariable("a", 2)
	b := d.NewVariable("b", 2)

	if _, status := d.Install(func(id ConstraintID) Constraint {
		return NewClauseConstraint(id, []Literal{lit(a, 2, 0), lit(b, 2, 0)})
	}); status == Contradiction {
		t.Fatalf("installing clause (a=0 v b=0) failed immediately")
	}
	if _, status := d.Install(func(id ConstraintID) Constraint {
		return NewClauseConstraint(id, []Literal{lit(a, 2, 1)})
	}); status == Contradiction {
		t.Fatalf("installing unit clause (a=1) failed immediately")
	}

	result := d.Solve(1)
	if result != Solved {
		t.Fatalf("Solve() = %v, want Solved", result)
	}
	if d.DB().SolvedValue(a) != 1 {
		t.Fatalf("a = %d, want 1", d.DB().SolvedValue(a))
	}
	if d.DB().SolvedValue(b) != 0 {
		t.Fatalf("b = %d, want 0", d.DB().SolvedValue(b))
	}
}

// Scenario 6 (spec §8): a 3-variable SAT problem whose conflict resolves
// entirely within a single decision level, producing a unit learned
// clause — LBD 1, backtrack target 0. Clauses: (a=1 v b=1), (a=1 v c=1),
// (b=0 v c=0). Deciding a=0 makes the first clause propagate b=1, the
// third clause then propagates c=0, which falsifies the second clause;
// resolving through both propagation reasons collapses back to the single
// decision, since every antecedent shares its level.
func TestConflictAnalyzer_UnitLearnedClauseFromSingleLevelConflict(t *testing.T) {
	registry := &testRegistry{}
	db := NewVariableDatabase(registry)
	a := db.NewVariable("a", 2)
	b := db.NewVariable("b", 2)
	c := db.NewVariable("c", 2)

	c1 := NewClauseConstraint(1, []Literal{lit(a, 2, 1), lit(b, 2, 1)})
	c2 := NewClauseConstraint(2, []Literal{lit(a, 2, 1), lit(c, 2, 1)})
	c3 := NewClauseConstraint(3, []Literal{lit(b, 2, 0), lit(c, 2, 0)})
	registry.constraints = append(registry.constraints, c1, c2, c3)
	for _, cl := range []*ClauseConstraint{c1, c2, c3} {
		if status := cl.Initialize(db); status == Contradiction {
			t.Fatalf("clause %d installed contradicted", cl.ID())
		}
	}

	order := NewVarOrder(0.95, true)
	analyzer := NewConflictAnalyzer()
	for i := 0; i < 3; i++ {
		order.AddVar()
		analyzer.Grow()
	}

	db.PushDecisionLevel()
	status := db.Narrow(a, bitset.Single(2, 0), InvalidConstraint, nil)
	if status != Contradiction {
		t.Fatalf("deciding a=0 should cascade through propagation into a conflict, got %v", status)
	}

	lits, backtrackLevel, lbd := analyzer.Analyze(db, order)
	if lbd != 1 {
		t.Fatalf("lbd = %d, want 1", lbd)
	}
	if backtrackLevel != 0 {
		t.Fatalf("backtrackLevel = %d, want 0", backtrackLevel)
	}
	if len(lits) != 1 {
		t.Fatalf("learned clause = %v, want exactly one (unit) literal", lits)
	}
	if lits[0].Var != a {
		t.Fatalf("learned unit literal is about var %d, want a (%d)", lits[0].Var, a)
	}
}

type testRegistry struct {
	constraints []Constraint
}

func (r *testRegistry) Resolve(id ConstraintID) Constraint {
	if !id.IsValid() || int(id) > len(r.constraints) {
		return nil
	}
	return r.constraints[id-1]
}

func (r *testRegistry) Enqueue(id ConstraintID) {}
