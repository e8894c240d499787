package constraints

import (
	"testing"

	"github.com/domainkit/fdsolver/internal/bitset"
	"github.com/domainkit/fdsolver/internal/engine"
)

// Scenario 3 (spec §8): an exact cardinality bound (value 0 must occur
// exactly twice among three binary variables) forces the third variable
// away from 0.
func TestCardinality_ExactBoundForcesRemainingVariable(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 2, []int{0})
	b := d.NewVariableWithDomain("b", 2, []int{0})
	c := d.NewVariable("c", 2)

	bounds := map[int]Bound{0: {Min: 2, Max: 2}}
	id, status := d.Install(NewCardinality([]engine.VarID{a, b, c}, 2, bounds))
	if status == engine.Contradiction {
		t.Fatalf("installing Cardinality contradicted immediately")
	}
	if status := d.Resolve(id).(*Cardinality).Propagate(d.DB()); status == engine.Contradiction {
		t.Fatalf("Propagate contradicted unexpectedly")
	}
	if d.DB().IsPossible(c, 0) {
		t.Fatalf("c=0 should have been excluded: value 0 already saturates its max of 2")
	}
}

func TestCardinality_MinimumUnreachableIsUnsatisfiable(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 2, []int{1})
	b := d.NewVariableWithDomain("b", 2, []int{1})

	bounds := map[int]Bound{0: {Min: 1, Max: 2}}
	id, status := d.Install(NewCardinality([]engine.VarID{a, b}, 2, bounds))
	if status == engine.Contradiction {
		return
	}
	if status := d.Resolve(id).(*Cardinality).Propagate(d.DB()); status != engine.Contradiction {
		t.Fatalf("Propagate with an unreachable minimum should contradict, got %v", status)
	}
}

func TestCardinality_CheckConflictingDetectsExcessCount(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 2, []int{0})
	b := d.NewVariable("b", 2)

	bounds := map[int]Bound{0: {Min: 0, Max: 1}}
	id, status := d.Install(NewCardinality([]engine.VarID{a, b}, 2, bounds))
	if status == engine.Contradiction {
		t.Fatalf("installing Cardinality contradicted immediately")
	}
	card := d.Resolve(id).(*Cardinality)
	if card.CheckConflicting(d.DB()) {
		t.Fatalf("CheckConflicting should be false before b is solved")
	}
	// Force b=0 directly, bypassing propagation, to inspect the raw
	// CheckConflicting poll the way Disjunction relies on it.
	if status := d.DB().Narrow(b, bitset.Single(2, 0), engine.InvalidConstraint, nil); status == engine.Contradiction {
		t.Fatalf("narrowing b to 0 should not itself contradict")
	}
	if !card.CheckConflicting(d.DB()) {
		t.Fatalf("CheckConflicting should be true once both a and b are solved to 0, exceeding max=1")
	}
}
