package constraints

import (
	"testing"

	"github.com/domainkit/fdsolver/internal/engine"
)

func TestTable_ExcludesValuesWithNoSupportingTuple(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariable("a", 3)
	b := d.NewVariableWithDomain("b", 3, []int{0})

	tuples := [][]int{{0, 0}, {1, 0}}
	id, status := d.Install(NewTable([]engine.VarID{a, b}, tuples))
	if status == engine.Contradiction {
		t.Fatalf("installing Table contradicted immediately")
	}
	if status := d.Resolve(id).(*Table).Propagate(d.DB()); status == engine.Contradiction {
		t.Fatalf("Propagate contradicted unexpectedly")
	}
	if d.DB().IsPossible(a, 2) {
		t.Fatalf("a=2 has no supporting tuple once b=0, should be excluded")
	}
	if !d.DB().IsPossible(a, 0) || !d.DB().IsPossible(a, 1) {
		t.Fatalf("a=0 and a=1 are both supported and should remain possible")
	}
}

func TestTable_NoSupportingTupleIsUnsatisfiable(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 3, []int{2})
	b := d.NewVariableWithDomain("b", 3, []int{1})

	tuples := [][]int{{0, 0}, {1, 0}}
	id, status := d.Install(NewTable([]engine.VarID{a, b}, tuples))
	if status == engine.Contradiction {
		return
	}
	if status := d.Resolve(id).(*Table).Propagate(d.DB()); status != engine.Contradiction {
		t.Fatalf("Propagate with a=2,b=1 matching no tuple should contradict, got %v", status)
	}
}

func TestTable_CheckConflictingRequiresFullAssignment(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariable("a", 3)
	b := d.NewVariableWithDomain("b", 3, []int{0})

	tuples := [][]int{{0, 0}, {1, 0}}
	id, status := d.Install(NewTable([]engine.VarID{a, b}, tuples))
	if status == engine.Contradiction {
		t.Fatalf("installing Table contradicted immediately")
	}
	table := d.Resolve(id).(*Table)
	if table.CheckConflicting(d.DB()) {
		t.Fatalf("CheckConflicting should be false while a is unsolved")
	}
}
