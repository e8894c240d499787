package constraints

import (
	"testing"

	"github.com/domainkit/fdsolver/internal/engine"
)

func TestIff_SolvingOneSideForcesTheOther(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariable("a", 2)
	b := d.NewVariable("b", 2)
	if _, status := d.Install(NewIff(a, b)); status == engine.Contradiction {
		t.Fatalf("installing Iff(a,b) contradicted immediately")
	}

	if status := d.DB().ExcludeValue(a, 1, engine.InvalidConstraint, nil); status == engine.Contradiction {
		t.Fatalf("forcing a=0 should not contradict")
	}
	if !d.DB().IsSolved(b) || d.DB().SolvedValue(b) != 0 {
		t.Fatalf("b should have been forced to 0 once a=0, got solved=%v", d.DB().GetPotential(b))
	}
}

func TestIff_AlreadySolvedAtInstallTimePropagatesImmediately(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 2, []int{1})
	b := d.NewVariable("b", 2)
	if _, status := d.Install(NewIff(a, b)); status == engine.Contradiction {
		t.Fatalf("installing Iff(a,b) contradicted immediately")
	}
	if !d.DB().IsSolved(b) || d.DB().SolvedValue(b) != 1 {
		t.Fatalf("b should be forced to 1 at install time since a is already solved to 1")
	}
}

func TestIff_ConflictingValuesAreInfeasible(t *testing.T) {
	d := engine.NewDriver(engine.DefaultOptions())
	a := d.NewVariableWithDomain("a", 2, []int{0})
	b := d.NewVariableWithDomain("b", 2, []int{1})
	_, status := d.Install(NewIff(a, b))
	if status != engine.Contradiction {
		t.Fatalf("installing Iff(a,b) with a=0 b=1 should contradict, got %v", status)
	}
}
