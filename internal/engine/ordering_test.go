package engine

import (
	"math/rand"
	"testing"
)

func TestVarOrder_PickDecisionSkipsSolvedVariables(t *testing.T) {
	registry := &testRegistry{}
	db := NewVariableDatabase(registry)
	a := db.NewVariableWithDomain("a", 2, []int{0})
	b := db.NewVariable("b", 2)

	order := NewVarOrder(0.95, true)
	order.AddVar()
	order.AddVar()
	order.bump(a)
	order.bump(a)
	order.bump(b)

	v, _, ok := order.PickDecision(db)
	if !ok {
		t.Fatalf("PickDecision reported no variable left, want b")
	}
	if v != b {
		t.Fatalf("PickDecision picked var %d, want b (%d): a is already solved and should be skipped", v, b)
	}
}

func TestVarOrder_PickDecisionReturnsFalseOnceAllSolved(t *testing.T) {
	registry := &testRegistry{}
	db := NewVariableDatabase(registry)
	db.NewVariableWithDomain("a", 2, []int{0})

	order := NewVarOrder(0.95, true)
	order.AddVar()

	if _, _, ok := order.PickDecision(db); ok {
		t.Fatalf("PickDecision should report no variable left: the only variable is already solved")
	}
}

func TestVarOrder_PhaseSavingRemembersLastSolvedValue(t *testing.T) {
	registry := &testRegistry{}
	db := NewVariableDatabase(registry)
	a := db.NewVariableWithDomain("a", 3, []int{0, 1, 2})

	order := NewVarOrder(0.95, true)
	order.AddVar()

	if status := db.Narrow(a, db.GetPotential(a), InvalidConstraint, nil); status == Contradiction {
		t.Fatalf("narrowing to the same domain should not contradict")
	}
	if status := db.ExcludeValue(a, 1, InvalidConstraint, nil); status == Contradiction {
		t.Fatalf("excluding 1 should not contradict")
	}
	if status := db.ExcludeValue(a, 0, InvalidConstraint, nil); status == Contradiction {
		t.Fatalf("excluding 0 should not contradict")
	}
	if !db.IsSolved(a) || db.SolvedValue(a) != 2 {
		t.Fatalf("a should be solved to 2 after excluding 0 and 1")
	}

	order.OnVariableUnassigned(db, a)
	if order.phases[order.idx(a)] != 2 {
		t.Fatalf("phases[a] = %d, want 2 (the value a was solved to before unassignment)", order.phases[order.idx(a)])
	}
}

func TestVarOrder_BumpEventuallyTriggersRescale(t *testing.T) {
	registry := &testRegistry{}
	db := NewVariableDatabase(registry)
	a := db.NewVariable("a", 2)

	order := NewVarOrder(0.95, true)
	order.AddVar()

	order.scores[order.idx(a)] = 1e100
	order.scoreInc = 1e100
	order.bump(a) // 1e100 + 1e100 = 2e100 passes the 1e100 threshold, triggering rescale

	if got := order.scores[order.idx(a)]; got < 1.5 || got > 2.5 {
		t.Fatalf("score after rescale = %f, want ~2 (rescale multiplies 2e100 by 1e-100)", got)
	}
}

func TestVarOrder_SeedIsDeterministicForTheSameRNGSequence(t *testing.T) {
	order1 := NewVarOrder(0.95, true)
	order2 := NewVarOrder(0.95, true)
	for i := 0; i < 5; i++ {
		order1.AddVar()
		order2.AddVar()
	}

	order1.Seed(rand.New(rand.NewSource(42)))
	order2.Seed(rand.New(rand.NewSource(42)))

	for i := range order1.scores {
		if order1.scores[i] != order2.scores[i] {
			t.Fatalf("score[%d] differs between two Seed calls with the same source seed: %f vs %f", i, order1.scores[i], order2.scores[i])
		}
	}
}

func TestVarOrder_DecayActivityGrowsScoreIncrement(t *testing.T) {
	order := NewVarOrder(0.95, true)
	before := order.scoreInc
	order.DecayActivity()
	if order.scoreInc <= before {
		t.Fatalf("scoreInc = %f, want > %f after DecayActivity (dividing by decay < 1 grows it)", order.scoreInc, before)
	}
}
