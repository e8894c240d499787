package solver

import (
	"testing"

	"github.com/domainkit/fdsolver/internal/bitset"
	"github.com/domainkit/fdsolver/internal/engine"
)

func lit(v VarID, size int, values ...int) engine.Literal {
	vs := bitset.New(size)
	for _, x := range values {
		vs.Set(x)
	}
	return engine.Literal{Var: v, Values: vs}
}

func TestSolver_UnitClauseEndToEnd(t *testing.T) {
	s := New(DefaultOptions())
	a, err := s.NewVariable("a", 2)
	if err != nil {
		t.Fatalf("NewVariable: %v", err)
	}
	b, err := s.NewVariable("b", 2)
	if err != nil {
		t.Fatalf("NewVariable: %v", err)
	}
	if _, err := s.AddClause([]engine.Literal{lit(a, 2, 0), lit(b, 2, 0)}); err != nil {
		t.Fatalf("AddClause (a=0 v b=0): %v", err)
	}
	if _, err := s.AddClause([]engine.Literal{lit(a, 2, 1)}); err != nil {
		t.Fatalf("AddClause (a=1): %v", err)
	}

	if result := s.Solve(1); result != Solved {
		t.Fatalf("Solve() = %v, want Solved", result)
	}
	if s.Value(a) != 1 || s.Value(b) != 0 {
		t.Fatalf("a=%d b=%d, want a=1 b=0", s.Value(a), s.Value(b))
	}
}

func TestSolver_ContradictoryUnitClausesAreUnsatisfiable(t *testing.T) {
	s := New(DefaultOptions())
	a, _ := s.NewVariable("a", 2)
	if _, err := s.AddClause([]engine.Literal{lit(a, 2, 0)}); err != nil {
		t.Fatalf("AddClause (a=0): %v", err)
	}
	_, err := s.AddClause([]engine.Literal{lit(a, 2, 1)})
	if err == nil {
		t.Fatalf("AddClause (a=1) contradicting the earlier unit clause (a=0) should fail")
	}
}

func TestSolver_AllDifferentFindsPermutation(t *testing.T) {
	s := New(DefaultOptions())
	vars := make([]VarID, 4)
	for i := range vars {
		v, err := s.NewVariable("v", 4)
		if err != nil {
			t.Fatalf("NewVariable: %v", err)
		}
		vars[i] = v
	}
	if _, err := s.AddAllDifferent(vars, true); err != nil {
		t.Fatalf("AddAllDifferent: %v", err)
	}
	if result := s.Solve(42); result != Solved {
		t.Fatalf("Solve() = %v, want Solved", result)
	}
	seen := map[int]bool{}
	for _, v := range vars {
		val := s.Value(v)
		if seen[val] {
			t.Fatalf("value %d used twice", val)
		}
		seen[val] = true
	}
}

func TestSolver_NewVariableRejectsEmptyDomain(t *testing.T) {
	s := New(DefaultOptions())
	if _, err := s.NewVariable("x", 0); err == nil {
		t.Fatalf("NewVariable with size 0 should return an InvalidModelError")
	}
}

func TestSolver_ReferencingUnknownVariableIsRejected(t *testing.T) {
	s := New(DefaultOptions())
	a, _ := s.NewVariable("a", 2)
	bogus := a + 100
	if _, err := s.AddInequality(a, Equal, bogus); err == nil {
		t.Fatalf("AddInequality referencing an unknown variable should fail")
	}
}

func TestSolver_CardinalityBoundOutOfRangeIsRejected(t *testing.T) {
	s := New(DefaultOptions())
	a, _ := s.NewVariable("a", 3)
	b, _ := s.NewVariable("b", 3)
	_, err := s.AddCardinality([]VarID{a, b}, 3, map[int]Bound{5: {Min: 0, Max: 1}})
	if err == nil {
		t.Fatalf("AddCardinality with an out-of-range value should fail")
	}
}

func TestSolver_DeterministicSeedReproducesTheSameSolution(t *testing.T) {
	build := func() (*Solver, []VarID) {
		s := New(DefaultOptions())
		vars := make([]VarID, 5)
		for i := range vars {
			vars[i], _ = s.NewVariable("v", 5)
		}
		s.AddAllDifferent(vars, true)
		return s, vars
	}

	s1, vars1 := build()
	if result := s1.Solve(7); result != Solved {
		t.Fatalf("first Solve() = %v, want Solved", result)
	}
	s2, vars2 := build()
	if result := s2.Solve(7); result != Solved {
		t.Fatalf("second Solve() = %v, want Solved", result)
	}
	for i := range vars1 {
		if s1.Value(vars1[i]) != s2.Value(vars2[i]) {
			t.Fatalf("same seed produced different assignments at index %d: %d vs %d", i, s1.Value(vars1[i]), s2.Value(vars2[i]))
		}
	}
}
