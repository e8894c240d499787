// Package solver is the programmatic external interface spec §6 requires:
// a VariableFactory, a ConstraintFactory for every constraint kind, and a
// Solver facade over internal/engine.Driver. Grounded on the teacher's
// root-level main.go driving internal/sat.NewDefaultSolver() directly —
// the same shape, given a name, rather than an extra abstraction layer.
package solver

import (
	"fmt"

	"github.com/domainkit/fdsolver/internal/constraints"
	"github.com/domainkit/fdsolver/internal/engine"
)

// VarID identifies a variable created by a Solver.
type VarID = engine.VarID

// ConstraintID identifies a constraint installed on a Solver.
type ConstraintID = engine.ConstraintID

// Result is the tagged outcome of a Solve call (spec §6).
type Result int

const (
	Unknown Result = iota
	Solved
	Unsatisfiable
	Interrupted
)

func (r Result) String() string {
	switch r {
	case Solved:
		return "Solved"
	case Unsatisfiable:
		return "Unsatisfiable"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// Statistics mirrors spec §6's required statistics surface.
type Statistics struct {
	Decisions      int
	Propagations   int
	Conflicts      int
	LearnedClauses int
	Restarts       int
}

// Options configures solver tuning knobs (spec §9's "surfaced as explicit
// configuration" resolution of the Open Question on purge thresholds).
type Options = engine.Options

// DefaultOptions returns the tuning DefaultOptions in internal/engine uses.
func DefaultOptions() Options { return engine.DefaultOptions() }

// InvalidModelError reports a pre-solve modelling mistake (spec §7):
// a variable referenced before creation, an empty initial domain, or a
// constraint parameter out of bounds.
type InvalidModelError struct {
	Reason string
}

func (e *InvalidModelError) Error() string { return "invalid model: " + e.Reason }

// Bound is a per-value occurrence bound for Cardinality.
type Bound = constraints.Bound

// SumTarget names Sum's right-hand side: a constant or another variable.
type SumTarget = constraints.SumTarget

// ConstTarget and VarTarget build a SumTarget.
func ConstTarget(v int) SumTarget { return constraints.ConstTarget(v) }
func VarTarget(v VarID) SumTarget { return constraints.VarTarget(v) }

// InequalityOp names a comparison operator for Inequality.
type InequalityOp = constraints.InequalityOp

const (
	LessThan       = constraints.LessThan
	LessOrEqual    = constraints.LessOrEqual
	GreaterThan    = constraints.GreaterThan
	GreaterOrEqual = constraints.GreaterOrEqual
	Equal          = constraints.Equal
	NotEqual       = constraints.NotEqual
)

// Solver is the external facade: a VariableFactory, a ConstraintFactory
// for every kind spec §6 names, and the solve/value/statistics surface.
type Solver struct {
	driver   *engine.Driver
	domains  map[VarID]int // declared domain size; checkVar uses it to reject unknown variables
	solved   bool
	declared int // number of variables created
}

// New returns an empty Solver, ready to have variables and constraints
// added.
func New(opts Options) *Solver {
	return &Solver{
		driver:  engine.NewDriver(opts),
		domains: map[VarID]int{},
	}
}

// NewVariable creates a variable with domain [0, size) (spec §6's
// VariableFactory). name is for diagnostics only.
func (s *Solver) NewVariable(name string, size int) (VarID, error) {
	if size <= 0 {
		return engine.InvalidVar, &InvalidModelError{Reason: fmt.Sprintf("variable %q has empty initial domain", name)}
	}
	v := s.driver.NewVariable(name, size)
	s.domains[v] = size
	s.declared++
	return v, nil
}

// NewVariableWithDomain creates a variable whose initial domain is
// restricted to values (a subset of [0, size)).
func (s *Solver) NewVariableWithDomain(name string, size int, values []int) (VarID, error) {
	if len(values) == 0 {
		return engine.InvalidVar, &InvalidModelError{Reason: fmt.Sprintf("variable %q has empty initial domain", name)}
	}
	v := s.driver.NewVariableWithDomain(name, size, values)
	s.domains[v] = size
	s.declared++
	return v, nil
}

func (s *Solver) checkVar(v VarID) error {
	if _, ok := s.domains[v]; !ok {
		return &InvalidModelError{Reason: fmt.Sprintf("variable %d referenced before creation", v)}
	}
	return nil
}

func (s *Solver) checkVars(vs ...VarID) error {
	for _, v := range vs {
		if err := s.checkVar(v); err != nil {
			return err
		}
	}
	return nil
}

// AddClause adds a disjunction of literals, each (variable, allowed
// values).
func (s *Solver) AddClause(literals []engine.Literal) (ConstraintID, error) {
	for _, l := range literals {
		if err := s.checkVar(l.Var); err != nil {
			return engine.InvalidConstraint, err
		}
	}
	id, status := s.driver.Install(func(id engine.ConstraintID) engine.Constraint {
		return engine.NewClauseConstraint(id, literals)
	})
	return id, s.statusErr(status)
}

// AddAllDifferent adds an AllDifferent constraint over vars.
func (s *Solver) AddAllDifferent(vars []VarID, strong bool) (ConstraintID, error) {
	if err := s.checkVars(vars...); err != nil {
		return engine.InvalidConstraint, err
	}
	id, status := s.driver.Install(constraints.NewAllDifferent(vars, strong))
	return id, s.statusErr(status)
}

// AddCardinality adds a Cardinality constraint over vars with the given
// per-value occurrence bounds.
func (s *Solver) AddCardinality(vars []VarID, domainSize int, bounds map[int]Bound) (ConstraintID, error) {
	if err := s.checkVars(vars...); err != nil {
		return engine.InvalidConstraint, err
	}
	for val, b := range bounds {
		if val < 0 || val >= domainSize || b.Min < 0 || b.Max < b.Min {
			return engine.InvalidConstraint, &InvalidModelError{Reason: fmt.Sprintf("cardinality bound for value %d out of range", val)}
		}
	}
	id, status := s.driver.Install(constraints.NewCardinality(vars, domainSize, bounds))
	return id, s.statusErr(status)
}

// AddInequality adds an Inequality constraint `a op b`.
func (s *Solver) AddInequality(a VarID, op InequalityOp, b VarID) (ConstraintID, error) {
	if err := s.checkVars(a, b); err != nil {
		return engine.InvalidConstraint, err
	}
	id, status := s.driver.Install(constraints.NewInequality(a, op, b))
	return id, s.statusErr(status)
}

// AddSum adds a Sum constraint Σvars == target.
func (s *Solver) AddSum(vars []VarID, target SumTarget) (ConstraintID, error) {
	if err := s.checkVars(vars...); err != nil {
		return engine.InvalidConstraint, err
	}
	if target.Var.IsValid() {
		if err := s.checkVar(target.Var); err != nil {
			return engine.InvalidConstraint, err
		}
	}
	id, status := s.driver.Install(constraints.NewSum(vars, target))
	return id, s.statusErr(status)
}

// AddTable adds a Table constraint restricting vars to the given tuples.
func (s *Solver) AddTable(vars []VarID, tuples [][]int) (ConstraintID, error) {
	if err := s.checkVars(vars...); err != nil {
		return engine.InvalidConstraint, err
	}
	for _, t := range tuples {
		if len(t) != len(vars) {
			return engine.InvalidConstraint, &InvalidModelError{Reason: "table tuple arity mismatch"}
		}
	}
	id, status := s.driver.Install(constraints.NewTable(vars, tuples))
	return id, s.statusErr(status)
}

// AddIff adds an Iff constraint between two 0/1 variables.
func (s *Solver) AddIff(a, b VarID) (ConstraintID, error) {
	if err := s.checkVars(a, b); err != nil {
		return engine.InvalidConstraint, err
	}
	id, status := s.driver.Install(constraints.NewIff(a, b))
	return id, s.statusErr(status)
}

// AddDisjunction adds A ∨ B, given each side as an already-built
// constraint (not yet installed) and the variables it reads.
func (s *Solver) AddDisjunction(a, b engine.Constraint, aVars, bVars []VarID) (ConstraintID, error) {
	if err := s.checkVars(append(append([]VarID{}, aVars...), bVars...)...); err != nil {
		return engine.InvalidConstraint, err
	}
	id, status := s.driver.Install(constraints.NewDisjunction(a, b, aVars, bVars))
	return id, s.statusErr(status)
}

func (s *Solver) statusErr(status engine.Status) error {
	if status == engine.Contradiction {
		return fmt.Errorf("constraint unsatisfiable at install time")
	}
	return nil
}

// Solve runs search to completion (spec §6). seed deterministically seeds
// every tie-break.
func (s *Solver) Solve(seed uint64) Result {
	result := Result(s.driver.Solve(seed))
	s.solved = result == Solved
	return result
}

// Interrupt requests the running (or next) Solve call unwind to level 0
// and return Interrupted.
func (s *Solver) Interrupt() { s.driver.Interrupt() }

// Value returns v's solved value. Only meaningful after Solve returns
// Solved.
func (s *Solver) Value(v VarID) int {
	return s.driver.DB().SolvedValue(v)
}

// Statistics returns a snapshot of the running search statistics.
func (s *Solver) Statistics() Statistics {
	st := s.driver.Stats()
	return Statistics{
		Decisions:      st.Decisions,
		Propagations:   st.Propagations,
		Conflicts:      st.Conflicts,
		LearnedClauses: st.LearnedClauses,
		Restarts:       st.Restarts,
	}
}
