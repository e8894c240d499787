// Package engine implements the propagation/learning core described by the
// solver specification: the variable database (bitset domains, trail, watch
// dispatch), the propagation driver, the conflict analyzer, and the
// two-watched-literal clause constraint. It is grounded on yass's
// internal/sat package (github.com/rhartert/yass), generalized from
// boolean SAT literals to finite-domain ValueSet literals.
package engine

// VarID identifies a variable. 0 is reserved as the invalid id, matching
// spec's data model ("reserving 0 as invalid"). Variables are created in
// increasing order starting at 1.
type VarID int

// InvalidVar is the reserved invalid variable id.
const InvalidVar VarID = 0

// IsValid reports whether v refers to an actual variable.
func (v VarID) IsValid() bool { return v != InvalidVar }

// ConstraintID identifies a constraint registered with the solver. Trail
// entries and watch tables reference constraints by id so that the
// constraint arena can, in principle, be compacted without invalidating
// the trail (spec §9).
type ConstraintID int

// InvalidConstraint is the reserved invalid constraint id (used for trail
// entries caused by a decision rather than a propagation).
const InvalidConstraint ConstraintID = 0

// IsValid reports whether c refers to an actual constraint.
func (c ConstraintID) IsValid() bool { return c != InvalidConstraint }

// WatchHandle identifies a previously registered Watch so it can be
// removed. Handles are stable for the life of the watch (spec §3).
type WatchHandle int
