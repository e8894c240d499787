package engine

// Status is the outcome of an operation that can fail by driving a
// variable's domain empty. It never panics on a domain failure -
// Contradiction is a return value, exactly like yass's Propagate()
// returning a non-nil conflicting *Clause rather than panicking (spec §7).
type Status int

const (
	// Ok indicates the operation completed without contradiction.
	Ok Status = iota
	// Contradiction indicates a variable's domain became empty.
	Contradiction
)

func (s Status) String() string {
	if s == Ok {
		return "Ok"
	}
	return "Contradiction"
}

// ExplainContext describes what a constraint is being asked to explain:
// either a specific literal it propagated (Propagated set, IsConflict
// false) or its own failure to hold given the current domains (IsConflict
// true, Propagated invalid).
type ExplainContext struct {
	Propagated Literal
	IsConflict bool
}

// Constraint is the capability set every constraint kind implements (spec
// §3). Constraints that need to be notified of narrowings also implement
// WatchSink; constraints queued for bulk propagation implement Propagator.
// The optional Backtracker interface below is not implemented by any
// constraint in this module.
type Constraint interface {
	// ID returns the constraint's unique dense id.
	ID() ConstraintID

	// Initialize installs watches and establishes initial consistency. It
	// is called exactly once, before any variable referenced by the
	// constraint is decided upon.
	Initialize(db *VariableDatabase) Status

	// Reset removes the constraint's watches. Called when the constraint
	// is being torn down (e.g. a disjunction side being replaced).
	Reset(db *VariableDatabase)

	// Explain returns the literals whose conjunction caused the
	// narrowing (or failure) described by ctx. The returned slice is
	// owned by the caller and must not be retained by the constraint.
	Explain(db *VariableDatabase, ctx ExplainContext) []Literal

	// CheckConflicting reports whether the constraint is currently
	// violated given the database's present domains, without mutating
	// anything. Used by DisjunctionConstraint.
	CheckConflicting(db *VariableDatabase) bool
}

// WatchSink receives narrowing notifications for variables it has
// registered a Watch on (spec §4.3).
type WatchSink interface {
	// OnVariableNarrowed is invoked when a watched trigger fires. It
	// returns ok=false on contradiction and removeWatch=true if this
	// watch entry should be unregistered.
	OnVariableNarrowed(db *VariableDatabase, v VarID, previous Literal) (ok bool, removeWatch bool)
}

// Propagator is implemented by constraints that need bulk propagation work
// beyond what individual watch callbacks can do (e.g. AllDifferent's Hall
// interval sweep). Such constraints enqueue themselves on the
// PropagationQueue from OnVariableNarrowed.
type Propagator interface {
	Propagate(db *VariableDatabase) Status
}

// Backtracker is an optional hook for constraints that must react
// explicitly to backtracking rather than relying purely on trail
// unwinding. No constraint in this module implements it (Disjunction
// included), and neither the Driver nor the VariableDatabase calls it.
type Backtracker interface {
	Backtrack(db *VariableDatabase, level int)
}
