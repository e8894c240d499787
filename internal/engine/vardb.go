package engine

import (
	"github.com/domainkit/fdsolver/internal/bitset"
)

// Explainer lazily computes the literals that justify a single narrowing.
// Most narrowings rely on the causing constraint's own Explain method
// (Explainer nil in the trail entry, resolved through the constraint
// registry at analysis time — the allocation-free path called out in
// spec §9's design notes); constraints whose explanation depends on the
// specific call site (AllDifferent, Cardinality) supply one explicitly.
type Explainer func(db *VariableDatabase) []Literal

// ConstraintRegistry resolves opaque ConstraintIDs to their owning
// Constraint and lets the database schedule a constraint for bulk
// propagation. The watch-dispatch/trail code in this file only ever sees
// ids, never pointers, so that (per spec §9) the constraint arena could be
// compacted without invalidating the trail.
type ConstraintRegistry interface {
	Resolve(id ConstraintID) Constraint
	Enqueue(id ConstraintID)
}

type variableState struct {
	name    string
	initial bitset.ValueSet // declared domain at creation, never mutated
	current bitset.ValueSet
}

type trailEntry struct {
	v           VarID
	prevValues  bitset.ValueSet
	prevModTime int // trail index of the previous entry for v, -1 if none
	cause       ConstraintID
	explain     Explainer
	level       int
}

type triggerKind int

const (
	triggerAnyChange triggerKind = iota
	triggerBecameSingleton
	triggerLowerBoundRaised
	triggerUpperBoundLowered
	numTriggerKinds
)

type watchEntry struct {
	handle     WatchHandle
	constraint ConstraintID
}

type disjointWatchEntry struct {
	handle     WatchHandle
	constraint ConstraintID
	set        bitset.ValueSet
}

type variableWatches struct {
	segments [numTriggerKinds][]watchEntry
	disjoint []disjointWatchEntry
}

// VariableDatabase owns the per-variable current domains and the
// assignment trail they are recorded on (spec §4.1). It is the sole
// mutator of domain state: constraints request narrowings through it and
// never touch another constraint's state directly (spec §5).
type VariableDatabase struct {
	registry ConstraintRegistry

	vars    []variableState
	watches []variableWatches

	modTime []int // trail index of each variable's latest entry, -1 if none
	level   []int // decision level of each variable's latest entry
	reason  []ConstraintID

	trail    []trailEntry
	trailLim []int

	nextHandle WatchHandle

	// Set once a narrowing in the current propagation step has driven a
	// domain empty; cleared by the driver once the conflict has been
	// consumed. Further narrowings are rejected while set (spec §4.1).
	contradicted  bool
	failureVar    VarID
	failureCause  ConstraintID
	failureExplain Explainer

	// dispatching guards against the reentrant-dispatch invariant (spec
	// §4.3/§5): a sink may narrow other variables but never the one
	// currently being dispatched.
	dispatching map[VarID]bool
}

// NewVariableDatabase returns an empty database. registry is used to
// resolve watch sinks and to schedule constraints for bulk propagation; it
// is normally the Driver that owns this database.
func NewVariableDatabase(registry ConstraintRegistry) *VariableDatabase {
	return &VariableDatabase{
		registry:    registry,
		dispatching: make(map[VarID]bool),
	}
}

// NewVariable creates a new variable with domain [0, size) and returns its
// id. Names are for diagnostics only (spec §6).
func (db *VariableDatabase) NewVariable(name string, size int) VarID {
	db.vars = append(db.vars, variableState{
		name:    name,
		initial: bitset.Full(size),
		current: bitset.Full(size),
	})
	db.watches = append(db.watches, variableWatches{})
	db.modTime = append(db.modTime, -1)
	db.level = append(db.level, 0)
	db.reason = append(db.reason, InvalidConstraint)
	return VarID(len(db.vars))
}

// NewVariableWithDomain creates a variable whose initial domain is
// restricted to the given values (rather than the full [0, size) range).
func (db *VariableDatabase) NewVariableWithDomain(name string, size int, values []int) VarID {
	v := db.NewVariable(name, size)
	vs := bitset.New(size)
	for _, x := range values {
		vs.Set(x)
	}
	db.vars[v-1].initial = vs
	db.vars[v-1].current = vs.Clone()
	return v
}

func (db *VariableDatabase) index(v VarID) int { return int(v) - 1 }

// NumVariables returns the number of variables created so far.
func (db *VariableDatabase) NumVariables() int { return len(db.vars) }

// DomainSize returns the declared domain size of v.
func (db *VariableDatabase) DomainSize(v VarID) int {
	return db.vars[db.index(v)].initial.Size()
}

// Name returns the diagnostic name given to v at creation.
func (db *VariableDatabase) Name(v VarID) string { return db.vars[db.index(v)].name }

// GetPotential returns the current value set of v.
func (db *VariableDatabase) GetPotential(v VarID) bitset.ValueSet {
	return db.vars[db.index(v)].current
}

// InitialDomain returns the domain v was created with.
func (db *VariableDatabase) InitialDomain(v VarID) bitset.ValueSet {
	return db.vars[db.index(v)].initial
}

// GetMin returns the smallest possible value of v. Panics if v's domain is
// empty, which cannot happen outside of an active contradiction.
func (db *VariableDatabase) GetMin(v VarID) int {
	m, ok := db.vars[db.index(v)].current.Min()
	if !ok {
		panic("GetMin on a variable with an empty domain")
	}
	return m
}

// GetMax returns the largest possible value of v.
func (db *VariableDatabase) GetMax(v VarID) int {
	m, ok := db.vars[db.index(v)].current.Max()
	if !ok {
		panic("GetMax on a variable with an empty domain")
	}
	return m
}

// IsSolved reports whether v's domain has exactly one remaining value.
func (db *VariableDatabase) IsSolved(v VarID) bool {
	return db.vars[db.index(v)].current.PopCount() == 1
}

// SolvedValue returns the single remaining value of v. Only valid when
// IsSolved(v).
func (db *VariableDatabase) SolvedValue(v VarID) int {
	val, ok := db.vars[db.index(v)].current.Min()
	if !ok {
		panic("SolvedValue on an unsolved or empty variable")
	}
	return val
}

// IsPossible reports whether val is still in v's current domain.
func (db *VariableDatabase) IsPossible(v VarID, val int) bool {
	return db.vars[db.index(v)].current.Contains(val)
}

// AnyPossible reports whether v's current domain intersects subset.
func (db *VariableDatabase) AnyPossible(v VarID, subset bitset.ValueSet) bool {
	return db.vars[db.index(v)].current.Intersects(subset)
}

// CurrentReason returns the constraint (or InvalidConstraint for a
// decision, or if v has never been narrowed) that produced v's current
// value. Used by ClauseConstraint to decide whether it is locked (spec
// §4.2): a learned clause is locked while it is the recorded reason for
// its first watched variable.
func (db *VariableDatabase) CurrentReason(v VarID) ConstraintID {
	return db.reason[db.index(v)]
}

// DecisionLevel returns the current decision level. Level 0 is pre-search.
func (db *VariableDatabase) DecisionLevel() int { return len(db.trailLim) }

// LevelOf returns the decision level at which v was last narrowed, or 0 if
// it has never been narrowed.
func (db *VariableDatabase) LevelOf(v VarID) int { return db.level[db.index(v)] }

// TrailLen returns the number of entries currently on the trail; doubles
// as the "current timestamp".
func (db *VariableDatabase) TrailLen() int { return len(db.trail) }

// TrailLiteralAt returns the literal asserted by the trail entry at index
// t: the variable together with the value set it was narrowed *into*.
func (db *VariableDatabase) TrailLiteralAt(t int) Literal {
	e := db.trail[t]
	// The value narrowed into at t is whatever is current for v, intersected
	// out of prevValues; since entries are immutable once written and v may
	// have narrowed further since, reconstruct it as prevValues minus the
	// removed bits is not recoverable in general, so instead narrow() stores
	// enough: the set at the *next* entry's prevValues, or the variable's
	// current value if this is the latest entry.
	if db.modTime[db.index(e.v)] == t {
		return Literal{Var: e.v, Values: db.vars[db.index(e.v)].current}
	}
	next := db.trail[db.nextEntryIndex(e.v, t)]
	return Literal{Var: e.v, Values: next.prevValues}
}

// nextEntryIndex walks v's backward chain starting at its latest entry to
// find the entry immediately following t.
func (db *VariableDatabase) nextEntryIndex(v VarID, t int) int {
	idx := db.modTime[db.index(v)]
	for idx >= 0 && db.trail[idx].prevModTime != t {
		if db.trail[idx].prevModTime < t {
			// t itself must be the chain entry; shouldn't happen given callers.
			return idx
		}
		idx = db.trail[idx].prevModTime
	}
	return idx
}

// TrailVarAt and TrailCauseAt expose the raw trail entry fields needed by
// the conflict analyzer.
func (db *VariableDatabase) TrailVarAt(t int) VarID        { return db.trail[t].v }
func (db *VariableDatabase) TrailLevelAt(t int) int        { return db.trail[t].level }
func (db *VariableDatabase) TrailCauseAt(t int) ConstraintID { return db.trail[t].cause }

// ValueBefore returns the value set v held strictly before timestamp t,
// and the timestamp of the trail entry that established it (spec §4.1):
// walk v's backward chain from its latest entry until finding the entry
// strictly before t, and return that entry's recorded previous value.
func (db *VariableDatabase) ValueBefore(v VarID, t int) (bitset.ValueSet, int) {
	idx := db.modTime[db.index(v)]
	for idx >= 0 && idx >= t {
		idx = db.trail[idx].prevModTime
	}
	if idx < 0 {
		return db.vars[db.index(v)].initial, -1
	}
	return db.trail[idx].prevValues, db.trail[idx].prevModTime
}

// ModTimeBefore returns the timestamp of the trail entry strictly before
// t for v, or -1 if v had not yet been narrowed before t.
func (db *VariableDatabase) ModTimeBefore(v VarID, t int) int {
	idx := db.modTime[db.index(v)]
	for idx >= 0 && idx >= t {
		idx = db.trail[idx].prevModTime
	}
	return idx
}

// Failure returns the details of the most recent contradiction, valid
// until the next call to ClearContradiction.
func (db *VariableDatabase) Failure() (VarID, ConstraintID, Explainer) {
	return db.failureVar, db.failureCause, db.failureExplain
}

// InContradiction reports whether the database is currently rejecting
// narrowings because of an unresolved contradiction.
func (db *VariableDatabase) InContradiction() bool { return db.contradicted }

// ClearContradiction clears the contradiction flag. Called by the driver
// once the conflict has been analyzed.
func (db *VariableDatabase) ClearContradiction() {
	db.contradicted = false
	db.failureVar = InvalidVar
	db.failureCause = InvalidConstraint
	db.failureExplain = nil
}

// Narrow replaces v's value set with its intersection with subset (spec
// §4.1). If the result is unchanged, no trail entry is created. If the
// result is empty, the database enters the contradicted state.
func (db *VariableDatabase) Narrow(v VarID, subset bitset.ValueSet, cause ConstraintID, explain Explainer) Status {
	if db.contradicted {
		return Contradiction
	}

	i := db.index(v)
	cur := db.vars[i].current
	next := cur.Intersect(subset)
	if next.Equal(cur) {
		return Ok
	}
	if next.IsEmpty() {
		db.contradicted = true
		db.failureVar = v
		db.failureCause = cause
		db.failureExplain = explain
		return Contradiction
	}

	entry := trailEntry{
		v:           v,
		prevValues:  cur,
		prevModTime: db.modTime[i],
		cause:       cause,
		explain:     explain,
		level:       db.DecisionLevel(),
	}
	idx := len(db.trail)
	db.trail = append(db.trail, entry)
	db.vars[i].current = next
	db.modTime[i] = idx
	db.level[i] = entry.level
	db.reason[i] = cause

	db.dispatch(v, cur, next)
	if db.contradicted {
		return Contradiction
	}
	return Ok
}

// Exclude narrows v to the complement of subset.
func (db *VariableDatabase) Exclude(v VarID, subset bitset.ValueSet, cause ConstraintID, explain Explainer) Status {
	return db.Narrow(v, subset.Complement(), cause, explain)
}

// ExcludeValue narrows v to exclude a single value.
func (db *VariableDatabase) ExcludeValue(v VarID, val int, cause ConstraintID, explain Explainer) Status {
	size := db.DomainSize(v)
	if val < 0 || val >= size {
		return Ok
	}
	return db.Exclude(v, bitset.Single(size, val), cause, explain)
}

// ExcludeLessThan narrows v to exclude every value strictly less than val.
func (db *VariableDatabase) ExcludeLessThan(v VarID, val int, cause ConstraintID, explain Explainer) Status {
	size := db.DomainSize(v)
	remove := bitset.New(size)
	remove.SetRange(0, val-1)
	return db.Exclude(v, remove, cause, explain)
}

// ExcludeGreaterThan narrows v to exclude every value strictly greater
// than val.
func (db *VariableDatabase) ExcludeGreaterThan(v VarID, val int, cause ConstraintID, explain Explainer) Status {
	size := db.DomainSize(v)
	remove := bitset.New(size)
	remove.SetRange(val+1, size-1)
	return db.Exclude(v, remove, cause, explain)
}

// addWatch registers constraint to be notified when kind
// fires for v. Returns a stable handle usable with RemoveWatch.
func (db *VariableDatabase) addWatch(v VarID, kind triggerKind, constraint ConstraintID) WatchHandle {
	h := db.nextHandle
	db.nextHandle++
	i := db.index(v)
	db.watches[i].segments[kind] = append(db.watches[i].segments[kind], watchEntry{handle: h, constraint: constraint})
	return h
}

// WatchAnyChange fires whenever v's domain shrinks at all.
func (db *VariableDatabase) WatchAnyChange(v VarID, constraint ConstraintID) WatchHandle {
	return db.addWatch(v, triggerAnyChange, constraint)
}

// WatchBecameSingleton fires when v's domain first reaches exactly one
// remaining value.
func (db *VariableDatabase) WatchBecameSingleton(v VarID, constraint ConstraintID) WatchHandle {
	return db.addWatch(v, triggerBecameSingleton, constraint)
}

// WatchLowerBoundRaised fires whenever v's minimum possible value
// increases.
func (db *VariableDatabase) WatchLowerBoundRaised(v VarID, constraint ConstraintID) WatchHandle {
	return db.addWatch(v, triggerLowerBoundRaised, constraint)
}

// WatchUpperBoundLowered fires whenever v's maximum possible value
// decreases.
func (db *VariableDatabase) WatchUpperBoundLowered(v VarID, constraint ConstraintID) WatchHandle {
	return db.addWatch(v, triggerUpperBoundLowered, constraint)
}

// WatchDisjointFrom fires once v's current domain becomes disjoint from
// set. Used by ClauseConstraint's two-watched-literal scheme.
func (db *VariableDatabase) WatchDisjointFrom(v VarID, set bitset.ValueSet, constraint ConstraintID) WatchHandle {
	h := db.nextHandle
	db.nextHandle++
	i := db.index(v)
	db.watches[i].disjoint = append(db.watches[i].disjoint, disjointWatchEntry{handle: h, constraint: constraint, set: set})
	return h
}

// RemoveWatch unregisters a previously returned handle for v.
func (db *VariableDatabase) RemoveWatch(v VarID, h WatchHandle) {
	i := db.index(v)
	for k := range db.watches[i].segments {
		db.watches[i].segments[k] = removeWatchEntry(db.watches[i].segments[k], h)
	}
	ds := db.watches[i].disjoint
	for j, e := range ds {
		if e.handle == h {
			db.watches[i].disjoint = append(ds[:j], ds[j+1:]...)
			break
		}
	}
}

func removeWatchEntry(s []watchEntry, h WatchHandle) []watchEntry {
	for j, e := range s {
		if e.handle == h {
			return append(s[:j], s[j+1:]...)
		}
	}
	return s
}

// dispatch fires watches affected by v's narrowing from prev to next, in
// the trigger order mandated by spec §4.3, each segment's sinks visited in
// reverse insertion order. Sinks observe the same previous value set; any
// watches a sink requests removed are swept out only after the whole
// dispatch for this narrowing completes.
func (db *VariableDatabase) dispatch(v VarID, prev, next bitset.ValueSet) {
	if db.dispatching[v] {
		panic("reentrant watch dispatch on the same variable")
	}
	db.dispatching[v] = true
	defer delete(db.dispatching, v)

	i := db.index(v)
	var toRemove []WatchHandle

	fire := func(kind triggerKind) {
		seg := db.watches[i].segments[kind]
		for k := len(seg) - 1; k >= 0; k-- {
			e := seg[k]
			sink, ok := db.registry.Resolve(e.constraint).(WatchSink)
			if !ok {
				continue
			}
			ok2, remove := sink.OnVariableNarrowed(db, v, Literal{Var: v, Values: prev})
			if !ok2 && !db.contradicted {
				// Sink reported failure without itself calling Narrow to
				// empty a domain (e.g. a global check); treat v's own
				// narrowing as the culprit via a generic contradiction.
				db.contradicted = true
				db.failureVar = v
				db.failureCause = e.constraint
			}
			if remove {
				toRemove = append(toRemove, e.handle)
			}
		}
	}

	if !prev.Equal(next) {
		fire(triggerAnyChange)
	}
	if next.PopCount() == 1 {
		fire(triggerBecameSingleton)
	}
	if pmin, ok1 := prev.Min(); ok1 {
		if nmin, ok2 := next.Min(); ok2 && nmin > pmin {
			fire(triggerLowerBoundRaised)
		}
	}
	if pmax, ok1 := prev.Max(); ok1 {
		if nmax, ok2 := next.Max(); ok2 && nmax < pmax {
			fire(triggerUpperBoundLowered)
		}
	}

	for _, dw := range db.watches[i].disjoint {
		if next.Intersects(dw.set) {
			continue
		}
		sink, ok := db.registry.Resolve(dw.constraint).(WatchSink)
		if !ok {
			continue
		}
		ok2, remove := sink.OnVariableNarrowed(db, v, Literal{Var: v, Values: prev})
		if !ok2 && !db.contradicted {
			db.contradicted = true
			db.failureVar = v
			db.failureCause = dw.constraint
		}
		if remove {
			toRemove = append(toRemove, dw.handle)
		}
	}

	for _, h := range toRemove {
		db.RemoveWatch(v, h)
	}
}

// PushDecisionLevel records a new decision boundary. Must be called
// before narrowing the variable to the decided value.
func (db *VariableDatabase) PushDecisionLevel() {
	db.trailLim = append(db.trailLim, len(db.trail))
}

// BacktrackTo undoes every trail entry with level > level, restoring each
// affected variable's value set and latest-mod pointer, in strict LIFO
// order (spec §4.2).
func (db *VariableDatabase) BacktrackTo(level int) {
	for len(db.trailLim) > level {
		boundary := db.trailLim[len(db.trailLim)-1]
		db.trailLim = db.trailLim[:len(db.trailLim)-1]
		for len(db.trail) > boundary {
			db.undoOne()
		}
	}
	db.ClearContradiction()
}

func (db *VariableDatabase) undoOne() {
	idx := len(db.trail) - 1
	e := db.trail[idx]
	i := db.index(e.v)

	db.vars[i].current = e.prevValues
	db.modTime[i] = e.prevModTime
	if e.prevModTime >= 0 {
		db.level[i] = db.trail[e.prevModTime].level
		db.reason[i] = db.trail[e.prevModTime].cause
	} else {
		db.level[i] = 0
		db.reason[i] = InvalidConstraint
	}

	db.trail = db.trail[:idx]
}

// MarkConstraintFullySatisfied is a hint that constraint needs no further
// propagation until the next backtrack. The hint is not recorded: neither
// the database nor the Driver acts on it, and the constraint can still be
// enqueued afterwards.
func (db *VariableDatabase) MarkConstraintFullySatisfied(constraint ConstraintID) {
	// Intentionally a no-op at this layer: constraints that want to skip
	// redundant propagation track their own "satisfied" flag and consult
	// it before calling QueuePropagation again.
	_ = constraint
}

// QueuePropagation schedules constraint for a future Propagate call.
func (db *VariableDatabase) QueuePropagation(constraint ConstraintID) {
	db.registry.Enqueue(constraint)
}

// Resolve exposes the constraint registry's lookup to packages (such as
// the conflict analyzer) that need to call back into a constraint by id.
func (db *VariableDatabase) Resolve(constraint ConstraintID) Constraint {
	return db.registry.Resolve(constraint)
}

// ExplainAt returns the literals justifying the narrowing recorded at
// trail index t: the entry's own Explainer closure if it has one,
// otherwise its causing constraint's generic Explain (spec §4.1's
// "Explainers are lazy" clause). Used by the conflict analyzer to resolve
// reasons while walking the trail backward.
func (db *VariableDatabase) ExplainAt(t int) []Literal {
	e := db.trail[t]
	if e.explain != nil {
		return e.explain(db)
	}
	if !e.cause.IsValid() {
		return nil
	}
	c := db.registry.Resolve(e.cause)
	if c == nil {
		return nil
	}
	return c.Explain(db, ExplainContext{Propagated: db.TrailLiteralAt(t)})
}

// ExplainFailure returns the literals justifying the current
// contradiction, via the failing constraint's explicit Explainer if one
// was supplied to the narrowing that emptied the domain, otherwise via
// the causing constraint's generic Explain with IsConflict set.
func (db *VariableDatabase) ExplainFailure() []Literal {
	if db.failureExplain != nil {
		return db.failureExplain(db)
	}
	if !db.failureCause.IsValid() {
		return nil
	}
	c := db.registry.Resolve(db.failureCause)
	if c == nil {
		return nil
	}
	return c.Explain(db, ExplainContext{IsConflict: true})
}
