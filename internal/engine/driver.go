package engine

import (
	"math/rand"
	"sort"

	"github.com/domainkit/fdsolver/internal/bitset"
	"github.com/domainkit/fdsolver/internal/container"
)

// Status of a completed (or interrupted) solve call.
type SolveResult int

const (
	Unknown SolveResult = iota
	Solved
	Unsatisfiable
	Interrupted
)

func (r SolveResult) String() string {
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

// Options configures a Driver. Grounded on yass's Options/DefaultOptions
// struct (rhartert-yass/internal/sat/solver.go), extended with the
// finite-domain restart-schedule knobs SPEC_FULL.md's Ambient Stack
// section adds.
type Options struct {
	ScoreDecay          float64 // VSIDS variable-activity decay, in (0,1]
	PhaseSaving         bool
	ClauseDecay         float64 // learned-clause activity decay, in (0,1]
	RestartFastDecay    float64
	RestartSlowDecay    float64
	RestartMinConflicts int
	ReduceInterval      int // conflicts between ReduceLearnts passes
	MinLBDToKeepForever int // learnt clauses at/below this LBD are never reduced
}

// DefaultOptions returns the tuning the teacher's DefaultOptions uses for
// the boolean solver, adapted with finite-domain-appropriate restart
// defaults.
func DefaultOptions() Options {
	return Options{
		ScoreDecay:          0.95,
		PhaseSaving:         true,
		ClauseDecay:         0.999,
		RestartFastDecay:    0.8,
		RestartSlowDecay:    0.999,
		RestartMinConflicts: 50,
		ReduceInterval:      2000,
		MinLBDToKeepForever: 2,
	}
}

// Stats mirrors spec §6's required statistics surface.
type Stats struct {
	Decisions      int
	Propagations   int
	Conflicts      int
	LearnedClauses int
	Restarts       int
}

// Driver runs the decide/propagate/backtrack state machine of spec §4.12.
// Grounded on rhartert-yass/internal/sat/solver.go's Solve/Search loop,
// generalized to ValueSet narrowing and a pluggable DecisionHeuristic.
type Driver struct {
	db        *VariableDatabase
	order     *VarOrder
	analyzer  *ConflictAnalyzer
	restarts  *RestartScheduler
	queue     *container.Queue[ConstraintID]
	queued    []bool
	constraints []Constraint
	learnts   []*ClauseConstraint

	opts  Options
	stats Stats

	clauseActivityInc float64
	interrupted       bool
}

// NewDriver returns an empty Driver ready to have variables and
// constraints added.
func NewDriver(opts Options) *Driver {
	d := &Driver{
		order:             NewVarOrder(opts.ScoreDecay, opts.PhaseSaving),
		analyzer:          NewConflictAnalyzer(),
		restarts:          NewRestartScheduler(opts.RestartFastDecay, opts.RestartSlowDecay, opts.RestartMinConflicts),
		queue:             container.NewQueue[ConstraintID](64),
		opts:              opts,
		clauseActivityInc: 1,
	}
	d.db = NewVariableDatabase(d)
	return d
}

// DB exposes the underlying VariableDatabase to constraint constructors.
func (d *Driver) DB() *VariableDatabase { return d.db }

// Stats returns a snapshot of the driver's running statistics.
func (d *Driver) Stats() Stats { return d.stats }

// Interrupt requests that the next Solve poll point unwind to level 0 and
// return Interrupted (spec §5).
func (d *Driver) Interrupt() { d.interrupted = true }

// NewVariable creates a variable and registers it with the decision
// heuristic and conflict analyzer.
func (d *Driver) NewVariable(name string, size int) VarID {
	v := d.db.NewVariable(name, size)
	d.order.AddVar()
	d.analyzer.Grow()
	return v
}

// NewVariableWithDomain is the NewVariable counterpart for a restricted
// initial domain.
func (d *Driver) NewVariableWithDomain(name string, size int, values []int) VarID {
	v := d.db.NewVariableWithDomain(name, size, values)
	d.order.AddVar()
	d.analyzer.Grow()
	return v
}

// Install registers a constraint, assigns it a dense id, and initializes
// it (spec §4.12's data flow: "the Solver installs each Constraint via
// initialize(db) which registers Watches"). Returns the assigned id and
// whether initialization succeeded.
func (d *Driver) Install(factory func(id ConstraintID) Constraint) (ConstraintID, Status) {
	id := ConstraintID(len(d.constraints) + 1)
	c := factory(id)
	d.constraints = append(d.constraints, c)
	d.queued = append(d.queued, false)
	status := c.Initialize(d.db)
	if status == Contradiction {
		d.db.contradicted = true
	}
	return id, status
}

// Resolve implements ConstraintRegistry.
func (d *Driver) Resolve(id ConstraintID) Constraint {
	if !id.IsValid() || int(id) > len(d.constraints) {
		return nil
	}
	return d.constraints[id-1]
}

// Enqueue implements ConstraintRegistry: schedules id for Propagate,
// enforcing the "at most one constraint per propagation queue position"
// invariant (spec §3).
func (d *Driver) Enqueue(id ConstraintID) {
	if d.queued[id-1] {
		return
	}
	d.queued[id-1] = true
	d.queue.Push(id)
}

func (d *Driver) drainQueue() {
	for !d.queue.IsEmpty() {
		id := d.queue.Pop()
		d.queued[id-1] = false
	}
}

// Solve runs the driver until it reaches Solved, Unsatisfiable, or
// Interrupted. seed deterministically seeds every tie-break the search
// makes (spec §6): the same seed against the same constraints produces an
// identical trail.
func (d *Driver) Solve(seed uint64) SolveResult {
	if d.db.InContradiction() {
		return Unsatisfiable
	}
	d.order.Seed(rand.New(rand.NewSource(int64(seed))))
	for {
		if d.interrupted {
			d.backtrackAndNotify(0)
			d.interrupted = false
			return Interrupted
		}
		if !d.propagateAll() {
			if d.db.DecisionLevel() == 0 {
				return Unsatisfiable
			}
			d.resolveConflict()
			continue
		}
		if d.allSolved() {
			return Solved
		}
		d.decide()
	}
}

func (d *Driver) propagateAll() bool {
	for !d.queue.IsEmpty() {
		id := d.queue.Pop()
		d.queued[id-1] = false

		c := d.constraints[id-1]
		p, ok := c.(Propagator)
		if !ok {
			continue
		}
		status := p.Propagate(d.db)
		d.stats.Propagations++
		if status == Contradiction || d.db.InContradiction() {
			d.drainQueue()
			return false
		}
	}
	return !d.db.InContradiction()
}

func (d *Driver) allSolved() bool {
	for v := VarID(1); int(v) <= d.db.NumVariables(); v++ {
		if !d.db.IsSolved(v) {
			return false
		}
	}
	return true
}

func (d *Driver) decide() {
	v, value, ok := d.order.PickDecision(d.db)
	if !ok {
		return
	}
	d.db.PushDecisionLevel()
	lit := bitset.Single(d.db.DomainSize(v), value)
	d.db.Narrow(v, lit, InvalidConstraint, nil)
	d.stats.Decisions++
	d.order.OnVariableAssigned(d.db, v)
}

func (d *Driver) collectAffectedVars(level int) []VarID {
	seen := make(map[VarID]bool)
	var out []VarID
	for i := d.db.TrailLen() - 1; i >= 0 && d.db.TrailLevelAt(i) > level; i-- {
		v := d.db.TrailVarAt(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (d *Driver) backtrackAndNotify(level int) {
	affected := d.collectAffectedVars(level)
	// Notify before undoing the trail so phase saving still sees the
	// values the variables held.
	for _, v := range affected {
		d.order.OnVariableUnassigned(d.db, v)
	}
	d.db.BacktrackTo(level)
}

func (d *Driver) resolveConflict() {
	lits, backtrackLevel, lbd := d.analyzer.Analyze(d.db, d.order)
	d.stats.Conflicts++
	d.order.DecayActivity()
	d.decayClauseActivities()

	d.backtrackAndNotify(backtrackLevel)

	id, learnt := d.installLearnt(lits, lbd)
	learnt.BumpActivity(d.clauseActivityInc)
	d.stats.LearnedClauses++
	_ = id
	learnt.Initialize(d.db)

	if d.restarts.RecordConflict(lbd) {
		d.stats.Restarts++
		d.backtrackAndNotify(0)
		d.restarts.NoteRestart()
	}

	if d.opts.ReduceInterval > 0 && d.stats.Conflicts%d.opts.ReduceInterval == 0 {
		d.reduceLearnts()
	}
}

func (d *Driver) installLearnt(lits []Literal, lbd int) (ConstraintID, *ClauseConstraint) {
	id := ConstraintID(len(d.constraints) + 1)
	learnt := NewLearnedClause(id, lits, lbd)
	d.constraints = append(d.constraints, learnt)
	d.queued = append(d.queued, false)
	d.learnts = append(d.learnts, learnt)
	return id, learnt
}

func (d *Driver) decayClauseActivities() {
	d.clauseActivityInc /= d.opts.ClauseDecay
	if d.clauseActivityInc > 1e20 {
		for _, c := range d.learnts {
			c.RescaleActivity(1e-20)
		}
		d.clauseActivityInc *= 1e-20
	}
}

// reduceLearnts deletes half of the non-protected, unlocked learnt clauses
// whose LBD exceeds MinLBDToKeepForever, preferring to delete the
// lowest-activity ones first. Grounded on yass's ReduceDB.
func (d *Driver) reduceLearnts() {
	keep := d.learnts[:0:0]
	candidates := make([]*ClauseConstraint, 0, len(d.learnts))
	for _, c := range d.learnts {
		if c.LBD() <= d.opts.MinLBDToKeepForever || c.IsProtected() || c.Locked(d.db) {
			keep = append(keep, c)
			continue
		}
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Activity() < candidates[j].Activity() })

	cut := len(candidates) / 2
	for i, c := range candidates {
		if i < cut {
			c.Reset(d.db)
			d.constraints[c.ID()-1] = nil
			continue
		}
		keep = append(keep, c)
	}
	d.learnts = keep
}
