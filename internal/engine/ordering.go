package engine

import (
	"math/rand"

	"github.com/rhartert/yagh"
)

// DecisionHeuristic selects the next variable/value pair to branch on and
// reacts to the search events spec §4.12 lists: pickDecision, plus hooks
// for (un)assignment and activity bumps during conflict analysis.
type DecisionHeuristic interface {
	// PickDecision returns the next unassigned variable and a value from
	// its current domain to try first. ok is false once every variable is
	// solved.
	PickDecision(db *VariableDatabase) (v VarID, value int, ok bool)

	OnVariableAssigned(db *VariableDatabase, v VarID)
	OnVariableUnassigned(db *VariableDatabase, v VarID)
	OnConflictActivity(lit Literal)
	OnReasonActivity(lit Literal)

	// DecayActivity is called once per conflict. It is not part of the
	// spec's four-hook interface but is how yass's Search loop calls
	// DecayVarActivity once per conflict; keeping it a separate method
	// avoids overloading OnConflictActivity's per-literal semantics.
	DecayActivity()
}

// VarOrder is a VSIDS-style DecisionHeuristic: an activity score per
// variable maintained in a binary heap (github.com/rhartert/yagh), with
// phase saving generalized from yass's boolean LBool phase to a saved
// concrete domain value. Grounded on
// rhartert-yass/internal/sat/ordering.go.
type VarOrder struct {
	order *yagh.IntMap[float64]

	scores   []float64 // indexed by VarID-1, in [0, 1e100)
	scoreInc float64
	decay    float64

	phases      []int // saved value per variable, -1 if none saved
	phaseSaving bool
}

// NewVarOrder returns an empty VarOrder with no variables registered; call
// AddVar once per variable as variables are created.
func NewVarOrder(decay float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		decay:       decay,
		phaseSaving: phaseSaving,
	}
}

// AddVar registers a new variable (called once per VariableDatabase.NewVariable).
func (vo *VarOrder) AddVar() {
	idx := len(vo.scores)
	vo.scores = append(vo.scores, 0)
	vo.phases = append(vo.phases, -1)
	vo.order.GrowBy(1)
	vo.order.Put(idx, 0)
}

func (vo *VarOrder) idx(v VarID) int { return int(v) - 1 }

// Seed perturbs every variable's initial activity with a small random
// jitter drawn from rng, breaking ties in a way fully determined by the
// seed (spec §6: "Random seed ... deterministically seeds every
// non-deterministic tie-break"). Call once, before the first decision.
func (vo *VarOrder) Seed(rng *rand.Rand) {
	for i := range vo.scores {
		jitter := rng.Float64() * 1e-6
		vo.scores[i] = jitter
		if vo.order.Contains(i) {
			vo.order.Put(i, -jitter)
		}
	}
}

// PickDecision pops variables off the activity heap until it finds one
// that is not yet solved, then chooses its value: the saved phase if
// still possible, otherwise the current minimum of its domain.
func (vo *VarOrder) PickDecision(db *VariableDatabase) (VarID, int, bool) {
	for {
		next, ok := vo.order.Pop()
		if !ok {
			return InvalidVar, 0, false
		}
		v := VarID(next.Elem + 1)
		if db.IsSolved(v) {
			continue
		}
		saved := vo.phases[next.Elem]
		if saved >= 0 && db.IsPossible(v, saved) {
			return v, saved, true
		}
		return v, db.GetMin(v), true
	}
}

// OnVariableAssigned is a no-op: the heap entry was already popped by
// PickDecision, or the variable was solved by propagation and will simply
// be skipped next time it surfaces.
func (vo *VarOrder) OnVariableAssigned(db *VariableDatabase, v VarID) {}

// OnVariableUnassigned reinserts v into the heap and, if phase saving is
// enabled, records the value it held just before being unassigned.
func (vo *VarOrder) OnVariableUnassigned(db *VariableDatabase, v VarID) {
	i := vo.idx(v)
	if vo.phaseSaving && db.IsSolved(v) {
		vo.phases[i] = db.SolvedValue(v)
	}
	vo.order.Put(i, -vo.scores[i])
}

// OnConflictActivity bumps the score of a variable that participated in
// building the learned clause.
func (vo *VarOrder) OnConflictActivity(lit Literal) { vo.bump(lit.Var) }

// OnReasonActivity bumps the score of a variable whose assignment was
// walked through while resolving reasons during conflict analysis.
func (vo *VarOrder) OnReasonActivity(lit Literal) { vo.bump(lit.Var) }

func (vo *VarOrder) bump(v VarID) {
	i := vo.idx(v)
	newScore := vo.scores[i] + vo.scoreInc
	vo.scores[i] = newScore
	if vo.order.Contains(i) {
		vo.order.Put(i, -newScore)
	}
	if newScore > 1e100 {
		vo.rescale()
	}
}

// DecayActivity ages the bump increment, making past bumps relatively
// less significant than future ones (spec §9's VSIDS decay knob).
func (vo *VarOrder) DecayActivity() {
	vo.scoreInc /= vo.decay
	if vo.scoreInc > 1e100 {
		vo.rescale()
	}
}

func (vo *VarOrder) rescale() {
	vo.scoreInc *= 1e-100
	for i, s := range vo.scores {
		newScore := s * 1e-100
		vo.scores[i] = newScore
		if vo.order.Contains(i) {
			vo.order.Put(i, -newScore)
		}
	}
}
