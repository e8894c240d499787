package engine

// EMA is an exponential moving average, grounded on
// rhartert-yass/sat/avg.go (retrieved from the teacher but unused by its
// own Solver.Search; adapted here into the LBD-based restart schedule
// SPEC_FULL.md calls for, in the style of Glucose's averaging restart
// trigger).
type EMA struct {
	decay float64
	value float64
	init  float64
}

// NewEMA returns an EMA with the given decay in (0, 1]; closer to 1 means
// slower-moving.
func NewEMA(decay float64) EMA {
	return EMA{decay: decay, init: 1}
}

// Add folds x into the moving average.
func (e *EMA) Add(x float64) {
	e.value = e.decay*e.value + (1-e.decay)*x
	e.init *= e.decay
}

// Val returns the current average, bias-corrected for the warm-up period.
func (e *EMA) Val() float64 {
	if e.init >= 1 {
		return 0
	}
	return e.value / (1 - e.init)
}

// RestartScheduler decides when the driver should abandon the current
// search branch and restart from decision level 0, using the Glucose-style
// heuristic: restart when the short-window LBD average rises well above
// the long-window average, meaning recent conflicts are producing
// low-quality (high-LBD) clauses and backtracking to the root is likely to
// find a more productive branch.
type RestartScheduler struct {
	fast       EMA // short window, reacts quickly
	slow       EMA
	minConflicts int
	sinceReset int
}

// NewRestartScheduler returns a scheduler with the given fast and slow EMA
// decays and the number of conflicts to wait before a restart is
// considered. The decays are not validated; DefaultRestartScheduler
// provides a ready-made tuning.
func NewRestartScheduler(fastDecay, slowDecay float64, minConflicts int) *RestartScheduler {
	return &RestartScheduler{
		fast:         NewEMA(fastDecay),
		slow:         NewEMA(slowDecay),
		minConflicts: minConflicts,
	}
}

// DefaultRestartScheduler uses a 0.8/0.999 fast/slow smoothing window (the
// same decays as DefaultOptions) with a 50-conflict grace period before
// restarts are considered.
func DefaultRestartScheduler() *RestartScheduler {
	return NewRestartScheduler(0.8, 0.999, 50)
}

// RecordConflict folds a new conflict's LBD into both windows and reports
// whether the driver should restart now.
func (rs *RestartScheduler) RecordConflict(lbd int) bool {
	rs.fast.Add(float64(lbd))
	rs.slow.Add(float64(lbd))
	rs.sinceReset++

	if rs.sinceReset < rs.minConflicts {
		return false
	}
	if rs.slow.Val() <= 0 {
		return false
	}
	return rs.fast.Val() > 1.25*rs.slow.Val()
}

// NoteRestart resets the short-window grace counter after a restart.
func (rs *RestartScheduler) NoteRestart() {
	rs.sinceReset = 0
}
