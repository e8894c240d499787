package engine

import (
	"github.com/domainkit/fdsolver/internal/container"
)

type conflictNode struct {
	v      VarID
	values Literal
	level  int
}

// ConflictAnalyzer implements First-UIP resolution (spec §4.5), walking the
// trail backward from a contradiction to produce a learned clause and the
// decision level to backtrack to. Grounded on
// rhartert-yass/internal/sat/solver.go's analyze method, generalized from
// single-bit boolean literals (where a variable contributes at most one
// reason literal) to ValueSet literals, where the same variable can be
// mentioned by more than one resolution step and its contributions are
// unioned rather than simply deduplicated.
type ConflictAnalyzer struct {
	seen     container.ResetSet
	finalIdx []int
	learnt   []conflictNode
}

// NewConflictAnalyzer returns an analyzer with no variables registered
// yet; call Grow once per variable created, mirroring
// VariableDatabase.NewVariable.
func NewConflictAnalyzer() *ConflictAnalyzer {
	return &ConflictAnalyzer{}
}

// Grow registers capacity for one more variable. Must be called once for
// every VariableDatabase.NewVariable call, in the same order.
func (ca *ConflictAnalyzer) Grow() {
	ca.seen.Expand()
	ca.finalIdx = append(ca.finalIdx, -1)
}

func idx(v VarID) int { return int(v) - 1 }

// Analyze produces the learned clause literals (First-UIP at index 0, the
// backtrack-level literal at index 1 when one exists) and the level to
// backtrack to. db must currently be InContradiction.
func (ca *ConflictAnalyzer) Analyze(db *VariableDatabase, heuristic DecisionHeuristic) (literals []Literal, backtrackLevel int, lbd int) {
	ca.seen.Clear()
	ca.learnt = ca.learnt[:0]

	currentLevel := db.DecisionLevel()
	numTopLevel := 0
	backtrackLevel = 0

	process := func(contribs []Literal, bump func(Literal)) {
		for _, lit := range contribs {
			i := idx(lit.Var)
			if ca.seen.Contains(i) {
				if fi := ca.finalIdx[i]; fi >= 0 {
					n := &ca.learnt[fi]
					n.values.Values = n.values.Values.Union(lit.Values)
				}
				continue
			}
			ca.seen.Add(i)
			bump(lit)

			lvl := db.LevelOf(lit.Var)
			if lvl == currentLevel {
				ca.finalIdx[i] = -1
				numTopLevel++
				continue
			}
			ca.learnt = append(ca.learnt, conflictNode{v: lit.Var, values: lit, level: lvl})
			ca.finalIdx[i] = len(ca.learnt) - 1
			if lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}
	}

	contribs := db.ExplainFailure()
	process(contribs, heuristic.OnConflictActivity)

	nextLiteral := db.TrailLen() - 1
	var pivotIdx int
	for {
		for {
			if nextLiteral < 0 {
				panic("conflict analysis exhausted the trail without reaching a first-UIP")
			}
			v := db.TrailVarAt(nextLiteral)
			here := nextLiteral
			nextLiteral--
			if ca.seen.Contains(idx(v)) {
				pivotIdx = here
				break
			}
		}
		numTopLevel--
		if numTopLevel <= 0 {
			break
		}
		process(db.ExplainAt(pivotIdx), heuristic.OnReasonActivity)
	}

	pivotLit := db.TrailLiteralAt(pivotIdx).Opposite()

	out := make([]Literal, 1+len(ca.learnt))
	out[0] = pivotLit
	swapIdx := -1
	for i, n := range ca.learnt {
		out[1+i] = n.values.Opposite()
		if n.level == backtrackLevel && swapIdx == -1 {
			swapIdx = 1 + i
		}
	}
	if swapIdx > 1 {
		out[1], out[swapIdx] = out[swapIdx], out[1]
	}

	distinctLevels := map[int]bool{currentLevel: true}
	for _, n := range ca.learnt {
		distinctLevels[n.level] = true
	}
	lbd = len(distinctLevels)

	return out, backtrackLevel, lbd
}
