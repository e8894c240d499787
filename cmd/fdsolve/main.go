// Command fdsolve is a thin demo driver over package solver, grounded on
// the teacher's root main.go (flag parsing, optional pprof hooks, plain
// text stats on stdout) but instantiating toy finite-domain models
// in-process instead of parsing a DIMACS file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/domainkit/fdsolver/internal/report"
	"github.com/domainkit/fdsolver/solver"
)

var (
	flagModel      = flag.String("model", "nqueens", "model to solve: nqueens, sudoku, hanoi")
	flagSize       = flag.Int("n", 8, "model size (board size for nqueens, disk count for hanoi)")
	flagSeed       = flag.Uint64("seed", 1, "search seed")
	flagCPUProfile = flag.String("cpuprof", "", "write a pprof CPU profile to this path")
)

func main() {
	flag.Parse()

	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			log.Fatalf("could not create cpu profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("could not start cpu profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(*flagModel, *flagSize, *flagSeed); err != nil {
		log.Fatal(err)
	}
}

func run(model string, n int, seed uint64) error {
	var s *solver.Solver
	var reportSolution func(*solver.Solver)
	var err error

	switch model {
	case "nqueens":
		s, reportSolution, err = buildNQueens(n)
	case "sudoku":
		s, reportSolution, err = buildSudoku()
	case "hanoi":
		s, reportSolution, err = buildHanoi(n)
	default:
		return fmt.Errorf("unknown model %q", model)
	}
	if err != nil {
		return err
	}

	result := s.Solve(seed)
	fmt.Printf("c model:        %s\n", model)
	stats := s.Statistics()
	report.WriteStats(os.Stdout, result.String(), report.Stats{
		Decisions:      stats.Decisions,
		Propagations:   stats.Propagations,
		Conflicts:      stats.Conflicts,
		LearnedClauses: stats.LearnedClauses,
		Restarts:       stats.Restarts,
	})

	if result == solver.Solved {
		reportSolution(s)
	}
	return nil
}

// buildNQueens places n queens, one per column, with distinct rows via a
// strong AllDifferent. It demonstrates AllDifferent's Hall-interval
// propagation end to end; it does not encode the diagonal-attack
// conditions, so solutions are row-permutations rather than full N-Queens
// solutions.
func buildNQueens(n int) (*solver.Solver, func(*solver.Solver), error) {
	s := solver.New(solver.DefaultOptions())
	rows := make([]solver.VarID, n)
	for i := 0; i < n; i++ {
		v, err := s.NewVariable(fmt.Sprintf("row%d", i), n)
		if err != nil {
			return nil, nil, err
		}
		rows[i] = v
	}
	if _, err := s.AddAllDifferent(rows, true); err != nil {
		return nil, nil, err
	}

	report := func(s *solver.Solver) {
		for i, v := range rows {
			fmt.Printf("queen %d -> row %d\n", i, s.Value(v))
		}
	}
	return s, report, nil
}

// buildSudoku builds a fixed 4x4 Sudoku (2x2 boxes) with one given clue,
// using row/column/box AllDifferent constraints.
func buildSudoku() (*solver.Solver, func(*solver.Solver), error) {
	const n = 4
	s := solver.New(solver.DefaultOptions())
	cells := make([][]solver.VarID, n)
	for r := 0; r < n; r++ {
		cells[r] = make([]solver.VarID, n)
		for c := 0; c < n; c++ {
			v, err := s.NewVariable(fmt.Sprintf("cell%d_%d", r, c), n)
			if err != nil {
				return nil, nil, err
			}
			cells[r][c] = v
		}
	}
	clue, err := s.NewVariableWithDomain("clue", n, []int{0})
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.AddInequality(cells[0][0], solver.Equal, clue); err != nil {
		return nil, nil, err
	}

	for r := 0; r < n; r++ {
		if _, err := s.AddAllDifferent(cells[r], true); err != nil {
			return nil, nil, err
		}
	}
	for c := 0; c < n; c++ {
		col := make([]solver.VarID, n)
		for r := 0; r < n; r++ {
			col[r] = cells[r][c]
		}
		if _, err := s.AddAllDifferent(col, true); err != nil {
			return nil, nil, err
		}
	}
	boxSize := 2
	for br := 0; br < n; br += boxSize {
		for bc := 0; bc < n; bc += boxSize {
			var box []solver.VarID
			for r := br; r < br+boxSize; r++ {
				for c := bc; c < bc+boxSize; c++ {
					box = append(box, cells[r][c])
				}
			}
			if _, err := s.AddAllDifferent(box, true); err != nil {
				return nil, nil, err
			}
		}
	}

	report := func(s *solver.Solver) {
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				fmt.Printf("%d ", s.Value(cells[r][c]))
			}
			fmt.Println()
		}
	}
	return s, report, nil
}

// buildHanoi constrains each disk's peg assignment to differ from the
// next smaller disk's, via a Table constraint over adjacent pairs, and
// pins the smallest disk (disk 0) to the start peg and the largest disk
// (disk n-1) to the target peg — not a full move-sequence model, but
// enough to exercise Table end to end.
func buildHanoi(n int) (*solver.Solver, func(*solver.Solver), error) {
	s := solver.New(solver.DefaultOptions())
	pegs := make([]solver.VarID, n)
	for i := 0; i < n; i++ {
		v, err := s.NewVariable(fmt.Sprintf("disk%d_peg", i), 3)
		if err != nil {
			return nil, nil, err
		}
		pegs[i] = v
	}
	start, err := s.NewVariableWithDomain("start", 3, []int{0})
	if err != nil {
		return nil, nil, err
	}
	target, err := s.NewVariableWithDomain("target", 3, []int{2})
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.AddInequality(pegs[0], solver.Equal, start); err != nil {
		return nil, nil, err
	}
	if _, err := s.AddInequality(pegs[n-1], solver.Equal, target); err != nil {
		return nil, nil, err
	}
	pairwise := [][]int{{0, 1}, {0, 2}, {1, 0}, {1, 2}, {2, 0}, {2, 1}}
	for i := 1; i < n; i++ {
		if _, err := s.AddTable([]solver.VarID{pegs[i-1], pegs[i]}, pairwise); err != nil {
			return nil, nil, err
		}
	}
	report := func(s *solver.Solver) {
		for i, v := range pegs {
			fmt.Printf("disk %d -> peg %d\n", i, s.Value(v))
		}
	}
	return s, report, nil
}
