// Package report serialises a solve outcome as plain text, in the
// DIMACS/SAT-competition "c"-comment style the teacher's main.go prints
// statistics in (spec §6: "Benchmark loggers (external) may serialise
// statistics as plain text").
package report

import (
	"fmt"
	"io"
)

// Stats is the subset of solver.Statistics this package formats. Defined
// locally (rather than importing package solver) to keep report free of a
// dependency on the public API it's meant to describe.
type Stats struct {
	Decisions      int
	Propagations   int
	Conflicts      int
	LearnedClauses int
	Restarts       int
}

// WriteStats writes one "c key: value" line per statistic, the same
// layout as the teacher's main.go.
func WriteStats(w io.Writer, result string, st Stats) {
	fmt.Fprintf(w, "c result:       %s\n", result)
	fmt.Fprintf(w, "c decisions:    %d\n", st.Decisions)
	fmt.Fprintf(w, "c propagations: %d\n", st.Propagations)
	fmt.Fprintf(w, "c conflicts:    %d\n", st.Conflicts)
	fmt.Fprintf(w, "c learned:      %d\n", st.LearnedClauses)
	fmt.Fprintf(w, "c restarts:     %d\n", st.Restarts)
}

// WriteSolution writes one "v <var> = <value>" line per entry in values,
// in the order given — the assignment-reporting convention the DIMACS SAT
// format uses for its "v" lines, generalized from booleans to arbitrary
// domain values.
func WriteSolution(w io.Writer, names []string, values []int) {
	for i, name := range names {
		fmt.Fprintf(w, "v %s = %d\n", name, values[i])
	}
}
