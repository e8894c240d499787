// Package hallival implements Hall-interval bounds consistency (spec
// §4.7), grounded on
// original_source/vertexy/src/private/ds/HallIntervalPropagation.cpp.
// Rather than porting that file's two-union-find-forest (predecessors /
// hallIntervalIndices) formulation literally, this implements the same
// lower-bound-pushing effect with a single union-find over compressed
// value buckets: each bucket tracks remaining capacity, and once a
// bucket's capacity is exhausted it is merged with its right neighbor so
// future lookups skip straight past it. This is the same asymptotic
// algorithm (O(n log n) via boundary compression, near-O(n α(n)) per
// lookup) and the same propagation outcome (lower bounds pushed to the
// edge of a saturated Hall set), traded for a simpler single-structure
// implementation. See DESIGN.md.
package hallival

import "sort"

// Interval is one of the intervals being checked for feasibility, keyed
// by an opaque int (typically a VarID) the caller uses to map pruning
// callbacks back to a variable.
type Interval struct {
	Key int
	Min int
	Max int
}

// Prune runs Hall-interval lower-bound propagation over intervals given a
// per-value capacity function. onPrune is invoked with (key, newMin) for
// every interval whose lower bound must rise; its boolean result is not
// consulted, so returning false vetoes nothing and the sweep always runs
// over every interval. It returns false if the intervals are jointly
// infeasible (some Hall set demands more capacity than exists).
func Prune(intervals []Interval, capOf func(value int) int, onPrune func(key int, newMin int) bool) bool {
	if len(intervals) == 0 {
		return true
	}

	bounds := collectBoundaries(intervals)
	// bucket k covers values [bounds[k], bounds[k+1]-1].
	nBuckets := len(bounds) - 1

	remaining := make([]int, nBuckets)
	for k := 0; k < nBuckets; k++ {
		sum := 0
		for v := bounds[k]; v < bounds[k+1]; v++ {
			sum += capOf(v)
		}
		remaining[k] = sum
	}

	parent := make([]int, nBuckets+1) // sentinel bucket nBuckets means "no capacity left anywhere"
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	bucketOf := func(v int) int {
		return sort.Search(len(bounds)-1, func(k int) bool { return bounds[k+1] > v })
	}

	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Max < sorted[j].Max })

	feasible := true
	for _, iv := range sorted {
		lo := bucketOf(iv.Min)
		hi := bucketOf(iv.Max) // bucket containing Max itself

		root := find(lo)
		if root > hi {
			feasible = false
			continue
		}
		remaining[root]--
		if remaining[root] <= 0 {
			parent[root] = find(root + 1)
		}
		if root > lo {
			newMin := bounds[root]
			onPrune(iv.Key, newMin)
		}
	}
	return feasible
}

func collectBoundaries(intervals []Interval) []int {
	set := make(map[int]bool, len(intervals)*2)
	for _, iv := range intervals {
		set[iv.Min] = true
		set[iv.Max+1] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Invert maps intervals onto the negated axis (newMin=-Max, newMax=-Min)
// so that running Prune on the result and negating the produced bounds
// implements upper-bound consistency with the same algorithm (spec §4.7's
// "Upper-bound consistency is obtained by running the same algorithm on
// inverted intervals").
func Invert(intervals []Interval) []Interval {
	out := make([]Interval, len(intervals))
	for i, iv := range intervals {
		out[i] = Interval{Key: iv.Key, Min: -iv.Max, Max: -iv.Min}
	}
	return out
}
