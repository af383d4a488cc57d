// delta_ranges.go - Contiguous change runs over a flattened delta plane

package main

import "fmt"

// ChangeRange is an inclusive run of changed cells, First <= Last.
type ChangeRange struct {
	First int
	Last  int
}

func (r ChangeRange) Len() int { return r.Last - r.First + 1 }

func (r ChangeRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.First, r.Last)
}

// ExtractRanges returns the maximal runs of non-zero entries in delta, in
// ascending order. Runs cross row boundaries: delta is the whole plane.
func ExtractRanges(delta []int) []ChangeRange {
	var out []ChangeRange
	for i := 0; i < len(delta); i++ {
		if delta[i] == 0 {
			continue
		}
		j := i
		for j+1 < len(delta) && delta[j+1] != 0 {
			j++
		}
		out = append(out, ChangeRange{First: i, Last: j})
		i = j
	}
	return out
}

// splitRanges cuts every range longer than limit into consecutive chunks of
// at most limit cells. Order and coverage are preserved.
func splitRanges(ranges []ChangeRange, limit int) []ChangeRange {
	out := make([]ChangeRange, 0, len(ranges))
	for _, r := range ranges {
		for first := r.First; first <= r.Last; first += limit {
			out = append(out, ChangeRange{First: first, Last: min(first+limit-1, r.Last)})
		}
	}
	return out
}
