// frame_compare.go - Row-wise frame comparison for patch scripts

package main

import "fmt"

// RowMismatch is the changed span of one screen row. First and Last are
// inclusive column numbers and are only meaningful when Changed is set.
type RowMismatch struct {
	First   int
	Last    int
	Changed bool
}

// Single reports whether exactly one column changed.
func (m RowMismatch) Single() bool { return m.Changed && m.First == m.Last }

func (m RowMismatch) String() string {
	if !m.Changed {
		return "-"
	}
	return fmt.Sprintf("%d..%d", m.First, m.Last)
}

// CompareFrames returns, for every row, the leftmost and rightmost column in
// which the character codes of prev and next differ. Colours are not
// compared: a row whose colours changed but whose characters did not is
// reported unchanged.
func CompareFrames(prev, next *Frame) ([]RowMismatch, error) {
	if prev.Width() != next.Width() || prev.Height() != next.Height() {
		return nil, fmt.Errorf("%w: %s (%dx%d) vs %s (%dx%d)", ErrDimensionMismatch,
			prev.Name, prev.Width(), prev.Height(), next.Name, next.Width(), next.Height())
	}
	width := prev.Width()
	out := make([]RowMismatch, prev.Height())

	for row := range out {
		p, err := prev.Row(PlaneChars, row)
		if err != nil {
			return nil, err
		}
		n, err := next.Row(PlaneChars, row)
		if err != nil {
			return nil, err
		}

		left, right := -1, -1
		for x := 0; x < width; x++ {
			if left < 0 && p[x] != n[x] {
				left = x
			}
			if r := width - x - 1; right < 0 && p[r] != n[r] {
				right = r
			}
		}
		switch {
		case left < 0 && right < 0:
			// unchanged
		case left < 0 || right < 0:
			panic(fmt.Sprintf("compare %s/%s row %d: one-sided mismatch %d/%d", prev.Name, next.Name, row, left, right))
		default:
			out[row] = RowMismatch{First: left, Last: right, Changed: true}
		}
	}
	return out, nil
}
