// codegen_animation.go - Patch scripts between consecutive frames

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

/*
codegen_animation.go - Animation Mode

Animation mode leaves the frames themselves in memory (linked in from the
binary frame files, imported by name) and generates one procedure per
transition that patches the live screen from one frame to the next. For
every row whose characters changed the procedure copies the changed span
from the next frame's image: a single lda/sta pair per plane for one cell,
or an X-indexed countdown loop for a wider span. The colour plane is copied
over the same span as the characters.

Transitions run 0->1, 1->2, ... and close the loop with last->0 (emitted
first). Ping-pong adds the reverse path n-1->n-2 ... 1->0.
*/

package main

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Transition is an ordered pair of frame indices.
type Transition struct {
	Prev int
	Next int
}

// AnimationTransitions lists the transitions for n frames in emission order.
func AnimationTransitions(n int, pingPong bool) []Transition {
	if n == 0 {
		return nil
	}
	out := make([]Transition, 0, 2*n)
	for i := 0; i < n; i++ {
		prev := i - 1
		if i == 0 {
			prev = n - 1
		}
		out = append(out, Transition{Prev: prev, Next: i})
	}
	if pingPong {
		for i := n - 1; i > 0; i-- {
			out = append(out, Transition{Prev: i, Next: i - 1})
		}
	}
	return out
}

type AnimationGenerator struct {
	target   Target
	isa      InstructionSet
	pingPong bool
}

func NewAnimationGenerator(target Target, pingPong bool) *AnimationGenerator {
	return &AnimationGenerator{target: target, isa: mos6502{}, pingPong: pingPong}
}

// ProcName is the exported name of the procedure for prev -> next.
func ProcName(prev, next *Frame) string {
	return "animation_" + prev.Name + next.Name
}

// Generate writes the animation module for set to w and returns the
// exported procedure names. Nothing is written if generation fails.
func (g *AnimationGenerator) Generate(w io.Writer, set *FrameSet) ([]string, error) {
	if set.Len() == 0 {
		return nil, fmt.Errorf("animation: %w", ErrNotEnoughFrames)
	}
	transitions := AnimationTransitions(set.Len(), g.pingPong)

	// Comparisons are independent; only the emission below is ordered.
	mismatches := make([][]RowMismatch, len(transitions))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range transitions {
		i, t := i, t
		eg.Go(func() error {
			prev, next := set.Frames[t.Prev], set.Frames[t.Next]
			Logger().Debug("comparing frames", "prev", t.Prev, "prev_name", prev.Name, "next", t.Next, "next_name", next.Name)
			m, err := CompareFrames(prev, next)
			if err != nil {
				return fmt.Errorf("transition %d->%d: %w", t.Prev, t.Next, err)
			}
			mismatches[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &asmWriter{indent: "\t "}
	fmt.Fprintf(out, ";\twidth=%d, height=%d\n", set.CanvasWidth, set.CanvasHeight)
	out.directive(".import", g.target.ScreenSymbol)
	for _, f := range set.Frames {
		out.directive(".import", f.Name)
	}

	var names []string
	emitted := make(map[string]bool, len(transitions))
	for i, t := range transitions {
		prev, next := set.Frames[t.Prev], set.Frames[t.Next]
		name := ProcName(prev, next)
		if emitted[name] {
			// Two frames with ping-pong revisit 1->0.
			Logger().Debug("skipping duplicate transition", "proc", name)
			continue
		}
		emitted[name] = true
		names = append(names, name)
		g.emitProc(out, name, next, mismatches[i])
	}

	out.WriteByte('\n')
	for _, name := range names {
		out.directive(".export", name)
	}

	if _, err := io.WriteString(w, out.String()); err != nil {
		return nil, err
	}
	return names, nil
}

func (g *AnimationGenerator) emitProc(out *asmWriter, name string, next *Frame, rows []RowMismatch) {
	out.WriteByte('\n')
	out.directive(".proc", name)
	for row, m := range rows {
		if !m.Changed {
			continue
		}
		screen := fmt.Sprintf("%s+%d*%d+%d", g.target.ScreenSymbol, row, SCREEN_WIDTH, m.First)
		color := fmt.Sprintf("%s+%d*%d+%d", g.isa.Address(g.target.ColorRAM), row, SCREEN_WIDTH, m.First)
		charSrc := fmt.Sprintf("%s+%d+%d*%d+%d", next.Name, FRAME_HEADER_SIZE, row, SCREEN_WIDTH, m.First)
		colorSrc := fmt.Sprintf("%s+%d+%d*%d+%d*%d+%d", next.Name, FRAME_HEADER_SIZE,
			SCREEN_WIDTH, SCREEN_HEIGHT, row, SCREEN_WIDTH, m.First)

		if m.Single() {
			out.op(g.isa.LoadAbsolute(charSrc), g.isa.Store(screen))
			out.op(g.isa.LoadAbsolute(colorSrc), g.isa.Store(color))
			continue
		}
		loop := fmt.Sprintf("loop%d", row)
		out.op(g.isa.LoadIndex(m.Last - m.First))
		out.label(loop)
		out.op(g.isa.LoadIndexed(charSrc), g.isa.StoreIndexed(screen))
		out.op(g.isa.LoadIndexed(colorSrc), g.isa.StoreIndexed(color))
		out.op(g.isa.DecrementBranchNotNegative(loop)...)
	}
	out.op(g.isa.Return())
	out.directive(".endproc")
}
