// codegen_program.go - Self-contained animation program

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

/*
codegen_program.go - Compiled Mode

Compiled mode produces a single module that needs nothing but the screen:
an initialiser that draws the first frame, and one exported routine per
transition that turns frame k-1 into frame k. The routines carry their own
data, so only the cells that actually change are stored.

For each transition the two frames are XORed. Border and background writes
are emitted when the registers change. The character and colour planes are
reduced to runs of changed cells (ExtractRanges, split so a run fits the
8-bit index register) and the runs of both planes are walked in order of
their first cell:

  - a run of one cell becomes lda #value / sta cell;
  - a longer run becomes an X countdown loop reading a table in .rodata.
    Runs that immediately follow and start or end on the same cell as the
    run that opened the loop (in practice the colour run under a character
    run) are folded into the same loop. The loop then spans the hull of the
    folded runs and each folded run gets a table over the whole hull. The
    tables hold the next frame's values, so hull cells outside a run are
    simply rewritten with their final value.

Data and code accumulate in separate buffers and are written out, behind
the import and export declarations, by Finish.
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrNotEnoughFrames    = errors.New("not enough frames")
	ErrGeneratorFinished  = errors.New("program generator already finished")
	ErrLoopLengthExceeded = errors.New("loop longer than the index register allows")
)

// ProgramStats summarises one compiled-mode run.
type ProgramStats struct {
	Transitions  int
	DirectStores int
	Loops        int
	FoldedRuns   int // runs that shared another run's loop
	DataBytes    int
}

// planeRun is a change run together with the plane it belongs to.
type planeRun struct {
	ChangeRange
	plane Plane
}

type ProgramGenerator struct {
	target  Target
	isa     InstructionSet
	initial *Frame

	frameCounter int
	labelCounter int
	code         asmWriter
	data         asmWriter
	exports      []string
	stats        ProgramStats
	finished     bool
}

func NewProgramGenerator(target Target, initial *Frame) *ProgramGenerator {
	g := &ProgramGenerator{
		target:  target,
		isa:     mos6502{},
		initial: initial,
	}
	g.code.indent = "\t"
	g.data.indent = "\t"
	return g
}

// GenerateProgram compiles every adjacent pair of set into one module and
// writes it to w. At least two frames are required; on error nothing is
// written.
func GenerateProgram(w io.Writer, set *FrameSet, target Target) (ProgramStats, error) {
	if set.Len() < 2 {
		return ProgramStats{}, fmt.Errorf("compiled mode needs at least 2 frames, got %d: %w", set.Len(), ErrNotEnoughFrames)
	}
	g := NewProgramGenerator(target, set.Frames[0])
	for i := 0; i+1 < set.Len(); i++ {
		if err := g.AddTransition(set.Frames[i], set.Frames[i+1]); err != nil {
			return ProgramStats{}, fmt.Errorf("transition %d->%d: %w", i, i+1, err)
		}
	}
	if _, err := g.Finish(w); err != nil {
		return ProgramStats{}, err
	}
	return g.Stats(), nil
}

func (g *ProgramGenerator) Stats() ProgramStats { return g.stats }

// animLabel places animation_<name>_<suffix> in the code section.
func (g *ProgramGenerator) animLabel(suffix string) string {
	name := fmt.Sprintf("animation_%s_%s", g.target.AnimationName, suffix)
	g.code.WriteByte('\n')
	g.code.label(name)
	return name
}

// nextLabel allocates an anonymous label and places it in the code or the
// data section.
func (g *ProgramGenerator) nextLabel(codeLabel bool) string {
	name := fmt.Sprintf("%s_label%04X", g.target.AnimationName, g.labelCounter)
	g.labelCounter++
	if codeLabel {
		g.code.label(name)
	} else {
		g.data.WriteByte('\n')
		g.data.label(name)
	}
	return name
}

func (g *ProgramGenerator) destination(p Plane) string {
	if p == PlaneColors {
		return g.isa.Address(g.target.ColorRAM)
	}
	return g.target.ScreenSymbol
}

// AddTransition emits the routine that turns prev into next.
func (g *ProgramGenerator) AddTransition(prev, next *Frame) error {
	if g.finished {
		return ErrGeneratorFinished
	}
	delta, err := XOR(prev, next)
	if err != nil {
		return err
	}

	g.frameCounter++
	g.exports = append(g.exports, g.animLabel(fmt.Sprintf("frame%d", g.frameCounter)))
	g.stats.Transitions++

	if delta.Background != 0 {
		g.code.op(g.isa.LoadImmediate(next.Background), g.isa.Store(g.isa.Address(g.target.BackgroundReg)))
	}
	if delta.Border != 0 {
		g.code.op(g.isa.LoadImmediate(next.Border), g.isa.Store(g.isa.Address(g.target.BorderReg)))
	}

	runs := mergeRuns(
		splitRanges(ExtractRanges(delta.Chars), MAX_LOOP_LENGTH),
		splitRanges(ExtractRanges(delta.Colors), MAX_LOOP_LENGTH),
	)
	if err := g.emitRuns(runs, next); err != nil {
		return err
	}
	g.code.op(g.isa.Return())

	Logger().Debug("compiled transition",
		"frame", g.frameCounter, "prev", prev.Name, "next", next.Name, "runs", len(runs))
	return nil
}

// mergeRuns interleaves the character and colour runs by first cell,
// characters first on equal starts.
func mergeRuns(chars, colors []ChangeRange) []planeRun {
	out := make([]planeRun, 0, len(chars)+len(colors))
	i, j := 0, 0
	for i < len(chars) || j < len(colors) {
		if j >= len(colors) || (i < len(chars) && chars[i].First <= colors[j].First) {
			out = append(out, planeRun{ChangeRange: chars[i], plane: PlaneChars})
			i++
		} else {
			out = append(out, planeRun{ChangeRange: colors[j], plane: PlaneColors})
			j++
		}
	}
	return out
}

// foldRuns returns how many runs starting at runs[i] share one loop. A
// plane joins a loop at most once.
func foldRuns(runs []planeRun, i int) int {
	anchor := runs[i]
	planes := map[Plane]bool{anchor.plane: true}
	n := 1
	for k := i + 1; k < len(runs); k++ {
		r := runs[k]
		if planes[r.plane] || (r.First != anchor.First && r.Last != anchor.Last) {
			break
		}
		planes[r.plane] = true
		n++
	}
	return n
}

func (g *ProgramGenerator) emitRuns(runs []planeRun, next *Frame) error {
	for i := 0; i < len(runs); {
		r := runs[i]
		if r.Len() == 1 {
			g.code.op(
				g.isa.LoadImmediate(next.Plane(r.plane)[r.First]),
				g.isa.Store(fmt.Sprintf("%s+%d", g.destination(r.plane), r.First)),
			)
			g.stats.DirectStores++
			i++
			continue
		}
		n := foldRuns(runs, i)
		if err := g.emitLoop(runs[i:i+n], next); err != nil {
			return err
		}
		i += n
	}
	return nil
}

// emitLoop drives every run of group with one X countdown over the hull of
// the group.
func (g *ProgramGenerator) emitLoop(group []planeRun, next *Frame) error {
	span := group[0].ChangeRange
	for _, r := range group[1:] {
		span.First = min(span.First, r.First)
		span.Last = max(span.Last, r.Last)
	}
	if span.Len() > MAX_LOOP_LENGTH {
		return fmt.Errorf("%w: %v", ErrLoopLengthExceeded, span)
	}

	tables := make([]string, len(group))
	for k, r := range group {
		tables[k] = g.nextLabel(false)
		g.stats.DataBytes += g.data.bytes(next.Plane(r.plane)[span.First : span.Last+1])
	}

	g.code.op(g.isa.LoadIndex(span.Len()))
	loop := g.nextLabel(true)
	for k, r := range group {
		g.code.op(
			g.isa.LoadIndexed(tables[k]+"-1"),
			g.isa.StoreIndexed(fmt.Sprintf("%s+%d-1", g.destination(r.plane), span.First)),
		)
	}
	g.code.op(g.isa.DecrementBranchNotZero(loop)...)

	g.stats.Loops++
	g.stats.FoldedRuns += len(group) - 1
	return nil
}

// Finish emits the initialiser and writes the module to w. The generator
// cannot be used afterwards.
func (g *ProgramGenerator) Finish(w io.Writer) (int64, error) {
	if g.finished {
		return 0, ErrGeneratorFinished
	}
	g.finished = true
	g.emitInit()

	var out asmWriter
	out.directive(".import", g.target.ScreenSymbol)
	for _, label := range g.exports {
		out.directive(".export", label)
	}
	out.directive(".rodata")
	out.WriteString(g.data.String())
	out.WriteByte('\n')
	out.directive(".code")
	out.WriteString(g.code.String())
	out.WriteByte('\n')

	Logger().Info("compiled animation",
		"transitions", g.stats.Transitions,
		"loops", g.stats.Loops,
		"folded_runs", g.stats.FoldedRuns,
		"direct_stores", g.stats.DirectStores,
		"data_bytes", g.stats.DataBytes)

	n, err := io.WriteString(w, out.String())
	return int64(n), err
}

// emitInit draws the initial frame and returns the number of transition
// routines in A (low) and X (high).
func (g *ProgramGenerator) emitInit() {
	g.exports = append(g.exports, g.animLabel("init"))

	charTable := g.nextLabel(false)
	g.stats.DataBytes += g.data.bytes(g.initial.Chars)
	colorTable := g.nextLabel(false)
	g.stats.DataBytes += g.data.bytes(g.initial.Colors)

	g.code.op(g.isa.LoadImmediate(g.initial.Background), g.isa.Store(g.isa.Address(g.target.BackgroundReg)))
	g.code.op(g.isa.LoadImmediate(g.initial.Border), g.isa.Store(g.isa.Address(g.target.BorderReg)))

	g.code.op(g.isa.LoadIndex(0))
	loop := g.nextLabel(true)
	g.code.directive(".repeat", strconv.Itoa(INIT_COPY_CHUNKS), "I")
	for _, pair := range [][2]string{
		{charTable, g.target.ScreenSymbol},
		{colorTable, g.isa.Address(g.target.ColorRAM)},
	} {
		g.code.op(
			g.isa.LoadIndexed(fmt.Sprintf("%s+I*%d", pair[0], INIT_COPY_CHUNK_SIZE)),
			g.isa.StoreIndexed(fmt.Sprintf("%s+I*%d", pair[1], INIT_COPY_CHUNK_SIZE)),
		)
	}
	g.code.directive(".endrepeat")
	g.code.op(g.isa.IncrementBranchBelow(INIT_COPY_CHUNK_SIZE, loop)...)

	g.code.op(g.isa.LoadImmediate(g.frameCounter&0xFF), g.isa.LoadIndex(g.frameCounter>>8))
	g.code.op(g.isa.Return())
}
