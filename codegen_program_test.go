// codegen_program_test.go - Tests for compiled mode

package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func assembleProgram(t *testing.T, src string, target Target) *simProgram {
	t.Helper()
	prog, err := simAssemble(src, map[string]int{target.ScreenSymbol: SIM_SCREEN_ADDR})
	if err != nil {
		t.Fatalf("simAssemble failed: %v", err)
	}
	return prog
}

// runProgram compiles set, runs the initialiser and then every transition
// routine in order, checking the whole screen after each call.
func runProgram(t *testing.T, set *FrameSet, target Target) ProgramStats {
	t.Helper()
	var out bytes.Buffer
	stats, err := GenerateProgram(&out, set, target)
	if err != nil {
		t.Fatalf("GenerateProgram failed: %v", err)
	}
	prog := assembleProgram(t, out.String(), target)
	cpu := newSim6502(prog)

	// Garbage on screen before the initialiser runs
	for i := 0; i < SCREEN_CELLS; i++ {
		prog.mem[SIM_SCREEN_ADDR+i] = byte(i)
		prog.mem[int(target.ColorRAM)+i] = byte(i >> 2)
	}

	initName := fmt.Sprintf("animation_%s_init", target.AnimationName)
	if err := cpu.Call(initName); err != nil {
		t.Fatalf("%s: %v", initName, err)
	}
	cpu.checkScreen(t, initName, set.Frames[0], target, true)
	if count := int(cpu.A) | int(cpu.X)<<8; count != set.Len()-1 {
		t.Errorf("%s returned %d transitions, want %d", initName, count, set.Len()-1)
	}

	for k := 1; k < set.Len(); k++ {
		name := fmt.Sprintf("animation_%s_frame%d", target.AnimationName, k)
		if err := cpu.Call(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		cpu.checkScreen(t, name, set.Frames[k], target, true)
	}
	return stats
}

// twoFrames builds a blank frame and an edited copy of it.
func twoFrames(t *testing.T, edit func(p []int)) *FrameSet {
	t.Helper()
	a := mustFrame(t, "_a", blankPayload())
	b := editFrame(t, a, "_b", edit)
	return &FrameSet{Frames: []*Frame{a, b}, CanvasWidth: -1, CanvasHeight: -1}
}

func TestGenerateProgramNeedsTwoFrames(t *testing.T) {
	set := NewFrameSet()
	set.Frames = append(set.Frames, mustFrame(t, "_only", blankPayload()))

	var out bytes.Buffer
	_, err := GenerateProgram(&out, set, DefaultTarget())
	if !errors.Is(err, ErrNotEnoughFrames) {
		t.Errorf("GenerateProgram error = %v, want ErrNotEnoughFrames", err)
	}
	if out.Len() != 0 {
		t.Errorf("%d bytes written on error", out.Len())
	}
}

func TestGenerateProgramLayout(t *testing.T) {
	set := twoFrames(t, func(p []int) { setChar(p, 405, 9) })
	var out bytes.Buffer
	if _, err := GenerateProgram(&out, set, DefaultTarget()); err != nil {
		t.Fatalf("GenerateProgram failed: %v", err)
	}
	s := out.String()

	wantHead := "\t.import\tANIMATIONSCREEN\n" +
		"\t.export\tanimation_petscii_frame1\n" +
		"\t.export\tanimation_petscii_init\n" +
		"\t.rodata\n"
	if !strings.HasPrefix(s, wantHead) {
		t.Errorf("output starts with\n%s\nwant\n%s", s[:min(len(s), 120)], wantHead)
	}
	code := strings.Index(s, "\t.code\n")
	if code < 0 || code < strings.Index(s, "\t.byte\t") {
		t.Fatalf("code section missing or before the data")
	}
	wantFrame := "\nanimation_petscii_frame1:\n\tlda\t#9\n\tsta\tANIMATIONSCREEN+405\n\trts\n"
	if !strings.Contains(s[code:], wantFrame) {
		t.Errorf("transition routine missing, want\n%s\ngot\n%s", wantFrame, s[code:])
	}
	if !strings.Contains(s, "\t.repeat\t4, I\n") || !strings.Contains(s, "\tcpx\t#250\n") {
		t.Errorf("initialiser copy loop missing")
	}
	if !strings.Contains(s, "\tlda\t#1\n\tldx\t#0\n\trts\n") {
		t.Errorf("initialiser does not return the transition count")
	}
	runProgram(t, set, DefaultTarget())
}

func TestGenerateProgramRegisters(t *testing.T) {
	set := twoFrames(t, func(p []int) {
		p[0] = 2
		p[1] = 0
	})
	var out bytes.Buffer
	stats, err := GenerateProgram(&out, set, DefaultTarget())
	if err != nil {
		t.Fatalf("GenerateProgram failed: %v", err)
	}
	want := "animation_petscii_frame1:\n\tlda\t#0\n\tsta\t$D021\n\tlda\t#2\n\tsta\t$D020\n\trts\n"
	if !strings.Contains(out.String(), want) {
		t.Errorf("register writes missing, want\n%s", want)
	}
	if stats.Loops != 0 || stats.DirectStores != 0 {
		t.Errorf("stats = %+v, want no cell stores", stats)
	}
	runProgram(t, set, DefaultTarget())
}

func TestGenerateProgramFolding(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(p []int)
		loops  int
		folded int
	}{
		{"same span", func(p []int) {
			for c := 10; c <= 20; c++ {
				setChar(p, c, 1)
				setColor(p, c, 2)
			}
		}, 1, 1},
		{"same last", func(p []int) {
			for c := 10; c <= 20; c++ {
				setChar(p, c, 1)
			}
			for c := 15; c <= 20; c++ {
				setColor(p, c, 2)
			}
		}, 1, 1},
		{"same first", func(p []int) {
			for c := 100; c <= 110; c++ {
				setColor(p, c, 3)
			}
			for c := 100; c <= 180; c++ {
				setChar(p, c, 4)
			}
		}, 1, 1},
		{"inside", func(p []int) {
			for c := 10; c <= 20; c++ {
				setChar(p, c, 1)
			}
			for c := 12; c <= 14; c++ {
				setColor(p, c, 2)
			}
		}, 2, 0},
		{"one plane", func(p []int) {
			for c := 0; c <= 5; c++ {
				setChar(p, c, 1)
			}
			for c := 7; c <= 9; c++ {
				setChar(p, c, 1)
			}
		}, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := twoFrames(t, tt.edit)
			stats := runProgram(t, set, DefaultTarget())
			if stats.Loops != tt.loops || stats.FoldedRuns != tt.folded {
				t.Errorf("loops/folded = %d/%d, want %d/%d", stats.Loops, stats.FoldedRuns, tt.loops, tt.folded)
			}
		})
	}
}

func TestGenerateProgramFoldedLoop(t *testing.T) {
	set := twoFrames(t, func(p []int) {
		for c := 10; c <= 12; c++ {
			setChar(p, c, 1)
			setColor(p, c, 2)
		}
	})
	var out bytes.Buffer
	if _, err := GenerateProgram(&out, set, DefaultTarget()); err != nil {
		t.Fatalf("GenerateProgram failed: %v", err)
	}
	want := "\tldx\t#3\n" +
		"petscii_label0002:\n" +
		"\tlda\tpetscii_label0000-1,x\n" +
		"\tsta\tANIMATIONSCREEN+10-1,x\n" +
		"\tlda\tpetscii_label0001-1,x\n" +
		"\tsta\t$D800+10-1,x\n" +
		"\tdex\n" +
		"\tbne\tpetscii_label0002\n"
	if !strings.Contains(out.String(), want) {
		t.Errorf("folded loop missing, want\n%s\ngot\n%s", want, out.String())
	}
	if !strings.Contains(out.String(), "petscii_label0000:\n\n\t.byte\t1, 1, 1\n") {
		t.Errorf("character table missing")
	}
}

// TestGenerateProgramLongRuns changes more cells in one run than X can count.
func TestGenerateProgramLongRuns(t *testing.T) {
	set := twoFrames(t, func(p []int) {
		for c := 0; c < SCREEN_CELLS; c++ {
			setChar(p, c, 81)
		}
		for c := 300; c < 900; c++ {
			setColor(p, c, 1)
		}
	})
	stats := runProgram(t, set, DefaultTarget())
	// 1000 characters in 255-cell chunks, 600 colours likewise
	if stats.Loops < 4 {
		t.Errorf("loops = %d, want at least 4", stats.Loops)
	}
}

func TestGenerateProgramRandom(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			set := randomFrameSet(t, rand.New(rand.NewSource(seed)), 6)
			stats := runProgram(t, set, DefaultTarget())
			if stats.Transitions != 5 {
				t.Errorf("Transitions = %d, want 5", stats.Transitions)
			}
		})
	}
}

func TestGenerateProgramCustomTarget(t *testing.T) {
	target := Target{
		ScreenSymbol:  "SCREEN",
		ColorRAM:      0xC000,
		BorderReg:     0xC400,
		BackgroundReg: 0xC401,
		AnimationName: "intro",
	}
	set := randomFrameSet(t, rand.New(rand.NewSource(9)), 3)
	runProgram(t, set, target)
}

func TestProgramGeneratorFinished(t *testing.T) {
	a := mustFrame(t, "_a", blankPayload())
	g := NewProgramGenerator(DefaultTarget(), a)
	if err := g.AddTransition(a, a); err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}
	var out bytes.Buffer
	if _, err := g.Finish(&out); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := g.AddTransition(a, a); !errors.Is(err, ErrGeneratorFinished) {
		t.Errorf("AddTransition after Finish = %v, want ErrGeneratorFinished", err)
	}
	if _, err := g.Finish(&out); !errors.Is(err, ErrGeneratorFinished) {
		t.Errorf("second Finish = %v, want ErrGeneratorFinished", err)
	}
	// An unchanged screen still gets its routine
	if !strings.Contains(out.String(), "animation_petscii_frame1:\n\trts\n") {
		t.Errorf("empty transition routine missing")
	}
}

func TestMergeAndFoldRuns(t *testing.T) {
	runs := mergeRuns(
		[]ChangeRange{{0, 4}, {10, 12}},
		[]ChangeRange{{0, 2}, {8, 12}, {20, 21}},
	)
	want := []planeRun{
		{ChangeRange{0, 4}, PlaneChars},
		{ChangeRange{0, 2}, PlaneColors},
		{ChangeRange{8, 12}, PlaneColors},
		{ChangeRange{10, 12}, PlaneChars},
		{ChangeRange{20, 21}, PlaneColors},
	}
	if len(runs) != len(want) {
		t.Fatalf("mergeRuns = %v", runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %v, want %v", i, runs[i], want[i])
		}
	}
	for i, n := range []int{2, 1, 2, 1, 1} {
		if got := foldRuns(runs, i); got != n {
			t.Errorf("foldRuns(%d) = %d, want %d", i, got, n)
		}
	}
}
