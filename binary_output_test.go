// binary_output_test.go - Tests for binary frame images

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func binaryTestSet(t *testing.T) *FrameSet {
	t.Helper()
	a := mustFrame(t, "_a", blankPayload())
	b := editFrame(t, a, "_b", func(p []int) {
		p[0] = 1
		setChar(p, 0, 65)
		setColor(p, 999, 2)
	})
	c := editFrame(t, b, "_c", func(p []int) { setChar(p, 500, 66) })
	return &FrameSet{Frames: []*Frame{a, b, c}, CanvasWidth: -1, CanvasHeight: -1}
}

func TestWriteBinarySingleFile(t *testing.T) {
	set := binaryTestSet(t)
	out := filepath.Join(t.TempDir(), "frames.bin")

	var sym bytes.Buffer
	opt := BinaryOptions{StartAddr: 0x0801, HasStartAddr: true}
	if err := WriteBinaryFrames(out, set, opt, &sym); err != nil {
		t.Fatalf("WriteBinaryFrames failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if len(data) != 2+3*FRAME_PAYLOAD_LEN {
		t.Fatalf("file size = %d, want %d", len(data), 2+3*FRAME_PAYLOAD_LEN)
	}
	if data[0] != 0x01 || data[1] != 0x08 {
		t.Errorf("start address = % X, want 01 08", data[:2])
	}
	for i, f := range set.Frames {
		start := 2 + i*FRAME_PAYLOAD_LEN
		if !bytes.Equal(data[start:start+FRAME_PAYLOAD_LEN], f.Bytes()) {
			t.Errorf("frame %d image differs", i)
		}
	}

	base := symbolBase(out)
	wantLines := []string{
		"_a_offset = 2",
		"_a_addr = " + base + "_base + _a_offset",
		"_b_offset = 2004",
		"_c_offset = 4006",
		base + "_end = 6008",
	}
	for _, l := range wantLines {
		if !strings.Contains(sym.String(), l+"\n") {
			t.Errorf("symbols lack %q:\n%s", l, sym.String())
		}
	}
}

func TestWriteBinarySingleFileNoStart(t *testing.T) {
	set := binaryTestSet(t)
	out := filepath.Join(t.TempDir(), "raw")
	var sym bytes.Buffer
	if err := WriteBinaryFrames(out, set, BinaryOptions{}, &sym); err != nil {
		t.Fatalf("WriteBinaryFrames failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != 3*FRAME_PAYLOAD_LEN {
		t.Errorf("file size = %d, want %d", info.Size(), 3*FRAME_PAYLOAD_LEN)
	}
	if !strings.HasPrefix(sym.String(), "_a_offset = 0\n") {
		t.Errorf("symbols start with %q", sym.String())
	}
}

func TestWriteBinarySeparateFrames(t *testing.T) {
	set := binaryTestSet(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "anim")

	var sym bytes.Buffer
	if err := WriteBinaryFrames(out, set, BinaryOptions{SeparateFrames: true}, &sym); err != nil {
		t.Fatalf("WriteBinaryFrames failed: %v", err)
	}
	base := symbolBase(out)
	wantHead := "\t.word\t" + base + "_0000, " + base + "_0001, " + base + "_0002\n\t.word\t0\n"
	if !strings.HasPrefix(sym.String(), wantHead) {
		t.Errorf("listing starts with\n%s\nwant\n%s", sym.String(), wantHead)
	}
	for i, f := range set.Frames {
		name := out + "." + []string{"0000", "0001", "0002"}[i]
		data, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("reading %s failed: %v", name, err)
		}
		if !bytes.Equal(data, f.Bytes()) {
			t.Errorf("%s differs from frame %d", name, i)
		}
		if !strings.Contains(sym.String(), "\t.incbin\t\""+name+"\"\n") {
			t.Errorf("listing lacks .incbin for %s", name)
		}
	}
}

func TestWriteBinaryXORPrevious(t *testing.T) {
	set := binaryTestSet(t)
	out := filepath.Join(t.TempDir(), "delta")

	var sym bytes.Buffer
	opt := BinaryOptions{SeparateFrames: true, XORPrevious: true}
	if err := WriteBinaryFrames(out, set, opt, &sym); err != nil {
		t.Fatalf("WriteBinaryFrames failed: %v", err)
	}

	// Applying every delta in turn to the last frame replays the animation
	screen := set.Frames[set.Len()-1].Bytes()
	for i, f := range set.Frames {
		data, err := os.ReadFile(out + "." + []string{"0000", "0001", "0002"}[i])
		if err != nil {
			t.Fatalf("reading frame %d failed: %v", i, err)
		}
		for k := range screen {
			screen[k] ^= data[k]
		}
		if !bytes.Equal(screen, f.Bytes()) {
			t.Errorf("screen after delta %d differs from frame %d", i, i)
		}
	}
}

func TestWriteBinaryXORNeedsSeparateFrames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x")
	err := WriteBinaryFrames(out, binaryTestSet(t), BinaryOptions{XORPrevious: true}, &bytes.Buffer{})
	if !errors.Is(err, ErrXORSingleFile) {
		t.Errorf("error = %v, want ErrXORSingleFile", err)
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Errorf("output written despite the error")
	}
}

func TestSymbolBase(t *testing.T) {
	tests := map[string]string{
		"frames":         "frames",
		"out/frames.bin": "out_frames_bin",
		"a-b c":          "a_b_c",
	}
	for in, want := range tests {
		if got := symbolBase(in); got != want {
			t.Errorf("symbolBase(%q) = %q, want %q", in, got, want)
		}
	}
}
