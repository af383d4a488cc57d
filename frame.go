// frame.go - PETSCII frame model

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

/*
A frame is one complete text screen: the border and background colour
registers followed by 1000 character codes and 1000 colour codes, both in
row-major order. Frames are built once from the flat payload found in the
source file and are not modified afterwards. XOR produces a delta frame in
which every non-zero field marks a change; deltas are an intermediate value
for the differs and are never written out as a displayable screen.
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

var (
	ErrShortPayload      = errors.New("payload shorter than the border/background header")
	ErrOddCellCount      = errors.New("odd number of cells")
	ErrCellCount         = errors.New("cell count does not match screen size")
	ErrRowRange          = errors.New("row >= height")
	ErrDimensionMismatch = errors.New("frame sizes differ")
)

// Plane selects one of the two per-cell arrays of a frame.
type Plane int

const (
	PlaneChars Plane = iota
	PlaneColors
)

func (p Plane) String() string {
	switch p {
	case PlaneChars:
		return "chars"
	case PlaneColors:
		return "colors"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

type Frame struct {
	Name       string
	Border     int
	Background int
	Chars      []int
	Colors     []int

	width  int
	height int
}

// NewFrame splits a flat payload (border, background, chars..., colors...)
// into a frame. The payload is copied.
func NewFrame(name string, payload []int) (*Frame, error) {
	if len(payload) < FRAME_HEADER_SIZE {
		return nil, fmt.Errorf("frame %s: %w (%d values)", name, ErrShortPayload, len(payload))
	}
	cells := len(payload) - FRAME_HEADER_SIZE
	if cells&1 != 0 {
		return nil, fmt.Errorf("frame %s: %w (%d data values)", name, ErrOddCellCount, cells)
	}
	cells /= 2
	if cells != SCREEN_CELLS {
		return nil, fmt.Errorf("frame %s: %w (got %d, want %d)", name, ErrCellCount, cells, SCREEN_CELLS)
	}

	data := payload[FRAME_HEADER_SIZE:]
	return &Frame{
		Name:       name,
		Border:     payload[0],
		Background: payload[1],
		Chars:      slices.Clone(data[:cells]),
		Colors:     slices.Clone(data[cells:]),
		width:      SCREEN_WIDTH,
		height:     SCREEN_HEIGHT,
	}, nil
}

func (f *Frame) Width() int  { return f.width }
func (f *Frame) Height() int { return f.height }

// Payload returns the flat payload NewFrame was built from.
func (f *Frame) Payload() []int {
	out := make([]int, 0, FRAME_HEADER_SIZE+len(f.Chars)+len(f.Colors))
	out = append(out, f.Border, f.Background)
	out = append(out, f.Chars...)
	return append(out, f.Colors...)
}

// Plane returns the backing array of the requested plane.
func (f *Frame) Plane(p Plane) []int {
	if p == PlaneColors {
		return f.Colors
	}
	return f.Chars
}

// Row returns one screen row of the requested plane. The slice aliases the
// frame and must not be modified.
func (f *Frame) Row(p Plane, row int) ([]int, error) {
	if row < 0 || row >= f.height {
		return nil, fmt.Errorf("%w: row %d of %d", ErrRowRange, row, f.height)
	}
	start := row * f.width
	return f.Plane(p)[start : start+f.width], nil
}

// WriteTo writes border, background, the characters and the colours, one
// byte per value. Values outside 0-255 are truncated.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// Bytes is the binary image written by WriteTo.
func (f *Frame) Bytes() []byte {
	buf := make([]byte, 0, FRAME_HEADER_SIZE+len(f.Chars)+len(f.Colors))
	buf = append(buf, byte(f.Border), byte(f.Background))
	for _, c := range f.Chars {
		buf = append(buf, byte(c))
	}
	for _, c := range f.Colors {
		buf = append(buf, byte(c))
	}
	return buf
}

// Equal reports whether both frames carry the same name and screen content.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Name == other.Name &&
		f.Border == other.Border &&
		f.Background == other.Background &&
		f.width == other.width && f.height == other.height &&
		slices.Equal(f.Chars, other.Chars) &&
		slices.Equal(f.Colors, other.Colors)
}

// XOR combines two frames field by field. The result keeps a's name.
func XOR(a, b *Frame) (*Frame, error) {
	if a.width != b.width || a.height != b.height ||
		len(a.Chars) != len(b.Chars) || len(a.Colors) != len(b.Colors) {
		return nil, fmt.Errorf("%w: %s (%dx%d) ^ %s (%dx%d)", ErrDimensionMismatch,
			a.Name, a.width, a.height, b.Name, b.width, b.height)
	}
	delta := &Frame{
		Name:       a.Name,
		Border:     a.Border ^ b.Border,
		Background: a.Background ^ b.Background,
		Chars:      make([]int, len(a.Chars)),
		Colors:     make([]int, len(a.Colors)),
		width:      a.width,
		height:     a.height,
	}
	for i := range a.Chars {
		delta.Chars[i] = a.Chars[i] ^ b.Chars[i]
		delta.Colors[i] = a.Colors[i] ^ b.Colors[i]
	}
	return delta, nil
}
