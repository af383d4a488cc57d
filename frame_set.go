// frame_set.go - Ordered frame collection with canvas metadata

package main

import (
	"errors"
	"fmt"
)

var ErrFrameRange = errors.New("frame index out of range")

// FrameSet holds the frames of one animation in playback order. The canvas
// size comes from an optional META comment and is informational only; it is
// -1 when the source did not declare one.
type FrameSet struct {
	Frames       []*Frame
	CanvasWidth  int
	CanvasHeight int
}

func NewFrameSet() *FrameSet {
	return &FrameSet{CanvasWidth: -1, CanvasHeight: -1}
}

func (s *FrameSet) Len() int { return len(s.Frames) }

// HasCanvas reports whether a META comment declared the canvas size.
func (s *FrameSet) HasCanvas() bool {
	return s.CanvasWidth >= 0 && s.CanvasHeight >= 0
}

// Select keeps frames first..last, inclusive. A negative bound leaves that
// end untouched. The tail is cut before the head so both bounds refer to the
// frame numbers in the source file.
func (s *FrameSet) Select(first, last int) error {
	if last >= 0 {
		if last >= len(s.Frames) {
			return fmt.Errorf("%w: last frame %d, only %d frames available", ErrFrameRange, last, len(s.Frames))
		}
		s.Frames = s.Frames[:last+1]
	}
	if first >= 0 {
		if first >= len(s.Frames) {
			return fmt.Errorf("%w: first frame %d, only %d frames available", ErrFrameRange, first, len(s.Frames))
		}
		s.Frames = s.Frames[first:]
	}
	return nil
}

// Equal compares canvas metadata and every frame in order.
func (s *FrameSet) Equal(other *FrameSet) bool {
	if s.CanvasWidth != other.CanvasWidth || s.CanvasHeight != other.CanvasHeight {
		return false
	}
	if len(s.Frames) != len(other.Frames) {
		return false
	}
	for i := range s.Frames {
		if !s.Frames[i].Equal(other.Frames[i]) {
			return false
		}
	}
	return true
}
