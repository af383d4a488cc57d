// petscii_constants.go - C64 text screen geometry and hardware addresses

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

package main

// Text screen geometry (VIC-II 40 column mode)
const (
	SCREEN_WIDTH  = 40
	SCREEN_HEIGHT = 25
	SCREEN_CELLS  = SCREEN_WIDTH * SCREEN_HEIGHT

	// Border and background precede the two planes in every payload
	FRAME_HEADER_SIZE = 2
	FRAME_PAYLOAD_LEN = FRAME_HEADER_SIZE + 2*SCREEN_CELLS
)

// Default target addresses
const (
	DEFAULT_SCREEN_SYMBOL  = "ANIMATIONSCREEN"
	DEFAULT_COLOR_RAM      = 0xD800
	DEFAULT_BORDER_REG     = 0xD020 // VIC-II border colour
	DEFAULT_BACKGROUND_REG = 0xD021 // VIC-II background colour 0
	DEFAULT_ANIMATION_NAME = "petscii"
)

// Code generation limits
const (
	// X is eight bits wide; a countdown loop from 255 to 1 is the longest run
	MAX_LOOP_LENGTH = 255

	// The initialiser copies the screen in four interleaved chunks
	INIT_COPY_CHUNKS     = 4
	INIT_COPY_CHUNK_SIZE = SCREEN_CELLS / INIT_COPY_CHUNKS

	// Bytes per .byte line in the rodata section
	DATA_BYTES_PER_LINE = 128
)

// Target describes where the generated code writes. Everything that is a
// property of the machine rather than of the input lives here.
type Target struct {
	ScreenSymbol  string // imported symbol of the live screen RAM
	ColorRAM      uint16
	BorderReg     uint16
	BackgroundReg uint16
	AnimationName string // prefix for labels in compiled mode
}

// DefaultTarget returns the stock C64 configuration.
func DefaultTarget() Target {
	return Target{
		ScreenSymbol:  DEFAULT_SCREEN_SYMBOL,
		ColorRAM:      DEFAULT_COLOR_RAM,
		BorderReg:     DEFAULT_BORDER_REG,
		BackgroundReg: DEFAULT_BACKGROUND_REG,
		AnimationName: DEFAULT_ANIMATION_NAME,
	}
}
