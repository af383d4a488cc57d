// frame_input.go - Opening and decoding PETSCII source files

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// newSourceReader normalises the source text to UTF-8. Input without a
// byte order mark is taken as UTF-8; a UTF-8 BOM is dropped and UTF-16
// input with a BOM (as written by some Windows editors) is converted.
func newSourceReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ParseFrameFile parses the PETSCII export at path.
func ParseFrameFile(path string) (*FrameSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := ParseFrames(f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}
	return set, nil
}
