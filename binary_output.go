// binary_output.go - Raw frame images for linking with animation mode

/*
Two layouts are supported:

Single file: every frame image back to back, optionally preceded by a
two-byte little-endian start address (a C64 PRG header). The symbol
listing gives each frame's offset in the file and its address relative to
<base>_base, which the including source defines.

Separate files: <output>.0000, <output>.0001, ... one image per frame, and
a listing with a zero-terminated .word table of the frame labels followed
by one .incbin per frame. Frames can be XORed with their predecessor
(frame 0 with the last frame) so a player can apply them with EOR.
*/

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrXORSingleFile = errors.New("xor with previous frame needs separate frame files")

type BinaryOptions struct {
	StartAddr      uint16
	HasStartAddr   bool
	SeparateFrames bool
	XORPrevious    bool
}

// symbolBase turns an output file name into an assembler identifier.
func symbolBase(outputName string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, outputName)
}

// WriteBinaryFrames writes the frame images of set under outputName and the
// matching assembler symbols to sym.
func WriteBinaryFrames(outputName string, set *FrameSet, opt BinaryOptions, sym io.Writer) error {
	if opt.HasStartAddr {
		Logger().Info("start address specified", "addr", fmt.Sprintf("$%04X", opt.StartAddr))
	}
	if opt.SeparateFrames {
		return writeSeparateFrames(outputName, set, opt, sym)
	}
	if opt.XORPrevious {
		return ErrXORSingleFile
	}

	base := symbolBase(outputName)
	var image, listing bytes.Buffer
	if opt.HasStartAddr {
		image.Write([]byte{byte(opt.StartAddr), byte(opt.StartAddr >> 8)})
	}
	for _, f := range set.Frames {
		offset := f.Name + "_offset"
		fmt.Fprintf(&listing, "%s = %d\n", offset, image.Len())
		fmt.Fprintf(&listing, "%s_addr = %s_base + %s\n", f.Name, base, offset)
		if _, err := f.WriteTo(&image); err != nil {
			return err
		}
	}
	fmt.Fprintf(&listing, "%s_end = %d\n", base, image.Len())

	if err := os.WriteFile(outputName, image.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputName, err)
	}
	_, err := listing.WriteTo(sym)
	return err
}

func writeSeparateFrames(outputName string, set *FrameSet, opt BinaryOptions, sym io.Writer) error {
	if opt.HasStartAddr {
		Logger().Warn("start address is ignored for separate frame files")
	}
	base := symbolBase(outputName)
	labels := make([]string, 0, set.Len())
	var incbins bytes.Buffer

	for i, f := range set.Frames {
		fileName := fmt.Sprintf("%s.%04d", outputName, i)
		label := fmt.Sprintf("%s_%04d", base, i)
		labels = append(labels, label)
		Logger().Info("writing frame", "frame", i, "file", fileName)

		image := f
		if opt.XORPrevious {
			prev := i - 1
			if i == 0 {
				prev = set.Len() - 1
			}
			delta, err := XOR(f, set.Frames[prev])
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			image = delta
		}
		if err := os.WriteFile(fileName, image.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", fileName, err)
		}
		fmt.Fprintf(&incbins, "%s:\n\t.incbin\t%q\n", label, fileName)
	}

	var listing bytes.Buffer
	fmt.Fprintf(&listing, "\t.word\t%s\n", strings.Join(labels, ", "))
	listing.WriteString("\t.word\t0\n")
	listing.Write(incbins.Bytes())
	listing.WriteByte('\n')
	_, err := listing.WriteTo(sym)
	return err
}
