// frame_writer.go - Writing frame sets back as C array source

package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WriteFrameSource writes set in the format ParseFrames reads: one
// unsigned char array per frame, one screen row per line, and a META
// comment at the end when the set declares a canvas size.
func WriteFrameSource(w io.Writer, set *FrameSet) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("// PETSCII memory image\n")
	for _, f := range set.Frames {
		name := strings.TrimPrefix(f.Name, "_")
		bw.WriteString("unsigned char " + name + "[]={// border,bg,chars,colors\n")
		writeValues(bw, []int{f.Border, f.Background}, true)

		for row := 0; row < f.Height(); row++ {
			chars, err := f.Row(PlaneChars, row)
			if err != nil {
				return err
			}
			writeValues(bw, chars, true)
		}
		for row := 0; row < f.Height(); row++ {
			colors, err := f.Row(PlaneColors, row)
			if err != nil {
				return err
			}
			writeValues(bw, colors, row+1 < f.Height())
		}
		bw.WriteString("};\n")
	}
	if set.HasCanvas() {
		bw.WriteString("// META: " + strconv.Itoa(set.CanvasWidth) + " " + strconv.Itoa(set.CanvasHeight) + "\n")
	}
	return bw.Flush()
}

func writeValues(bw *bufio.Writer, values []int, more bool) {
	for i, v := range values {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString(strconv.Itoa(v))
	}
	if more {
		bw.WriteByte(',')
	}
	bw.WriteByte('\n')
}
