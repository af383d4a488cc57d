// main.go - Command line front end for the PETSCII animation compiler

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Exit codes
const (
	EXIT_OK    = 0
	EXIT_ERROR = 1 // usage, I/O or generation failure
	EXIT_INPUT = 2 // input cannot be opened or parsed
	EXIT_RANGE = 3 // frame selection out of range
)

var errUsage = errors.New("usage error")

func boilerPlate(w io.Writer) {
	fmt.Fprintln(w, "petsciiconvert - PETSCII animation compiler for the Commodore 64")
	fmt.Fprintln(w, "(c) 2024 - 2026 Zayn Otley")
	fmt.Fprintln(w, "https://github.com/intuitionamiga/petsciiconvert")
	fmt.Fprintln(w, "License: GPLv3 or later")
}

type options struct {
	generateCode   bool
	pingPong       bool
	first          int
	last           int
	outputBin      string
	startAddr      string
	separateFrames bool
	xorPrevious    bool
	exportC        bool
	output         string
	verbose        bool
	quiet          bool

	name          string
	screen        string
	colorRAM      string
	borderReg     string
	backgroundReg string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opt options

	flagSet := flag.NewFlagSet("petsciiconvert", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&opt.generateCode, "generate-code", false, "Compile a self-contained animation program")
	flagSet.BoolVar(&opt.pingPong, "ping-pong", false, "Also generate the reverse transitions (animation mode)")
	flagSet.IntVar(&opt.first, "first", -1, "First frame to keep (0-based)")
	flagSet.IntVar(&opt.last, "last", -1, "Last frame to keep (0-based, inclusive)")
	flagSet.StringVar(&opt.outputBin, "output-bin", "", "Write binary frame images to this file")
	flagSet.StringVar(&opt.startAddr, "start-addr", "", "Prepend a start address to the binary file (hex or decimal)")
	flagSet.BoolVar(&opt.separateFrames, "separate-frames", false, "Write one binary file per frame")
	flagSet.BoolVar(&opt.xorPrevious, "xor-previous", false, "XOR every binary frame with the previous one")
	flagSet.BoolVar(&opt.exportC, "export-c", false, "Write the selected frames back as C source")
	flagSet.StringVar(&opt.output, "o", "", "Output file (default stdout)")
	flagSet.BoolVar(&opt.verbose, "v", false, "Debug logging")
	flagSet.BoolVar(&opt.quiet, "q", false, "No logging")
	flagSet.StringVar(&opt.name, "name", DEFAULT_ANIMATION_NAME, "Label prefix in compiled mode")
	flagSet.StringVar(&opt.screen, "screen", DEFAULT_SCREEN_SYMBOL, "Imported symbol of the screen RAM")
	flagSet.StringVar(&opt.colorRAM, "color-ram", "$D800", "Colour RAM address")
	flagSet.StringVar(&opt.borderReg, "border-reg", "$D020", "Border colour register")
	flagSet.StringVar(&opt.backgroundReg, "background-reg", "$D021", "Background colour register")

	flagSet.Usage = func() {
		flagSet.SetOutput(stderr)
		fmt.Fprintln(stderr, "Usage: petsciiconvert [-generate-code [-name petscii] | -output-bin file [-separate-frames] [-xor-previous] [-start-addr $0801] | -export-c] [-ping-pong] [-first n] [-last n] [-o out] [file]")
		flagSet.PrintDefaults()
		flagSet.SetOutput(io.Discard)
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return EXIT_OK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_ERROR
	}

	setupLogging(opt, stderr)
	if !opt.quiet {
		boilerPlate(stderr)
	}

	if err := opt.validate(flagSet.NArg()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flagSet.Usage()
		return EXIT_ERROR
	}
	target, err := opt.target()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_ERROR
	}

	filename := flagSet.Arg(0)
	if filename == "" && isInteractive(stdin) {
		fmt.Fprintln(stderr, "Error: no input file and standard input is a terminal")
		flagSet.Usage()
		return EXIT_ERROR
	}

	set, err := readFrames(filename, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_INPUT
	}
	Logger().Info("found frames", "count", set.Len(), "canvas_width", set.CanvasWidth, "canvas_height", set.CanvasHeight)

	if err := set.Select(opt.first, opt.last); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_RANGE
	}
	if opt.first >= 0 || opt.last >= 0 {
		Logger().Info("selected frames", "first", opt.first, "last", opt.last, "count", set.Len())
	}

	var out bytes.Buffer
	if err := generate(&out, set, opt, target); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_ERROR
	}
	if err := writeOutput(opt.output, stdout, out.Bytes()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return EXIT_ERROR
	}
	return EXIT_OK
}

func setupLogging(opt options, stderr io.Writer) {
	if opt.quiet {
		SetLogger(nil)
		return
	}
	level := slog.LevelInfo
	if opt.verbose {
		level = slog.LevelDebug
	}
	SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

func (opt options) validate(nargs int) error {
	if nargs > 1 {
		return fmt.Errorf("%w: more than one input file", errUsage)
	}
	modes := 0
	for _, on := range []bool{opt.generateCode, opt.outputBin != "", opt.exportC} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("%w: -generate-code, -output-bin and -export-c are mutually exclusive", errUsage)
	}
	if opt.outputBin == "" && (opt.separateFrames || opt.xorPrevious || opt.startAddr != "") {
		return fmt.Errorf("%w: -separate-frames, -xor-previous and -start-addr need -output-bin", errUsage)
	}
	if opt.verbose && opt.quiet {
		return fmt.Errorf("%w: -v and -q are mutually exclusive", errUsage)
	}
	return nil
}

func (opt options) target() (Target, error) {
	t := DefaultTarget()
	if !isIdentifier(opt.name) {
		return t, fmt.Errorf("invalid animation name %q", opt.name)
	}
	if !isIdentifier(opt.screen) {
		return t, fmt.Errorf("invalid screen symbol %q", opt.screen)
	}
	t.AnimationName = opt.name
	t.ScreenSymbol = opt.screen

	for _, a := range []struct {
		flag  string
		value string
		dst   *uint16
	}{
		{"color-ram", opt.colorRAM, &t.ColorRAM},
		{"border-reg", opt.borderReg, &t.BorderReg},
		{"background-reg", opt.backgroundReg, &t.BackgroundReg},
	} {
		v, err := parseUint16Flag(a.value)
		if err != nil {
			return t, fmt.Errorf("-%s: %w", a.flag, err)
		}
		*a.dst = v
	}
	return t, nil
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// isInteractive reports whether r is a terminal a user would have to type
// the frames into.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readFrames(filename string, stdin io.Reader) (*FrameSet, error) {
	if filename == "" {
		Logger().Info("parsing", "file", "<stdin>")
		set, err := ParseFrames(stdin)
		if err != nil {
			return nil, fmt.Errorf("<stdin>:%w", err)
		}
		return set, nil
	}
	Logger().Info("parsing", "file", filename)
	return ParseFrameFile(filename)
}

func generate(out io.Writer, set *FrameSet, opt options, target Target) error {
	switch {
	case opt.generateCode:
		_, err := GenerateProgram(out, set, target)
		return err

	case opt.outputBin != "":
		bin := BinaryOptions{
			SeparateFrames: opt.separateFrames,
			XORPrevious:    opt.xorPrevious,
		}
		if opt.startAddr != "" {
			addr, err := parseUint16Flag(opt.startAddr)
			if err != nil {
				return fmt.Errorf("-start-addr: %w", err)
			}
			bin.StartAddr, bin.HasStartAddr = addr, true
		}
		return WriteBinaryFrames(opt.outputBin, set, bin, out)

	case opt.exportC:
		return WriteFrameSource(out, set)
	}

	names, err := NewAnimationGenerator(target, opt.pingPong).Generate(out, set)
	if err != nil {
		return err
	}
	Logger().Info("generated animation", "procs", len(names))
	return nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// parseUint16Flag accepts $hex, 0xhex or decimal.
func parseUint16Flag(value string) (uint16, error) {
	base := 0
	if rest, ok := strings.CutPrefix(value, "$"); ok {
		value, base = rest, 16
	}
	parsed, err := strconv.ParseUint(value, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(parsed), nil
}
