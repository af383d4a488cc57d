// frame_parser.go - Packrat parser for PETSCII C array exports

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/petsciiconvert
License: GPLv3 or later
*/

/*
frame_parser.go - PETSCII Source Parser

PETSCII editors export screens as C arrays, one array per frame:

	// PETSCII memory image
	unsigned char frame0000[]={// border,bg,chars,colors
	0,0,
	32,32,32, ...
	};
	// META: 40 25 C64 upper

Grammar (whitespace is insignificant outside comments):

	file    <- COMMENT* (frame COMMENT*)+ EOF
	frame   <- 'unsigned' 'char' NAME '[' ']' '=' '{' COMMENT? data '}' ';'
	data    <- NUMBER (',' NUMBER)*
	COMMENT <- '//' META? [^\n]* ('\n' / EOF)
	META    <- 'META:' NUMBER NUMBER
	NUMBER  <- [0-9]+
	NAME    <- [a-zA-Z_][0-9a-zA-Z_]*

Every frame name is prefixed with an underscore so it can be used as an
assembler label. The two META numbers become the canvas size of the frame
set; the last META comment wins.

The parser is recursive descent with a packrat memo table: the comment and
frame rules are tried speculatively at the same offsets by the file rule,
and their results are cached per (rule, offset) so no offset is scanned
twice by the same rule. Errors are reported at the farthest offset any rule
reached, together with the tokens that would have been accepted there.
*/

package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// ParseError is a grammar or structural error with its source position.
// Line and Col are 1-based; Col counts bytes.
type ParseError struct {
	Line int
	Col  int
	Msg  string
	Err  error // underlying structural error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d:%d: %s: %v", e.Line, e.Col, e.Msg, e.Err)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------
// Semantic values
// ---------------------------------------------------------------------

// semantic is the result of a grammar rule. The concrete types below are
// the only implementations.
type semantic interface{ semantic() }

type numberValue int
type nameValue string
type dataValue []int
type metaValue struct{ width, height int }
type commentValue struct{ meta *metaValue }
type frameValue struct {
	frame *Frame
	meta  *metaValue // from the comment after the opening brace
}

func (numberValue) semantic()  {}
func (nameValue) semantic()    {}
func (dataValue) semantic()    {}
func (metaValue) semantic()    {}
func (commentValue) semantic() {}
func (frameValue) semantic()   {}

// ---------------------------------------------------------------------
// Parser state
// ---------------------------------------------------------------------

type ruleID int

const (
	ruleComment ruleID = iota
	ruleFrame
)

type memoKey struct {
	rule ruleID
	pos  int
}

type memoEntry struct {
	end int
	ok  bool
	val semantic
}

type frameParser struct {
	src  string
	pos  int
	memo map[memoKey]memoEntry

	farthest int
	expected []string

	fatal *ParseError // structural error, aborts the parse
}

// ParseFrames reads the whole stream and parses it. A leading byte order
// mark is honoured (see newSourceReader).
func ParseFrames(r io.Reader) (*FrameSet, error) {
	data, err := io.ReadAll(newSourceReader(r))
	if err != nil {
		return nil, fmt.Errorf("reading frame source: %w", err)
	}
	return ParseFrameSource(string(data))
}

// ParseFrameSource parses an in-memory PETSCII export. On error no frames
// are returned.
func ParseFrameSource(src string) (*FrameSet, error) {
	p := &frameParser{
		src:  src,
		memo: make(map[memoKey]memoEntry),
	}
	set, ok := p.parseFile()
	if p.fatal != nil {
		return nil, p.fatal
	}
	if !ok {
		return nil, p.syntaxError()
	}
	Logger().Debug("parsed frame source",
		"frames", set.Len(),
		"canvas_width", set.CanvasWidth,
		"canvas_height", set.CanvasHeight,
		"memo_entries", len(p.memo))
	return set, nil
}

// apply runs a memoised rule at the current offset.
func (p *frameParser) apply(rule ruleID, fn func() (semantic, bool)) (semantic, bool) {
	key := memoKey{rule: rule, pos: p.pos}
	if e, hit := p.memo[key]; hit {
		if e.ok {
			p.pos = e.end
		}
		return e.val, e.ok
	}
	start := p.pos
	val, ok := fn()
	if !ok {
		p.pos = start
	}
	p.memo[key] = memoEntry{end: p.pos, ok: ok, val: val}
	return val, ok
}

// ---------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------

func (p *frameParser) parseFile() (*FrameSet, bool) {
	set := NewFrameSet()
	accept := func(v semantic) {
		switch v := v.(type) {
		case commentValue:
			if v.meta != nil {
				set.CanvasWidth = v.meta.width
				set.CanvasHeight = v.meta.height
			}
		case frameValue:
			set.Frames = append(set.Frames, v.frame)
			if v.meta != nil {
				set.CanvasWidth = v.meta.width
				set.CanvasHeight = v.meta.height
			}
		}
	}

	for {
		if v, ok := p.apply(ruleComment, p.comment); ok {
			accept(v)
			continue
		}
		if p.fatal != nil {
			return nil, false
		}
		if v, ok := p.apply(ruleFrame, p.frame); ok {
			accept(v)
			continue
		}
		if p.fatal != nil {
			return nil, false
		}
		break
	}

	// Both rules have recorded what they expected at this offset.
	p.skipSpace()
	if p.pos < len(p.src) || set.Len() == 0 {
		return nil, false
	}
	return set, true
}

func (p *frameParser) frame() (semantic, bool) {
	if !p.keyword("unsigned") || !p.keyword("char") {
		return nil, false
	}
	name, ok := p.name()
	if !ok {
		return nil, false
	}
	if !p.literal("[") || !p.literal("]") || !p.literal("=") || !p.literal("{") {
		return nil, false
	}
	// A META tag here still describes the whole frame set.
	var meta *metaValue
	if v, ok := p.apply(ruleComment, p.comment); ok {
		if c, isComment := v.(commentValue); isComment {
			meta = c.meta
		}
	}
	p.skipSpace()
	dataPos := p.pos
	data, ok := p.data()
	if !ok {
		return nil, false
	}
	if !p.literal("}") || !p.literal(";") {
		return nil, false
	}

	frame, err := NewFrame(string(name), data)
	if err != nil {
		line, col := p.position(dataPos)
		p.fatal = &ParseError{Line: line, Col: col, Msg: "invalid frame data", Err: err}
		return nil, false
	}
	return frameValue{frame: frame, meta: meta}, true
}

// data <- NUMBER (',' NUMBER)*
func (p *frameParser) data() (dataValue, bool) {
	first, ok := p.number()
	if !ok {
		return nil, false
	}
	values := make(dataValue, 0, FRAME_PAYLOAD_LEN)
	values = append(values, int(first))
	for {
		save := p.pos
		if !p.literal(",") {
			p.pos = save
			return values, true
		}
		n, ok := p.number()
		if !ok {
			return nil, false
		}
		values = append(values, int(n))
	}
}

// COMMENT <- '//' META? [^\n]* ('\n' / EOF)
func (p *frameParser) comment() (semantic, bool) {
	if !p.literal("//") {
		return nil, false
	}
	var out commentValue
	bodyStart := p.pos
	if meta, ok := p.meta(); ok {
		out.meta = &meta
	} else {
		p.pos = bodyStart
	}
	if nl := strings.IndexByte(p.src[p.pos:], '\n'); nl >= 0 {
		p.pos += nl + 1
	} else {
		p.pos = len(p.src)
	}
	return out, true
}

// META <- 'META:' NUMBER NUMBER, confined to the comment's line.
func (p *frameParser) meta() (metaValue, bool) {
	p.skipBlanks()
	if !strings.HasPrefix(p.src[p.pos:], "META:") {
		return metaValue{}, false
	}
	p.pos += len("META:")
	p.skipBlanks()
	w, ok := p.digits()
	if !ok {
		return metaValue{}, false
	}
	p.skipBlanks()
	h, ok := p.digits()
	if !ok {
		return metaValue{}, false
	}
	return metaValue{width: int(w), height: int(h)}, true
}

// ---------------------------------------------------------------------
// Terminals
// ---------------------------------------------------------------------

func (p *frameParser) number() (numberValue, bool) {
	p.skipSpace()
	n, ok := p.digits()
	if !ok {
		p.fail("number")
	}
	return n, ok
}

// digits scans [0-9]+ at the current offset without skipping anything.
func (p *frameParser) digits() (numberValue, bool) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		if p.fatal == nil {
			line, col := p.position(start)
			p.fatal = &ParseError{Line: line, Col: col, Msg: fmt.Sprintf("number %s out of range", p.src[start:p.pos])}
		}
		return 0, false
	}
	return numberValue(n), true
}

func (p *frameParser) name() (nameValue, bool) {
	p.skipSpace()
	start := p.pos
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		p.fail("frame name")
		return "", false
	}
	p.pos++
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	// Underscore for the assembler
	return nameValue("_" + p.src[start:p.pos]), true
}

func (p *frameParser) literal(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	p.fail(strconv.Quote(tok))
	return false
}

// keyword matches a word that is not the prefix of a longer identifier.
func (p *frameParser) keyword(word string) bool {
	p.skipSpace()
	end := p.pos + len(word)
	if strings.HasPrefix(p.src[p.pos:], word) && (end == len(p.src) || !isIdentChar(p.src[end])) {
		p.pos = end
		return true
	}
	p.fail(strconv.Quote(word))
	return false
}

func (p *frameParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *frameParser) skipBlanks() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// ---------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------

// fail records what would have been accepted at the current offset.
func (p *frameParser) fail(what string) {
	switch {
	case p.pos > p.farthest:
		p.farthest = p.pos
		p.expected = append(p.expected[:0], what)
	case p.pos == p.farthest && !slices.Contains(p.expected, what):
		p.expected = append(p.expected, what)
	}
}

func (p *frameParser) syntaxError() *ParseError {
	line, col := p.position(p.farthest)
	found := "end of input"
	if p.farthest < len(p.src) {
		found = strconv.QuoteRune(rune(p.src[p.farthest]))
	}
	msg := "syntax error, unexpected " + found
	if len(p.expected) > 0 {
		msg += ", expecting " + joinAlternatives(p.expected)
	}
	return &ParseError{Line: line, Col: col, Msg: msg}
}

func (p *frameParser) position(offset int) (line, col int) {
	before := p.src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}

func joinAlternatives(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
