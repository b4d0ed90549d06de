package collapse

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
)

// Edit is a single replacement of source text.
type Edit struct {
	Start   token.Position
	End     token.Position
	NewText string
	// Imports must be added to the file for NewText to compile.
	Imports []string
}

type splice struct {
	start, end int
	text       string
}

// TextEditor is an Editor over the source text of one file. Operations are
// journaled and only Commit turns them into an Edit, so a failed collapse
// leaves nothing behind.
type TextEditor struct {
	fset *token.FileSet
	file *token.File
	src  []byte

	loop     *Loop
	splices  []splice
	body     [2]int // offsets of the moved statements
	anchor   int
	deletion [2]int

	moved, inserted, deleted bool
}

// NewTextEditor returns an editor for src, the content of a file parsed
// into fset.
func NewTextEditor(fset *token.FileSet, src []byte) *TextEditor {
	return &TextEditor{fset: fset, src: src}
}

func (e *TextEditor) offset(pos token.Pos) (int, error) {
	f := e.fset.File(pos)
	if f == nil {
		return 0, fmt.Errorf("position %d: %w", pos, ErrStaleSite)
	}
	if e.file == nil {
		if f.Size() != len(e.src) {
			return 0, fmt.Errorf("%s: source is %d bytes, file set has %d", f.Name(), len(e.src), f.Size())
		}
		e.file = f
	} else if f != e.file {
		return 0, fmt.Errorf("position in %s, editing %s: %w", f.Name(), e.file.Name(), ErrStaleSite)
	}
	return f.Offset(pos), nil
}

func (e *TextEditor) span(nodes []ast.Stmt) ([2]int, error) {
	if len(nodes) == 0 {
		return [2]int{}, errors.New("empty statement range")
	}
	start, err := e.offset(nodes[0].Pos())
	if err != nil {
		return [2]int{}, err
	}
	end, err := e.offset(nodes[len(nodes)-1].End())
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{start, end}, nil
}

// BuildLoop checks that header parses as a for or range statement.
func (e *TextEditor) BuildLoop(header string) (*Loop, error) {
	if e.loop != nil {
		return nil, errors.New("loop already built")
	}
	src := "package p; func _() { " + header + " {} }"
	f, err := parser.ParseFile(token.NewFileSet(), "", src, 0)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", header, ErrNoLoop)
	}
	body := f.Decls[0].(*ast.FuncDecl).Body.List
	if len(body) != 1 {
		return nil, fmt.Errorf("%q: %w", header, ErrNoLoop)
	}
	switch body[0].(type) {
	case *ast.ForStmt, *ast.RangeStmt:
	default:
		return nil, fmt.Errorf("%q: %w", header, ErrNoLoop)
	}
	e.loop = &Loop{Header: header}
	return e.loop, nil
}

func (e *TextEditor) ReplaceNode(target ast.Node, replacement string) error {
	start, err := e.offset(target.Pos())
	if err != nil {
		return err
	}
	end, err := e.offset(target.End())
	if err != nil {
		return err
	}
	for _, s := range e.splices {
		if start < s.end && s.start < end {
			return fmt.Errorf("[%d,%d) and [%d,%d): %w", start, end, s.start, s.end, ErrOverlap)
		}
	}
	e.splices = append(e.splices, splice{start: start, end: end, text: replacement})
	return nil
}

func (e *TextEditor) MoveRange(nodes []ast.Stmt, into *Loop) error {
	if into == nil || into != e.loop {
		return ErrNoLoop
	}
	span, err := e.span(nodes)
	if err != nil {
		return err
	}
	into.Body = nodes
	span[1] = e.trailingComment(span[1])
	e.body = span
	e.moved = true
	return nil
}

// trailingComment returns the end of the comments that follow off on its
// line, or off when anything else follows.
func (e *TextEditor) trailingComment(off int) int {
	end := off
	for i := off; i < len(e.src); {
		rest := e.src[i:]
		switch {
		case rest[0] == ' ' || rest[0] == '\t':
			i++
		case rest[0] == '\n' || rest[0] == '\r':
			return end
		case bytes.HasPrefix(rest, []byte("//")):
			if j := bytes.IndexAny(rest, "\r\n"); j >= 0 {
				return i + j
			}
			return len(e.src)
		case bytes.HasPrefix(rest, []byte("/*")):
			j := bytes.Index(rest, []byte("*/"))
			if j < 0 || bytes.IndexByte(rest[:j], '\n') >= 0 {
				return off
			}
			i += j + 2
			end = i
		default:
			return off
		}
	}
	return end
}

func (e *TextEditor) InsertBefore(loop *Loop, anchor ast.Stmt) error {
	if loop == nil || loop != e.loop {
		return ErrNoLoop
	}
	off, err := e.offset(anchor.Pos())
	if err != nil {
		return err
	}
	e.anchor = off
	e.inserted = true
	return nil
}

func (e *TextEditor) DeleteRange(nodes []ast.Stmt) error {
	span, err := e.span(nodes)
	if err != nil {
		return err
	}
	e.deletion = span
	e.deleted = true
	return nil
}

func (e *TextEditor) ShortenReferences(loop *Loop) error {
	if loop == nil || loop != e.loop {
		return ErrNoLoop
	}
	return nil
}

// Commit turns the journaled operations into one Edit replacing the
// deleted statements with the loop.
func (e *TextEditor) Commit() (*Edit, error) {
	switch {
	case e.loop == nil:
		return nil, ErrNoLoop
	case !e.moved:
		return nil, errors.New("loop has no body")
	case !e.inserted || !e.deleted:
		return nil, errors.New("loop is not placed")
	}
	if e.anchor != e.deletion[0] {
		return nil, fmt.Errorf("loop at %d does not replace statements at %d: %w", e.anchor, e.deletion[0], ErrOverlap)
	}
	if e.body[0] < e.deletion[0] || e.body[1] > e.deletion[1] {
		return nil, fmt.Errorf("loop body outside of the deleted statements: %w", ErrOverlap)
	}
	for _, s := range e.splices {
		if s.start < e.body[0] || s.end > e.body[1] {
			return nil, fmt.Errorf("replacement at %d: %w", s.start, ErrStaleSite)
		}
	}

	indent := e.lineIndent(e.anchor)
	var sb strings.Builder
	sb.WriteString(e.loop.Header)
	sb.WriteString(" {\n")
	sb.WriteString(indent)
	sb.WriteString("\t")
	sb.WriteString(e.bodyText())
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString("}")

	return &Edit{
		Start:   e.file.Position(e.file.Pos(e.deletion[0])),
		End:     e.file.Position(e.file.Pos(e.deletion[1])),
		NewText: sb.String(),
		Imports: e.loop.Imports,
	}, nil
}

// bodyText returns the moved statements with the replacements applied,
// indented one level deeper. Multi-line raw strings are kept intact.
func (e *TextEditor) bodyText() string {
	splices := append([]splice(nil), e.splices...)
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })
	raw := e.rawStrings()

	var sb strings.Builder
	next := 0
	for off := e.body[0]; off < e.body[1]; {
		if next < len(splices) && splices[next].start == off {
			sb.WriteString(splices[next].text)
			off = splices[next].end
			next++
			continue
		}
		c := e.src[off]
		sb.WriteByte(c)
		off++
		if c == '\n' && off < e.body[1] && e.src[off] != '\n' && !inRanges(raw, off) {
			sb.WriteByte('\t')
		}
	}
	return sb.String()
}

// rawStrings returns the offsets of raw string literals spanning lines
// inside the moved statements.
func (e *TextEditor) rawStrings() [][2]int {
	var ranges [][2]int
	for _, stmt := range e.loop.Body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			lit, ok := n.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING || !strings.HasPrefix(lit.Value, "`") || !strings.Contains(lit.Value, "\n") {
				return true
			}
			ranges = append(ranges, [2]int{e.file.Offset(lit.Pos()), e.file.Offset(lit.End())})
			return false
		})
	}
	return ranges
}

func inRanges(ranges [][2]int, off int) bool {
	for _, r := range ranges {
		if off > r[0] && off < r[1] {
			return true
		}
	}
	return false
}

// lineIndent returns the blanks between the start of the line holding off
// and off.
func (e *TextEditor) lineIndent(off int) string {
	start := off
	for start > 0 && e.src[start-1] != '\n' {
		start--
	}
	indent := e.src[start:off]
	if strings.TrimLeft(string(indent), " \t") != "" {
		return ""
	}
	return string(indent)
}
