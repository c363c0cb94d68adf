package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// rawFragment is one piece of raw HTML in the body. Its text may be
// stitched from several source segments (e.g. lines of an HTML block).
type rawFragment struct {
	text  []byte
	parts []fragmentPart
}

type fragmentPart struct {
	at     int // offset in text
	source int // offset in the body
}

func (f *rawFragment) add(seg text.Segment, src []byte) {
	f.parts = append(f.parts, fragmentPart{at: len(f.text), source: seg.Start})
	f.text = append(f.text, seg.Value(src)...)
}

// sourceOffset maps an offset in the stitched text back into the body.
func (f *rawFragment) sourceOffset(at int) int {
	p := f.parts[0]
	for _, part := range f.parts[1:] {
		if part.at > at {
			break
		}
		p = part
	}
	return p.source + (at - p.at)
}

type openTag struct {
	name   string
	offset int
}

// checkRawHTML verifies that raw HTML across the body forms properly
// nested, closed elements. Elements may open in one HTML block and close
// in a later one, with Markdown in between.
func checkRawHTML(doc ast.Node, src []byte) error {
	var fragments []*rawFragment
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock:
			f := &rawFragment{}
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				f.add(lines.At(i), src)
			}
			if node.HasClosure() {
				f.add(node.ClosureLine, src)
			}
			if len(f.parts) > 0 {
				fragments = append(fragments, f)
			}
		case *ast.RawHTML:
			f := &rawFragment{}
			for i := 0; i < node.Segments.Len(); i++ {
				f.add(node.Segments.At(i), src)
			}
			if len(f.parts) > 0 {
				fragments = append(fragments, f)
			}
		}
		return ast.WalkContinue, nil
	})

	var stack []openTag
	for _, f := range fragments {
		var err error
		stack, err = scanFragment(f, stack, src)
		if err != nil {
			return err
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return newCompileError(src, top.offset, fmt.Sprintf("unclosed <%s>", top.name))
	}
	return nil
}

func scanFragment(f *rawFragment, stack []openTag, src []byte) ([]openTag, error) {
	z := html.NewTokenizer(bytes.NewReader(f.text))
	pos := 0
	for {
		tt := z.Next()
		start := pos
		pos += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return stack, nil
			}
			return stack, newCompileError(src, f.sourceOffset(start), z.Err().Error())
		case html.StartTagToken:
			name, _ := z.TagName()
			if voidElements[string(name)] {
				continue
			}
			stack = append(stack, openTag{name: string(name), offset: f.sourceOffset(start)})
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			if len(stack) == 0 {
				return stack, newCompileError(src, f.sourceOffset(start), fmt.Sprintf("unexpected closing </%s>", tag))
			}
			top := stack[len(stack)-1]
			if top.name != tag {
				return stack, newCompileError(src, f.sourceOffset(start),
					fmt.Sprintf("closing </%s> does not match <%s>", tag, top.name))
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// newCompileError converts a byte offset in src into a 1-based line and
// rune column.
func newCompileError(src []byte, offset int, msg string) *CompileError {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line := 1 + bytes.Count(src[:offset], []byte("\n"))
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	col := 1 + utf8.RuneCount(src[lineStart:offset])
	return &CompileError{Line: line, Column: col, Msg: msg}
}
