package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrCompile is matched by every *CompileError.
var ErrCompile = errors.New("compile failed")

// CompileError reports malformed body markup. Line and Column are 1-based
// and relative to the body, after the header has been removed.
type CompileError struct {
	Line   int
	Column int
	Msg    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Is lets errors.Is(err, ErrCompile) match any CompileError.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// Body is a compiled document body. It is immutable and safe to share.
type Body struct {
	html []byte
}

// HTML returns the rendered markup for use in html/template.
func (b *Body) HTML() template.HTML {
	return template.HTML(b.html) // #nosec G203 -- compiled from trusted authored content
}

func (b *Body) String() string {
	return string(b.html)
}

// Len returns the size of the rendered markup in bytes.
func (b *Body) Len() int {
	return len(b.html)
}

// WriteTo writes the rendered markup to w.
func (b *Body) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.html)
	return int64(n), err
}

// MarshalJSON encodes the body as a JSON string of HTML.
func (b *Body) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(b.html))
}

// BodyCompiler abstracts body compilation.
type BodyCompiler interface {
	Compile(ctx context.Context, source string) (*Body, error)
}

// Compiler turns a highlighted body into HTML with Goldmark.
type Compiler struct {
	md        goldmark.Markdown
	assetBase string
}

// CompileOption configures a Compiler.
type CompileOption func(*Compiler)

// WithAssetBaseURL rewrites relative image and link targets against base.
func WithAssetBaseURL(base string) CompileOption {
	return func(c *Compiler) {
		c.assetBase = strings.TrimSpace(base)
	}
}

// NewCompiler creates a Compiler with GFM, footnotes, raw HTML passthrough
// and class-based highlighting for fences left untouched by the Highlighter.
func NewCompiler(opts ...CompileOption) *Compiler {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle(DefaultLightTheme),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(), // bodies are authored content and embed components
		),
	)
	c := &Compiler{md: md}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile renders source to HTML. Raw HTML must be well formed or a
// *CompileError is returned. Supports context cancellation via goroutine +
// select since Goldmark doesn't natively support context; a cancelled
// compile never returns partial output.
func (c *Compiler) Compile(ctx context.Context, source string) (*Body, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		body *Body
		err  error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("compiling body: internal error: %v", r)}
			}
		}()
		body, err := c.compile([]byte(source))
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}

func (c *Compiler) compile(src []byte) (*Body, error) {
	doc := c.md.Parser().Parse(text.NewReader(src))

	if err := checkRawHTML(doc, src); err != nil {
		return nil, err
	}
	assignHeadingIDs(doc, src)

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}

	out := buf.Bytes()
	if c.assetBase != "" {
		rewritten, err := RewriteAssetURLs(buf.String(), c.assetBase)
		if err != nil {
			return nil, fmt.Errorf("rewriting asset URLs: %w", err)
		}
		out = []byte(rewritten)
	}

	return &Body{html: out}, nil
}

// assignHeadingIDs sets each heading id from its authored text, so ids
// always match the anchors ExtractHeadings reports.
func assignHeadingIDs(doc ast.Node, src []byte) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var raw strings.Builder
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			if i > 0 {
				raw.WriteByte(' ')
			}
			seg := lines.At(i)
			raw.Write(seg.Value(src))
		}
		h.SetAttributeString("id", []byte(Anchor(raw.String())))
		return ast.WalkSkipChildren, nil
	})
}
