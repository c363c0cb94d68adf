package pipeline

// Notes:
// - The recover branch in Compile is not exercised: Goldmark does not panic
//   on any input we can construct
// - Rendered markup is checked with Contains, not full equality, to stay
//   independent of Goldmark whitespace details

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestCompile - Markdown features
// ---------------------------------------------------------------------------

func TestCompile(t *testing.T) {
	t.Parallel()

	c := NewCompiler()

	tests := []struct {
		name         string
		source       string
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "paragraph",
			source:       "Breathe in slowly.",
			wantContains: []string{"<p>Breathe in slowly.</p>"},
		},
		{
			name:         "GFM table",
			source:       "| Day | Minutes |\n|-----|---------|\n| Mon | 10 |\n",
			wantContains: []string{"<table>", "<th>Day</th>", "<td>10</td>"},
		},
		{
			name:         "strikethrough",
			source:       "~~stress~~",
			wantContains: []string{"<del>stress</del>"},
		},
		{
			name:         "task list",
			source:       "- [x] walk\n- [ ] stretch\n",
			wantContains: []string{`type="checkbox"`, "walk"},
		},
		{
			name:         "footnote",
			source:       "Sleep matters[^1].\n\n[^1]: Seven hours.\n",
			wantContains: []string{"footnote", "Seven hours."},
		},
		{
			name:         "heading ids",
			source:       "## Getting Started\n\n### Step 1: Breathe\n",
			wantContains: []string{`<h2 id="getting-started">`, `<h3 id="step-1-breathe">`},
		},
		{
			name:         "raw HTML passes through",
			source:       "<div class=\"callout\">\n\n**Note** this.\n\n</div>\n",
			wantContains: []string{`<div class="callout">`, "<strong>Note</strong>", "</div>"},
		},
		{
			name:         "void elements need no close",
			source:       "Line<br>break and <img src=\"a.png\" alt=\"a\">\n",
			wantContains: []string{"<br>", `<img src="a.png" alt="a">`},
		},
		{
			name:         "unhighlighted fence falls back to classes",
			source:       "```cobol\nDISPLAY 'HI'.\n```\n",
			wantContains: []string{`<pre class="chroma"><code>`, `class="line"`, "</code></pre>"},
			wantMissing:  []string{"```", `class="dark:hidden"`},
		},
		{
			name:         "empty body",
			source:       "",
			wantContains: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := c.Compile(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got := body.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Compile() missing %q in:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.wantMissing {
				if strings.Contains(got, unwanted) {
					t.Errorf("Compile() unexpectedly contains %q in:\n%s", unwanted, got)
				}
			}
		})
	}
}

// Heading ids in the compiled body match the outline anchors.
func TestCompile_HeadingIDsMatchOutline(t *testing.T) {
	t.Parallel()

	source := "## Use `npm test`\n\ntext\n\n### What's *next*?\n\n## Tips\n\n## Tips\n"
	body, err := NewCompiler().Compile(context.Background(), source)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	for _, h := range ExtractHeadings(source) {
		if want := `id="` + h.ID + `"`; !strings.Contains(body.String(), want) {
			t.Errorf("compiled body missing %s for heading %q", want, h.Text)
		}
	}
	if n := strings.Count(body.String(), `id="tips"`); n != 2 {
		t.Errorf("found %d headings with id \"tips\", want 2", n)
	}
}

func TestCompile_HighlightedBlocks(t *testing.T) {
	t.Parallel()

	source := "## Setup\n\n```bash\nnpm install\n```\n\nDone."
	highlighted, failures := DefaultHighlighter().Highlight(source)
	if len(failures) != 0 {
		t.Fatalf("Highlight() failures = %v", failures)
	}

	body, err := NewCompiler().Compile(context.Background(), highlighted)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got := body.String()
	for _, want := range []string{`<div class="code-block not-prose">`, "install", "<p>Done.</p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Compile() missing %q in:\n%s", want, got)
		}
	}
}

func TestCompile_AssetBaseURL(t *testing.T) {
	t.Parallel()

	c := NewCompiler(WithAssetBaseURL("https://cdn.example.com/posts/"))
	body, err := c.Compile(context.Background(), "![lake](images/lake.png)\n\n[home](/)\n")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got := body.String()
	if !strings.Contains(got, `src="https://cdn.example.com/posts/images/lake.png"`) {
		t.Errorf("image not rewritten:\n%s", got)
	}
	if !strings.Contains(got, `href="/"`) {
		t.Errorf("root link should be unchanged:\n%s", got)
	}
}

func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	c := NewCompiler()
	source := "## A\n\n| x |\n|---|\n| 1 |\n\n<aside>\nnote\n</aside>\n"

	first, err := c.Compile(context.Background(), source)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	second, err := c.Compile(context.Background(), source)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if diff := cmp.Diff(first.String(), second.String()); diff != "" {
		t.Errorf("Compile() not deterministic (-first +second):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestCompile_MalformedHTML - CompileError with positions
// ---------------------------------------------------------------------------

func TestCompile_MalformedHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		want    CompileError
		wantMsg string
	}{
		{
			name:    "unclosed block element",
			source:  "<div>\n\nnever closed\n",
			want:    CompileError{Line: 1, Column: 1},
			wantMsg: "unclosed <div>",
		},
		{
			name:    "mismatched close",
			source:  "Intro\n\n<div>\n</span>\n",
			want:    CompileError{Line: 4, Column: 1},
			wantMsg: "closing </span> does not match <div>",
		},
		{
			name:    "unexpected close",
			source:  "text\n\n</section>\n",
			want:    CompileError{Line: 3, Column: 1},
			wantMsg: "unexpected closing </section>",
		},
		{
			name:    "unclosed inline element",
			source:  "Hello <span>world\n",
			want:    CompileError{Line: 1, Column: 7},
			wantMsg: "unclosed <span>",
		},
		{
			name:    "column counts runes",
			source:  "Café <em>x\n",
			want:    CompileError{Line: 1, Column: 6},
			wantMsg: "unclosed <em>",
		},
		{
			name:    "innermost unclosed reported",
			source:  "<section>\n<div>\n\ntext\n",
			want:    CompileError{Line: 2, Column: 1},
			wantMsg: "unclosed <div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := NewCompiler().Compile(context.Background(), tt.source)
			if err == nil {
				t.Fatalf("Compile() = %q, want error", body.String())
			}
			if body != nil {
				t.Error("Compile() returned a body alongside an error")
			}
			if !errors.Is(err, ErrCompile) {
				t.Errorf("errors.Is(err, ErrCompile) = false for %v", err)
			}

			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *CompileError", err)
			}
			if ce.Line != tt.want.Line || ce.Column != tt.want.Column {
				t.Errorf("position = %d:%d, want %d:%d", ce.Line, ce.Column, tt.want.Line, tt.want.Column)
			}
			if ce.Msg != tt.wantMsg {
				t.Errorf("Msg = %q, want %q", ce.Msg, tt.wantMsg)
			}
		})
	}
}

func TestCompileError_Error(t *testing.T) {
	t.Parallel()

	err := &CompileError{Line: 3, Column: 9, Msg: "unclosed <div>"}
	if got, want := err.Error(), "compile error at 3:9: unclosed <div>"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestCompile_Context - Cancellation
// ---------------------------------------------------------------------------

func TestCompile_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, err := NewCompiler().Compile(ctx, "# Title")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compile() error = %v, want context.Canceled", err)
	}
	if body != nil {
		t.Error("Compile() returned partial output after cancellation")
	}
}

// ---------------------------------------------------------------------------
// TestBody - Output accessors
// ---------------------------------------------------------------------------

func TestBody(t *testing.T) {
	t.Parallel()

	body, err := NewCompiler().Compile(context.Background(), "Hi <b>there</b>")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if string(body.HTML()) != body.String() {
		t.Error("HTML() and String() disagree")
	}
	if body.Len() != len(body.String()) {
		t.Errorf("Len() = %d, want %d", body.Len(), len(body.String()))
	}

	var buf bytes.Buffer
	n, err := body.WriteTo(&buf)
	if err != nil || int(n) != body.Len() || buf.String() != body.String() {
		t.Errorf("WriteTo() = %d, %v; wrote %q", n, err, buf.String())
	}

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded != body.String() {
		t.Errorf("JSON round trip = %q, want %q", decoded, body.String())
	}
}
