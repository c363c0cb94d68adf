package pipeline

// Notes:
// - Tests RewriteAssetURLs through its public API plus the two predicates
// - Render error branches are not covered: html.Render does not fail on a
//   parsed tree written to a strings.Builder
// - Traversal tests check the observable result (target left untouched)

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRewriteAssetURLs - Relative targets resolved against a base URL
// ---------------------------------------------------------------------------

func TestRewriteAssetURLs(t *testing.T) {
	t.Parallel()

	const base = "https://cdn.example.com/content/"

	tests := []struct {
		name         string
		html         string
		base         string
		wantContains []string
	}{
		{
			name:         "relative image with dot slash",
			html:         `<img src="./images/calm.png">`,
			base:         base,
			wantContains: []string{`src="https://cdn.example.com/content/images/calm.png"`},
		},
		{
			name:         "relative image without dot slash",
			html:         `<img src="images/calm.png">`,
			base:         base,
			wantContains: []string{`src="https://cdn.example.com/content/images/calm.png"`},
		},
		{
			name:         "base without trailing slash",
			html:         `<img src="calm.png">`,
			base:         "https://cdn.example.com/content",
			wantContains: []string{`src="https://cdn.example.com/content/calm.png"`},
		},
		{
			name:         "relative link",
			html:         `<a href="files/plan.pdf">plan</a>`,
			base:         base,
			wantContains: []string{`href="https://cdn.example.com/content/files/plan.pdf"`},
		},
		{
			name:         "root relative route unchanged",
			html:         `<a href="/blog/breathing">read</a>`,
			base:         base,
			wantContains: []string{`href="/blog/breathing"`},
		},
		{
			name:         "anchor unchanged",
			html:         `<a href="#first-steps">jump</a>`,
			base:         base,
			wantContains: []string{`href="#first-steps"`},
		},
		{
			name:         "query only unchanged",
			html:         `<a href="?page=2">next</a>`,
			base:         base,
			wantContains: []string{`href="?page=2"`},
		},
		{
			name:         "absolute URL unchanged",
			html:         `<img src="https://images.example.org/a.png">`,
			base:         base,
			wantContains: []string{`src="https://images.example.org/a.png"`},
		},
		{
			name:         "data URI unchanged",
			html:         `<img src="data:image/png;base64,ABC123">`,
			base:         base,
			wantContains: []string{`src="data:image/png;base64,ABC123"`},
		},
		{
			name:         "mailto unchanged",
			html:         `<a href="mailto:hello@example.com">mail</a>`,
			base:         base,
			wantContains: []string{`href="mailto:hello@example.com"`},
		},
		{
			name:         "empty base returns input",
			html:         `<img src="./calm.png">`,
			base:         "",
			wantContains: []string{`src="./calm.png"`},
		},
		{
			name:         "other attributes preserved",
			html:         `<img src="calm.png" alt="A calm lake" class="rounded">`,
			base:         base,
			wantContains: []string{`alt="A calm lake"`, `class="rounded"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteAssetURLs(tt.html, tt.base)
			if err != nil {
				t.Fatalf("RewriteAssetURLs() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RewriteAssetURLs() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestRewriteAssetURLs_PathTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"parent escape", `<img src="../secret.png">`, `src="../secret.png"`},
		{"deep escape", `<img src="a/../../../etc/passwd">`, `src="a/../../../etc/passwd"`},
		{"contained dot dot", `<img src="a/../b.png">`, `src="https://cdn.example.com/content/b.png"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteAssetURLs(tt.html, "https://cdn.example.com/content/")
			if err != nil {
				t.Fatalf("RewriteAssetURLs() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("RewriteAssetURLs() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestRewriteAssetURLs_Fragment(t *testing.T) {
	t.Parallel()

	in := `<p>Intro</p><p><img src="calm.png"></p>`
	got, err := RewriteAssetURLs(in, "/static/")
	if err != nil {
		t.Fatalf("RewriteAssetURLs() error = %v", err)
	}

	for _, unwanted := range []string{"<html", "<head", "<body"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("output should stay a fragment, found %q in %q", unwanted, got)
		}
	}
	if !strings.Contains(got, `src="/static/calm.png"`) {
		t.Errorf("RewriteAssetURLs() = %q, want rewritten src", got)
	}
}

func TestRewriteAssetURLs_InvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := RewriteAssetURLs(`<img src="a.png">`, "http://[::1"); err == nil {
		t.Error("RewriteAssetURLs() expected error for malformed base URL")
	}
}

// ---------------------------------------------------------------------------
// TestIsRelativeTarget - Which targets are candidates for rewriting
// ---------------------------------------------------------------------------

func TestIsRelativeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   bool
	}{
		{"", false},
		{"#top", false},
		{"/abs", false},
		{"?q=1", false},
		{"https://x.y", false},
		{"//cdn.example.com/a.png", false},
		{"data:text/plain,hi", false},
		{"img.png", true},
		{"./img.png", true},
		{"../img.png", true},
	}

	for _, tt := range tests {
		if got := isRelativeTarget(tt.target); got != tt.want {
			t.Errorf("isRelativeTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestIsPathUnder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/content/a.png", "/content/", true},
		{"/content", "/content/", true},
		{"/contentx/a.png", "/content/", false},
		{"/etc/passwd", "/content/", false},
		{"/anything", "/", true},
	}

	for _, tt := range tests {
		if got := isPathUnder(tt.path, tt.dir); got != tt.want {
			t.Errorf("isPathUnder(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}
