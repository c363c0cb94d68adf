package main

// Notes:
// - runMain: we test routing and exit codes for every command against a
//   temporary content tree, including the seed then list round trip over
//   SQLite and a serve run stopped by context cancellation.
// - main() itself (automaxprocs, os.Exit) is not tested; runMain carries
//   all behavior.
// - Signal delivery is not tested; notifyContext wraps signal.NotifyContext.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	nostress "github.com/PietroNarcisi/NostressAI"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestEnv returns an isolated environment with captured output and no
// NOSTRESS_* variables.
func newTestEnv(environ ...string) (*Environment, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	return &Environment{
		Now:     func() time.Time { return fixedNow },
		Stdout:  stdout,
		Stderr:  stderr,
		Environ: func() []string { return environ },
	}, stdout, stderr
}

var testContent = map[string]string{
	"blog/focus-basics.mdx": "---\ntitle: Focus Basics\ndate: 2024-01-10\npillars: [work]\n---\n" +
		"## Intro\nProtect deep work.\n### Sub Point\nBatch your inbox.\n",
	"blog/evening-reset.mdx": "---\ntitle: Evening Reset\ndate: 2024-02-01\n---\nDim the lights.\n",
	"blog/unfinished.mdx":    "---\ntitle: Unfinished\ndraft: true\n---\nTBD\n",
	"blog/broken-html.mdx":   "---\ntitle: Broken\ndate: 2022-01-01\n---\nIntro\n\n<div>\n</span>\n",
	"tips/box-breathing.mdx": "---\ntitle: Box Breathing\ndate: 2024-02-02\npillars: [mind-body]\n---\nBreathe in for four.\n",
	"courses/mindful-ai.mdx": "---\ntitle: Mindful AI\nshort: Use AI without the stress.\ndate: 2024-04-01\n---\n## Overview\n",
}

// writeContent creates a content tree in a temp dir and returns its path.
func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// ---------------------------------------------------------------------------
// TestRunMain_Routing - Command routing and exit codes
// ---------------------------------------------------------------------------

func TestRunMain_Routing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"nostress"}, ExitUsage, "", "Usage: nostress"},
		{"unknown command", []string{"nostress", "bogus"}, ExitUsage, "", "unknown command: bogus"},
		{"version", []string{"nostress", "version"}, ExitSuccess, "nostress " + Version, ""},
		{"version flag", []string{"nostress", "--version"}, ExitSuccess, "nostress " + Version, ""},
		{"help", []string{"nostress", "help"}, ExitSuccess, "Commands:", ""},
		{"help list", []string{"nostress", "help", "list"}, ExitSuccess, "nostress list <kind>", ""},
		{"help unknown", []string{"nostress", "help", "bogus"}, ExitSuccess, "", "Unknown command: bogus"},
		{"list --help", []string{"nostress", "list", "--help"}, ExitSuccess, "--date-format", ""},
		{"serve -h", []string{"nostress", "serve", "-h"}, ExitSuccess, "--watch", ""},
		{"pillars", []string{"nostress", "pillars"}, ExitSuccess, "Work Systems", ""},
		{"pillars yaml", []string{"nostress", "pillars", "--yaml"}, ExitSuccess, "name: Work Systems", ""},
		{"pillars json and yaml", []string{"nostress", "pillars", "--json", "--yaml"}, ExitUsage, "", "mutually exclusive"},
		{"bad flag", []string{"nostress", "list", "--nope"}, ExitUsage, "", "invalid usage"},
		{"missing kind", []string{"nostress", "list"}, ExitUsage, "", "missing kind"},
		{"seed extra arg", []string{"nostress", "seed", "extra"}, ExitUsage, "", "unexpected argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv()
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Errors - Error classification and hints
// ---------------------------------------------------------------------------

func TestRunMain_Errors(t *testing.T) {
	t.Parallel()

	content := writeContent(t, testContent)
	empty := t.TempDir()
	configDir := t.TempDir()
	badTheme := filepath.Join(configDir, "theme.yaml")
	if err := os.WriteFile(badTheme, []byte("highlight:\n  light: no-such-theme\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr []string
	}{
		{
			name:       "invalid kind",
			args:       []string{"nostress", "list", "podcasts", "--content", content},
			wantCode:   ExitUsage,
			wantStderr: []string{"invalid content kind", "hint: kinds:"},
		},
		{
			name:       "not found",
			args:       []string{"nostress", "show", "article", "nope", "--content", content},
			wantCode:   ExitNotFound,
			wantStderr: []string{"document not found", "nostress list article"},
		},
		{
			name:     "draft is not found",
			args:     []string{"nostress", "show", "blog", "unfinished", "--content", content},
			wantCode: ExitNotFound,
		},
		{
			name:       "compile error",
			args:       []string{"nostress", "show", "article", "broken-html", "--content", content},
			wantCode:   ExitCompile,
			wantStderr: []string{"hint: check that raw HTML tags"},
		},
		{
			name:       "missing content dir",
			args:       []string{"nostress", "list", "article", "--content", filepath.Join(empty, "missing")},
			wantCode:   ExitIO,
			wantStderr: []string{"invalid content directory", "hint: use --content"},
		},
		{
			name:       "missing database",
			args:       []string{"nostress", "list", "article", "--driver", "sqlite", "--dsn", filepath.Join(empty, "none.db")},
			wantCode:   ExitIO,
			wantStderr: []string{"does not exist", "nostress seed"},
		},
		{
			name:       "seed empty tree",
			args:       []string{"nostress", "seed", "--content", empty, "--dsn", filepath.Join(empty, "db", "site.db")},
			wantCode:   ExitIO,
			wantStderr: []string{"no documents found"},
		},
		{
			name:       "seed without dsn",
			args:       []string{"nostress", "seed", "--content", content},
			wantCode:   ExitUsage,
			wantStderr: []string{"--dsn"},
		},
		{
			name:       "config not found",
			args:       []string{"nostress", "list", "article", "--config", "no-such-config-name"},
			wantCode:   ExitUsage,
			wantStderr: []string{"config file not found", "hint: use --config"},
		},
		{
			name:       "unknown theme",
			args:       []string{"nostress", "list", "article", "--content", content, "--config", badTheme},
			wantCode:   ExitUsage,
			wantStderr: []string{"unknown highlight theme", "hint: available:"},
		},
		{
			name:       "invalid log level",
			args:       []string{"nostress", "list", "article", "--content", content, "--log-level", "loud"},
			wantCode:   ExitUsage,
			wantStderr: []string{"log.level"},
		},
		{
			name:       "invalid date format",
			args:       []string{"nostress", "list", "article", "--content", content, "--date-format", "[open"},
			wantCode:   ExitUsage,
			wantStderr: []string{"invalid date format"},
		},
		{
			name:       "invalid show format",
			args:       []string{"nostress", "show", "article", "focus-basics", "--content", content, "--format", "xml"},
			wantCode:   ExitUsage,
			wantStderr: []string{"--format"},
		},
		{
			name:       "missing slug",
			args:       []string{"nostress", "show", "article", "--content", content},
			wantCode:   ExitUsage,
			wantStderr: []string{"missing slug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr := newTestEnv()
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr = %q, want substring %q", stderr, want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunList - Listing published documents
// ---------------------------------------------------------------------------

func TestRunList(t *testing.T) {
	t.Parallel()

	content := writeContent(t, testContent)

	t.Run("table newest first", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := newTestEnv()
		code := runMain([]string{"nostress", "list", "blog", "--content", content, "--date-format", "long"}, env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}

		out := stdout.String()
		reset := strings.Index(out, "evening-reset")
		focus := strings.Index(out, "focus-basics")
		if reset < 0 || focus < 0 || reset > focus {
			t.Errorf("want evening-reset before focus-basics, got:\n%s", out)
		}
		if !strings.Contains(out, "February 1, 2024") {
			t.Errorf("want long date format, got:\n%s", out)
		}
		if strings.Contains(out, "unfinished") {
			t.Errorf("draft listed:\n%s", out)
		}
		if !strings.Contains(out, "3 document(s)") {
			t.Errorf("want count line, got:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := newTestEnv()
		code := runMain([]string{"nostress", "list", "resource", "--content", content, "--json"}, env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}

		var got []nostress.Summary
		if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
			t.Fatalf("decoding output: %v\n%s", err, stdout)
		}
		if len(got) != 1 {
			t.Fatalf("got %d summaries, want 1", len(got))
		}
		if got[0].Slug != "tip-box-breathing" || got[0].ResourceType != "tip" {
			t.Errorf("summary = %+v, want tip-box-breathing tip", got[0])
		}
	})

	t.Run("quiet drops count", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := newTestEnv()
		if code := runMain([]string{"nostress", "list", "course", "--content", content, "-q"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if strings.Contains(stdout.String(), "document(s)") {
			t.Errorf("quiet output has count line:\n%s", stdout)
		}
	})

	t.Run("content dir from environment", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := newTestEnv("NOSTRESS_CONTENT_DIR="+content, "NOSTRESS_CONTNET=typo")
		if code := runMain([]string{"nostress", "list", "course"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		if !strings.Contains(stdout.String(), "mindful-ai") {
			t.Errorf("stdout = %q, want mindful-ai", stdout)
		}
		if !strings.Contains(stderr.String(), "unknown environment variable NOSTRESS_CONTNET") {
			t.Errorf("stderr = %q, want typo warning", stderr)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunShow - Resolving one document
// ---------------------------------------------------------------------------

func TestRunShow(t *testing.T) {
	t.Parallel()

	content := writeContent(t, testContent)

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{"html", "html", []string{`<h2 id="intro">Intro</h2>`, "Batch your inbox."}},
		{"outline", "outline", []string{"Focus Basics\n", "  - Intro (#intro)\n", "    - Sub Point (#sub-point)\n"}},
		{"json", "json", []string{`"title": "Focus Basics"`, `"id": "sub-point"`, `"body": "`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv()
			args := []string{"nostress", "show", "article", "focus-basics", "--content", content, "--format", tt.format}
			if code := runMain(args, env); code != ExitSuccess {
				t.Fatalf("exit code = %d, stderr: %s", code, stderr)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunSeed - Flat files into SQLite, then read back
// ---------------------------------------------------------------------------

func TestRunSeed(t *testing.T) {
	t.Parallel()

	content := writeContent(t, testContent)
	dsn := filepath.Join(t.TempDir(), "data", "site.db")

	env, stdout, stderr := newTestEnv()
	if code := runMain([]string{"nostress", "seed", "--content", content, "--dsn", dsn}, env); code != ExitSuccess {
		t.Fatalf("seed exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "seeded 6 document(s)") {
		t.Errorf("seed output = %q, want 6 documents", stdout)
	}

	fromFiles := listSlugs(t, "--content", content)
	fromDB := listSlugs(t, "--driver", "sqlite", "--dsn", dsn)
	if diff := cmp.Diff(fromFiles, fromDB); diff != "" {
		t.Errorf("sqlite list differs from file list (-files +db):\n%s", diff)
	}

	// Seeding twice upserts.
	env, stdout, stderr = newTestEnv()
	if code := runMain([]string{"nostress", "seed", "--content", content, "--dsn", dsn}, env); code != ExitSuccess {
		t.Fatalf("second seed exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "seeded 6 document(s)") {
		t.Errorf("second seed output = %q", stdout)
	}

	// --prune drops rows whose file was deleted.
	if err := os.Remove(filepath.Join(content, "blog", "focus-basics.mdx")); err != nil {
		t.Fatal(err)
	}
	env, stdout, stderr = newTestEnv()
	if code := runMain([]string{"nostress", "seed", "--prune", "--content", content, "--dsn", dsn}, env); code != ExitSuccess {
		t.Fatalf("prune seed exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "pruned article/focus-basics") {
		t.Errorf("prune seed output = %q, want pruned article", stdout)
	}
	fromFiles = listSlugs(t, "--content", content)
	fromDB = listSlugs(t, "--driver", "sqlite", "--dsn", dsn)
	if diff := cmp.Diff(fromFiles, fromDB); diff != "" {
		t.Errorf("after prune, sqlite list differs (-files +db):\n%s", diff)
	}
}

func listSlugs(t *testing.T, storeArgs ...string) []string {
	t.Helper()

	env, stdout, stderr := newTestEnv()
	args := append([]string{"nostress", "list", "article", "--json"}, storeArgs...)
	if code := runMain(args, env); code != ExitSuccess {
		t.Fatalf("list exit code = %d, stderr: %s", code, stderr)
	}
	var list []nostress.Summary
	if err := json.Unmarshal([]byte(stdout.String()), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	slugs := make([]string, len(list))
	for i, s := range list {
		slugs[i] = s.Slug
	}
	return slugs
}

// ---------------------------------------------------------------------------
// TestRunServe - Serving until cancellation
// ---------------------------------------------------------------------------

func TestRunServe(t *testing.T) {
	t.Parallel()

	content := writeContent(t, testContent)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, stdout, stderr := newTestEnv()
	env.Context = ctx

	done := make(chan int, 1)
	go func() {
		done <- runMain([]string{"nostress", "serve", "--content", content, "--addr", "127.0.0.1:0", "--watch"}, env)
	}()

	var base string
	deadline := time.Now().Add(5 * time.Second)
	for base == "" && time.Now().Before(deadline) {
		if _, url, ok := strings.Cut(stdout.String(), "serving on "); ok {
			base = strings.TrimSpace(url)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if base == "" {
		cancel()
		t.Fatalf("server did not start; stderr: %s", stderr)
	}

	resp, err := http.Get(base + "/api/article")
	if err != nil {
		cancel()
		t.Fatalf("GET /api/article: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "focus-basics") {
		t.Errorf("body = %s, want focus-basics", body)
	}

	cancel()
	select {
	case code := <-done:
		if code != ExitSuccess {
			t.Errorf("exit code = %d, want 0 (stderr: %s)", code, stderr)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

// ---------------------------------------------------------------------------
// TestHasVerboseFlag - Pre-parse verbose detection
// ---------------------------------------------------------------------------

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"list", "article"}, false},
		{[]string{"list", "-v", "article"}, true},
		{[]string{"serve", "--verbose"}, true},
		{[]string{"show", "--", "-v"}, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
