package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	nostress "github.com/PietroNarcisi/NostressAI"
	"github.com/PietroNarcisi/NostressAI/internal/dateutil"
	"github.com/PietroNarcisi/NostressAI/internal/taxonomy"
	"github.com/PietroNarcisi/NostressAI/internal/yamlutil"
)

// runList prints the published documents of one kind.
func runList(ctx context.Context, args []string, env *Environment) error {
	var f listFlags
	fs := newFlagSet("list")
	addListFlags(fs, &f)
	if err := parseFlags(fs, args, printListUsage, env); err != nil {
		return err
	}

	kind, err := parseKindArg(fs.Args())
	if err != nil {
		return err
	}
	// Reject a bad format before touching the store.
	if _, err := dateutil.FormatDate(env.Now(), f.dateFormat); err != nil {
		return err
	}

	a, err := newApp(fs, &f.common, env)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.resolver(env)
	if err != nil {
		return err
	}
	list, err := r.ListDocuments(ctx, kind)
	if err != nil {
		return a.tag(err)
	}

	if f.json {
		return writeJSON(env.Stdout, list)
	}
	return writeSummaries(env.Stdout, list, f.dateFormat, f.common.quiet)
}

// writeSummaries prints one tab-aligned row per summary.
func writeSummaries(w io.Writer, list []nostress.Summary, dateFormat string, quiet bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range list {
		date, err := dateutil.FormatDate(s.Date, dateFormat)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", date, s.Slug, s.Title, pillarIDs(s.Pillars))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(w, "%d document(s)\n", len(list))
	}
	return nil
}

func pillarIDs(pillars []nostress.Pillar) string {
	ids := make([]string, len(pillars))
	for i, p := range pillars {
		ids[i] = p.ID
	}
	return strings.Join(ids, ",")
}

// runShow resolves one document and prints it in the requested format.
func runShow(ctx context.Context, args []string, env *Environment) error {
	var f showFlags
	fs := newFlagSet("show")
	addShowFlags(fs, &f)
	if err := parseFlags(fs, args, printShowUsage, env); err != nil {
		return err
	}

	switch f.format {
	case showHTML, showJSON, showOutline:
	default:
		return fmt.Errorf("%w: --format %q (must be html, json or outline)", ErrUsage, f.format)
	}

	pos := fs.Args()
	kind, err := parseKindArg(pos)
	if err != nil {
		return err
	}
	if len(pos) < 2 {
		return fmt.Errorf("%w: missing slug argument", ErrUsage)
	}
	slug := pos[1]

	a, err := newApp(fs, &f.common, env)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.resolver(env)
	if err != nil {
		return err
	}
	post, err := r.ResolveDocument(ctx, kind, slug)
	if err != nil {
		return a.tag(err)
	}

	switch f.format {
	case showJSON:
		return writeJSON(env.Stdout, post)
	case showOutline:
		return writeOutline(env.Stdout, post)
	default:
		if _, err := post.Body.WriteTo(env.Stdout); err != nil {
			return err
		}
		_, err := fmt.Fprintln(env.Stdout)
		return err
	}
}

// writeOutline prints the title and an indented heading list.
func writeOutline(w io.Writer, post *nostress.CompiledPost) error {
	if _, err := fmt.Fprintln(w, post.Meta.Title); err != nil {
		return err
	}
	for _, h := range post.Headings {
		indent := strings.Repeat("  ", h.Level-1)
		if _, err := fmt.Fprintf(w, "%s- %s (#%s)\n", indent, h.Text, h.ID); err != nil {
			return err
		}
	}
	return nil
}

// runPillars prints the taxonomy catalogue. It needs no store.
func runPillars(args []string, env *Environment) error {
	var asJSON, asYAML bool
	fs := newFlagSet("pillars")
	fs.BoolVar(&asJSON, "json", false, "print the catalogue as JSON")
	fs.BoolVar(&asYAML, "yaml", false, "print the catalogue as YAML")
	if err := parseFlags(fs, args, printPillarsUsage, env); err != nil {
		return err
	}
	if asJSON && asYAML {
		return fmt.Errorf("%w: --json and --yaml are mutually exclusive", ErrUsage)
	}

	pillars := taxonomy.Catalogue()
	switch {
	case asJSON:
		return writeJSON(env.Stdout, pillars)
	case asYAML:
		out, err := yamlutil.Marshal(pillars)
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(out)
		return err
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range pillars {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Tagline)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
