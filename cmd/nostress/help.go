package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list       List published documents of a kind")
	fmt.Fprintln(w, "  show       Resolve and print one document")
	fmt.Fprintln(w, "  pillars    Print the pillar catalogue")
	fmt.Fprintln(w, "  seed       Import the content directory into SQLite")
	fmt.Fprintln(w, "  serve      Serve the JSON API and sitemap")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'nostress help <command>' for details on a specific command.")
}

// printCommonUsage prints the flags every store-backed command accepts.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Store:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --content <dir>       Content directory (default: content)")
	fmt.Fprintln(w, "      --driver <s>          Store driver: file, sqlite")
	fmt.Fprintln(w, "      --dsn <path>          SQLite database path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Log format: console, json")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log debug events")
}

// printListUsage prints usage for the list command.
func printListUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress list <kind> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List published documents, newest first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  kind    article (blog), resource (tips, studies) or course (formations)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "      --json                Print summaries as JSON")
	fmt.Fprintln(w, "      --date-format <s>     Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printShowUsage prints usage for the show command.
func printShowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress show <kind> <slug> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Resolve one published document through the full pipeline.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -f, --format <s>          html (body), json (post), outline (headings)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printPillarsUsage prints usage for the pillars command.
func printPillarsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress pillars [--json | --yaml]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the pillar catalogue as a table, JSON or YAML.")
}

// printSeedUsage prints usage for the seed command.
func printSeedUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress seed [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Import every document of the content directory into the SQLite")
	fmt.Fprintln(w, "database named by --dsn. Pillars and documents are upserted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Seed:")
	fmt.Fprintln(w, "      --prune               Delete rows whose source file no longer exists")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nostress serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve /api/pillars, /api/{kind}, /api/{kind}/{slug} and /sitemap.xml.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address (default: :8080)")
	fmt.Fprintln(w, "      --base-url <url>      Public site URL used in the sitemap")
	fmt.Fprintln(w, "      --watch               Reload content when files change (file driver)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "list":
		printListUsage(env.Stdout)
	case "show":
		printShowUsage(env.Stdout)
	case "pillars":
		printPillarsUsage(env.Stdout)
	case "seed":
		printSeedUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: nostress version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: nostress help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
