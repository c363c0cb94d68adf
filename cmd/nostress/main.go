package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	verbose := hasVerboseFlag(os.Args[1:])

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// hasVerboseFlag scans raw arguments before any flag set is built.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}

// runMain routes the subcommand and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(env.context())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "list":
		err = runList(ctx, rest, env)
	case "show":
		err = runShow(ctx, rest, env)
	case "pillars":
		err = runPillars(rest, env)
	case "seed":
		err = runSeed(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "nostress %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err != nil {
		if isHelpRequest(err) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, cmd))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
