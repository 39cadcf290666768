package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Makepad-fr/tada/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	backend := flag.String("backend", "", "local or remote (overrides config)")
	configPath := flag.String("config", "", "path to a TOML config file")
	theme := flag.String("theme", "", "classic, neon or mono")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stderr)
		os.Exit(2)
	}

	code := cli.Run(context.Background(), args, cli.Options{
		Group:      *groupPending,
		Backend:    *backend,
		ConfigPath: *configPath,
		Theme:      *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
