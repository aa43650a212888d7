package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/journalq/internal/cli"
	"github.com/vburojevic/journalq/internal/config"
)

const quickStart = `journalq - discover, query and tail the systemd journal

START HERE:
  journalq discover                       Which hosts and units are in the journal
  journalq tail -H web-1 -u nginx.service Follow one unit of one host

Other useful commands:
  journalq query --since 1h -p err        Errors from the last hour
  journalq -D ./export tail -H web-1      Read a directory of journalctl -o json files
  journalq config show                    Effective configuration
`

func main() {
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("journalq"),
		kong.Description("Discover hosts and units, query time ranges and tail the systemd journal.\n\nOutput is NDJSON by default; use -f text for humans."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	// Load configuration from files/environment (plus provenance metadata).
	var (
		cfg  *config.Config
		meta config.Meta
		err  error
	)
	if c.ConfigFile != "" {
		cfg, err = config.LoadFromFile(c.ConfigFile)
		meta = config.Meta{Path: c.ConfigFile}
	} else {
		cfg, meta, err = config.LoadWithMeta()
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
		meta = config.Meta{}
	}

	// Record which flags were explicitly provided so config values only
	// fill in the rest.
	flagsSet := map[string]bool{}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			flagsSet[p.Flag.Name] = true
		}
	}

	globals := cli.NewGlobals(&c, cfg, flagsSet)
	globals.ConfigMeta = meta
	defer globals.Logger().Sync() //nolint:errcheck

	if err := ctx.Run(globals); err != nil {
		var cliErr *cli.CLIError
		if !errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		globals.Logger().Sync() //nolint:errcheck
		os.Exit(1)
	}
}
