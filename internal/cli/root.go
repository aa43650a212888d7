package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/config"
	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/backend"
	"github.com/vburojevic/journalq/internal/logging"
	"github.com/vburojevic/journalq/internal/output"
)

// CLI is the root command structure for journalq
type CLI struct {
	// Global flags
	Format     string   `short:"f" default:"ndjson" enum:"ndjson,text" help:"Output format"`
	Quiet      bool     `short:"q" help:"Suppress non-entry output (info and stats records)"`
	Verbose    bool     `short:"v" help:"Debug logging on stderr"`
	Directory  []string `short:"D" type:"path" help:"Journal directory or file to read (repeatable; default: system journal)"`
	Backend    string   `short:"b" default:"auto" enum:"auto,native,export" help:"Journal backend"`
	LogLevel   string   `default:"warn" enum:"debug,info,warn,error" help:"Diagnostic log level"`
	ConfigFile string   `name:"config" short:"c" type:"path" help:"Use this config file instead of searching"`

	// Commands
	Discover DiscoverCmd `cmd:"" help:"List every host and the units it logged"`
	Hosts    HostsCmd    `cmd:"" help:"List hostnames found in the journal"`
	Units    UnitsCmd    `cmd:"" help:"List unit names found in the journal"`
	Query    QueryCmd    `cmd:"" help:"Read entries in a time range"`
	Tail     TailCmd     `cmd:"" help:"Follow new entries for a host and its units"`
	Config   ConfigCmd   `cmd:"" help:"Show or manage configuration"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format      string
	Quiet       bool
	Verbose     bool
	Directories []string
	Backend     string
	LogLevel    string

	Stdout io.Writer
	Stderr io.Writer

	Config     *config.Config
	ConfigMeta config.Meta

	// Set by tests; nil means the real implementations.
	Opener journal.Opener
	Clock  clock.Clock

	logger *zap.Logger
}

// NewGlobals resolves CLI flags against cfg. Flags named in flagsSet were
// given explicitly and win; everything else falls back to the config.
func NewGlobals(cli *CLI, cfg *config.Config, flagsSet map[string]bool) *Globals {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Globals{
		Format:      cli.Format,
		Quiet:       cli.Quiet || cfg.Quiet,
		Verbose:     cli.Verbose || cfg.Verbose,
		Directories: cli.Directory,
		Backend:     cli.Backend,
		LogLevel:    cli.LogLevel,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Config:      cfg,
	}

	if !flagsSet["format"] && cfg.Format != "" {
		g.Format = cfg.Format
	}
	if !flagsSet["backend"] && cfg.Journal.Backend != "" {
		g.Backend = cfg.Journal.Backend
	}
	if !flagsSet["log-level"] && cfg.LogLevel != "" {
		g.LogLevel = cfg.LogLevel
	}
	if len(g.Directories) == 0 && cfg.Journal.Path != "" {
		g.Directories = []string{cfg.Journal.Path}
	}
	return g
}

// Logger returns the diagnostic logger, writing to Stderr.
func (g *Globals) Logger() *zap.Logger {
	if g.logger != nil {
		return g.logger
	}
	level := g.LogLevel
	if g.Verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Options{Level: level, Output: g.Stderr})
	if err != nil {
		fmt.Fprintf(g.Stderr, "Warning: %v\n", err)
		l = zap.NewNop()
	}
	g.logger = l
	return l
}

func (g *Globals) clock() clock.Clock {
	if g.Clock != nil {
		return g.Clock
	}
	return clock.New()
}

func (g *Globals) opener() (journal.Opener, error) {
	if g.Opener != nil {
		return g.Opener, nil
	}
	return backend.Select(g.Backend, g.Logger())
}

// paths returns the journal paths to open; nil means the system journal.
func (g *Globals) paths() []string {
	return g.Directories
}

func (g *Globals) writer() output.Writer {
	return output.New(g.Format, g.Stdout)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteMetadata(Version, Commit, BuildDate, backend.Names)
	}
	_, err := fmt.Fprintf(globals.Stdout, "journalq version %s (%s)\n", Version, Commit)
	return err
}

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = ""
)
