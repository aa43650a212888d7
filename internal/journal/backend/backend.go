// Package backend chooses a journal.Opener by name.
package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vburojevic/journalq/internal/journal"
	"github.com/vburojevic/journalq/internal/journal/export"
	"github.com/vburojevic/journalq/internal/journal/sdjournal"
)

// Backend names accepted by Select.
const (
	Auto   = "auto"
	Native = "native"
	Export = "export"
)

// Names lists the accepted backend names.
var Names = []string{Auto, Native, Export}

// Select returns the opener for name. Auto picks the export reader for
// paths holding journalctl JSON files and libsystemd otherwise.
func Select(name string, logger *zap.Logger) (journal.Opener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exp := export.Opener(export.WithLogger(logger.Named("export")))

	switch strings.ToLower(name) {
	case Native, "sdjournal":
		return sdjournal.Open, nil
	case Export, "json":
		return exp, nil
	case Auto, "":
		return func(paths ...string) (journal.Cursor, error) {
			if hasExportFiles(paths) || !sdjournal.Available {
				logger.Debug("using export backend", zap.Strings("paths", paths))
				return exp(paths...)
			}
			return sdjournal.Open(paths...)
		}, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

func hasExportFiles(paths []string) bool {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if isExport(p) {
				return true
			}
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && isExport(e.Name()) {
				return true
			}
		}
	}
	return false
}

func isExport(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".jsonl", ".ndjson":
		return true
	}
	return strings.HasSuffix(name, ".json.zst")
}

// Default returns the auto-selecting opener without logging.
func Default() journal.Opener {
	open, _ := Select(Auto, nil)
	return open
}
