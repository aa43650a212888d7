package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrExists is returned by WriteFile when it would overwrite a file.
var ErrExists = errors.New("config file already exists")

const fileHeader = `# journalq configuration file
# Every key can be overridden with JOURNALQ_<SECTION>_<KEY>, e.g. JOURNALQ_TAIL_POLL_INTERVAL.

`

// WriteFile writes cfg to path as TOML, creating parent directories.
func WriteFile(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0o644)
}
