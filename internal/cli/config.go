package cli

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vburojevic/journalq/internal/config"
	"github.com/vburojevic/journalq/internal/output"
)

// ConfigCmd shows or manages configuration
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"withargs" help:"Show the effective configuration"`
	Path ConfigPathCmd `cmd:"" help:"Show the configuration file path"`
	Init ConfigInitCmd `cmd:"" help:"Write a starter configuration file"`
}

// ConfigShowCmd shows the effective configuration
type ConfigShowCmd struct{}

type configOutput struct {
	Type          string         `json:"type"` // Always "config"
	SchemaVersion int            `json:"schemaVersion"`
	Source        string         `json:"source"`
	Path          string         `json:"path,omitempty"`
	Env           []string       `json:"env,omitempty"`
	Config        *config.Config `json:"config"`
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}
	meta := globals.ConfigMeta

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(&configOutput{
			Type:          "config",
			SchemaVersion: output.SchemaVersion,
			Source:        meta.Source(),
			Path:          meta.Path,
			Env:           meta.Env,
			Config:        cfg,
		})
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return outputError(globals, CodeConfigFailed, err.Error(), err)
	}
	fmt.Fprintf(globals.Stdout, "# source: %s\n", meta.Source())
	if meta.Path != "" {
		fmt.Fprintf(globals.Stdout, "# loaded from: %s\n", meta.Path)
	}
	_, err = globals.Stdout.Write(data)
	return err
}

// ConfigPathCmd shows the config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := globals.ConfigMeta.Path
	if path == "" {
		path = config.ConfigFile()
	}
	def, _ := config.DefaultPath()

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(map[string]any{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
			"default_path":  def,
		})
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintf(globals.Stdout, "Create one with: journalq config init (writes %s)\n", def)
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigInitCmd writes a starter TOML config
type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Where to write (default: user config dir)"`
	Force bool   `help:"Overwrite an existing file"`
}

// Run executes the config init command
func (c *ConfigInitCmd) Run(globals *Globals) error {
	path := c.Path
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return outputError(globals, CodeConfigFailed, err.Error(), err)
		}
		path = def
	}

	if err := config.WriteFile(path, config.Default(), c.Force); err != nil {
		code := CodeConfigFailed
		if errors.Is(err, config.ErrExists) {
			code = CodeConfigExists
		}
		return outputError(globals, code, err.Error(), err)
	}

	if globals.Quiet {
		return nil
	}
	return globals.writer().WriteInfo(&output.InfoOutput{
		Message: "Wrote configuration to " + path,
		Mode:    "config",
	})
}
