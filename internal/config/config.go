// Package config loads the optional shipledger config file.
//
// The file is YAML. After defaults are applied the result is checked against
// an embedded CUE schema, so range and enum errors are reported before any
// build starts.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config holds every setting a command may take from the file.
// Flags given on the command line override these values.
type Config struct {
	Store        string  `yaml:"store" json:"store"`
	WindowDays   int     `yaml:"window_days" json:"window_days"`
	FullRebuild  bool    `yaml:"full_rebuild" json:"full_rebuild"`
	ProgressStep int     `yaml:"progress_step" json:"progress_step"`
	LogLevel     string  `yaml:"log_level" json:"log_level"`
	Metrics      Metrics `yaml:"metrics" json:"metrics"`
	Export       Export  `yaml:"export" json:"export"`
}

// Metrics configures the Prometheus textfile written after each build.
// An empty Textfile disables it.
type Metrics struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Export configures the S3 client used for s3:// export targets.
type Export struct {
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	PathStyle bool   `yaml:"path_style" json:"path_style"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store:        "shipledger.db",
		ProgressStep: 1,
		LogLevel:     "info",
		Export: Export{
			Region: "us-east-1",
		},
	}
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default and validates the result.
// Unknown keys are an error.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
