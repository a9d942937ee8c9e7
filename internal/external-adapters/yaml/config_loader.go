// Package yaml provides YAML configuration loading and YAML signature database parsing.
package yaml

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// yamlConfig represents the raw specimen.yaml structure
type yamlConfig struct {
	Signatures yamlSignatureSource `yaml:"signatures"`
	Packer     yamlPacker          `yaml:"packer"`
	Probe      yamlProbe           `yaml:"probe"`
	Strings    yamlStrings         `yaml:"strings"`
	Output     yamlOutput          `yaml:"output"`
	Sink       yamlSink            `yaml:"sink"`
	Log        yamlLog             `yaml:"log"`
	Batch      yamlBatch           `yaml:"batch"`
}

type yamlSignatureSource struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	SHA256    string `yaml:"sha256"`
	Signature string `yaml:"signature"`
	Keyring   string `yaml:"keyring"`
}

type yamlPacker struct {
	EntryWindow int  `yaml:"entry_window"`
	Exhaustive  bool `yaml:"exhaustive"`
}

type yamlProbe struct {
	UPXPath string   `yaml:"upx_path"`
	Timeout Duration `yaml:"timeout"`
}

type yamlStrings struct {
	MinLength int    `yaml:"min_length"`
	Tool      string `yaml:"tool"`
	ToolPath  string `yaml:"tool_path"`
}

type yamlOutput struct {
	Format string `yaml:"format"`
}

type yamlSink struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Dataset   string `yaml:"dataset"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type yamlLog struct {
	Level string `yaml:"level"`
}

type yamlBatch struct {
	Parallel int `yaml:"parallel"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "1m30s")
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ConfigLoader reads specimen.yaml files
type ConfigLoader struct{}

// NewConfigLoader creates a new config loader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// LoadFile reads a config file, expands environment references and converts it.
// Defaults are not applied; callers merge flags first.
func (l *ConfigLoader) LoadFile(path string) (*entities.Config, error) {
	//nolint:gosec // G304: path is the operator-provided config file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	cfg, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse converts YAML config bytes into the domain Config
func (l *ConfigLoader) Parse(data []byte) (*entities.Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Packer.EntryWindow < 0 {
		return nil, fmt.Errorf("packer.entry_window must not be negative")
	}
	if raw.Strings.Tool != "" && raw.Strings.Tool != "builtin" && raw.Strings.Tool != "external" {
		return nil, fmt.Errorf("strings.tool must be builtin or external, got %q", raw.Strings.Tool)
	}
	switch raw.Sink.Backend {
	case "", "none", "fs", "s3":
	default:
		return nil, fmt.Errorf("sink.backend must be none, fs or s3, got %q", raw.Sink.Backend)
	}

	return &entities.Config{
		Signatures: entities.SignatureConfig{
			Path:      raw.Signatures.Path,
			Format:    raw.Signatures.Format,
			SHA256:    raw.Signatures.SHA256,
			Signature: raw.Signatures.Signature,
			Keyring:   raw.Signatures.Keyring,
		},
		Packer: entities.PackerConfig{
			EntryWindow: raw.Packer.EntryWindow,
			Exhaustive:  raw.Packer.Exhaustive,
		},
		Probe: entities.ProbeConfig{
			UPXPath: raw.Probe.UPXPath,
			Timeout: raw.Probe.Timeout.Duration,
		},
		Strings: entities.StringsConfig{
			MinLength: raw.Strings.MinLength,
			Tool:      raw.Strings.Tool,
			ToolPath:  raw.Strings.ToolPath,
		},
		Output: entities.OutputConfig{Format: raw.Output.Format},
		Sink: entities.SinkConfig{
			Backend:   raw.Sink.Backend,
			Path:      raw.Sink.Path,
			Dataset:   raw.Sink.Dataset,
			Bucket:    raw.Sink.Bucket,
			Prefix:    raw.Sink.Prefix,
			Region:    raw.Sink.Region,
			Endpoint:  raw.Sink.Endpoint,
			PathStyle: raw.Sink.PathStyle,
		},
		Log:   entities.LogConfig{Level: raw.Log.Level},
		Batch: entities.BatchConfig{Parallel: raw.Batch.Parallel},
	}, nil
}
