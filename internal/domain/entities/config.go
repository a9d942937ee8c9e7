package entities

import "time"

// Defaults applied when neither the config file nor a flag sets a value
const (
	DefaultEntryWindow     = 128
	DefaultMinStringLength = 4
	DefaultProbeTimeout    = 10 * time.Second
	DefaultUPXPath         = "upx"
	DefaultStringsPath     = "strings"
	DefaultBatchParallel   = 4
	DefaultSinkDataset     = "specimen"
)

// Config is the resolved runtime configuration
type Config struct {
	Signatures SignatureConfig
	Packer     PackerConfig
	Probe      ProbeConfig
	Strings    StringsConfig
	Output     OutputConfig
	Sink       SinkConfig
	Log        LogConfig
	Batch      BatchConfig
}

// SignatureConfig locates and authenticates the packer signature database
type SignatureConfig struct {
	Path      string
	Format    string // "peid" or "yaml"; inferred from the extension when empty
	SHA256    string // optional pin of the database file digest
	Signature string // optional detached OpenPGP signature of the database file
	Keyring   string // armored public keyring used to check Signature
}

// PackerConfig tunes signature matching
type PackerConfig struct {
	EntryWindow int
	Exhaustive  bool
}

// ProbeConfig configures the external unpack probe
type ProbeConfig struct {
	UPXPath string
	Timeout time.Duration
}

// StringsConfig configures string extraction
type StringsConfig struct {
	MinLength int
	Tool      string // "builtin" or "external"
	ToolPath  string
}

// OutputConfig selects the report rendering
type OutputConfig struct {
	Format string
}

// SinkConfig selects where reports are persisted
type SinkConfig struct {
	Backend   string // "none", "fs" or "s3"
	Path      string
	Dataset   string
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// LogConfig configures logging
type LogConfig struct {
	Level string
}

// BatchConfig configures directory analysis
type BatchConfig struct {
	Parallel int
}

// ApplyDefaults fills unset fields with their defaults
func (c *Config) ApplyDefaults() {
	if c.Packer.EntryWindow <= 0 {
		c.Packer.EntryWindow = DefaultEntryWindow
	}
	if c.Probe.UPXPath == "" {
		c.Probe.UPXPath = DefaultUPXPath
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = DefaultProbeTimeout
	}
	if c.Strings.MinLength <= 0 {
		c.Strings.MinLength = DefaultMinStringLength
	}
	if c.Strings.Tool == "" {
		c.Strings.Tool = "builtin"
	}
	if c.Strings.ToolPath == "" {
		c.Strings.ToolPath = DefaultStringsPath
	}
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
	if c.Sink.Backend == "" {
		c.Sink.Backend = "none"
	}
	if c.Sink.Dataset == "" {
		c.Sink.Dataset = DefaultSinkDataset
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Batch.Parallel <= 0 {
		c.Batch.Parallel = DefaultBatchParallel
	}
}
