package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/external-adapters/lode"
	zapadapter "github.com/ochairo/specimen/internal/external-adapters/zap"
)

// runApp runs the CLI without exiting the test process and returns the exit code
func runApp(t *testing.T, args ...string) int {
	t.Helper()

	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}

	err := app.Run(append([]string{"specimen"}, args...))
	if err == nil {
		return 0
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return exitCoder.ExitCode()
	}
	return exitUsage
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "specimen.yaml")
	content := `
strings:
  min_length: 6
output:
  format: yaml
probe:
  timeout: 3s
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	var got *entities.Config
	app := &cli.App{
		Name: "specimen",
		Commands: []*cli.Command{{
			Name:  "analyze",
			Flags: analysisFlags(),
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				got = cfg
				return err
			},
		}},
	}

	args := []string{"specimen", "analyze", "--config", configPath, "--min-length", "8", "--exhaustive"}
	if err := app.Run(args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got.Strings.MinLength != 8 {
		t.Errorf("MinLength = %d, want flag value 8", got.Strings.MinLength)
	}
	if got.Output.Format != "yaml" {
		t.Errorf("Format = %q, want file value yaml", got.Output.Format)
	}
	if got.Probe.Timeout != 3*time.Second {
		t.Errorf("Probe.Timeout = %v, want 3s", got.Probe.Timeout)
	}
	if !got.Packer.Exhaustive {
		t.Error("Exhaustive should be set by flag")
	}
	if got.Packer.EntryWindow != entities.DefaultEntryWindow {
		t.Errorf("EntryWindow = %d, want default %d", got.Packer.EntryWindow, entities.DefaultEntryWindow)
	}
}

func TestApp_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.bin")
	sample := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(sample, []byte("plain text sample"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{
			name: "analyze without files",
			args: []string{"analyze"},
			want: exitUsage,
		},
		{
			name: "analyze missing file",
			args: []string{"analyze", "--log-level", "error", missing},
			want: exitUsage,
		},
		{
			name: "missing config file",
			args: []string{"analyze", "--config", filepath.Join(dir, "nope.yaml"), sample},
			want: exitConfig,
		},
		{
			name: "invalid log level",
			args: []string{"analyze", "--log-level", "loud", sample},
			want: exitConfig,
		},
		{
			name: "missing signature database",
			args: []string{"analyze", "--log-level", "error", "--signatures", filepath.Join(dir, "nope.txt"), sample},
			want: exitConfig,
		},
		{
			name: "fs sink without path",
			args: []string{"analyze", "--log-level", "error", "--sink", "fs", sample},
			want: exitSink,
		},
		{
			name: "invalid output format",
			args: []string{"version", "--format", "xml"},
			want: exitUsage,
		},
		{
			name: "compare with one file",
			args: []string{"compare", sample},
			want: exitUsage,
		},
		{
			name: "batch on a file",
			args: []string{"batch", "--log-level", "error", sample},
			want: exitUsage,
		},
		{
			name: "verify without database",
			args: []string{"signatures", "verify", "--log-level", "error"},
			want: exitConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runApp(t, tt.args...); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("small files are scored", func(t *testing.T) {
		a := write("a.txt", []byte("hello"))
		b := write("b.txt", []byte("hello"))

		result, err := compareFiles(a, b)
		if err != nil {
			t.Fatalf("compareFiles() error = %v", err)
		}
		if result.LeftHash == "" || result.RightHash == "" {
			t.Fatal("expected both ssdeep hashes")
		}
		if result.Score != 100 {
			t.Errorf("Score = %d, want 100 for identical content", result.Score)
		}
		if !result.Identical {
			t.Error("identical content should be reported as identical")
		}
		if result.Left != a || result.Right != b {
			t.Errorf("paths = %q, %q", result.Left, result.Right)
		}
	})

	t.Run("small different files", func(t *testing.T) {
		a := write("c.txt", []byte("MZ small stub"))
		b := write("d.txt", []byte("ELF other stub"))

		result, err := compareFiles(a, b)
		if err != nil {
			t.Fatalf("compareFiles() error = %v", err)
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("Score = %d, want 0..100", result.Score)
		}
		if result.Identical {
			t.Error("different content should not be identical")
		}
	})

	t.Run("large files are scored", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // G404: deterministic test data
		data := make([]byte, 64*1024)
		for i := range data {
			data[i] = byte('a' + rng.Intn(26))
		}
		a := write("large-a.txt", data)

		changed := append([]byte(nil), data...)
		copy(changed[1000:], []byte("a different region of text"))
		b := write("large-b.txt", changed)

		result, err := compareFiles(a, b)
		if err != nil {
			t.Fatalf("compareFiles() error = %v", err)
		}
		if result.LeftHash == "" || result.RightHash == "" {
			t.Fatal("expected both ssdeep hashes")
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("Score = %d, want 0..100", result.Score)
		}
		if result.Identical {
			t.Error("different content should not be identical")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := compareFiles(filepath.Join(dir, "nope"), filepath.Join(dir, "nope"))
		if !errors.Is(err, entities.ErrIOFailure) {
			t.Errorf("error = %v, want ErrIOFailure", err)
		}
	})
}

// newTestSession builds a session whose log lines land in the returned buffer
func newTestSession(t *testing.T, cfg *entities.Config) (*session, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger, err := zapadapter.NewLoggerWithWriter("info", &buf)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	return &session{config: cfg, logger: logger}, &buf
}

func TestSession_LoadSignaturesEntryWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userdb.txt")
	db := "[Long]\nsignature = 60 E8 ?? ?? 00 00 5D 81\nep_only = true\n"
	if err := os.WriteFile(path, []byte(db), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		window   int
		wantWarn bool
	}{
		{"window shorter than pattern", 4, true},
		{"window equal to pattern", 8, false},
		{"default window", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &entities.Config{}
			cfg.Signatures.Path = path
			cfg.Packer.EntryWindow = tt.window
			s, logs := newTestSession(t, cfg)

			loaded, err := s.loadSignatures(context.Background())
			if err != nil {
				t.Fatalf("loadSignatures() error = %v", err)
			}
			if loaded.MaxPatternLen() != 8 {
				t.Errorf("MaxPatternLen() = %d, want 8", loaded.MaxPatternLen())
			}
			if got := strings.Contains(logs.String(), `"longest_pattern":8`); got != tt.wantWarn {
				t.Errorf("warned = %v, want %v; logs: %s", got, tt.wantWarn, logs.String())
			}
		})
	}
}

func TestSession_CloseLogsPersistedReports(t *testing.T) {
	sink, err := lode.NewReportSinkFS("reports", t.TempDir())
	if err != nil {
		t.Fatalf("NewReportSinkFS() error = %v", err)
	}
	report := &entities.AnalysisReport{
		Identity:     entities.FileIdentity{Name: "a.bin", SizeBytes: 4, TypeLabel: "data"},
		Fingerprints: entities.FingerprintSet{SHA256: strings.Repeat("a", 64), CRC32: "0"},
		Strings:      entities.StringSet{ASCII: []string{}, Unicode: []string{}},
		Format:       entities.NewUnknownFormat(),
		AnalyzedAt:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
	for range 2 {
		if err := sink.WriteReport(context.Background(), report); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
	}

	cfg := &entities.Config{}
	cfg.Sink.Dataset = "reports"
	s, logs := newTestSession(t, cfg)
	s.close(sink)

	if !strings.Contains(logs.String(), `"reports_written":2`) {
		t.Errorf("close() should log the persisted count; logs: %s", logs.String())
	}
}
