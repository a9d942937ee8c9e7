package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ochairo/specimen/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/specimen/internal/domain-orchestrators"
	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	gatewayifaces "github.com/ochairo/specimen/internal/domain/interfaces/gateways"
	"github.com/ochairo/specimen/internal/domain/interfaces/repositories"
	svcifaces "github.com/ochairo/specimen/internal/domain/interfaces/services"
	"github.com/ochairo/specimen/internal/domain/services"
	"github.com/ochairo/specimen/internal/external-adapters/lode"
	"github.com/ochairo/specimen/internal/external-adapters/render"
	yamladapter "github.com/ochairo/specimen/internal/external-adapters/yaml"
	zapadapter "github.com/ochairo/specimen/internal/external-adapters/zap"
)

// session holds everything a command needs, built once from config and flags
type session struct {
	config   *entities.Config
	logger   *zapadapter.Logger
	renderer *render.Renderer
}

// newSession loads the config file, applies flag overrides and defaults, and sets up logging and rendering
func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("configuration error: %v", err), exitConfig)
	}

	logger, err := zapadapter.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("configuration error: %v", err), exitConfig)
	}

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}

	return &session{
		config:   cfg,
		logger:   logger.With(interfaces.F("command", c.Command.Name)),
		renderer: render.NewRenderer(format, c.Bool("no-color"), os.Stdout),
	}, nil
}

func loadConfig(c *cli.Context) (*entities.Config, error) {
	cfg := &entities.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := yamladapter.NewConfigLoader().LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyFlags(c, cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyFlags copies explicitly set flags over file values
func applyFlags(c *cli.Context, cfg *entities.Config) {
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("signatures") {
		cfg.Signatures.Path = c.String("signatures")
	}
	if c.IsSet("signatures-format") {
		cfg.Signatures.Format = c.String("signatures-format")
	}
	if c.IsSet("entry-window") {
		cfg.Packer.EntryWindow = c.Int("entry-window")
	}
	if c.IsSet("exhaustive") {
		cfg.Packer.Exhaustive = c.Bool("exhaustive")
	}
	if c.IsSet("upx") {
		cfg.Probe.UPXPath = c.String("upx")
	}
	if c.IsSet("probe-timeout") {
		cfg.Probe.Timeout = c.Duration("probe-timeout")
	}
	if c.IsSet("min-length") {
		cfg.Strings.MinLength = c.Int("min-length")
	}
	if c.IsSet("strings-tool") {
		cfg.Strings.Tool = c.String("strings-tool")
	}
	if c.IsSet("sink") {
		cfg.Sink.Backend = c.String("sink")
	}
	if c.IsSet("sink-path") {
		cfg.Sink.Path = c.String("sink-path")
	}
}

// loadSignatures loads the process-wide signature database
func (s *session) loadSignatures(ctx context.Context) (*entities.SignatureDatabase, error) {
	var repo repositories.SignatureRepository = gateways.NewSignatureRepository(s.config.Signatures, s.logger)
	db, err := repo.LoadSignatures(ctx)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("signature database error: %v", err), exitConfig)
	}

	// Patterns longer than the entry window can never match
	if longest := db.MaxPatternLen(); s.config.Packer.EntryWindow < longest {
		s.logger.Warn("Entry window is shorter than the longest signature",
			interfaces.F("entry_window", s.config.Packer.EntryWindow),
			interfaces.F("longest_pattern", longest))
	}
	return db, nil
}

// newSink opens the configured report sink; nil means reports are not persisted
func (s *session) newSink(ctx context.Context) (gatewayifaces.ReportSink, error) {
	sinkCfg := s.config.Sink
	var (
		sink *lode.ReportSink
		err  error
	)
	switch sinkCfg.Backend {
	case "none":
		return nil, nil
	case "fs":
		sink, err = lode.NewReportSinkFS(sinkCfg.Dataset, sinkCfg.Path)
	case "s3":
		sink, err = lode.NewReportSinkS3(ctx, sinkCfg.Dataset, lode.S3Config{
			Bucket:       sinkCfg.Bucket,
			Prefix:       sinkCfg.Prefix,
			Region:       sinkCfg.Region,
			Endpoint:     sinkCfg.Endpoint,
			UsePathStyle: sinkCfg.PathStyle,
		})
	default:
		err = fmt.Errorf("unknown sink backend %q", sinkCfg.Backend)
	}
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("report sink error: %v", err), exitSink)
	}
	return sink, nil
}

// newOrchestrator wires the analysis pipeline
func (s *session) newOrchestrator(db *entities.SignatureDatabase, sink gatewayifaces.ReportSink) *orchestrators.AnalysisOrchestrator {
	cfg := s.config
	gateway := gateways.NewCompositeAnalysisGateway(cfg)

	var extractor svcifaces.StringExtractor = services.NewStringExtractor(cfg.Strings.MinLength)
	if cfg.Strings.Tool == "external" {
		extractor = gateways.NewStringsTool(gateways.NewCommandRunner(), cfg.Strings.ToolPath, cfg.Strings.MinLength, extractor, s.logger)
	}

	detector := services.NewPackerDetector(db, gateway, services.PackerDetectorConfig{
		Exhaustive:   cfg.Packer.Exhaustive,
		ProbeTimeout: cfg.Probe.Timeout,
	}, s.logger)

	analysis := services.NewAnalysisService(gateway, extractor, detector, s.logger)
	return orchestrators.NewAnalysisOrchestrator(analysis, sink, s.logger, cfg.Batch.Parallel)
}

// close flushes the logger and the sink
func (s *session) close(sink gatewayifaces.ReportSink) {
	if persisted, ok := sink.(*lode.ReportSink); ok {
		s.logger.Info("Reports persisted",
			interfaces.F("dataset", s.config.Sink.Dataset),
			interfaces.F("reports_written", persisted.Written()))
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			s.logger.Warn("Failed to close report sink", interfaces.F("error", err.Error()))
		}
	}
	_ = s.logger.Sync()
}
