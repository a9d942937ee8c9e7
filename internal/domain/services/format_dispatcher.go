package services

import (
	"context"
	"sync"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	"github.com/ochairo/specimen/internal/domain/interfaces/gateways"
	"github.com/ochairo/specimen/internal/domain/interfaces/services"
)

// formatDispatcher implements AnalysisService: it sniffs the container, runs the independent
// stages concurrently and assembles the report.
type formatDispatcher struct {
	gateway   gateways.AnalysisGateway
	extractor services.StringExtractor
	detector  services.PackerDetector
	logger    interfaces.Logger
	now       func() time.Time
}

// NewAnalysisService creates the analysis pipeline with dependency injection
func NewAnalysisService(
	gateway gateways.AnalysisGateway,
	extractor services.StringExtractor,
	detector services.PackerDetector,
	logger interfaces.Logger,
) services.AnalysisService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &formatDispatcher{
		gateway:   gateway,
		extractor: extractor,
		detector:  detector,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze never fails. Fingerprints and strings are always populated; a parser
// failure degrades only the format to ParseFailed.
func (d *formatDispatcher) Analyze(ctx context.Context, artifact *entities.RawArtifact) *entities.AnalysisReport {
	start := d.now()
	data := artifact.Bytes()
	kind := d.gateway.SniffFormat(data)

	d.logger.Debug("Analyzing artifact",
		interfaces.F("name", artifact.Name),
		interfaces.F("size", artifact.Size()),
		interfaces.F("sniffed", string(kind)),
	)

	var (
		wg           sync.WaitGroup
		fingerprints entities.FingerprintSet
		strs         entities.StringSet
		format       entities.FormatMetadata
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fingerprints = d.gateway.Fingerprint(data)
	}()
	go func() {
		defer wg.Done()
		strs = d.extractor.ExtractStrings(ctx, artifact)
	}()
	go func() {
		defer wg.Done()
		format = d.decode(kind, data)
	}()
	wg.Wait()

	if format.Kind == entities.FormatParseFailed {
		d.logger.Warn("Structural decoding failed, continuing with degraded format",
			interfaces.F("name", artifact.Name),
			interfaces.F("format", string(format.Failure.Format)),
			interfaces.F("kind", string(format.Failure.Kind)),
			interfaces.F("reason", format.Failure.Reason),
		)
	}

	// Detection needs the decoded entry window, so it runs after the join
	var verdict *entities.PackerVerdict
	if d.detector != nil {
		verdict = d.detector.Detect(ctx, artifact, format)
	}

	report := &entities.AnalysisReport{
		Identity: entities.FileIdentity{
			Name:      artifact.Name,
			SizeBytes: int64(artifact.Size()),
			TypeLabel: d.gateway.DescribeType(data, &format),
		},
		Fingerprints:  fingerprints,
		Strings:       strs,
		Format:        format,
		PackerVerdict: verdict,
		AnalyzedAt:    start.UTC(),
		Duration:      d.now().Sub(start),
	}

	fields := []interfaces.Field{
		interfaces.F("name", artifact.Name),
		interfaces.F("format", string(format.Kind)),
		interfaces.F("duration", report.Duration.String()),
	}
	if verdict != nil {
		fields = append(fields, interfaces.F("packer", string(verdict.Status)))
	}
	d.logger.Info("Analysis complete", fields...)

	return report
}

func (d *formatDispatcher) decode(kind entities.FormatKind, data []byte) entities.FormatMetadata {
	switch kind {
	case entities.FormatPE:
		pe, err := d.gateway.DecodePE(data)
		if err != nil {
			return entities.NewParseFailedFormat(entities.FormatPE, err)
		}
		return entities.NewPEFormat(pe)
	case entities.FormatELF:
		elf, err := d.gateway.DecodeELF(data)
		if err != nil {
			return entities.NewParseFailedFormat(entities.FormatELF, err)
		}
		return entities.NewELFFormat(elf)
	default:
		return entities.NewUnknownFormat()
	}
}
