package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	"github.com/ochairo/specimen/internal/domain/interfaces/gateways"
	"github.com/ochairo/specimen/internal/domain/interfaces/services"
)

// Probe name reported for a positive ELF unpack self-test
const upxPackerName = "upx"

// PackerDetectorConfig tunes packer detection
type PackerDetectorConfig struct {
	// Exhaustive records every matching signature instead of stopping at the first
	Exhaustive bool
	// ProbeTimeout bounds the unpack probe; zero means entities.DefaultProbeTimeout
	ProbeTimeout time.Duration
}

// packerDetector matches PE entry windows against signatures and asks the unpack probe about ELF files
type packerDetector struct {
	signatures *entities.SignatureDatabase
	prober     gateways.UnpackProber
	config     PackerDetectorConfig
	logger     interfaces.Logger
}

// NewPackerDetector creates a detector over an immutable signature database
func NewPackerDetector(
	signatures *entities.SignatureDatabase,
	prober gateways.UnpackProber,
	config PackerDetectorConfig,
	logger interfaces.Logger,
) services.PackerDetector {
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = entities.DefaultProbeTimeout
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &packerDetector{
		signatures: signatures,
		prober:     prober,
		config:     config,
		logger:     logger,
	}
}

// Detect returns nil for formats detection does not apply to (Unknown, ParseFailed)
func (d *packerDetector) Detect(ctx context.Context, artifact *entities.RawArtifact, format entities.FormatMetadata) *entities.PackerVerdict {
	switch format.Kind {
	case entities.FormatPE:
		return d.MatchEntryWindow(format.EntryWindow())
	case entities.FormatELF:
		return d.probe(ctx, artifact)
	default:
		return nil
	}
}

// MatchEntryWindow evaluates entry-point signatures in priority order; the first match wins
func (d *packerDetector) MatchEntryWindow(window []byte) *entities.PackerVerdict {
	var matches []string
	for _, sig := range d.signatures.Signatures() {
		if !sig.EntryPointOnly || !sig.MatchesPrefix(window) {
			continue
		}
		matches = append(matches, sig.Name)
		if !d.config.Exhaustive {
			break
		}
	}

	if len(matches) == 0 {
		return &entities.PackerVerdict{
			Status:     entities.VerdictNotMatched,
			Confidence: fmt.Sprintf("no signature matched %d-byte entry window", len(window)),
			Source:     entities.SourceSignature,
		}
	}

	return &entities.PackerVerdict{
		Status:     entities.VerdictMatched,
		Matched:    true,
		Name:       matches[0],
		Matches:    matches,
		Confidence: "entry-point signature match",
		Source:     entities.SourceSignature,
	}
}

func (d *packerDetector) probe(ctx context.Context, artifact *entities.RawArtifact) *entities.PackerVerdict {
	if d.prober == nil {
		return unknownVerdict("no unpack probe configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, d.config.ProbeTimeout)
	defer cancel()

	result, err := d.prober.ProbeUnpack(probeCtx, artifact.Path)
	if err != nil {
		d.logger.Warn("Unpack probe unavailable",
			interfaces.F("artifact", artifact.Name),
			interfaces.F("error", err.Error()),
		)
		return unknownVerdict(err.Error())
	}

	if !result.Passed {
		return &entities.PackerVerdict{
			Status:     entities.VerdictNotMatched,
			Confidence: "upx self-test failed",
			Source:     entities.SourceProbe,
		}
	}

	return &entities.PackerVerdict{
		Status:     entities.VerdictMatched,
		Matched:    true,
		Name:       upxPackerName,
		Matches:    []string{upxPackerName},
		Confidence: "upx self-test passed",
		Source:     entities.SourceProbe,
	}
}

func unknownVerdict(reason string) *entities.PackerVerdict {
	return &entities.PackerVerdict{
		Status:     entities.VerdictUnknown,
		Confidence: "probe unavailable: " + reason,
		Source:     entities.SourceProbe,
	}
}
