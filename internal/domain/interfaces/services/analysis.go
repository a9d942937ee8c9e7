// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// AnalysisService turns one artifact into a complete report.
// Analysis never fails: structural problems degrade fields of the report instead.
type AnalysisService interface {
	Analyze(ctx context.Context, artifact *entities.RawArtifact) *entities.AnalysisReport
}

// StringExtractor pulls printable string literals out of an artifact
type StringExtractor interface {
	ExtractStrings(ctx context.Context, artifact *entities.RawArtifact) entities.StringSet
}

// PackerDetector derives a packing verdict from decoded format metadata.
// It returns nil when detection does not apply to the format.
type PackerDetector interface {
	Detect(ctx context.Context, artifact *entities.RawArtifact, format entities.FormatMetadata) *entities.PackerVerdict
}
