// Package gateways defines the contracts of infrastructure the domain depends on.
package gateways

import (
	"context"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// AnalysisGateway bundles the byte-level capabilities the format dispatcher needs.
// Implementations must not mutate the buffers they are given.
type AnalysisGateway interface {
	// Fingerprinting
	Fingerprint(data []byte) entities.FingerprintSet

	// Format identification
	SniffFormat(data []byte) entities.FormatKind
	DescribeType(data []byte, format *entities.FormatMetadata) string

	// Structural decoding
	DecodePE(data []byte) (*entities.PEMetadata, error)
	DecodeELF(data []byte) (*entities.ELFMetadata, error)

	UnpackProber
}

// UnpackProber runs a packer's own self-test against a file on disk.
// It returns an error wrapping entities.ErrProbeUnavailable when the probe cannot give an answer.
type UnpackProber interface {
	ProbeUnpack(ctx context.Context, path string) (*entities.ProbeResult, error)
}

// ReportSink persists finished reports
type ReportSink interface {
	WriteReport(ctx context.Context, report *entities.AnalysisReport) error
	Close() error
}
