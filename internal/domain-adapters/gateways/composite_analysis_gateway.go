package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/specimen/internal/domain-adapters/parsers"
	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces/gateways"
)

// compositeAnalysisGateway implements the AnalysisGateway interface by composing
// the format parsers, the fingerprint engine and the unpack probe
type compositeAnalysisGateway struct {
	sniffer      *parsers.Sniffer
	peParser     *parsers.PEParser
	elfParser    *parsers.ELFParser
	fingerprints *fingerprintEngine
	prober       gateways.UnpackProber
}

// NewCompositeAnalysisGateway creates a composite analysis gateway from the resolved configuration
func NewCompositeAnalysisGateway(config *entities.Config) gateways.AnalysisGateway {
	return &compositeAnalysisGateway{
		sniffer:      parsers.NewSniffer(),
		peParser:     parsers.NewPEParser(config.Packer.EntryWindow),
		elfParser:    parsers.NewELFParser(config.Packer.EntryWindow),
		fingerprints: NewFingerprintEngine(),
		prober:       NewUPXProbe(NewCommandRunner(), config.Probe.UPXPath, config.Probe.Timeout),
	}
}

// NewCompositeAnalysisGatewayWithDeps creates a composite gateway with custom dependencies.
// A nil prober makes every probe report entities.ErrProbeUnavailable.
func NewCompositeAnalysisGatewayWithDeps(
	sniffer *parsers.Sniffer,
	pe *parsers.PEParser,
	elf *parsers.ELFParser,
	fingerprints *fingerprintEngine,
	prober gateways.UnpackProber,
) gateways.AnalysisGateway {
	return &compositeAnalysisGateway{
		sniffer:      sniffer,
		peParser:     pe,
		elfParser:    elf,
		fingerprints: fingerprints,
		prober:       prober,
	}
}

// Fingerprint computes all content digests
func (c *compositeAnalysisGateway) Fingerprint(data []byte) entities.FingerprintSet {
	return c.fingerprints.Fingerprint(data)
}

// SniffFormat identifies the container from its leading bytes
func (c *compositeAnalysisGateway) SniffFormat(data []byte) entities.FormatKind {
	return c.sniffer.Sniff(data)
}

// DescribeType produces the human-readable type label
func (c *compositeAnalysisGateway) DescribeType(data []byte, format *entities.FormatMetadata) string {
	return c.sniffer.Describe(data, format)
}

// DecodePE decodes PE/COFF structures
func (c *compositeAnalysisGateway) DecodePE(data []byte) (*entities.PEMetadata, error) {
	return c.peParser.Parse(data)
}

// DecodeELF decodes ELF structures
func (c *compositeAnalysisGateway) DecodeELF(data []byte) (*entities.ELFMetadata, error) {
	return c.elfParser.Parse(data)
}

// ProbeUnpack delegates to the configured unpack probe
func (c *compositeAnalysisGateway) ProbeUnpack(ctx context.Context, path string) (*entities.ProbeResult, error) {
	if c.prober == nil {
		return nil, fmt.Errorf("%w: no probe configured", entities.ErrProbeUnavailable)
	}
	return c.prober.ProbeUnpack(ctx, path)
}
