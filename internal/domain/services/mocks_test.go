package services

import (
	"context"
	"sync"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// mockAnalysisGateway is a mock implementation for testing
type mockAnalysisGateway struct {
	fingerprints entities.FingerprintSet
	kind         entities.FormatKind
	label        string
	pe           *entities.PEMetadata
	peErr        error
	elf          *entities.ELFMetadata
	elfErr       error
	probeResult  *entities.ProbeResult
	probeErr     error
}

func (m *mockAnalysisGateway) Fingerprint(_ []byte) entities.FingerprintSet {
	return m.fingerprints
}

func (m *mockAnalysisGateway) SniffFormat(_ []byte) entities.FormatKind {
	return m.kind
}

func (m *mockAnalysisGateway) DescribeType(_ []byte, _ *entities.FormatMetadata) string {
	return m.label
}

func (m *mockAnalysisGateway) DecodePE(_ []byte) (*entities.PEMetadata, error) {
	return m.pe, m.peErr
}

func (m *mockAnalysisGateway) DecodeELF(_ []byte) (*entities.ELFMetadata, error) {
	return m.elf, m.elfErr
}

func (m *mockAnalysisGateway) ProbeUnpack(_ context.Context, _ string) (*entities.ProbeResult, error) {
	return m.probeResult, m.probeErr
}

// mockProber records the paths it was asked about
type mockProber struct {
	mu     sync.Mutex
	result *entities.ProbeResult
	err    error
	block  bool
	paths  []string
}

func (m *mockProber) ProbeUnpack(ctx context.Context, path string) (*entities.ProbeResult, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.result, m.err
}

// mustSignature builds a signature or panics on a bad test pattern
func mustSignature(name, pattern string, epOnly bool) entities.PackerSignature {
	sig, err := entities.NewPackerSignature(name, pattern, epOnly)
	if err != nil {
		panic(err)
	}
	return sig
}
