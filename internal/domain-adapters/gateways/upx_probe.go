package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// upxOKMarker is what "upx -t" prints for each file that decompresses cleanly
const upxOKMarker = "[OK]"

// upxProbe asks the UPX binary to self-test a file
type upxProbe struct {
	runner  *CommandRunner
	upxPath string
	timeout time.Duration
}

// NewUPXProbe creates an unpack probe backed by the upx executable
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewUPXProbe(runner *CommandRunner, upxPath string, timeout time.Duration) *upxProbe {
	if upxPath == "" {
		upxPath = entities.DefaultUPXPath
	}
	if timeout <= 0 {
		timeout = entities.DefaultProbeTimeout
	}
	return &upxProbe{
		runner:  runner,
		upxPath: upxPath,
		timeout: timeout,
	}
}

// ProbeUnpack runs "upx -q -t <path>". A missing binary or a timeout is reported as
// entities.ErrProbeUnavailable; a failed self-test is a result, not an error.
func (p *upxProbe) ProbeUnpack(ctx context.Context, path string) (*entities.ProbeResult, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: artifact has no path on disk", entities.ErrProbeUnavailable)
	}

	result := p.runner.Run(ctx, CommandConfig{
		Name:    p.upxPath,
		Args:    []string{"-q", "-t", path},
		Timeout: p.timeout,
	})

	switch {
	case result.TimedOut:
		return nil, fmt.Errorf("%w: %v", entities.ErrProbeUnavailable, result.Error)
	case result.NotFound:
		return nil, fmt.Errorf("%w: %s: %v", entities.ErrProbeUnavailable, p.upxPath, result.Error)
	}

	output := strings.TrimSpace(result.Stdout + "\n" + result.Stderr)
	probe := &entities.ProbeResult{Output: output}
	if result.Success && strings.Contains(result.Stdout, upxOKMarker) {
		probe.Passed = true
		probe.Marker = upxOKMarker
	}
	return probe, nil
}
