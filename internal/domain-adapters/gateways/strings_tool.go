package gateways

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	"github.com/ochairo/specimen/internal/domain/interfaces/services"
)

const stringsToolTimeout = 30 * time.Second

// stringsTool extracts strings with the binutils strings(1) executable
type stringsTool struct {
	runner    *CommandRunner
	toolPath  string
	minLength int
	fallback  services.StringExtractor
	logger    interfaces.Logger
}

// NewStringsTool creates a StringExtractor that shells out to strings(1).
// The fallback extractor is used when the artifact has no path or the tool fails.
func NewStringsTool(
	runner *CommandRunner,
	toolPath string,
	minLength int,
	fallback services.StringExtractor,
	logger interfaces.Logger,
) services.StringExtractor {
	if toolPath == "" {
		toolPath = entities.DefaultStringsPath
	}
	if minLength <= 0 {
		minLength = entities.DefaultMinStringLength
	}
	return &stringsTool{
		runner:    runner,
		toolPath:  toolPath,
		minLength: minLength,
		fallback:  fallback,
		logger:    logger,
	}
}

// ExtractStrings runs "strings -a" for single-byte runs and "strings -a -el" for UTF-16LE runs
func (s *stringsTool) ExtractStrings(ctx context.Context, artifact *entities.RawArtifact) entities.StringSet {
	if artifact.Path == "" {
		return s.fallback.ExtractStrings(ctx, artifact)
	}

	n := strconv.Itoa(s.minLength)
	ascii, ok := s.run(ctx, "-a", "-n", n, artifact.Path)
	if !ok {
		return s.fallback.ExtractStrings(ctx, artifact)
	}
	unicode, ok := s.run(ctx, "-a", "-el", "-n", n, artifact.Path)
	if !ok {
		return s.fallback.ExtractStrings(ctx, artifact)
	}

	return entities.StringSet{ASCII: ascii, Unicode: unicode}
}

func (s *stringsTool) run(ctx context.Context, args ...string) ([]string, bool) {
	result := s.runner.Run(ctx, CommandConfig{
		Name:    s.toolPath,
		Args:    args,
		Timeout: stringsToolTimeout,
	})
	if !result.Success {
		s.logger.Warn("strings tool failed, using built-in extractor",
			interfaces.F("tool", s.toolPath),
			interfaces.F("exit_code", result.ExitCode),
			interfaces.F("error", errorString(result.Error)),
		)
		return nil, false
	}
	return splitLines(result.Stdout), true
}

func splitLines(out string) []string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}
	}
	return lines
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
