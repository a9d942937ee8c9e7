package services

import (
	"context"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces/services"
)

// stringExtractor finds printable ASCII and UTF-16LE runs in a buffer
type stringExtractor struct {
	minLength int
}

// NewStringExtractor creates a built-in extractor emitting runs of at least minLength characters
func NewStringExtractor(minLength int) services.StringExtractor {
	return newStringExtractor(minLength)
}

func newStringExtractor(minLength int) *stringExtractor {
	if minLength <= 0 {
		minLength = entities.DefaultMinStringLength
	}
	return &stringExtractor{minLength: minLength}
}

// ExtractStrings runs both passes over the artifact bytes
func (e *stringExtractor) ExtractStrings(_ context.Context, artifact *entities.RawArtifact) entities.StringSet {
	return e.Extract(artifact.Bytes())
}

// Extract returns ASCII and wide strings in byte offset order
func (e *stringExtractor) Extract(data []byte) entities.StringSet {
	return entities.StringSet{
		ASCII:   e.asciiRuns(data),
		Unicode: e.wideRuns(data),
	}
}

func isPrintable(b byte) bool {
	return (b >= 0x20 && b <= 0x7e) || b == '\t'
}

func (e *stringExtractor) asciiRuns(data []byte) []string {
	out := []string{}
	start := -1
	for i, b := range data {
		if isPrintable(b) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= e.minLength {
			out = append(out, string(data[start:i]))
		}
		start = -1
	}
	if start >= 0 && len(data)-start >= e.minLength {
		out = append(out, string(data[start:]))
	}
	return out
}

// wideRuns decodes runs of printable code units, each a printable byte followed by 0x00
func (e *stringExtractor) wideRuns(data []byte) []string {
	out := []string{}
	run := make([]byte, 0, 64)
	flush := func() {
		if len(run) >= e.minLength {
			out = append(out, string(run))
		}
		run = run[:0]
	}

	for i := 0; i < len(data); {
		if i+1 < len(data) && isPrintable(data[i]) && data[i+1] == 0 {
			run = append(run, data[i])
			i += 2
			continue
		}
		flush()
		i++
	}
	flush()
	return out
}
