// Package render writes analysis reports, signature listings and comparisons
// as json, yaml, msgpack or a styled table.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// Format represents an output format
type Format string

// Supported formats
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
	FormatTable   Format = "table"
)

// ParseFormat parses a format string; the empty string selects json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack":
		return FormatMsgpack, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, yaml, msgpack, or table)", s)
	}
}

// Renderer handles output formatting
type Renderer struct {
	format  Format
	out     io.Writer
	palette palette
}

// NewRenderer creates a renderer. noColor only affects the table format.
func NewRenderer(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		out:     out,
		palette: newPalette(noColor),
	}
}

// Format returns the configured format
func (r *Renderer) Format() Format {
	return r.format
}

// Report renders a single analysis report
func (r *Renderer) Report(report *entities.AnalysisReport) error {
	if r.format == FormatTable {
		return r.reportTable(report)
	}
	return r.encode(report)
}

// Reports renders the reports of a batch run as one document
func (r *Renderer) Reports(reports []*entities.AnalysisReport) error {
	if r.format != FormatTable {
		return r.encode(reports)
	}
	if len(reports) == 0 {
		_, err := fmt.Fprintln(r.out, "(no results)")
		return err
	}
	for i, report := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(r.out); err != nil {
				return err
			}
		}
		if err := r.reportTable(report); err != nil {
			return err
		}
	}
	return nil
}

// signatureRow is the listing form of one signature
type signatureRow struct {
	Name           string `json:"name" yaml:"name" msgpack:"name"`
	Pattern        string `json:"pattern" yaml:"pattern" msgpack:"pattern"`
	Length         int    `json:"length" yaml:"length" msgpack:"length"`
	EntryPointOnly bool   `json:"ep_only" yaml:"ep_only" msgpack:"ep_only"`
}

// Signatures renders the database in priority order
func (r *Renderer) Signatures(db *entities.SignatureDatabase) error {
	sigs := db.Signatures()
	rows := make([]signatureRow, 0, len(sigs))
	for _, s := range sigs {
		rows = append(rows, signatureRow{
			Name:           s.Name,
			Pattern:        s.PatternString(),
			Length:         s.Len(),
			EntryPointOnly: s.EntryPointOnly,
		})
	}

	if r.format == FormatTable {
		return r.signatureTable(db.Source(), rows)
	}
	return r.encode(rows)
}

// Similarity renders a fuzzy-hash comparison
func (r *Renderer) Similarity(result *entities.SimilarityResult) error {
	if r.format == FormatTable {
		return r.similarityTable(result)
	}
	return r.encode(result)
}

// Value renders a small document such as version information.
// The table format prints it as yaml.
func (r *Renderer) Value(data any) error {
	if r.format == FormatTable {
		return (&Renderer{format: FormatYAML, out: r.out}).encode(data)
	}
	return r.encode(data)
}

func (r *Renderer) encode(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(r.out).Encode(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}
