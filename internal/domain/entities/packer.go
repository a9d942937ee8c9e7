package entities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PackerSignature is a named entry-point byte pattern with wildcard positions
type PackerSignature struct {
	Name           string
	Pattern        []byte
	Mask           []bool // Mask[i] == false marks a wildcard position
	EntryPointOnly bool
}

// NewPackerSignature parses a PEiD-style pattern such as "60 E8 ?? ?? 00 00".
// Tokens containing '?' are wildcards, including half-byte forms like "3?".
func NewPackerSignature(name, pattern string, entryPointOnly bool) (PackerSignature, error) {
	if strings.TrimSpace(name) == "" {
		return PackerSignature{}, fmt.Errorf("signature must have a name")
	}

	tokens := strings.Fields(pattern)
	if len(tokens) == 0 {
		return PackerSignature{}, fmt.Errorf("signature %q has an empty pattern", name)
	}

	sig := PackerSignature{
		Name:           name,
		Pattern:        make([]byte, len(tokens)),
		Mask:           make([]bool, len(tokens)),
		EntryPointOnly: entryPointOnly,
	}
	for i, tok := range tokens {
		if len(tok) != 2 {
			return PackerSignature{}, fmt.Errorf("signature %q: invalid token %q at position %d", name, tok, i)
		}
		if strings.ContainsRune(tok, '?') {
			continue
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return PackerSignature{}, fmt.Errorf("signature %q: invalid token %q at position %d", name, tok, i)
		}
		sig.Pattern[i] = byte(v)
		sig.Mask[i] = true
	}

	return sig, nil
}

// Len returns the pattern length in bytes
func (s PackerSignature) Len() int {
	return len(s.Pattern)
}

// MatchesPrefix reports whether window starts with the pattern
func (s PackerSignature) MatchesPrefix(window []byte) bool {
	if len(s.Pattern) == 0 || len(window) < len(s.Pattern) {
		return false
	}
	for i, b := range s.Pattern {
		if s.Mask[i] && window[i] != b {
			return false
		}
	}
	return true
}

// PatternString renders the pattern back in PEiD notation
func (s PackerSignature) PatternString() string {
	var sb strings.Builder
	for i, b := range s.Pattern {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if !s.Mask[i] {
			sb.WriteString("??")
			continue
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// SignatureDatabase is the immutable, process-wide set of packer signatures.
// Signatures are kept in priority order: longer patterns first, ties in load order.
type SignatureDatabase struct {
	source     string
	signatures []PackerSignature
}

// NewSignatureDatabase copies sigs into a new database ordered by priority
func NewSignatureDatabase(source string, sigs []PackerSignature) *SignatureDatabase {
	ordered := make([]PackerSignature, len(sigs))
	copy(ordered, sigs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Len() > ordered[j].Len()
	})

	return &SignatureDatabase{
		source:     source,
		signatures: ordered,
	}
}

// Source returns where the database was loaded from
func (d *SignatureDatabase) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Len returns the number of signatures
func (d *SignatureDatabase) Len() int {
	if d == nil {
		return 0
	}
	return len(d.signatures)
}

// Signatures returns a copy of the signatures in priority order
func (d *SignatureDatabase) Signatures() []PackerSignature {
	if d == nil {
		return nil
	}
	out := make([]PackerSignature, len(d.signatures))
	copy(out, d.signatures)
	return out
}

// MaxPatternLen returns the longest pattern length, the smallest useful entry window
func (d *SignatureDatabase) MaxPatternLen() int {
	if d == nil || len(d.signatures) == 0 {
		return 0
	}
	return d.signatures[0].Len()
}

// VerdictStatus is the tri-state outcome of packer detection
type VerdictStatus string

// Verdict states
const (
	VerdictMatched    VerdictStatus = "matched"
	VerdictNotMatched VerdictStatus = "not_matched"
	VerdictUnknown    VerdictStatus = "unknown"
)

// VerdictSource tells which detection path produced a verdict
type VerdictSource string

// Verdict sources
const (
	SourceSignature VerdictSource = "signature"
	SourceProbe     VerdictSource = "probe"
)

// PackerVerdict is the packing/obfuscation triage signal
type PackerVerdict struct {
	Status     VerdictStatus `json:"status" yaml:"status" msgpack:"status"`
	Matched    bool          `json:"matched" yaml:"matched" msgpack:"matched"`
	Name       string        `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"` // first signature or probe name
	Matches    []string      `json:"matches,omitempty" yaml:"matches,omitempty" msgpack:"matches,omitempty"`
	Confidence string        `json:"confidence" yaml:"confidence" msgpack:"confidence"`
	Source     VerdictSource `json:"source" yaml:"source" msgpack:"source"`
}

// ProbeResult is what the unpack probe reports for one file
type ProbeResult struct {
	Passed bool   // the packer's self-test succeeded
	Marker string // the textual marker that decided Passed, e.g. "[OK]"
	Output string
}
