// Package peid parses PEiD userdb.txt packer signature databases.
//
// The format is a sequence of blocks:
//
//	[UPX 0.89.6 - 1.02 / 1.05 - 1.24 -> Markus & Laszlo]
//	signature = 60 BE ?? ?? ?? 00 8D BE ?? ?? ?? FF
//	ep_only = true
//
// Lines starting with ';' are comments.
package peid

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// Parser parses PEiD signature files
type Parser struct{}

// NewParser creates a new PEiD parser
func NewParser() *Parser {
	return &Parser{}
}

type block struct {
	name      string
	line      int
	signature string
	epOnly    bool
	hasSig    bool
}

// Parse returns signatures in file order. Any malformed entry fails the whole file.
func (p *Parser) Parse(data []byte) ([]entities.PackerSignature, error) {
	var (
		sigs    []entities.PackerSignature
		current *block
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		if !current.hasSig {
			return fmt.Errorf("line %d: entry %q has no signature", current.line, current.name)
		}
		sig, err := entities.NewPackerSignature(current.name, current.signature, current.epOnly)
		if err != nil {
			return fmt.Errorf("line %d: %w", current.line, err)
		}
		sigs = append(sigs, sig)
		current = nil
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") || len(line) < 3 {
				return nil, fmt.Errorf("line %d: malformed entry header %q", lineNo, line)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			current = &block{name: strings.TrimSpace(line[1 : len(line)-1]), line: lineNo}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key = value, got %q", lineNo, line)
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: %q outside of an entry", lineNo, line)
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "signature":
			current.signature = value
			current.hasSig = true
		case "ep_only":
			current.epOnly = strings.EqualFold(value, "true")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan signature file: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return sigs, nil
}
