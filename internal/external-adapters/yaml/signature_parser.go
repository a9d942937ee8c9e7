package yaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// yamlSignatureFile is the YAML form of a packer signature database:
//
//	signatures:
//	  - name: UPX 0.89
//	    pattern: "60 BE ?? ?? ?? 00 8D BE"
//	    ep_only: true
type yamlSignatureFile struct {
	Signatures []yamlSignature `yaml:"signatures"`
}

type yamlSignature struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	EPOnly  *bool  `yaml:"ep_only"`
}

// SignatureParser parses YAML signature databases
type SignatureParser struct{}

// NewSignatureParser creates a new YAML signature parser
func NewSignatureParser() *SignatureParser {
	return &SignatureParser{}
}

// Parse parses YAML bytes into signatures in file order. ep_only defaults to true.
func (p *SignatureParser) Parse(data []byte) ([]entities.PackerSignature, error) {
	var file yamlSignatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sigs := make([]entities.PackerSignature, 0, len(file.Signatures))
	for i, ys := range file.Signatures {
		epOnly := true
		if ys.EPOnly != nil {
			epOnly = *ys.EPOnly
		}
		sig, err := entities.NewPackerSignature(ys.Name, ys.Pattern, epOnly)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		sigs = append(sigs, sig)
	}

	return sigs, nil
}
