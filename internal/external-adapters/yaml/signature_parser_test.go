package yaml

import (
	"strings"
	"testing"
)

const sampleSignatures = `
signatures:
  - name: UPX 0.89.6 - 1.02
    pattern: "60 BE ?? ?? ?? 00 8D BE ?? ?? ?? FF"
  - name: ASPack 2.12
    pattern: "60 E8 03 00 00 00 E9 EB 04 5D 45 55 C3 E8 01"
    ep_only: true
  - name: Overlay marker
    pattern: "DE AD BE EF"
    ep_only: false
`

func TestSignatureParser_Parse(t *testing.T) {
	sigs, err := NewSignatureParser().Parse([]byte(sampleSignatures))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(sigs) != 3 {
		t.Fatalf("len(sigs) = %d, want 3", len(sigs))
	}

	if sigs[0].Name != "UPX 0.89.6 - 1.02" || sigs[0].Len() != 12 || !sigs[0].EntryPointOnly {
		t.Errorf("sigs[0] = %+v", sigs[0])
	}
	if sigs[0].Mask[2] {
		t.Error("sigs[0] position 2 should be a wildcard")
	}
	if sigs[1].Len() != 15 || !sigs[1].EntryPointOnly {
		t.Errorf("sigs[1] = %+v", sigs[1])
	}
	if sigs[2].EntryPointOnly {
		t.Error("sigs[2] ep_only: false was not honoured")
	}
}

func TestSignatureParser_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"invalid yaml", "signatures: [", "failed to parse YAML"},
		{"missing name", "signatures:\n  - pattern: \"60\"\n", "signature 0"},
		{"bad token", "signatures:\n  - name: a\n    pattern: \"60\"\n  - name: b\n    pattern: \"6G\"\n", "signature 1"},
		{"empty pattern", "signatures:\n  - name: a\n    pattern: \"\"\n", "empty pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSignatureParser().Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSignatureParser_ParseEmpty(t *testing.T) {
	sigs, err := NewSignatureParser().Parse([]byte("signatures: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(sigs) != 0 {
		t.Errorf("len(sigs) = %d, want 0", len(sigs))
	}
}

func FuzzSignatureParser(f *testing.F) {
	f.Add([]byte(sampleSignatures))
	f.Add([]byte("signatures:\n  - name: x\n    pattern: \"?? ??\"\n"))
	f.Add([]byte("{}"))

	f.Fuzz(func(t *testing.T, data []byte) {
		sigs, err := NewSignatureParser().Parse(data)
		if err != nil {
			return
		}
		for _, s := range sigs {
			if s.Len() == 0 || len(s.Mask) != s.Len() {
				t.Fatalf("accepted malformed signature %+v", s)
			}
		}
	})
}
