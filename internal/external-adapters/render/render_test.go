package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/specimen/internal/domain/entities"
)

func sampleReport() *entities.AnalysisReport {
	return &entities.AnalysisReport{
		Identity: entities.FileIdentity{Name: "sample.exe", SizeBytes: 2048, TypeLabel: "PE32 executable (i386)"},
		Fingerprints: entities.FingerprintSet{
			SHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			CRC32:  "352441c2",
		},
		Strings: entities.StringSet{ASCII: []string{"KERNEL32.dll", "ExitProcess"}, Unicode: []string{}},
		Format: entities.NewPEFormat(&entities.PEMetadata{
			Machine:     0x14c,
			MachineName: "i386",
			Magic:       "PE32",
			EntryPoint:  0x1000,
			ImageBase:   0x400000,
			Sections: []entities.PESection{
				{Name: ".text", VirtualAddress: 0x1000, VirtualSize: 0x200},
			},
			Imports: map[string][]entities.PEImport{
				"KERNEL32.dll": {{Address: 0x402000, Name: "ExitProcess"}},
			},
			Exports:     []entities.PEExport{{Address: 0x401000, Name: "DoThing", Ordinal: 2}},
			EntryWindow: []byte{0x60, 0xE8},
		}),
		PackerVerdict: &entities.PackerVerdict{
			Status:     entities.VerdictMatched,
			Matched:    true,
			Name:       "UPX 0.89",
			Matches:    []string{"UPX 0.89"},
			Confidence: "entry-point signature match",
			Source:     entities.SourceSignature,
		},
		AnalyzedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:   time.Millisecond,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"msgpack", FormatMsgpack, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderer_ReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(FormatJSON, false, &buf).Report(sampleReport()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	format := decoded["format"].(map[string]any)
	if format["kind"] != "pe" {
		t.Errorf("format.kind = %v, want pe", format["kind"])
	}
	pe := format["pe"].(map[string]any)
	if pe["entry_point"] != "0x1000" || pe["image_base"] != "0x400000" {
		t.Errorf("hex fields = %v / %v", pe["entry_point"], pe["image_base"])
	}
	if _, ok := pe["EntryWindow"]; ok {
		t.Error("entry window must not be serialized")
	}
	verdict := decoded["packer_verdict"].(map[string]any)
	if verdict["status"] != "matched" || verdict["name"] != "UPX 0.89" {
		t.Errorf("packer_verdict = %v", verdict)
	}
}

func TestRenderer_ReportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(FormatYAML, false, &buf).Report(sampleReport()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	identity := decoded["identity"].(map[string]any)
	if identity["name"] != "sample.exe" {
		t.Errorf("identity.name = %v", identity["name"])
	}
	if !strings.Contains(buf.String(), "entry_point: \"0x1000\"") && !strings.Contains(buf.String(), "entry_point: 0x1000") {
		t.Errorf("YAML output missing hex entry point:\n%s", buf.String())
	}
}

func TestRenderer_ReportMsgpack(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(FormatMsgpack, false, &buf).Report(sampleReport()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	var decoded map[string]any
	if err := msgpack.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid msgpack: %v", err)
	}
	fingerprints, ok := decoded["fingerprints"].(map[string]any)
	if !ok {
		t.Fatalf("fingerprints = %T", decoded["fingerprints"])
	}
	if fingerprints["crc32"] != "352441c2" {
		t.Errorf("fingerprints.crc32 = %v", fingerprints["crc32"])
	}
}

func TestRenderer_ReportTable(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(FormatTable, true, &buf).Report(sampleReport()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{
		"sample.exe",
		"PE32 executable (i386)",
		"2048 bytes",
		"352441c2",
		"matched",
		"UPX 0.89",
		".text",
		"KERNEL32.dll",
		"DoThing",
		"ExitProcess",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("no-color table output contains ANSI escapes")
	}
}

func TestRenderer_ReportTableWithoutVerdict(t *testing.T) {
	report := sampleReport()
	report.PackerVerdict = nil
	report.Format = entities.NewParseFailedFormat(entities.FormatPE,
		entities.NewParseError(entities.CorruptDirectory, 0x80, "invalid PE signature"))

	var buf bytes.Buffer
	if err := NewRenderer(FormatTable, true, &buf).Report(report); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "not applicable") || !strings.Contains(got, "corrupt_directory") {
		t.Errorf("unexpected table output:\n%s", got)
	}
}

func TestRenderer_Reports(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, false, &buf)
	if err := r.Reports([]*entities.AnalysisReport{sampleReport(), sampleReport()}); err != nil {
		t.Fatalf("Reports() error = %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("len = %d, want 2", len(decoded))
	}

	buf.Reset()
	if err := NewRenderer(FormatTable, true, &buf).Reports(nil); err != nil {
		t.Fatalf("Reports(nil) error = %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty table output = %q", buf.String())
	}
}

func TestRenderer_Signatures(t *testing.T) {
	short, err := entities.NewPackerSignature("Short", "60 E8", true)
	if err != nil {
		t.Fatal(err)
	}
	long, err := entities.NewPackerSignature("Long", "60 E8 ?? 00", false)
	if err != nil {
		t.Fatal(err)
	}
	db := entities.NewSignatureDatabase("userdb.txt", []entities.PackerSignature{short, long})

	var buf bytes.Buffer
	if err := NewRenderer(FormatJSON, false, &buf).Signatures(db); err != nil {
		t.Fatalf("Signatures() error = %v", err)
	}
	var rows []signatureRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Long" || rows[0].Pattern != "60 E8 ?? 00" || rows[0].EntryPointOnly {
		t.Errorf("rows = %+v", rows)
	}

	buf.Reset()
	if err := NewRenderer(FormatTable, true, &buf).Signatures(db); err != nil {
		t.Fatalf("Signatures() error = %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "2 signatures") || !strings.Contains(got, "60 E8 ?? 00") {
		t.Errorf("table output:\n%s", got)
	}
}

func TestRenderer_Similarity(t *testing.T) {
	result := &entities.SimilarityResult{Left: "a.bin", Right: "b.bin", Score: -1}

	var buf bytes.Buffer
	if err := NewRenderer(FormatTable, true, &buf).Similarity(result); err != nil {
		t.Fatalf("Similarity() error = %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "n/a") || !strings.Contains(got, "a.bin") {
		t.Errorf("table output:\n%s", got)
	}

	buf.Reset()
	result.Score = 88
	if err := NewRenderer(FormatJSON, false, &buf).Similarity(result); err != nil {
		t.Fatalf("Similarity() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"score": 88`) {
		t.Errorf("JSON output: %s", buf.String())
	}
}

func TestRenderer_Value(t *testing.T) {
	doc := map[string]string{"version": "1.2.3"}

	var jsonOut bytes.Buffer
	if err := NewRenderer(FormatJSON, true, &jsonOut).Value(doc); err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if !strings.Contains(jsonOut.String(), `"version": "1.2.3"`) {
		t.Errorf("json output = %q", jsonOut.String())
	}

	var tableOut bytes.Buffer
	if err := NewRenderer(FormatTable, true, &tableOut).Value(doc); err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if got := tableOut.String(); got != "version: 1.2.3\n" {
		t.Errorf("table output = %q, want yaml", got)
	}
}
