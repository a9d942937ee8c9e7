package lode

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/ochairo/specimen/internal/domain/entities"
)

func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func testReport(name string, kind entities.FormatKind) *entities.AnalysisReport {
	format := entities.NewUnknownFormat()
	if kind == entities.FormatELF {
		format = entities.NewELFFormat(&entities.ELFMetadata{Class: "ELF64", EntryPoint: 0x400100})
	}
	return &entities.AnalysisReport{
		Identity:     entities.FileIdentity{Name: name, SizeBytes: 16, TypeLabel: "data"},
		Fingerprints: entities.FingerprintSet{SHA256: strings.Repeat("a", 64), CRC32: "0"},
		Strings:      entities.StringSet{ASCII: []string{}, Unicode: []string{}},
		Format:       format,
		AnalyzedAt:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
}

func TestReportSink_WriteAndRead(t *testing.T) {
	store := lode.NewMemory()
	factory := sharedFactory(store)

	sink, err := NewReportSinkWithFactory("specimen", factory)
	if err != nil {
		t.Fatalf("NewReportSinkWithFactory() error = %v", err)
	}

	if err := sink.WriteReport(t.Context(), testReport("a.elf", entities.FormatELF)); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if sink.Written() != 1 {
		t.Errorf("Written() = %d, want 1", sink.Written())
	}

	ds, err := NewReportDataset("specimen", factory)
	if err != nil {
		t.Fatalf("NewReportDataset() error = %v", err)
	}
	latest, err := ds.Latest(t.Context())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	data, err := ds.Read(t.Context(), latest.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("Read() returned %d records, want 1", len(data))
	}

	record, ok := data[0].(map[string]any)
	if !ok {
		t.Fatalf("record type = %T, want map[string]any", data[0])
	}
	checks := map[string]any{
		"record_kind": "analysis_report",
		"day":         "2026-03-14",
		"format_kind": "elf",
		"sha256":      strings.Repeat("a", 64),
	}
	for k, want := range checks {
		if record[k] != want {
			t.Errorf("record[%q] = %v, want %v", k, record[k], want)
		}
	}
	identity, ok := record["identity"].(map[string]any)
	if !ok || identity["name"] != "a.elf" {
		t.Errorf("record identity = %v", record["identity"])
	}

	for _, f := range latest.Manifest.Files {
		if !strings.Contains(f.Path, "day=2026-03-14") || !strings.Contains(f.Path, "format_kind=elf") {
			t.Errorf("file path %q is not partitioned by day and format_kind", f.Path)
		}
	}
}

func TestReportSink_ConcurrentWrites(t *testing.T) {
	sink, err := NewReportSinkWithFactory("specimen", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewReportSinkWithFactory() error = %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- sink.WriteReport(context.Background(), testReport("x.bin", entities.FormatUnknown))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("WriteReport() error = %v", err)
		}
	}
	if sink.Written() != n {
		t.Errorf("Written() = %d, want %d", sink.Written(), n)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewReportSinkFS(t *testing.T) {
	sink, err := NewReportSinkFS("specimen", t.TempDir())
	if err != nil {
		t.Fatalf("NewReportSinkFS() error = %v", err)
	}
	if err := sink.WriteReport(t.Context(), testReport("a.bin", entities.FormatUnknown)); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	if _, err := NewReportSinkFS("specimen", ""); err == nil {
		t.Error("NewReportSinkFS() with empty root should fail")
	}
}

func TestS3Config_Validate(t *testing.T) {
	if err := (&S3Config{}).Validate(); err == nil {
		t.Error("Validate() without bucket should fail")
	}
	if err := (&S3Config{Bucket: "reports"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if _, err := NewReportSinkS3(context.Background(), "specimen", S3Config{}); err == nil {
		t.Error("NewReportSinkS3() without bucket should fail")
	}
}
