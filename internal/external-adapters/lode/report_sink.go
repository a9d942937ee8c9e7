// Package lode persists analysis reports as JSONL records in a lode dataset,
// on the local filesystem or in S3.
package lode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"

	"github.com/ochairo/specimen/internal/domain/entities"
)

const (
	recordKindReport = "analysis_report"
	dayLayout        = "2006-01-02"
)

// S3Config holds configuration for the S3 storage backend
type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible providers (MinIO, R2)
	Endpoint     string
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ReportSink writes one JSONL record per report, partitioned by day and format
type ReportSink struct {
	dataset lode.Dataset
	mu      sync.Mutex
	written int
}

// NewReportSinkFS creates a sink rooted at a local directory
func NewReportSinkFS(dataset, root string) (*ReportSink, error) {
	if root == "" {
		return nil, errors.New("sink path is required for the fs backend")
	}
	return NewReportSinkWithFactory(dataset, lode.NewFSFactory(root))
}

// NewReportSinkS3 creates a sink backed by S3.
// Credentials come from the AWS SDK default chain (env vars, shared config, IAM role).
func NewReportSinkS3(ctx context.Context, dataset string, s3cfg S3Config) (*ReportSink, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	factory := func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}
	return NewReportSinkWithFactory(dataset, factory)
}

// NewReportSinkWithFactory creates a sink over any lode store; tests use lode.NewMemory
func NewReportSinkWithFactory(dataset string, factory lode.StoreFactory) (*ReportSink, error) {
	ds, err := NewReportDataset(dataset, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create report dataset: %w", err)
	}
	return &ReportSink{dataset: ds}, nil
}

// NewReportDataset opens the report dataset with the layout and codec the sink writes
func NewReportDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = entities.DefaultSinkDataset
	}
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout("day", "format_kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// WriteReport stores the report as a single-record snapshot. Safe for concurrent use.
func (s *ReportSink) WriteReport(ctx context.Context, report *entities.AnalysisReport) error {
	record, err := toReportRecord(report)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return fmt.Errorf("failed to write report %s: %w", report.Identity.Name, err)
	}
	s.written++
	return nil
}

// Written returns how many reports were stored
func (s *ReportSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close releases sink resources
func (s *ReportSink) Close() error {
	return nil
}

// toReportRecord flattens the report into the map form the JSONL codec and Hive layout expect
func toReportRecord(report *entities.AnalysisReport) (map[string]any, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	record := make(map[string]any)
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	record["record_kind"] = recordKindReport
	record["day"] = report.AnalyzedAt.UTC().Format(dayLayout)
	record["format_kind"] = string(report.Format.Kind)
	record["sha256"] = report.Fingerprints.SHA256
	return record, nil
}
