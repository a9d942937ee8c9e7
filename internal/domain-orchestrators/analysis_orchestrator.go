package orchestrators

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ochairo/specimen/internal/domain/entities"
	"github.com/ochairo/specimen/internal/domain/interfaces"
	"github.com/ochairo/specimen/internal/domain/interfaces/gateways"
	"github.com/ochairo/specimen/internal/domain/interfaces/services"
)

// AnalysisOrchestrator coordinates reading artifacts, analyzing them and persisting the reports
type AnalysisOrchestrator struct {
	analysisService services.AnalysisService
	sink            gateways.ReportSink
	logger          interfaces.Logger
	parallel        int
}

// NewAnalysisOrchestrator creates a new analysis orchestrator.
// sink may be nil when reports are only rendered.
func NewAnalysisOrchestrator(
	analysisService services.AnalysisService,
	sink gateways.ReportSink,
	logger interfaces.Logger,
	parallel int,
) *AnalysisOrchestrator {
	if parallel <= 0 {
		parallel = entities.DefaultBatchParallel
	}
	return &AnalysisOrchestrator{
		analysisService: analysisService,
		sink:            sink,
		logger:          logger,
		parallel:        parallel,
	}
}

// FileResult is the outcome for one file of a batch
type FileResult struct {
	Path   string
	Report *entities.AnalysisReport // nil when the file could not be read
	Err    error
}

// BatchResult contains the results of a directory analysis in sorted path order
type BatchResult struct {
	Root      string
	Results   []FileResult
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Reports returns the reports that were produced, in path order
func (b *BatchResult) Reports() []*entities.AnalysisReport {
	reports := make([]*entities.AnalysisReport, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Report != nil {
			reports = append(reports, r.Report)
		}
	}
	return reports
}

// AnalyzeFile reads one file and analyzes it. Read failures wrap entities.ErrIOFailure;
// sink failures wrap entities.ErrSinkFailure and still return the report.
func (o *AnalysisOrchestrator) AnalyzeFile(ctx context.Context, path string) (*entities.AnalysisReport, error) {
	//nolint:gosec // G304: path is the artifact the operator asked to analyze
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrIOFailure, err)
	}

	return o.AnalyzeBytes(ctx, filepath.Base(path), path, data)
}

// AnalyzeBytes analyzes an in-memory artifact. path may be empty, in which case
// path-based collaborators (unpack probe, strings tool) are skipped.
func (o *AnalysisOrchestrator) AnalyzeBytes(ctx context.Context, name, path string, data []byte) (*entities.AnalysisReport, error) {
	report := o.analysisService.Analyze(ctx, entities.NewRawArtifact(name, path, data))

	if o.sink != nil {
		if err := o.sink.WriteReport(ctx, report); err != nil {
			o.logger.Error("Failed to persist report",
				interfaces.F("artifact", name),
				interfaces.F("error", err.Error()),
			)
			return report, fmt.Errorf("%w: %w", entities.ErrSinkFailure, err)
		}
		o.logger.Debug("Report persisted", interfaces.F("artifact", name))
	}

	return report, nil
}

// AnalyzeDirectory analyzes every regular file under root with bounded parallelism.
// Per-file and unreadable-directory failures are recorded in the result; only an unusable root returns an error.
func (o *AnalysisOrchestrator) AnalyzeDirectory(ctx context.Context, root string) (*BatchResult, error) {
	startTime := time.Now()

	paths, unreadable, err := collectFiles(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrIOFailure, err)
	}

	o.logger.Info("Batch analysis started",
		interfaces.F("root", root),
		interfaces.F("files", len(paths)),
		interfaces.F("parallel", o.parallel),
	)

	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, o.parallel)
	var wg sync.WaitGroup

	for i, path := range paths {
		results[i].Path = path

		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := o.AnalyzeFile(ctx, path)
			results[i].Report = report
			results[i].Err = err
		}(i, path)
	}
	wg.Wait()

	if len(unreadable) > 0 {
		results = append(results, unreadable...)
		sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	}

	batch := &BatchResult{
		Root:     root,
		Results:  results,
		Duration: time.Since(startTime),
	}
	for _, r := range results {
		if r.Err != nil {
			batch.Failed++
			o.logger.Warn("File analysis failed",
				interfaces.F("path", r.Path),
				interfaces.F("error", r.Err.Error()),
			)
			continue
		}
		batch.Succeeded++
	}

	o.logger.Info("Batch analysis complete",
		interfaces.F("root", root),
		interfaces.F("succeeded", batch.Succeeded),
		interfaces.F("failed", batch.Failed),
		interfaces.F("duration", batch.Duration.String()),
	)
	return batch, nil
}

// collectFiles returns the regular files under root in sorted order; symlinks are not followed.
// Directories that cannot be read are skipped and returned as failed results.
func collectFiles(root string) ([]string, []FileResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", root)
	}

	return walkFiles(os.DirFS(root), root)
}

// walkFiles walks fsys and reports regular files and failures as paths under root
func walkFiles(fsys fs.FS, root string) ([]string, []FileResult, error) {
	var (
		paths      []string
		unreadable []FileResult
	)
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err != nil {
			if name == "." {
				return err
			}
			unreadable = append(unreadable, FileResult{
				Path: path,
				Err:  fmt.Errorf("%w: %w", entities.ErrIOFailure, err),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(paths)
	return paths, unreadable, nil
}
