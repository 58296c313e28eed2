// Package service provides the intake service that watches the input
// directory and drives raw provider files through the normalization
// pipeline.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/okian/intake/internal/pipeline"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultInputDir     = "./input"
	defaultOutputDir    = "./normalized"

	dirPerm  = 0o750
	filePerm = 0o600

	// Output files are named normalize_<input file name>.n, a contract
	// consumed by downstream readers.
	outputPrefix = "normalize_"
	outputSuffix = ".n"
)

// Service sweeps the input directory and normalizes each discovered
// file with the pipeline, one file at a time.
type Service struct {
	mu sync.Mutex

	// Configuration
	inputDir     string
	outputDir    string
	pollInterval time.Duration
	watch        bool

	// State
	started bool
	stopCh  chan struct{}
	watcher *fsnotify.Watcher

	filesProcessed atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInputDir sets the directory swept for raw provider files.
func WithInputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.inputDir = dir
		}
	}
}

// WithOutputDir sets the directory receiving normalized output.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithPollInterval sets the input directory sweep interval.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithWatch enables or disables filesystem notifications for the
// input directory.
func WithWatch(watch bool) Option {
	return func(s *Service) {
		s.watch = watch
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		inputDir:     defaultInputDir,
		outputDir:    defaultOutputDir,
		pollInterval: defaultPollInterval,
		watch:        true,
		stopCh:       make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the working directories and launches the sweep loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if err := os.MkdirAll(s.inputDir, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrStartService, err)
	}
	if err := os.MkdirAll(s.outputDir, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrStartService, err)
	}

	if s.watch {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(s.inputDir)
		}
		if err != nil {
			s.logger.Warn(ctx, "file watcher unavailable, relying on polling only", logger.Error(err))
		} else {
			s.watcher = w
		}
	}

	go s.run(ctx)

	s.started = true
	s.logger.Info(ctx, "intake service started",
		logger.String("inputDir", s.inputDir),
		logger.String("outputDir", s.outputDir),
		logger.Any("pollInterval", s.pollInterval),
	)
	return nil
}

// Stop shuts down the sweep loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "intake service stopped")
}

// run sweeps the input directory on every tick and on every create
// notification until the context is done or Stop is called.
func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if s.watcher != nil {
		events = s.watcher.Events
		watchErrs = s.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			metrics.RecordPollCycle()
			s.Sweep(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				s.Sweep(ctx)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Warn(ctx, "file watcher error", logger.Error(err))
		}
	}
}

// Sweep processes every regular file currently in the input directory.
// Files that fail stay in place and are retried on the next sweep.
func (s *Service) Sweep(ctx context.Context) {
	entries, err := os.ReadDir(s.inputDir)
	if err != nil {
		s.logger.Error(ctx, "failed to read input directory",
			logger.String("dir", s.inputDir),
			logger.Error(err),
		)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.inputDir, entry.Name())
		if err := s.ProcessFile(ctx, path); err != nil {
			s.logger.Error(ctx, "failed to process input file",
				logger.String("file", path),
				logger.Error(err),
			)
		}
	}
}

// ProcessFile runs a single input file through the pipeline: the file
// extension selects the provider, the normalized records are written to
// the output directory, and the input file is removed. A failed file is
// left in place.
func (s *Service) ProcessFile(ctx context.Context, path string) error {
	batchID := uuid.New().String()
	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	prov, serr := pipeline.Select(ext)
	if serr != nil {
		metrics.RecordUnknownProvider()
		return serr
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path comes from the swept input directory
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	start := time.Now()
	res, perr := pipeline.Run(ctx, string(raw), prov)
	if perr != nil {
		metrics.RecordParseFailure(prov.Name())
		return perr
	}

	out, err := json.Marshal(res.Records)
	if err != nil {
		return fmt.Errorf("encode normalized records: %w", err)
	}

	outPath := filepath.Join(s.outputDir, outputPrefix+filepath.Base(path)+outputSuffix)
	if err := os.WriteFile(outPath, out, filePerm); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	if res.Validation.IsError() {
		metrics.RecordRowsRejected(prov.Name(), len(res.Validation.Errs))
		s.logger.Warn(ctx, "rows failed validation and were excluded",
			logger.String("file", path),
			logger.String("batchId", batchID),
			logger.String("provider", prov.Name()),
			logger.Int("rows", len(res.Validation.Errs)),
			logger.Error(res.Validation),
		)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove input file: %w", err)
	}

	metrics.RecordFileProcessed(prov.Name())
	metrics.RecordRecordsEmitted(prov.Name(), len(res.Records))
	metrics.RecordBatchDuration(float64(time.Since(start).Nanoseconds()) / 1e6)
	s.filesProcessed.Add(1)

	s.logger.Info(ctx, "normalized input file",
		logger.String("file", path),
		logger.String("output", outPath),
		logger.String("batchId", batchID),
		logger.String("provider", prov.Name()),
		logger.Int("records", len(res.Records)),
	)
	return nil
}

// Backlog returns the number of files currently waiting in the input
// directory.
func (s *Service) Backlog(ctx context.Context) int {
	entries, err := os.ReadDir(s.inputDir)
	if err != nil {
		s.logger.Debug(ctx, "failed to measure input backlog", logger.Error(err))
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

// FilesProcessed returns the number of files normalized since start.
func (s *Service) FilesProcessed() int64 {
	return s.filesProcessed.Load()
}
