// Package converting is the folder conversion pipeline: it walks a
// directory of images, skips files whose output already exists, dispatches
// the rest to a reading backend under a concurrency cap, and writes each
// result to the output directory. A failed file never aborts its siblings.
package converting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/papyrusai/papyrus/internal/image"
	"github.com/papyrusai/papyrus/internal/prompt"
	"github.com/papyrusai/papyrus/internal/reading"
	"github.com/papyrusai/papyrus/internal/writing"
	"github.com/papyrusai/papyrus/pkg/logger"
)

// Task is one unit of work: convert Source, write the text to Output. It
// is created during planning and never mutated.
type Task struct {
	Source string
	Output string
}

// Failure records one task's error, attributable to its input file.
type Failure struct {
	Source string
	Err    error
}

// Report summarizes one folder run.
type Report struct {
	RunID     string
	Total     int
	Converted int
	Skipped   int
	Failures  []Failure
}

// Err merges all task failures into one error, nil when every task
// succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
	}
	return multierr.Combine(errs...)
}

// Progress is delivered to the progress callback as each task completes,
// in completion order (not submission order when concurrent).
type Progress struct {
	Done   int
	Total  int
	Source string
	Err    error
}

// Options control a folder run.
type Options struct {
	// MaxConcurrency bounds in-flight conversions; 0 means unlimited.
	MaxConcurrency int
	// RatePerSecond throttles dispatch of network-bound work; 0 disables.
	RatePerSecond float64
	RateBurst     int
	// HEICTarget is the conversion target for HEIC/HEIF inputs. It is
	// validated before any work starts. The reader factory must be
	// configured with the same value.
	HEICTarget string
	// OnProgress, when set, is called once per completed task.
	OnProgress func(Progress)
	// Mirror, when set, builds an extra writer per output filename that
	// receives every successful result (e.g. a bucket upload).
	Mirror func(outputName string) writing.Writer
}

// Option mutates Options.
type Option func(*Options)

// WithMaxConcurrency bounds the number of in-flight conversions.
func WithMaxConcurrency(n int) Option {
	return func(o *Options) { o.MaxConcurrency = n }
}

// WithRateLimit throttles conversions to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.RatePerSecond = rps
		o.RateBurst = burst
	}
}

// WithHEICTarget sets the HEIC/HEIF conversion target.
func WithHEICTarget(format string) Option {
	return func(o *Options) { o.HEICTarget = format }
}

// WithProgress registers a per-completion callback.
func WithProgress(fn func(Progress)) Option {
	return func(o *Options) { o.OnProgress = fn }
}

// WithMirror registers an extra writer for successful results.
func WithMirror(mirror func(outputName string) writing.Writer) Option {
	return func(o *Options) { o.Mirror = mirror }
}

func buildOptions(opts []Option) Options {
	o := Options{
		HEICTarget: "png",
		RateBurst:  1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OutputName derives the destination filename for an input filename.
func OutputName(inputName string) string {
	stem := strings.TrimSuffix(inputName, filepath.Ext(inputName))
	return "output_" + stem + ".txt"
}

// planTasks enumerates the input directory in sorted order and returns the
// tasks whose outputs do not already exist. The output snapshot is read
// once; derived names are reserved here, at filtering time, so two inputs
// sharing a stem yield exactly one task even when run concurrently.
func planTasks(inputDir, outputDir string) (tasks []Task, skipped int, err error) {
	outEntries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("list output folder %q: %w", outputDir, err)
	}
	existing := make(map[string]bool, len(outEntries))
	for _, e := range outEntries {
		existing[e.Name()] = true
	}

	inEntries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("list input folder %q: %w", inputDir, err)
	}
	sort.Slice(inEntries, func(i, j int) bool { return inEntries[i].Name() < inEntries[j].Name() })

	for _, e := range inEntries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !image.SupportedExtension(name) {
			continue
		}
		outputName := OutputName(name)
		if existing[outputName] {
			skipped++
			continue
		}
		// reserve the derived name immediately
		existing[outputName] = true
		tasks = append(tasks, Task{
			Source: filepath.Join(inputDir, name),
			Output: filepath.Join(outputDir, outputName),
		})
	}
	return tasks, skipped, nil
}

// ConvertFolder converts every eligible image in inputDir concurrently,
// writing one output_<stem>.txt per input into outputDir. Per-task
// failures are collected into the report; only setup problems (bad target
// format, unreadable directories) return a non-nil error.
func ConvertFolder(
	ctx context.Context,
	log logger.Logger,
	factory reading.Factory,
	promptable prompt.Promptable,
	inputDir, outputDir string,
	opts ...Option,
) (*Report, error) {
	o := buildOptions(opts)
	run, tasks, err := prepare(log, promptable, inputDir, outputDir, o)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return run.report, nil
	}

	var sem *semaphore.Weighted
	if o.MaxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(o.MaxConcurrency))
	}
	var limiter *rate.Limiter
	if o.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.RatePerSecond), o.RateBurst)
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					run.finish(task, err)
					return
				}
				defer sem.Release(1)
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					run.finish(task, err)
					return
				}
			}

			run.finish(task, convertOne(ctx, factory, run.promptText, task, o))
		}(task)
	}
	wg.Wait()

	run.summarize()
	return run.report, nil
}

// ConvertFolderSequential performs the same filter, convert and write
// steps one file at a time, with no goroutines. Use it when a backend is
// not safe for concurrent use or when strict run order matters.
func ConvertFolderSequential(
	ctx context.Context,
	log logger.Logger,
	factory reading.Factory,
	promptable prompt.Promptable,
	inputDir, outputDir string,
	opts ...Option,
) (*Report, error) {
	o := buildOptions(opts)
	run, tasks, err := prepare(log, promptable, inputDir, outputDir, o)
	if err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			run.finish(task, err)
			continue
		}
		run.finish(task, convertOne(ctx, factory, run.promptText, task, o))
	}

	run.summarize()
	return run.report, nil
}

// convertOne runs a single task end to end: construct a reader for the
// image (which normalizes it), read, write. Any error fails only this
// task.
func convertOne(ctx context.Context, factory reading.Factory, promptText string, task Task, o Options) error {
	reader, err := factory(promptText, task.Source)
	if err != nil {
		return err
	}

	text, err := reader.Read(ctx)
	if err != nil {
		return err
	}

	if err := writing.NewFileWriter(task.Output).Write(ctx, text); err != nil {
		return err
	}

	if o.Mirror != nil {
		if err := o.Mirror(filepath.Base(task.Output)).Write(ctx, text); err != nil {
			return fmt.Errorf("mirror %s: %w", filepath.Base(task.Output), err)
		}
	}
	return nil
}

// runState carries the shared mutable pieces of one folder run.
type runState struct {
	log        logger.Logger
	promptText string
	report     *Report
	onProgress func(Progress)

	mu   sync.Mutex
	done int
}

func prepare(log logger.Logger, promptable prompt.Promptable, inputDir, outputDir string, o Options) (*runState, []Task, error) {
	if err := image.ValidateTargetFormat(o.HEICTarget); err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create output folder %q: %w", outputDir, err)
	}

	tasks, skipped, err := planTasks(inputDir, outputDir)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	log = log.With(logger.String("runId", runID))
	log.Info("Starting folder conversion",
		logger.String("input", inputDir),
		logger.String("output", outputDir),
		logger.Int("tasks", len(tasks)),
		logger.Int("skipped", skipped),
	)

	return &runState{
		log:        log,
		promptText: promptable.Prompt(),
		onProgress: o.OnProgress,
		report: &Report{
			RunID:   runID,
			Total:   len(tasks),
			Skipped: skipped,
		},
	}, tasks, nil
}

// finish records one task's outcome and reports progress.
func (r *runState) finish(task Task, err error) {
	r.mu.Lock()
	r.done++
	done := r.done
	if err != nil {
		r.report.Failures = append(r.report.Failures, Failure{Source: task.Source, Err: err})
	} else {
		r.report.Converted++
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error("Conversion failed",
			logger.String("source", task.Source),
			logger.Error(err),
		)
	} else {
		r.log.Info("Converted",
			logger.String("source", task.Source),
			logger.String("output", task.Output),
		)
	}

	if r.onProgress != nil {
		r.onProgress(Progress{Done: done, Total: r.report.Total, Source: task.Source, Err: err})
	}
}

func (r *runState) summarize() {
	r.log.Info("Folder conversion finished",
		logger.Int("converted", r.report.Converted),
		logger.Int("failed", len(r.report.Failures)),
		logger.Int("skipped", r.report.Skipped),
	)
}
