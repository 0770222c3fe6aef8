// Package pipeline provides the high-level orchestration of the outreach
// process: extract postings, look up portfolio links, draft emails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/types"
)

// Step names reported in progress events
const (
	StepExtract = "extract"
	StepLinks   = "links"
	StepMail    = "mail"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Index   int    `json:"index"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. It may be
// called from several goroutines when Concurrency > 1.
type ProgressCallback func(event ProgressEvent)

// Writer is the model-backed half of the pipeline
type Writer interface {
	ExtractJobs(ctx context.Context, cleanedText string) ([]types.JobPosting, error)
	WriteMail(ctx context.Context, job types.JobPosting, links types.LinkQueryResult) (string, error)
}

// LinkFinder looks up portfolio links for a set of skills
type LinkFinder interface {
	QueryLinks(ctx context.Context, skills []string) (types.LinkQueryResult, error)
}

// Options holds configuration for running the pipeline
type Options struct {
	// Concurrency bounds the postings processed at once (default 1)
	Concurrency int
	// Retries is the number of extra attempts for transient provider errors
	Retries int
	// RetryBase is the first backoff interval (default 1s)
	RetryBase  time.Duration
	Logger     *slog.Logger
	OnProgress ProgressCallback
}

// Result is the outcome of a run. Drafts are in extraction order.
type Result struct {
	Jobs   []types.JobPosting `json:"jobs"`
	Drafts []types.Draft      `json:"drafts"`
}

// Failed returns how many drafts carry an error
func (r *Result) Failed() int {
	n := 0
	for _, d := range r.Drafts {
		if d.Err != "" {
			n++
		}
	}
	return n
}

// Runner runs the pipeline
type Runner struct {
	writer Writer
	links  LinkFinder
	opts   Options
	log    *slog.Logger
}

// New returns a Runner
func New(writer Writer, links LinkFinder, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{writer: writer, links: links, opts: opts, log: logger}
}

// Run extracts the postings in text and drafts one email per posting.
// An extraction failure fails the run. A failure for one posting is recorded
// on its Draft and the rest of the batch continues.
func (r *Runner) Run(ctx context.Context, text string) (*Result, error) {
	var jobs []types.JobPosting
	err := r.withRetry(ctx, func(ctx context.Context) error {
		var err error
		jobs, err = r.writer.ExtractJobs(ctx, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("job extraction failed: %w", err)
	}
	r.emit(StepExtract, -1, fmt.Sprintf("extracted %d job postings", len(jobs)), jobs)

	result := &Result{Jobs: jobs, Drafts: make([]types.Draft, len(jobs))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			result.Drafts[i] = r.draft(gctx, i, job)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	r.log.Info("pipeline finished", "jobs", len(jobs), "failed", result.Failed())
	return result, nil
}

// Draft runs the link lookup and email steps for a single posting
func (r *Runner) Draft(ctx context.Context, job types.JobPosting) types.Draft {
	return r.draft(ctx, 0, job)
}

func (r *Runner) draft(ctx context.Context, i int, job types.JobPosting) types.Draft {
	d := types.Draft{Job: job}

	links, err := r.links.QueryLinks(ctx, job.Skills)
	if err != nil {
		r.log.Warn("link lookup failed", "index", i, "role", job.Role, "error", err)
		d.Err = fmt.Sprintf("link lookup failed: %v", err)
		return d
	}
	d.Links = links
	r.emit(StepLinks, i, fmt.Sprintf("found %d links for %s", len(links.Links()), job.Role), links)

	err = r.withRetry(ctx, func(ctx context.Context) error {
		var err error
		d.Email, err = r.writer.WriteMail(ctx, job, links)
		return err
	})
	if err != nil {
		r.log.Warn("email drafting failed", "index", i, "role", job.Role, "error", err)
		d.Err = fmt.Sprintf("email drafting failed: %v", err)
		return d
	}
	r.emit(StepMail, i, "drafted email for "+job.Role, nil)
	return d
}

// withRetry runs fn, retrying transient provider errors with exponential
// backoff up to the configured number of extra attempts.
func (r *Runner) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.opts.Retries == 0 {
		return fn(ctx)
	}

	b := retry.WithMaxRetries(uint64(r.opts.Retries), retry.NewExponential(r.opts.RetryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if Retryable(err) {
			r.log.Debug("retrying after transient provider error", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// Retryable reports whether err is a transient provider error
func Retryable(err error) bool {
	var pe *llm.ProviderError
	return errors.As(err, &pe) && pe.Transient()
}

func (r *Runner) emit(step string, index int, message string, content any) {
	r.log.Debug(message, "step", step, "index", index)
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:    step,
			Index:   index,
			Message: message,
			Content: content,
		})
	}
}
