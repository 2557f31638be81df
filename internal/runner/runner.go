// Package runner drives the sequential submission of a batch of files to the
// ingestion service.
//
// Files are submitted one at a time in input order. A submission is never
// issued before the previous one has returned, and a failing file only
// produces a failure record: the batch always runs over every input file and
// yields exactly one outcome record per file, in input order.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	apperrors "github.com/kurihiro0119/msg-ingest/internal/errors"
	"github.com/kurihiro0119/msg-ingest/internal/logging"
)

// Submitter performs a single submission against the ingestion service
type Submitter interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResponse, error)
}

// SubmitterFunc adapts a plain function to a Submitter
type SubmitterFunc func(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResponse, error)

// Submit calls f(ctx, req)
func (f SubmitterFunc) Submit(ctx context.Context, req domain.SubmissionRequest) (*domain.SubmissionResponse, error) {
	return f(ctx, req)
}

// Observer is called after each record is appended, in input order
type Observer func(index int, record domain.OutcomeRecord)

// Option configures a Runner
type Option func(*Runner)

// WithObserver registers an incremental result sink
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// WithLogger sets the logger used for per-file diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner is the batch ingestion runner
type Runner struct {
	submitter Submitter
	observer  Observer
	logger    *slog.Logger

	// runMu serializes calls to Run
	runMu sync.Mutex

	mu      sync.Mutex
	state   domain.RunState
	files   []domain.FileState
	records []domain.OutcomeRecord
}

// New creates a runner submitting through submitter
func New(submitter Submitter, opts ...Option) *Runner {
	r := &Runner{
		submitter: submitter,
		logger:    logging.Component("runner"),
		state:     domain.RunStateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run submits every file in order and returns one outcome record per file.
//
// ctx is handed to the submitter only. Run does not stop early when ctx is
// cancelled; the remaining submissions fail on their own and are recorded.
func (r *Runner) Run(ctx context.Context, files []domain.FileHandle) domain.BatchResult {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.begin(len(files))
	defer r.finish()

	r.logger.Info("batch started", "files", len(files))

	for i, file := range files {
		r.setFileState(i, domain.FileStateSubmitting)

		record := r.process(ctx, file)
		r.appendRecord(i, record)

		if r.observer != nil {
			r.observer(i, record)
		}
	}

	result := domain.BatchResult{Records: r.snapshotRecords()}
	r.logger.Info("batch finished",
		"files", result.Len(),
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
	)
	return result
}

// State returns the current run state
func (r *Runner) State() domain.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the current run's progress.
// It is safe to call while Run is in progress.
func (r *Runner) Snapshot() domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := make([]domain.FileState, len(r.files))
	copy(files, r.files)
	records := make([]domain.OutcomeRecord, len(r.records))
	copy(records, r.records)

	return domain.Progress{
		State:   r.state,
		Total:   len(r.files),
		Files:   files,
		Records: records,
	}
}

// process turns one file into exactly one outcome record
func (r *Runner) process(ctx context.Context, file domain.FileHandle) domain.OutcomeRecord {
	name := file.Name()

	req, err := buildRequest(file)
	if err != nil {
		r.logger.Warn("failed to read file", "file", name, "error", err)
		return domain.Failed(name, failureMessage(name, err))
	}

	resp, err := r.submit(ctx, req)
	if err != nil {
		r.logger.Warn("submission failed", "file", name, "code", apperrors.CodeOf(err), "error", err)
		return domain.Failed(name, failureMessage(name, err))
	}

	r.logger.Info("submission succeeded", "file", name, "issue_id", resp.IssueID)
	return domain.Succeeded(name, resp.IssueID)
}

// failureMessage describes err for a failure record. A failure record never
// carries an empty message, so errors that describe themselves as "" fall
// back to the error code and file name.
func failureMessage(name string, err error) string {
	if msg := apperrors.Describe(err); msg != "" {
		return msg
	}
	if code := apperrors.CodeOf(err); code != "" {
		return fmt.Sprintf("%s: failed to upload %s", code, name)
	}
	return fmt.Sprintf("failed to upload %s", name)
}

// submit calls the submitter, converting panics and empty responses into errors
func (r *Runner) submit(ctx context.Context, req domain.SubmissionRequest) (resp *domain.SubmissionResponse, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = apperrors.NewInternalError(
				fmt.Sprintf("submission of %s panicked", req.FileName),
				fmt.Errorf("%v", p),
			)
		}
	}()

	resp, err = r.submitter.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.IssueID == "" {
		return nil, apperrors.NewServiceRejection(
			fmt.Sprintf("response for %s carried no issue id", req.FileName), nil,
		)
	}
	return resp, nil
}

// buildRequest reads the file's payload into a fresh submission request
func buildRequest(file domain.FileHandle) (domain.SubmissionRequest, error) {
	name := file.Name()

	rc, err := file.Open()
	if err != nil {
		return domain.SubmissionRequest{}, apperrors.NewReadError(name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return domain.SubmissionRequest{}, apperrors.NewReadError(name, err)
	}

	return domain.SubmissionRequest{
		FileName: name,
		Content:  buf.Bytes(),
	}, nil
}

func (r *Runner) begin(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = domain.RunStateRunning
	r.files = make([]domain.FileState, total)
	for i := range r.files {
		r.files[i] = domain.FileStatePending
	}
	r.records = make([]domain.OutcomeRecord, 0, total)
}

func (r *Runner) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = domain.RunStateIdle
}

func (r *Runner) setFileState(index int, state domain.FileState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[index] = state
}

func (r *Runner) appendRecord(index int, record domain.OutcomeRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)
	if record.OK() {
		r.files[index] = domain.FileStateSucceeded
	} else {
		r.files[index] = domain.FileStateFailed
	}
}

func (r *Runner) snapshotRecords() []domain.OutcomeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]domain.OutcomeRecord, len(r.records))
	copy(records, r.records)
	return records
}
