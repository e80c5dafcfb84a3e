// Package session owns the record set of one working session and serializes
// the operations that replace it.
package session

import (
	"context"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/aggregator"
	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/export"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/supplier"
	"comment-insights-go/internal/types"
)

const defaultJobHistory = 32

type FetchResult struct {
	Source  string          `json:"source"`
	Sort    types.SortOrder `json:"sort"`
	Fetched int             `json:"fetched"`
	Kept    int             `json:"kept"`
	Dropped int             `json:"dropped"`
}

type AnalyzeResult struct {
	Records int               `json:"records"`
	Report  aggregator.Report `json:"report"`
}

// Status is a point-in-time view of the session.
type Status struct {
	Records    int  `json:"records"`
	Dropped    int  `json:"dropped"`
	Classified int  `json:"classified"`
	Busy       bool `json:"busy"`
}

type Session struct {
	supplier supplier.Supplier
	pipeline *pipeline.Pipeline
	opts     pipeline.Options
	log      *logrus.Entry

	mu      sync.RWMutex
	records []types.CanonicalRecord
	dropped int

	// set while a fetch or analyze is in flight
	busy atomic.Bool

	jobs *jobStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(sup supplier.Supplier, p *pipeline.Pipeline, opts pipeline.Options, log *logrus.Entry) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		supplier: sup,
		pipeline: p,
		opts:     opts,
		log:      log.WithField("component", "session"),
		jobs:     newJobStore(defaultJobHistory),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Session) claim(op string) error {
	if !s.busy.CompareAndSwap(false, true) {
		s.log.WithField("op", op).Warn("rejected: operation in progress")
		return errors.NewBusy(op)
	}
	return nil
}

func (s *Session) release() { s.busy.Store(false) }

// Fetch replaces the record set with the normalized comments of source. On
// failure the previous set is kept.
func (s *Session) Fetch(ctx context.Context, source, sort string) (FetchResult, error) {
	order, err := parseSort(sort)
	if err != nil {
		return FetchResult{}, err
	}
	if err := s.claim("fetch"); err != nil {
		return FetchResult{}, err
	}
	defer s.release()
	return s.fetch(ctx, source, order)
}

func (s *Session) fetch(ctx context.Context, source string, order types.SortOrder) (FetchResult, error) {
	log := s.log.WithFields(logrus.Fields{"source": source, "sort": order})
	start := time.Now()

	raws, err := s.supplier.Fetch(ctx, source, order)
	if err != nil {
		log.WithError(err).Error("fetch failed")
		return FetchResult{}, errors.NewSupplier(source, err)
	}
	records, dropped := s.pipeline.Normalize(raws)

	s.mu.Lock()
	s.records = records
	s.dropped = dropped
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"fetched":     len(raws),
		"kept":        len(records),
		"dropped":     dropped,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("fetch finished")

	return FetchResult{Source: source, Sort: order, Fetched: len(raws), Kept: len(records), Dropped: dropped}, nil
}

// Analyze runs both classification stages over the current set. The set is
// replaced only when both stages succeed.
func (s *Session) Analyze(ctx context.Context) (AnalyzeResult, error) {
	if err := s.claim("analyze"); err != nil {
		return AnalyzeResult{}, err
	}
	defer s.release()

	records := s.snapshot()
	if len(records) == 0 {
		return AnalyzeResult{}, errors.NewEmptyInput("analyze")
	}
	return s.analyze(ctx, records)
}

func (s *Session) analyze(ctx context.Context, records []types.CanonicalRecord) (AnalyzeResult, error) {
	enriched, err := s.pipeline.Classify(ctx, records, s.opts)
	if err != nil {
		return AnalyzeResult{}, err
	}

	s.mu.Lock()
	s.records = enriched
	s.mu.Unlock()

	return AnalyzeResult{Records: len(enriched), Report: aggregator.Summarize(enriched)}, nil
}

// FetchAsync validates the request, claims the session and runs the fetch in
// the background.
func (s *Session) FetchAsync(source, sort string) (Job, error) {
	order, err := parseSort(sort)
	if err != nil {
		return Job{}, err
	}
	if err := s.claim("fetch"); err != nil {
		return Job{}, err
	}
	return s.submit(JobFetch, func(ctx context.Context) (any, error) {
		return s.fetch(ctx, source, order)
	}), nil
}

// AnalyzeAsync claims the session and runs the analysis in the background. An
// empty set is reported synchronously.
func (s *Session) AnalyzeAsync() (Job, error) {
	if err := s.claim("analyze"); err != nil {
		return Job{}, err
	}
	records := s.snapshot()
	if len(records) == 0 {
		s.release()
		return Job{}, errors.NewEmptyInput("analyze")
	}
	return s.submit(JobAnalyze, func(ctx context.Context) (any, error) {
		return s.analyze(ctx, records)
	}), nil
}

// submit must be called with the busy flag held; the worker releases it.
func (s *Session) submit(kind JobKind, run func(context.Context) (any, error)) Job {
	job := s.jobs.add(kind)
	log := s.log.WithFields(logrus.Fields{"job_id": job.ID, "kind": kind})
	log.Info("job submitted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.jobs.start(job.ID)

		result, err := run(s.ctx)
		// the job is final before the session reports idle
		s.jobs.finish(job.ID, result, err)
		s.release()

		if err != nil {
			log.WithError(err).Warn("job failed")
			return
		}
		log.Info("job succeeded")
	}()
	return job
}

// Job returns a copy of the job with id.
func (s *Session) Job(id string) (Job, error) {
	job, ok := s.jobs.get(id)
	if !ok {
		return Job{}, errors.NewNotFound("job " + id)
	}
	return job, nil
}

// Records returns a copy of the current set.
func (s *Session) Records() ([]types.CanonicalRecord, error) {
	records := s.snapshot()
	if len(records) == 0 {
		return nil, errors.NewEmptyInput("list")
	}
	return records, nil
}

// Fields describes the export columns available for the current set.
func (s *Session) Fields() ([]export.Column, error) {
	records := s.snapshot()
	if len(records) == 0 {
		return nil, errors.NewEmptyInput("export")
	}
	return export.Schema(records), nil
}

// Export writes the selected columns as xlsx. No names selects every
// populated column.
func (s *Session) Export(w io.Writer, names []string) error {
	records := s.snapshot()
	if len(records) == 0 {
		return errors.NewEmptyInput("export")
	}

	fields := export.Populated(records)
	if len(names) > 0 {
		var err error
		if fields, err = export.ParseFields(names); err != nil {
			return err
		}
	}
	if err := export.WriteXLSX(w, fields, records); err != nil {
		return errors.NewInternal(err)
	}
	s.log.WithFields(logrus.Fields{"rows": len(records), "columns": len(fields)}).Info("export written")
	return nil
}

// Report summarizes the sentiment and topic distributions of the current set.
func (s *Session) Report() (aggregator.Report, error) {
	records := s.snapshot()
	if len(records) == 0 {
		return aggregator.Report{}, errors.NewEmptyInput("report")
	}
	return aggregator.Summarize(records), nil
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classified := 0
	for _, r := range s.records {
		if r.Sentiment != nil && r.Topic != nil {
			classified++
		}
	}
	return Status{
		Records:    len(s.records),
		Dropped:    s.dropped,
		Classified: classified,
		Busy:       s.busy.Load(),
	}
}

// Close cancels background jobs and waits for them to return.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Session) snapshot() []types.CanonicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func parseSort(sort string) (types.SortOrder, error) {
	order, err := types.ParseSortOrder(sort)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return order, nil
}
