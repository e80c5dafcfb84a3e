package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"comment-insights-go/internal/errors"
)

type JobKind string

const (
	JobFetch   JobKind = "fetch"
	JobAnalyze JobKind = "analyze"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Done() bool { return s == JobSucceeded || s == JobFailed }

type JobError struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

type Job struct {
	ID         string     `json:"id"`
	Kind       JobKind    `json:"kind"`
	Status     JobStatus  `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      *JobError  `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// jobStore keeps every unfinished job plus at most history finished ones.
type jobStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	history int
}

func newJobStore(history int) *jobStore {
	return &jobStore{jobs: map[string]*Job{}, history: history}
}

func (st *jobStore) add(kind JobKind) Job {
	st.mu.Lock()
	defer st.mu.Unlock()
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    JobPending,
		CreatedAt: time.Now().UTC(),
	}
	st.jobs[job.ID] = job
	st.order = append(st.order, job.ID)
	return *job
}

func (st *jobStore) start(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if job, ok := st.jobs[id]; ok {
		now := time.Now().UTC()
		job.Status = JobRunning
		job.StartedAt = &now
	}
}

func (st *jobStore) finish(id string, result any, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	job, ok := st.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err != nil {
		job.Status = JobFailed
		job.Error = toJobError(err)
	} else {
		job.Status = JobSucceeded
		job.Result = result
	}
	st.prune()
}

func (st *jobStore) get(id string) (Job, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	job, ok := st.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// prune drops the oldest finished jobs beyond history. Caller holds mu.
func (st *jobStore) prune() {
	finished := 0
	for _, id := range st.order {
		if st.jobs[id].Status.Done() {
			finished++
		}
	}
	kept := st.order[:0]
	for _, id := range st.order {
		if finished > st.history && st.jobs[id].Status.Done() {
			delete(st.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	st.order = kept
}

func toJobError(err error) *JobError {
	if pErr, ok := errors.As(err); ok {
		return &JobError{Code: pErr.Code, Message: pErr.Error(), Details: pErr.Details}
	}
	return &JobError{Code: errors.ErrInternal, Message: err.Error()}
}
