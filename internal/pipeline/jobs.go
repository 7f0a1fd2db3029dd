package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docforge/internal/doctree"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusTransforming JobStatus = "transforming"
	StatusRendering    JobStatus = "rendering"
	StatusStoring      JobStatus = "storing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusPartial      JobStatus = "partial"
	StatusDuplicate    JobStatus = "duplicate"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDuplicate:
		return true
	}
	return false
}

// JobOptions carries the request parameters of an export job.
type JobOptions struct {
	Kind           doctree.DocKind
	JobDescription string
	Premium        bool
	BypassCache    bool
}

// Job tracks the state of a single upload-to-PDF export.
type Job struct {
	mu sync.Mutex

	ID       string          `json:"job_id"`
	Status   JobStatus       `json:"status"`
	Phase    string          `json:"phase"`
	Filename string          `json:"filename"`
	Kind     doctree.DocKind `json:"kind"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	opts        JobOptions
	fileData    []byte
	artifactIDs []string
	errors      []string
}

// Progress tracks processing progress.
type Progress struct {
	Lines       int      `json:"lines"`
	Transformed bool     `json:"transformed"`
	Rendered    int      `json:"rendered"`
	Stored      int      `json:"stored"`
	Reused      int      `json:"reused"`
	Errors      []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename string, data []byte, opts JobOptions) *Job {
	if opts.Kind == "" {
		opts.Kind = doctree.KindResume
	}
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Kind:      opts.Kind,
		CreatedAt: now,
		UpdatedAt: now,
		opts:      opts,
		fileData:  data,
	}
}

// Options returns the request parameters.
func (j *Job) Options() JobOptions {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.opts
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetLines records how many lines the upload parsed into.
func (j *Job) SetLines(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Lines = n
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the parsed text.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// MarkTransformed notes that the upstream rewrite succeeded.
func (j *Job) MarkTransformed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Transformed = true
	j.UpdatedAt = time.Now()
}

// IncrRendered atomically increments rendered artifacts.
func (j *Job) IncrRendered() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Rendered++
	j.UpdatedAt = time.Now()
}

// AddArtifact links an artifact to the job. reused marks one that was
// rendered by an earlier job with identical content.
func (j *Job) AddArtifact(id string, reused bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifactIDs = append(j.artifactIDs, id)
	if reused {
		j.Progress.Reused++
	} else {
		j.Progress.Stored++
	}
	j.UpdatedAt = time.Now()
}

// ArtifactIDs returns the linked artifact ids in link order.
func (j *Job) ArtifactIDs() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.artifactIDs...)
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string          `json:"job_id"`
	Status      JobStatus       `json:"status"`
	Phase       string          `json:"phase"`
	Filename    string          `json:"filename"`
	Kind        doctree.DocKind `json:"kind"`
	ContentHash string          `json:"content_hash,omitempty"`
	ArtifactIDs []string        `json:"artifact_ids"`
	Progress    Progress        `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Kind:        j.Kind,
		ContentHash: j.ContentHash,
		ArtifactIDs: append([]string{}, j.artifactIDs...),
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs idle for longer than the TTL and returns how many.
func (s *JobStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
