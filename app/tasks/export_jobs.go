package tasks

import (
	"sync"
	"time"

	"github.com/emogo/emogo/app/export"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type ExportJob struct {
	ID         string               `json:"id"`
	Status     JobStatus            `json:"status"`
	Archive    bool                 `json:"archive"`
	Result     *export.BundleResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// ExportJobs tracks asynchronous exports by task id for the lifetime of the process.
type ExportJobs struct {
	mu   sync.RWMutex
	jobs map[string]*ExportJob
}

func NewExportJobs() *ExportJobs {
	return &ExportJobs{jobs: make(map[string]*ExportJob)}
}

func (j *ExportJobs) Add(id string, archive bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = &ExportJob{ID: id, Status: JobPending, Archive: archive, CreatedAt: time.Now()}
}

func (j *ExportJobs) Run(id string) {
	j.update(id, func(job *ExportJob) {
		job.Status = JobRunning
	})
}

func (j *ExportJobs) Complete(id string, result *export.BundleResult) {
	j.update(id, func(job *ExportJob) {
		now := time.Now()
		job.Status = JobCompleted
		job.Result = result
		job.FinishedAt = &now
	})
}

func (j *ExportJobs) Fail(id string, err error) {
	j.update(id, func(job *ExportJob) {
		now := time.Now()
		job.Status = JobFailed
		job.Error = err.Error()
		job.FinishedAt = &now
	})
}

// Get returns a copy of the job.
func (j *ExportJobs) Get(id string) (ExportJob, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	job, ok := j.jobs[id]
	if !ok {
		return ExportJob{}, false
	}
	return *job, true
}

func (j *ExportJobs) update(id string, fn func(job *ExportJob)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if job, ok := j.jobs[id]; ok {
		fn(job)
	}
}
