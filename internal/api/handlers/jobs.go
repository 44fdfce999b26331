package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/hedgevol/internal/scheduler"
	"github.com/wonny/hedgevol/pkg/logger"
)

// defaultHistoryLimit is the number of results returned when no limit is given
const defaultHistoryLimit = 20

// JobRunner is the part of the scheduler the jobs endpoints use
type JobRunner interface {
	GetAllJobs() []string
	GetJobStats() map[string]scheduler.JobStats
	GetJobHistory(name string) (scheduler.JobHistory, error)
	RunJob(ctx context.Context, name string) (scheduler.JobResult, error)
	RemoveJob(name string) error
}

// JobsHandler exposes the scheduler: stats, history, manual runs and removal
type JobsHandler struct {
	sched  JobRunner
	logger *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(sched JobRunner, log *logger.Logger) *JobsHandler {
	return &JobsHandler{sched: sched, logger: log}
}

// JobsResponse lists the registered jobs
type JobsResponse struct {
	Jobs  []string                      `json:"jobs"`
	Stats map[string]scheduler.JobStats `json:"stats"`
}

// JobHistoryResponse is the latest results of one job
type JobHistoryResponse struct {
	Job         string                `json:"job"`
	SuccessRate float64               `json:"success_rate"`
	Failures    int                   `json:"failures"`
	Results     []scheduler.JobResult `json:"results"`
}

// List returns every registered job with its statistics
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, JobsResponse{
		Jobs:  h.sched.GetAllJobs(),
		Stats: h.sched.GetJobStats(),
	})
}

// History returns the latest results of a job, newest last
// GET /api/jobs/{name}/history?limit=N
func (h *JobsHandler) History(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.sched.GetJobHistory(name)
	if err != nil {
		respondError(w, jobStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, JobHistoryResponse{
		Job:         name,
		SuccessRate: history.GetSuccessRate(),
		Failures:    len(history.GetFailedResults()),
		Results:     history.GetLatestResults(limit),
	})
}

// Run executes a job now, outside its schedule
// POST /api/jobs/{name}/run
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	result, err := h.sched.RunJob(r.Context(), name)
	if err != nil {
		respondError(w, jobStatus(err), err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":     name,
		"success": result.Success,
	}).Info("Job run on request")

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, result)
}

// Remove unschedules a job. Its history stays readable.
// DELETE /api/jobs/{name}
func (h *JobsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sched.RemoveJob(name); err != nil {
		respondError(w, jobStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jobStatus(err error) int {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
