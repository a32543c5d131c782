package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the job reached a terminal status.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type Job struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Name       string             `json:"name"`
	Status     JobStatus          `json:"status"`
	Progress   int                `json:"progress"`
	Message    string             `json:"message"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	Logger     *slog.Logger       `json:"-"`
	LogPath    string             `json:"logPath,omitempty"`
	cancelFunc context.CancelFunc
	cancelled  bool
}

type JobProgress struct {
	JobID    string
	Progress int
	Message  string
}

type TaskHandler interface {
	Execute(ctx context.Context, job *Job, progressChan chan<- JobProgress) error
	Cancel(jobID string) error
}

// Task defines the specific logic for a job type.
type Task interface {
	MetadataKeys() []string
	Execute(ctx context.Context, job *Job, progressUpdater func(int, string)) (map[string]any, error)
	Cleanup(job *Job) error
}

// BaseTaskHandler adapts a Task to a TaskHandler.
type BaseTaskHandler struct {
	Task Task
}

// NewBaseTaskHandler creates a new BaseTaskHandler.
func NewBaseTaskHandler(task Task) *BaseTaskHandler {
	return &BaseTaskHandler{Task: task}
}

// Execute checks the job metadata, runs the task and merges the stats it
// returns into the job metadata, even on failure.
func (h *BaseTaskHandler) Execute(ctx context.Context, job *Job, progressChan chan<- JobProgress) error {
	job.Logger.Info("Starting job", "name", job.Name)

	for _, key := range h.Task.MetadataKeys() {
		if _, ok := job.Metadata[key]; !ok {
			err := fmt.Errorf("missing %s in job metadata", key)
			job.Logger.Error("Error: " + err.Error())
			return err
		}
	}

	progressUpdater := func(percentage int, status string) {
		progressChan <- JobProgress{JobID: job.ID, Progress: percentage, Message: status}
		job.Logger.Info("Progress", "percentage", percentage, "status", status)
	}

	defer func() {
		if err := h.Task.Cleanup(job); err != nil {
			job.Logger.Error("Error during job cleanup", "error", err)
		}
	}()

	stats, err := h.Task.Execute(ctx, job, progressUpdater)
	if stats != nil {
		if job.Metadata == nil {
			job.Metadata = make(map[string]any)
		}
		maps.Copy(job.Metadata, stats)
	}
	if err != nil {
		job.Logger.Error("Error during job execution", "error", err)
		return err
	}
	job.Logger.Info("Job finished successfully", "name", job.Name)
	return nil
}

// Cancel is a no-op; cancellation reaches the task through its context.
func (h *BaseTaskHandler) Cancel(jobID string) error {
	return nil
}

// JobService is what other features use to run background work.
type JobService interface {
	StartJob(jobType string, name string, metadata map[string]any) (string, error)
	GetJob(jobID string) (Job, bool)
	CancelJob(jobID string) error
}

type Service struct {
	jobs     map[string]*Job
	handlers map[string]TaskHandler
	mu       sync.RWMutex
	config   *config.Jobs
}

func NewService(cfg *config.Jobs) *Service {
	return &Service{
		jobs:     make(map[string]*Job),
		handlers: make(map[string]TaskHandler),
		config:   cfg,
	}
}

func (s *Service) RegisterHandler(jobType string, handler TaskHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

// StartJob queues a job. Jobs of one type run one at a time; later ones wait
// as pending.
func (s *Service) StartJob(jobType string, name string, metadata map[string]any) (string, error) {
	s.mu.RLock()
	_, known := s.handlers[jobType]
	s.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("no handler registered for job type %q", jobType)
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Name:      name,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	if err := s.attachLogger(job); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	if !s.isJobTypeRunning(jobType) {
		job.Status = JobStatusRunning
		s.mu.Unlock()
		go s.executeJob(job)
	} else {
		s.mu.Unlock()
	}
	return job.ID, nil
}

// attachLogger gives the job its own log file when job logging is enabled.
func (s *Service) attachLogger(job *Job) error {
	if !s.config.Log {
		job.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}
	if err := os.MkdirAll(s.config.LogPath, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logPath := filepath.Join(s.config.LogPath, fmt.Sprintf("%s-%s.log", job.CreatedAt.Format("2006-01-02"), job.ID))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	job.Logger = slog.New(slog.NewTextHandler(logFile, nil))
	job.LogPath = logPath
	return nil
}

func (s *Service) executeJob(job *Job) {
	s.mu.RLock()
	handler := s.handlers[job.Type]
	s.mu.RUnlock()

	progressChan := make(chan JobProgress, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.mu.Lock()
	job.cancelFunc = cancel
	s.mu.Unlock()
	s.updateJobStatus(job.ID, JobStatusRunning, "Starting...", "")

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for progress := range progressChan {
			s.UpdateJobProgress(progress.JobID, progress.Progress, progress.Message)
		}
	}()
	err := handler.Execute(ctx, job, progressChan)
	close(progressChan)
	<-progressDone

	s.mu.RLock()
	cancelled := job.cancelled
	s.mu.RUnlock()

	switch {
	case cancelled || errors.Is(err, context.Canceled):
		s.updateJobStatus(job.ID, JobStatusCancelled, "Job cancelled", "")
	case err != nil:
		s.updateJobStatus(job.ID, JobStatusFailed, resultMessage(job, err.Error()), err.Error())
	default:
		s.updateJobStatus(job.ID, JobStatusCompleted, resultMessage(job, "Job completed successfully"), "")
	}
	s.executeWebhook(job)
	s.startNextPendingJob(job.Type)
}

// resultMessage prefers the summary a task left in the "msg" metadata key.
func resultMessage(job *Job, fallback string) string {
	if msg, ok := job.Metadata["msg"].(string); ok && msg != "" {
		return msg
	}
	return fallback
}

func (s *Service) updateJobStatus(jobID string, status JobStatus, message, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
		job.Message = message
		job.Error = errMsg
		job.UpdatedAt = time.Now()
		if status == JobStatusCompleted {
			job.Progress = 100
		}
	}
}

func (s *Service) UpdateJobProgress(jobID string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		if job.Status.Finished() {
			return
		}
		job.Progress = progress
		job.Message = message
		job.UpdatedAt = time.Now()
	}
}

func (s *Service) CancelJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	if job.Status.Finished() {
		return fmt.Errorf("job %s already %s", jobID, job.Status)
	}

	job.cancelled = true
	job.Status = JobStatusCancelled
	job.Message = "Job cancelled"
	job.UpdatedAt = time.Now()

	if job.cancelFunc != nil {
		job.cancelFunc()
	}
	if handler, exists := s.handlers[job.Type]; exists {
		return handler.Cancel(jobID)
	}
	return nil
}

// GetJob returns a snapshot of a job.
func (s *Service) GetJob(jobID string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, false
	}
	return snapshot(job), true
}

// GetJobs returns snapshots of every job, newest first.
func (s *Service) GetJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, snapshot(job))
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return jobs
}

func snapshot(job *Job) Job {
	cp := *job
	cp.Metadata = maps.Clone(job.Metadata)
	cp.cancelFunc = nil
	return cp
}

func (s *Service) isJobTypeRunning(jobType string) bool {
	for _, job := range s.jobs {
		if job.Type == jobType && job.Status == JobStatusRunning {
			return true
		}
	}
	return false
}

func (s *Service) startNextPendingJob(jobType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var nextJob *Job
	for _, job := range s.jobs {
		if job.Type == jobType && job.Status == JobStatusPending {
			if nextJob == nil || job.CreatedAt.Before(nextJob.CreatedAt) {
				nextJob = job
			}
		}
	}
	if nextJob != nil {
		nextJob.Status = JobStatusRunning
		go s.executeJob(nextJob)
	}
}

// ClearFinishedJobs drops every finished job older than maxAge and its log
// file. A zero maxAge clears all finished jobs.
func (s *Service) ClearFinishedJobs(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		if !job.Status.Finished() || now.Sub(job.UpdatedAt) < maxAge {
			continue
		}
		if job.LogPath != "" {
			os.Remove(job.LogPath)
		}
		delete(s.jobs, id)
		removed++
	}
	return removed
}

// executeWebhook runs the configured command when a job of a subscribed type
// finishes.
func (s *Service) executeWebhook(job *Job) {
	if !s.config.Webhooks.Enabled {
		return
	}
	if !slices.Contains(s.config.Webhooks.JobTypes, job.Type) && !slices.Contains(s.config.Webhooks.JobTypes, "*") {
		return
	}

	snap, _ := s.GetJob(job.ID)
	data := struct {
		Name     string
		Type     string
		Status   string
		Message  string
		Duration string
	}{
		Name:     snap.Name,
		Type:     snap.Type,
		Status:   string(snap.Status),
		Message:  snap.Message,
		Duration: time.Since(snap.CreatedAt).Round(time.Second).String(),
	}

	tmpl, err := template.New("webhook").Parse(s.config.Webhooks.Command)
	if err != nil {
		job.Logger.Error("Failed to parse webhook template", "error", err)
		return
	}
	var command strings.Builder
	if err := tmpl.Execute(&command, data); err != nil {
		job.Logger.Error("Failed to execute webhook template", "error", err)
		return
	}
	go s.executeWebhookCommand(command.String(), job.Logger)
}

func (s *Service) executeWebhookCommand(command string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Env = os.Environ()
	if err := cmd.Run(); err != nil {
		logger.Error("Webhook execution failed", "command", command, "error", err)
		return
	}
	logger.Info("Webhook executed successfully", "command", command)
}
