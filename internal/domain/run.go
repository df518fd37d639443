package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the current status of a course run
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
	StatusCancelled  RunStatus = "cancelled"
)

// Run is one extraction and download pass over a course
type Run struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	CourseName     string     `json:"course_name" gorm:"not null;index"`
	CourseURL      string     `json:"course_url" gorm:"not null"`
	Status         RunStatus  `json:"status" gorm:"not null;index"`
	Lectures       int        `json:"lectures"`
	Resolved       int        `json:"resolved"`
	Skipped        int        `json:"skipped"`
	Downloaded     int        `json:"downloaded"`
	AlreadyPresent int        `json:"already_present"`
	Failed         int        `json:"failed"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunItem records the outcome of one lecture within a run
type RunItem struct {
	ID        uint        `json:"-" gorm:"primaryKey;autoIncrement"`
	RunID     string      `json:"run_id" gorm:"not null;index"`
	LectureID string      `json:"lecture_id"`
	FileName  string      `json:"file_name"`
	URL       string      `json:"url,omitempty" gorm:"type:text"`
	Outcome   TaskOutcome `json:"outcome" gorm:"index"`
	Error     string      `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

// NewRun creates a new queued run
func NewRun(courseName, courseURL string) *Run {
	return &Run{
		ID:         uuid.New().String(),
		CourseName: strings.TrimSpace(courseName),
		CourseURL:  strings.TrimSpace(courseURL),
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// MarkProcessing marks the run as processing
func (r *Run) MarkProcessing() {
	r.Status = StatusProcessing
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkCompleted marks the run as completed and stores its summary
func (r *Run) MarkCompleted(summary RunSummary) {
	r.Status = StatusCompleted
	r.ApplySummary(summary)
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed marks the run as failed
func (r *Run) MarkFailed(err error) {
	r.Status = StatusFailed
	r.ErrorMessage = err.Error()
	r.UpdatedAt = time.Now()
}

// MarkCancelled marks the run as cancelled
func (r *Run) MarkCancelled() {
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
}

// Requeue resets a failed or cancelled run so it is picked up again
func (r *Run) Requeue() {
	r.Status = StatusQueued
	r.ErrorMessage = ""
	r.StartedAt = nil
	r.CompletedAt = nil
	r.ApplySummary(RunSummary{})
	r.UpdatedAt = time.Now()
}

// ApplySummary copies the counters of a summary onto the run
func (r *Run) ApplySummary(summary RunSummary) {
	r.Lectures = summary.Lectures
	r.Resolved = summary.Resolved
	r.Skipped = summary.Skipped
	r.Downloaded = summary.Downloaded
	r.AlreadyPresent = summary.AlreadyPresent
	r.Failed = summary.Failed
}

// Summary returns the counters of the run
func (r *Run) Summary() RunSummary {
	return RunSummary{
		Lectures:       r.Lectures,
		Resolved:       r.Resolved,
		Skipped:        r.Skipped,
		Downloaded:     r.Downloaded,
		AlreadyPresent: r.AlreadyPresent,
		Failed:         r.Failed,
	}
}

// IsTerminal checks if the run is in a terminal state
func (r *Run) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed || r.Status == StatusCancelled
}

// CanRequeue checks if the run may be queued again
func (r *Run) CanRequeue() bool {
	return r.Status == StatusFailed || r.Status == StatusCancelled || r.Status == StatusCompleted
}

// NewRunItem converts a task result into a persisted item
func NewRunItem(runID string, result TaskResult) *RunItem {
	item := &RunItem{
		RunID:     runID,
		LectureID: result.Task.LectureID,
		FileName:  result.Task.FileName,
		URL:       result.Task.URL,
		Outcome:   result.Outcome,
	}
	if result.Err != nil {
		item.Error = result.Err.Error()
	}
	return item
}

// ValidateCourseURL checks that a course URL is usable
func ValidateCourseURL(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}
