package domain

import (
	"fmt"
	"time"
)

// Resolution is the outcome of resolving one lecture to its media asset
type Resolution struct {
	Lecture   Lecture
	Extension string // e.g. ".mp4"; empty when the lecture has no asset
	URL       string // direct, time-limited download URL; empty when no asset
	Err       error  // non-nil when the lecture page could not be resolved
}

// HasAsset reports whether a downloadable asset was found
func (r Resolution) HasAsset() bool {
	return r.Err == nil && r.URL != ""
}

// Task builds the download task for a resolved lecture
func (r Resolution) Task() DownloadTask {
	return DownloadTask{
		LectureID: r.Lecture.ID,
		FileName:  r.Lecture.FileName() + r.Extension,
		URL:       r.URL,
	}
}

// DownloadTask is one unit of download work
type DownloadTask struct {
	LectureID string `json:"lecture_id"`
	FileName  string `json:"file_name"`
	URL       string `json:"url"`
}

// IsNoop reports whether the task has nothing to fetch
func (t DownloadTask) IsNoop() bool {
	return t.URL == ""
}

// TaskOutcome is the terminal state of a download task
type TaskOutcome string

const (
	OutcomeDownloaded     TaskOutcome = "downloaded"
	OutcomeAlreadyPresent TaskOutcome = "already_present"
	OutcomeSkipped        TaskOutcome = "skipped"
	OutcomeFailed         TaskOutcome = "failed"
)

// TaskResult captures what happened to a single task
type TaskResult struct {
	Task     DownloadTask
	Outcome  TaskOutcome
	Bytes    int64
	Duration time.Duration
	Err      error
}

// BuildTasks joins resolved lectures into download tasks. Lectures without
// an asset become no-op tasks. Two tasks never share a target file name:
// later duplicates are rejected and reported as failed results.
func BuildTasks(resolutions []Resolution) (tasks []DownloadTask, rejected []TaskResult) {
	targets := make(map[string]string)
	for _, r := range resolutions {
		if r.Err != nil {
			continue
		}
		task := r.Task()
		if !task.IsNoop() {
			if owner, taken := targets[task.FileName]; taken {
				rejected = append(rejected, TaskResult{
					Task:    task,
					Outcome: OutcomeFailed,
					Err:     fmt.Errorf("%w: %s already used by lecture %s", ErrDuplicateTarget, task.FileName, owner),
				})
				continue
			}
			targets[task.FileName] = task.LectureID
		}
		tasks = append(tasks, task)
	}
	return tasks, rejected
}

// RunSummary counts what a run did
type RunSummary struct {
	Lectures       int `json:"lectures"`
	Resolved       int `json:"resolved"`
	Skipped        int `json:"skipped"`
	Downloaded     int `json:"downloaded"`
	AlreadyPresent int `json:"already_present"`
	Failed         int `json:"failed"`
}

// AddResolution accounts for one lecture resolution
func (s *RunSummary) AddResolution(r Resolution) {
	s.Lectures++
	switch {
	case r.Err != nil:
		s.Skipped++
	case r.URL != "":
		s.Resolved++
	}
}

// AddResult accounts for one task result
func (s *RunSummary) AddResult(r TaskResult) {
	switch r.Outcome {
	case OutcomeDownloaded:
		s.Downloaded++
	case OutcomeAlreadyPresent:
		s.AlreadyPresent++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// String renders the summary for terminal output and logs
func (s RunSummary) String() string {
	return fmt.Sprintf("lectures=%d resolved=%d skipped=%d downloaded=%d already_present=%d failed=%d",
		s.Lectures, s.Resolved, s.Skipped, s.Downloaded, s.AlreadyPresent, s.Failed)
}
