package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRun(t *testing.T) {
	run := NewRun(" nodejs ", "https://codewithmosh.com/courses/293204/lectures/4509750")

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "nodejs", run.CourseName)
	assert.Equal(t, StatusQueued, run.Status)
	assert.False(t, run.IsTerminal())
}

func TestRun_Lifecycle(t *testing.T) {
	run := NewRun("nodejs", "https://example.com/courses/1")

	run.MarkProcessing()
	assert.Equal(t, StatusProcessing, run.Status)
	assert.NotNil(t, run.StartedAt)

	summary := RunSummary{Lectures: 5, Resolved: 3, Skipped: 2, Downloaded: 3}
	run.MarkCompleted(summary)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, summary, run.Summary())
	assert.True(t, run.IsTerminal())
}

func TestRun_MarkFailedAndRequeue(t *testing.T) {
	run := NewRun("nodejs", "https://example.com/courses/1")
	run.MarkProcessing()
	run.MarkFailed(errors.New("authentication failed"))

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "authentication failed", run.ErrorMessage)
	assert.True(t, run.CanRequeue())

	run.Requeue()
	assert.Equal(t, StatusQueued, run.Status)
	assert.Empty(t, run.ErrorMessage)
	assert.Nil(t, run.StartedAt)
	assert.Equal(t, RunSummary{}, run.Summary())
}

func TestRun_CanRequeue(t *testing.T) {
	run := NewRun("nodejs", "https://example.com/courses/1")
	assert.False(t, run.CanRequeue())

	run.MarkProcessing()
	assert.False(t, run.CanRequeue())

	run.MarkCancelled()
	assert.True(t, run.CanRequeue())
}

func TestNewRunItem(t *testing.T) {
	item := NewRunItem("run-1", TaskResult{
		Task:    DownloadTask{LectureID: "7", FileName: "01_a_01_b.mp4", URL: "https://cdn/x"},
		Outcome: OutcomeFailed,
		Err:     errors.New("status 500"),
	})

	assert.Equal(t, "run-1", item.RunID)
	assert.Equal(t, "7", item.LectureID)
	assert.Equal(t, OutcomeFailed, item.Outcome)
	assert.Equal(t, "status 500", item.Error)
}

func TestValidateCourseURL(t *testing.T) {
	assert.True(t, ValidateCourseURL("https://codewithmosh.com/courses/1"))
	assert.False(t, ValidateCourseURL("ftp://example.com"))
	assert.False(t, ValidateCourseURL(""))
}
