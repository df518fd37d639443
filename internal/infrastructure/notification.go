package infrastructure

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/domain"
)

// NotificationService sends desktop notifications about runs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	exec   func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		exec: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var name string
	var args []string
	switch n.config.Method {
	case "osascript":
		name = "osascript"
		args = []string{"-e", fmt.Sprintf(`display notification %q with title %q`, message, title)}
	case "notify-send":
		name = "notify-send"
		args = []string{title, message}
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := n.exec(name, args...); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", name),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyRunStarted sends notification when a run starts
func (n *NotificationService) NotifyRunStarted(run *domain.Run) {
	n.Send("Course Run Started", fmt.Sprintf("Processing: %s", truncateString(run.CourseName, 40)))
}

// NotifyRunCompleted sends notification when a run completes
func (n *NotificationService) NotifyRunCompleted(run *domain.Run) {
	message := fmt.Sprintf("%s: %d downloaded, %d present, %d failed",
		truncateString(run.CourseName, 30), run.Downloaded, run.AlreadyPresent, run.Failed)
	n.Send("Course Run Completed", message)
}

// NotifyRunFailed sends notification when a run fails
func (n *NotificationService) NotifyRunFailed(run *domain.Run, err error) {
	n.Send("Course Run Failed", fmt.Sprintf("%s: %s", truncateString(run.CourseName, 30), truncateString(err.Error(), 60)))
}

// NotifyQueueEmpty sends notification when queue is empty
func (n *NotificationService) NotifyQueueEmpty() {
	n.Send("Queue Empty", "All course runs completed")
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
