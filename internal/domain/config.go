package domain

import (
	"path/filepath"
	"runtime"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Site         SiteConfig         `mapstructure:"site" yaml:"site"`
	Download     DownloadConfig     `mapstructure:"download" yaml:"download"`
	Queue        QueueConfig        `mapstructure:"queue" yaml:"queue"`
	Tagging      TaggingConfig      `mapstructure:"tagging" yaml:"tagging"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// SiteConfig describes the course site and the account used to sign in.
// Username and Password are normally supplied through the environment.
type SiteConfig struct {
	LoginURL       string        `mapstructure:"login_url" yaml:"login_url"`
	SchoolID       string        `mapstructure:"school_id" yaml:"school_id"`
	Username       string        `mapstructure:"username" yaml:"-"`
	Password       string        `mapstructure:"password" yaml:"-"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir        string `mapstructure:"base_dir" yaml:"base_dir"`
	LogsDir        string `mapstructure:"logs_dir" yaml:"logs_dir"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`
	ResolveWorkers int    `mapstructure:"resolve_workers" yaml:"resolve_workers"`
}

// CoursesDir returns the directory holding one folder per course
func (c DownloadConfig) CoursesDir() string {
	return filepath.Join(c.BaseDir, "courses")
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath  string        `mapstructure:"database_path" yaml:"database_path"`
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
}

// TaggingConfig controls the post-download ID3 tag pass
type TaggingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Method  string `mapstructure:"method" yaml:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Site: SiteConfig{
			LoginURL:       "https://sso.teachable.com/secure/146684/users",
			SchoolID:       "146684",
			UserAgent:      "course-extract/1.0",
			RequestTimeout: 60 * time.Second,
		},
		Download: DownloadConfig{
			BaseDir:        "$HOME/Downloads/course-extract",
			LogsDir:        "$HOME/Downloads/course-extract/logs",
			Workers:        runtime.NumCPU(),
			ResolveWorkers: 4,
		},
		Queue: QueueConfig{
			DatabasePath:  "$HOME/Downloads/course-extract/runs.db",
			CheckInterval: 10 * time.Second,
		},
		Tagging: TaggingConfig{
			Enabled: false,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
