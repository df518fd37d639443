package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/course-extract-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.course-extract")
	}

	v.SetEnvPrefix("COURSEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; bind every key so env
	// overrides work without a config file.
	bindDefaults(v, config)

	// Credentials also come from the conventional variables
	if err := v.BindEnv("site.username", "COURSEX_SITE_USERNAME", "SITE_USER"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("site.password", "COURSEX_SITE_PASSWORD", "SITE_PASSWORD"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func bindDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("site.login_url", config.Site.LoginURL)
	v.SetDefault("site.school_id", config.Site.SchoolID)
	v.SetDefault("site.user_agent", config.Site.UserAgent)
	v.SetDefault("site.request_timeout", config.Site.RequestTimeout)
	v.SetDefault("download.base_dir", config.Download.BaseDir)
	v.SetDefault("download.logs_dir", config.Download.LogsDir)
	v.SetDefault("download.workers", config.Download.Workers)
	v.SetDefault("download.resolve_workers", config.Download.ResolveWorkers)
	v.SetDefault("queue.database_path", config.Queue.DatabasePath)
	v.SetDefault("queue.check_interval", config.Queue.CheckInterval)
	v.SetDefault("tagging.enabled", config.Tagging.Enabled)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if config.Download.ResolveWorkers < 1 {
		return fmt.Errorf("resolve workers must be at least 1")
	}

	if config.Site.LoginURL == "" {
		return fmt.Errorf("site login url not configured")
	}

	if config.Site.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file. Credentials are never written.
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", config.Server)
	v.Set("site", map[string]interface{}{
		"login_url":       config.Site.LoginURL,
		"school_id":       config.Site.SchoolID,
		"user_agent":      config.Site.UserAgent,
		"request_timeout": config.Site.RequestTimeout.String(),
	})
	v.Set("download", config.Download)
	v.Set("queue", map[string]interface{}{
		"database_path":  config.Queue.DatabasePath,
		"check_interval": config.Queue.CheckInterval.String(),
	})
	v.Set("tagging", config.Tagging)
	v.Set("notification", config.Notification)
	v.Set("logging", config.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
