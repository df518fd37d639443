package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/app"
	"github.com/yourusername/course-extract-go/internal/domain"
	"github.com/yourusername/course-extract-go/internal/infrastructure"
	"github.com/yourusername/course-extract-go/pkg/logger"
)

var downloadCmd = &cobra.Command{
	Use:   "download [course-name] [course-url]",
	Short: "Download a course in this process",
	Long: `Signs in with SITE_USER / SITE_PASSWORD, extracts the course structure and
downloads every lecture asset into <base_dir>/courses/<course-name>. Files that
already exist are skipped, so an interrupted download can simply be run again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			config.Download.Workers = workers
		}
		if tag, _ := cmd.Flags().GetBool("tag"); tag {
			config.Tagging.Enabled = true
		}

		console, err := logger.New(logger.Config{
			Level:      config.Logging.Level,
			Format:     config.Logging.Format,
			OutputPath: config.Logging.OutputPath,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer console.Sync()

		log := console
		multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Download.LogsDir,
		})
		if err != nil {
			console.Warn("File logging disabled", zap.Error(err))
		} else {
			defer multiLog.Close()
			log = multiLog.Tee(console, logger.CategoryRun)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := app.BuildPipeline(config, log).Execute(ctx, args[0], args[1])
		if report != nil && report.CourseDir != "" {
			fmt.Printf("Course folder: %s\n", report.CourseDir)
		}
		if report != nil {
			fmt.Printf("Summary: %s\n", report.Summary)
		}
		return err
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag [folder]",
	Short: "Write ID3 tags derived from file names to the mp3 files of a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewDefault()
		defer log.Sync()

		n, err := infrastructure.NewID3Tagger(afero.NewOsFs(), log).TagFolder(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Tagged %d file(s)\n", n)
		return nil
	},
}

var listLecturesCmd = &cobra.Command{
	Use:   "list-lectures [course-page.html]",
	Short: "Print the lecture file names found in a saved course page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		if sidebar, _ := cmd.Flags().GetBool("sidebar"); sidebar {
			entries, err := infrastructure.ExtractSidebarIndex(body)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "NAME\tHREF")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Href)
			}
			return nil
		}

		structure, issues, err := infrastructure.ExtractStructure(body)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "warning: %v\n", issue)
		}
		lectures, duplicates := structure.Lectures()
		for _, id := range duplicates {
			fmt.Fprintf(os.Stderr, "warning: duplicate lecture id %s\n", id)
		}

		fmt.Fprintln(w, "ID\tFILE NAME")
		for _, l := range lectures {
			fmt.Fprintf(w, "%s\t%s\n", l.ID, l.FileName())
		}
		if prefix, err := infrastructure.ExtractLecturePagePrefix(body); err == nil {
			fmt.Fprintf(w, "\nlecture pages:\t%s/<id>\n", prefix)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".course-extract", "config.yaml")
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", path)
		fmt.Println("Set SITE_USER and SITE_PASSWORD in the environment to sign in.")
		return nil
	},
}

func init() {
	downloadCmd.Flags().IntP("workers", "w", 0, "Parallel downloads (default from config)")
	downloadCmd.Flags().Bool("tag", false, "Tag mp3 files after downloading")
	listLecturesCmd.Flags().Bool("sidebar", false, "Use the lecture sidebar index instead of the section list")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
