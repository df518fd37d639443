package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/course-extract-go/internal/domain"
)

var (
	serverURL   string
	configPath  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "course-extract",
		Short: "Course-Extract CLI - download every lecture of an online course",
		Long: `A command-line interface that signs in to a course site, discovers the
sections and lectures of a course and downloads their media in course order.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./configs/config.yaml or ~/.course-extract/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	// local commands
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(listLecturesCmd)
	rootCmd.AddCommand(configCmd)

	// server commands
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var submitCmd = &cobra.Command{
	Use:   "submit [course-name] [course-url]",
	Short: "Queue a course run on the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var run domain.Run
		if err := newAPIClient(serverURL).post("/api/v1/runs",
			map[string]string{"course_name": args[0], "course_url": args[1]}, &run); err != nil {
			return err
		}

		fmt.Printf("Run queued successfully!\n")
		fmt.Printf("ID: %s\n", run.ID)
		fmt.Printf("Status: %s\n", run.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		query := map[string]string{}
		if status != "" {
			query["status"] = status
		}

		var runs []domain.Run
		if err := newAPIClient(serverURL).get("/api/v1/runs", query, &runs); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOURSE\tSTATUS\tDOWNLOADED\tFAILED\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				truncate(r.ID, 8),
				truncate(r.CourseName, 40),
				r.Status,
				r.Downloaded,
				r.Failed,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var stats map[string]interface{}
		if err := newAPIClient(serverURL).get("/api/v1/runs/stats", nil, &stats); err != nil {
			return err
		}

		fmt.Println("Run Statistics:")
		fmt.Printf("  Total:      %v\n", stats["total"])
		fmt.Printf("  Queued:     %v\n", stats["queued"])
		fmt.Printf("  Processing: %v\n", stats["processing"])
		fmt.Printf("  Completed:  %v\n", stats["completed"])
		fmt.Printf("  Failed:     %v\n", stats["failed"])
		fmt.Printf("  Cancelled:  %v\n", stats["cancelled"])
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get run details and per-lecture outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var detail runDetailView
		if err := newAPIClient(serverURL).get("/api/v1/runs/"+args[0]+"/items", nil, &detail); err != nil {
			return err
		}

		fmt.Printf("Run Details:\n")
		fmt.Printf("  ID:       %s\n", detail.ID)
		fmt.Printf("  Course:   %s\n", detail.CourseName)
		fmt.Printf("  URL:      %s\n", detail.CourseURL)
		fmt.Printf("  Status:   %s\n", detail.Status)
		fmt.Printf("  Created:  %s\n", detail.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Summary:  lectures=%d resolved=%d skipped=%d downloaded=%d already_present=%d failed=%d\n",
			detail.Lectures, detail.Resolved, detail.Skipped, detail.Downloaded, detail.AlreadyPresent, detail.Failed)
		if detail.ErrorMessage != "" {
			fmt.Printf("  Error:    %s\n", detail.ErrorMessage)
		}

		if len(detail.Items) == 0 {
			return nil
		}
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LECTURE\tFILE\tOUTCOME\tERROR")
		for _, item := range detail.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.LectureID, item.FileName, item.Outcome, truncate(item.Error, 60))
		}
		return w.Flush()
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued or running run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		if err := newAPIClient(serverURL).post("/api/v1/runs/"+args[0]+"/cancel", nil, nil); err != nil {
			return err
		}
		fmt.Println("Run cancelled successfully")
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Queue a finished run again; files already on disk are skipped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		if err := newAPIClient(serverURL).post("/api/v1/runs/"+args[0]+"/retry", nil, nil); err != nil {
			return err
		}
		fmt.Println("Run queued for retry")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show recent server log entries (run, queue, error)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")

		path := "/api/v1/logs/" + args[0]
		query := map[string]string{"limit": fmt.Sprint(limit)}
		if search != "" {
			path += "/search"
			query["q"] = search
		}

		var result logsView
		if err := newAPIClient(serverURL).get(path, query, &result); err != nil {
			return err
		}
		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries")
	logsCmd.Flags().StringP("search", "q", "", "Only show entries containing this text")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
