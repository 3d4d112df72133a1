package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidpulse",
		Short: "Monitor YouTube comment sentiment over time",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./vidpulse.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(onceCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(channelCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(alertsCmd())

	return root
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the monitoring daemon with the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP API port (default: from config)")
	return cmd
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single monitoring cycle and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce()
		},
	}
}

func analyzeCmd() *cobra.Command {
	var maxComments int

	cmd := &cobra.Command{
		Use:   "analyze <video-id>",
		Short: "One-shot sentiment analysis of a video's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0], maxComments)
		},
	}

	cmd.Flags().IntVar(&maxComments, "max-comments", 100, "max comments to analyze")
	return cmd
}

func channelCmd() *cobra.Command {
	var (
		limit int
		order string
	)

	cmd := &cobra.Command{
		Use:   "channel <channel-id|@handle|url>",
		Short: "List a channel's videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannel(args[0], limit, order)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "max videos to list")
	cmd.Flags().StringVar(&order, "order", "date", "sort order (date, rating, relevance, title, viewCount)")
	return cmd
}

func historyCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "history <video-id>",
		Short: "Show the stored sentiment history of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(args[0], hours)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "hours of history to show")
	return cmd
}

func alertsCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlerts(hours)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "hours of alerts to show")
	return cmd
}
