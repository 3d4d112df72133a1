package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vidpulse/vidpulse/internal/config"
	"github.com/vidpulse/vidpulse/internal/monitor"
	"github.com/vidpulse/vidpulse/internal/store"
	"github.com/vidpulse/vidpulse/pkg/notify"
	"github.com/vidpulse/vidpulse/pkg/sentiment"
	"github.com/vidpulse/vidpulse/pkg/server"
	"github.com/vidpulse/vidpulse/pkg/youtube"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("vidpulse.yaml"); err == nil {
			path = "vidpulse.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func buildClient(cfg *config.Config) (*youtube.Client, error) {
	return youtube.New(cfg.APIKey, youtube.WithFetchDelay(cfg.ParseFetchDelay()))
}

func buildMonitor(cfg *config.Config, client *youtube.Client, db store.Store) *monitor.Monitor {
	scorer := sentiment.NewScorer(cfg.Sentiment)
	evaluator := monitor.NewEvaluator(db, cfg.AlertThresholds)
	notifier := buildNotifier(cfg)

	return monitor.New(client, scorer, db, evaluator, notifier, monitor.Config{
		Interval:    cfg.Interval(),
		MaxComments: cfg.MaxCommentsPerVideo,
		CheckAlerts: cfg.CheckAlerts,
	}, cfg.VideoIDs)
}

func buildNotifier(cfg *config.Config) *notify.Manager {
	var notifiers []notify.Notifier

	n := cfg.Notifications
	if n.Slack.Enabled && n.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlack(n.Slack.WebhookURL))
	}
	if n.Discord.Enabled && n.Discord.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewDiscord(n.Discord.WebhookURL))
	}
	if n.Webhook.Enabled && n.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhook(n.Webhook.URL, n.Webhook.Secret))
	}

	return notify.NewManager(notifiers)
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mon := buildMonitor(cfg, client, db)
	srv := server.New(db, mon, port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runOnce() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mon := buildMonitor(cfg, client, db)
	results := mon.RunCycle(context.Background())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tSTATUS\tCOMMENTS\tAVG\tPOS%\tNEG%\tALERTS")
	for _, r := range results {
		switch r.Status {
		case monitor.StatusSuccess:
			fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.1f\t%.1f\t%d\n",
				r.VideoID, r.Status, r.TotalComments, r.AvgSentiment,
				r.PositivePct, r.NegativePct, r.AlertCount)
		default:
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\n", r.VideoID, r.Status)
		}
	}
	return w.Flush()
}

func runAnalyze(videoID string, maxComments int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	title := videoID
	if video, err := client.VideoInfo(ctx, videoID); err == nil {
		title = video.Title
	}

	comments, err := client.FetchComments(ctx, videoID, maxComments)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}
	if len(comments) == 0 {
		fmt.Printf("%s: no comments found or video not accessible\n", title)
		return nil
	}

	scorer := sentiment.NewScorer(cfg.Sentiment)
	scored := scorer.ScoreAll(comments)
	if len(scored) == 0 {
		fmt.Printf("%s: no scorable comment text\n", title)
		return nil
	}
	summary := scorer.Summarize(scored)

	fmt.Printf("%s\n", title)
	fmt.Printf("  comments:  %d\n", summary.TotalComments)
	fmt.Printf("  sentiment: %.3f\n", summary.AvgSentiment)
	fmt.Printf("  positive:  %d (%.1f%%)\n", summary.PositiveCount, summary.PositivePct())
	fmt.Printf("  negative:  %d (%.1f%%)\n", summary.NegativeCount, summary.NegativePct())
	fmt.Printf("  neutral:   %d (%.1f%%)\n", summary.NeutralCount, summary.NeutralPct())
	return nil
}

func runChannel(channelRef string, limit int, order string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	var videos []youtube.VideoSummary

	if cfg.APIKey == "" {
		// No API key: fall back to the public uploads feed, which only
		// accepts a canonical channel ID.
		videos, err = youtube.NewFeedClient().ChannelUploads(ctx, channelRef)
	} else {
		var client *youtube.Client
		client, err = buildClient(cfg)
		if err != nil {
			return err
		}
		videos, err = client.FetchChannelVideos(ctx, channelRef, limit, order)
	}
	if err != nil {
		return fmt.Errorf("list channel videos: %w", err)
	}

	if len(videos) == 0 {
		fmt.Println("no videos found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tPUBLISHED\tTITLE")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.PublishedAt.Format("2006-01-02"), v.Title)
	}
	return w.Flush()
}

func runHistory(videoID string, hours int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	entries, err := db.History(context.Background(), videoID, since)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("no history recorded (try: vidpulse once)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tAVG\tPOS\tNEG\tNEU\tTOTAL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%.3f\t%d\t%d\t%d\t%d\n",
			e.Timestamp.Format(time.RFC3339), e.AvgSentiment,
			e.PositiveCount, e.NegativeCount, e.NeutralCount, e.TotalComments)
	}
	return w.Flush()
}

func runAlerts(hours int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	alerts, err := db.RecentAlerts(context.Background(), since)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Println("no alerts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tVIDEO\tTYPE\tVALUE\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%s\n",
			a.Timestamp.Format(time.RFC3339), a.VideoID, a.AlertType,
			a.CurrentValue, a.Message)
	}
	return w.Flush()
}
