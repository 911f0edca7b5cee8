package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/gymvoice/internal/feed"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "GymVoice server URL (e.g. https://gymvoice.tail1234.ts.net)")
	transcripts := flag.String("path", "", "directory of transcript files (*.txt, one utterance per line)")
	apiKey := flag.String("api-key", os.Getenv("GYMVOICE_API_KEY"), "server API key")
	locale := flag.String("locale", "", "locale sent with each utterance (server default if empty)")
	dryRun := flag.Bool("dry-run", false, "read transcripts but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gymvoice-feed", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *transcripts == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymvoice-feed -server <URL> -path <dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*transcripts)
	if err != nil || !info.IsDir() {
		log.Error("transcript directory not found", "path", *transcripts)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := feed.OpenStateDB(filepath.Join(homeDir, ".gymvoice-feed"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode, transcripts will be read but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feeder := feed.New(feed.NewClient(*serverURL, *apiKey), state, *transcripts, *locale, *dryRun, log)
	stats, err := feeder.Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("feed failed", "error", err)
		os.Exit(1)
	}
	log.Info("feed complete")
}

func printStats(stats *feed.Stats) {
	fmt.Println()
	fmt.Println("=== Feed Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files sent:       %d\n", stats.FilesSent)
	fmt.Printf("  Files skipped:    %d (already sent)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Lines sent:       %d\n", stats.LinesSent)
	fmt.Printf("  Applied:          %d\n", stats.LinesApplied)
	fmt.Printf("  Rejected:         %d\n", stats.LinesRejected)
	fmt.Println()
}
