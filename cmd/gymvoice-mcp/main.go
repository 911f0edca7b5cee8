package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/gymvoice/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("GYMVOICE_SERVER"), "GymVoice server URL (e.g. https://gymvoice.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("GYMVOICE_API_KEY"), "API key for write tools")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gymvoice-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymvoice-mcp -server <URL> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *apiKey), Version, log)
	log.Info("mcp stdio starting", "server", *serverURL)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp stdio failed", "error", err)
		os.Exit(1)
	}
}
