// Package feed delivers transcript files produced by the speech-to-text
// recognizer to the GymVoice server, one utterance per line.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/voice"
)

// Stats tracks feed progress.
type Stats struct {
	FilesTotal   int
	FilesSent    int
	FilesSkipped int
	FilesErrored int

	LinesSent     int
	LinesApplied  int
	LinesRejected int
}

// Sender delivers one utterance and returns its outcome.
type Sender interface {
	SendUtterance(ctx context.Context, text, locale string) (voice.Outcome, error)
}

// Feeder walks a transcript directory and sends every unsent line.
type Feeder struct {
	sender Sender
	state  *StateDB
	dir    string
	locale string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Feeder. locale is sent with every utterance; empty
// leaves the server default.
func New(sender Sender, state *StateDB, dir, locale string, dryRun bool, log *slog.Logger) *Feeder {
	return &Feeder{
		sender: sender,
		state:  state,
		dir:    dir,
		locale: locale,
		dryRun: dryRun,
		log:    log,
	}
}

// Run sends all *.txt transcripts under the directory, in lexical path order.
// A file that fails midway keeps its progress and resumes on the next run.
func (f *Feeder) Run(ctx context.Context) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(f.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &f.stats, fmt.Errorf("walking %s: %w", f.dir, err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &f.stats, err
		}
		f.stats.FilesTotal++
		if err := f.processFile(ctx, path); err != nil {
			f.log.Warn("transcript failed", "file", path, "error", err)
			f.stats.FilesErrored++
		}
	}

	return &f.stats, nil
}

func (f *Feeder) processFile(ctx context.Context, path string) error {
	relPath, _ := filepath.Rel(f.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	progress := Progress{Size: info.Size(), Hash: hash}
	prev, err := f.state.Lookup(relPath)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if prev != nil && prev.Size == progress.Size && prev.Hash == progress.Hash {
		if prev.Complete {
			f.stats.FilesSkipped++
			return nil
		}
		progress.Lines = prev.Lines
	}

	lines, err := readLines(path)
	if err != nil {
		return err
	}

	for i := progress.Lines; i < len(lines); i++ {
		text := lines[i]
		if text == "" || strings.HasPrefix(text, "#") {
			progress.Lines = i + 1
			continue
		}

		if f.dryRun {
			f.log.Info("dry-run: would send", "file", relPath, "line", i+1, "text", text)
			f.stats.LinesSent++
			continue
		}

		out, err := f.sender.SendUtterance(ctx, text, f.locale)
		if err != nil {
			if rerr := f.state.Record(relPath, progress); rerr != nil {
				f.log.Warn("failed to record progress", "file", relPath, "error", rerr)
			}
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		progress.Lines = i + 1
		f.stats.LinesSent++
		if out.Status == models.VoiceApplied {
			f.stats.LinesApplied++
		} else {
			f.stats.LinesRejected++
		}
		f.log.Debug("sent", "file", relPath, "line", i+1, "status", out.Status, "message", out.Message)
	}

	if f.dryRun {
		return nil
	}

	progress.Lines = len(lines)
	progress.Complete = true
	if err := f.state.Record(relPath, progress); err != nil {
		f.log.Warn("failed to mark sent", "file", relPath, "error", err)
	}
	f.stats.FilesSent++
	f.log.Info("sent transcript", "file", relPath, "lines", len(lines))
	return nil
}

func readLines(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer fh.Close()

	var lines []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return lines, nil
}
