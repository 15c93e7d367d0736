package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jfmyers9/nowplayer/internal/history"
	"github.com/jfmyers9/nowplayer/internal/timefmt"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently played tracks",
	Long: `List the tracks recently shown by 'nowplayer tui', newest first.

Plays are stored in <data_dir>/history.db. Use --prune to delete plays
older than the given age.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of plays to list (0=all)")
	historyCmd.Flags().Duration("prune", 0, "Delete plays older than this age (e.g. 720h) before listing")
}

// historyDBPath returns the history database location inside dataDir
func historyDBPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(historyDBPath(cfg.DataDir))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if prune, _ := cmd.Flags().GetDuration("prune"); prune > 0 {
		deleted, err := store.Cleanup(ctx, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %s plays\n", humanize.Comma(deleted))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	plays, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	writeHistory(cmd.OutOrStdout(), plays, total, time.Now())
	return nil
}

const historyTitleWidth = 40

// writeHistory prints one play per line: when, length, title and artist.
// total is the number of stored plays; a footer says when more exist.
func writeHistory(w io.Writer, plays []history.Play, total int, now time.Time) {
	if len(plays) == 0 {
		fmt.Fprintln(w, "No plays recorded yet")
		return
	}

	for _, p := range plays {
		length, err := timefmt.Duration(p.Duration)
		if err != nil {
			length = "-:--"
		}
		when := humanize.RelTime(p.PlayedAt, now, "ago", "from now")
		fmt.Fprintf(w, "%-16s %6s  %s  %s\n",
			when,
			length,
			padToWidth(p.TrackName, historyTitleWidth),
			runewidth.Truncate(p.Artist, 30, "..."),
		)
	}

	if total > len(plays) {
		fmt.Fprintf(w, "\nShowing %d of %s plays\n", len(plays), humanize.Comma(int64(total)))
	}
}
