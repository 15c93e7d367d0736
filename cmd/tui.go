package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/jfmyers9/nowplayer/internal/artwork"
	"github.com/jfmyers9/nowplayer/internal/config"
	"github.com/jfmyers9/nowplayer/internal/history"
	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/jfmyers9/nowplayer/internal/notify"
	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/jfmyers9/nowplayer/internal/tui"
	"github.com/jfmyers9/nowplayer/internal/watch"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive terminal player",
	Long: `Run the interactive terminal player.

The player shows the current track with its artwork, a seek slider with
elapsed and total time, and follows track changes made elsewhere.

Keys:
  space  play/pause          l      pick from library
  n / p  next / previous     u      upload
  ← / →  scrub the slider    enter  release the slider
  r      refresh             q      quit

Logs go to <data_dir>/nowplayer.log unless log.file is set. Changes to
log.level and notify.enabled in the config file apply without a restart.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	var notifier atomic.Pointer[notify.Notifier]

	cfg, watching := config.Watch(func(c *config.Config) {
		zerolog.SetGlobalLevel(parseLevel(c.Log.Level))
		if n := notifier.Load(); n != nil {
			n.SetEnabled(c.Notify.Enabled)
		}
	})
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The TUI owns the terminal, so logs always go to a file
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = filepath.Join(cfg.DataDir, "nowplayer.log")
	}
	logger := setupLogger(logFile, "debug")
	zerolog.SetGlobalLevel(parseLevel(cfg.Log.Level))

	logger.Info().
		Str("version", version).
		Str("backend", cfg.Backend).
		Bool("config_watch", watching).
		Msg("Starting nowplayer")

	client, release, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer release()

	ui := tui.New(tui.Config{
		ScrubStep:      cfg.ScrubStep,
		CommandTimeout: cfg.CommandTimeout,
	}, logger)

	// History writes and desktop notifications are slow, so they run on
	// their own goroutine instead of under the coordinator
	var slow []player.Sink

	if cfg.History.Enabled {
		store, err := history.Open(historyDBPath(cfg.DataDir))
		if err != nil {
			logger.Warn().Err(err).Msg("History disabled")
		} else {
			defer store.Close()
			slow = append(slow, history.NewRecorder(store, logger))
		}
	}

	n := notify.New(cfg.Notify.Enabled, logger)
	notifier.Store(n)
	slow = append(slow, n)

	background := player.Background(player.Tee(slow...), 64)
	defer background.Close()

	coord := player.New(coordinatorConfig(cfg), client, player.Tee(ui, background), logger)
	coord.SetArtworkSource(artwork.NewResolver(cfg.Artwork.Lookup))
	defer coord.Close()
	ui.SetController(coord)

	checkCtx, checkCancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	if err := requireRunning(checkCtx, client); err != nil {
		logger.Warn().Err(err).Msg("Player not running")
		ui.ShowMessage("Player not running", "Start the music player. The track appears here once it is playing.")
	}
	checkCancel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Track changes made outside the TUI and returning to the foreground
	// both re-read the player
	watcher := watch.New(client, cfg.WatchInterval, func(*music.Track) {
		ui.RequestRefresh()
	}, logger)
	go watcher.Run(ctx)
	onResume(ctx, ui.RequestRefresh)

	ui.RequestRefresh()

	if err := ui.Run(ctx); err != nil {
		return err
	}

	logger.Info().Msg("Stopped nowplayer")
	return nil
}

// coordinatorConfig maps the user configuration onto the coordinator's
func coordinatorConfig(cfg *config.Config) player.Config {
	pc := player.DefaultConfig()
	if cfg.EndOfTrackTolerance > 0 {
		pc.EndOfTrackTolerance = cfg.EndOfTrackTolerance
	}
	if cfg.CommandTimeout > 0 {
		pc.CommandTimeout = cfg.CommandTimeout
	}
	if cfg.Library.Limit > 0 {
		pc.LibraryLimit = cfg.Library.Limit
	}
	return pc
}
