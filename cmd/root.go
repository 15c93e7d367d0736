package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jfmyers9/nowplayer/internal/config"
	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var backendFlag string

// errNotRunning is returned when no player is available to control
var errNotRunning = errors.New("no music player is running")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nowplayer",
	Short: "Terminal front-end for the system music player",
	Long: `nowplayer controls the system music player from the terminal.

It drives Apple Music through AppleScript on macOS and any MPRIS player
(Spotify, Rhythmbox, mpv, ...) over D-Bus on Linux.

Run 'nowplayer tui' for the interactive player with a seek slider and
library picker, or use the one-shot commands (play, pause, next, seek,
now, ...) from scripts and status bars.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "",
		"Player backend: auto, applescript or mpris (overrides config)")
}

// loadConfig reads the configuration and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	return cfg, nil
}

// newClient connects to the configured player backend. The returned func
// releases the connection.
func newClient(cfg *config.Config) (music.Client, func(), error) {
	client, err := music.New(cfg.Backend, music.Options{MPRISPlayer: cfg.MPRIS.Player})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to player: %w", err)
	}

	release := func() {}
	if c, ok := client.(io.Closer); ok {
		release = func() { _ = c.Close() }
	}
	return client, release, nil
}

// withClient runs fn against the configured player with the command timeout
func withClient(fn func(ctx context.Context, client music.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, release, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	if err := requireRunning(ctx, client); err != nil {
		return err
	}
	return fn(ctx, client)
}

// requireRunning returns errNotRunning when the player application is not up.
// A failed check is not fatal; the command itself will report the problem.
func requireRunning(ctx context.Context, client interface {
	IsRunning(ctx context.Context) (bool, error)
}) error {
	running, err := client.IsRunning(ctx)
	if err != nil {
		return nil
	}
	if !running {
		return errNotRunning
	}
	return nil
}
