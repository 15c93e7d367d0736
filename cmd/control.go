package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/jfmyers9/nowplayer/internal/timefmt"
	"github.com/spf13/cobra"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback",
	Long:  `Resume playback. If paused, starts playing the current track.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transport("play", music.Client.Play)
	},
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause playback. The current track stays loaded.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transport("pause", music.Client.Pause)
	},
}

// playpauseCmd represents the playpause command
var playpauseCmd = &cobra.Command{
	Use:   "playpause",
	Short: "Toggle play/pause",
	Long:  `Toggle between play and pause. If playing, pauses. If paused, resumes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transport("playpause", music.Client.PlayPause)
	},
}

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track",
	Long:  `Skip to the next track in the current playlist or queue.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transport("skip to next track", music.Client.NextTrack)
	},
}

// prevCmd represents the prev command
var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track",
	Long:  `Go to the previous track in the current playlist or queue.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transport("go to previous track", music.Client.PreviousTrack)
	},
}

// seekCmd represents the seek command
var seekCmd = &cobra.Command{
	Use:   "seek <M:SS|seconds>",
	Short: "Move to a position in the current track",
	Long: `Move the playback position of the current track.

The position is either M:SS ("1:05") or a number of seconds ("65").`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

// shuffleCmd represents the shuffle command
var shuffleCmd = &cobra.Command{
	Use:   "shuffle <on|off>",
	Short: "Set shuffle mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runShuffle,
}

// volumeCmd represents the volume command
var volumeCmd = &cobra.Command{
	Use:   "volume <0-100>",
	Short: "Set playback volume",
	Long: `Set the playback volume.

Volume level must be between 0 (muted) and 100 (maximum).`,
	Args: cobra.ExactArgs(1),
	RunE: runVolume,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(playpauseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(volumeCmd)
}

// transport runs a single argument-less player command
func transport(name string, op func(music.Client, context.Context) error) error {
	return withClient(func(ctx context.Context, client music.Client) error {
		if err := op(client, ctx); err != nil {
			return fmt.Errorf("failed to %s: %w", name, err)
		}
		return nil
	})
}

func runSeek(cmd *cobra.Command, args []string) error {
	seconds, err := timefmt.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid position %q (use M:SS or seconds): %w", args[0], err)
	}

	return withClient(func(ctx context.Context, client music.Client) error {
		position := time.Duration(seconds * float64(time.Second))
		if err := client.SetPosition(ctx, position); err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
		return nil
	})
}

// parseShuffle accepts on/off
func parseShuffle(arg string) (bool, error) {
	switch arg {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid shuffle argument: %s (must be 'on' or 'off')", arg)
	}
}

func runShuffle(cmd *cobra.Command, args []string) error {
	enabled, err := parseShuffle(args[0])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, client music.Client) error {
		if err := client.SetShuffle(ctx, enabled); err != nil {
			return fmt.Errorf("failed to set shuffle: %w", err)
		}
		return nil
	})
}

func runVolume(cmd *cobra.Command, args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid volume level: %s (must be a number 0-100)", args[0])
	}

	return withClient(func(ctx context.Context, client music.Client) error {
		if err := client.SetVolume(ctx, level); err != nil {
			return fmt.Errorf("failed to set volume: %w", err)
		}
		return nil
	})
}
