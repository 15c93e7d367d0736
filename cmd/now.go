package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/jfmyers9/nowplayer/internal/timefmt"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the currently playing track",
	Long: `Query the player and print the currently playing track.

The output format can be customized in ~/.config/nowplayer/config.yaml
(output_format) using a Go template. Available fields:
  .Name .Artist .Album .Elapsed .Total .Status

Exit codes:
  0 - Track is currently playing
  1 - No track playing, paused, or player not running`,
	Args: cobra.NoArgs,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width in columns (0=disabled)")
}

// nowView is the data available to the now output template
type nowView struct {
	Name    string
	Artist  string
	Album   string
	Elapsed string
	Total   string
	Status  string
}

func runNow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if formatFlag, _ := cmd.Flags().GetString("format"); formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	client, release, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	if err := requireRunning(ctx, client); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}

	track, err := client.GetCurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}

	// Nothing playing is reported through the exit code only
	if track == nil || track.State != music.StatePlaying {
		os.Exit(1)
	}

	view, err := newNowView(track)
	if err != nil {
		return err
	}

	output, err := formatTrack(view, cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	width, _ := cmd.Flags().GetInt("width")
	fmt.Fprintln(cmd.OutOrStdout(), padToWidth(output, width))
	return nil
}

// newNowView formats track times the same way the player shows them
func newNowView(track *music.Track) (nowView, error) {
	elapsed, err := timefmt.Duration(track.Position)
	if err != nil {
		return nowView{}, fmt.Errorf("invalid position: %w", err)
	}
	total, err := timefmt.Duration(track.Duration)
	if err != nil {
		return nowView{}, fmt.Errorf("invalid duration: %w", err)
	}

	return nowView{
		Name:    track.Name,
		Artist:  track.Artist,
		Album:   track.Album,
		Elapsed: elapsed,
		Total:   total,
		Status:  track.State.String(),
	}, nil
}

// formatTrack applies the template to the view
func formatTrack(view nowView, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width, measured in
// terminal columns. Truncated text ends in "...". width <= 0 disables it.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."

	if runewidth.StringWidth(text) > width {
		if width <= len(ellipsis) {
			return ellipsis[:width]
		}
		text = runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	}

	// Wide runes can leave truncated text one column short
	if w := runewidth.StringWidth(text); w < width {
		text += strings.Repeat(" ", width-w)
	}
	return text
}
