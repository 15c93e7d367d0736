package music

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	fieldSep  = "|||"
	recordSep = "<<<>>>"
)

// AppleScriptClient implements the Client interface using AppleScript to drive Apple Music
type AppleScriptClient struct{}

// NewAppleScriptClient creates a new AppleScript-based music client
func NewAppleScriptClient() *AppleScriptClient {
	return &AppleScriptClient{}
}

// run executes a script and returns its trimmed output
func (c *AppleScriptClient) run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("osascript error: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to execute osascript: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRunning checks if the Music app is currently running
func (c *AppleScriptClient) IsRunning(ctx context.Context) (bool, error) {
	result, err := c.run(ctx, `tell application "System Events" to (name of processes) contains "Music"`)
	if err != nil {
		return false, fmt.Errorf("failed to check if Music is running: %w", err)
	}
	return result == "true", nil
}

// GetCurrentTrack returns the currently playing or paused track from Apple Music.
// Running check and track query share one osascript call.
func (c *AppleScriptClient) GetCurrentTrack(ctx context.Context) (*Track, error) {
	script := `
tell application "System Events"
	if not ((name of processes) contains "Music") then
		return "not_running"
	end if
end tell
tell application "Music"
	if player state is stopped then
		return "stopped"
	else
		set trackID to persistent ID of current track
		set trackName to name of current track
		set trackArtist to artist of current track
		set trackAlbum to album of current track
		set trackDuration to duration of current track
		set playerPos to player position
		set playerState to player state as string

		return trackID & "|||" & trackName & "|||" & trackArtist & "|||" & trackAlbum & "|||" & trackDuration & "|||" & playerPos & "|||" & playerState
	end if
end tell`

	result, err := c.run(ctx, script)
	if err != nil {
		return nil, err
	}

	if result == "not_running" || result == "stopped" {
		return nil, nil
	}

	track, err := parseTrackOutput(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse track output: %w", err)
	}
	return track, nil
}

// parseTrackOutput parses the delimited output from the current track script
func parseTrackOutput(output string) (*Track, error) {
	parts := strings.Split(output, fieldSep)
	if len(parts) != 7 {
		return nil, fmt.Errorf("expected 7 parts, got %d: %q", len(parts), output)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	durationSec, err := parseSeconds(parts[4])
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration %q: %w", parts[4], err)
	}

	positionSec, err := parseSeconds(parts[5])
	if err != nil {
		return nil, fmt.Errorf("failed to parse position %q: %w", parts[5], err)
	}

	var state PlayState
	switch parts[6] {
	case "playing":
		state = StatePlaying
	case "paused":
		state = StatePaused
	case "stopped":
		state = StateStopped
	default:
		return nil, fmt.Errorf("unknown player state: %q", parts[6])
	}

	return &Track{
		ID:       parts[0],
		Name:     parts[1],
		Artist:   parts[2],
		Album:    parts[3],
		Duration: secondsToDuration(durationSec),
		Position: secondsToDuration(positionSec),
		State:    state,
	}, nil
}

// parseSeconds accepts both "12.5" and the "12,5" that AppleScript prints
// under locales with a decimal comma
func parseSeconds(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// Position returns the player position of the current track
func (c *AppleScriptClient) Position(ctx context.Context) (time.Duration, error) {
	result, err := c.run(ctx, `tell application "Music" to get player position`)
	if err != nil {
		return 0, fmt.Errorf("failed to get player position: %w", err)
	}
	if result == "" || result == "missing value" {
		return 0, nil
	}
	seconds, err := parseSeconds(result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse position %q: %w", result, err)
	}
	return secondsToDuration(seconds), nil
}

// Play resumes playback in Apple Music
func (c *AppleScriptClient) Play(ctx context.Context) error {
	if _, err := c.run(ctx, `tell application "Music" to play`); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return nil
}

// Pause pauses playback in Apple Music
func (c *AppleScriptClient) Pause(ctx context.Context) error {
	if _, err := c.run(ctx, `tell application "Music" to pause`); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

// PlayPause toggles between play and pause in Apple Music
func (c *AppleScriptClient) PlayPause(ctx context.Context) error {
	if _, err := c.run(ctx, `tell application "Music" to playpause`); err != nil {
		return fmt.Errorf("failed to playpause: %w", err)
	}
	return nil
}

// NextTrack skips to the next track in Apple Music
func (c *AppleScriptClient) NextTrack(ctx context.Context) error {
	if _, err := c.run(ctx, `tell application "Music" to next track`); err != nil {
		return fmt.Errorf("failed to skip to next track: %w", err)
	}
	return nil
}

// PreviousTrack goes back to the previous track in Apple Music
func (c *AppleScriptClient) PreviousTrack(ctx context.Context) error {
	if _, err := c.run(ctx, `tell application "Music" to back track`); err != nil {
		return fmt.Errorf("failed to go to previous track: %w", err)
	}
	return nil
}

// SetPosition moves the player position of the current track
func (c *AppleScriptClient) SetPosition(ctx context.Context, position time.Duration) error {
	script := fmt.Sprintf(`tell application "Music" to set player position to %s`,
		strconv.FormatFloat(position.Seconds(), 'f', 3, 64))
	if _, err := c.run(ctx, script); err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}
	return nil
}

// SetShuffle enables or disables shuffle mode in Apple Music
func (c *AppleScriptClient) SetShuffle(ctx context.Context, enabled bool) error {
	script := fmt.Sprintf(`tell application "Music" to set shuffle enabled to %t`, enabled)
	if _, err := c.run(ctx, script); err != nil {
		return fmt.Errorf("failed to set shuffle: %w", err)
	}
	return nil
}

// SetVolume sets the playback volume in Apple Music (0-100)
func (c *AppleScriptClient) SetVolume(ctx context.Context, level int) error {
	if err := checkVolume(level); err != nil {
		return err
	}
	script := fmt.Sprintf(`tell application "Music" to set sound volume to %d`, level)
	if _, err := c.run(ctx, script); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// Library lists the first limit tracks of the user's library
func (c *AppleScriptClient) Library(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 200
	}
	script := fmt.Sprintf(`
tell application "Music"
	set output to ""
	set libTracks to tracks of library playlist 1
	set maxCount to count of libTracks
	if maxCount > %d then set maxCount to %d
	repeat with i from 1 to maxCount
		set t to item i of libTracks
		set output to output & (persistent ID of t) & "|||" & (name of t) & "|||" & (artist of t) & "<<<>>>"
	end repeat
	return output
end tell`, limit, limit)

	result, err := c.run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	return parseLibraryOutput(result)
}

// parseLibraryOutput parses the record-delimited output of the library script
func parseLibraryOutput(output string) ([]Item, error) {
	var items []Item
	for _, record := range strings.Split(output, recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		parts := strings.Split(record, fieldSep)
		if len(parts) != 3 {
			return nil, fmt.Errorf("expected 3 parts, got %d: %q", len(parts), record)
		}
		items = append(items, Item{
			ID:     strings.TrimSpace(parts[0]),
			Name:   strings.TrimSpace(parts[1]),
			Artist: strings.TrimSpace(parts[2]),
			Kind:   "track",
		})
	}
	return items, nil
}

// PlayItem starts playback of a library track by persistent ID
func (c *AppleScriptClient) PlayItem(ctx context.Context, item Item) error {
	if item.ID == "" {
		return fmt.Errorf("library item %q has no persistent ID", item.Name)
	}
	script := fmt.Sprintf(`tell application "Music" to play (first track of library playlist 1 whose persistent ID is %q)`, item.ID)
	if _, err := c.run(ctx, script); err != nil {
		return fmt.Errorf("failed to play %q: %w", item.Name, err)
	}
	return nil
}
