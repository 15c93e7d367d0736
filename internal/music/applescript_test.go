package music

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

// TestAppleScriptClient_Integration runs against the real Music app
func TestAppleScriptClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if runtime.GOOS != "darwin" {
		t.Skip("Apple Music is only available on macOS")
	}

	client := NewAppleScriptClient()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	running, err := client.IsRunning(ctx)
	if err != nil {
		t.Fatalf("IsRunning() failed: %v", err)
	}
	if !running {
		t.Skip("Music app is not running")
	}

	track, err := client.GetCurrentTrack(ctx)
	if err != nil {
		t.Fatalf("GetCurrentTrack() failed: %v", err)
	}
	if track == nil {
		t.Log("No track currently playing")
		return
	}

	if track.Duration <= 0 {
		t.Errorf("Invalid track duration: %v", track.Duration)
	}
	if track.Position > track.Duration {
		t.Errorf("Position (%v) exceeds duration (%v)", track.Position, track.Duration)
	}
	t.Logf("Current track: %s - %s (%v/%v, %v)", track.Artist, track.Name, track.Position, track.Duration, track.State)
}

func TestParseTrackOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Track
		wantErr bool
	}{
		{
			name:  "valid playing track",
			input: "A1B2|||Bohemian Rhapsody|||Queen|||A Night at the Opera|||354.0|||120.5|||playing",
			want: &Track{
				ID:       "A1B2",
				Name:     "Bohemian Rhapsody",
				Artist:   "Queen",
				Album:    "A Night at the Opera",
				Duration: 354 * time.Second,
				Position: 120*time.Second + 500*time.Millisecond,
				State:    StatePlaying,
			},
		},
		{
			name:  "paused track with decimal comma",
			input: "C3D4|||Stairway to Heaven|||Led Zeppelin|||Led Zeppelin IV|||482,0|||45,25|||paused",
			want: &Track{
				ID:       "C3D4",
				Name:     "Stairway to Heaven",
				Artist:   "Led Zeppelin",
				Album:    "Led Zeppelin IV",
				Duration: 482 * time.Second,
				Position: 45*time.Second + 250*time.Millisecond,
				State:    StatePaused,
			},
		},
		{
			name:  "track with empty album",
			input: "E5|||Test Track|||Test Artist||||||180.0|||60.0|||playing",
			want: &Track{
				ID:       "E5",
				Name:     "Test Track",
				Artist:   "Test Artist",
				Duration: 180 * time.Second,
				Position: 60 * time.Second,
				State:    StatePlaying,
			},
		},
		{
			name:    "invalid - wrong number of parts",
			input:   "Track|||Artist|||Album",
			wantErr: true,
		},
		{
			name:    "invalid - bad duration",
			input:   "X|||Track|||Artist|||Album|||bad|||60.0|||playing",
			wantErr: true,
		},
		{
			name:    "invalid - bad position",
			input:   "X|||Track|||Artist|||Album|||180.0|||bad|||playing",
			wantErr: true,
		},
		{
			name:    "invalid - unknown state",
			input:   "X|||Track|||Artist|||Album|||180.0|||60.0|||rewinding",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTrackOutput(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("parseTrackOutput() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTrackOutput() unexpected error: %v", err)
			}
			if *got != *tt.want {
				t.Errorf("parseTrackOutput() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestParseLibraryOutput(t *testing.T) {
	output := "ID1|||Song One|||Artist A<<<>>>ID2|||Song Two|||<<<>>>"

	items, err := parseLibraryOutput(output)
	if err != nil {
		t.Fatalf("parseLibraryOutput() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0] != (Item{ID: "ID1", Name: "Song One", Artist: "Artist A", Kind: "track"}) {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Label() != "Song Two" {
		t.Errorf("items[1].Label() = %q, want %q", items[1].Label(), "Song Two")
	}
	if items[0].Label() != "Artist A - Song One" {
		t.Errorf("items[0].Label() = %q", items[0].Label())
	}

	if items, err := parseLibraryOutput(""); err != nil || len(items) != 0 {
		t.Errorf("empty output = %v, %v; want no items", items, err)
	}
	if _, err := parseLibraryOutput("broken<<<>>>"); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestPlayState_String(t *testing.T) {
	tests := []struct {
		state PlayState
		want  string
	}{
		{StateStopped, "stopped"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{PlayState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("PlayState.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSameTrack(t *testing.T) {
	a := &Track{ID: "1", Name: "Song", Artist: "Artist", Album: "Album"}
	tests := []struct {
		name string
		t1   *Track
		t2   *Track
		want bool
	}{
		{"nil", nil, a, false},
		{"same id", a, &Track{ID: "1", Name: "Renamed"}, true},
		{"different id", a, &Track{ID: "2", Name: "Song", Artist: "Artist", Album: "Album"}, false},
		{"metadata match without ids", &Track{Name: "Song", Artist: "Artist"}, &Track{Name: "Song", Artist: "Artist"}, true},
		{"metadata mismatch", &Track{Name: "Song"}, &Track{Name: "Other"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameTrack(tt.t1, tt.t2); got != tt.want {
				t.Errorf("SameTrack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New("winamp", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("New(winamp) error = %v, want ErrUnknownBackend", err)
	}
	c, err := New(BackendAppleScript, Options{})
	if err != nil {
		t.Fatalf("New(applescript) error: %v", err)
	}
	if _, ok := c.(*AppleScriptClient); !ok {
		t.Errorf("New(applescript) = %T, want *AppleScriptClient", c)
	}
}
