package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix             = "org.mpris.MediaPlayer2."
	mprisObjectPath         = "/org/mpris/MediaPlayer2"
	mprisPlayerInterface    = "org.mpris.MediaPlayer2.Player"
	mprisPlaylistsInterface = "org.mpris.MediaPlayer2.Playlists"
	dbusPropertiesGet       = "org.freedesktop.DBus.Properties.Get"
	dbusPropertiesSet       = "org.freedesktop.DBus.Properties.Set"
)

// MPRISClient implements the Client interface for any MPRIS-capable player
// on the D-Bus session bus
type MPRISClient struct {
	conn   *dbus.Conn
	player string // fixed bus name, empty to discover

	mu      sync.Mutex
	trackID dbus.ObjectPath // trackid of the last metadata read, needed by SetPosition
}

// NewMPRISClient connects to the session bus. player is the bus name of the
// player to control (with or without the org.mpris.MediaPlayer2. prefix);
// empty selects the first MPRIS player on the bus at each call.
func NewMPRISClient(player string) (*MPRISClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if player != "" && !strings.HasPrefix(player, mprisPrefix) {
		player = mprisPrefix + player
	}

	return &MPRISClient{conn: conn, player: player}, nil
}

// Close releases the D-Bus connection
func (c *MPRISClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// busName returns the player to talk to
func (c *MPRISClient) busName(ctx context.Context) (string, error) {
	if c.player != "" {
		return c.player, nil
	}

	var names []string
	if err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", fmt.Errorf("failed to list bus names: %w", err)
	}

	if name := firstPlayer(names); name != "" {
		return name, nil
	}
	return "", ErrNoPlayer
}

// firstPlayer picks the first MPRIS name in sorted bus order
func firstPlayer(names []string) string {
	best := ""
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	return best
}

func (c *MPRISClient) object(ctx context.Context) (dbus.BusObject, error) {
	name, err := c.busName(ctx)
	if err != nil {
		return nil, err
	}
	return c.conn.Object(name, dbus.ObjectPath(mprisObjectPath)), nil
}

func (c *MPRISClient) getProperty(ctx context.Context, iface, prop string) (dbus.Variant, error) {
	obj, err := c.object(ctx)
	if err != nil {
		return dbus.Variant{}, err
	}

	var v dbus.Variant
	if err := obj.CallWithContext(ctx, dbusPropertiesGet, 0, iface, prop).Store(&v); err != nil {
		return dbus.Variant{}, fmt.Errorf("failed to get %s: %w", prop, err)
	}
	return v, nil
}

func (c *MPRISClient) setProperty(ctx context.Context, iface, prop string, value interface{}) error {
	obj, err := c.object(ctx)
	if err != nil {
		return err
	}
	if err := obj.CallWithContext(ctx, dbusPropertiesSet, 0, iface, prop, dbus.MakeVariant(value)).Err; err != nil {
		return fmt.Errorf("failed to set %s: %w", prop, err)
	}
	return nil
}

func (c *MPRISClient) call(ctx context.Context, method string, args ...interface{}) error {
	obj, err := c.object(ctx)
	if err != nil {
		return err
	}
	return obj.CallWithContext(ctx, mprisPlayerInterface+"."+method, 0, args...).Err
}

// IsRunning reports whether a controllable player is on the bus
func (c *MPRISClient) IsRunning(ctx context.Context) (bool, error) {
	name, err := c.busName(ctx)
	if errors.Is(err, ErrNoPlayer) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var owned bool
	if err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", name, err)
	}
	return owned, nil
}

// GetCurrentTrack returns the player's current track, or nil when stopped
func (c *MPRISClient) GetCurrentTrack(ctx context.Context) (*Track, error) {
	status, err := c.getProperty(ctx, mprisPlayerInterface, "PlaybackStatus")
	if errors.Is(err, ErrNoPlayer) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	metadata, err := c.getProperty(ctx, mprisPlayerInterface, "Metadata")
	if err != nil {
		return nil, err
	}

	position, err := c.Position(ctx)
	if err != nil {
		return nil, err
	}

	meta, _ := metadata.Value().(map[string]dbus.Variant)
	statusStr, _ := status.Value().(string)
	track := trackFromMetadata(meta, statusStr, position)
	if track == nil {
		return nil, nil
	}

	c.mu.Lock()
	c.trackID = trackIDFromMetadata(meta)
	c.mu.Unlock()

	return track, nil
}

// trackFromMetadata maps MPRIS metadata to a Track. Returns nil for a
// stopped player or empty metadata.
func trackFromMetadata(meta map[string]dbus.Variant, status string, position time.Duration) *Track {
	var state PlayState
	switch status {
	case "Playing":
		state = StatePlaying
	case "Paused":
		state = StatePaused
	default:
		return nil
	}

	title := variantString(meta["xesam:title"])
	if title == "" {
		return nil
	}

	return &Track{
		ID:         string(trackIDFromMetadata(meta)),
		Name:       title,
		Artist:     variantStrings(meta["xesam:artist"]),
		Album:      variantString(meta["xesam:album"]),
		Duration:   time.Duration(variantInt64(meta["mpris:length"])) * time.Microsecond,
		Position:   position,
		State:      state,
		ArtworkURL: variantString(meta["mpris:artUrl"]),
	}
}

func trackIDFromMetadata(meta map[string]dbus.Variant) dbus.ObjectPath {
	switch v := meta["mpris:trackid"].Value().(type) {
	case dbus.ObjectPath:
		return v
	case string:
		return dbus.ObjectPath(v)
	}
	return ""
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func variantStrings(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case []string:
		return strings.Join(val, ", ")
	case string:
		return val
	}
	return ""
}

func variantInt64(v dbus.Variant) int64 {
	switch val := v.Value().(type) {
	case int64:
		return val
	case uint64:
		return int64(val)
	case int32:
		return int64(val)
	case uint32:
		return int64(val)
	case float64:
		return int64(val)
	}
	return 0
}

// Position returns the elapsed position of the current track
func (c *MPRISClient) Position(ctx context.Context) (time.Duration, error) {
	v, err := c.getProperty(ctx, mprisPlayerInterface, "Position")
	if err != nil {
		return 0, err
	}
	return time.Duration(variantInt64(v)) * time.Microsecond, nil
}

// Play resumes playback
func (c *MPRISClient) Play(ctx context.Context) error {
	if err := c.call(ctx, "Play"); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return nil
}

// Pause pauses playback
func (c *MPRISClient) Pause(ctx context.Context) error {
	if err := c.call(ctx, "Pause"); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

// PlayPause toggles playback
func (c *MPRISClient) PlayPause(ctx context.Context) error {
	if err := c.call(ctx, "PlayPause"); err != nil {
		return fmt.Errorf("failed to playpause: %w", err)
	}
	return nil
}

// NextTrack skips to the next track
func (c *MPRISClient) NextTrack(ctx context.Context) error {
	if err := c.call(ctx, "Next"); err != nil {
		return fmt.Errorf("failed to skip to next track: %w", err)
	}
	return nil
}

// PreviousTrack goes back to the previous track
func (c *MPRISClient) PreviousTrack(ctx context.Context) error {
	if err := c.call(ctx, "Previous"); err != nil {
		return fmt.Errorf("failed to go to previous track: %w", err)
	}
	return nil
}

// SetPosition seeks within the current track. MPRIS requires the track id,
// so the current metadata is read first.
func (c *MPRISClient) SetPosition(ctx context.Context, position time.Duration) error {
	if _, err := c.GetCurrentTrack(ctx); err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}

	c.mu.Lock()
	trackID := c.trackID
	c.mu.Unlock()
	if trackID == "" {
		return fmt.Errorf("failed to set position: current track has no trackid")
	}

	if err := c.call(ctx, "SetPosition", trackID, position.Microseconds()); err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}
	return nil
}

// SetShuffle sets the Shuffle property
func (c *MPRISClient) SetShuffle(ctx context.Context, enabled bool) error {
	return c.setProperty(ctx, mprisPlayerInterface, "Shuffle", enabled)
}

// SetVolume sets the Volume property (0-100 mapped to 0.0-1.0)
func (c *MPRISClient) SetVolume(ctx context.Context, level int) error {
	if err := checkVolume(level); err != nil {
		return err
	}
	return c.setProperty(ctx, mprisPlayerInterface, "Volume", float64(level)/100)
}

type mprisPlaylist struct {
	ID   dbus.ObjectPath
	Name string
	Icon string
}

// Library lists the player's playlists
func (c *MPRISClient) Library(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 200
	}
	obj, err := c.object(ctx)
	if err != nil {
		return nil, err
	}

	var playlists []mprisPlaylist
	call := obj.CallWithContext(ctx, mprisPlaylistsInterface+".GetPlaylists", 0,
		uint32(0), uint32(limit), "Alphabetical", false)
	if err := call.Store(&playlists); err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	items := make([]Item, 0, len(playlists))
	for _, p := range playlists {
		items = append(items, Item{ID: string(p.ID), Name: p.Name, Kind: "playlist"})
	}
	return items, nil
}

// PlayItem activates the picked playlist
func (c *MPRISClient) PlayItem(ctx context.Context, item Item) error {
	obj, err := c.object(ctx)
	if err != nil {
		return err
	}
	if err := obj.CallWithContext(ctx, mprisPlaylistsInterface+".ActivatePlaylist", 0, dbus.ObjectPath(item.ID)).Err; err != nil {
		return fmt.Errorf("failed to play %q: %w", item.Name, err)
	}
	return nil
}
