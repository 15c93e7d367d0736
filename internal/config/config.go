package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Player backend: auto, applescript or mpris
	Backend string

	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Name}}"
	OutputFormat string

	// How often the now playing item is checked for changes
	WatchInterval time.Duration

	// Timeout for a single player command
	CommandTimeout time.Duration

	// Elapsed time within this of the total counts as the end of the track
	EndOfTrackTolerance time.Duration

	// Slider movement per scrub key press, in slider units
	ScrubStep float64

	// Directory for the history database and TUI log
	DataDir string

	Library LibraryConfig
	MPRIS   MPRISConfig
	Artwork ArtworkConfig
	History HistoryConfig
	Notify  NotifyConfig
	Log     LogConfig
}

// LibraryConfig controls the library picker
type LibraryConfig struct {
	Limit int
}

// MPRISConfig selects the MPRIS player on the session bus
type MPRISConfig struct {
	// Bus name, with or without the org.mpris.MediaPlayer2 prefix.
	// Empty picks the first player found.
	Player string
}

// ArtworkConfig controls cover image resolution
type ArtworkConfig struct {
	// Search the iTunes API when the player reports no artwork
	Lookup bool
}

// HistoryConfig controls the play history
type HistoryConfig struct {
	Enabled bool
}

// NotifyConfig controls desktop notifications
type NotifyConfig struct {
	Enabled bool
}

// LogConfig controls logging
type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return fromViper(newViper()), nil
}

// Watch loads the configuration and calls onChange with the reloaded
// configuration whenever the config file is written. It reports whether a
// config file was found to watch.
func Watch(onChange func(*Config)) (*Config, bool) {
	v := newViper()
	cfg := fromViper(v)

	if v.ConfigFileUsed() == "" {
		return cfg, false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(fromViper(v))
	})
	v.WatchConfig()

	return cfg, true
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("backend", "auto")
	v.SetDefault("output_format", "{{.Artist}} - {{.Name}}")
	v.SetDefault("watch_interval", 2*time.Second)
	v.SetDefault("command_timeout", 5*time.Second)
	v.SetDefault("end_of_track_tolerance", 500*time.Millisecond)
	v.SetDefault("scrub_step", 0.05)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("library.limit", 200)
	v.SetDefault("mpris.player", "")
	v.SetDefault("artwork.lookup", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables, NOWPLAYER_LOG_LEVEL for log.level
	v.SetEnvPrefix("NOWPLAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Backend:             v.GetString("backend"),
		OutputFormat:        v.GetString("output_format"),
		WatchInterval:       v.GetDuration("watch_interval"),
		CommandTimeout:      v.GetDuration("command_timeout"),
		EndOfTrackTolerance: v.GetDuration("end_of_track_tolerance"),
		ScrubStep:           v.GetFloat64("scrub_step"),
		DataDir:             v.GetString("data_dir"),
		Library: LibraryConfig{
			Limit: v.GetInt("library.limit"),
		},
		MPRIS: MPRISConfig{
			Player: v.GetString("mpris.player"),
		},
		Artwork: ArtworkConfig{
			Lookup: v.GetBool("artwork.lookup"),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
		},
		Notify: NotifyConfig{
			Enabled: v.GetBool("notify.enabled"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
	}
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "nowplayer")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory, creating it if needed
func GetConfigDir() string {
	return getConfigDir()
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "nowplayer")
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	configFile := filepath.Join(getConfigDir(), "config.yaml")

	v.Set("backend", c.Backend)
	v.Set("output_format", c.OutputFormat)
	v.Set("watch_interval", c.WatchInterval.String())
	v.Set("command_timeout", c.CommandTimeout.String())
	v.Set("end_of_track_tolerance", c.EndOfTrackTolerance.String())
	v.Set("scrub_step", c.ScrubStep)
	v.Set("data_dir", c.DataDir)
	v.Set("library.limit", c.Library.Limit)
	v.Set("mpris.player", c.MPRIS.Player)
	v.Set("artwork.lookup", c.Artwork.Lookup)
	v.Set("history.enabled", c.History.Enabled)
	v.Set("notify.enabled", c.Notify.Enabled)
	v.Set("log.level", c.Log.Level)
	v.Set("log.file", c.Log.File)

	return v.WriteConfigAs(configFile)
}
