package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jfmyers9/nowplayer/internal/config"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the configuration file",
	Long: `Write the current settings (defaults, NOWPLAYER_* environment
variables and flags) to ~/.config/nowplayer/config.yaml as a starting point
for editing. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return initConfig(cmd.OutOrStdout(), force)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

func configFilePath() string {
	return filepath.Join(config.GetConfigDir(), "config.yaml")
}

func initConfig(w io.Writer, force bool) error {
	path := configFilePath()
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}
