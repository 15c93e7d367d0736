package cmd

import (
	"fmt"

	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/spf13/cobra"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Explain why library tracks cannot be uploaded",
	Long: `Library tracks cannot be uploaded. This command prints the reason and
exits with a non-zero status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", player.UploadTitle, player.UploadMessage)
		return player.ErrUploadUnsupported
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
