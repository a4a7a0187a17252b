package cli

import (
	"github.com/old-castle-fansubs/vobsub/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vobsub",
	Short: "VobSub bitmap subtitle decoder and OCR converter",
	Long: `vobsub decodes DVD bitmap subtitles (.idx/.sub pairs) and turns
them into text subtitle files.

Captions are decoded from the MPEG-PS stream, rendered through the
palette of the .idx sidecar and recognized with a local tesseract
binary or an AI vision provider.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path (default ./vobsub.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Caption language code (e.g., en, ja)")
}
