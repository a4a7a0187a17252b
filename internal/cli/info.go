package cli

import (
	"fmt"
	"strings"

	"github.com/old-castle-fansubs/vobsub/internal/vobsub"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [idx_file]",
	Short: "Show metadata of a VobSub subtitle pair",
	Long: `Print the metadata of a VobSub .idx sidecar: frame size, language,
palette and the caption table summary.

Examples:
  vobsub info movie.idx`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	idx, err := vobsub.ParseIndexFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Frame size: %dx%d\n", idx.Width, idx.Height)
	if idx.Language != "" {
		fmt.Printf("Language:   %s\n", idx.Language)
	}
	fmt.Printf("Origin:     %d,%d\n", idx.OriginX, idx.OriginY)
	fmt.Printf("Forced:     %v\n", idx.ForcedSubs)

	colors := make([]string, len(idx.Palette))
	for i, c := range idx.Palette {
		colors[i] = c.String()
	}
	fmt.Printf("Palette:    %s\n", strings.Join(colors, " "))

	fmt.Printf("Captions:   %d\n", len(idx.Items))
	if len(idx.Items) > 0 {
		first := idx.Items[0]
		last := idx.Items[len(idx.Items)-1]
		fmt.Printf("  First: %v at %08x\n", first.Timestamp, first.FilePos)
		fmt.Printf("  Last:  %v at %08x\n", last.Timestamp, last.FilePos)
	}

	return nil
}
