package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/old-castle-fansubs/vobsub/internal/vobsub"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [idx_or_sub_file]",
	Short: "Decode every caption to PNG images",
	Long: `Decode every caption of a VobSub subtitle pair and write each one
as a PNG image, without running text recognition.

Examples:
  vobsub dump movie.idx
  vobsub dump movie.idx -o captions/ --invert`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().
		String("sub", "", "Path to the .sub stream (default: idx path with .sub extension)")
	dumpCmd.Flags().
		Bool("invert", false, "Swap palette slots 1 and 3 (for oddly authored discs)")
}

func runDump(cmd *cobra.Command, args []string) error {
	idxPath, subPath := resolvePair(args[0])
	if flagSub, _ := cmd.Flags().GetString("sub"); flagSub != "" {
		subPath = flagSub
	}
	invert, _ := cmd.Flags().GetBool("invert")

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = strings.TrimSuffix(idxPath, filepath.Ext(idxPath))
	}

	idx, err := vobsub.ParseIndexFile(idxPath)
	if err != nil {
		return err
	}
	if len(idx.Items) == 0 {
		return fmt.Errorf("idx file lists no captions: %s", idxPath)
	}

	stream, err := os.Open(subPath)
	if err != nil {
		return fmt.Errorf("failed to open .sub stream: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	decoder := vobsub.NewDecoder(idx, stream, vobsub.DecodeOptions{
		Invert: invert,
		Logger: logger,
	})

	written := 0
	for i := range idx.Items {
		pic, err := decoder.DecodeItem(i)
		if err != nil {
			logger.Warnw("Skipping caption that failed to decode",
				"item", i, "error", err)
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("caption_%04d.png", i))
		if err := writePNG(path, pic); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}

	if written == 0 {
		return fmt.Errorf("no caption could be decoded")
	}

	absOutput, _ := filepath.Abs(outputDir)
	fmt.Printf("Captions dumped successfully: %s\n", absOutput)
	fmt.Printf("  Images: %d of %d\n", written, len(idx.Items))

	return nil
}

func writePNG(path string, pic *vobsub.Picture) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return png.Encode(file, pic.Image())
}
