package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/old-castle-fansubs/vobsub/internal/config"
	"github.com/old-castle-fansubs/vobsub/internal/ocr"
	"github.com/old-castle-fansubs/vobsub/internal/pipeline"
	"github.com/old-castle-fansubs/vobsub/internal/subtitle"
	"github.com/old-castle-fansubs/vobsub/internal/vobsub"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [idx_or_sub_file]",
	Short: "Convert a VobSub .idx/.sub pair to a text subtitle file",
	Long: `Decode every caption of a VobSub subtitle pair, recognize the
text and write a text subtitle file.

Either half of the pair can be given; the other half is located next to
it unless --sub overrides the stream path.

Examples:
  vobsub convert movie.idx
  vobsub convert movie.idx -o movie.srt --provider tesseract -l eng
  vobsub convert movie.idx --provider anthropic --format ass
  vobsub convert movie.idx --forced-only --dump-dir captions/`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		String("sub", "", "Path to the .sub stream (default: idx path with .sub extension)")
	convertCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass)")
	convertCmd.Flags().
		String("provider", "", "OCR provider (tesseract, anthropic, openai, gemini)")
	convertCmd.Flags().
		String("model", "", "Model for AI providers (uses sensible defaults)")
	convertCmd.Flags().
		StringP("api-key", "k", "", "API key for AI providers (or set the provider's env var)")
	convertCmd.Flags().
		String("prompt", "", "Extra recognition instructions for AI providers")
	convertCmd.Flags().
		Int("workers", 0, "Number of parallel recognition requests")
	convertCmd.Flags().
		Bool("forced-only", false, "Keep only captions flagged as forced")
	convertCmd.Flags().
		Bool("invert", false, "Swap palette slots 1 and 3 (for oddly authored discs)")
	convertCmd.Flags().
		String("dump-dir", "", "Also dump every decoded caption as PNG into this directory")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyConvertFlags(cmd, cfg)

	idxPath, subPath := resolvePair(args[0])
	if flagSub, _ := cmd.Flags().GetString("sub"); flagSub != "" {
		subPath = flagSub
	}
	if _, err := os.Stat(idxPath); os.IsNotExist(err) {
		return fmt.Errorf("idx file not found: %s", idxPath)
	}
	if _, err := os.Stat(subPath); os.IsNotExist(err) {
		return fmt.Errorf(".sub stream not found: %s", subPath)
	}

	format := subtitle.Format(strings.ToLower(cfg.Output.Format))
	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		base := strings.TrimSuffix(idxPath, filepath.Ext(idxPath))
		outputPath = base + subtitle.GetExtensionForFormat(format)
	}

	idx, err := vobsub.ParseIndexFile(idxPath)
	if err != nil {
		return err
	}
	if len(idx.Items) == 0 {
		return fmt.Errorf("idx file lists no captions: %s", idxPath)
	}

	provider := ocr.Provider(strings.ToLower(cfg.OCR.Provider))
	apiKey, err := resolveAPIKey(provider, cfg.OCR.APIKey)
	if err != nil {
		return err
	}

	logger.Infow("Starting subtitle conversion",
		"idx", idxPath,
		"sub", subPath,
		"output", outputPath,
		"provider", provider,
		"captions", len(idx.Items),
	)

	engine, err := ocr.Factory(ctx, provider, apiKey, ocr.Options{
		Language: cfg.OCR.Language,
		Model:    cfg.OCR.Model,
		Prompt:   cfg.OCR.Prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create OCR engine: %w", err)
	}

	stream, err := os.Open(subPath)
	if err != nil {
		return fmt.Errorf("failed to open .sub stream: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	decoder := vobsub.NewDecoder(idx, stream, vobsub.DecodeOptions{
		Invert: cfg.Decode.Invert,
		Logger: logger,
	})

	converter := pipeline.New(idx, decoder, engine, pipeline.Options{
		Workers:    cfg.OCR.Workers,
		ForcedOnly: cfg.Decode.ForcedOnly,
		DumpDir:    cfg.Output.DumpDir,
		Logger:     logger,
	})

	sub, err := converter.Run(ctx)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := writer.Write(sub, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles converted successfully: %s\n", absOutput)
	fmt.Printf("  Captions: %d\n", len(sub.Entries))
	if sub.Language != "" {
		fmt.Printf("  Language: %s\n", sub.Language)
	}

	return nil
}

// flags win over config file and environment
func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("provider") {
		cfg.OCR.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		cfg.OCR.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.OCR.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("language") {
		cfg.OCR.Language, _ = cmd.Flags().GetString("language")
	}
	if cmd.Flags().Changed("prompt") {
		cfg.OCR.Prompt, _ = cmd.Flags().GetString("prompt")
	}
	if cmd.Flags().Changed("workers") {
		cfg.OCR.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("dump-dir") {
		cfg.Output.DumpDir, _ = cmd.Flags().GetString("dump-dir")
	}
	if cmd.Flags().Changed("forced-only") {
		cfg.Decode.ForcedOnly, _ = cmd.Flags().GetBool("forced-only")
	}
	if cmd.Flags().Changed("invert") {
		cfg.Decode.Invert, _ = cmd.Flags().GetBool("invert")
	}
}

// accepts either half of the .idx/.sub pair and derives the other
func resolvePair(path string) (idxPath, subPath string) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".sub") {
		return base + ".idx", path
	}
	return path, base + ".sub"
}

func apiKeyEnvVar(provider ocr.Provider) string {
	switch provider {
	case ocr.ProviderGemini:
		return "GEMINI_API_KEY"
	case ocr.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ocr.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	}
	return ""
}

func resolveAPIKey(provider ocr.Provider, configured string) (string, error) {
	if provider == ocr.ProviderTesseract {
		return "", nil
	}

	envVar := apiKeyEnvVar(provider)
	if envVar == "" {
		return "", fmt.Errorf("unsupported OCR provider: %s", provider)
	}

	if configured != "" {
		return configured, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key is required: use --api-key flag or set %s environment variable",
		envVar,
	)
}
