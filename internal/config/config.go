package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	OCR    OCRConfig
	Decode DecodeConfig
	Output OutputConfig
}

// OCRConfig holds text recognition configuration
type OCRConfig struct {
	Provider string
	Model    string
	APIKey   string
	Language string
	Prompt   string
	Workers  int
}

// DecodeConfig holds subtitle decoding configuration
type DecodeConfig struct {
	Invert     bool
	ForcedOnly bool
}

// OutputConfig holds output configuration
type OutputConfig struct {
	Format  string
	DumpDir string
}

// Load reads configuration from an optional file and from VOBSUB_*
// environment variables. With an empty path a vobsub.yaml in the working
// directory is used when present.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOBSUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("vobsub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// OCR defaults
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.model", "")
	v.SetDefault("ocr.apikey", "")
	v.SetDefault("ocr.language", "")
	v.SetDefault("ocr.prompt", "")
	v.SetDefault("ocr.workers", 4)

	// decode defaults
	v.SetDefault("decode.invert", false)
	v.SetDefault("decode.forcedonly", false)

	// output defaults
	v.SetDefault("output.format", "srt")
	v.SetDefault("output.dumpdir", "")
}
