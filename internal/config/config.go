// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/internal/prompt"
)

// Config holds the application configuration.
type Config struct {
	Format         string `mapstructure:"format"`
	Placeholder    string `mapstructure:"placeholder"`
	Template       string `mapstructure:"template"`
	IncludeSummary bool   `mapstructure:"include_summary"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	TemplatesDir   string `mapstructure:"templates_dir"`
	Output         struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
}

// Keys lists every recognised configuration key.
var Keys = []string{
	"format",
	"placeholder",
	"template",
	"include_summary",
	"chunk_size",
	"templates_dir",
	"output.color",
}

// Load reads the configuration from ~/.xlprompt/config.yaml and environment
// variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	setDefaults()

	// XLPROMPT_CHUNK_SIZE overrides chunk_size, XLPROMPT_OUTPUT_COLOR output.color.
	viper.SetEnvPrefix("XLPROMPT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"format":          "csv",
		"placeholder":     prompt.Placeholder,
		"template":        "",
		"include_summary": false,
		"chunk_size":      0,
		"templates_dir":   prompt.DefaultLibraryDir(),
		"output.color":    true,
	}
}

func setDefaults() {
	for key, v := range defaults() {
		viper.SetDefault(key, v)
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xlprompt"
	}
	return filepath.Join(home, ".xlprompt")
}
