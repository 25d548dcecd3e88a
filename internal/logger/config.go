package logger

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled *bool  `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// loggingSection is the part of the ritual YAML file the logger reads.
type loggingSection struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig logs text at INFO to the console only.
func DefaultConfig() Config {
	console := true
	return Config{
		Level:          "INFO",
		ConsoleEnabled: &console,
		ConsoleFormat:  "text",
		FilePath:       "logs/ritual.log",
		FileFormat:     "json",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig reads the logging section of a YAML file and applies
// environment variable overrides. Missing or unparsable files yield defaults
// so logging is always available, even when the rest of the config is broken.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var section loggingSection
			section.Logging = config
			if err := yaml.Unmarshal(data, &section); err == nil {
				config = section.Logging
			}
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Level = logLevel
	}

	if consoleFormat := os.Getenv("LOG_CONSOLE_FORMAT"); consoleFormat != "" {
		config.ConsoleFormat = consoleFormat
	}

	if fileEnabled := os.Getenv("LOG_FILE_ENABLED"); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			config.FileEnabled = enabled
		}
	}

	if filePath := os.Getenv("LOG_FILE_PATH"); filePath != "" {
		config.FilePath = filePath
	}

	return config, nil
}

// consoleEnabled treats an unset flag as enabled.
func (c Config) consoleEnabled() bool {
	return c.ConsoleEnabled == nil || *c.ConsoleEnabled
}
