// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"cyber-survey/internal/paths"
	"cyber-survey/internal/report"
	"cyber-survey/internal/scanner"

	"gopkg.in/yaml.v3"
)

// DefaultReportFile is the assessment export the tool updates
const DefaultReportFile = "Test_Assessment_General_RMF_Export.xlsx"

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format  string `yaml:"format"`
		Debug   bool   `yaml:"debug"`
		NoColor bool   `yaml:"no_color"`
	} `yaml:"defaults"`

	// Assessment workbook layout
	Report ReportConfig `yaml:"report"`

	// Review surface
	Web WebConfig `yaml:"web"`

	// Archive scanning limits
	Scan ScanConfig `yaml:"scan"`

	// Control catalog overlay
	Catalog struct {
		File string `yaml:"file"`
	} `yaml:"catalog"`
}

// ReportConfig locates the workbook and the key and target columns
type ReportConfig struct {
	Path         string `yaml:"path"`
	Sheet        string `yaml:"sheet"`
	KeyColumn    string `yaml:"key_column"`
	TargetColumn string `yaml:"target_column"`
}

// WebConfig holds review surface settings
type WebConfig struct {
	Port           int   `yaml:"port"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// SessionIdleMinutes expires analyst sessions left idle this long
	SessionIdleMinutes int `yaml:"session_idle_minutes"`
}

// ScanConfig holds archive walker settings
type ScanConfig struct {
	Workers        int    `yaml:"workers"`
	MaxMemberBytes int64  `yaml:"max_member_bytes"`
	TempDir        string `yaml:"temp_dir"`
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set default values
	config.Defaults.Format = "text"
	config.Defaults.Debug = false
	config.Defaults.NoColor = false

	config.Report.Path = defaultReportPath()
	config.Report.Sheet = report.DefaultSheet
	config.Report.KeyColumn = report.DefaultKeyColumn
	config.Report.TargetColumn = report.DefaultTargetColumn

	config.Web.Port = 8501
	config.Web.MaxUploadBytes = 100 << 20
	config.Web.SessionIdleMinutes = 120

	config.Scan.Workers = 1
	config.Scan.MaxMemberBytes = scanner.DefaultMaxMemberBytes

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unknown keys are rejected so a misspelled section never silently
	// leaves the workbook on its default path
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	ApplyPlatformDefaults(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// defaultReportPath mirrors where assessment teams keep the export
func defaultReportPath() string {
	if runtime.GOOS == "windows" {
		return `C:\Cyber Survey Tool\` + DefaultReportFile
	}
	return DefaultReportFile
}

// FindConfigFile looks for a configuration file in the current directory,
// then in the per-user configuration directory.
func FindConfigFile() string {
	for _, name := range []string{"cyber-survey.yaml", "cyber-survey.yml", "config.yaml"} {
		if fileExists(name) {
			return name
		}
	}

	if standardConfig := paths.GetConfigFile(); standardConfig != "" && fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := config.ReportSettings().Validate(); err != nil {
		return fmt.Errorf("report configuration: %w", err)
	}

	if config.Web.Port < 1 || config.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", config.Web.Port)
	}
	if config.Web.MaxUploadBytes <= 0 {
		return fmt.Errorf("web max_upload_bytes must be positive")
	}
	if config.Web.SessionIdleMinutes < 0 {
		return fmt.Errorf("web session_idle_minutes cannot be negative")
	}

	if config.Scan.Workers < 0 {
		return fmt.Errorf("scan workers cannot be negative")
	}
	if config.Scan.MaxMemberBytes <= 0 {
		return fmt.Errorf("scan max_member_bytes must be positive")
	}

	if err := validateConfigPaths(config); err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	return nil
}

// validateConfigPaths validates all paths in the configuration
func validateConfigPaths(config *Config) error {
	for name, path := range map[string]string{
		"report path":   config.Report.Path,
		"scan temp_dir": config.Scan.TempDir,
		"catalog file":  config.Catalog.File,
	} {
		if err := paths.ValidatePath(path); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// ApplyPlatformDefaults normalizes the configured paths for this platform
func ApplyPlatformDefaults(config *Config) {
	if config == nil {
		return
	}
	config.Report.Path = paths.NormalizePath(config.Report.Path)
	config.Scan.TempDir = paths.NormalizePath(config.Scan.TempDir)
	config.Catalog.File = paths.NormalizePath(config.Catalog.File)
}

// ReportSettings converts the report section for the report updater
func (c *Config) ReportSettings() report.Config {
	return report.Config{
		Path:         c.Report.Path,
		Sheet:        c.Report.Sheet,
		KeyColumn:    c.Report.KeyColumn,
		TargetColumn: c.Report.TargetColumn,
	}
}

// ScannerSettings converts the scan section for the archive walker
func (c *Config) ScannerSettings() scanner.Config {
	return scanner.Config{
		Workers:        c.Scan.Workers,
		MaxMemberBytes: c.Scan.MaxMemberBytes,
		TempDir:        c.Scan.TempDir,
	}
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration
// together with the error so callers can report it.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, _ = LoadConfig("")
		return cfg, err
	}
	return cfg, nil
}
