// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user configuration directory
const AppName = "cyber-survey"

// ConfigDirEnv overrides the configuration directory on every platform
const ConfigDirEnv = "CYBER_SURVEY_CONFIG_DIR"

// GetConfigDir returns the cyber-survey configuration directory.
// It honours CYBER_SURVEY_CONFIG_DIR, then the platform user config
// directory (APPDATA on Windows, XDG_CONFIG_HOME or ~/.config elsewhere).
func GetConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return NormalizePath(dir)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName)
}

// GetConfigFile returns the path to the per-user config file
func GetConfigFile() string {
	dir := GetConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// GetTempDir returns the platform-appropriate temporary directory
func GetTempDir() string {
	return os.TempDir()
}

// NormalizePath cleans a path and converts separators for the current
// platform. Empty paths stay empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	if runtime.GOOS != "windows" {
		path = strings.ReplaceAll(path, `\`, "/")
	}
	return filepath.Clean(filepath.FromSlash(path))
}

// ValidatePath validates a path for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}

	if runtime.GOOS == "windows" {
		return validateWindowsPath(path)
	}
	return validateUnixPath(path)
}

// validateWindowsPath validates a Windows path
func validateWindowsPath(path string) error {
	invalidChars := []rune{'<', '>', '"', '|', '?', '*'}
	for i, char := range path {
		if char == ':' && i != 1 {
			return &PathValidationError{Path: path, Reason: "contains invalid character: :"}
		}
		for _, invalid := range invalidChars {
			if char == invalid {
				return &PathValidationError{
					Path:   path,
					Reason: "contains invalid character: " + string(char),
				}
			}
		}
	}

	if len(path) > 32767 {
		return &PathValidationError{
			Path:   path,
			Reason: "path exceeds maximum length of 32,767 characters",
		}
	}

	return nil
}

// validateUnixPath rejects null bytes, the only character Unix forbids
func validateUnixPath(path string) error {
	if strings.ContainsRune(path, 0) {
		return &PathValidationError{
			Path:   path,
			Reason: "contains null byte",
		}
	}
	return nil
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}
