// =============================================================================
// Expense to Invoice Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. There is exactly one configuration-bearing object: an
// immutable Config struct loaded from a YAML file, passed into both the
// transform engine and the receipt locator. No globals, no singletons.
//
// CONFIGURATION FILE:
//   config.yaml in the working directory by default; override with --config.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// INVOICE SETTINGS
	// =========================================================================

	// CompanyCode is the fixed company code stamped on every invoice row.
	// Default: "BLM"
	CompanyCode string `yaml:"company_code"`

	// VendorAccount is the fixed payer account code. Invoices settle the
	// card statement, not the original merchants, so this is a constant.
	// Default: "AMEX"
	VendorAccount string `yaml:"vendor_account"`

	// DueDateOffsetDays is added to the transaction date to produce the
	// due date. Zero means invoices are due on the transaction date.
	// Default: 8
	DueDateOffsetDays int `yaml:"due_date_offset_days"`

	// DefaultGLAccount is substituted for a blank parent ledger code (BA).
	// The child codes (BB, BC) pass through blank.
	// Default: "4470"
	DefaultGLAccount string `yaml:"default_gl_account"`

	// FailFast aborts the transform on the first unparseable transaction
	// date instead of skipping the record and reporting a summary at the
	// end.
	// Default: false (collect and continue)
	FailFast bool `yaml:"fail_fast"`

	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for expense export files (.csv, .xlsx).
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the invoice CSV and all resolved receipt files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is where successfully processed exports are moved.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ReceiptSearchDirs is the prioritized list of directories the receipt
	// locator scans for downloaded files. Earlier entries win nothing on
	// their own; every directory is searched and matches are scored, but
	// the list is user-extensible for non-standard browser setups.
	// Default: the platform download folder, then the desktop.
	ReceiptSearchDirs []string `yaml:"receipt_search_dirs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads the configuration from a YAML file and validates the result.
// The file is unmarshalled over a fully populated default configuration, so
// only keys present in the file override anything: an explicit zero (a
// same-day due-date offset, say) is preserved rather than mistaken for
// "unset". A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through with the defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the configuration used when no file is present.
// File values overlay these field by field.
func defaultConfig() *Config {
	return &Config{
		CompanyCode:       "BLM",
		VendorAccount:     "AMEX",
		DueDateOffsetDays: 8,
		DefaultGLAccount:  "4470",
		InputDir:          "./input",
		OutputDir:         "./output",
		InputArchiveDir:   "./input_archive",
		ReceiptSearchDirs: DefaultReceiptSearchDirs(),
		LogLevel:          "info",
	}
}

// validate checks the configuration and creates the working directories.
// Receipt search directories are deliberately not created: they belong to
// the user's environment, and a missing one just yields no matches.
func validate(cfg *Config) error {
	if cfg.DueDateOffsetDays < 0 {
		return fmt.Errorf("due_date_offset_days must not be negative")
	}

	dirs := []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DefaultReceiptSearchDirs returns the platform-specific candidate
// directories for freshly downloaded receipt files, in priority order.
func DefaultReceiptSearchDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}
	}

	dirs := []string{
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Desktop"),
	}
	if runtime.GOOS == "windows" {
		dirs = append(dirs, `C:\Users\Public\Downloads`)
	}

	return dirs
}
