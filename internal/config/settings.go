package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Facility source constants
const (
	FacilitySourceStatic   = "static"
	FacilitySourceDatabase = "database"
)

// EnvPrefix is the prefix of every environment variable read by LoadSettings.
const EnvPrefix = "CUVREN"

// FacilitySettings configuration for the facility code and tax id placeholders
type FacilitySettings struct {
	Source string `mapstructure:"source"` // FacilitySourceStatic or FacilitySourceDatabase
	Code   string `mapstructure:"code"`
	TaxID  string `mapstructure:"tax_id"`
}

// DatabaseSettings configuration for the facility database
type DatabaseSettings struct {
	IniPath string        `mapstructure:"ini_path"`
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Settings application settings
type Settings struct {
	StateDir  string           `mapstructure:"state_dir"`
	LogLevel  string           `mapstructure:"log_level"`
	ReportDir string           `mapstructure:"report_dir"`
	Facility  FacilitySettings `mapstructure:"facility"`
	Database  DatabaseSettings `mapstructure:"database"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("report_dir", ".")
	v.SetDefault("facility.source", FacilitySourceDatabase)
	v.SetDefault("database.ini_path", "database.ini")
	v.SetDefault("database.driver", "firebirdsql")
	v.SetDefault("database.timeout", 10*time.Second)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("facility.source", "CUVREN_FACILITY_SOURCE")
	_ = v.BindEnv("facility.code", "CUVREN_FACILITY_CODE")
	_ = v.BindEnv("facility.tax_id", "CUVREN_FACILITY_TAX_ID")
	_ = v.BindEnv("database.ini_path", "CUVREN_DATABASE_INI_PATH")
	_ = v.BindEnv("database.driver", "CUVREN_DATABASE_DRIVER")
	_ = v.BindEnv("database.timeout", "CUVREN_DATABASE_TIMEOUT")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("state_dir", flags.Lookup("state-dir"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("report_dir", flags.Lookup("report-dir"))
		_ = v.BindPFlag("facility.source", flags.Lookup("facility-source"))
		_ = v.BindPFlag("facility.code", flags.Lookup("facility-code"))
		_ = v.BindPFlag("facility.tax_id", flags.Lookup("facility-tax-id"))
		_ = v.BindPFlag("database.ini_path", flags.Lookup("database-ini"))
		_ = v.BindPFlag("database.driver", flags.Lookup("database-driver"))
		_ = v.BindPFlag("database.timeout", flags.Lookup("database-timeout"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Facility.Source = strings.ToLower(strings.TrimSpace(settings.Facility.Source))
	settings.Facility.Code = strings.TrimSpace(settings.Facility.Code)
	settings.Facility.TaxID = strings.TrimSpace(settings.Facility.TaxID)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	// Expand home directory in paths
	settings.StateDir = expandHomeDir(settings.StateDir)
	settings.ReportDir = expandHomeDir(settings.ReportDir)
	settings.Database.IniPath = expandHomeDir(settings.Database.IniPath)

	return &settings, nil
}

// SlogLevel returns the slog level named by LogLevel, defaulting to info.
func (s *Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaultStateDir returns the default directory for profiles, catalog and history
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cuvren"
	}
	return filepath.Join(home, ".cuvren")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks for incomplete or unknown configuration values.
func ValidateSettings(s *Settings) error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return errors.New("log-level must be one of debug, info, warn, error, got: " + s.LogLevel)
	}

	if s.StateDir == "" {
		return errors.New("state-dir cannot be empty")
	}

	switch s.Facility.Source {
	case FacilitySourceStatic:
		if s.Facility.Code == "" || s.Facility.TaxID == "" {
			return errors.New("facility-source 'static' requires both facility-code and facility-tax-id")
		}
	case FacilitySourceDatabase:
		if s.Database.IniPath == "" {
			return errors.New("facility-source 'database' requires database-ini")
		}
		if s.Database.Driver == "" {
			return errors.New("database-driver cannot be empty")
		}
		if s.Database.Timeout <= 0 {
			return errors.New("database-timeout must be positive")
		}
	default:
		return errors.New("unknown facility-source: " + s.Facility.Source)
	}

	return nil
}
