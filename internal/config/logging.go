package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: state_dir", "value", s.StateDir)
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)
	logger.InfoContext(ctx, "Config: report_dir", "value", s.ReportDir)

	logger.InfoContext(ctx, "Config: facility.source", "value", s.Facility.Source)
	switch s.Facility.Source {
	case FacilitySourceStatic:
		logger.InfoContext(ctx, "Config: facility.code", "value", s.Facility.Code)
		logger.InfoContext(ctx, "Config: facility.tax_id", "value", s.Facility.TaxID)
	case FacilitySourceDatabase:
		logger.InfoContext(ctx, "Config: database.ini_path", "value", s.Database.IniPath)
		logger.InfoContext(ctx, "Config: database.driver", "value", s.Database.Driver)
		logger.InfoContext(ctx, "Config: database.timeout", "value", s.Database.Timeout)
	}
}

// DatabaseParamsLogValue returns a slog.Value for DatabaseParams with masked data
func DatabaseParamsLogValue(p DatabaseParams) slog.Value {
	return slog.GroupValue(
		slog.String("host", p.Host),
		slog.Int("port", p.Port),
		slog.String("database", p.Database),
		slog.String("user", p.User),
		slog.String("password", "****"),
		slog.String("charset", p.Charset),
	)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("state_dir", s.StateDir),
		slog.String("log_level", s.LogLevel),
		slog.String("report_dir", s.ReportDir),
		slog.Group("facility",
			slog.String("source", s.Facility.Source),
			slog.String("code", s.Facility.Code),
			slog.String("tax_id", s.Facility.TaxID),
		),
		slog.Group("database",
			slog.String("ini_path", s.Database.IniPath),
			slog.String("driver", s.Database.Driver),
			slog.Duration("timeout", s.Database.Timeout),
		),
	)
}
