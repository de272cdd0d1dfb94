package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// DatabaseSection is the ini section holding the connection parameters.
const DatabaseSection = "database"

// DatabaseParams are the facility database connection parameters read from database.ini.
type DatabaseParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Charset  string
}

// LoadDatabaseParams reads the [database] section of the ini file at path.
// Missing keys fall back to host 127.0.0.1, user SYSDBA and charset ISO8859_1.
func LoadDatabaseParams(path string) (DatabaseParams, error) {
	if _, err := os.Stat(path); err != nil {
		return DatabaseParams{}, fmt.Errorf("database config %s not found: %w", path, err)
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return DatabaseParams{}, fmt.Errorf("failed to read database config: %w", err)
	}

	if !cfg.HasSection(DatabaseSection) {
		return DatabaseParams{}, fmt.Errorf("section [%s] not found in %s", DatabaseSection, path)
	}
	sec := cfg.Section(DatabaseSection)

	params := DatabaseParams{
		Host:     sec.Key("host").MustString("127.0.0.1"),
		Port:     sec.Key("port").MustInt(0),
		Database: sec.Key("database").String(),
		User:     sec.Key("user").MustString("SYSDBA"),
		Password: sec.Key("password").String(),
		Charset:  sec.Key("charset").MustString("ISO8859_1"),
	}
	if params.Database == "" {
		return DatabaseParams{}, errors.New("database path not set in " + path)
	}

	return params, nil
}
