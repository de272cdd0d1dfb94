package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	Log(validSettings())
}

func TestLogWithLogger_StaticFacility(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Facility = FacilitySettings{Source: FacilitySourceStatic, Code: "IPS01", TaxID: "900"}

	LogWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "facility.code") || !strings.Contains(output, "IPS01") {
		t.Errorf("Expected facility code in log output, got: %s", output)
	}
	// static facility should not log database settings
	if strings.Contains(output, "database.") {
		t.Errorf("Expected no database settings in log output, got: %s", output)
	}
}

func TestLogWithLogger_DatabaseFacility(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(validSettings(), logger)

	output := buf.String()
	if !strings.Contains(output, "database.ini_path") {
		t.Error("Expected 'database.ini_path' in log output")
	}
	if strings.Contains(output, "facility.code") {
		t.Error("Expected no 'facility.code' in log output for database source")
	}
}

func TestSettingsLogValue(t *testing.T) {
	val := SettingsLogValue(*validSettings())
	if val.Kind() != slog.KindGroup {
		t.Errorf("Expected group kind, got %v", val.Kind())
	}
}

func TestDatabaseParamsLogValue_MasksPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := DatabaseParams{Host: "db", Database: "/data/ips.fdb", User: "SYSDBA", Password: "masterkey", Charset: "ISO8859_1"}
	val := DatabaseParamsLogValue(p)
	if val.Kind() != slog.KindGroup {
		t.Fatalf("Expected group kind, got %v", val.Kind())
	}
	logger.Info("test", "params", val)

	output := buf.String()
	if strings.Contains(output, "masterkey") {
		t.Errorf("Expected password to be masked, got: %s", output)
	}
	if !strings.Contains(output, "params.password=****") {
		t.Errorf("Expected masked password attribute, got: %s", output)
	}
}
