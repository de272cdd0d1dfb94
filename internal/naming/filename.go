package naming

import (
	"path/filepath"
	"strings"
)

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// InvalidNameReason reports why name cannot be used as a leaf file name.
// It returns an empty string for valid names.
func InvalidNameReason(name string) string {
	trim := strings.TrimSpace(name)
	if trim == "" {
		return "empty name"
	}
	if trim == "." || trim == ".." {
		return "relative path element"
	}
	if strings.ContainsAny(trim, `<>:"/\|?*`) {
		return "invalid characters"
	}
	if strings.ContainsFunc(trim, func(r rune) bool { return r < 0x20 }) {
		return "control characters"
	}
	base := strings.TrimSuffix(trim, filepath.Ext(trim))
	if reservedNames[strings.ToUpper(base)] {
		return "reserved filename"
	}
	return ""
}
