package app

import "github.com/spf13/pflag"

// RegisterFlags registers the global CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("state-dir", "s", "", "Directory holding profiles, catalog and run history")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
	flags.StringP("report-dir", "r", "", "Directory for run reports")
	flags.String("facility-source", "", "Facility data source: static or database")
	flags.String("facility-code", "", "Facility code for the static source")
	flags.String("facility-tax-id", "", "Facility tax id for the static source")
	flags.String("database-ini", "", "Path to database.ini")
	flags.String("database-driver", "", "database/sql driver name")
	flags.Duration("database-timeout", 0, "Facility lookup timeout")
}

// RegisterRunFlags registers the flags of the run command
func RegisterRunFlags(flags *pflag.FlagSet) {
	flags.StringP("profile", "p", "", "Naming profile (defaults to the active profile)")
	flags.Bool("rename", false, "Rename result documents, invoices, XML and PDF files")
	flags.StringP("mutate", "m", "", "Edit result documents: drop-rejected or clear-all")
	flags.StringP("report", "o", "", "Report file (defaults to a timestamped file in the report dir)")
}

// RegisterProfileFlags registers the template flags of the profiles set command
func RegisterProfileFlags(flags *pflag.FlagSet) {
	flags.String("result", "", "Template for result documents (.json)")
	flags.String("invoice", "", "Template for invoice documents (.json)")
	flags.String("xml", "", "Template for XML files (.xml)")
	flags.String("pdf", "", "Template for PDF files (.pdf)")
	flags.Bool("activate", false, "Make this the active profile")
}
