package main

import (
	"os"

	"github.com/sha1n/cuvren/internal/app"
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "cuvren"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	return execute(version, programName, app.DefaultRunParams(), args)
}

func execute(version, programName string, params app.RunParams, args []string) error {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "CUV file renamer",
		Long:         "Renames healthcare invoice validation results, invoices, XML and PDF files from naming templates",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.PersistentFlags())
	app.AddCommands(rootCmd, params, version)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}
