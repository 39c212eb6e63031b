package main

import (
	"context"
	"os"

	"github.com/docdex/mcp-docdex-server/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "docdex-mcp"
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
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "DOCDEX MCP Server",
		Long:    "Documentation Index Exploration (DOCDEX) MCP Server",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	rootCmd.AddCommand(newValidateCommand(), newLookupCommand())
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(context.Background(), app.DefaultRunParams(), flags, version)
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <artifact>",
		Short: "Decode and validate a search index artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunValidate(args[0], cmd.OutOrStdout())
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func newLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <artifact> <query>",
		Short: "Answer a one-shot query against a search index artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunLookup(args[0], args[1], cmd.OutOrStdout())
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
