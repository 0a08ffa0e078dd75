// Package cli implements the cobra-based CLI commands for portkeeper.
//
// Each subcommand (run, resolve, check) is defined in its own file within
// this package. This file defines the root command that serves as the
// parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/portkeeper/internal/config"
	"github.com/shinji-kodama/portkeeper/internal/model"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches resolve/check output and error output to JSON.
	jsonOutput bool

	// verbose enables diagnostic output on stderr.
	verbose bool
)

// Version, Commit and Date are injected from the main package at build
// time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root cobra command with every subcommand
// registered. The root command itself only shows help.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "portkeeper",
		Short: "Hold TCP ports open so nothing else can take them",
		Long: `portkeeper reserves a configured set of TCP ports by binding listening
sockets on all interfaces and holding them until it is stopped.

Ports that are busy at startup are retried every second until they are
freed. On SIGINT or SIGTERM every held port is released before exit.

Configuration is read from portkeeper.properties, portkeeper.yaml or
portkeeper.json in the current directory, or from --config:

  ports=5000-5010,6000
  ports.exclude=5005`,

		// Errors are formatted by Execute (text or JSON), not by cobra.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewCheckCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code carried by the
// returned error.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(os.Stderr, cliErr.Message, cliErr.Err)
		} else {
			printError(os.Stderr, err.Error(), nil)
		}
		os.Exit(int(model.ExitCodeFor(err)))
	}
}

// printError writes an error as "Error: ..." text or, with --json, as a
// JSON object on w.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// addSpecFlags registers the flags that select the port specification.
func addSpecFlags(cmd *cobra.Command, opts *config.Options) {
	cmd.Flags().StringVarP(&opts.Path, "config", "c", "", "Configuration file (.properties, .yaml or .json)")
	cmd.Flags().StringVar(&opts.Ports, "ports", "", `Ports to reserve, e.g. "5000-5010,6000" (overrides the file)`)
	cmd.Flags().StringVar(&opts.Exclude, "exclude", "", `Ports to leave alone, e.g. "5005" (overrides the file)`)
}

// specError converts a configuration or specification failure into a
// CLIError with the matching exit code.
func specError(err error) error {
	switch {
	case errors.Is(err, model.ErrConfigurationUnavailable):
		return model.WrapCLIError(model.ExitConfigUnavailable, "cannot load port configuration", err)
	case errors.Is(err, model.ErrInvalidSpecification):
		return model.WrapCLIError(model.ExitInvalidSpecification, "cannot resolve ports", err)
	default:
		return err
	}
}
