package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arpitjain799/dissect.target/loader"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noProbe bool
)

var rootCmd = &cobra.Command{
	Use:   "cbreg",
	Short: "Inspect live endpoints over Carbon Black Cloud live response",
	Long: `cbreg connects to an endpoint through Carbon Black Cloud live response
and inspects its registry and filesystem remotely. Targets are addressed
as cb://host@profile, where host is a sensor name or internal IP and
profile names a credential profile in ~/.carbonblack/credentials.yaml.`,
	Version: "0.1.0",
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		BoolVar(&noProbe, "no-probe", false, "Register registry hives without probing them")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openTarget connects to a cb:// target with the global flags applied.
func openTarget(ctx context.Context, uri string) (*loader.Target, error) {
	opts := []loader.Option{loader.WithLogger(cliLogger())}
	if noProbe {
		opts = append(opts, loader.WithoutRegistryProbe())
	}

	printVerbose("Connecting to %s\n", uri)
	tgt, err := loader.Open(ctx, uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open target: %w", err)
	}
	return tgt, nil
}

// cliLogger reports connection progress on stderr in verbose mode.
func cliLogger() zerolog.Logger {
	if !verbose || quiet {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
