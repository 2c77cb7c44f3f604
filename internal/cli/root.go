// Package cli implements the eventflow command line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ExitError signals a specific exit code to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %s", e.Code, e.Message)
}

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:           "eventflow",
	Short:         "Process timestamped event sets with window operators",
	Long:          "eventflow evaluates operator pipelines over indexed, timestamped event sets declared in HCL manifests.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLogging(logLevel, logFormat); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		return nil
	},
}

// validateLogging rejects flag values that ctxlog.New would otherwise
// silently replace with its defaults.
func validateLogging(level, format string) error {
	switch level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level %q (want debug, info, warn or error)", level)
	}
	switch format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// Execute runs the CLI with the given arguments, writing output to outW.
func Execute(outW io.Writer, args []string) error {
	rootCmd.SetOut(outW)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
