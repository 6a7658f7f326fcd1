package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"plancraft/internal/client"
	"plancraft/internal/config"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeInvalidDraft indicates a draft that failed validation.
	ExitCodeInvalidDraft = 2
	// ExitCodeAPIError indicates the execution service rejected a request.
	ExitCodeAPIError = 3
)

// errInvalidDraft is returned by commands that report validation problems
// themselves and only need the exit code.
var errInvalidDraft = errors.New("draft is invalid")

var (
	configPath   string
	logLevel     string
	outputFormat string
	metricsAddr  string
)

// rootCmd represents the base command for the plancraft application.
var rootCmd = &cobra.Command{
	Use:   "plancraft",
	Short: "Author test plans and schedules for the test execution service",
	Long: `plancraft builds test plans and run schedules through step-by-step
wizards. Drafts can be filled in interactively, or written as YAML/JSON
files and validated, previewed and submitted from the command line.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			logging.InitForCLI(logging.LevelInfo, cmd.ErrOrStderr())
			return nil
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "plancraft version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if errors.Is(err, errInvalidDraft) {
		return ExitCodeInvalidDraft
	}

	var stepErr *wizard.StepValidationError
	if errors.As(err, &stepErr) {
		return ExitCodeInvalidDraft
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return ExitCodeAPIError
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "directory holding config.yaml (default is $HOME/.config/plancraft)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs, e.g. :9090")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newEntityCmd(planKind))
	rootCmd.AddCommand(newEntityCmd(scheduleKind))
	rootCmd.AddCommand(newAssertionCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newMCPServerCmd())
}

// configDir returns the --config value or the default location.
func configDir() string {
	if configPath != "" {
		return configPath
	}
	return config.GetDefaultConfigPathOrPanic()
}
