// Package cmd implements the assetsync command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/quran-assets/assetsync/cmd/internal/flags"
	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/logging"
)

// Exit statuses not derived from a job report.
const (
	ExitOK     = 0
	ExitFailed = 2
	ExitUsage  = 3
)

// ExitError carries the process exit status of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

type rootParams struct {
	logLevel  logging.Level
	logFormat logging.Format
	logOutput io.Writer
}

func (p *rootParams) logger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: p.logLevel, Format: p.logFormat, Output: p.logOutput})
}

// NewRootCommand assembles the command tree. Running it without a
// subcommand syncs every configured job.
func NewRootCommand() *cobra.Command {
	params := &rootParams{logLevel: logging.Info}

	root := &cobra.Command{
		Use:           "assetsync",
		Short:         "Sync numbered media assets from HTTP endpoints into a git repository",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			params.logOutput = cmd.ErrOrStderr()
		},
	}

	flags.AddLogLevelFlag(root.PersistentFlags(), &params.logLevel)
	flags.AddLogFormatFlag(root.PersistentFlags(), &params.logFormat)

	syncCmd := newSyncCommand(params)
	root.AddCommand(
		syncCmd,
		newCatalogCommand(),
		newJobsCommand(),
		newSchemaCommand(),
	)

	// Without arguments the binary behaves like "assetsync sync".
	root.Flags().AddFlagSet(syncCmd.Flags())
	root.Args = cobra.NoArgs
	root.RunE = syncCmd.RunE

	return root
}

// Execute runs the command line with args and returns the exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, "error:", exitErr.Err)
		}
		return exitErr.Code
	}

	// Anything cobra rejects before a command runs is a usage error.
	fmt.Fprintln(stderr, "error:", err)
	return ExitUsage
}

func loadConfig(path string) (*config.Root, error) {
	root, err := config.Load(path)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("configuration: %w", err)}
	}
	return root, nil
}

// selectJobs returns the named jobs, or every job in name order.
func selectJobs(root *config.Root, names []string) ([]*config.Job, error) {
	var jobs []*config.Job
	if len(names) == 0 {
		for _, job := range root.SortedJobs() {
			jobs = append(jobs, job)
		}
		return jobs, nil
	}

	for _, name := range names {
		job, err := root.Job(name)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Err: err}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
