// Package sync provides common interfaces for synchronization operations.
//
// This package defines the contracts shared by the asset sync job and its
// collaborators, enabling external projects to substitute their own
// command execution and credential sources.
package sync

import "context"

// Synchronizer defines the interface for data synchronization operations.
//
// The synchronizer is not thread-safe. Callers should handle concurrency.
type Synchronizer interface {
	// Execute performs the synchronization operation.
	//
	// Returns an error if synchronization fails.
	Execute(ctx context.Context) error

	// Close releases any resources held by the synchronizer.
	// It should be called when the synchronizer is no longer needed.
	Close(ctx context.Context)
}

// Output captures the result of an external command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (o Output) Combined() string {
	switch {
	case o.Stdout == "":
		return o.Stderr
	case o.Stderr == "":
		return o.Stdout
	}
	return o.Stdout + "\n" + o.Stderr
}

// CommandRunner runs an external program in a working directory. The git
// publisher drives the system git binary through it, so tests and embedders
// can substitute a fake.
type CommandRunner interface {
	// Run executes name with args in dir. A non-zero exit status is reported
	// as an error alongside the captured output.
	Run(ctx context.Context, dir string, name string, args ...string) (Output, error)
}

// TokenProvider supplies the token embedded in the authenticated push remote.
// External projects implement it to integrate their own credential sources.
type TokenProvider interface {
	// Token returns a token valid for pushing to the repository.
	Token(ctx context.Context) (string, error)
}
