package gitsync

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	pkgsync "github.com/quran-assets/assetsync/pkg/sync"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the process environment of every command.
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (pkgsync.Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	err := cmd.Run()
	out := pkgsync.Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
	}

	return out, err
}
