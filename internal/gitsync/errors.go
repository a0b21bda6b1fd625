package gitsync

import (
	"fmt"
	"strings"
)

// Op names the publish step that failed.
type Op string

const (
	OpLock   Op = "lock"
	OpLFS    Op = "lfs"
	OpRemote Op = "remote"
	OpStage  Op = "stage"
	OpCommit Op = "commit"
	OpRebase Op = "rebase"
	OpPush   Op = "push"
)

// Error is returned for every failed git step. Output holds whatever the
// git command printed, with credentials redacted.
type Error struct {
	Op     Op
	Err    error
	Output string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("git %s: %v", e.Op, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
