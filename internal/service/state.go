package service

import "fmt"

// State is the final state of a job run.
type State int

const (
	StateNoChange        State = iota // nothing fetched differed from disk
	StateChanged                      // changes written, publishing disabled
	StateNothingToCommit              // changes staged but git had nothing to record
	StatePublished                    // committed, rebased and pushed
	StateNothingFetched               // force mode fetched nothing, publishing skipped
	StateFailed                       // a git step or the working tree update failed
	StateInvalid                      // the job configuration could not be turned into a catalog
)

func (s State) String() string {
	switch s {
	case StateNoChange:
		return "no_change"
	case StateChanged:
		return "changed"
	case StateNothingToCommit:
		return "nothing_to_commit"
	case StatePublished:
		return "published"
	case StateNothingFetched:
		return "nothing_fetched"
	case StateFailed:
		return "failed"
	case StateInvalid:
		return "invalid"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ExitCode maps the state to the process exit status.
func (s State) ExitCode() int {
	switch s {
	case StateNothingFetched:
		return 1
	case StateFailed:
		return 2
	case StateInvalid:
		return 3
	default:
		return 0
	}
}
