package service

import (
	"github.com/quran-assets/assetsync/internal/httpsync"
)

// Report summarizes one job run.
type Report struct {
	Job       string
	State     State
	Branch    string
	Total     int
	Changed   int
	Unchanged int
	Failed    int
	Removed   int // files wiped before a forced resync
	Bytes     int64
	Failures  []httpsync.Result
	Err       error
}

// AnyChanged reports whether at least one asset was written.
func (r *Report) AnyChanged() bool {
	return r.Changed > 0
}

// ExitCode returns the process exit status for the run.
func (r *Report) ExitCode() int {
	return r.State.ExitCode()
}

func (r *Report) add(result httpsync.Result) {
	switch {
	case result.Err != nil:
		r.Failed++
		r.Failures = append(r.Failures, result)
	case result.Changed:
		r.Changed++
		r.Bytes += int64(result.Bytes)
	default:
		r.Unchanged++
	}
}
