package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quran-assets/assetsync/internal/catalog"
	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/fs"
	"github.com/quran-assets/assetsync/internal/gitsync"
	"github.com/quran-assets/assetsync/internal/httpsync"
	"github.com/quran-assets/assetsync/internal/logging"
	"github.com/quran-assets/assetsync/internal/metrics"
	"github.com/quran-assets/assetsync/internal/progress"
)

// Fetcher stores a single catalog asset in the working tree.
type Fetcher interface {
	Fetch(ctx context.Context, asset catalog.Asset) httpsync.Result
}

// Publisher records and publishes working tree changes.
type Publisher interface {
	Lock() (func() error, error)
	SetupLFS(ctx context.Context, patterns []string) error
	ConfigureRemote(ctx context.Context) error
	Branch() string
	Stage(ctx context.Context, scope config.StageScope, paths []string) error
	Commit(ctx context.Context, message string) (bool, error)
	Rebase(ctx context.Context, branch string) error
	Push(ctx context.Context, branch string) error
}

// SyncJob fetches the catalog of one configured job into the working tree
// and, if anything changed, commits and pushes the result. Runs are
// sequential: one request is in flight at a time.
type SyncJob struct {
	root      string
	job       *config.Job
	fetcher   Fetcher
	publisher Publisher
	publish   bool
	force     bool
	log       *logging.Logger
	bar       *progress.Bar
}

func NewSyncJob(root string, job *config.Job, logger *logging.Logger) *SyncJob {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &SyncJob{
		root:    root,
		job:     job,
		force:   job.Force(),
		publish: true,
		log:     logger.With("job", job.Name),
	}
}

func (j *SyncJob) WithFetcher(fetcher Fetcher) *SyncJob {
	j.fetcher = fetcher
	return j
}

func (j *SyncJob) WithPublisher(publisher Publisher) *SyncJob {
	j.publisher = publisher
	return j
}

// WithForce enables the forced resync in addition to the job's own policy.
func (j *SyncJob) WithForce(force bool) *SyncJob {
	j.force = j.force || force
	return j
}

func (j *SyncJob) WithPublish(publish bool) *SyncJob {
	j.publish = publish
	return j
}

func (j *SyncJob) WithProgress(bar *progress.Bar) *SyncJob {
	j.bar = bar
	return j
}

// Force reports whether the run wipes and rewrites every asset.
func (j *SyncJob) Force() bool {
	return j.force
}

// Execute runs the job once. The returned report is never nil; its state
// determines the exit status. The error is non-nil only for failed runs.
func (j *SyncJob) Execute(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	metrics.JobStarted(j.job.Name, startTime)

	report := &Report{Job: j.job.Name}

	cat, err := catalog.Build(j.job)
	if err != nil {
		return j.report(report, StateInvalid, startTime, fmt.Errorf("job %q: %w", j.job.Name, err))
	}
	report.Total = cat.Len()

	if j.fetcher == nil {
		j.fetcher = httpsync.New(j.root, time.Duration(j.job.Timeout)).WithForce(j.force).WithLogger(j.log)
	}

	if j.publish {
		if j.publisher == nil {
			return j.report(report, StateFailed, startTime, fmt.Errorf("job %q: no publisher configured", j.job.Name))
		}

		unlock, err := j.publisher.Lock()
		if err != nil {
			return j.report(report, StateFailed, startTime, err)
		}
		defer func() {
			if err := unlock(); err != nil {
				j.log.Warnf("failed to release run lock: %v", err)
			}
		}()

		if err := j.publisher.SetupLFS(ctx, j.job.LFS.Patterns); err != nil {
			return j.report(report, StateFailed, startTime, err)
		}
	}

	if j.force {
		for _, dir := range cat.Dirs() {
			path := filepath.Join(j.root, filepath.FromSlash(dir))
			if ok, err := fs.FSContainsFiles(os.DirFS(path)); err == nil && !ok {
				continue
			}
			n, err := fs.RemoveFiles(path)
			if err != nil {
				return j.report(report, StateFailed, startTime, fmt.Errorf("wipe %s: %w", dir, err))
			}
			report.Removed += n
		}
		j.log.Infof("Removed %d existing files before forced resync", report.Removed)
	}

	j.log.Infof("Fetching %d assets (%s)", cat.Len(), cat.Summary())
	for _, asset := range cat.Assets {
		if err := ctx.Err(); err != nil {
			return j.report(report, StateFailed, startTime, err)
		}

		fetchStart := time.Now()
		result := j.fetcher.Fetch(ctx, asset)
		report.add(result)

		outcome := metrics.OutcomeUnchanged
		switch {
		case result.Err != nil:
			outcome = metrics.OutcomeFailed
			j.log.Warnf("failed to fetch %s from %s: %v", asset.LocalPath, asset.SourceURL, result.Err)
		case result.Changed:
			outcome = metrics.OutcomeChanged
			j.log.Debugf("Stored %s (%d bytes)", asset.LocalPath, result.Bytes)
		default:
			j.log.Debugf("Unchanged %s", asset.LocalPath)
		}
		metrics.AssetFetched(j.job.Name, string(asset.Category), outcome, result.Bytes, fetchStart)

		j.bar.Add(1)
	}
	j.bar.Finish()

	j.log.Infof("Fetched %d assets: %d changed, %d unchanged, %d failed", report.Total, report.Changed, report.Unchanged, report.Failed)

	if j.force && report.Changed == 0 {
		j.log.Errorf("Forced resync fetched nothing, not publishing")
		return j.report(report, StateNothingFetched, startTime, nil)
	}

	if !report.AnyChanged() {
		j.log.Infof("No changes")
		return j.report(report, StateNoChange, startTime, nil)
	}

	if !j.publish {
		return j.report(report, StateChanged, startTime, nil)
	}

	return j.commitAndPush(ctx, report, cat, startTime)
}

func (j *SyncJob) commitAndPush(ctx context.Context, report *Report, cat *catalog.Catalog, startTime time.Time) (*Report, error) {
	if err := j.publisher.ConfigureRemote(ctx); err != nil {
		return j.report(report, StateFailed, startTime, err)
	}

	if err := j.publisher.Stage(ctx, j.job.Stage, cat.Dirs()); err != nil {
		return j.report(report, StateFailed, startTime, err)
	}

	committed, err := j.publisher.Commit(ctx, j.message(report, cat))
	if err != nil {
		return j.report(report, StateFailed, startTime, err)
	}
	if !committed {
		j.log.Infof("Nothing to commit")
		return j.report(report, StateNothingToCommit, startTime, nil)
	}

	report.Branch = j.publisher.Branch()

	if err := j.publisher.Rebase(ctx, report.Branch); err != nil {
		return j.report(report, StateFailed, startTime, err)
	}
	if err := j.publisher.Push(ctx, report.Branch); err != nil {
		return j.report(report, StateFailed, startTime, err)
	}

	j.log.Infof("Pushed %d changed assets to %s", report.Changed, report.Branch)
	return j.report(report, StatePublished, startTime, nil)
}

func (j *SyncJob) message(report *Report, cat *catalog.Catalog) string {
	if j.job.Message != "" {
		return j.job.Message
	}

	verb := "Update"
	if j.force {
		verb = "Re-download"
	}
	return fmt.Sprintf("%s %s assets: %s (%d changed, %d failed)", verb, j.job.Name, cat.Summary(), report.Changed, report.Failed)
}

func (j *SyncJob) report(report *Report, state State, startTime time.Time, err error) (*Report, error) {
	report.State = state
	report.Err = err
	if err != nil {
		j.log.Errorf("%v", err)

		var gitErr *gitsync.Error
		if errors.As(err, &gitErr) {
			metrics.PublishFailed.WithLabelValues(j.job.Name, string(gitErr.Op)).Inc()
		}
	}

	metrics.JobFinished(j.job.Name, state.String(), startTime)
	return report, err
}
