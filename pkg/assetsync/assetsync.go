package assetsync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/gitsync"
	"github.com/quran-assets/assetsync/internal/service"
	pkgsync "github.com/quran-assets/assetsync/pkg/sync"
)

// Synchronizer is re-exported from pkg/sync for external use.
// See pkg/sync package for interface documentation.
type Synchronizer = pkgsync.Synchronizer

// TokenProvider is re-exported from pkg/sync for external use.
type TokenProvider = pkgsync.TokenProvider

// StaticToken is a TokenProvider returning a fixed token.
type StaticToken = gitsync.StaticToken

// ErrNothingFetched is returned by Execute when a forced resync could not
// fetch a single asset. Nothing is published in that case.
var ErrNothingFetched = errors.New("forced resync fetched nothing")

type jobOptions struct {
	config.Job

	Force   bool           `json:"force"`
	Publish *publishConfig `json:"publish"`
}

type publishConfig struct {
	Repository string `json:"repository"`
	ServerURL  string `json:"server_url"`
	Remote     string `json:"remote"`
	Branch     string `json:"branch"`
}

// NewFromJobConfig creates a Synchronizer running one sync job against the
// git working tree at root, using a map-based configuration. This is the
// recommended constructor for external projects.
//
// The jobConfig map accepts the fields of a job in the configuration file
// ("collections", "lfs", "stage", "overwrite", "timeout", "message") plus:
//   - "force" (bool, optional): wipe and re-download every asset
//   - "publish" (map, optional): enables commit and push. Fields:
//     "repository" ("owner/name"), "server_url", "remote", "branch"
//
// The tokens provider supplies the push token; it may be nil, in which case
// the existing remote URL is used as is.
func NewFromJobConfig(root, name string, jobConfig map[string]any, tokens TokenProvider) (Synchronizer, error) {
	var cfg jobOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		DecodeHook:       durationHook,
		ErrorUnused:      true,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(jobConfig); err != nil {
		return nil, fmt.Errorf("job config: %w", err)
	}

	if err := cfg.Job.Prepare(name); err != nil {
		return nil, err
	}

	job := service.NewSyncJob(root, &cfg.Job, nil).
		WithForce(cfg.Force).
		WithPublish(cfg.Publish != nil)

	if cfg.Publish != nil {
		job.WithPublisher(gitsync.NewPublisher(root).
			WithRemote(cfg.Publish.Remote).
			WithRepository(cfg.Publish.ServerURL, cfg.Publish.Repository).
			WithBranch(cfg.Publish.Branch).
			WithTokenProvider(tokens))
	}

	return &synchronizer{job: job}, nil
}

type synchronizer struct {
	job *service.SyncJob
}

func (s *synchronizer) Execute(ctx context.Context) error {
	report, err := s.job.Execute(ctx)
	if err != nil {
		return err
	}
	if report.State == service.StateNothingFetched {
		return ErrNothingFetched
	}
	return nil
}

func (*synchronizer) Close(context.Context) {
	// No resources to close for asset synchronizer
}

func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeFor[config.Duration]() {
		return data, nil
	}
	d, err := time.ParseDuration(reflect.ValueOf(data).String())
	if err != nil {
		return nil, err
	}
	return config.Duration(d), nil
}
