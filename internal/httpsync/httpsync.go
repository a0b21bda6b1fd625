package httpsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/quran-assets/assetsync/internal/catalog"
	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/fs"
	"github.com/quran-assets/assetsync/internal/logging"
)

// ErrEmptyBody is returned when an endpoint answers 2xx without any content.
// Storing it would replace a good asset with a zero byte file.
var ErrEmptyBody = errors.New("empty response body")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unsuccessful status code %d", e.StatusCode)
}

// Result is the outcome of fetching a single asset.
type Result struct {
	Asset   catalog.Asset
	Changed bool
	Bytes   int
	Err     error
}

// AssetSynchronizer downloads catalog assets over HTTP and stores them below
// a repository root.
type AssetSynchronizer struct {
	root    string
	timeout time.Duration
	force   bool
	client  *http.Client
	logger  *logging.Logger
}

func New(root string, timeout time.Duration) *AssetSynchronizer {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &AssetSynchronizer{root: root, timeout: timeout, logger: logging.NewNoOpLogger()}
}

// WithForce makes every successful fetch overwrite the destination without
// comparing contents.
func (s *AssetSynchronizer) WithForce(force bool) *AssetSynchronizer {
	s.force = force
	return s
}

func (s *AssetSynchronizer) WithClient(client *http.Client) *AssetSynchronizer {
	s.client = client
	return s
}

func (s *AssetSynchronizer) WithLogger(logger *logging.Logger) *AssetSynchronizer {
	s.logger = logger
	return s
}

// Fetch downloads asset and stores it. Failures are reported in the result;
// the destination is left untouched when the fetch fails.
func (s *AssetSynchronizer) Fetch(ctx context.Context, asset catalog.Asset) Result {
	r := Result{Asset: asset}

	data, err := s.get(ctx, asset.SourceURL)
	if err != nil {
		r.Err = err
		return r
	}

	path := filepath.Join(s.root, filepath.FromSlash(asset.LocalPath))

	if !s.force {
		same, err := fs.SameContents(path, data)
		if err != nil {
			r.Err = fmt.Errorf("read %s: %w", asset.LocalPath, err)
			return r
		}
		if same {
			return r
		}
	}

	if err := fs.WriteFileAtomic(path, data); err != nil {
		r.Err = fmt.Errorf("write %s: %w", asset.LocalPath, err)
		return r
	}

	r.Changed = true
	r.Bytes = len(data)
	return r
}

func (*AssetSynchronizer) Close(context.Context) {
	// No resources to close for HTTP synchronizer
}

func (s *AssetSynchronizer) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	return data, nil
}

func (s *AssetSynchronizer) httpClient() *http.Client {
	if s.client == nil {
		// We only do this once.
		var tr http.RoundTripper = http.DefaultTransport
		if s.logger.Enabled(logging.Debug) {
			tr = NewLoggingTransport(tr, s.logger)
		}
		s.client = &http.Client{Transport: tr}
	}
	return s.client
}
