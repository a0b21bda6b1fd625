// gitsync package publishes working tree changes to a git remote. Porcelain
// operations (lfs install, add, commit, pull --rebase, push) are delegated to
// the system git binary through a CommandRunner; repository inspection and
// remote configuration use go-git. The Publisher is not thread-safe.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/gofrs/flock"

	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/lfs"
	"github.com/quran-assets/assetsync/internal/logging"
	pkgsync "github.com/quran-assets/assetsync/pkg/sync"
)

// DefaultBranch is used when neither the environment nor HEAD name a branch.
const DefaultBranch = "main"

// lockFile is created inside the git directory to serialize runs against the
// same working tree.
const lockFile = "assetsync.lock"

// Output fragments git prints when a commit has nothing to record.
var nothingToCommit = []string{
	"nothing to commit",
	"nothing added to commit",
	"no changes added to commit",
}

type Publisher struct {
	dir        string
	remote     string
	serverURL  string
	repository string
	branch     string
	tokens     pkgsync.TokenProvider
	runner     pkgsync.CommandRunner
	logger     *logging.Logger

	token string // last token handed out, for redaction
}

// NewPublisher creates a publisher for the working tree at dir.
func NewPublisher(dir string) *Publisher {
	return &Publisher{
		dir:       dir,
		remote:    config.DefaultRemote,
		serverURL: config.DefaultServerURL,
		runner:    ExecRunner{},
		logger:    logging.NewNoOpLogger(),
	}
}

func (p *Publisher) WithRunner(runner pkgsync.CommandRunner) *Publisher {
	p.runner = runner
	return p
}

func (p *Publisher) WithLogger(logger *logging.Logger) *Publisher {
	p.logger = logger
	return p
}

// WithRemote sets the name of the remote to rebase from and push to.
func (p *Publisher) WithRemote(remote string) *Publisher {
	if remote != "" {
		p.remote = remote
	}
	return p
}

// WithRepository sets the "owner/name" of the push target and the server
// hosting it. Without a repository or token the remote is left unchanged.
func (p *Publisher) WithRepository(serverURL, repository string) *Publisher {
	if serverURL != "" {
		p.serverURL = serverURL
	}
	p.repository = repository
	return p
}

func (p *Publisher) WithTokenProvider(tokens pkgsync.TokenProvider) *Publisher {
	p.tokens = tokens
	return p
}

// WithBranch sets the branch explicitly, bypassing HEAD detection.
func (p *Publisher) WithBranch(branch string) *Publisher {
	p.branch = branch
	return p
}

// Lock takes the run lock of the repository. The returned function releases
// it. Lock fails immediately if another process holds the lock.
func (p *Publisher) Lock() (func() error, error) {
	gitDir, err := p.gitDir()
	if err != nil {
		return nil, &Error{Op: OpLock, Err: err}
	}

	fl := flock.New(filepath.Join(gitDir, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, &Error{Op: OpLock, Err: err}
	}
	if !ok {
		return nil, &Error{Op: OpLock, Err: fmt.Errorf("another run holds %s", fl.Path())}
	}

	return fl.Unlock, nil
}

// SetupLFS installs the LFS hooks, ensures a tracking rule for every pattern
// and stages .gitattributes.
func (p *Publisher) SetupLFS(ctx context.Context, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}

	if err := p.git(ctx, OpLFS, "lfs", "install"); err != nil {
		return err
	}

	u, err := lfs.Ensure(p.dir, patterns)
	if err != nil {
		return &Error{Op: OpLFS, Err: err}
	}
	if u.Changed() {
		p.logger.Infof("Tracking %s with Git LFS", strings.Join(u.Added, ", "))
		p.logger.Debugf("%s", u.Diff)
	}

	return p.git(ctx, OpLFS, "add", "--", lfs.AttributesFile)
}

// ConfigureRemote points the remote at the authenticated repository URL.
// It does nothing when no repository or token is available.
func (p *Publisher) ConfigureRemote(ctx context.Context) error {
	if p.repository == "" || p.tokens == nil {
		p.logger.Debugf("No repository or token configured, leaving remote %q unchanged", p.remote)
		return nil
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return &Error{Op: OpRemote, Err: fmt.Errorf("token: %w", err)}
	}
	if token == "" {
		p.logger.Debugf("Empty token, leaving remote %q unchanged", p.remote)
		return nil
	}
	p.token = token

	remoteURL, err := RemoteURL(p.serverURL, p.repository, token)
	if err != nil {
		return &Error{Op: OpRemote, Err: err}
	}

	repo, err := p.open()
	if err != nil {
		return &Error{Op: OpRemote, Err: err}
	}

	cfg, err := repo.Config()
	if err != nil {
		return &Error{Op: OpRemote, Err: err}
	}

	if remote, ok := cfg.Remotes[p.remote]; ok {
		remote.URLs = []string{remoteURL}
	} else {
		cfg.Remotes[p.remote] = &gitconfig.RemoteConfig{
			Name:  p.remote,
			URLs:  []string{remoteURL},
			Fetch: []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", p.remote))},
		}
	}

	if err := repo.SetConfig(cfg); err != nil {
		return &Error{Op: OpRemote, Err: err}
	}

	p.logger.Debugf("Remote %q set to %s", p.remote, redact(remoteURL, token))
	return nil
}

// Branch resolves the branch to publish to: the configured branch, else the
// branch checked out at HEAD, else DefaultBranch.
func (p *Publisher) Branch() string {
	if p.branch != "" {
		return p.branch
	}

	repo, err := p.open()
	if err != nil {
		return DefaultBranch
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return DefaultBranch
	}
	return head.Name().Short()
}

// Stage adds changes to the index. With config.StageNarrow only the given
// paths (and .gitattributes) are staged, otherwise every working tree change.
func (p *Publisher) Stage(ctx context.Context, scope config.StageScope, paths []string) error {
	if scope == config.StageBroad {
		return p.git(ctx, OpStage, "add", "-A")
	}

	args := []string{"add", "-A", "--"}
	for _, path := range slices.Concat(paths, []string{lfs.AttributesFile}) {
		if _, err := os.Stat(filepath.Join(p.dir, filepath.FromSlash(path))); err == nil {
			args = append(args, path)
		}
	}
	if len(args) == 3 {
		return nil
	}

	return p.git(ctx, OpStage, args...)
}

// Commit records the index. It returns false without error when there was
// nothing to commit.
func (p *Publisher) Commit(ctx context.Context, message string) (bool, error) {
	out, err := p.runner.Run(ctx, p.dir, "git", "commit", "-m", message)
	if err != nil {
		combined := strings.ToLower(out.Combined())
		for _, s := range nothingToCommit {
			if strings.Contains(combined, s) {
				return false, nil
			}
		}
		return false, &Error{Op: OpCommit, Err: err, Output: redact(out.Combined(), p.token)}
	}
	return true, nil
}

// Rebase replays local commits onto the remote tip of branch.
func (p *Publisher) Rebase(ctx context.Context, branch string) error {
	return p.git(ctx, OpRebase, "pull", "--rebase", p.remote, branch)
}

// Push publishes HEAD to branch on the remote.
func (p *Publisher) Push(ctx context.Context, branch string) error {
	return p.git(ctx, OpPush, "push", p.remote, "HEAD:refs/heads/"+branch)
}

func (p *Publisher) git(ctx context.Context, op Op, args ...string) error {
	p.logger.Debugf("git %s", strings.Join(args, " "))
	out, err := p.runner.Run(ctx, p.dir, "git", args...)
	if err != nil {
		return &Error{Op: op, Err: err, Output: redact(out.Combined(), p.token)}
	}
	return nil
}

func (p *Publisher) open() (*git.Repository, error) {
	return git.PlainOpenWithOptions(p.dir, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
}

func (p *Publisher) gitDir() (string, error) {
	repo, err := p.open()
	if err != nil {
		return "", err
	}
	st, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", errors.New("repository is not backed by a filesystem")
	}
	return st.Filesystem().Root(), nil
}
