// Package gitsource syncs a remote git repository into a local directory so
// its tree can serve as the build's content source.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/pageflow/internal/retry"
)

// Client clones or updates one content repository.
type Client struct {
	repoURL string
	branch  string
	dir     string
	policy  retry.Policy
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy overrides the default retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a client syncing repoURL (at branch) into dir.
func NewClient(repoURL, branch, dir string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		repoURL: repoURL,
		branch:  branch,
		dir:     dir,
		policy:  retry.DefaultPolicy(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync makes dir hold an up-to-date checkout: a fresh clone if the directory
// is not a repository yet, otherwise a pull. Transient failures are retried
// per the client's backoff policy. Returns the HEAD commit hash.
func (c *Client) Sync() (string, error) {
	hash, err := c.syncOnce()
	for attempt := 1; err != nil && attempt <= c.policy.MaxRetries; attempt++ {
		delay := c.policy.Delay(attempt)
		c.logger.Warn("content sync failed, retrying",
			"url", c.repoURL, "attempt", attempt, "delay", delay, "error", err)
		time.Sleep(delay)
		hash, err = c.syncOnce()
	}
	return hash, err
}

func (c *Client) syncOnce() (string, error) {
	repo, err := git.PlainOpen(c.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return c.clone()
	}
	if err != nil {
		return "", fmt.Errorf("open content repository %s: %w", c.dir, err)
	}
	return c.pull(repo)
}

func (c *Client) clone() (string, error) {
	if err := os.RemoveAll(c.dir); err != nil {
		return "", fmt.Errorf("clear content directory: %w", err)
	}

	opts := &git.CloneOptions{URL: c.repoURL}
	if c.branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + c.branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainClone(c.dir, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", c.repoURL, err)
	}
	return c.logHead(repo, "content repository cloned")
}

func (c *Client) pull(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	opts := &git.PullOptions{RemoteName: "origin"}
	if c.branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + c.branch)
		opts.SingleBranch = true
	}

	if err := wt.Pull(opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("pull %s: %w", c.repoURL, err)
	}
	return c.logHead(repo, "content repository updated")
}

func (c *Client) logHead(repo *git.Repository, msg string) (string, error) {
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	hash := ref.Hash().String()
	c.logger.Info(msg, "url", c.repoURL, "branch", c.branch, "commit", hash[:8])
	return hash, nil
}
