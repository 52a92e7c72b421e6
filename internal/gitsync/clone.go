package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

// Syncer fetches a fresh copy of the documentation repository for a
// rebuild. Every fetch is a shallow clone into a new temp directory,
// nothing is kept between syncs.
type Syncer struct {
	cloneFn   func(ctx context.Context, url, dest string) error
	attempts  int
	retryWait time.Duration
	logger    *logger_i.Logger
}

func New() *Syncer {
	return &Syncer{
		cloneFn:   shallowClone,
		attempts:  config.CloneAttempts,
		retryWait: config.CloneRetryWait,
		logger:    logger_i.NewLogger("Repo Sync"),
	}
}

// NewWithClone swaps the clone function and drops the retry waits. Used by
// tests.
func NewWithClone(clone func(ctx context.Context, url, dest string) error) *Syncer {
	s := New()
	s.cloneFn = clone
	s.retryWait = 0
	return s
}

// FetchDocs clones the configured repository and returns the directory
// holding the documents. cleanup removes the whole clone, call it once the
// build is done with the files.
func (s *Syncer) FetchDocs(ctx context.Context) (string, func(), error) {
	if config.DocsRepoURL == "" {
		return "", nil, errors.New("DOCS_REPO_URL is not configured")
	}

	dest, err := os.MkdirTemp("", "ragbot-docs-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dest) }

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.cloneFn(ctx, config.DocsRepoURL, dest)
		if lastErr == nil {
			docsDir := dest
			if config.DocsRepoSubdir != "" {
				docsDir = filepath.Join(dest, config.DocsRepoSubdir)
			}
			if info, err := os.Stat(docsDir); err != nil || !info.IsDir() {
				cleanup()
				return "", nil, fmt.Errorf("clone of %s has no %q directory", config.DocsRepoURL, config.DocsRepoSubdir)
			}
			s.logger.Info("Repository cloned", "url", config.DocsRepoURL, "attempt", attempt)
			return docsDir, cleanup, nil
		}

		s.logger.Error("Clone attempt failed", "attempt", attempt, "error", lastErr)
		// go-git refuses a non-empty target, start the next attempt clean
		os.RemoveAll(dest)
		if err := os.MkdirAll(dest, 0755); err != nil {
			return "", nil, err
		}

		if attempt < s.attempts {
			select {
			case <-ctx.Done():
				cleanup()
				return "", nil, ctx.Err()
			case <-time.After(s.retryWait):
			}
		}
	}

	cleanup()
	return "", nil, fmt.Errorf("cloning %s failed after %d attempts: %w", config.DocsRepoURL, s.attempts, lastErr)
}

func shallowClone(ctx context.Context, url, dest string) error {
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	})
	return err
}
