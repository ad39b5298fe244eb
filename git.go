package mountfs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git serves the blobs of a git tree as it was at one revision. The
// revision is resolved once, when the store is created; later commits to
// the repository do not change what the store sees.
type Git struct {
	tree   *object.Tree
	commit plumbing.Hash
}

// NewGit serves repo at rev, which may be anything git rev-parse accepts
// that go-git understands: "HEAD", a branch, a tag, "main~2", a hash.
func NewGit(repo *git.Repository, rev string) (*Git, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", hash, err)
	}
	return &Git{tree: tree, commit: *hash}, nil
}

// OpenGit opens the repository at dir (searching parent directories for
// .git) and serves it at rev.
func OpenGit(dir, rev string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	return NewGit(repo, rev)
}

// Commit returns the commit the store was resolved to.
func (g *Git) Commit() plumbing.Hash { return g.commit }

func (g *Git) Open(name string) (File, error) {
	rel := cleanName(name)
	if rel == "" {
		return nil, notFound("git", name)
	}
	f, err := g.tree.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) || errors.Is(err, object.ErrEntryNotFound) {
			return nil, notFound("git", name)
		}
		return nil, backendError("git", name, err)
	}
	rc, err := f.Reader()
	if err != nil {
		return nil, backendError("git", name, err)
	}
	return rc, nil
}
