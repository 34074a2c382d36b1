package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	defaultSignatureName  = "verbump"
	defaultSignatureEmail = "verbump@localhost"
)

// gitRepository is the implementation of the GitExtendedRepository interface.

type gitRepository struct {
	repo *git.Repository
}

func openRepository(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return repo, nil
}

// NewGitExtendedRepository opens the repository containing dir with all write operations.
func NewGitExtendedRepository(dir string) (GitExtendedRepository, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo}, nil
}

// TagsAtHead returns the names of all tags pointing at HEAD, sorted by name.
func (r *gitRepository) TagsAtHead(_ context.Context) ([]string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	tagRefs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	var tags []string
	if err := tagRefs.ForEach(func(ref *plumbing.Reference) error {
		hash, err := r.resolveTagCommit(ref)
		if err != nil {
			return nil // Skip tags that do not point at a commit
		}
		if hash == head.Hash() {
			tags = append(tags, ref.Name().Short())
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	sort.Strings(tags)
	return tags, nil
}

// resolveTagCommit resolves a tag reference to its commit hash.
func (r *gitRepository) resolveTagCommit(tagRef *plumbing.Reference) (plumbing.Hash, error) {
	// Try as lightweight tag first
	if commit, err := r.repo.CommitObject(tagRef.Hash()); err == nil {
		return commit.Hash, nil
	}
	// Try as annotated tag
	if tagObj, err := r.repo.TagObject(tagRef.Hash()); err == nil {
		if commit, err := tagObj.Commit(); err == nil {
			return commit.Hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("failed to resolve commit for tag %s", tagRef.Name().Short())
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// CreateTag tags HEAD. An empty message creates a lightweight tag.
func (r *gitRepository) CreateTag(_ context.Context, tag, msg string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	var opts *git.CreateTagOptions
	if msg != "" {
		opts = &git.CreateTagOptions{Message: msg, Tagger: r.signature()}
	}
	if _, err := r.repo.CreateTag(tag, head.Hash(), opts); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}
	return nil
}

// AddFiles stages the given paths. Absolute paths are made relative to the worktree root.
func (r *gitRepository) AddFiles(_ context.Context, paths ...string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, path := range paths {
		rel, err := r.worktreePath(w, path)
		if err != nil {
			return err
		}
		if _, err := w.Add(rel); err != nil {
			return fmt.Errorf("failed to add %s: %w", rel, err)
		}
	}
	return nil
}

// Commit creates a commit with the given message.
func (r *gitRepository) Commit(_ context.Context, message string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	sig := r.signature()
	_, err = w.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// ResetMixed moves HEAD and the index to ref, leaving the worktree untouched.
// An empty ref returns the current branch to its unborn state.
func (r *gitRepository) ResetMixed(_ context.Context, ref string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if ref == "" {
		return r.resetUnborn()
	}
	// Resolve the reference
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve revision %s: %w", ref, err)
	}
	err = w.Reset(&git.ResetOptions{
		Commit: *hash,
		Mode:   git.MixedReset,
	})
	if err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// GetHeadCommit returns the SHA of the current HEAD commit, or an empty string
// when the current branch has no commits yet.
func (r *gitRepository) GetHeadCommit(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// resetUnborn removes the branch HEAD points at and empties the index, like
// undoing a root commit with update-ref -d and rm --cached.
func (r *gitRepository) resetUnborn() error {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference {
		err := r.repo.Storer.RemoveReference(head.Target())
		if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("failed to remove branch %s: %w", head.Target().Short(), err)
		}
	}
	if err := r.repo.Storer.SetIndex(&index.Index{Version: 2}); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// GetFileStatus returns the git status of a specific file.
// Returns "clean" if the file has no changes, "modified" if it has uncommitted changes.
func (r *gitRepository) GetFileStatus(_ context.Context, path string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	rel, err := r.worktreePath(w, path)
	if err != nil {
		return "", err
	}
	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	fileStatus := status.File(rel)
	if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
		return "clean", nil
	}
	return "modified", nil
}

// worktreePath converts path to the slash-separated form the index uses.
func (r *gitRepository) worktreePath(w *git.Worktree, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	root := w.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s inside worktree: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}

// signature builds the author identity from git configuration, the standard
// GIT_AUTHOR_* variables, or a fixed fallback.
func (r *gitRepository) signature() *object.Signature {
	name := os.Getenv("GIT_AUTHOR_NAME")
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
		if name == "" {
			name = cfg.User.Name
		}
		if email == "" {
			email = cfg.User.Email
		}
	}
	if name == "" {
		name = defaultSignatureName
	}
	if email == "" {
		email = defaultSignatureEmail
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}
