// Package history reconstructs catalog revisions from git: every commit
// touching the index document yields one catalog snapshot, which makes the
// append-only growth rule checkable.
package history

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sansio/corpusctl/internal/catalog"
	"github.com/sansio/corpusctl/internal/frontmatter"
)

// ErrNotARepository indicates the corpus is not inside a git checkout.
var ErrNotARepository = errors.New("history: corpus is not a git repository")

// Revision is the catalog as of one commit that touched the index document.
type Revision struct {
	Hash    string
	When    time.Time
	Message string
	Catalog *catalog.Catalog
}

// Snapshots walks the commits touching indexPath (relative to the repository
// root, slash separated) and returns catalog snapshots oldest first.
func Snapshots(repoPath, indexPath string) ([]Revision, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotARepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{FileName: &indexPath})
	if err != nil {
		return nil, fmt.Errorf("walk history of %s: %w", indexPath, err)
	}
	defer iter.Close()

	var revisions []Revision
	err = iter.ForEach(func(commit *object.Commit) error {
		file, err := commit.File(indexPath)
		if err != nil {
			if errors.Is(err, object.ErrFileNotFound) {
				return nil // commit deleted the file; no snapshot
			}
			return err
		}
		content, err := file.Contents()
		if err != nil {
			return err
		}
		revisions = append(revisions, Revision{
			Hash:    commit.Hash.String(),
			When:    commit.Committer.When,
			Message: commit.Message,
			Catalog: extractCatalog([]byte(content)),
		})
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("walk history of %s: %w", indexPath, err)
	}

	// git log yields newest first; callers reason oldest first.
	for i, j := 0, len(revisions)-1; i < j; i, j = i+1, j-1 {
		revisions[i], revisions[j] = revisions[j], revisions[i]
	}
	return revisions, nil
}

func extractCatalog(content []byte) *catalog.Catalog {
	doc, err := frontmatter.Split(content)
	if err != nil {
		return catalog.Extract(content)
	}
	return catalog.Extract(doc.Body)
}

// Regression is a transition between revisions that shrank the catalog.
type Regression struct {
	FromHash string
	ToHash   string
	Removed  []catalog.Entry
}

// CheckMonotonic verifies append-only growth across consecutive revisions.
// Supersedes (same protocol key, new project or URL) are allowed; removals
// are regressions.
func CheckMonotonic(revisions []Revision) []Regression {
	var regressions []Regression
	for i := 1; i < len(revisions); i++ {
		changes := catalog.Diff(revisions[i-1].Catalog, revisions[i].Catalog)
		if !changes.IsAppendOnly() {
			regressions = append(regressions, Regression{
				FromHash: revisions[i-1].Hash,
				ToHash:   revisions[i].Hash,
				Removed:  changes.Removed,
			})
		}
	}
	return regressions
}
