package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// commitIndex writes content to implementations.md and commits it.
func commitIndex(t *testing.T, repo *git.Repository, dir, content, message string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "implementations.md"), []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("implementations.md")
	require.NoError(t, err)

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "editor", Email: "editor@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

const rev1 = `# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/1.1 | [h11](https://example.com/h11) |
`

const rev2 = rev1 + "| HTTP/2   | [hyper-h2](https://example.com/h2) |\n"

const rev3 = `# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/2   | [hyper-h2](https://example.com/h2) |
`

func TestSnapshots_ReturnsOldestFirstWithCatalogs(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first := commitIndex(t, repo, dir, rev1, "add h11")
	second := commitIndex(t, repo, dir, rev2, "add hyper-h2")

	revisions, err := Snapshots(dir, "implementations.md")
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	require.Equal(t, first, revisions[0].Hash)
	require.Equal(t, second, revisions[1].Hash)
	require.Equal(t, 1, revisions[0].Catalog.Len())
	require.Equal(t, 2, revisions[1].Catalog.Len())
}

func TestSnapshots_NotARepository(t *testing.T) {
	_, err := Snapshots(t.TempDir(), "implementations.md")
	require.ErrorIs(t, err, ErrNotARepository)
}

func TestCheckMonotonic_GrowthPasses(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitIndex(t, repo, dir, rev1, "add h11")
	commitIndex(t, repo, dir, rev2, "add hyper-h2")

	revisions, err := Snapshots(dir, "implementations.md")
	require.NoError(t, err)
	require.Empty(t, CheckMonotonic(revisions))
}

func TestCheckMonotonic_RemovalIsRegression(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitIndex(t, repo, dir, rev2, "both protocols")
	removal := commitIndex(t, repo, dir, rev3, "drop h11")

	revisions, err := Snapshots(dir, "implementations.md")
	require.NoError(t, err)

	regressions := CheckMonotonic(revisions)
	require.Len(t, regressions, 1)
	require.Equal(t, removal, regressions[0].ToHash)
	require.Len(t, regressions[0].Removed, 1)
	require.Equal(t, "HTTP/1.1", regressions[0].Removed[0].Protocol)
}

func TestCheckMonotonic_SupersedeIsNotRegression(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitIndex(t, repo, dir, rev1, "add h11")
	superseded := `# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/1.1 | [h11-fork](https://example.com/h11-fork) |
`
	commitIndex(t, repo, dir, superseded, "supersede h11 with fork")

	revisions, err := Snapshots(dir, "implementations.md")
	require.NoError(t, err)
	require.Empty(t, CheckMonotonic(revisions))
}
