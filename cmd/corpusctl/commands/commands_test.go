package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sansio/corpusctl/internal/config"
)

// fixture writes a corpus plus a config file pointing at it, returning the
// config path.
func fixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	corpus := filepath.Join(base, "docs")
	require.NoError(t, os.MkdirAll(corpus, 0o755))

	index := `---
title: Implementations
---
# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/1.1 | [h11](https://example.com/h11) |
`
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "implementations.md"), []byte(index), 0o644))

	cfg := config.Config{
		Corpus: config.CorpusConfig{Dir: corpus, Index: "implementations.md"},
		Site:   config.SiteConfig{Title: "Sans I/O"},
		Output: config.OutputConfig{Directory: filepath.Join(base, "site"), Clean: true},
	}
	data, err := yaml.Marshal(&cfg)
	require.NoError(t, err)

	path := filepath.Join(base, "corpus.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCLI_ParsesCommands(t *testing.T) {
	for _, args := range [][]string{
		{"build"},
		{"build", "-o", "out"},
		{"lint", "--history"},
		{"lint", "-f", "json", "-q"},
		{"check-links", "--external-only"},
		{"catalog", "list"},
		{"catalog", "diff"},
		{"catalog", "history", "--strict"},
		{"serve", "-p", "8080"},
		{"init", "--force"},
	} {
		var cli CLI
		parser, err := kong.New(&cli, kong.Vars{"version": "test"})
		require.NoError(t, err)
		_, err = parser.Parse(args)
		require.NoError(t, err, "args %v", args)
	}
}

func TestBuildCmd_RendersSite(t *testing.T) {
	configPath := fixture(t)
	root := &CLI{Config: configPath}

	cmd := &BuildCmd{}
	require.NoError(t, cmd.Run(&Global{}, root))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Directory, "implementations.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Directory, "manifest.json"))
	require.NoError(t, err)
}

func TestLintCmd_PassesOnCleanCorpus(t *testing.T) {
	configPath := fixture(t)
	root := &CLI{Config: configPath}

	cmd := &LintCmd{Format: "text"}
	require.NoError(t, cmd.Run(&Global{}, root))
}

func TestLintCmd_FailsOnDuplicateProtocol(t *testing.T) {
	configPath := fixture(t)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	indexPath := filepath.Join(cfg.Corpus.Dir, cfg.Corpus.Index)
	raw, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	raw = append(raw, []byte("| http/1.1 | [other](https://example.com/other) |\n")...)
	require.NoError(t, os.WriteFile(indexPath, raw, 0o644))

	cmd := &LintCmd{Format: "text"}
	require.Error(t, cmd.Run(&Global{}, &CLI{Config: configPath}))
}

func TestInitCmd_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	cmd := &InitCmd{}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: path}))

	_, err := config.Load(path)
	require.NoError(t, err)
}

func TestCatalogDiffCmd_AppendPassesRemovalFails(t *testing.T) {
	configPath := fixture(t)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	repo, err := git.PlainInit(cfg.Corpus.Dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(cfg.Corpus.Index)
	require.NoError(t, err)
	_, err = wt.Commit("initial catalog", &git.CommitOptions{
		Author: &object.Signature{Name: "editor", Email: "e@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	indexPath := filepath.Join(cfg.Corpus.Dir, cfg.Corpus.Index)
	raw, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	appended := append(raw, []byte("| HTTP/2 | [hyper-h2](https://example.com/h2) |\n")...)
	require.NoError(t, os.WriteFile(indexPath, appended, 0o644))
	require.NoError(t, (&CatalogDiffCmd{}).Run(&Global{}, &CLI{Config: configPath}))

	shrunk := `---
title: Implementations
---
# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/2   | [hyper-h2](https://example.com/h2) |
`
	require.NoError(t, os.WriteFile(indexPath, []byte(shrunk), 0o644))
	err = (&CatalogDiffCmd{}).Run(&Global{}, &CLI{Config: configPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "removed")
}

func TestCheckCmd_FailsWithoutRenderedSite(t *testing.T) {
	configPath := fixture(t)
	cmd := &CheckCmd{}
	err := cmd.Run(&Global{}, &CLI{Config: configPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "run 'corpusctl build' first")
}
