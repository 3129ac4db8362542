package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeal_DigestDependsOnlyOnOutputs(t *testing.T) {
	a := New()
	a.AddOutput("index.html", []byte("<html>a</html>"))
	a.AddOutput("essay.html", []byte("<html>b</html>"))
	a.Seal()

	b := New()
	// Different insertion order, same content.
	b.AddOutput("essay.html", []byte("<html>b</html>"))
	b.AddOutput("index.html", []byte("<html>a</html>"))
	b.Seal()

	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, a.SiteDigest, b.SiteDigest)
}

func TestSeal_DigestChangesWithContent(t *testing.T) {
	a := New()
	a.AddOutput("index.html", []byte("one"))
	a.Seal()

	b := New()
	b.AddOutput("index.html", []byte("two"))
	b.Seal()

	require.NotEqual(t, a.SiteDigest, b.SiteDigest)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := New()
	m.AddInput("docs/index.md", []byte("# hi"))
	m.AddOutput("index.html", []byte("<html></html>"))
	m.CatalogSize = 7
	m.Seal()
	require.NoError(t, m.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, m.ID, loaded.ID)
	require.Equal(t, m.SiteDigest, loaded.SiteDigest)
	require.Equal(t, 7, loaded.CatalogSize)
	require.Len(t, loaded.Inputs, 1)
}
