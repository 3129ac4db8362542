// Package manifest records a build's inputs and outputs with content digests,
// so two builds over the same corpus can be compared for byte-stability.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Manifest is the persisted record of one build.
type Manifest struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Inputs      []File    `json:"inputs"`
	Outputs     []File    `json:"outputs"`
	CatalogSize int       `json:"catalog_size"`
	SiteDigest  string    `json:"site_digest"`
}

// File pairs a relative path with the sha256 of its content.
type File struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// New creates an empty manifest with a fresh build id.
func New() *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// AddInput records a source file digest.
func (m *Manifest) AddInput(path string, content []byte) {
	m.Inputs = append(m.Inputs, File{Path: path, SHA256: Digest(content)})
}

// AddOutput records a rendered file digest.
func (m *Manifest) AddOutput(path string, content []byte) {
	m.Outputs = append(m.Outputs, File{Path: path, SHA256: Digest(content)})
}

// Seal computes the site digest over all outputs. The digest depends only on
// output paths and content, never on build id or timestamp, so identical
// inputs always seal to the identical digest.
func (m *Manifest) Seal() {
	sort.Slice(m.Inputs, func(i, j int) bool { return m.Inputs[i].Path < m.Inputs[j].Path })
	sort.Slice(m.Outputs, func(i, j int) bool { return m.Outputs[i].Path < m.Outputs[j].Path })

	h := sha256.New()
	for _, f := range m.Outputs {
		fmt.Fprintf(h, "%s\x00%s\x00", f.Path, f.SHA256)
	}
	m.SiteDigest = hex.EncodeToString(h.Sum(nil))
}

// Digest returns the hex sha256 of content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ManifestFilename is where Save places the manifest inside the site tree.
const ManifestFilename = "manifest.json"

// Save writes the manifest as indented JSON into dir.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFilename), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest previously written with Save.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
