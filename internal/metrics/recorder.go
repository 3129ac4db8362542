// Package metrics defines observability hooks for builds and link checks.
package metrics

import "time"

// Recorder receives build and link-check observations. Implementations may
// forward to Prometheus or drop everything (NoopRecorder), allowing optional
// injection throughout the toolchain.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	SetPagesRendered(n int)
	SetCatalogSize(n int)
	IncLinksChecked(result string) // result: ok|broken|skipped|cached
	SetBrokenLinks(n int)
	ObserveCheckDuration(d time.Duration)
}

// Result labels for IncLinksChecked.
const (
	ResultOK      = "ok"
	ResultBroken  = "broken"
	ResultSkipped = "skipped"
	ResultCached  = "cached"
)

// NoopRecorder is the default Recorder when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) SetPagesRendered(int)               {}
func (NoopRecorder) SetCatalogSize(int)                 {}
func (NoopRecorder) IncLinksChecked(string)             {}
func (NoopRecorder) SetBrokenLinks(int)                 {}
func (NoopRecorder) ObserveCheckDuration(time.Duration) {}
