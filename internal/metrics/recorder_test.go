package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_ImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.SetPagesRendered(3)
	r.IncLinksChecked(ResultOK)
}

func TestPrometheusRecorder_RecordsGaugesAndCounters(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.SetPagesRendered(4)
	r.SetCatalogSize(12)
	r.SetBrokenLinks(2)
	r.IncLinksChecked(ResultOK)
	r.IncLinksChecked(ResultOK)
	r.IncLinksChecked(ResultBroken)
	r.ObserveBuildDuration(250 * time.Millisecond)

	require.Equal(t, 4.0, testutil.ToFloat64(r.pagesRendered))
	require.Equal(t, 12.0, testutil.ToFloat64(r.catalogSize))
	require.Equal(t, 2.0, testutil.ToFloat64(r.brokenLinks))
	require.Equal(t, 2.0, testutil.ToFloat64(r.linksChecked.WithLabelValues(ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.linksChecked.WithLabelValues(ResultBroken)))
}

func TestPrometheusRecorder_HandlerServesRegistry(t *testing.T) {
	r := NewPrometheusRecorder(nil)
	require.NotNil(t, r.Handler())
}
