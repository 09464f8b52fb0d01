package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration(StageParse, 15*time.Millisecond)
	pr.ObserveCompileDuration("MvcView", 40*time.Millisecond)
	pr.IncCompileResult("MvcView", ResultSuccess)
	pr.IncCompileResult("MvcView", ResultSuccess)
	pr.IncCompileResult("MvcView", ResultFailed)
	pr.IncCacheLookup(true)
	pr.IncCacheLookup(false)
	pr.ObserveRunDuration(time.Second)
	pr.SetWorkers(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.compileResults.WithLabelValues("MvcView", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.compileResults.WithLabelValues("MvcView", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pr.workers))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncCompileResult("MvcView", ResultSuccess)
	pr.IncCacheLookup(true)
	pr.SetWorkers(1)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncCompileResult("WebPage", ResultCached)

	path := filepath.Join(t.TempDir(), "razorgen.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `razorgen_compile_results_total{flavor="WebPage",result="cached"} 1`))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration(StageEmit, time.Millisecond)
	r.IncCompileResult("MvcView", ResultSuccess)
}
