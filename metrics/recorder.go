// Package metrics records compilation metrics. Components receive a Recorder and
// default to NoopRecorder; the CLI installs a PrometheusRecorder when a metrics
// file is requested.
package metrics

import "time"

// ResultLabel enumerates compilation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultCached  ResultLabel = "cached"
	ResultFailed  ResultLabel = "failed"
)

// Stages of one compilation, in pipeline order.
const (
	StageInitialize  = "initialize"
	StageParse       = "parse"
	StageGenerate    = "generate"
	StageTransform   = "transform"
	StageEmit        = "emit"
	StagePostProcess = "postprocess"
	StageWrite       = "write"
)

type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveCompileDuration(flavor string, d time.Duration)
	IncCompileResult(flavor string, result ResultLabel)
	IncCacheLookup(hit bool)
	ObserveRunDuration(d time.Duration)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveCompileDuration(string, time.Duration) {}
func (NoopRecorder) IncCompileResult(string, ResultLabel)         {}
func (NoopRecorder) IncCacheLookup(bool)                          {}
func (NoopRecorder) ObserveRunDuration(time.Duration)             {}
func (NoopRecorder) SetWorkers(int)                               {}
