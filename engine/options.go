package engine

import (
	"log/slog"

	"github.com/cpcf/razorgen/config"
	"github.com/cpcf/razorgen/emit"
	"github.com/cpcf/razorgen/metrics"
	"github.com/cpcf/razorgen/postprocess"
	"github.com/cpcf/razorgen/transform"
	"github.com/cpcf/razorgen/write"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFailureMode overrides the failure mode named in the settings.
func WithFailureMode(mode FailureMode) Option {
	return func(e *Engine) {
		e.failMode = mode
		e.failModeSet = true
	}
}

func WithRegistry(reg *transform.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithWorkers overrides the worker count named in the settings.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithCache enables result caching. A nil cache disables it.
func WithCache(c *ResultCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

func WithWriter(w write.Writer, opts write.WriteOptions) Option {
	return func(e *Engine) {
		if w != nil {
			e.writer = w
		}
		e.writeOptions = opts
	}
}

func WithEmitter(em *emit.Emitter) Option {
	return func(e *Engine) {
		e.emitter = em
	}
}

// AddPostProcessor runs processor after the header and whitespace processors and
// before line endings are normalised.
func AddPostProcessor(processor postprocess.Processor) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, processor)
	}
}
