package testing

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
)

// Journal collects the lifecycle calls of several RecordingTransformers in the
// order they happened.
type Journal struct {
	mu      sync.Mutex
	entries []JournalEntry
}

type JournalEntry struct {
	Unit  string
	Phase string
	// Class is a copy of the class declaration as seen by Transform; nil for Initialize.
	Class *codetree.Class
}

const (
	PhaseInitialize = "initialize"
	PhaseTransform  = "transform"
)

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) record(entry JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *Journal) Entries() []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Sequence returns the unit names recorded for phase, in call order.
func (j *Journal) Sequence(phase string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	var names []string
	for _, e := range j.entries {
		if e.Phase == phase {
			names = append(names, e.Unit)
		}
	}
	return names
}

// Find returns the first entry for unit in phase.
func (j *Journal) Find(unit, phase string) (JournalEntry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range j.entries {
		if e.Unit == unit && e.Phase == phase {
			return e, true
		}
	}
	return JournalEntry{}, false
}

// RecordingTransformer is a transformer that records its calls. Hooks, when set,
// run after the call is recorded and decide the returned error.
type RecordingTransformer struct {
	UnitName     string
	OnInitialize func(h *host.Host, directives host.Directives) error
	OnTransform  func(unit *codetree.Unit) error

	journal    *Journal
	mu         sync.Mutex
	directives []host.Directives
	transforms int
}

func NewRecordingTransformer(name string, journal *Journal) *RecordingTransformer {
	if journal == nil {
		journal = NewJournal()
	}
	return &RecordingTransformer{UnitName: name, journal: journal}
}

func (rt *RecordingTransformer) Name() string {
	return rt.UnitName
}

func (rt *RecordingTransformer) Initialize(h *host.Host, directives host.Directives) error {
	rt.mu.Lock()
	rt.directives = append(rt.directives, directives)
	rt.mu.Unlock()

	rt.journal.record(JournalEntry{Unit: rt.UnitName, Phase: PhaseInitialize})
	if rt.OnInitialize != nil {
		return rt.OnInitialize(h, directives)
	}
	return nil
}

func (rt *RecordingTransformer) Transform(unit *codetree.Unit) error {
	rt.mu.Lock()
	rt.transforms++
	rt.mu.Unlock()

	entry := JournalEntry{Unit: rt.UnitName, Phase: PhaseTransform}
	if unit != nil && unit.Class != nil {
		entry.Class = snapshotClass(unit.Class)
	}
	rt.journal.record(entry)

	if rt.OnTransform != nil {
		return rt.OnTransform(unit)
	}
	return nil
}

// InitializeCalls returns the directive sets passed to Initialize.
func (rt *RecordingTransformer) InitializeCalls() []host.Directives {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return slices.Clone(rt.directives)
}

func (rt *RecordingTransformer) TransformCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.transforms
}

func snapshotClass(c *codetree.Class) *codetree.Class {
	cp := *c
	cp.BaseTypes = slices.Clone(c.BaseTypes)
	cp.Attributes = slices.Clone(c.Attributes)
	cp.Members = nil
	return &cp
}

// LogRecorder is a slog.Handler that keeps every record it handles.
type LogRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Logger returns a logger writing to the recorder at debug level.
func (lr *LogRecorder) Logger() *slog.Logger {
	return slog.New(lr)
}

func (lr *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

func (lr *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.records = append(lr.records, r.Clone())
	return nil
}

// WithAttrs and WithGroup are not tracked; records keep only their own attributes.
func (lr *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return lr }
func (lr *LogRecorder) WithGroup(string) slog.Handler      { return lr }

func (lr *LogRecorder) HasMessage(message string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	for _, r := range lr.records {
		if r.Message == message {
			return true
		}
	}
	return false
}

// Attr returns the value of key on the first record with message.
func (lr *LogRecorder) Attr(message, key string) (slog.Value, bool) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	for _, r := range lr.records {
		if r.Message != message {
			continue
		}
		var (
			val   slog.Value
			found bool
		)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val, found = a.Value, true
				return false
			}
			return true
		})
		if found {
			return val, true
		}
	}
	return slog.Value{}, false
}

func (lr *LogRecorder) CountByLevel(level slog.Level) int {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	count := 0
	for _, r := range lr.records {
		if r.Level == level {
			count++
		}
	}
	return count
}
