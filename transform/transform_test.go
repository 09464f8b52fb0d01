package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	razortest "github.com/cpcf/razorgen/testing"
)

func newUnit() *codetree.Unit {
	return &codetree.Unit{
		Namespace: "ASP",
		Class:     &codetree.Class{Name: "Index_cshtml", Visibility: "public"},
	}
}

func TestAggregateRunsUnitsInOrder(t *testing.T) {
	journal := razortest.NewJournal()
	a := NewAggregate("Test",
		razortest.NewRecordingTransformer("first", journal),
		razortest.NewRecordingTransformer("second", journal),
		razortest.NewRecordingTransformer("third", journal),
	)

	h := host.New("/p/Views/Index.cshtml", "Views/Index.cshtml")
	require.NoError(t, a.Initialize(h, host.Directives{}))
	require.NoError(t, a.Transform(newUnit()))

	want := []string{"first", "second", "third"}
	assert.Equal(t, want, journal.Sequence(razortest.PhaseInitialize))
	assert.Equal(t, want, journal.Sequence(razortest.PhaseTransform))
	assert.Equal(t, want, a.UnitNames())
}

func TestAggregateOrderIsStableAcrossInstances(t *testing.T) {
	build := func() *Aggregate {
		return NewAggregate("Test", &SetImports{Namespaces: []string{"A"}}, &MakeTypePartial{}).
			When(Absent("X"), func(host.Directives) Transformer { return &GenerateDefaultClassNames{} })
	}

	var orders [][]string
	for range 3 {
		a := build()
		require.NoError(t, a.Initialize(host.New("/p/a.cshtml", "a.cshtml"), host.Directives{}))
		orders = append(orders, a.UnitNames())
	}
	assert.Equal(t, orders[0], orders[1])
	assert.Equal(t, orders[1], orders[2])
	assert.Equal(t, []string{"SetImports", "MakeTypePartial", "GenerateDefaultClassNames"}, orders[0])
}

func TestAggregateConditionals(t *testing.T) {
	tests := []struct {
		name       string
		directives host.Directives
		want       []string
	}{
		{
			name:       "neither",
			directives: host.Directives{"Skip": "true"},
			want:       []string{"fixed"},
		},
		{
			name:       "absent key adds unit",
			directives: host.Directives{},
			want:       []string{"fixed", "whenAbsent"},
		},
		{
			name:       "both in registration order",
			directives: host.Directives{"Flag": "true"},
			want:       []string{"fixed", "whenAbsent", "whenEnabled"},
		},
		{
			name:       "present but false",
			directives: host.Directives{"Flag": "false", "Skip": ""},
			want:       []string{"fixed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journal := razortest.NewJournal()
			a := NewAggregate("Test", razortest.NewRecordingTransformer("fixed", journal)).
				When(Absent("Skip"), func(host.Directives) Transformer {
					return razortest.NewRecordingTransformer("whenAbsent", journal)
				}).
				When(Enabled("Flag"), func(host.Directives) Transformer {
					return razortest.NewRecordingTransformer("whenEnabled", journal)
				})

			require.NoError(t, a.Initialize(host.New("/p/a.cshtml", "a.cshtml"), tt.directives))
			assert.Equal(t, tt.want, a.UnitNames())
			assert.Equal(t, tt.want, journal.Sequence(razortest.PhaseInitialize))
		})
	}
}

func TestAggregateRegistrationOrderDecidesConditionalOrder(t *testing.T) {
	journal := razortest.NewJournal()
	unit := func(name string) func(host.Directives) Transformer {
		return func(host.Directives) Transformer { return razortest.NewRecordingTransformer(name, journal) }
	}

	a := NewAggregate("AB").When(Present("K"), unit("a")).When(Present("K"), unit("b"))
	b := NewAggregate("BA").When(Present("K"), unit("b")).When(Present("K"), unit("a"))

	d := host.Directives{"K": "1"}
	require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), d))
	require.NoError(t, b.Initialize(host.New("/p/x.cshtml", "x.cshtml"), d))

	assert.Equal(t, []string{"a", "b"}, a.UnitNames())
	assert.Equal(t, []string{"b", "a"}, b.UnitNames())
}

func TestAggregateRebinderRunsFirst(t *testing.T) {
	journal := razortest.NewJournal()
	var rebound bool

	first := razortest.NewRecordingTransformer("first", journal)
	first.OnInitialize = func(*host.Host, host.Directives) error {
		if !rebound {
			return errors.New("rebinder has not run")
		}
		return nil
	}

	a := NewAggregate("Test", first).WithRebinder(RebinderFunc(func(h *host.Host, _ host.Directives) error {
		rebound = true
		return nil
	}))

	require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}))
	assert.True(t, rebound)
}

func TestAggregateRebinderErrorIsConfigurationError(t *testing.T) {
	cause := errors.New("boom")
	a := NewAggregate("Test").WithRebinder(RebinderFunc(func(*host.Host, host.Directives) error {
		return cause
	}))

	err := a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Test", cfgErr.Field)
}

func TestAggregateUnitsReceiveDirectiveCopies(t *testing.T) {
	journal := razortest.NewJournal()
	mutator := razortest.NewRecordingTransformer("mutator", journal)
	mutator.OnInitialize = func(_ *host.Host, d host.Directives) error {
		d["Injected"] = "1"
		return nil
	}
	observer := razortest.NewRecordingTransformer("observer", journal)

	d := host.Directives{"Namespace": "App"}
	a := NewAggregate("Test", mutator, observer)
	require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), d))

	assert.NotContains(t, d, "Injected")
	calls := observer.InitializeCalls()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0], "Injected")
	assert.Equal(t, "App", calls[0]["Namespace"])
}

func TestAggregateNested(t *testing.T) {
	journal := razortest.NewJournal()
	inner := NewAggregate("Inner",
		razortest.NewRecordingTransformer("inner1", journal),
		razortest.NewRecordingTransformer("inner2", journal),
	).When(Present("Extra"), func(host.Directives) Transformer {
		return razortest.NewRecordingTransformer("innerExtra", journal)
	})
	outer := NewAggregate("Outer",
		razortest.NewRecordingTransformer("before", journal),
		inner,
		razortest.NewRecordingTransformer("after", journal),
	)

	require.NoError(t, outer.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{"Extra": ""}))
	require.NoError(t, outer.Transform(newUnit()))

	want := []string{"before", "inner1", "inner2", "innerExtra", "after"}
	assert.Equal(t, want, journal.Sequence(razortest.PhaseTransform))
	assert.Equal(t, []string{"before", "Inner", "after"}, outer.UnitNames())
}

func TestAggregateLifecycleGuards(t *testing.T) {
	t.Run("transform before initialize", func(t *testing.T) {
		a := NewAggregate("Test")
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, a.Transform(newUnit()), &cfgErr)
	})

	t.Run("initialize twice", func(t *testing.T) {
		a := NewAggregate("Test")
		h := host.New("/p/x.cshtml", "x.cshtml")
		require.NoError(t, a.Initialize(h, host.Directives{}))
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, a.Initialize(h, host.Directives{}), &cfgErr)
	})

	t.Run("transform twice", func(t *testing.T) {
		rec := razortest.NewRecordingTransformer("unit", nil)
		a := NewAggregate("Test", rec)
		require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}))
		require.NoError(t, a.Transform(newUnit()))
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, a.Transform(newUnit()), &cfgErr)
		assert.Equal(t, 1, rec.TransformCount())
	})

	t.Run("nil host", func(t *testing.T) {
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, NewAggregate("Test").Initialize(nil, host.Directives{}), &cfgErr)
	})

	t.Run("transform after failed initialize", func(t *testing.T) {
		a := NewAggregate("Test",
			&AddGeneratedClassAttribute{Tool: "razorgen", Version: "1.0.0.0"},
			&SetBaseType{TypeName: ""},
			&MakeTypePartial{},
		)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}), &cfgErr)

		unit := newUnit()
		assert.ErrorAs(t, a.Transform(unit), &cfgErr)
		assert.Empty(t, unit.Class.Attributes)
		assert.False(t, unit.Class.Partial)
		assert.ErrorAs(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}), &cfgErr)
	})

	t.Run("transform after failed rebind", func(t *testing.T) {
		rec := razortest.NewRecordingTransformer("unit", nil)
		a := NewAggregate("Test", rec).WithRebinder(RebinderFunc(func(*host.Host, host.Directives) error {
			return errors.New("bad path")
		}))
		require.Error(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}))

		var cfgErr *ConfigurationError
		assert.ErrorAs(t, a.Transform(newUnit()), &cfgErr)
		assert.Equal(t, 0, rec.TransformCount())
	})

	t.Run("nil unit", func(t *testing.T) {
		a := NewAggregate("Test")
		require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}))
		var tErr *TransformError
		assert.ErrorAs(t, a.Transform(nil), &tErr)
	})
}

func TestAggregateStopsAtFirstError(t *testing.T) {
	journal := razortest.NewJournal()
	failing := razortest.NewRecordingTransformer("failing", journal)
	failing.OnTransform = func(*codetree.Unit) error { return errors.New("bad tree") }
	never := razortest.NewRecordingTransformer("never", journal)

	a := NewAggregate("Test", failing, never)
	require.NoError(t, a.Initialize(host.New("/p/x.cshtml", "x.cshtml"), host.Directives{}))

	err := a.Transform(newUnit())
	var tErr *TransformError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "failing", tErr.Unit)
	assert.Equal(t, 0, never.TransformCount())
}

func TestAggregateLogsUnits(t *testing.T) {
	logs := razortest.NewLogRecorder()
	a := NewAggregate("Test", &MakeTypePartial{})
	h := host.New("/p/x.cshtml", "x.cshtml", host.WithLogger(logs.Logger()))

	require.NoError(t, a.Initialize(h, host.Directives{}))
	assert.True(t, logs.HasMessage("pipeline initialized"))
	v, ok := logs.Attr("pipeline initialized", "pipeline")
	require.True(t, ok)
	assert.Equal(t, "Test", v.String())
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "SetImports", NameOf(&SetImports{}))
	assert.Equal(t, "*transform.anonymous", NameOf(&anonymous{}))
}

type anonymous struct{}

func (*anonymous) Initialize(*host.Host, host.Directives) error { return nil }
func (*anonymous) Transform(*codetree.Unit) error               { return nil }
