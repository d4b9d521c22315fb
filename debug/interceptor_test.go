package debug_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/delaneyj/ripple/atom"
	"github.com/delaneyj/ripple/debug"
	"github.com/delaneyj/ripple/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConsoleInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug)

	base := atom.State(1, atom.WithDebugLabel("base"))
	other := atom.State(1, atom.WithDebugLabel("other"))
	store := atom.NewStore(atom.WithInterceptor(debug.ConsoleInterceptor(logger, debug.Watch{Signal: base})))

	require.NoError(t, base.Set(store, 2))
	require.NoError(t, other.Set(store, 2))

	out := buf.String()
	assert.Contains(t, out, "op=set")
	assert.Contains(t, out, "label=base")
	assert.NotContains(t, out, "label=other")
}

func TestConsoleInterceptorLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug)

	boom := errors.New("boom")
	failing := atom.Computed(func(atom.Getter, *atom.ReadOptions) (int, error) {
		return 0, boom
	}, atom.WithDebugLabel("failing"))
	store := atom.NewStore(atom.WithInterceptor(debug.ConsoleInterceptor(logger, debug.Watch{
		Signal: failing,
		Ops:    []atom.Op{atom.OpComputed},
	})))

	_, err := failing.Get(store)
	require.ErrorIs(t, err, boom)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "op=computed")
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "op=get")
}

func TestEventInterceptor(t *testing.T) {
	events := debug.NewEventInterceptor()
	store := atom.NewStore(atom.WithInterceptor(events.Interceptor(atom.OpSet)))
	base := atom.State(1, atom.WithDebugLabel("base"))

	var got []debug.StoreEvent
	unsubscribe := events.Subscribe(func(ev debug.StoreEvent) {
		got = append(got, ev)
	})

	require.NoError(t, base.Set(store, 2))
	require.Len(t, got, 2)

	assert.Equal(t, debug.PhaseBegin, got[0].Phase)
	assert.Equal(t, debug.PhaseSuccess, got[1].Phase)
	assert.Equal(t, got[0].ID, got[1].ID)
	assert.Equal(t, atom.OpSet, got[1].Op)
	assert.Equal(t, "base", got[1].Label)
	assert.Equal(t, []any{2}, got[1].Args)
	assert.False(t, got[1].Time.Before(got[0].Time))

	unsubscribe()
	require.NoError(t, base.Set(store, 3))
	assert.Len(t, got, 2)
}

func TestEventInterceptorErrorPhase(t *testing.T) {
	events := debug.NewEventInterceptor()
	store := atom.NewStore(atom.WithInterceptor(events.Interceptor(atom.OpComputed)))

	boom := errors.New("boom")
	failing := atom.Computed(func(atom.Getter, *atom.ReadOptions) (int, error) {
		return 0, boom
	})

	var phases []debug.Phase
	events.Subscribe(func(ev debug.StoreEvent) {
		phases = append(phases, ev.Phase)
		if ev.Phase == debug.PhaseError {
			assert.ErrorIs(t, ev.Err, boom)
		}
	})

	_, err := failing.Get(store)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []debug.Phase{debug.PhaseBegin, debug.PhaseError}, phases)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := debug.NewMetrics(debug.WithRegistry(reg), debug.WithNamespace("test"))
	store := atom.NewStore(atom.WithInterceptor(m.Interceptor()))

	base := atom.State(1)
	double := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := base.Get(get)
		return v * 2, err
	})

	unsub := store.Sub([]atom.Signal{double}, noop())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Mounted))

	require.NoError(t, base.Set(store, 2))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("set")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("notify")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OpsTotal.WithLabelValues("computed")))

	unsub()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Mounted))

	_, err := store.Set(double, 1)
	require.ErrorIs(t, err, atom.ErrNotWritable)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("set", "usage")))

	n, err := testutil.GatherAndCount(reg, "test_ops_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestTracingInterceptor(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := atom.NewStore(atom.WithInterceptor(debug.TracingInterceptor(debug.WithTracerProvider(tp))))

	base := atom.State(1, atom.WithDebugLabel("base"))
	double := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := base.Get(get)
		return v * 2, err
	}, atom.WithDebugLabel("double"))
	store.Sub([]atom.Signal{double}, noop(atom.WithDebugLabel("listener")))

	require.NoError(t, base.Set(store, 2))

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range rec.Ended() {
		byName[s.Name()] = s
	}
	set, ok := byName["atom.set"]
	require.True(t, ok)
	notify, ok := byName["atom.notify"]
	require.True(t, ok)

	// notify and the re-evaluation both run inside the set
	assert.Equal(t, set.SpanContext().SpanID(), notify.Parent().SpanID())
	assert.Equal(t, set.SpanContext().TraceID(), byName["atom.computed"].SpanContext().TraceID())
	assert.Equal(t, codes.Ok, set.Status().Code)
}

func TestTracingInterceptorRecordsErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := atom.NewStore(atom.WithInterceptor(debug.TracingInterceptor(
		debug.WithTracerProvider(tp),
		debug.WithTracedOps(atom.OpComputed),
	)))

	failing := atom.Computed(func(atom.Getter, *atom.ReadOptions) (int, error) {
		return 0, errors.New("boom")
	})
	_, err := failing.Get(store)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "atom.computed", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestTrace(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	add := debug.Trace(atom.Command(func(v atom.Visitor, args ...any) (int, error) {
		n := args[0].(int)
		if err := base.Update(v, func(x int) int { return x + n }); err != nil {
			return 0, err
		}
		return base.Get(v)
	}, atom.WithDebugLabel("add")))

	got, err := add.Exec(store, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = store.Set(add, 3)
	require.NoError(t, err)

	calls := add.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []any{2}, calls[0].Args)
	assert.Equal(t, 2, calls[0].Result)
	assert.Equal(t, 5, calls[1].Result)
	assert.Equal(t, "add", add.DebugLabel())
}
