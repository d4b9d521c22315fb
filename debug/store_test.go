package debug_test

import (
	"testing"

	"github.com/delaneyj/ripple/atom"
	"github.com/delaneyj/ripple/debug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(opts ...atom.SignalOption) *atom.CommandSignal[struct{}] {
	return atom.Listener(func(atom.Visitor) error { return nil }, opts...)
}

func plusOne(s atom.Readable[int], label string) *atom.ComputedSignal[int] {
	return atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := s.Get(get)
		return v + 1, err
	}, atom.WithDebugLabel(label))
}

func TestSubscribeGraph(t *testing.T) {
	store := debug.NewStore()
	base := atom.State(1, atom.WithDebugLabel("base"))
	derived := plusOne(base, "derived")

	store.Sub([]atom.Signal{base, derived}, noop(atom.WithDebugLabel("sub")))

	assert.Equal(t, [][]string{
		{"base", "sub"},
		{"derived", "sub"},
	}, debug.LabelRows(store.SubscribeGraph()))
}

func TestReadDependentsOfUnsubscribed(t *testing.T) {
	store := debug.NewStore()
	base := atom.State(1, atom.WithDebugLabel("base"))
	derived := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		return base.Get(get)
	}, atom.WithDebugLabel("derived"))

	v, err := derived.Get(store)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// reading alone mounts nothing
	got := store.ReadDependents(base)
	assert.Equal(t, base, got.Signal)
	assert.Empty(t, got.Children)
}

func TestReadDependentsWhenMounted(t *testing.T) {
	store := debug.NewStore()
	base := atom.State(1, atom.WithDebugLabel("base"))
	derived := plusOne(base, "derived")
	top := plusOne(derived, "top")

	unsub := store.Sub([]atom.Signal{top}, noop())
	assert.Equal(t, "base[derived[top]]", store.ReadDependents(base).String())

	unsub()
	assert.Equal(t, "base", store.ReadDependents(base).String())
}

func TestReadDependencies(t *testing.T) {
	store := debug.NewStore()
	base := atom.State(1, atom.WithDebugLabel("base"))
	derived1 := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		return base.Get(get)
	}, atom.WithDebugLabel("derived1"))
	derived2 := plusOne(derived1, "derived2")
	final := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		a, err := derived1.Get(get)
		if err != nil {
			return 0, err
		}
		b, err := derived2.Get(get)
		return a + b, err
	}, atom.WithDebugLabel("final"))

	deps := store.ReadDependencies(final)
	assert.Equal(t, "final[derived1[base], derived2[derived1[base]]]", deps.String())
	assert.Equal(t, []any{
		"final",
		[]any{"derived1", "base"},
		[]any{"derived2", []any{"derived1", "base"}},
	}, deps.Labels())
	assert.Equal(t, "base", store.ReadDependencies(base).Labels())
}

func TestAnonymousLabel(t *testing.T) {
	base := atom.State(1)
	assert.Equal(t, "anonymous", debug.Nested{Signal: base}.String())
	assert.Equal(t, "anonymous", debug.Nested{Signal: base}.Labels())
}

func TestDigestFollowsDependencies(t *testing.T) {
	store := debug.NewStore()
	useA := atom.State(true)
	a := atom.State(1)
	b := atom.State(2)
	pick := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		ok, err := useA.Get(get)
		if err != nil {
			return 0, err
		}
		if ok {
			return a.Get(get)
		}
		return b.Get(get)
	})

	first := store.ReadDependencies(pick).Digest()
	assert.Equal(t, first, store.ReadDependencies(pick).Digest())

	require.NoError(t, useA.Set(store, false))
	assert.NotEqual(t, first, store.ReadDependencies(pick).Digest())

	require.NoError(t, useA.Set(store, true))
	assert.Equal(t, first, store.ReadDependencies(pick).Digest())
}

func TestUnsubDecount(t *testing.T) {
	store := debug.NewStore()
	base := atom.State(1)
	cb := noop()

	first := store.Sub([]atom.Signal{base}, cb)
	second := store.Sub([]atom.Signal{base}, noop())
	assert.Len(t, store.SubscribeGraph(), 1)

	first()
	first()
	assert.Len(t, store.SubscribeGraph(), 1)

	second()
	assert.Empty(t, store.SubscribeGraph())
}

func TestAbortDecount(t *testing.T) {
	store := debug.NewStore()
	ctrl := atom.NewAbortController()
	base := atom.State(1)
	cb := noop()

	store.Sub([]atom.Signal{base}, cb, atom.WithSignal(ctrl.Signal()))
	assert.Equal(t, [][]atom.Signal{{base, cb}}, store.SubscribeGraph())

	ctrl.Abort(nil)
	assert.Empty(t, store.SubscribeGraph())
	assert.False(t, store.IsMounted(base))
}

func TestSubCommandLeavesNoCount(t *testing.T) {
	store := debug.NewStore()
	cmd := atom.Command(func(atom.Visitor, ...any) (int, error) { return 0, nil })

	assert.Panics(t, func() { store.Sub([]atom.Signal{cmd}, noop()) })
	assert.Empty(t, store.SubscribeGraph())
}

func TestPredictPropagationGraph(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		store := debug.NewStore()
		base := atom.State(1)
		cb := noop()
		store.Sub([]atom.Signal{base}, cb)

		assert.Equal(t, []debug.Edge{{From: base, To: cb}}, store.PredictPropagationGraph(base))
	})

	t.Run("derived", func(t *testing.T) {
		store := debug.NewStore()
		base := atom.State(1, atom.WithDebugLabel("base"))
		derived := plusOne(base, "derived")
		store.Sub([]atom.Signal{derived}, noop(atom.WithDebugLabel("callback")))

		assert.Equal(t, [][2]string{
			{"base", "derived"},
			{"derived", "callback"},
		}, debug.LabelEdges(store.PredictPropagationGraph(base)))
	})

	t.Run("diamond", func(t *testing.T) {
		store := debug.NewStore()
		base := atom.State(1, atom.WithDebugLabel("base"))
		derived1 := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
			return base.Get(get)
		}, atom.WithDebugLabel("derived1"))
		derived2 := plusOne(derived1, "derived2")
		final := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
			a, err := derived1.Get(get)
			if err != nil {
				return 0, err
			}
			b, err := derived2.Get(get)
			return a + b, err
		}, atom.WithDebugLabel("final"))
		store.Sub([]atom.Signal{final}, noop(atom.WithDebugLabel("callback")))

		assert.Equal(t, [][2]string{
			{"base", "derived1"},
			{"derived1", "final"},
			{"derived1", "derived2"},
			{"final", "callback"},
			{"derived2", "final"},
		}, debug.LabelEdges(store.PredictPropagationGraph(base)))
	})

	t.Run("unmounted", func(t *testing.T) {
		store := debug.NewStore()
		base := atom.State(1)
		assert.Empty(t, store.PredictPropagationGraph(base))
	})
}
