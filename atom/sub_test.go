package atom_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/ripple/atom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubNotifiesOnChange(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)

	calls := 0
	unsub := store.Sub([]atom.Signal{base}, counter(&calls))
	require.NoError(t, base.Set(store, 1))
	require.NoError(t, base.Set(store, 1))
	assert.Equal(t, 1, calls)

	unsub()
	require.NoError(t, base.Set(store, 2))
	assert.Equal(t, 1, calls)
}

func TestSubWithNoTargets(t *testing.T) {
	store := atom.NewStore()
	unsub := store.Sub(nil, noop())
	unsub()
	assert.Equal(t, 0, store.Len())
}

func TestUnsubIsIdempotent(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)

	first := store.Sub([]atom.Signal{base}, noop())
	second := store.Sub([]atom.Signal{base}, noop())

	first()
	first()
	assert.True(t, store.IsMounted(base))
	assert.Len(t, store.Listeners(base), 1)

	second()
	assert.False(t, store.IsMounted(base))
}

func TestMountingIsTransitive(t *testing.T) {
	store := atom.NewStore()

	// mounted exactly while something listens or reads
	base := atom.State(1)
	mid := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		return base.Get(get)
	})
	top := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		return mid.Get(get)
	})

	unsubTop := store.Sub([]atom.Signal{top}, noop())
	assert.True(t, store.IsMounted(top))
	assert.True(t, store.IsMounted(mid))
	assert.True(t, store.IsMounted(base))
	assert.Equal(t, []atom.Signal{mid}, store.ReadDependents(base))
	assert.Equal(t, []atom.Signal{top}, store.ReadDependents(mid))

	unsubMid := store.Sub([]atom.Signal{mid}, noop())
	unsubTop()
	assert.False(t, store.IsMounted(top))
	assert.True(t, store.IsMounted(mid))
	assert.True(t, store.IsMounted(base))
	assert.Empty(t, store.ReadDependents(mid))

	unsubMid()
	assert.False(t, store.IsMounted(mid))
	assert.False(t, store.IsMounted(base))
}

func TestSubAbortSignal(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)

	ctrl := atom.NewAbortController()
	calls := 0
	unsub := store.Sub([]atom.Signal{base}, counter(&calls), atom.WithSignal(ctrl.Signal()))

	require.NoError(t, base.Set(store, 1))
	ctrl.Abort(nil)
	assert.False(t, store.IsMounted(base))
	require.NoError(t, base.Set(store, 2))
	assert.Equal(t, 1, calls)

	unsub()
}

func TestSubWithAbortedSignal(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)

	ctrl := atom.NewAbortController()
	ctrl.Abort(nil)
	calls := 0
	store.Sub([]atom.Signal{base}, counter(&calls), atom.WithSignal(ctrl.Signal()))

	assert.False(t, store.IsMounted(base))
	require.NoError(t, base.Set(store, 1))
	assert.Equal(t, 0, calls)
}

func TestListenerRunsOncePerWrite(t *testing.T) {
	store := atom.NewStore()
	a := atom.State(0)
	plusOne := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := a.Get(get)
		return v + 1, err
	})

	calls := 0
	unsub := store.Sub([]atom.Signal{a, plusOne}, counter(&calls))
	defer unsub()

	require.NoError(t, a.Set(store, 1))
	assert.Equal(t, 1, calls)
}

func TestNestedCommandNotifiesPerWrite(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	inner := atom.Command(func(v atom.Visitor, _ ...any) (struct{}, error) {
		return struct{}{}, base.Set(v, 1)
	})
	outer := atom.Command(func(v atom.Visitor, _ ...any) (struct{}, error) {
		if _, err := inner.Exec(v); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, base.Set(v, 2)
	})

	calls := 0
	unsub := store.Sub([]atom.Signal{base}, counter(&calls))
	defer unsub()

	_, err := outer.Exec(store)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestShouldTriggerSubscriberIfFuncThrows(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	boom := errors.New("boom")
	cmd := atom.Command(func(v atom.Visitor, _ ...any) (struct{}, error) {
		if err := base.Set(v, 1); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, boom
	})

	calls := 0
	unsub := store.Sub([]atom.Signal{base}, counter(&calls))
	defer unsub()

	_, err := cmd.Exec(store)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestListenerErrorIsReturned(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	boom := errors.New("listener failed")

	unsub := store.Sub([]atom.Signal{base}, atom.Listener(func(atom.Visitor) error {
		return boom
	}))
	defer unsub()

	err := base.Set(store, 1)
	assert.ErrorIs(t, err, boom)

	v, _ := base.Get(store)
	assert.Equal(t, 1, v)
}

func TestListenerErrorStopsDrain(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	boom := errors.New("boom")

	var ran []string
	failing := atom.Listener(func(atom.Visitor) error {
		ran = append(ran, "failing")
		return boom
	})
	after := atom.Listener(func(atom.Visitor) error {
		ran = append(ran, "after")
		return nil
	})
	defer store.Sub([]atom.Signal{base}, failing)()
	defer store.Sub([]atom.Signal{base}, after)()

	err := base.Set(store, 2)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"failing"}, ran)

	// failing is still queued first, so after is dropped again
	ran = nil
	require.ErrorIs(t, base.Set(store, 3), boom)
	assert.Equal(t, []string{"failing"}, ran)
}

func TestListenersRunInTraversalOrder(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	mid := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := base.Get(get)
		return v + 1, err
	})

	var ran []string
	onMid := atom.Listener(func(atom.Visitor) error {
		ran = append(ran, "onMid")
		return nil
	})
	onBase := atom.Listener(func(atom.Visitor) error {
		ran = append(ran, "onBase")
		return nil
	})

	// subscribed deepest first, notified as the walk reaches them
	defer store.Sub([]atom.Signal{mid}, onMid)()
	defer store.Sub([]atom.Signal{base}, onBase)()

	require.NoError(t, base.Set(store, 1))
	assert.Equal(t, []string{"onBase", "onMid"}, ran)
}

func TestSubRejectsCommands(t *testing.T) {
	store := atom.NewStore()
	cmd := noop()

	err := recoverError(func() {
		store.Sub([]atom.Signal{cmd}, noop())
	})
	require.ErrorIs(t, err, atom.ErrNotReadable)
	assert.Contains(t, err.Error(), "cannot subscribe")
	assert.Equal(t, 0, store.Len())
}

func TestMountedChainWithoutDirectListener(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	derived1 := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := base.Get(get)
		return v * 10, err
	})
	derived2 := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := derived1.Get(get)
		return v + 1, err
	})

	unsub := store.Sub([]atom.Signal{derived2}, noop())
	defer unsub()

	require.NoError(t, base.Set(store, 4))
	v, err := derived2.Get(store)
	require.NoError(t, err)
	assert.Equal(t, 41, v)
}

func TestDistinctComputedSuppressesListeners(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(0)
	parity := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (bool, error) {
		v, err := base.Get(get)
		return v%2 == 0, err
	})

	calls := 0
	unsub := store.Sub([]atom.Signal{parity}, counter(&calls))
	defer unsub()

	require.NoError(t, base.Set(store, 2))
	epoch, _ := store.Epoch(parity)
	assert.Equal(t, 0, epoch)
	assert.Equal(t, 0, calls)

	require.NoError(t, base.Set(store, 3))
	epoch, _ = store.Epoch(parity)
	assert.Equal(t, 1, epoch)
	assert.Equal(t, 1, calls)
}

func TestListenerReadsFreshValues(t *testing.T) {
	store := atom.NewStore()
	base := atom.State(1)
	double := atom.Computed(func(get atom.Getter, _ *atom.ReadOptions) (int, error) {
		v, err := base.Get(get)
		return v * 2, err
	})

	var seen []int
	unsub := store.Sub([]atom.Signal{double}, atom.Listener(func(v atom.Visitor) error {
		d, err := double.Get(v)
		seen = append(seen, d)
		return err
	}))
	defer unsub()

	require.NoError(t, base.Set(store, 2))
	require.NoError(t, base.Set(store, 3))
	assert.Equal(t, []int{4, 6}, seen)
}
