package atom

import (
	"fmt"
)

type Op uint8

const (
	OpGet Op = iota + 1
	OpSet
	OpSub
	OpUnsub
	OpMount
	OpUnmount
	OpNotify
	OpComputed
)

var AllOps = []Op{OpGet, OpSet, OpSub, OpUnsub, OpMount, OpUnmount, OpNotify, OpComputed}

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpSub:
		return "sub"
	case OpUnsub:
		return "unsub"
	case OpMount:
		return "mount"
	case OpUnmount:
		return "unmount"
	case OpNotify:
		return "notify"
	case OpComputed:
		return "computed"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// Event describes one intercepted operation.
//
//	get, computed, mount, unmount: Signal is the subject
//	set: Signal is the state or command, Args its arguments
//	sub, unsub: Signal is the target, Callback the listener
//	notify: Signal and Callback are the listener being run
type Event struct {
	Op       Op
	Signal   Signal
	Callback Callback
	Args     []any
}

// Next performs the wrapped operation and returns its result.
type Next func() (any, error)

// Middleware must call next exactly once, synchronously, and may inspect
// its result. The result cannot be replaced.
type Middleware func(ev *Event, next Next)

type Interceptor struct {
	Get      Middleware
	Set      Middleware
	Sub      Middleware
	Unsub    Middleware
	Mount    Middleware
	Unmount  Middleware
	Notify   Middleware
	Computed Middleware
}

// Intercept applies mw to ops, or to every op when none are given.
func Intercept(mw Middleware, ops ...Op) *Interceptor {
	if len(ops) == 0 {
		ops = AllOps
	}
	ic := &Interceptor{}
	for _, op := range ops {
		*ic.slot(op) = mw
	}
	return ic
}

func (ic *Interceptor) slot(op Op) *Middleware {
	switch op {
	case OpGet:
		return &ic.Get
	case OpSet:
		return &ic.Set
	case OpSub:
		return &ic.Sub
	case OpUnsub:
		return &ic.Unsub
	case OpMount:
		return &ic.Mount
	case OpUnmount:
		return &ic.Unmount
	case OpNotify:
		return &ic.Notify
	case OpComputed:
		return &ic.Computed
	default:
		panic(fmt.Sprintf("unknown op %d", op))
	}
}

// Middleware returns the hook for op, possibly nil.
func (ic *Interceptor) Middleware(op Op) Middleware {
	if ic == nil {
		return nil
	}
	return *ic.slot(op)
}

// ChainInterceptors nests interceptors so the first is outermost.
func ChainInterceptors(ics ...*Interceptor) *Interceptor {
	out := &Interceptor{}
	for _, op := range AllOps {
		mws := make([]Middleware, 0, len(ics))
		for _, ic := range ics {
			if mw := ic.Middleware(op); mw != nil {
				mws = append(mws, mw)
			}
		}
		*out.slot(op) = ChainMiddleware(mws...)
	}
	return out
}

func ChainMiddleware(mws ...Middleware) Middleware {
	switch len(mws) {
	case 0:
		return nil
	case 1:
		return mws[0]
	}
	outer, inner := mws[0], ChainMiddleware(mws[1:]...)
	return func(ev *Event, next Next) {
		outer(ev, func() (any, error) {
			var (
				v   any
				err error
			)
			inner(ev, func() (any, error) {
				v, err = next()
				return v, err
			})
			return v, err
		})
	}
}

// intercept runs fn through mw and enforces the call-once contract.
func (s *Store) intercept(mw Middleware, ev *Event, fn Next) (any, error) {
	if mw == nil {
		return fn()
	}

	var (
		calls int
		v     any
		err   error
	)
	mw(ev, func() (any, error) {
		calls++
		if calls > 1 {
			panic(fmt.Errorf("%w: %s %s called next twice", ErrInterceptorContract, ev.Op, LabelOf(ev.Signal)))
		}
		v, err = fn()
		return v, err
	})
	if calls == 0 {
		panic(fmt.Errorf("%w: %s %s never called next", ErrInterceptorContract, ev.Op, LabelOf(ev.Signal)))
	}
	return v, err
}
