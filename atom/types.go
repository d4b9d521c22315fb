package atom

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"weak"
)

type Kind uint8

const (
	KindState Kind = iota + 1
	KindComputed
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindComputed:
		return "computed"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Signal is an addressable node of the graph. Identity is the pointer; ID is
// unique for the lifetime of the process.
type Signal interface {
	ID() uint64
	DebugLabel() string
	Kind() Kind
}

// Readable is a signal whose value can be read through a Getter.
type Readable[T comparable] interface {
	Signal
	Get(g Getter) (T, error)
}

// Getter reads signals. The store, command visitors and the getter handed to
// computed read functions all implement it.
type Getter interface {
	read(s Signal) (any, error)
}

// Setter writes states and runs commands.
type Setter interface {
	write(s Signal, args []any) (any, error)
}

type Visitor interface {
	Getter
	Setter
}

// Callback is a command used as a subscription listener.
type Callback interface {
	Signal
	exec(v Visitor, args []any) (any, error)
}

type stateNode interface {
	Signal
	initial() any
	next(prev, arg any) (any, error)
	equal(a, b any) bool
	onRelease(arg releaseArg)
}

type computedNode interface {
	Signal
	evaluate(get Getter, opts *ReadOptions) (any, error)
	equal(a, b any) bool
	onRelease(arg releaseArg)
}

var lastID atomic.Uint64

type signalOptions struct {
	debugLabel string
}

type SignalOption func(*signalOptions)

// WithDebugLabel names a signal in debug output. It has no other effect.
func WithDebugLabel(label string) SignalOption {
	return func(o *signalOptions) {
		o.debugLabel = label
	}
}

type base struct {
	id    uint64
	label string
}

func newBase(opts []SignalOption) base {
	o := signalOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return base{
		id:    lastID.Add(1),
		label: o.debugLabel,
	}
}

func (b *base) ID() uint64 {
	return b.id
}

func (b *base) DebugLabel() string {
	return b.label
}

// LabelOf returns the debug label of s, or "anonymous".
func LabelOf(s interface{ DebugLabel() string }) string {
	if s == nil {
		return "anonymous"
	}
	if l := s.DebugLabel(); l != "" {
		return l
	}
	return "anonymous"
}

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// equalValues compares with ==. Interface values holding incomparable
// dynamic types count as distinct.
func equalValues[T comparable](a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return as[T](a) == as[T](b)
}

type releaseArg struct {
	store weak.Pointer[Store]
	id    uint64
}

func releaseRecord(arg releaseArg) {
	if s := arg.store.Value(); s != nil {
		s.release(arg.id)
	}
}

type StateSignal[T comparable] struct {
	base
	init T
}

// State creates a writable leaf holding init until first written.
func State[T comparable](init T, opts ...SignalOption) *StateSignal[T] {
	return &StateSignal[T]{
		base: newBase(opts),
		init: init,
	}
}

func (s *StateSignal[T]) Kind() Kind {
	return KindState
}

func (s *StateSignal[T]) Init() T {
	return s.init
}

func (s *StateSignal[T]) Get(g Getter) (T, error) {
	v, err := g.read(s)
	return as[T](v), err
}

func (s *StateSignal[T]) Set(w Setter, v T) error {
	_, err := w.write(s, []any{v})
	return err
}

func (s *StateSignal[T]) Update(w Setter, fn func(T) T) error {
	_, err := w.write(s, []any{fn})
	return err
}

func (s *StateSignal[T]) initial() any {
	return s.init
}

func (s *StateSignal[T]) next(prev, arg any) (any, error) {
	switch v := arg.(type) {
	case nil:
		var zero T
		return zero, nil
	case func(T) T:
		return v(as[T](prev)), nil
	case T:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T is not assignable to state %s", ErrInvalidValue, arg, LabelOf(s))
	}
}

func (s *StateSignal[T]) equal(a, b any) bool {
	return equalValues[T](a, b)
}

func (s *StateSignal[T]) onRelease(arg releaseArg) {
	runtime.AddCleanup(s, releaseRecord, arg)
}

// ReadFunc derives a value. Reads through get are tracked as dependencies.
type ReadFunc[T comparable] func(get Getter, opts *ReadOptions) (T, error)

type ComputedSignal[T comparable] struct {
	base
	read ReadFunc[T]
}

func Computed[T comparable](read ReadFunc[T], opts ...SignalOption) *ComputedSignal[T] {
	return &ComputedSignal[T]{
		base: newBase(opts),
		read: read,
	}
}

func (c *ComputedSignal[T]) Kind() Kind {
	return KindComputed
}

func (c *ComputedSignal[T]) Get(g Getter) (T, error) {
	v, err := g.read(c)
	return as[T](v), err
}

func (c *ComputedSignal[T]) evaluate(get Getter, opts *ReadOptions) (any, error) {
	v, err := c.read(get, opts)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *ComputedSignal[T]) equal(a, b any) bool {
	return equalValues[T](a, b)
}

func (c *ComputedSignal[T]) onRelease(arg releaseArg) {
	runtime.AddCleanup(c, releaseRecord, arg)
}

// WriteFunc runs a command. Everything it writes through v joins the caller's
// batch.
type WriteFunc[T any] func(v Visitor, args ...any) (T, error)

type CommandSignal[T any] struct {
	base
	write WriteFunc[T]
}

func Command[T any](write WriteFunc[T], opts ...SignalOption) *CommandSignal[T] {
	return &CommandSignal[T]{
		base:  newBase(opts),
		write: write,
	}
}

// Listener is a command without arguments or result, the usual shape of a
// subscription callback.
func Listener(fn func(v Visitor) error, opts ...SignalOption) *CommandSignal[struct{}] {
	return Command(func(v Visitor, _ ...any) (struct{}, error) {
		return struct{}{}, fn(v)
	}, opts...)
}

func (c *CommandSignal[T]) Kind() Kind {
	return KindCommand
}

func (c *CommandSignal[T]) Exec(w Setter, args ...any) (T, error) {
	v, err := w.write(c, args)
	return as[T](v), err
}

func (c *CommandSignal[T]) exec(v Visitor, args []any) (any, error) {
	return c.write(v, args...)
}
