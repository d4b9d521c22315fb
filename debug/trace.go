package debug

import (
	"sync"
	"time"

	"github.com/delaneyj/ripple/atom"
)

type TraceCall struct {
	Args     []any
	Result   any
	Err      error
	Duration time.Duration
}

// CommandTrace is a command that runs another command and records each
// call. Use it anywhere the wrapped command would be used.
type CommandTrace[T any] struct {
	*atom.CommandSignal[T]

	mu    sync.Mutex
	calls []TraceCall
}

func Trace[T any](cmd *atom.CommandSignal[T]) *CommandTrace[T] {
	ct := &CommandTrace[T]{}
	ct.CommandSignal = atom.Command(func(v atom.Visitor, args ...any) (T, error) {
		start := time.Now()
		res, err := cmd.Exec(v, args...)
		ct.mu.Lock()
		ct.calls = append(ct.calls, TraceCall{
			Args:     args,
			Result:   res,
			Err:      err,
			Duration: time.Since(start),
		})
		ct.mu.Unlock()
		return res, err
	}, atom.WithDebugLabel(cmd.DebugLabel()))
	return ct
}

// Calls returns the recorded calls, oldest first.
func (ct *CommandTrace[T]) Calls() []TraceCall {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]TraceCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}
