package debug

import (
	"log/slog"
	"time"

	"github.com/delaneyj/ripple/atom"
)

// Watch narrows console output to one signal and, optionally, some ops.
type Watch struct {
	Signal atom.Signal
	Ops    []atom.Op
}

func (w Watch) match(ev *atom.Event) bool {
	if w.Signal != nil && ev.Signal != w.Signal && (ev.Callback == nil || atom.Signal(ev.Callback) != w.Signal) {
		return false
	}
	if len(w.Ops) == 0 {
		return true
	}
	for _, op := range w.Ops {
		if op == ev.Op {
			return true
		}
	}
	return false
}

// ConsoleInterceptor logs intercepted operations. With no watches every
// operation is logged.
func ConsoleInterceptor(logger *slog.Logger, watches ...Watch) *atom.Interceptor {
	return atom.Intercept(func(ev *atom.Event, next atom.Next) {
		if !matchAny(watches, ev) {
			next()
			return
		}

		start := time.Now()
		v, err := next()

		attrs := []any{
			slog.String("op", ev.Op.String()),
			slog.String("label", atom.LabelOf(ev.Signal)),
			slog.Uint64("id", ev.Signal.ID()),
			slog.Duration("took", time.Since(start)),
		}
		if ev.Callback != nil && ev.Op != atom.OpNotify {
			attrs = append(attrs, slog.String("callback", atom.LabelOf(ev.Callback)))
		}
		if len(ev.Args) > 0 {
			attrs = append(attrs, slog.Any("args", ev.Args))
		}
		switch {
		case err != nil:
			logger.Error("atom", append(attrs, slog.Any("error", err))...)
		case ev.Op == atom.OpGet || ev.Op == atom.OpComputed || ev.Op == atom.OpSet:
			logger.Debug("atom", append(attrs, slog.Any("value", v))...)
		default:
			logger.Debug("atom", attrs...)
		}
	})
}

func matchAny(watches []Watch, ev *atom.Event) bool {
	if len(watches) == 0 {
		return true
	}
	for _, w := range watches {
		if w.match(ev) {
			return true
		}
	}
	return false
}
