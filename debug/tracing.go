package debug

import (
	"context"
	"sync"

	"github.com/delaneyj/ripple/atom"
	"github.com/petermattis/goid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "ripple"

type TracingConfig struct {
	// TracerName defaults to "ripple".
	TracerName string

	// Provider defaults to the global provider.
	Provider trace.TracerProvider

	// Ops defaults to set, computed and notify.
	Ops []atom.Op
}

type TracingOption func(*TracingConfig)

func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

func WithTracedOps(ops ...atom.Op) TracingOption {
	return func(c *TracingConfig) {
		c.Ops = ops
	}
}

func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
		Ops:        []atom.Op{atom.OpSet, atom.OpComputed, atom.OpNotify},
	}
}

// spanStack tracks the innermost open span per goroutine so nested
// operations become child spans.
type spanStack struct {
	mu     sync.Mutex
	stacks map[int64][]context.Context
}

func (s *spanStack) top(gid int64) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stacks[gid]
	if len(st) == 0 {
		return context.Background()
	}
	return st[len(st)-1]
}

func (s *spanStack) push(gid int64, ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[gid] = append(s.stacks[gid], ctx)
}

func (s *spanStack) pop(gid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stacks[gid]
	if len(st) <= 1 {
		delete(s.stacks, gid)
		return
	}
	s.stacks[gid] = st[:len(st)-1]
}

// TracingInterceptor opens a span named "atom.<op>" around each traced
// operation. Operations nested on the same goroutine become children.
func TracingInterceptor(opts ...TracingOption) *atom.Interceptor {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(config.TracerName)
	stack := &spanStack{stacks: map[int64][]context.Context{}}

	return atom.Intercept(func(ev *atom.Event, next atom.Next) {
		gid := goid.Get()
		attrs := []attribute.KeyValue{
			attribute.String("atom.label", atom.LabelOf(ev.Signal)),
			attribute.Int64("atom.id", int64(ev.Signal.ID())),
			attribute.String("atom.kind", ev.Signal.Kind().String()),
		}
		if len(ev.Args) > 0 {
			attrs = append(attrs, attribute.Int("atom.args", len(ev.Args)))
		}

		ctx, span := tracer.Start(stack.top(gid), "atom."+ev.Op.String(), trace.WithAttributes(attrs...))
		stack.push(gid, ctx)
		defer func() {
			stack.pop(gid)
			span.End()
		}()

		_, err := next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}, config.Ops...)
}
