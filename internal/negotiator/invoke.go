package negotiator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider method names used in spans and logs.
const (
	methodHasPermissions     = "hasPermissions"
	methodGetAccounts        = "getAccounts"
	methodRequestPermissions = "requestPermissions"
)

// PanicError reports a provider call that panicked.
type PanicError struct {
	Binding string
	Method  string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s.%s panicked: %v", e.Binding, e.Method, e.Value)
}

type reply[T any] struct {
	value T
	err   error
}

// invoke runs one provider call on its own goroutine so that a panic is
// contained and a provider that ignores its context still cannot hold the
// negotiator past ctx or timeout. A zero timeout adds no bound.
func invoke[T any](ctx context.Context, n *Negotiator, binding, method string, timeout time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	ctx, span := n.tracer.Start(ctx, "wallet."+method, trace.WithAttributes(
		attribute.String("wallet.binding", binding),
	))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan reply[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply[T]{err: &PanicError{Binding: binding, Method: method, Value: r}}
			}
		}()
		v, err := fn(ctx)
		done <- reply[T]{value: v, err: err}
	}()

	var out reply[T]
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	var pe *PanicError
	if errors.As(out.err, &pe) {
		n.metrics.RecordProviderPanic()
	}
	n.metrics.RecordProviderCall(out.err)

	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
	}
	return out.value, out.err
}
