package msc

import (
	"context"
)

// Service is the running unit managed by a Container. A Service is also a
// Value: once started, Value resolves to the object the service provides to
// its dependants.
//
// Start is called after every declared injection for the service has been
// performed; Stop is called before those injections are retracted. Both are
// synchronous and receive the context passed to the container operation
// that triggered the transition.
type Service interface {
	Value[any]

	// Start brings the service up. Returning an error leaves the service in
	// the failed state and undoes its injections.
	Start(ctx context.Context) error

	// Stop brings the service down.
	Stop(ctx context.Context) error
}

// valueService provides a fixed value with no start or stop behavior.
type valueService struct {
	value Value[any]
}

// NewValueService creates a service whose only role is to provide the given
// value to dependants. Start and Stop are no-ops.
func NewValueService(value Value[any]) Service {
	if value == nil {
		usage("create value service", ErrValueNil)
	}
	return valueService{value: value}
}

func (s valueService) Value() (any, error)       { return s.value.Value() }
func (valueService) Start(context.Context) error { return nil }
func (valueService) Stop(context.Context) error  { return nil }

// serviceFuncs adapts closures to the Service contract.
type serviceFuncs struct {
	value Value[any]
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// NewService creates a service from a provided value and optional start and
// stop closures. Nil closures are no-ops; a nil value provides the zero
// value.
func NewService(value Value[any], start, stop func(ctx context.Context) error) Service {
	if value == nil {
		value = NilValue[any]()
	}
	return serviceFuncs{value: value, start: start, stop: stop}
}

func (s serviceFuncs) Value() (any, error) {
	return s.value.Value()
}

func (s serviceFuncs) Start(ctx context.Context) error {
	if s.start == nil {
		return nil
	}
	return s.start(ctx)
}

func (s serviceFuncs) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}
