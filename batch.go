package msc

import (
	"context"

	"github.com/google/uuid"
)

// BatchBuilder collects service builders that are committed together. All
// definitions in a batch install atomically: if any name or alias conflicts
// with the container, or the batch introduces a dependency cycle, nothing
// is installed.
//
// A batch is a single-goroutine, single-session object; installing it twice
// panics with a *UsageError. A failed install leaves the batch open so the
// caller can fix the container and retry.
type BatchBuilder struct {
	id        string
	builders  []*ServiceBuilder
	installed bool
}

// NewBatchBuilder creates an empty batch.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{id: uuid.NewString()}
}

// ID returns the unique identifier of this batch, usable for diagnostics
// and log correlation.
func (b *BatchBuilder) ID() string {
	return b.id
}

// AddService adds a service declared from an instance and returns its
// builder for further configuration.
func (b *BatchBuilder) AddService(name ServiceName, service Service) *ServiceBuilder {
	b.checkOpen("add service")
	builder := NewServiceBuilder(name, service)
	b.builders = append(b.builders, builder)
	return builder
}

// AddServiceValue adds a service whose instance is produced lazily by the
// given value at start time, and returns its builder.
func (b *BatchBuilder) AddServiceValue(name ServiceName, service Value[Service]) *ServiceBuilder {
	b.checkOpen("add service")
	builder := NewServiceValueBuilder(name, service)
	b.builders = append(b.builders, builder)
	return builder
}

// Size returns the number of services in the batch.
func (b *BatchBuilder) Size() int {
	return len(b.builders)
}

func (b *BatchBuilder) checkOpen(op string) {
	if b.installed {
		usage(op, ErrBatchInstalled)
	}
}

// Install finalizes every builder in the batch and commits the resulting
// definitions to the container atomically. Services whose mode starts at
// install time are then started; the first start failure is returned, but
// the batch stays installed either way.
func (b *BatchBuilder) Install(ctx context.Context, container *Container) error {
	b.checkOpen("install batch")
	if container == nil {
		usage("install batch", ErrServiceNil)
	}

	definitions := make([]*ServiceDefinition, len(b.builders))
	for i, builder := range b.builders {
		if builder.definition != nil {
			definitions[i] = builder.definition
		} else {
			definitions[i] = builder.Build()
		}
	}

	if err := container.install(definitions); err != nil {
		return err
	}
	b.installed = true

	return container.startInstalled(ctx, definitions)
}
