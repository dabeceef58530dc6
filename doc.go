// Package msc provides a modular service container core for Go applications:
// a declarative assembly layer that describes named services, their
// dependencies, and the values injected into them before they start.
//
// # Overview
//
// The package is built around three contracts:
//
//   - Value: a lazily resolved computation of a typed result. Values form
//     expression trees; composite values (method invocations, field reads)
//     resolve their children on demand, left to right, and never cache
//     unless wrapped in CachedValue.
//   - Injector: a sink with a symmetric Inject/Uninject pair used to hand a
//     resolved value to a dependent service and later retract it.
//   - ServiceBuilder: a fluent builder that accumulates aliases, start mode,
//     dependencies (mandatory or optional, each fanning out to any number of
//     injection targets), direct value injections, and lifecycle listeners,
//     and finalizes them into an immutable ServiceDefinition.
//
// # Basic Usage
//
// Declare services through a batch, then install the batch into a container:
//
//	batch := msc.NewBatchBuilder()
//
//	dbValue := msc.NewInjectedValue[any]()
//	batch.AddService(msc.NewServiceName("app", "web"), webService).
//	    AddDependencyInjection(msc.NewServiceName("app", "db"), dbValue).
//	    SetInitialMode(msc.ModeAutomatic)
//
//	container := msc.NewContainer()
//	if err := batch.Install(context.Background(), container); err != nil {
//	    log.Fatal(err)
//	}
//
// Installation is atomic: either every definition in the batch is accepted,
// or none are. Services with mode Automatic or Active start at install time;
// Passive services start on demand when a dependant needs them; Never
// services do not start at all.
//
// # Dependencies and Injection
//
// Declaring the same dependency name twice merges into a single graph edge
// whose injection targets accumulate in append order. Optional dependencies
// on names that are not installed leave their targets untouched instead of
// failing the dependant. Type-checked targets built with TypedInjector
// reject mismatched dependency values with a TypeMismatchError before the
// underlying injector ever sees them.
//
// # Values
//
// Leaves are constants (NewValue), zero values (NilValue), or closures
// (FuncValue). Composite values invoke methods (NewMethodValue) or read
// struct fields (NewFieldValue) reflectively, resolving their children
// first. Resolution failures are reported as *ValueResolutionError with the
// full cause chain preserved; a failure raised by the invocation itself is
// distinguished from a child value that could not be resolved.
//
// # Concurrency
//
// A ServiceBuilder is a single-goroutine, single-session object. Value trees
// carry no shared state and may be resolved concurrently as long as any
// mutable leaves they share are themselves synchronized. The Container
// serializes installs and per-service start/stop transitions internally.
package msc
