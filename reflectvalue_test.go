package msc_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msc "github.com/maeste/jboss-msc"
)

type greeter struct {
	Prefix string
	secret string
}

func (g *greeter) Greet(name string) string {
	return g.Prefix + name
}

func (g *greeter) Fail() (string, error) {
	return "", errors.New("greeter broke")
}

func (g *greeter) Panic() string {
	panic("greeter panicked")
}

// recordingValue notes the order in which leaves resolve.
type recordingValue struct {
	label string
	log   *[]string
	value any
	err   error
}

func (v recordingValue) Value() (any, error) {
	*v.log = append(*v.log, v.label)
	return v.value, v.err
}

func TestLookupMethodValue(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{Prefix: "hello "}))
	method := msc.LookupMethodValue(target, "Greet")

	fn, err := method.Value()
	require.NoError(t, err)
	assert.Equal(t, reflect.Func, fn.Kind())
}

func TestLookupMethodValue_Missing(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{}))

	_, err := msc.LookupMethodValue(target, "Nope").Value()
	require.Error(t, err)
	assert.ErrorIs(t, err, msc.ErrMethodNotFound)
	assert.Contains(t, err.Error(), "Nope")
}

func TestLookupMethodValue_NilTarget(t *testing.T) {
	_, err := msc.LookupMethodValue(msc.NilValue[any](), "Greet").Value()
	assert.ErrorIs(t, err, msc.ErrTargetNil)
}

func TestMethodValue_BoundInvocation(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{Prefix: "hello "}))
	method := msc.LookupMethodValue(target, "Greet")

	// Bound callables take a nil target; parameters follow in order.
	v := msc.NewMethodValue(method, nil, msc.AnyValue(msc.NewValue("world")))

	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestMethodValue_UnboundInvocation(t *testing.T) {
	// A method expression takes the receiver as its leading argument, which
	// NewMethodValue supplies from the target value.
	expr := reflect.ValueOf((*greeter).Greet)
	v := msc.NewMethodValue(
		msc.NewValue(expr),
		msc.AnyValue(msc.NewValue(&greeter{Prefix: "hi "})),
		msc.AnyValue(msc.NewValue("there")),
	)

	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestMethodValue_ShortCircuitLeftToRight(t *testing.T) {
	var log []string
	boom := errors.New("target unavailable")

	method := msc.LookupMethodValue(msc.AnyValue(msc.NewValue(&greeter{})), "Greet")
	target := recordingValue{label: "target", log: &log, err: boom}
	param := recordingValue{label: "param", log: &log, value: "x"}

	_, err := msc.NewMethodValue(method, target, param).Value()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The failing target must short-circuit: the parameter leaf is never
	// resolved.
	assert.Equal(t, []string{"target"}, log)
}

func TestMethodValue_ParameterOrder(t *testing.T) {
	var log []string
	concat := func(a, b, c string) string { return a + b + c }

	v := msc.NewMethodValue(
		msc.NewValue(reflect.ValueOf(concat)),
		nil,
		recordingValue{label: "a", log: &log, value: "1"},
		recordingValue{label: "b", log: &log, value: "2"},
		recordingValue{label: "c", log: &log, value: "3"},
	)

	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "123", got)
	assert.Equal(t, []string{"a", "b", "c"}, log)
}

func TestMethodValue_ParameterFailureSkipsSiblings(t *testing.T) {
	var log []string
	boom := errors.New("no b")
	concat := func(a, b, c string) string { return a + b + c }

	v := msc.NewMethodValue(
		msc.NewValue(reflect.ValueOf(concat)),
		nil,
		recordingValue{label: "a", log: &log, value: "1"},
		recordingValue{label: "b", log: &log, err: boom},
		recordingValue{label: "c", log: &log, value: "3"},
	)

	_, err := v.Value()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, log)

	var vre *msc.ValueResolutionError
	require.ErrorAs(t, err, &vre)
	assert.Equal(t, "parameter 1", vre.Op)
}

func TestMethodValue_InvocationErrorDistinctFromResolution(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{}))
	v := msc.NewMethodValue(msc.LookupMethodValue(target, "Fail"), nil)

	_, err := v.Value()
	require.Error(t, err)

	// The callee ran and failed: that is an invocation failure, not a
	// resolution failure of a child value.
	var invErr *msc.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Cause.Error(), "greeter broke")
}

func TestMethodValue_PanicBecomesInvocationError(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{}))
	v := msc.NewMethodValue(msc.LookupMethodValue(target, "Panic"), nil)

	_, err := v.Value()
	require.Error(t, err)

	var invErr *msc.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Cause.Error(), "greeter panicked")
}

func TestMethodValue_ArgumentMismatch(t *testing.T) {
	target := msc.AnyValue(msc.NewValue(&greeter{}))
	v := msc.NewMethodValue(
		msc.LookupMethodValue(target, "Greet"),
		nil,
		msc.AnyValue(msc.NewValue(42)),
	)

	_, err := v.Value()
	require.Error(t, err)

	var invErr *msc.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Cause.Error(), "not assignable")
}

func TestMethodValue_NonCallable(t *testing.T) {
	v := msc.NewMethodValue(msc.NewValue(reflect.ValueOf(42)), nil)

	_, err := v.Value()
	assert.ErrorIs(t, err, msc.ErrNotInvocable)
}

func TestMethodValue_Variadic(t *testing.T) {
	join := func(sep string, parts ...string) string { return strings.Join(parts, sep) }

	v := msc.NewMethodValue(
		msc.NewValue(reflect.ValueOf(join)),
		nil,
		msc.AnyValue(msc.NewValue("-")),
		msc.AnyValue(msc.NewValue("a")),
		msc.AnyValue(msc.NewValue("b")),
	)

	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "a-b", got)
}

func TestFieldValue(t *testing.T) {
	g := &greeter{Prefix: "yo "}
	v := msc.NewFieldValue(msc.AnyValue(msc.NewValue(g)), "Prefix")

	got, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "yo ", got)

	// Field values read current state: repeated resolution observes writes.
	g.Prefix = "hey "
	got, err = v.Value()
	require.NoError(t, err)
	assert.Equal(t, "hey ", got)
}

func TestFieldValue_Missing(t *testing.T) {
	v := msc.NewFieldValue(msc.AnyValue(msc.NewValue(&greeter{})), "Nope")

	_, err := v.Value()
	assert.ErrorIs(t, err, msc.ErrFieldNotFound)
}

func TestFieldValue_Unexported(t *testing.T) {
	v := msc.NewFieldValue(msc.AnyValue(msc.NewValue(&greeter{secret: "x"})), "secret")

	_, err := v.Value()
	assert.ErrorIs(t, err, msc.ErrFieldInaccessible)
}

func TestFieldValue_NilTarget(t *testing.T) {
	v := msc.NewFieldValue(msc.NilValue[any](), "Prefix")

	_, err := v.Value()
	assert.ErrorIs(t, err, msc.ErrTargetNil)
}

func TestFieldValue_NonStruct(t *testing.T) {
	v := msc.NewFieldValue(msc.AnyValue(msc.NewValue(42)), "Prefix")

	_, err := v.Value()
	assert.ErrorIs(t, err, msc.ErrFieldNotFound)
}
