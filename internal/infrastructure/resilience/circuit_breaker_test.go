package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDial = errors.New("dial failed")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type transition struct{ from, to State }

func newTestBreaker(maxFailures int, opts ...Option) (*CircuitBreaker, *fakeClock, *[]transition) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	var seen []transition
	opts = append(opts,
		withClock(clock.now),
		WithStateChange(func(_ string, from, to State) {
			seen = append(seen, transition{from, to})
		}))
	return NewCircuitBreaker("test", maxFailures, time.Minute, opts...), clock, &seen
}

func fail() error    { return errDial }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _, seen := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDial)
		assert.Equal(t, StateClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDial)
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 3, cb.Failures())

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	assert.Equal(t, []transition{{StateClosed, StateOpen}}, *seen)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _, _ := newTestBreaker(2)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Failures())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock, seen := newTestBreaker(1, WithHalfOpenSuccesses(2))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clock.advance(time.Minute + time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, *seen)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock, _ := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.advance(2 * time.Minute)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDial)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_CanceledContext(t *testing.T) {
	cb, _, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, succeed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cb.Failures())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _, seen := newTestBreaker(1)
	_ = cb.Execute(context.Background(), fail)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())
	assert.Equal(t, transition{StateOpen, StateClosed}, (*seen)[len(*seen)-1])
	assert.Equal(t, "test", cb.Name())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
