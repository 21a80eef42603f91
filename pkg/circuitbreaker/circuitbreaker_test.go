package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("service down")

func failing(_ context.Context) error { return errDown }
func succeeding(_ context.Context) error { return nil }

func TestExecute_ClosedPassesThrough(t *testing.T) {
	cb := New("test")

	err := cb.Execute(context.Background(), succeeding)
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_OpensAfterThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), failing)
	}
	assert.Equal(t, StateOpen, cb.State())

	// While open, calls are rejected without invoking fn.
	calls := 0
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), succeeding)
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenThenCloses(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(time.Millisecond),
		WithMaxHalfOpenRequests(2),
	)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, cb.Execute(context.Background(), succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(time.Millisecond),
	)

	_ = cb.Execute(context.Background(), failing)
	time.Sleep(5 * time.Millisecond)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), failing)

	fallbackCalled := false
	err := cb.ExecuteWithFallback(context.Background(), succeeding, func(err error) error {
		fallbackCalled = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, fallbackCalled)
}

func TestOnStateChange(t *testing.T) {
	var transitions []string
	cb := New("mirror",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestWithIsFailure_IgnoresBenignErrors(t *testing.T) {
	benign := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, benign) }),
	)

	_ = cb.Execute(context.Background(), func(_ context.Context) error { return benign })
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), failing)
	assert.True(t, cb.IsOpen())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, Counts{}, cb.Counts())
}

func TestPresets(t *testing.T) {
	assert.Equal(t, "sheet-mirror", MirrorBreaker(nil).Name())
	assert.Equal(t, "telegram-api", TelegramBreaker(nil).Name())
}
