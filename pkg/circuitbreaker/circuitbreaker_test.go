package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[int](Settings{Name: "stock", ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errBackend })
		require.ErrorIs(t, err, errBackend)
	}

	calls := 0
	_, err := cb.Execute(func() (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.Equal(t, 0, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New[int](Settings{Name: "stock", ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, nil)

	_, err := cb.Execute(func() (int, error) { return 0, errBackend })
	require.ErrorIs(t, err, errBackend)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreaker_IsSuccessfulErrorsDoNotTrip(t *testing.T) {
	errNotFound := errors.New("not found")
	cb := New[int](Settings{
		Name:                "product",
		ConsecutiveFailures: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errNotFound })
		require.ErrorIs(t, err, errNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
