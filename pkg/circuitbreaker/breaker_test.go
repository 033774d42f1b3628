package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("backend")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour
	cb := New[int](cfg, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.True(t, IsOpen(err))
}

func TestBreaker_IgnoresSuccessfulErrors(t *testing.T) {
	errClient := errors.New("bad request")
	cfg := DefaultConfig("backend")
	cfg.ConsecutiveFailures = 1
	cb := New[int](cfg, nil, func(err error) bool { return err == nil || errors.Is(err, errClient) })

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errClient })
		require.ErrorIs(t, err, errClient)
	}

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestIsOpen_OtherErrors(t *testing.T) {
	assert.False(t, IsOpen(errUpstream))
	assert.False(t, IsOpen(nil))
}
