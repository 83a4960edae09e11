package timeutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualSleepAdvancesByDurationOverSpeed(t *testing.T) {
	start := time.Unix(1000, 0)
	v, err := NewVirtualAt(start, 2.0)
	require.NoError(t, err)

	require.NoError(t, v.Sleep(context.Background(), 10*time.Second))
	assert.Equal(t, start.Add(5*time.Second), v.Now())
}

func TestVirtualZeroSpeedRejected(t *testing.T) {
	_, err := NewVirtual(0)
	assert.ErrorIs(t, err, ErrZeroSpeed)
}

func TestVirtualNeverGoesBackward(t *testing.T) {
	v, err := NewVirtual(1.0)
	require.NoError(t, err)

	before := v.Now()
	require.NoError(t, v.Sleep(context.Background(), 0))
	after := v.Now()
	assert.False(t, after.Before(before))
}

func TestVirtualSleepRespectsCancellation(t *testing.T) {
	v, err := NewVirtual(1.0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := v.Now()
	err = v.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, v.Now())
}

func TestRealSleepZeroYieldsImmediately(t *testing.T) {
	r := NewReal()
	start := time.Now()
	require.NoError(t, r.Sleep(context.Background(), 0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
