package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestProfilerReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for i := 0; i < 29; i++ {
		clock.advance(34 * time.Millisecond)
		require.False(t, p.Tick())
	}
	clock.advance(34 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 30.0/1.02, p.Last().FPS, 1e-6)
}

func TestProfilerUploadThroughput(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(2*time.Second))

	p.AddUpload(3 * 1024 * 1024)
	p.AddUpload(1024 * 1024)
	p.Drop()
	clock.advance(2 * time.Second)
	require.True(t, p.Tick())

	stats := p.Last()
	assert.InDelta(t, 2.0, stats.UploadMBPerSec, 1e-9)
	assert.Equal(t, 1, stats.FramesDropped)

	// Counters restart with the next window.
	clock.advance(2 * time.Second)
	require.True(t, p.Tick())
	assert.Zero(t, p.Last().UploadMBPerSec)
	assert.Zero(t, p.Last().FramesDropped)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
