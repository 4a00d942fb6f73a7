package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-yuv/common"
)

// Stats is one reporting window of playback statistics.
type Stats struct {
	FPS            float64
	UploadMBPerSec float64
	FramesDropped  int
	HeapMB         float64
	AllocRateMB    float64
	GCCount        uint32
	LastPauseUs    uint64
	MaxPauseUs     uint64
	SysMB          float64
}

// Profiler tracks presented frames, plane upload throughput and memory statistics.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	uploadBytes    int64
	dropped        int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options for profiler configuration
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// ProfilerOption is a functional option for profiler configuration.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces the time source, for tests.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerOption: option function to apply
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// AddUpload records bytes handed to the GPU for plane uploads.
func (p *Profiler) AddUpload(bytes int) {
	p.uploadBytes += int64(bytes)
}

// Drop records a frame the source produced but playback skipped.
func (p *Profiler) Drop() {
	p.dropped++
}

// Last returns the statistics of the most recent completed window.
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick should be called once per presented frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	stats := Stats{
		FPS:            float64(p.frameCount) / seconds,
		UploadMBPerSec: float64(p.uploadBytes) / 1024 / 1024 / seconds,
		FramesDropped:  p.dropped,
		HeapMB:         float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:    float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:        p.memStats.NumGC,
		SysMB:          float64(p.memStats.Sys) / 1024 / 1024,
	}

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info("playback stats",
		"fps", stats.FPS,
		"uploadMBps", stats.UploadMBPerSec,
		"dropped", stats.FramesDropped,
		"heapMB", stats.HeapMB,
		"allocMBps", stats.AllocRateMB,
		"gc", stats.GCCount,
		"gcLastUs", stats.LastPauseUs,
		"gcMaxUs", stats.MaxPauseUs,
		"sysMB", stats.SysMB,
	)

	p.last = stats
	p.frameCount = 0
	p.uploadBytes = 0
	p.dropped = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
