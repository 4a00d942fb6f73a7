package source

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-yuv/common"
)

// The automation pool's workers do not exit on their own and its Stop cannot be relied on to end them
// all, so every pattern source renders on one pool created on first use and kept for the process.
var (
	renderPoolOnce sync.Once
	renderPool     worker.DynamicWorkerPool
)

// sharedRenderPool returns the process-wide pattern rendering pool, creating it on first call.
func sharedRenderPool() worker.DynamicWorkerPool {
	renderPoolOnce.Do(func() {
		renderPool = worker.NewDynamicWorkerPool(max(runtime.GOMAXPROCS(0), 1), 256, 1*time.Second)
	})
	return renderPool
}

// barChroma holds the (U, V) pair of the classic eight vertical bars: white, yellow, cyan, green,
// magenta, red, blue, black at 75% intensity (BT.601 limited range).
var barChroma = [8][2]byte{
	{128, 128}, {44, 136}, {156, 44}, {72, 58},
	{184, 198}, {100, 212}, {212, 114}, {128, 128},
}

// barLuma is the luma of each bar in barChroma.
var barLuma = [8]byte{180, 162, 131, 112, 84, 65, 35, 16}

// PatternSource synthesises an endless animated test pattern: colour bars in the upper two thirds and a
// scrolling luma ramp below. Plane rows are rendered in parallel bands on a shared worker pool.
type PatternSource struct {
	width  int
	height int
	bands  int
	frames uint64
	next   uint64
	closed bool

	frame *common.Frame
	pool  worker.DynamicWorkerPool
}

var _ Source = &PatternSource{}

// PatternSourceOption is a functional option for pattern source configuration.
type PatternSourceOption func(*PatternSource)

// WithPatternAlignment pads each plane row up to a multiple of align bytes.
//
// Parameters:
//   - align: the row alignment in bytes
//
// Returns:
//   - PatternSourceOption: option function to apply
func WithPatternAlignment(align int) PatternSourceOption {
	return func(s *PatternSource) {
		s.frame = common.NewFrame(s.width, s.height, align)
	}
}

// WithWorkers sets how many row bands each plane is split into, the most rows rendered at once.
//
// Parameters:
//   - workers: the number of bands, at least 1
//
// Returns:
//   - PatternSourceOption: option function to apply
func WithWorkers(workers int) PatternSourceOption {
	return func(s *PatternSource) {
		s.bands = max(workers, 1)
	}
}

// WithFrameLimit stops the pattern with io.EOF after n frames. Zero means endless.
//
// Parameters:
//   - n: the number of frames to produce
//
// Returns:
//   - PatternSourceOption: option function to apply
func WithFrameLimit(n uint64) PatternSourceOption {
	return func(s *PatternSource) {
		s.frames = n
	}
}

// NewPatternSource creates a pattern generator of the given luma size.
//
// Parameters:
//   - width: the luma width
//   - height: the luma height
//   - options: functional options for source configuration
//
// Returns:
//   - *PatternSource: the source
//   - error: an error if the size is invalid
func NewPatternSource(width, height int, options ...PatternSourceOption) (*PatternSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	s := &PatternSource{
		width:  width,
		height: height,
		bands:  4,
		frame:  common.NewFrame(width, height, 1),
	}
	for _, opt := range options {
		opt(s)
	}
	s.pool = sharedRenderPool()
	return s, nil
}

func (s *PatternSource) Width() int {
	return s.width
}

func (s *PatternSource) Height() int {
	return s.height
}

func (s *PatternSource) NextFrame() (*common.Frame, error) {
	if s.closed {
		return nil, fmt.Errorf("pattern source: %w", os.ErrClosed)
	}
	seq := s.next
	if s.frames > 0 && seq >= s.frames {
		return nil, io.EOF
	}

	// Per-frame barrier; the pool's own Wait would also wait on other sources' bands.
	var wg sync.WaitGroup
	taskID := 0
	for _, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		h := common.PlaneHeight(p, s.height)
		bands := min(s.bands, h)
		for b := 0; b < bands; b++ {
			plane := p
			first, last := b*h/bands, (b+1)*h/bands
			wg.Add(1)
			id := taskID
			taskID++
			s.pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					s.renderRows(plane, first, last, seq)
					return nil, nil
				},
			})
		}
	}
	wg.Wait()

	s.frame.Sequence = seq
	s.next++
	return s.frame, nil
}

// renderRows fills rows [first, last) of one plane for frame seq.
func (s *PatternSource) renderRows(p common.Plane, first, last int, seq uint64) {
	data, stride := s.frame.PlaneData(p)
	w := common.PlaneWidth(p, s.width)
	h := common.PlaneHeight(p, s.height)
	barsEnd := h * 2 / 3

	for row := first; row < last; row++ {
		line := data[row*stride : row*stride+w]
		for x := range line {
			if row < barsEnd {
				bar := x * len(barLuma) / w
				switch p {
				case common.PlaneY:
					line[x] = barLuma[bar]
				case common.PlaneU:
					line[x] = barChroma[bar][0]
				default:
					line[x] = barChroma[bar][1]
				}
				continue
			}
			if p != common.PlaneY {
				line[x] = 128
				continue
			}
			// Limited range ramp from 16 to 235 scrolling one pixel per frame.
			pos := (uint64(x) + seq) % uint64(w)
			line[x] = byte(16 + pos*219/uint64(max(w-1, 1)))
		}
	}
}

// Close drops the frame buffer. Later NextFrame calls fail with os.ErrClosed; the shared pool stays up.
func (s *PatternSource) Close() error {
	s.closed = true
	s.frame = nil
	return nil
}
