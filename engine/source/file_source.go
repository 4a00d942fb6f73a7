package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-yuv/common"
)

// FileSource reads tightly packed I420 frames (Y, then U, then V, no row padding) from a raw .yuv stream.
// Rows are copied into a frame whose strides are padded to the configured alignment.
type FileSource struct {
	r      io.Reader
	closer io.Closer
	width  int
	height int
	align  int
	loop   bool

	frame    *common.Frame
	sequence uint64
}

var _ Source = &FileSource{}

// FileSourceOption is a functional option for file source configuration.
type FileSourceOption func(*FileSource)

// WithLoop rewinds to the first frame at the end of the stream. The reader must implement io.Seeker.
//
// Parameters:
//   - loop: true to loop
//
// Returns:
//   - FileSourceOption: option function to apply
func WithLoop(loop bool) FileSourceOption {
	return func(s *FileSource) {
		s.loop = loop
	}
}

// WithRowAlignment pads each plane row of produced frames up to a multiple of align bytes.
//
// Parameters:
//   - align: the row alignment in bytes, 1 for tight rows
//
// Returns:
//   - FileSourceOption: option function to apply
func WithRowAlignment(align int) FileSourceOption {
	return func(s *FileSource) {
		s.align = align
	}
}

// OpenFileSource opens a raw I420 file.
//
// Parameters:
//   - path: the file path
//   - width: the luma width of every frame
//   - height: the luma height of every frame
//   - options: functional options for source configuration
//
// Returns:
//   - *FileSource: the source, owning the opened file
//   - error: an error if the file could not be opened or the size is invalid
func OpenFileSource(path string, width, height int, options ...FileSourceOption) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s, err := NewFileSource(f, width, height, options...)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f

	if info, statErr := f.Stat(); statErr == nil {
		frameSize := int64(common.FrameSize(width, height))
		if info.Size()%frameSize != 0 {
			common.Logger().Warn("file size is not a whole number of frames", "path", path, "size", info.Size(), "frameSize", frameSize)
		}
		common.Logger().Info("opened yuv file", "path", path, "frames", info.Size()/frameSize, "width", width, "height", height)
	}
	return s, nil
}

// NewFileSource reads frames from r.
//
// Parameters:
//   - r: the raw I420 stream
//   - width: the luma width of every frame
//   - height: the luma height of every frame
//   - options: functional options for source configuration
//
// Returns:
//   - *FileSource: the source
//   - error: an error if the size is invalid or looping was requested on a reader that cannot seek
func NewFileSource(r io.Reader, width, height int, options ...FileSourceOption) (*FileSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	s := &FileSource{
		r:      r,
		width:  width,
		height: height,
		align:  1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.align < 1 {
		return nil, fmt.Errorf("invalid row alignment %d", s.align)
	}
	if _, ok := r.(io.Seeker); s.loop && !ok {
		return nil, errors.New("looping requires a seekable reader")
	}
	s.frame = common.NewFrame(width, height, s.align)
	return s, nil
}

func (s *FileSource) Width() int {
	return s.width
}

func (s *FileSource) Height() int {
	return s.height
}

func (s *FileSource) NextFrame() (*common.Frame, error) {
	err := s.readFrame()
	if s.loop && errors.Is(err, io.EOF) && s.sequence > 0 {
		if _, seekErr := s.r.(io.Seeker).Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("failed to rewind: %w", seekErr)
		}
		common.Logger().Debug("yuv file looped", "frames", s.sequence)
		err = s.readFrame()
	}
	if err != nil {
		return nil, err
	}
	s.frame.Sequence = s.sequence
	s.sequence++
	return s.frame, nil
}

// readFrame fills the reusable frame. A stream ending on a frame boundary reports io.EOF; a trailing
// partial frame is discarded and also reported as io.EOF.
func (s *FileSource) readFrame() error {
	for _, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		data, stride := s.frame.PlaneData(p)
		w := common.PlaneWidth(p, s.width)
		h := common.PlaneHeight(p, s.height)
		for row := 0; row < h; row++ {
			dst := data[row*stride : row*stride+w]
			if _, err := io.ReadFull(s.r, dst); err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && (p != common.PlaneY || row > 0)) {
					common.Logger().Warn("discarding truncated trailing frame", "plane", p.String(), "row", row)
					return io.EOF
				}
				return err
			}
		}
	}
	return nil
}

// Close closes the file when the source opened it.
func (s *FileSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
