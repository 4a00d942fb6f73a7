// Package texture implements the planar YUV texture object: three single-channel GPU textures, one per
// plane of an IYUV frame, created together, refreshed together and bound to fixed texture units.
package texture

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/Carmen-Shannon/oxy-yuv/engine/gpu"
	"github.com/google/uuid"
)

// Texture units a conversion shader samples the planes from. This assignment is a contract with every
// consuming shader and must not change.
const (
	UnitLuma    = 0
	UnitChromaU = 1
	UnitChromaV = 2
)

// yuvTexture is the implementation of the Texture interface.
type yuvTexture struct {
	backend gpu.Backend
	label   string

	width  int
	height int
	format common.PixelFormat
	access common.TextureAccess

	minFilter gpu.FilterMode
	magFilter gpu.FilterMode

	luma    gpu.TextureHandle
	chromaU gpu.TextureHandle
	chromaV gpu.TextureHandle

	// committed holds the tightly packed content of each plane as of the last successful Update, so a
	// backend failure part way through an upload can put the earlier planes back.
	committed [3][]byte

	destroyed bool
}

// Texture is an IYUV video surface living on the GPU as three plane textures.
//
// A Texture is not safe for concurrent use. Every call, including creation and destruction, must be
// made from the thread that owns the backend's rendering context, and an Update must return before
// the Bind that is expected to show its content.
type Texture interface {
	// Update replaces the full content of all three planes. Each plane is read row by row using its own
	// stride, so padded decoder scanlines can be uploaded without repacking. All planes are validated
	// before any is uploaded; on error the texture keeps its previous content. If the backend rejects a
	// plane part way through, the planes already written are uploaded again from the last good frame.
	//
	// Parameters:
	//   - y: luma samples, at least yStride*height bytes
	//   - yStride: bytes between luma row starts, at least width
	//   - u: chroma-U samples, at least uStride*ceil(height/2) bytes
	//   - uStride: bytes between chroma-U row starts, at least ceil(width/2)
	//   - v: chroma-V samples, at least vStride*ceil(height/2) bytes
	//   - vStride: bytes between chroma-V row starts, at least ceil(width/2)
	//
	// Returns:
	//   - error: ErrInvalidArgument for a bad plane, ErrDestroyed after Destroy, or a backend upload error
	Update(y []byte, yStride int, u []byte, uStride int, v []byte, vStride int) error

	// UpdateFrame is Update with the planes and strides taken from a frame. The frame must match the
	// texture's dimensions.
	//
	// Parameters:
	//   - frame: the decoded frame to upload
	//
	// Returns:
	//   - error: the same errors as Update, or ErrInvalidArgument on a size mismatch
	UpdateFrame(frame *common.Frame) error

	// Bind puts chroma-V on unit 2, chroma-U on unit 1 and luma on unit 0, in that order, and leaves
	// unit 0 active. Binding a destroyed texture does nothing.
	Bind()

	// Query reports the identity of the texture.
	//
	// Returns:
	//   - common.TextureInfo: format, access, width and height as given at creation
	//   - error: ErrDestroyed after Destroy
	Query() (common.TextureInfo, error)

	// Format returns the pixel format tag given at creation.
	Format() common.PixelFormat

	// Access returns the access tag given at creation.
	Access() common.TextureAccess

	// Width returns the luma width in pixels.
	Width() int

	// Height returns the luma height in pixels.
	Height() int

	// Label returns the debug label of the texture.
	Label() string

	// Destroy releases the three plane textures. It may be called once; later calls return ErrDestroyed
	// and release nothing.
	//
	// Returns:
	//   - error: ErrDestroyed if the texture was already destroyed
	Destroy() error
}

var _ Texture = &yuvTexture{}

// NewTexture creates a YUV texture and allocates its three plane textures on the backend: luma at
// width x height, chroma-U and chroma-V at ceil(width/2) x ceil(height/2), all zero-filled, linear
// filtered and clamped to edge. Arguments are checked before anything is allocated. If a plane fails to
// allocate, planes already created are released before returning.
//
// Parameters:
//   - backend: the GPU backend to allocate on
//   - format: the pixel format tag; only common.PixelFormatIYUV is accepted
//   - access: an opaque access tag stored for Query
//   - width: luma width in pixels, positive
//   - height: luma height in pixels, positive
//   - options: functional options for texture configuration
//
// Returns:
//   - Texture: the new texture, or nil on error
//   - error: ErrUnsupportedFormat, ErrInvalidArgument or ErrResourceExhausted
func NewTexture(backend gpu.Backend, format common.PixelFormat, access common.TextureAccess, width, height int, options ...TextureBuilderOption) (Texture, error) {
	if format != common.PixelFormatIYUV {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", ErrInvalidArgument, width, height)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidArgument)
	}

	t := &yuvTexture{
		backend:   backend,
		width:     width,
		height:    height,
		format:    format,
		access:    access,
		minFilter: gpu.FilterLinear,
		magFilter: gpu.FilterLinear,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.label == "" {
		t.label = "yuv-" + uuid.NewString()
	}

	state := backend.SaveState()
	defer backend.RestoreState(state)

	for _, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		handle, err := backend.CreateTexture(gpu.TextureDescriptor{
			Label:     t.label + " " + p.String(),
			Width:     common.PlaneWidth(p, width),
			Height:    common.PlaneHeight(p, height),
			MinFilter: t.minFilter,
			MagFilter: t.magFilter,
			WrapS:     gpu.WrapClampToEdge,
			WrapT:     gpu.WrapClampToEdge,
		})
		if err != nil {
			t.releasePlanes()
			return nil, fmt.Errorf("%w: allocating %s plane of %q: %v", ErrResourceExhausted, p, t.label, err)
		}
		*t.handle(p) = handle
		t.committed[p] = make([]byte, common.PlaneWidth(p, width)*common.PlaneHeight(p, height))
	}

	common.Logger().Debug("yuv texture created",
		"label", t.label,
		"width", width,
		"height", height,
		"chromaWidth", common.ChromaDimension(width),
		"chromaHeight", common.ChromaDimension(height),
		"backend", backend.Type().String(),
	)
	return t, nil
}

func (t *yuvTexture) Update(y []byte, yStride int, u []byte, uStride int, v []byte, vStride int) error {
	if t.destroyed {
		return ErrDestroyed
	}

	uploads := [3]gpu.PlaneUpload{}
	planes := [3]struct {
		buf    []byte
		stride int
	}{{y, yStride}, {u, uStride}, {v, vStride}}

	for i, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		up, err := t.planeUpload(p, planes[i].buf, planes[i].stride)
		if err != nil {
			common.Logger().Warn("yuv texture update rejected", "label", t.label, "plane", p.String(), "error", err)
			return err
		}
		uploads[i] = up
	}

	state := t.backend.SaveState()
	defer t.backend.RestoreState(state)

	for i, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		if err := t.backend.WriteTexture(*t.handle(p), uploads[i]); err != nil {
			err = fmt.Errorf("uploading %s plane of %q: %w", p, t.label, err)
			if rerr := t.rollback(p); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}
	}
	for i, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		t.commit(p, uploads[i])
	}
	return nil
}

// rollback re-uploads the committed content of every plane before failed, leaving the texture as it
// was before the Update that failed on that plane.
func (t *yuvTexture) rollback(failed common.Plane) error {
	for p := common.PlaneY; p < failed; p++ {
		w := common.PlaneWidth(p, t.width)
		err := t.backend.WriteTexture(*t.handle(p), gpu.PlaneUpload{
			Pixels: t.committed[p],
			Stride: w,
			Width:  w,
			Height: common.PlaneHeight(p, t.height),
		})
		if err != nil {
			return fmt.Errorf("restoring %s plane of %q: %w", p, t.label, err)
		}
	}
	return nil
}

// commit records an uploaded plane as the content to restore on a later failed update.
func (t *yuvTexture) commit(p common.Plane, up gpu.PlaneUpload) {
	dst := t.committed[p]
	for row := 0; row < up.Height; row++ {
		copy(dst[row*up.Width:(row+1)*up.Width], up.Pixels[row*up.Stride:row*up.Stride+up.Width])
	}
}

func (t *yuvTexture) UpdateFrame(frame *common.Frame) error {
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	if frame.Width != t.width || frame.Height != t.height {
		return fmt.Errorf("%w: frame %dx%d does not match texture %dx%d", ErrInvalidArgument, frame.Width, frame.Height, t.width, t.height)
	}
	return t.Update(frame.Y, frame.YStride, frame.U, frame.UStride, frame.V, frame.VStride)
}

func (t *yuvTexture) Bind() {
	if t.destroyed {
		common.Logger().Warn("bind of destroyed yuv texture", "label", t.label)
		return
	}
	t.backend.ActiveTextureUnit(UnitChromaV)
	t.backend.BindTexture(t.chromaV)
	t.backend.ActiveTextureUnit(UnitChromaU)
	t.backend.BindTexture(t.chromaU)
	t.backend.ActiveTextureUnit(UnitLuma)
	t.backend.BindTexture(t.luma)
}

func (t *yuvTexture) Query() (common.TextureInfo, error) {
	if t.destroyed {
		return common.TextureInfo{}, ErrDestroyed
	}
	return common.TextureInfo{
		Format: t.format,
		Access: t.access,
		Width:  t.width,
		Height: t.height,
	}, nil
}

func (t *yuvTexture) Format() common.PixelFormat {
	return t.format
}

func (t *yuvTexture) Access() common.TextureAccess {
	return t.access
}

func (t *yuvTexture) Width() int {
	return t.width
}

func (t *yuvTexture) Height() int {
	return t.height
}

func (t *yuvTexture) Label() string {
	return t.label
}

func (t *yuvTexture) Destroy() error {
	if t.destroyed {
		return ErrDestroyed
	}
	t.releasePlanes()
	t.committed = [3][]byte{}
	t.destroyed = true
	common.Logger().Debug("yuv texture destroyed", "label", t.label)
	return nil
}

// handle returns the field holding the texture of plane p.
func (t *yuvTexture) handle(p common.Plane) *gpu.TextureHandle {
	switch p {
	case common.PlaneU:
		return &t.chromaU
	case common.PlaneV:
		return &t.chromaV
	default:
		return &t.luma
	}
}

// releasePlanes deletes every allocated plane texture, luma first, and clears the handles.
func (t *yuvTexture) releasePlanes() {
	for _, p := range []common.Plane{common.PlaneY, common.PlaneU, common.PlaneV} {
		h := t.handle(p)
		if *h != 0 {
			t.backend.DeleteTexture(*h)
			*h = 0
		}
	}
}

// planeUpload checks a caller buffer against the geometry of plane p and describes its upload.
// The buffer must hold stride*planeHeight bytes even though the last row's padding is never read.
func (t *yuvTexture) planeUpload(p common.Plane, buf []byte, stride int) (gpu.PlaneUpload, error) {
	w := common.PlaneWidth(p, t.width)
	h := common.PlaneHeight(p, t.height)
	switch {
	case len(buf) == 0:
		return gpu.PlaneUpload{}, fmt.Errorf("%w: missing %s plane", ErrInvalidArgument, p)
	case stride < w:
		return gpu.PlaneUpload{}, fmt.Errorf("%w: %s stride %d is narrower than plane width %d", ErrInvalidArgument, p, stride, w)
	case stride > len(buf)/h:
		return gpu.PlaneUpload{}, fmt.Errorf("%w: %s plane has %d bytes, need %d rows of stride %d", ErrInvalidArgument, p, len(buf), h, stride)
	}
	return gpu.PlaneUpload{
		Pixels: buf,
		Stride: stride,
		Width:  w,
		Height: h,
	}, nil
}
