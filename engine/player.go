package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-yuv/common"
	"github.com/Carmen-Shannon/oxy-yuv/engine/presenter"
	"github.com/Carmen-Shannon/oxy-yuv/engine/profiler"
	"github.com/Carmen-Shannon/oxy-yuv/engine/source"
	"github.com/Carmen-Shannon/oxy-yuv/engine/texture"
)

// player owns the per-frame playback state: it pulls frames from the source into the texture and has the
// presenter draw them. All methods run on the thread that owns the rendering context.
type player struct {
	source    source.Source
	texture   texture.Texture
	presenter presenter.Presenter
	profiler  *profiler.Profiler

	profiling bool
	title     string

	paused    bool
	step      bool
	stepping  bool
	ended     bool
	needsDraw bool

	onQuit  func()
	onTitle func(title string)
}

func newPlayer(src source.Source, tex texture.Texture, pres presenter.Presenter, prof *profiler.Profiler, title string) *player {
	return &player{
		source:    src,
		texture:   tex,
		presenter: pres,
		profiler:  prof,
		title:     title,
		needsDraw: true,
	}
}

// advance uploads the next source frame unless playback is paused or the source is exhausted.
func (p *player) advance() error {
	if p.ended {
		return nil
	}
	if p.paused && !p.step && !p.stepping {
		return nil
	}
	p.step = false

	frame, err := p.source.NextFrame()
	if errors.Is(err, io.EOF) {
		p.ended = true
		common.Logger().Info("end of stream, holding last frame")
		p.updateTitle()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}

	if err := p.texture.UpdateFrame(frame); err != nil {
		return fmt.Errorf("failed to upload frame %d: %w", frame.Sequence, err)
	}
	p.profiler.AddUpload(common.FrameSize(frame.Width, frame.Height))
	p.needsDraw = true
	return nil
}

// render binds the texture and draws it if anything changed since the last draw.
func (p *player) render() error {
	if !p.needsDraw {
		return nil
	}
	p.texture.Bind()
	if err := p.presenter.Draw(p.texture.Width(), p.texture.Height()); err != nil {
		return err
	}
	p.needsDraw = false
	if p.profiling {
		p.profiler.Tick()
	}
	return nil
}

// invalidate forces a redraw on the next render, after a resize or a conversion setting change.
func (p *player) invalidate() {
	p.needsDraw = true
}

// handleKey applies the playback controls.
func (p *player) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeySpace:
		p.paused = !p.paused
		p.stepping = false
	case common.KeyRight:
		if p.paused {
			p.step = true
			p.stepping = true
		}
	case common.KeyF:
		p.presenter.SetFlip(!p.presenter.Flip())
	case common.KeyC:
		p.presenter.SetColorMatrix(p.presenter.ColorMatrix().Next())
	case common.KeyR:
		p.presenter.SetFullRange(!p.presenter.FullRange())
	case common.KeyEsc:
		if p.onQuit != nil {
			p.onQuit()
		}
		return
	default:
		return
	}
	p.invalidate()
	p.updateTitle()
}

// handleKeyUp ends a held step: while Right is down a paused player advances one frame per tick.
func (p *player) handleKeyUp(keyCode uint32) {
	if keyCode == common.KeyRight {
		p.stepping = false
	}
}

// status describes the playback state for the title bar.
func (p *player) status() string {
	colorRange := "limited"
	if p.presenter.FullRange() {
		colorRange = "full"
	}
	s := fmt.Sprintf("%s | %dx%d %s %s", p.title, p.texture.Width(), p.texture.Height(), p.presenter.ColorMatrix(), colorRange)
	if p.presenter.Flip() {
		s += " flipped"
	}
	switch {
	case p.ended:
		s += " | ended"
	case p.paused:
		s += " | paused"
	}
	return s
}

func (p *player) updateTitle() {
	if p.onTitle != nil {
		p.onTitle(p.status())
	}
}
