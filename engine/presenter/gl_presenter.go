package presenter

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-yuv/engine/texture"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var (
	//go:embed assets/yuv.vert.glsl
	yuvVertexSource string
	//go:embed assets/yuv.frag.glsl
	yuvFragmentSource string
)

// GLPresenter draws with an OpenGL 4.1 core program whose three samplers read texture units 0, 1 and 2.
// It must be used on the thread the context is current on.
type GLPresenter struct {
	mu *sync.Mutex
	settings

	swap   func()
	width  int
	height int

	program uint32
	vao     uint32

	flagsLocation int32
	rowLocations  [3]int32
}

var _ Presenter = &GLPresenter{}

// NewGLPresenter compiles the conversion program on the current context.
//
// Parameters:
//   - width: the initial framebuffer width
//   - height: the initial framebuffer height
//   - swap: presents the back buffer, usually the window's SwapBuffers
//   - options: functional options for the conversion settings
//
// Returns:
//   - *GLPresenter: the presenter
//   - error: an error if the program failed to compile or link
func NewGLPresenter(width, height int, swap func(), options ...PresenterBuilderOption) (*GLPresenter, error) {
	if swap == nil {
		return nil, errors.New("gl presenter requires a swap function")
	}
	p := &GLPresenter{
		mu:       &sync.Mutex{},
		settings: newSettings(options...),
		swap:     swap,
		width:    width,
		height:   height,
	}

	vert, err := compileShader(gl.VERTEX_SHADER, yuvVertexSource)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	frag, err := compileShader(gl.FRAGMENT_SHADER, yuvFragmentSource)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	p.program, err = linkProgram(vert, frag)
	if err != nil {
		return nil, err
	}

	p.flagsLocation = gl.GetUniformLocation(p.program, gl.Str("u_flags\x00"))
	p.rowLocations = [3]int32{
		gl.GetUniformLocation(p.program, gl.Str("u_rowR\x00")),
		gl.GetUniformLocation(p.program, gl.Str("u_rowG\x00")),
		gl.GetUniformLocation(p.program, gl.Str("u_rowB\x00")),
	}

	// Sampler uniforms are fixed to the units a texture's Bind assigns.
	gl.UseProgram(p.program)
	gl.Uniform1i(gl.GetUniformLocation(p.program, gl.Str("u_luma\x00")), texture.UnitLuma)
	gl.Uniform1i(gl.GetUniformLocation(p.program, gl.Str("u_chromaU\x00")), texture.UnitChromaU)
	gl.Uniform1i(gl.GetUniformLocation(p.program, gl.Str("u_chromaV\x00")), texture.UnitChromaV)
	gl.UseProgram(0)

	// The vertex shader derives positions from gl_VertexID, but core profile still requires a bound VAO.
	gl.GenVertexArrays(1, &p.vao)
	return p, nil
}

func (p *GLPresenter) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.width, p.height = width, height
	return nil
}

func (p *GLPresenter) Draw(frameWidth, frameHeight int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program == 0 {
		return errors.New("gl presenter released")
	}
	if p.width <= 0 || p.height <= 0 {
		return nil
	}

	gl.Viewport(0, 0, int32(p.width), int32(p.height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(p.program)
	if p.dirty {
		params := p.params()
		for i, row := range params.Rows {
			gl.Uniform4f(p.rowLocations[i], row[0], row[1], row[2], row[3])
		}
		gl.Uniform4f(p.flagsLocation, params.Flags[0], params.Flags[1], params.Flags[2], params.Flags[3])
		p.dirty = false
	}

	// GL viewports are anchored bottom-left.
	vp := p.viewport(frameWidth, frameHeight, p.width, p.height)
	gl.Viewport(int32(vp.X), int32(p.height-vp.Y-vp.Height), int32(vp.Width), int32(vp.Height))
	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.UseProgram(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x during draw", code)
	}
	p.swap()
	return nil
}

func (p *GLPresenter) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	src, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, src, nil)
	gl.CompileShader(shader)

	var ok int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		var size int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &size)
		log := strings.Repeat("\x00", int(size+1))
		gl.GetShaderInfoLog(shader, size, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DeleteShader(s)
	}

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		var size int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &size)
		log := strings.Repeat("\x00", int(size+1))
		gl.GetProgramInfoLog(program, size, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link failed: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}
