package whirl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// ErrEmptyShaderSource indicates a shader with no WGSL source.
var ErrEmptyShaderSource = errors.New("whirl: shader source is empty")

// Shader is a compiled WGSL shader module. The WGSL source is compiled
// to SPIR-V through naga at creation time, so invalid shaders fail fast
// instead of at pipeline creation.
//
// Vertex and fragment entry points are expected to be named vs_main and
// fs_main respectively.
type Shader struct {
	mu       sync.Mutex
	device   hal.Device
	module   hal.ShaderModule
	label    string
	released bool
}

// NewShader loads WGSL source from a file and compiles it.
// The shader label is derived from the file name.
func NewShader(device *Device, path string) (*Shader, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader %q: %w", path, err)
	}
	label := filepath.Base(path)
	return NewShaderFromSource(device, label, string(source))
}

// NewShaderFromSource compiles WGSL source into a shader module.
func NewShaderFromSource(device *Device, label, source string) (*Shader, error) {
	if source == "" {
		return nil, ErrEmptyShaderSource
	}
	spirv, err := compileWGSL(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader %q: %w", label, err)
	}
	dev := device.HAL()
	if dev == nil {
		return nil, ErrDeviceDestroyed
	}
	module, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", label, err)
	}
	Logger().Debug("whirl: shader compiled", "label", label, "words", len(spirv))
	return &Shader{
		device: dev,
		module: module,
		label:  label,
	}, nil
}

// compileWGSL compiles WGSL to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}

// Module returns the HAL shader module, or nil after Destroy.
func (s *Shader) Module() hal.ShaderModule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.module
}

// Label returns the shader's debug label.
func (s *Shader) Label() string { return s.label }

// Destroy releases the shader module. Safe to call multiple times.
func (s *Shader) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if s.module != nil {
		s.device.DestroyShaderModule(s.module)
	}
	s.module = nil
	s.released = true
}
