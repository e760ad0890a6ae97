package whirl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testShaderWGSL = `
@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 1.0, 0.0, 1.0);
}
`

func TestNewShaderFromSource(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	shader, err := NewShaderFromSource(dev, "flat", testShaderWGSL)
	if err != nil {
		t.Fatalf("NewShaderFromSource failed: %v", err)
	}
	defer shader.Destroy()

	if shader.Module() == nil {
		t.Error("expected non-nil shader module")
	}
	if shader.Label() != "flat" {
		t.Errorf("unexpected label %q", shader.Label())
	}
}

func TestNewShaderFromSourceEmpty(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	if _, err := NewShaderFromSource(dev, "empty", ""); !errors.Is(err, ErrEmptyShaderSource) {
		t.Errorf("expected ErrEmptyShaderSource, got %v", err)
	}
}

func TestNewShaderFromSourceInvalid(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	if _, err := NewShaderFromSource(dev, "broken", "fn ("); err == nil {
		t.Error("expected compile error for malformed WGSL")
	}
}

func TestNewShaderFromFile(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "flat.wgsl")
	if err := os.WriteFile(path, []byte(testShaderWGSL), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	shader, err := NewShader(dev, path)
	if err != nil {
		t.Fatalf("NewShader failed: %v", err)
	}
	defer shader.Destroy()

	if shader.Label() != "flat.wgsl" {
		t.Errorf("expected label derived from file name, got %q", shader.Label())
	}
}

func TestNewShaderMissingFile(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	_, err := NewShader(dev, filepath.Join(t.TempDir(), "missing.wgsl"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestShaderDestroy(t *testing.T) {
	dev, cleanup := newTestDevice(t)
	defer cleanup()

	shader, err := NewShaderFromSource(dev, "flat", testShaderWGSL)
	if err != nil {
		t.Fatalf("NewShaderFromSource failed: %v", err)
	}

	shader.Destroy()
	shader.Destroy()

	if shader.Module() != nil {
		t.Error("expected nil module after Destroy")
	}
}

// Compiled output starts with the SPIR-V magic word.
func TestCompileWGSLMagic(t *testing.T) {
	words, err := compileWGSL(testShaderWGSL)
	if err != nil {
		t.Fatalf("compileWGSL failed: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("expected non-empty SPIR-V")
	}
	const spirvMagic = 0x07230203
	if words[0] != spirvMagic {
		t.Errorf("expected magic %#x, got %#x", spirvMagic, words[0])
	}
}
