package gfx

import "errors"

// Error taxonomy for the GPU layer. Startup errors are fatal; runtime
// errors are surfaced to the frame driver which skips or degrades.
var (
	// ErrUnsupportedGPU means no color-renderable half-float RGBA format
	// is available. Fatal at startup.
	ErrUnsupportedGPU = errors.New("gfx: no color-renderable half-float format available")

	// ErrResourceAlloc means a texture or framebuffer allocation failed.
	// The current frame is skipped; the next resize retries.
	ErrResourceAlloc = errors.New("gfx: resource allocation failed")

	// ErrShaderCompile means a shader stage failed to compile.
	ErrShaderCompile = errors.New("gfx: shader compile failed")

	// ErrProgramLink means program linking failed.
	ErrProgramLink = errors.New("gfx: program link failed")

	// ErrAssetLoad means an auxiliary asset (dithering texture) failed to load.
	ErrAssetLoad = errors.New("gfx: asset load failed")
)
