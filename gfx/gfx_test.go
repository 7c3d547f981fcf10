package gfx

import (
	"strings"
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"
)

func TestAddKeywords(t *testing.T) {
	src := "#version 330 core\nvoid main() {}\n"

	tests := []struct {
		name     string
		keywords []string
		want     []string // substrings that must appear, in order
	}{
		{"no keywords", nil, []string{"#version 330 core\nvoid main"}},
		{"single keyword", []string{"SHADING"}, []string{"#version 330 core\n#define SHADING\nvoid main"}},
		{"multiple keywords", []string{"SHADING", "BLOOM"}, []string{"#define SHADING\n#define BLOOM\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddKeywords(src, tt.keywords)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("AddKeywords output missing %q:\n%s", want, got)
				}
			}
			if !strings.HasPrefix(got, "#version 330 core\n") {
				t.Errorf("defines must come after the #version line:\n%s", got)
			}
		})
	}
}

func TestAddKeywordsNoVersionLine(t *testing.T) {
	got := AddKeywords("void main() {}", []string{"MANUAL_FILTERING"})
	if !strings.HasPrefix(got, "#define MANUAL_FILTERING\n") {
		t.Errorf("defines should be prepended when no #version is present:\n%s", got)
	}
}

func TestStripSubscript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"uTexture", "uTexture"},
		{"uWeights[0]", "uWeights"},
		{"curve[2]", "curve"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripSubscript(tt.in); got != tt.want {
			t.Errorf("StripSubscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWiderFormat(t *testing.T) {
	rg, ok := WiderFormat(TexFormat{gl.R16F, gl.RED})
	if !ok || rg.Internal != gl.RG16F || rg.Format != gl.RG {
		t.Errorf("R16F should widen to RG16F, got 0x%x ok=%v", rg.Internal, ok)
	}

	rgba, ok := WiderFormat(TexFormat{gl.RG16F, gl.RG})
	if !ok || rgba.Internal != gl.RGBA16F || rgba.Format != gl.RGBA {
		t.Errorf("RG16F should widen to RGBA16F, got 0x%x ok=%v", rgba.Internal, ok)
	}

	if _, ok := WiderFormat(TexFormat{gl.RGBA16F, gl.RGBA}); ok {
		t.Error("RGBA16F has no wider fallback")
	}
}

func TestResizeSameSizeIsNoop(t *testing.T) {
	// The same-size early-out never touches GL, so it is safe to exercise
	// without a context.
	f := &FBO{Width: 128, Height: 96, Texture: 7}
	if err := f.Resize(128, 96, nil, nil); err != nil {
		t.Fatalf("same-size resize returned %v", err)
	}
	if f.Texture != 7 {
		t.Error("same-size resize must leave the handle unchanged")
	}

	d := &DoubleFBO{a: &FBO{Width: 128, Height: 96}, b: &FBO{Width: 128, Height: 96}}
	if err := d.Resize(128, 96, nil, nil); err != nil {
		t.Fatalf("same-size double resize returned %v", err)
	}
}

func TestDoubleFBOSwap(t *testing.T) {
	// Swap is pure pointer exchange; exercise it without GL allocations.
	a := &FBO{Width: 8, Height: 8}
	b := &FBO{Width: 8, Height: 8}
	d := &DoubleFBO{a: a, b: b}

	if d.Read() != a || d.Write() != b {
		t.Fatal("initial roles wrong")
	}

	d.Swap()
	if d.Read() != b || d.Write() != a {
		t.Error("swap did not exchange roles")
	}

	d.Swap()
	if d.Read() != a || d.Write() != b {
		t.Error("swap twice should restore the original roles")
	}
}
