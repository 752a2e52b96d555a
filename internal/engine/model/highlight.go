package model

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Debug palette for candidate surfaces, indexed by candidate position.
// ActiveHighlight is kept out of it.
var highlightPalette = mustPalette(
	"#ff0000", "#ff8800", "#0000ff", "#ffff00",
	"#ff00ff", "#00ffff", "#ffffff", "#888888",
)

// ActiveHighlight marks the active candidate.
var ActiveHighlight = mustHex("#00ff00")

// PaletteColor returns the debug color for candidate i.
func PaletteColor(i int) color.RGBA {
	return highlightPalette[i%len(highlightPalette)]
}

// materialLook is the part of a material Highlight overrides.
type materialLook struct {
	color       color.RGBA
	opacity     float32
	visible     bool
	transparent bool
	wireframe   bool
}

// HighlightState remembers how highlighted materials looked before.
type HighlightState struct {
	saved map[*Material]materialLook
}

// Highlight forces every candidate visible, opaque and wireframed, tinted
// by its palette color; the active candidate is then tinted ActiveHighlight.
// active may be -1 when nothing is selected. The returned state undoes it.
func Highlight(candidates []*Surface, active int) *HighlightState {
	h := &HighlightState{saved: make(map[*Material]materialLook, len(candidates))}
	for i, s := range candidates {
		if s.Material == nil {
			continue
		}
		m := s.Material
		if _, ok := h.saved[m]; !ok {
			h.saved[m] = materialLook{
				color:       m.Color,
				opacity:     m.Opacity,
				visible:     m.Visible,
				transparent: m.Transparent,
				wireframe:   m.Wireframe,
			}
		}
		m.Visible = true
		m.Opacity = 1
		m.Transparent = false
		m.Wireframe = true
		m.Color = PaletteColor(i)
	}
	if active >= 0 && active < len(candidates) && candidates[active].Material != nil {
		candidates[active].Material.Color = ActiveHighlight
	}
	return h
}

// Restore puts every highlighted material back the way it was. Texture
// maps are left alone. Restore on a nil state does nothing.
func (h *HighlightState) Restore() {
	if h == nil {
		return
	}
	for m, look := range h.saved {
		m.Color = look.color
		m.Opacity = look.opacity
		m.Visible = look.visible
		m.Transparent = look.transparent
		m.Wireframe = look.wireframe
	}
	h.saved = nil
}

func mustPalette(hexes ...string) []color.RGBA {
	out := make([]color.RGBA, len(hexes))
	for i, h := range hexes {
		out[i] = mustHex(h)
	}
	return out
}

func mustHex(s string) color.RGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
