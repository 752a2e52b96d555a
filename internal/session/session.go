// Package session implements the painting session: tool state, stroke
// tracking, and the active paintable surface of the loaded model.
//
// A Session is driven from a single goroutine; every operation completes
// before the next event is handled, so a stamp and its recomposite are
// never observed half applied.
package session

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/garment-paint/internal/engine/brush"
	"github.com/Faultbox/garment-paint/internal/engine/model"
	"github.com/Faultbox/garment-paint/internal/engine/picking"
	"github.com/Faultbox/garment-paint/internal/engine/texture"
	"github.com/Faultbox/garment-paint/internal/logger"
)

// Tool defaults.
var (
	DefaultToolColor color.Color = color.NRGBA{R: 99, G: 102, B: 241, A: 179}
	DefaultToolSize  float32     = 30
)

// DefaultCycleKey advances to the next candidate surface.
const DefaultCycleKey = "n"

// ErrNoLayers is returned by exports before any paintable surface exists.
var ErrNoLayers = errors.New("session: nothing to export")

// State is the stroke state of a session.
type State int

const (
	Disabled State = iota
	Idle
	Stroking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stroking:
		return "stroking"
	default:
		return "disabled"
	}
}

// StrokeSummary describes a stroke that ended with pointer up or leave.
type StrokeSummary struct {
	Surface    string
	Stamps     int
	Inpainting bool
}

// Options configures a Session.
type Options struct {
	// Log receives session diagnostics. Defaults to the "session" logger.
	Log *zap.Logger

	// OnStrokeFinished is called when a stroke ends normally. Cancelled
	// strokes are not reported.
	OnStrokeFinished func(StrokeSummary)

	// DebugHighlight tints and wireframes every candidate on selection.
	DebugHighlight bool

	// TextureSize is the layer size for surfaces without a texture.
	// Zero means texture.DefaultSize.
	TextureSize int

	// CycleKey is matched case-insensitively by KeyDown. Defaults to "n".
	CycleKey string
}

// Session owns the painting state for one model at a time.
type Session struct {
	opts    Options
	log     *zap.Logger
	painter *brush.Painter

	model      *model.Model
	candidates []*model.Surface
	active     int
	layers     *texture.Layers

	cam picking.Camera
	vp  picking.Viewport

	state      State
	toolColor  color.Color
	toolSize   float32
	inpainting bool

	tint    color.RGBA
	hasTint bool

	highlight *model.HighlightState

	strokeStamps int
	stamps       int
}

// New creates a disabled session with no model.
func New(opts Options) *Session {
	if opts.Log == nil {
		opts.Log = logger.Named("session")
	}
	if opts.TextureSize == 0 {
		opts.TextureSize = texture.DefaultSize
	}
	if opts.CycleKey == "" {
		opts.CycleKey = DefaultCycleKey
	}
	return &Session{
		opts:      opts,
		log:       opts.Log,
		painter:   brush.New(opts.Log.Named("brush")),
		active:    -1,
		toolColor: DefaultToolColor,
		toolSize:  DefaultToolSize,
	}
}

// SetModel replaces the loaded model. Any stroke in progress is cancelled,
// candidates are re-selected and fresh layers are created for the
// automatically chosen surface. A garment color set earlier is applied to
// the new model. A nil model leaves painting unavailable.
func (s *Session) SetModel(m *model.Model) {
	s.cancelStroke()
	s.clearHighlight()
	s.releaseActive()

	s.model = m
	s.candidates = nil
	s.active = -1
	s.layers = nil
	if m == nil {
		return
	}

	s.candidates = model.SelectCandidates(m)
	s.active = model.AutoSelect(s.candidates)
	if s.active < 0 {
		s.log.Warn("model has no paintable surface", zap.String("model", m.Name))
	} else {
		s.log.Info("paint candidates selected",
			zap.String("model", m.Name),
			zap.Int("candidates", len(s.candidates)),
			zap.String("active", s.candidates[s.active].Name),
		)
		s.establish()
	}
	if s.hasTint {
		s.applyTint()
	}
}

// SetView records the camera and viewport used to resolve pointer events.
func (s *Session) SetView(cam picking.Camera, vp picking.Viewport) {
	s.cam = cam
	s.vp = vp
}

// Enable starts accepting pointer input with the given tool. A nil color
// or non-positive radius keeps the current value.
func (s *Session) Enable(c color.Color, radius float32) {
	s.SetToolColor(c)
	s.SetToolSize(radius)
	if s.state == Disabled {
		s.state = Idle
		s.log.Debug("painting enabled")
	}
}

// Disable stops accepting pointer input, cancelling any stroke.
func (s *Session) Disable() {
	if s.state == Disabled {
		return
	}
	s.state = Disabled
	s.strokeStamps = 0
	s.log.Debug("painting disabled")
}

// SetToolColor sets the stroke color. nil is ignored.
func (s *Session) SetToolColor(c color.Color) {
	if c != nil {
		s.toolColor = c
	}
}

// SetToolSize sets the brush radius in texture pixels. Non-positive values
// are ignored.
func (s *Session) SetToolSize(radius float32) {
	if radius > 0 {
		s.toolSize = radius
	}
}

// SetInpainting toggles mask mode. While set, stamps paint the edited mask
// sentinel instead of the tool color.
func (s *Session) SetInpainting(on bool) {
	s.inpainting = on
}

// SetDebugHighlight toggles candidate highlighting. Turning it off restores
// the candidates' own materials.
func (s *Session) SetDebugHighlight(on bool) {
	s.opts.DebugHighlight = on
	if on {
		s.applyHighlight()
	} else {
		s.clearHighlight()
	}
}

// DebugHighlight reports whether candidate highlighting is on.
func (s *Session) DebugHighlight() bool { return s.opts.DebugHighlight }

// PointerDown starts a stroke and stamps under the pointer.
func (s *Session) PointerDown(ev picking.PointerEvent) {
	if s.state == Disabled || s.layers == nil {
		return
	}
	if s.state == Idle {
		s.state = Stroking
		s.strokeStamps = 0
	}
	s.stampAt(ev)
}

// PointerMove continues the current stroke.
func (s *Session) PointerMove(ev picking.PointerEvent) {
	if s.state != Stroking {
		return
	}
	s.stampAt(ev)
}

// PointerUp ends the current stroke.
func (s *Session) PointerUp(picking.PointerEvent) {
	s.finishStroke()
}

// PointerLeave ends the current stroke when the pointer leaves the view.
func (s *Session) PointerLeave() {
	s.finishStroke()
}

// KeyDown handles a key press by name. It reports whether the key was
// consumed.
func (s *Session) KeyDown(key string) bool {
	if !strings.EqualFold(key, s.opts.CycleKey) {
		return false
	}
	return s.CycleCandidate()
}

// CycleCandidate makes the next candidate active, discarding the current
// layers. It does nothing with fewer than two candidates.
func (s *Session) CycleCandidate() bool {
	if len(s.candidates) < 2 {
		return false
	}
	s.cancelStroke()
	s.releaseActive()

	s.active = model.Cycle(len(s.candidates), s.active)
	s.log.Info("active surface changed",
		zap.Int("index", s.active),
		zap.String("surface", s.candidates[s.active].Name),
	)
	s.establish()
	return true
}

// ClearAll erases all paint and mask edits on the active surface and
// reapplies the garment tint when one is set.
func (s *Session) ClearAll() {
	if s.layers == nil {
		return
	}
	s.layers.Clear()
	if s.hasTint {
		s.applyTint()
	}
}

// SetGarmentColor tints every surface of the model. Before any paint is
// applied texture maps are removed so the tint shows as a flat color;
// afterwards maps are kept so the paint stays visible.
func (s *Session) SetGarmentColor(c color.RGBA) {
	s.tint = c
	s.hasTint = true
	s.applyTint()
}

func (s *Session) applyTint() {
	if s.model == nil {
		return
	}
	keepMaps := s.Painted()
	for _, surf := range s.model.Surfaces() {
		if surf.Material == nil {
			continue
		}
		if !keepMaps {
			surf.Material.Map = nil
		}
		surf.Material.Color = s.tint
	}
	if s.highlight != nil {
		s.applyHighlight()
	}
}

// ExportPaint writes the paint layer as PNG.
func (s *Session) ExportPaint(w io.Writer) error {
	if s.layers == nil {
		s.log.Warn("paint export requested with no layers")
		return ErrNoLayers
	}
	return png.Encode(w, s.layers.Paint)
}

// ExportMask writes the mask layer as PNG.
func (s *Session) ExportMask(w io.Writer) error {
	if s.layers == nil {
		s.log.Warn("mask export requested with no layers")
		return ErrNoLayers
	}
	return png.Encode(w, s.layers.Mask)
}

// State returns the current stroke state.
func (s *Session) State() State { return s.state }

// Enabled reports whether pointer input is accepted.
func (s *Session) Enabled() bool { return s.state != Disabled }

// Inpainting reports whether mask mode is on.
func (s *Session) Inpainting() bool { return s.inpainting }

// ToolColor returns the configured stroke color.
func (s *Session) ToolColor() color.Color { return s.toolColor }

// ToolSize returns the brush radius.
func (s *Session) ToolSize() float32 { return s.toolSize }

// Model returns the loaded model, or nil.
func (s *Session) Model() *model.Model { return s.model }

// Candidates returns the paintable surfaces in traversal order.
func (s *Session) Candidates() []*model.Surface { return s.candidates }

// ActiveIndex returns the active candidate index, or -1.
func (s *Session) ActiveIndex() int { return s.active }

// Active returns the active surface, or nil.
func (s *Session) Active() *model.Surface {
	if s.active < 0 || s.active >= len(s.candidates) {
		return nil
	}
	return s.candidates[s.active]
}

// Layers returns the active surface's layers, or nil when painting is
// unavailable.
func (s *Session) Layers() *texture.Layers { return s.layers }

// Painted reports whether any paint has been applied since the last clear.
func (s *Session) Painted() bool {
	return s.layers != nil && s.layers.Painted()
}

// StampCount returns the number of stamps applied since the session began.
func (s *Session) StampCount() int { return s.stamps }

// establish creates layers for the active candidate and binds the
// composite as its texture map.
func (s *Session) establish() {
	surf := s.Active()
	if surf == nil {
		return
	}
	if s.opts.DebugHighlight {
		s.applyHighlight()
	}

	var src image.Image
	if surf.Material != nil {
		src = surf.Material.Source
	}
	w, h := s.opts.TextureSize, s.opts.TextureSize
	if src != nil {
		w, h = texture.SizeFor(src)
	}

	layers, err := texture.New(w, h, src)
	if err != nil {
		s.log.Error("texture layer setup failed",
			zap.String("surface", surf.Name),
			zap.Error(err),
		)
		s.layers = nil
		return
	}
	s.layers = layers
	if surf.Material != nil {
		surf.Material.Map = layers.Composite
	}
	s.log.Debug("texture layers ready",
		zap.String("surface", surf.Name),
		zap.Int("width", w),
		zap.Int("height", h),
	)
}

// applyHighlight re-tints the candidates for the current active index.
func (s *Session) applyHighlight() {
	s.clearHighlight()
	if len(s.candidates) > 0 {
		s.highlight = model.Highlight(s.candidates, s.active)
	}
}

// clearHighlight undoes applyHighlight. The garment tint, when set, wins
// over the restored colors.
func (s *Session) clearHighlight() {
	if s.highlight == nil {
		return
	}
	s.highlight.Restore()
	s.highlight = nil
	if s.hasTint {
		for _, surf := range s.candidates {
			if surf.Material != nil {
				surf.Material.Color = s.tint
			}
		}
	}
}

// releaseActive drops the active layers and restores the surface's own
// texture.
func (s *Session) releaseActive() {
	if surf := s.Active(); surf != nil && surf.Material != nil {
		surf.Material.Map = surf.Material.Source
	}
	s.layers = nil
}

func (s *Session) stampColor() color.Color {
	if s.inpainting {
		return texture.MaskEdited
	}
	return s.toolColor
}

func (s *Session) stampAt(ev picking.PointerEvent) {
	surf := s.Active()
	if surf == nil || s.layers == nil || s.cam == nil {
		return
	}
	if s.log.Core().Enabled(zap.DebugLevel) {
		s.surveyHits(ev)
	}

	uv, ok := picking.Resolve(ev, s.vp, s.cam, surf)
	if !ok {
		s.log.Debug("pointer missed active surface",
			zap.Float32("x", ev.X),
			zap.Float32("y", ev.Y),
		)
		return
	}

	s.painter.Stamp(s.layers, uv, s.stampColor(), s.toolSize)
	if surf.Material != nil {
		surf.Material.Map = s.layers.Composite
	}
	s.strokeStamps++
	s.stamps++
}

func (s *Session) surveyHits(ev picking.PointerEvent) {
	if s.model == nil {
		return
	}
	r, ok := picking.RayFor(ev, s.vp, s.cam)
	if !ok {
		return
	}
	for _, h := range picking.SurveyHits(r, s.model.Surfaces()) {
		s.log.Debug("ray hit",
			zap.String("surface", h.Surface.Name),
			zap.Float32("distance", h.Distance),
			zap.Float32("u", h.UV.X),
			zap.Float32("v", h.UV.Y),
		)
	}
}

func (s *Session) finishStroke() {
	if s.state != Stroking {
		return
	}
	s.state = Idle
	summary := StrokeSummary{Stamps: s.strokeStamps, Inpainting: s.inpainting}
	if surf := s.Active(); surf != nil {
		summary.Surface = surf.Name
	}
	s.strokeStamps = 0
	s.log.Debug("stroke finished", zap.Int("stamps", summary.Stamps))
	if s.opts.OnStrokeFinished != nil {
		s.opts.OnStrokeFinished(summary)
	}
}

// cancelStroke ends a stroke without notifying.
func (s *Session) cancelStroke() {
	if s.state == Stroking {
		s.state = Idle
		s.strokeStamps = 0
		s.log.Debug("stroke cancelled")
	}
}
