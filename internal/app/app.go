// Package app runs the interactive garment painting viewer.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/garment-paint/internal/config"
	"github.com/Faultbox/garment-paint/internal/engine/camera"
	"github.com/Faultbox/garment-paint/internal/engine/input"
	"github.com/Faultbox/garment-paint/internal/engine/model"
	"github.com/Faultbox/garment-paint/internal/engine/picking"
	"github.com/Faultbox/garment-paint/internal/engine/renderer"
	"github.com/Faultbox/garment-paint/internal/engine/window"
	"github.com/Faultbox/garment-paint/internal/export"
	"github.com/Faultbox/garment-paint/internal/logger"
	"github.com/Faultbox/garment-paint/internal/session"
)

// App is the viewer instance.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	session  *session.Session
	exporter *export.Writer

	garments []color.RGBA
	garment  int
}

// New creates the window, renderer and painting session and loads the
// model for product.
func New(cfg *config.Config, product string) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Named("app"),
	}
	a.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	toolColor, err := cfg.ToolColor()
	if err != nil {
		return nil, fmt.Errorf("paint color: %w", err)
	}
	background, err := cfg.BackgroundColor()
	if err != nil {
		return nil, fmt.Errorf("background color: %w", err)
	}
	tint, hasTint, err := cfg.GarmentColor()
	if err != nil {
		return nil, fmt.Errorf("garment color: %w", err)
	}
	a.garments, err = cfg.GarmentPalette()
	if err != nil {
		return nil, fmt.Errorf("garment palette: %w", err)
	}
	a.garment = -1

	// Window first: the renderer needs its OpenGL context.
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	fbWidth, fbHeight := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      fbWidth,
		Height:     fbHeight,
		Background: background,
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()

	winWidth, winHeight := a.window.Size()
	a.camera = camera.NewOrbitCamera(1)
	a.camera.SetAspect(winWidth, winHeight)
	a.camera.AutoRotate = cfg.Model.AutoRotate

	a.exporter = export.NewWriter(cfg.Export.OutputDir)
	a.exporter.PaintName = cfg.Export.PaintFile
	a.exporter.MaskName = cfg.Export.MaskFile

	a.session = session.New(session.Options{
		DebugHighlight:   cfg.Paint.DebugHighlight,
		TextureSize:      cfg.Paint.TextureSize,
		CycleKey:         cfg.Paint.CycleKey,
		OnStrokeFinished: a.onStrokeFinished,
	})
	a.session.SetView(a.camera, picking.Viewport{Width: winWidth, Height: winHeight})
	if cfg.Paint.EnableOnStart {
		a.session.Enable(toolColor, cfg.Paint.BrushSize)
	} else {
		a.session.SetToolColor(toolColor)
		a.session.SetToolSize(cfg.Paint.BrushSize)
	}
	if hasTint {
		// Applied to every model the session loads.
		a.session.SetGarmentColor(tint)
	}

	if err := a.LoadProduct(product); err != nil {
		// The viewer stays usable without a model; painting is unavailable.
		a.log.Error("no model loaded", zap.Error(err))
	}

	a.log.Info("viewer initialized")
	return a, nil
}

// LoadProduct loads the model for a product key, falling back to the
// default model when it cannot be loaded.
func (a *App) LoadProduct(product string) error {
	m, path, err := model.LoadFirst(a.cfg.ModelPath(product), a.cfg.FallbackModelPath())
	if err != nil {
		return err
	}
	m.Normalize(a.cfg.Model.TargetSize)
	a.log.Info("model loaded",
		zap.String("product", product),
		zap.String("path", path),
		zap.Int("surfaces", len(m.Surfaces())),
	)

	a.renderer.ReleaseModel()
	a.camera.Reset()
	a.session.SetModel(m)
	a.renderer.SetLiveLayers(a.session.Layers())
	return nil
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting main loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, ev := range a.input.Events() {
			a.handleEvent(ev)
		}

		// 2. Update
		a.camera.Update(float32(dt))

		// 3. Render
		a.renderer.SetLiveLayers(a.session.Layers())
		a.renderer.Begin()
		a.renderer.DrawModel(a.session.Model(), a.camera.ViewProjection())
		a.renderer.End()

		// 4. Present
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

func (a *App) handleEvent(ev input.Event) {
	pointer := picking.PointerEvent{X: ev.X, Y: ev.Y}

	switch ev.Type {
	case input.EventWindowResize:
		w, h := a.window.Size()
		a.camera.SetAspect(w, h)
		a.session.SetView(a.camera, picking.Viewport{Width: w, Height: h})
		a.renderer.Resize(a.window.DrawableSize())

	case input.EventPointerDown:
		if ev.Button == input.ButtonLeft {
			a.session.PointerDown(pointer)
		}

	case input.EventPointerMove:
		if ev.Held(input.ButtonRight) {
			a.camera.HandleDrag(ev.DX, ev.DY)
		}
		a.session.PointerMove(pointer)

	case input.EventPointerUp:
		if ev.Button == input.ButtonLeft {
			a.session.PointerUp(pointer)
		}

	case input.EventPointerLeave:
		a.session.PointerLeave()

	case input.EventWheel:
		a.camera.HandleZoom(ev.WheelY)

	case input.EventKeyDown:
		a.handleKey(ev.Key)
	}
}

func (a *App) handleKey(key string) {
	if a.session.KeyDown(key) {
		return
	}

	switch strings.ToLower(key) {
	case "escape":
		a.running = false
	case "c":
		a.session.ClearAll()
		a.log.Info("painting cleared")
	case "i":
		a.session.SetInpainting(!a.session.Inpainting())
		a.log.Info("inpainting mode", zap.Bool("on", a.session.Inpainting()))
	case "e":
		if a.session.Enabled() {
			a.session.Disable()
		} else {
			a.session.Enable(nil, 0)
		}
		a.log.Info("painting", zap.Bool("enabled", a.session.Enabled()))
	case "g":
		a.nextGarmentColor()
	case "r":
		a.camera.AutoRotate = !a.camera.AutoRotate
	case "p":
		a.save("paint", a.exporter.SavePaint)
	case "m":
		a.save("mask", a.exporter.SaveMask)
	case "f12":
		pixels, w, h := a.renderer.ReadPixels()
		if path, err := a.exporter.SaveFrame(pixels, w, h); err != nil {
			a.log.Error("screenshot failed", zap.Error(err))
		} else {
			a.log.Info("screenshot saved", zap.String("path", path))
		}
	}
}

func (a *App) nextGarmentColor() {
	if len(a.garments) == 0 {
		return
	}
	a.garment = (a.garment + 1) % len(a.garments)
	c := a.garments[a.garment]
	a.session.SetGarmentColor(c)
	a.log.Info("garment color", zap.Uint8("r", c.R), zap.Uint8("g", c.G), zap.Uint8("b", c.B))
}

func (a *App) save(what string, save func(export.LayerSource) (string, error)) {
	path, err := save(a.session)
	switch {
	case errors.Is(err, session.ErrNoLayers):
		a.window.ShowNotice("Nothing to export", "No painting data available yet.")
	case err != nil:
		a.log.Error("export failed", zap.String("layer", what), zap.Error(err))
	default:
		a.log.Info("exported", zap.String("layer", what), zap.String("path", path))
	}
}

func (a *App) onStrokeFinished(s session.StrokeSummary) {
	if s.Stamps == 0 {
		return
	}
	a.log.Info("stroke finished, press M to export the inpainting mask",
		zap.String("surface", s.Surface),
		zap.Int("stamps", s.Stamps),
		zap.Bool("inpainting", s.Inpainting),
	)
}
