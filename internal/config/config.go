// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Paint   PaintConfig   `yaml:"paint"`
	Model   ModelConfig   `yaml:"model"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Background string `yaml:"background"` // hex color
}

// PaintConfig holds brush and painting settings.
type PaintConfig struct {
	Color          string  `yaml:"color"` // hex color
	Alpha          float64 `yaml:"alpha"`
	BrushSize      float32 `yaml:"brush_size"`
	TextureSize    int     `yaml:"texture_size"` // used when a surface has no texture
	DebugHighlight bool    `yaml:"debug_highlight"`
	CycleKey       string  `yaml:"cycle_key"`
	EnableOnStart  bool    `yaml:"enable_on_start"`

	// GarmentColor tints the whole model on load; empty keeps its materials.
	GarmentColor string `yaml:"garment_color"`
	// GarmentColors is the tint palette cycled by the garment color key.
	GarmentColors []string `yaml:"garment_colors"`
}

// ModelConfig holds garment model settings.
type ModelConfig struct {
	Dir            string            `yaml:"dir"`
	Products       map[string]string `yaml:"products"` // product key -> model file
	DefaultProduct string            `yaml:"default_product"`
	DefaultFile    string            `yaml:"default_file"`
	Path           string            `yaml:"path"` // explicit model file, overrides product
	TargetSize     float32           `yaml:"target_size"`
	AutoRotate     bool              `yaml:"auto_rotate"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	PaintFile string `yaml:"paint_file"`
	MaskFile  string `yaml:"mask_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Garment Paint",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Background: "#e5e5e5",
		},
		Paint: PaintConfig{
			Color:          "#6366f1",
			Alpha:          0.7,
			BrushSize:      30,
			TextureSize:    1024,
			DebugHighlight: false,
			CycleKey:       "n",
			EnableOnStart:  true,
			GarmentColor:   "",
			GarmentColors: []string{
				"#ffffff", "#1f2937", "#9ca3af", "#1e3a8a", "#7f1d1d", "#166534",
			},
		},
		Model: ModelConfig{
			Dir: "models",
			Products: map[string]string{
				"regular-tshirt":   "3d-basic-t-shirt.glb",
				"oversized-tshirt": "3d-basic-t-shirt.glb",
				"cropped-tshirt":   "3d-cropped-boxy-t-shirt.glb",
				"sweatshirt":       "3d-oversized-sweatshirt.glb",
				"hoodie":           "3d-oversized-hoodie.glb",
				"zip-hoodie":       "3d-oversized-zip-hoodie.glb",
				"polo":             "3d-oversized-polo-t-shirt.glb",
			},
			DefaultProduct: "regular-tshirt",
			DefaultFile:    "3d-basic-t-shirt.glb",
			TargetSize:     2.5,
			AutoRotate:     true,
		},
		Export: ExportConfig{
			OutputDir: ".",
			PaintFile: "painted-shirt.png",
			MaskFile:  "inpainting-mask.png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ModelPath returns the file to load for a product key. An explicit Path
// wins; unknown or empty products map to the default product, and finally
// to DefaultFile.
func (c *Config) ModelPath(product string) string {
	if c.Model.Path != "" {
		return c.Model.Path
	}
	if product == "" {
		product = c.Model.DefaultProduct
	}
	file, ok := c.Model.Products[product]
	if !ok {
		file = c.Model.DefaultFile
	}
	return filepath.Join(c.Model.Dir, file)
}

// FallbackModelPath returns the model loaded when the requested one fails.
func (c *Config) FallbackModelPath() string {
	return filepath.Join(c.Model.Dir, c.Model.DefaultFile)
}

// ToolColor returns the configured paint color with its alpha.
func (c *Config) ToolColor() (color.NRGBA, error) {
	return ParseColor(c.Paint.Color, c.Paint.Alpha)
}

// BackgroundColor returns the opaque clear color.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	return ParseColor(c.Window.Background, 1)
}

// GarmentColor returns the configured garment tint. ok is false when no
// tint is configured.
func (c *Config) GarmentColor() (tint color.RGBA, ok bool, err error) {
	if c.Paint.GarmentColor == "" {
		return color.RGBA{}, false, nil
	}
	n, err := ParseColor(c.Paint.GarmentColor, 1)
	if err != nil {
		return color.RGBA{}, false, err
	}
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 255}, true, nil
}

// GarmentPalette returns the opaque tints cycled by the garment color key.
func (c *Config) GarmentPalette() ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(c.Paint.GarmentColors))
	for _, hex := range c.Paint.GarmentColors {
		n, err := ParseColor(hex, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, color.RGBA{R: n.R, G: n.G, B: n.B, A: 255})
	}
	return out, nil
}

// ParseColor parses a "#rrggbb" or "#rgb" hex string and applies alpha in
// [0, 1].
func ParseColor(hex string, alpha float64) (color.NRGBA, error) {
	if alpha < 0 || alpha > 1 {
		return color.NRGBA{}, fmt.Errorf("alpha %v outside [0, 1]", alpha)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parsing color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}, nil
}

// Validate checks the settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if _, err := c.BackgroundColor(); err != nil {
		errs = append(errs, fmt.Errorf("window.background: %w", err))
	}
	if _, err := c.ToolColor(); err != nil {
		errs = append(errs, fmt.Errorf("paint: %w", err))
	}
	if _, _, err := c.GarmentColor(); err != nil {
		errs = append(errs, fmt.Errorf("paint.garment_color: %w", err))
	}
	if _, err := c.GarmentPalette(); err != nil {
		errs = append(errs, fmt.Errorf("paint.garment_colors: %w", err))
	}
	if c.Paint.BrushSize <= 0 {
		errs = append(errs, fmt.Errorf("paint.brush_size %v must be positive", c.Paint.BrushSize))
	}
	if c.Paint.TextureSize <= 0 {
		errs = append(errs, fmt.Errorf("paint.texture_size %d must be positive", c.Paint.TextureSize))
	}
	if c.Paint.CycleKey == "" {
		errs = append(errs, errors.New("paint.cycle_key is empty"))
	}
	if c.Model.TargetSize <= 0 {
		errs = append(errs, fmt.Errorf("model.target_size %v must be positive", c.Model.TargetSize))
	}
	return errors.Join(errs...)
}
