// Package export writes painted layers and viewer frames to disk as PNG.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Default file names.
const (
	DefaultPaintName   = "painted-shirt.png"
	DefaultMaskName    = "inpainting-mask.png"
	DefaultFramePrefix = "garment"
)

// LayerSource encodes the paint and mask layers.
type LayerSource interface {
	ExportPaint(w io.Writer) error
	ExportMask(w io.Writer) error
}

// Writer saves exports into OutputDir.
type Writer struct {
	OutputDir   string
	PaintName   string
	MaskName    string
	FramePrefix string

	now func() time.Time
}

// NewWriter creates a writer with the default file names.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		OutputDir:   outputDir,
		PaintName:   DefaultPaintName,
		MaskName:    DefaultMaskName,
		FramePrefix: DefaultFramePrefix,
		now:         time.Now,
	}
}

// SavePaint writes the paint layer and returns the file path. Nothing is
// written when the source has no data.
func (w *Writer) SavePaint(src LayerSource) (string, error) {
	return w.save(w.PaintName, src.ExportPaint)
}

// SaveMask writes the mask layer and returns the file path.
func (w *Writer) SaveMask(src LayerSource) (string, error) {
	return w.save(w.MaskName, src.ExportMask)
}

func (w *Writer) save(name string, encode func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return "", err
	}
	path, err := w.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// SaveFrame writes a framebuffer readback as a timestamped PNG.
// pixels should be in RGBA format with width*height*4 bytes.
// The image is flipped vertically since OpenGL has origin at bottom-left.
func (w *Writer) SaveFrame(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}

	return w.save(w.FrameName(), func(out io.Writer) error {
		return png.Encode(out, img)
	})
}

// FrameName returns the file name the next frame capture would use.
func (w *Writer) FrameName() string {
	now := time.Now
	if w.now != nil {
		now = w.now
	}
	return fmt.Sprintf("%s_%s.png", w.FramePrefix, now().Format("2006-01-02_15-04-05"))
}

func (w *Writer) path(name string) (string, error) {
	if w.OutputDir == "" {
		return name, nil
	}
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	return filepath.Join(w.OutputDir, name), nil
}
