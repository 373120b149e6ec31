package barcode

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// Default render dimensions, sized for common label printers.
const (
	defaultWidth  = 300
	defaultHeight = 80
)

// RenderPNG encodes code as a Code128 barcode and writes a PNG to w.
func RenderPNG(code string, w io.Writer) error {
	bc, err := code128.Encode(code)
	if err != nil {
		return fmt.Errorf("failed to encode barcode: %w", err)
	}
	scaled, err := barcode.Scale(bc, defaultWidth, defaultHeight)
	if err != nil {
		return fmt.Errorf("failed to scale barcode: %w", err)
	}
	return png.Encode(w, scaled)
}

// SavePNG renders code into dir as <code>.png and returns the file path.
// The directory is created if missing.
func SavePNG(code, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create barcode directory: %w", err)
	}
	path := filepath.Join(dir, code+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create barcode file: %w", err)
	}
	defer f.Close()

	if err := RenderPNG(code, f); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
