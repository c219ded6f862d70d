// Package logo stores and processes company logos. Uploads are validated,
// kept verbatim under original/, and rendered into a square transparent PNG
// under processed/ for the listing UI.
package logo

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"

	"jobboard-backend/internal/apperr"
)

// MaxUploadSize bounds the accepted upload body.
const MaxUploadSize = 2 << 20

// ProcessedSize is the square edge of the processed output.
const ProcessedSize = 256

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Manager derives logo paths under a data directory and builds public URLs
// from the API base URL.
type Manager struct {
	dataDir string
	baseURL string
}

func NewManager(dataDir, baseURL string) *Manager {
	return &Manager{dataDir: dataDir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Manager) originalPath(companyID int64) string {
	return filepath.Join(m.dataDir, "company_logos", "original", fmt.Sprintf("%d.png", companyID))
}

func (m *Manager) processedPath(companyID int64) string {
	return filepath.Join(m.dataDir, "company_logos", "processed", fmt.Sprintf("%d.png", companyID))
}

// URL returns the public URL of the processed logo, or "" when none exists.
func (m *Manager) URL(companyID int64) string {
	if _, err := os.Stat(m.processedPath(companyID)); err != nil {
		return ""
	}
	return fmt.Sprintf("%s/static/company_logos/processed/%d.png", m.baseURL, companyID)
}

// StaticRoot returns the directory served under /static.
func (m *Manager) StaticRoot() string {
	return filepath.Join(m.dataDir, "company_logos")
}

// Save validates the upload, decodes it, writes the original and the
// square-fit processed rendition, and returns the public URL.
func (m *Manager) Save(companyID int64, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.BadRequest("empty logo upload")
	}
	if len(data) > MaxUploadSize {
		return "", apperr.BadRequest("logo exceeds the 2 MiB limit")
	}
	if !allowedTypes[strings.ToLower(contentType)] {
		return "", apperr.BadRequest(fmt.Sprintf("unsupported logo type %q", contentType))
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperr.BadRequest("logo is not a decodable image")
	}

	for _, dir := range []string{
		filepath.Dir(m.originalPath(companyID)),
		filepath.Dir(m.processedPath(companyID)),
	} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("logo: mkdir %s: %w", dir, err)
		}
	}

	if err := writePNG(m.originalPath(companyID), src); err != nil {
		return "", err
	}
	if err := writePNG(m.processedPath(companyID), squareFit(src, ProcessedSize)); err != nil {
		return "", err
	}
	return m.URL(companyID), nil
}

// Remove deletes both renditions. Missing files are not an error.
func (m *Manager) Remove(companyID int64) error {
	for _, path := range []string{m.originalPath(companyID), m.processedPath(companyID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("logo: remove %s: %w", path, err)
		}
	}
	return nil
}

// squareFit scales src to fit inside a size×size square, centered on a
// transparent canvas so non-square logos keep their aspect ratio.
func squareFit(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, size, size))
	}

	fitW, fitH := size, size
	if w > h {
		fitH = h * size / w
	} else if h > w {
		fitW = w * size / h
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	x0 := (size - fitW) / 2
	y0 := (size - fitH) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+fitW, y0+fitH), src, b, draw.Over, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("logo: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("logo: encode %s: %w", path, err)
	}
	return f.Close()
}
