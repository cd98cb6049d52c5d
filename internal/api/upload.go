package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"remnant-inventory-backend/internal/store"
)

// maxImageWidth is the bound remnant photos are downscaled to before
// storage; phone uploads are far larger than the dashboard ever renders.
const maxImageWidth = 800

// processImage validates a remnant photo upload and returns the value to
// store on the record: an /uploads/... path in disk mode, or an inlined
// data URI in inline mode. Non-image payloads and files over the configured
// size cap are rejected.
func (h *Handler) processImage(fh *multipart.FileHeader) (string, error) {
	maxBytes := int64(h.uploads.MaxSizeMB) << 20
	if fh.Size > maxBytes {
		return "", fmt.Errorf("%w: image exceeds the %d MB limit", store.ErrInvalidInput, h.uploads.MaxSizeMB)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%w: only JPEG and PNG images are accepted", store.ErrInvalidInput)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	if h.uploads.Mode == "inline" {
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}
	name := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(h.uploads.Dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return "/uploads/" + name, nil
}

// removeStoredImage deletes a disk-stored image when its remnant goes away.
// Inline images live inside the record and need no cleanup.
func (h *Handler) removeStoredImage(stored string) {
	if h.uploads.Mode != "disk" || stored == "" {
		return
	}
	name := filepath.Base(stored)
	os.Remove(filepath.Join(h.uploads.Dir, name))
}
