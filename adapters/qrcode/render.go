// Package qrcode renders attendance tokens as scannable images.
package qrcode

import (
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge in pixels
const DefaultSize = 256

// Render encodes raw as a PNG QR code with high error correction.
func Render(raw string, size int) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qr.Encode(raw, qr.High, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}
