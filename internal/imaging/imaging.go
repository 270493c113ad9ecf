// Package imaging decodes uploaded photos and computes the perceptual
// hashes the near-duplicate check relies on.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// Decode parses an uploaded image (JPEG, PNG, GIF or WebP) and returns it
// together with the detected format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// PHash computes a 64-bit perceptual hash of the image.
func PHash(img image.Image) (*goimagehash.ImageHash, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("perceptual hash: %w", err)
	}
	return h, nil
}

// HasNearDuplicate reports whether any two hashes are within maxDistance
// Hamming bits of each other. A maxDistance of 0 only matches identical
// hashes.
func HasNearDuplicate(hashes []*goimagehash.ImageHash, maxDistance int) (bool, error) {
	for i := 0; i < len(hashes); i++ {
		for j := i + 1; j < len(hashes); j++ {
			d, err := hashes[i].Distance(hashes[j])
			if err != nil {
				return false, fmt.Errorf("hash distance: %w", err)
			}
			if d <= maxDistance {
				return true, nil
			}
		}
	}
	return false, nil
}
