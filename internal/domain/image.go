// Package domain contains core business types and interfaces.
//
// This file defines the Image domain type produced by the image pipeline
// and the per-purpose processing presets.
package domain

import (
	"encoding/base64"
	"strings"
)

// =============================================================================
// Image Purpose
// =============================================================================

// ImagePurpose selects the processing preset for an upload.
type ImagePurpose string

const (
	ImagePurposeFood   ImagePurpose = "food"
	ImagePurposeChat   ImagePurpose = "chat"
	ImagePurposeRecipe ImagePurpose = "recipe"
	ImagePurposeAvatar ImagePurpose = "avatar"
)

// ImagePreset is the bounding box and JPEG quality for a purpose.
type ImagePreset struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// ImagePresets maps purposes to their processing presets.
var ImagePresets = map[ImagePurpose]ImagePreset{
	ImagePurposeFood:   {MaxWidth: 1920, MaxHeight: 1920, Quality: 85},
	ImagePurposeChat:   {MaxWidth: 1280, MaxHeight: 1280, Quality: 85},
	ImagePurposeRecipe: {MaxWidth: 1280, MaxHeight: 1280, Quality: 80},
	ImagePurposeAvatar: {MaxWidth: 400, MaxHeight: 400, Quality: 75},
}

// PresetFor returns the preset for a purpose, defaulting to food.
func PresetFor(p ImagePurpose) ImagePreset {
	if preset, ok := ImagePresets[p]; ok {
		return preset
	}
	return ImagePresets[ImagePurposeFood]
}

// =============================================================================
// Image Constants
// =============================================================================

// SupportedImageTypes maps accepted upload MIME types to their names.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
	"image/webp": "WebP",
	"image/bmp":  "BMP",
	"image/tiff": "TIFF",
}

const (
	// FreeUploadLimit is the raw size ceiling for non-pro uploads (25MB).
	FreeUploadLimit = 25 * 1024 * 1024

	// MaxUploadSize is the hard ceiling for any upload, pro included (50MB).
	MaxUploadSize = 50 * 1024 * 1024

	// MaxImagePixels caps width*height before a full decode (50 megapixels).
	MaxImagePixels = 50_000_000

	// OutputContentType is the single format every processed image is stored as.
	OutputContentType = "image/jpeg"
)

// =============================================================================
// Image Domain Type
// =============================================================================

// Image is a processed picture owned by a food entry, recipe or avatar.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// IsEmpty returns true when there is no image data.
func (i *Image) IsEmpty() bool {
	return i == nil || len(i.Data) == 0
}

// DataURI serializes the image as data:<content-type>;base64,<payload>.
func (i *Image) DataURI() string {
	if i.IsEmpty() {
		return ""
	}
	return DataURI(i.ContentType, i.Data)
}

// DataURI wraps raw bytes as an inline data string.
// Returns an empty string when there is nothing to wrap.
func DataURI(contentType string, data []byte) string {
	if len(data) == 0 || contentType == "" {
		return ""
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 payload that may carry a data: prefix.
// The returned content type is empty when the payload had no prefix.
func ParseDataURI(s string) (contentType string, data []byte, err error) {
	const op = "image.parse_data_uri"

	payload := strings.TrimSpace(s)
	if payload == "" {
		return "", nil, Invalid(op, "Image data is required")
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return "", nil, Invalid(op, "Malformed data URI")
		}
		meta := payload[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, Invalid(op, "Data URI must be base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, Wrap(err, EINVALID, op, "Image data is not valid base64")
	}
	if len(data) == 0 {
		return "", nil, Invalid(op, "Image file is empty")
	}
	return contentType, data, nil
}

// =============================================================================
// Validation Helpers
// =============================================================================

// IsValidImageContentType checks if the content type is supported.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateUploadSize applies the free-tier ceiling. Pro users are exempt.
func ValidateUploadSize(size int64, isPro bool) error {
	const op = "image.validate"

	if size <= 0 {
		return Invalid(op, "Image file is empty")
	}
	if !isPro && size > FreeUploadLimit {
		return PayloadTooLarge(op, size, FreeUploadLimit)
	}
	if size > MaxUploadSize {
		return PayloadTooLarge(op, size, MaxUploadSize)
	}
	return nil
}
