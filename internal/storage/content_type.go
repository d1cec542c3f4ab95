package storage

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// =============================================================================
// Content Type Detection
// =============================================================================

const defaultContentType = "application/octet-stream"

// DetectContentType determines the MIME type of a blob.
//
// Detection priority:
// 1. Sniff the content (client-declared types are not trusted)
// 2. Fall back to the file extension
// 3. Fall back to "application/octet-stream"
func DetectContentType(data []byte, filename string) string {
	if len(data) > 0 {
		if m := mimetype.Detect(data); m != nil && m.String() != defaultContentType {
			return BaseType(m.String())
		}
	}

	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return BaseType(contentType)
		}
	}

	return defaultContentType
}

// BaseType strips parameters and normalizes case: "Image/JPEG; q=1" -> "image/jpeg".
func BaseType(contentType string) string {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	if baseType == "image/jpg" {
		return "image/jpeg"
	}
	return baseType
}
