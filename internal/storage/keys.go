package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/terraincognita07/ecgscan/internal/security"
)

var extensionsByContentType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
}

// newObjectKey builds "ecg/2026/03/<random>.png" style keys.
func newObjectKey(contentType string, now time.Time) (string, error) {
	token, err := security.RandomString(20, security.ObjectKeyAlphabet)
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	return path.Join("ecg", now.UTC().Format("2006/01"), token+extensionFor(contentType)), nil
}

func extensionFor(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if extension, ok := extensionsByContentType[mediaType]; ok {
		return extension
	}
	return ".bin"
}
