package imagestore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes bounds decoded images.
const MaxImageBytes = 10 << 20

var ErrNotImage = errors.New("payload is not an image")

// DecodeImage accepts a data URL ("data:image/png;base64,...") or bare
// base64 and returns the bytes with their content type.
func DecodeImage(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	declared := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: unsupported data URL", ErrNotImage)
		}
		declared = strings.TrimSuffix(meta, ";base64")
		s = payload
	}

	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageBytes+3 {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrNotImage, MaxImageBytes)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrNotImage, err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	if strings.HasPrefix(declared, "image/") {
		contentType = declared
	}
	return data, contentType, nil
}
