package imagestore

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecodeImage(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name     string
		in       string
		wantType string
		wantErr  bool
	}{
		{"data url", "data:image/png;base64," + b64, "image/png", false},
		{"data url declared type wins", "data:image/x-icon;base64," + b64, "image/x-icon", false},
		{"bare base64", "  " + b64 + "\n", "image/png", false},
		{"unpadded base64", strings.TrimRight(b64, "="), "image/png", false},
		{"not base64", "%%%", "", true},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world")), "", true},
		{"data url without base64", "data:image/png," + b64, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := DecodeImage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pngBytes, data)
			assert.Equal(t, tt.wantType, ct)
		})
	}
}
