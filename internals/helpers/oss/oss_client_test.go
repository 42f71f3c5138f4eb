package helper

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	key := ObjectKey("uploads", "libraries/abc/handover-proofs", "My Receipt.PDF", now)

	assert.True(t, strings.HasPrefix(key, "uploads/libraries/abc/handover-proofs/my-receipt_20240506_070809_"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
}

func TestExtractKeyFromPublicURL(t *testing.T) {
	key, err := ExtractKeyFromPublicURL("https://bucket.oss-ap-southeast-5.aliyuncs.com/libraries/x/file.webp")
	require.NoError(t, err)
	assert.Equal(t, "libraries/x/file.webp", key)

	_, err = ExtractKeyFromPublicURL("")
	assert.Error(t, err)
}

func TestConvertToWebP_Downscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := ConvertToWebP(&buf, "scan.png", WebPOptions{MaxW: 100, MaxH: 100, Quality: 70})
	require.NoError(t, err)

	decoded, err := decodeImage(out, "scan.webp")
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestConvertToWebP_Jpeg(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, err := ConvertToWebP(&buf, "id-card.jpg", WebPOptions{})
	require.NoError(t, err)

	decoded, err := decodeImage(out, "id-card.webp")
	require.NoError(t, err)
	assert.Equal(t, 60, decoded.Bounds().Dx())
	assert.Equal(t, 40, decoded.Bounds().Dy())
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		fh      *multipart.FileHeader
		wantErr bool
	}{
		{"nil", nil, true},
		{"too large", &multipart.FileHeader{Filename: "a.png", Size: MaxUploadSize + 1}, true},
		{"bad ext", &multipart.FileHeader{Filename: "a.exe", Size: 10}, true},
		{"pdf ok", &multipart.FileHeader{Filename: "a.pdf", Size: 10}, false},
		{"jpg ok", &multipart.FileHeader{Filename: "a.JPG", Size: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.fh)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
