package qrsvc

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) (image.Image, string) {
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return img, res.GetText()
}

func TestEncoder_Encode(t *testing.T) {
	enc := NewEncoder()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty", content: "", wantErr: true},
		{name: "uuid", content: uuid.New().String()},
		{name: "another uuid", content: "0b7c1f4e-3f1a-4c55-9d0e-5a2f9b7c6d11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := enc.Encode(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			img, text := decode(t, data)
			assert.Equal(t, tt.content, text, "payload must be the bare content")
			assert.Equal(t, DefaultSize, img.Bounds().Dx())
			assert.Equal(t, DefaultSize, img.Bounds().Dy())
		})
	}
}

func TestEncoder_BlackOnWhite(t *testing.T) {
	data, err := NewEncoder(256).Encode("c7a0e6a2-9f0b-4a39-8d1e-2b6f4c0a9e55")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	// quiet zone corner is white
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	var sawBlack bool
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !sawBlack; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r == 0 && g == 0 && b == 0 {
				sawBlack = true
				break
			}
		}
	}
	assert.True(t, sawBlack)
}
