package qrsvc

import (
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length, in pixels, of generated images.
const DefaultSize = 512

// Encoder renders black-on-white PNG QR codes with the highest error correction level.
type Encoder struct {
	size int
}

func NewEncoder(size ...int) *Encoder {
	s := DefaultSize
	if len(size) > 0 && size[0] > 0 {
		s = size[0]
	}
	return &Encoder{size: s}
}

// Encode returns a PNG whose payload is exactly content.
func (e *Encoder) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("empty QR code content")
	}
	png, err := qrcode.Encode(content, qrcode.High, e.size)
	if err != nil {
		return nil, errors.Wrap(err, "encoding QR code")
	}
	return png, nil
}
