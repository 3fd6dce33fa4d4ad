package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    Color
	}{
		{"black", 0, 0, 0, 0x0000},
		{"white", 255, 255, 255, 0xFFFF},
		{"red", 255, 0, 0, 0xF800},
		{"green", 0, 255, 0, 0x07E0},
		{"blue", 0, 0, 255, 0x001F},
		{"truncated", 0x07, 0x03, 0x07, 0x0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pack(tt.r, tt.g, tt.b))
			assert.Equal(t, tt.want, Model.Convert(color.RGBA{tt.r, tt.g, tt.b, 255}))
		})
	}
}

func TestEncodeLittleEndian(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})

	assert.Equal(t, []byte{0x00, 0xF8, 0x1F, 0x00}, Encode(img))

	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	nrgba.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	nrgba.Set(1, 0, color.NRGBA{0, 0, 255, 255})
	assert.Equal(t, Encode(img), Encode(nrgba))
}

func TestEncodeSubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.RGBA{255, 255, 255, 255})

	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)
	assert.Equal(t, []byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0}, Encode(sub))
}

func TestWrapAt(t *testing.T) {
	frame, err := Wrap([]byte{0x00, 0xF8, 0xE0, 0x07}, image.Rect(0, 0, 2, 1))
	require.NoError(t, err)

	r, g, b, a := frame.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0, 0, 0xFFFF}, []uint32{r, g, b, a})
	r, g, b, _ = frame.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 0xFFFF, 0}, []uint32{r, g, b})

	_, err = Wrap([]byte{0}, image.Rect(0, 0, 2, 1))
	assert.Error(t, err)
}
