package packet

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleCommands(t *testing.T) {
	tests := []struct {
		name string
		bs   []byte
		code byte
	}{
		{"hello", NewHello(), 0xFF},
		{"screen on", NewScreenOn(), 0x6D},
		{"screen off", NewScreenOff(), 0x6C},
		{"screen white", NewScreenWhite(), 0x66},
		{"screen black", NewScreenBlack(), 0x67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.bs, CommandSize)
			assert.Equal(t, []byte{0, 0, 0, 0, 0}, tt.bs[:5])
			assert.Equal(t, tt.code, tt.bs[5])
		})
	}
}

func TestBrightness(t *testing.T) {
	for level := 1; level <= 100; level++ {
		bs, err := NewBrightness(level)
		require.NoError(t, err)
		require.Len(t, bs, CommandSize)

		inverted := 255 - int(math.Round(float64(level)/100*255))
		assert.Equal(t, byte(inverted>>2), bs[0], "level %d", level)
		assert.Equal(t, byte((inverted&3)<<6), bs[1], "level %d", level)
		assert.Equal(t, []byte{0, 0, 0}, bs[2:5])
		assert.Equal(t, byte(SetLight), bs[5])
	}

	bs, err := NewBrightness(100)
	require.NoError(t, err)
	assert.Equal(t, byte(0), bs[0])

	bs, err = NewBrightness(1)
	require.NoError(t, err)
	assert.Equal(t, byte(252>>2), bs[0])
}

func TestBrightnessOutOfRange(t *testing.T) {
	for _, level := range []int{-1, 0, 101, 255} {
		bs, err := NewBrightness(level)
		assert.Nil(t, bs)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "level %d", level)
	}
}

func TestCoordsRoundTrip(t *testing.T) {
	values := []int{0, 1, 2, 3, 4, 15, 16, 63, 64, 255, 256, 319, 320, 479, 480, 511, 512, 1000, CoordMax}

	bs := make([]byte, CommandSize)
	for _, x := range values {
		for _, y := range values {
			for _, ex := range values {
				for _, ey := range values {
					PackCoords(bs, x, y, ex, ey)
					gx, gy, gex, gey := UnpackCoords(bs)
					if gx != x || gy != y || gex != ex || gey != ey {
						t.Fatalf("round trip %d,%d,%d,%d => %d,%d,%d,%d", x, y, ex, ey, gx, gy, gex, gey)
					}
				}
			}
		}
	}
}

func TestOrientationFrame(t *testing.T) {
	tests := []struct {
		o    Orientation
		w, h uint16
	}{
		{Portrait, 320, 480},
		{ReversePortrait, 320, 480},
		{Landscape, 480, 320},
		{ReverseLandscape, 480, 320},
		{Landscape, 0x1234, 0xABCD},
	}

	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			bs := NewOrientation(tt.o, tt.w, tt.h)
			require.Len(t, bs, OptionSize)
			assert.Equal(t, []byte{0, 0, 0, 0, 0}, bs[:5])
			assert.Equal(t, byte(SetRotate), bs[5])
			assert.Equal(t, tt.o.ID()+100, bs[6])
			assert.Equal(t, []byte{byte(tt.w >> 8), byte(tt.w), byte(tt.h >> 8), byte(tt.h)}, bs[7:11])
			assert.Equal(t, make([]byte, 5), bs[11:])
		})
	}
}

func TestImageHeader(t *testing.T) {
	bs, err := NewImageHeader(112, 32, 256, 256)
	require.NoError(t, err)
	require.Len(t, bs, CommandSize)
	assert.Equal(t, byte(DisplayImage), bs[5])

	x, y, ex, ey := UnpackCoords(bs)
	assert.Equal(t, []int{112, 32, 367, 287}, []int{x, y, ex, ey})

	bs, err = NewImageHeader(0, 0, 480, 320)
	require.NoError(t, err)
	x, y, ex, ey = UnpackCoords(bs)
	assert.Equal(t, []int{0, 0, 479, 319}, []int{x, y, ex, ey})
}

func TestImageHeaderInvalid(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
	}{
		{"zero width", 0, 0, 0, 10},
		{"zero height", 0, 0, 10, 0},
		{"negative x", -1, 0, 10, 10},
		{"end x overflow", CoordMax, 0, 2, 1},
		{"end y overflow", 0, 1000, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImageHeader(tt.x, tt.y, tt.w, tt.h)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestParseOrientation(t *testing.T) {
	for o := Portrait; o <= ReverseLandscape; o++ {
		got, err := ParseOrientation(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	got, err := ParseOrientation(" Landscape ")
	require.NoError(t, err)
	assert.Equal(t, Landscape, got)
	assert.True(t, got.Landscape())
	assert.False(t, ReversePortrait.Landscape())

	_, err = ParseOrientation("sideways")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
