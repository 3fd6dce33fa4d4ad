package source

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/moolex/wallhaven-go/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usbpanel/pkg/device/virtual"
	"usbpanel/pkg/mixer"
	"usbpanel/pkg/packet"
)

type fakePicker struct {
	n    int
	fill byte
	err  error
	prev *Picked
}

func (f *fakePicker) Next(width, height int) (*Picked, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	v := byte(f.n)
	if f.fill != 0 {
		v = f.fill
	}
	pix := make([]byte, width*height*4)
	for i := range pix {
		pix[i] = v
	}
	return &Picked{Wallpaper: &api.Wallpaper{Id: "w"}, Width: width, Height: height, Pixels: pix}, nil
}

func (f *fakePicker) Previous() *Picked {
	return f.prev
}

type fixedSize struct {
	w, h int
}

func (s *fixedSize) Width() int  { return s.w }
func (s *fixedSize) Height() int { return s.h }

func TestBackgroundUpdate(t *testing.T) {
	picker := &fakePicker{}
	bg, err := NewBackground(picker, &fixedSize{2, 2}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bg.Update(context.Background()))
	assert.Equal(t, byte(1), bg.Layer().Pixels()[0])

	// interval not reached
	require.NoError(t, bg.Update(context.Background()))
	assert.Equal(t, 1, picker.n)

	_, err = bg.Next()
	require.NoError(t, err)
	assert.Equal(t, byte(2), bg.Layer().Pixels()[0])

	_, err = bg.Previous()
	assert.Error(t, err)

	picker.prev = &Picked{Width: 2, Height: 2, Pixels: make([]byte, 16)}
	_, err = bg.Previous()
	require.NoError(t, err)
	assert.Equal(t, byte(0), bg.Layer().Pixels()[0])

	picker.prev = &Picked{Width: 2, Height: 2, Pixels: make([]byte, 3)}
	_, err = bg.Previous()
	assert.Error(t, err)
}

func TestBackgroundPickFailure(t *testing.T) {
	picker := &fakePicker{err: errors.New("offline")}
	bg, err := NewBackground(picker, &fixedSize{2, 2}, 0)
	require.NoError(t, err)

	assert.Error(t, bg.Update(context.Background()))
	assert.Equal(t, make([]byte, 16), bg.Layer().Pixels())
}

func TestBackgroundFollowsRotation(t *testing.T) {
	size := &fixedSize{2, 3}
	picker := &fakePicker{}
	bg, err := NewBackground(picker, size, time.Hour)
	require.NoError(t, err)
	require.NoError(t, bg.Update(context.Background()))

	size.w, size.h = 3, 2
	require.NoError(t, bg.Update(context.Background()))
	assert.Equal(t, 2, picker.n)
	_, _, w, h := bg.Layer().BoundingBox()
	assert.Equal(t, []int{3, 2}, []int{w, h})
	assert.Len(t, bg.Layer().Pixels(), 24)

	// a wallpaper fitted to the old orientation is refused
	picker.prev = &Picked{Width: 2, Height: 3, Pixels: make([]byte, 24)}
	_, err = bg.Previous()
	assert.Error(t, err)
	assert.Equal(t, byte(2), bg.Layer().Pixels()[0])
}

func TestBackgroundCoversRotatedPanel(t *testing.T) {
	p := virtual.New(320, 480, zap.NewNop())
	d := mixer.New(p)

	bg, err := NewBackground(&fakePicker{fill: 0xFF}, p, time.Hour)
	require.NoError(t, err)
	d.Register(0, bg.Layer())
	require.NoError(t, bg.Update(context.Background()))
	require.NoError(t, d.RedrawFull())

	require.NoError(t, p.SetOrientation(packet.Landscape))
	require.NoError(t, bg.Update(context.Background()))
	require.NoError(t, d.RedrawFull())

	snap := p.Snapshot()
	assert.Equal(t, 480, snap.Bounds().Dx())
	white := color.RGBAModel.Convert(color.White)
	assert.Equal(t, white, color.RGBAModel.Convert(snap.At(400, 10)))
	assert.Equal(t, white, color.RGBAModel.Convert(snap.At(479, 319)))
}
