package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPreprocess_ShapeAndRange(t *testing.T) {
	img := uniformImage(32, 18, color.NRGBA{R: 255, G: 0, B: 51, A: 255})

	tensor := Preprocess(img, 16, 8)
	require.Equal(t, []int64{1, 3, 8, 16}, tensor.Shape)
	require.NoError(t, tensor.Validate())

	channelSize := 16 * 8
	for i := 0; i < channelSize; i++ {
		require.InDelta(t, 1.0, tensor.Data[i], 1e-6)
		require.InDelta(t, 0.0, tensor.Data[channelSize+i], 1e-6)
		require.InDelta(t, 0.2, tensor.Data[2*channelSize+i], 1e-6)
	}
}

func TestPreprocess_ChannelMajorLayout(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	tensor := Preprocess(img, 2, 1)
	require.Equal(t, []float32{
		1, 0, // R
		0, 0, // G
		0, 1, // B
	}, tensor.Data)
}

func TestPreprocess_StretchesWithoutLetterbox(t *testing.T) {
	img := uniformImage(64, 16, color.NRGBA{G: 255, A: 255})

	tensor := Preprocess(img, 8, 8)
	channelSize := 8 * 8
	for i := 0; i < channelSize; i++ {
		// без полей: каждый пиксель зелёный
		require.InDelta(t, 1.0, tensor.Data[channelSize+i], 1e-6)
	}
}
