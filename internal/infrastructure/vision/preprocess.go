package vision

import (
	"image"

	"github.com/disintegration/imaging"

	"texiv-detect/internal/domain/entity"
)

// Размер входа модели
const (
	InputWidth  = 640
	InputHeight = 640
)

// Preprocess растягивает кадр до width×height (без letterbox) билинейной
// интерполяцией и раскладывает его в тензор [1,3,H,W] с каналами R,G,B
// в диапазоне [0,1].
func Preprocess(frame image.Image, width, height int) entity.Tensor {
	resized := imaging.Resize(frame, width, height, imaging.Linear)

	tensor := entity.NewTensor(1, 3, int64(height), int64(width))
	data := tensor.Data
	channelSize := width * height

	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride:]
		offset := y * width
		for x := 0; x < width; x++ {
			i := offset + x
			p := row[x*4 : x*4+3]
			data[i] = float32(p[0]) / 255.0
			data[channelSize+i] = float32(p[1]) / 255.0
			data[channelSize*2+i] = float32(p[2]) / 255.0
		}
	}

	return tensor
}
