package api

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"

	"texiv-detect/internal/domain/entity"
)

// Commands команды управления обработкой, общие для бота и HTTP
type Commands interface {
	LoadModel(ctx context.Context, path string) error
	OpenVideo(path string) error
	Play() error
	Pause() error
	Status() entity.Status
	LatestFrame() (entity.ProcessedFrame, bool)
}

const jpegQuality = 85

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
