//go:build !gocv
// +build !gocv

package inference

import (
	"context"
	"errors"

	"texiv-detect/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// OpenCVEngine заглушка движка OpenCV dnn (без OpenCV)
type OpenCVEngine struct{}

// NewOpenCVEngine создаёт движок-заглушку.
func NewOpenCVEngine() *OpenCVEngine {
	return &OpenCVEngine{}
}

// Load возвращает ошибку, если сборка без тега gocv.
func (e *OpenCVEngine) Load(modelPath string) error {
	_ = modelPath
	return errNoGoCV
}

// Run возвращает ошибку, если сборка без тега gocv.
func (e *OpenCVEngine) Run(ctx context.Context, input entity.Tensor) (entity.Tensor, error) {
	_ = ctx
	_ = input
	return entity.Tensor{}, errNoGoCV
}

// Close ничего не делает.
func (e *OpenCVEngine) Close() error {
	return nil
}
