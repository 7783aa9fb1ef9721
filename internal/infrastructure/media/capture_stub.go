//go:build !gocv
// +build !gocv

package media

import (
	"errors"
	"fmt"
	"image"

	"texiv-detect/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// CaptureSource заглушка видеозахвата (без OpenCV)
type CaptureSource struct{}

// OpenCapture возвращает ошибку, если сборка без тега gocv.
func OpenCapture(path string) (*CaptureSource, error) {
	_ = path
	return nil, fmt.Errorf("%w: %v", entity.ErrSourceOpenFailed, errNoGoCV)
}

// Read возвращает ошибку, если сборка без тега gocv.
func (s *CaptureSource) Read() (image.Image, error) {
	return nil, errNoGoCV
}

// Rewind возвращает ошибку, если сборка без тега gocv.
func (s *CaptureSource) Rewind() error {
	return errNoGoCV
}

// FPS всегда 0 без OpenCV.
func (s *CaptureSource) FPS() float64 {
	return 0
}

// FrameCount всегда 0 без OpenCV.
func (s *CaptureSource) FrameCount() int {
	return 0
}

// Close ничего не делает.
func (s *CaptureSource) Close() error {
	return nil
}
