//go:build gocv
// +build gocv

package media

import (
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// CaptureSource видеофайл, читаемый через OpenCV
type CaptureSource struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	fps     float64
	frames  int
}

// OpenCapture открывает видеофайл и читает частоту и число кадров из метаданных.
func OpenCapture(path string) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSourceOpenFailed, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", entity.ErrSourceOpenFailed, path)
	}

	return &CaptureSource{
		capture: capture,
		frame:   gocv.NewMat(),
		fps:     capture.Get(gocv.VideoCaptureFPS),
		frames:  int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// Read читает следующий кадр. Конец файла и ошибка чтения дают io.EOF.
// Кадр BGR переводится в RGB при конвертации в image.Image.
func (s *CaptureSource) Read() (image.Image, error) {
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, io.EOF
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecodeFailed, err)
	}
	return img, nil
}

// Rewind перематывает на первый кадр
func (s *CaptureSource) Rewind() error {
	s.capture.Set(gocv.VideoCapturePosFrames, 0)
	return nil
}

// FPS частота кадров из метаданных
func (s *CaptureSource) FPS() float64 {
	return s.fps
}

// FrameCount число кадров из метаданных
func (s *CaptureSource) FrameCount() int {
	return s.frames
}

// Close освобождает захват и буфер кадра
func (s *CaptureSource) Close() error {
	if err := s.frame.Close(); err != nil {
		s.capture.Close()
		return err
	}
	return s.capture.Close()
}

var _ port.VideoSource = (*CaptureSource)(nil)
