package media

import (
	"fmt"
	"os"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// Opener выбирает источник по пути: каталог изображений или видеофайл
type Opener struct {
	FrameDirFPS float64 // частота для каталогов изображений
}

// NewOpener создаёт открыватель источников
func NewOpener(frameDirFPS float64) *Opener {
	return &Opener{FrameDirFPS: frameDirFPS}
}

// Open открывает источник кадров
func (o *Opener) Open(path string) (port.VideoSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSourceOpenFailed, err)
	}

	if info.IsDir() {
		src, err := OpenDir(path, o.FrameDirFPS)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := OpenCapture(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

var _ port.VideoOpener = (*Opener)(nil)
