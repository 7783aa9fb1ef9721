package media

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// DirSource каталог изображений, проигрываемый как видеопоток.
// Кадры идут в лексикографическом порядке имён файлов.
type DirSource struct {
	files []string
	pos   int
	fps   float64
}

// OpenDir собирает в каталоге файлы поддерживаемых форматов
func OpenDir(dir string, fps float64) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSourceOpenFailed, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := imaging.FormatFromFilename(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", entity.ErrSourceOpenFailed, dir)
	}
	sort.Strings(files)

	return &DirSource{files: files, fps: fps}, nil
}

// Read декодирует следующий файл; io.EOF после последнего
func (s *DirSource) Read() (image.Image, error) {
	if s.pos >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.pos]
	s.pos++

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrDecodeFailed, filepath.Base(path), err)
	}
	return img, nil
}

// Rewind возвращается к первому файлу
func (s *DirSource) Rewind() error {
	s.pos = 0
	return nil
}

// FPS заданная при открытии частота
func (s *DirSource) FPS() float64 {
	return s.fps
}

// FrameCount число изображений в каталоге
func (s *DirSource) FrameCount() int {
	return len(s.files)
}

// Close ничего не держит открытым
func (s *DirSource) Close() error {
	return nil
}

var _ port.VideoSource = (*DirSource)(nil)
