package port

import "image"

// VideoSource открытый источник кадров
type VideoSource interface {
	// Read возвращает следующий кадр; io.EOF, когда кадры закончились
	Read() (image.Image, error)

	// Rewind перематывает источник на первый кадр
	Rewind() error

	// FPS частота кадров из метаданных; 0, если неизвестна
	FPS() float64

	// FrameCount количество кадров из метаданных; 0, если неизвестно
	FrameCount() int

	// Close освобождает источник
	Close() error
}

// VideoOpener открывает источники по пути
type VideoOpener interface {
	Open(path string) (VideoSource, error)
}
