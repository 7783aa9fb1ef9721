package port

import (
	"context"
	"image"

	"texiv-detect/internal/domain/entity"
)

// ObjectDetector интерфейс детектора объектов
type ObjectDetector interface {
	// Detect находит объекты на кадре; координаты в пикселях кадра
	Detect(ctx context.Context, frame image.Image, confidenceThreshold, iouThreshold float32) ([]entity.Detection, error)
}

// DetectionModel детектор с управляемым временем жизни модели
type DetectionModel interface {
	ObjectDetector

	// InitializeAsync загружает модель в фоне; канал получает результат и закрывается
	InitializeAsync(modelPath string) <-chan error

	// Ready сообщает, загружена ли модель
	Ready() bool

	// Dispose освобождает модель
	Dispose() error
}

// InferenceEngine непрозрачный движок выполнения нейросети
type InferenceEngine interface {
	// Load загружает файл модели
	Load(modelPath string) error

	// Run прогоняет тензор через первый вход модели и возвращает первый выход
	Run(ctx context.Context, input entity.Tensor) (entity.Tensor, error)

	// Close освобождает сессию
	Close() error
}

// Annotator рисует детекции на кадре
type Annotator interface {
	// Annotate возвращает новый кадр; исходный кадр не изменяется
	Annotate(frame image.Image, detections []entity.Detection, filter entity.CategoryFilter) image.Image
}
