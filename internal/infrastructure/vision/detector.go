package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"go.uber.org/zap"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// Detector владеет моделью и выполняет полный проход
// предобработка → инференс → постобработка.
type Detector struct {
	engine        port.InferenceEngine
	postprocessor *Postprocessor
	logger        *zap.Logger

	initMu    sync.Mutex // сериализует загрузку
	mu        sync.RWMutex
	ready     bool
	modelPath string
}

// NewDetector создаёт детектор поверх движка инференса
func NewDetector(engine port.InferenceEngine, logger *zap.Logger) *Detector {
	return &Detector{
		engine:        engine,
		postprocessor: NewPostprocessor(),
		logger:        logger,
	}
}

// Initialize загружает модель. Повторный вызов после успешной загрузки ничего не делает.
func (d *Detector) Initialize(modelPath string) error {
	d.initMu.Lock()
	defer d.initMu.Unlock()

	if d.Ready() {
		return nil
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", entity.ErrModelNotFound, modelPath)
		}
		return fmt.Errorf("%w: %v", entity.ErrModelLoad, err)
	}

	if err := d.engine.Load(modelPath); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrModelLoad, err)
	}

	d.mu.Lock()
	d.ready = true
	d.modelPath = modelPath
	d.mu.Unlock()

	d.logger.Info("model loaded", zap.String("path", modelPath))
	return nil
}

// InitializeAsync запускает Initialize в отдельной горутине.
// Канал получает ровно одно значение и закрывается.
func (d *Detector) InitializeAsync(modelPath string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- d.Initialize(modelPath)
	}()
	return done
}

// Ready сообщает, загружена ли модель
func (d *Detector) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// ModelPath возвращает путь загруженной модели
func (d *Detector) ModelPath() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modelPath
}

// Detect находит объекты на кадре
func (d *Detector) Detect(ctx context.Context, frame image.Image, confidenceThreshold, iouThreshold float32) ([]entity.Detection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return nil, entity.ErrNotInitialized
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, entity.ErrDecodeFailed
	}

	input := Preprocess(frame, d.postprocessor.InputWidth, d.postprocessor.InputHeight)

	output, err := d.engine.Run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	bounds := frame.Bounds()
	detections, err := d.postprocessor.Process(output, bounds.Dx(), bounds.Dy(), confidenceThreshold, iouThreshold)
	if err != nil {
		return nil, fmt.Errorf("process predictions: %w", err)
	}

	return detections, nil
}

// Dispose освобождает модель; Detect после этого возвращает ErrNotInitialized.
// Ожидает завершения идущих вызовов Detect.
func (d *Detector) Dispose() error {
	d.initMu.Lock()
	defer d.initMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil
	}
	d.ready = false
	d.modelPath = ""
	return d.engine.Close()
}

var _ port.DetectionModel = (*Detector)(nil)
