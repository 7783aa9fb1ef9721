package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// Тексты статуса
const (
	StatusReady          = "Ready. Loading YOLO model..."
	StatusNoModel        = "No model found. Please use 'Load Model' to select a YOLO model file."
	StatusLoadModelFirst = "Please load a YOLO model first!"
	StatusOpeningVideo   = "Opening video..."
	StatusProcessing     = "Processing video with YOLO detection..."
	StatusPaused         = "Paused"
)

// Controller обрабатывает команды пользователя и события цикла обработки
type Controller struct {
	model   port.DetectionModel
	session *Session
	frames  port.FrameStore
	cfg     entity.ProcessingConfig
	logger  *zap.Logger

	notifyMu  sync.RWMutex
	notifiers []port.Notifier

	mu        sync.RWMutex
	status    entity.Status
	modelPath string
}

// NewController создаёт контроллер
func NewController(model port.DetectionModel, session *Session, frames port.FrameStore, cfg entity.ProcessingConfig, logger *zap.Logger) *Controller {
	return &Controller{
		model:   model,
		session: session,
		frames:  frames,
		cfg:     cfg,
		logger:  logger,
		status: entity.Status{
			Message:   StatusReady,
			State:     entity.StateIdle,
			UpdatedAt: time.Now(),
		},
	}
}

// AddNotifier подключает получателя уведомлений об ошибках
func (c *Controller) AddNotifier(n port.Notifier) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notifiers = append(c.notifiers, n)
}

// LoadModel загружает модель. Если загружена другая модель, обработка
// ставится на паузу и прежняя модель освобождается.
func (c *Controller) LoadModel(ctx context.Context, path string) error {
	c.mu.RLock()
	current := c.modelPath
	c.mu.RUnlock()

	if c.model.Ready() && current == path {
		return nil
	}

	c.setMessage(fmt.Sprintf("Loading model: %s...", filepath.Base(path)))

	if c.model.Ready() {
		if err := c.session.Pause(); err != nil && !errors.Is(err, entity.ErrInvalidState) {
			return err
		}
		if err := c.model.Dispose(); err != nil {
			c.logger.Warn("dispose model", zap.Error(err))
		}
	}

	done := c.model.InitializeAsync(path)
	select {
	case err := <-done:
		return c.applyLoad(path, err)
	case <-ctx.Done():
		// загрузка продолжается; её результат попадёт в статус по завершении
		go func() {
			_ = c.applyLoad(path, <-done)
		}()
		return ctx.Err()
	}
}

// applyLoad записывает результат загрузки модели в статус
func (c *Controller) applyLoad(path string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.UpdatedAt = time.Now()
	if err != nil {
		c.modelPath = ""
		c.status.ModelLoaded = false
		c.status.ModelPath = ""
		c.status.Message = fmt.Sprintf("Failed to load model: %v", err)
		c.logger.Error("failed to load model", zap.String("path", path), zap.Error(err))
		return err
	}

	c.modelPath = path
	c.status.ModelLoaded = true
	c.status.ModelPath = path
	c.status.Message = fmt.Sprintf("Model loaded: %s", filepath.Base(path))
	return nil
}

// AutoLoad пробует загрузить первую существующую модель из списка
func (c *Controller) AutoLoad(ctx context.Context, candidates ...string) error {
	var errs error
	for _, path := range candidates {
		if path == "" {
			continue
		}
		err := c.LoadModel(ctx, path)
		if err == nil {
			return nil
		}
		errs = multierr.Append(errs, err)
		if !errors.Is(err, entity.ErrModelNotFound) {
			return errs
		}
	}

	c.setMessage(StatusNoModel)
	if errs == nil {
		return entity.ErrModelNotFound
	}
	return errs
}

// OpenVideo открывает источник. Активная обработка останавливается.
func (c *Controller) OpenVideo(path string) error {
	if !c.model.Ready() {
		c.setMessage(StatusLoadModelFirst)
		return entity.ErrModelNotLoaded
	}

	c.setMessage(StatusOpeningVideo)
	if err := c.session.Open(path); err != nil {
		c.recordError(err)
		return err
	}
	c.frames.Reset()

	c.mu.Lock()
	c.status.VideoPath = path
	c.status.FramesProcessed = 0
	c.status.Message = fmt.Sprintf("Video loaded: %s", filepath.Base(path))
	c.status.UpdatedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Play запускает обработку открытого видео
func (c *Controller) Play() error {
	if !c.model.Ready() {
		c.setMessage(StatusLoadModelFirst)
		return entity.ErrModelNotLoaded
	}
	if c.session.Path() == "" {
		return entity.ErrNoVideo
	}

	if err := c.session.Start(c.cfg); err != nil {
		c.recordError(err)
		return err
	}
	c.setMessage(StatusProcessing)
	return nil
}

// Pause ставит обработку на паузу. Без активной обработки ничего не делает.
func (c *Controller) Pause() error {
	if c.session.State() != entity.StateRunning {
		return nil
	}
	if err := c.session.Pause(); err != nil {
		return err
	}
	c.setMessage(StatusPaused)
	return nil
}

// Status возвращает текущий статус
func (c *Controller) Status() entity.Status {
	c.mu.RLock()
	status := c.status
	c.mu.RUnlock()

	status.State = c.session.State()
	return status
}

// LatestFrame последний размеченный кадр
func (c *Controller) LatestFrame() (entity.ProcessedFrame, bool) {
	return c.frames.Latest()
}

// Run разбирает события цикла обработки до отмены контекста или закрытия сессии
func (c *Controller) Run(ctx context.Context) error {
	events := c.session.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev entity.Event) {
	switch ev.Kind {
	case entity.EventFrameProcessed:
		c.frames.Put(ev.Frame)
		c.mu.Lock()
		c.status.FramesProcessed++
		c.mu.Unlock()
	case entity.EventError:
		c.recordError(ev.Err)

		c.notifyMu.RLock()
		notifiers := c.notifiers
		c.notifyMu.RUnlock()
		for _, n := range notifiers {
			n.Notify(ctx, fmt.Sprintf("Error: %v", ev.Err))
		}
	}
}

// Close освобождает сессию и модель
func (c *Controller) Close() error {
	return multierr.Combine(
		c.session.Dispose(),
		c.model.Dispose(),
	)
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Message = msg
	c.status.UpdatedAt = time.Now()
}

func (c *Controller) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Errors++
	c.status.LastError = err.Error()
	c.status.Message = fmt.Sprintf("Error: %v", err)
	c.status.UpdatedAt = time.Now()
}
