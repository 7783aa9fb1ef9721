package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

const (
	// DefaultStopTimeout ограничивает ожидание завершения цикла при остановке
	DefaultStopTimeout = time.Second
	// DefaultFrameDelay пауза между кадрами, если источник не сообщает fps
	DefaultFrameDelay = 33 * time.Millisecond
	// MinFrameDelay нижняя граница паузы при очень большой частоте
	MinFrameDelay = time.Millisecond

	eventBuffer = 8
)

// Session связывает открытый источник кадров и цикл его обработки.
// Команды сериализуются мьютексом; менять состояние может только сама сессия.
type Session struct {
	detector    port.ObjectDetector
	annotator   port.Annotator
	opener      port.VideoOpener
	logger      *zap.Logger
	stopTimeout time.Duration

	events chan entity.Event
	loops  sync.WaitGroup

	mu     sync.Mutex
	state  entity.SessionState
	source port.VideoSource
	path   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession создаёт сессию в состоянии Idle
func NewSession(detector port.ObjectDetector, annotator port.Annotator, opener port.VideoOpener, logger *zap.Logger) *Session {
	return &Session{
		detector:    detector,
		annotator:   annotator,
		opener:      opener,
		logger:      logger,
		stopTimeout: DefaultStopTimeout,
		events:      make(chan entity.Event, eventBuffer),
		state:       entity.StateIdle,
	}
}

// SetStopTimeout меняет ограничение ожидания цикла при остановке
func (s *Session) SetStopTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.stopTimeout = d
	}
}

// Events канал событий цикла. Закрывается после Dispose.
func (s *Session) Events() <-chan entity.Event {
	return s.events
}

// State возвращает текущее состояние
func (s *Session) State() entity.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path возвращает путь открытого источника
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Open останавливает текущий цикл, закрывает прежний источник и открывает новый.
func (s *Session) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == entity.StateClosed {
		return entity.ErrSessionClosed
	}

	s.stopLocked()
	s.releaseSourceLocked()
	s.state = entity.StateIdle

	source, err := s.opener.Open(path)
	if err != nil {
		if !errors.Is(err, entity.ErrSourceOpenFailed) {
			err = fmt.Errorf("%w: %v", entity.ErrSourceOpenFailed, err)
		}
		return err
	}

	s.source = source
	s.path = path
	s.state = entity.StateOpened
	s.logger.Info("video opened",
		zap.String("path", path),
		zap.Float64("fps", source.FPS()),
		zap.Int("frames", source.FrameCount()),
	)
	return nil
}

// Start запускает цикл обработки в отдельной горутине.
// Повторный Start во время работы ничего не делает.
func (s *Session) Start(cfg entity.ProcessingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case entity.StateRunning:
		return nil
	case entity.StateOpened, entity.StatePaused, entity.StateStopped:
	case entity.StateClosed:
		return entity.ErrSessionClosed
	default:
		return fmt.Errorf("%w: start from %s", entity.ErrInvalidState, s.state)
	}

	// цикл, не уложившийся в stopTimeout, ещё держит источник и детектор
	if s.done != nil {
		select {
		case <-s.done:
		default:
			return fmt.Errorf("%w: previous loop is still stopping", entity.ErrInvalidState)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = entity.StateRunning

	loop := &frameLoop{
		source:    s.source,
		detector:  s.detector,
		annotator: s.annotator,
		events:    s.events,
		cfg:       cfg,
		logger:    s.logger,
	}
	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		defer close(done)
		loop.run(ctx)
	}()

	s.logger.Info("processing started", zap.String("path", s.path))
	return nil
}

// Pause останавливает цикл; Start продолжит с текущей позиции.
func (s *Session) Pause() error {
	return s.halt(entity.StatePaused)
}

// Stop останавливает цикл; источник остаётся открытым.
func (s *Session) Stop() error {
	return s.halt(entity.StateStopped)
}

func (s *Session) halt(target entity.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case entity.StateRunning:
		s.stopLocked()
		s.state = target
		s.logger.Info("processing halted", zap.String("state", string(target)))
		return nil
	case entity.StateOpened, entity.StatePaused, entity.StateStopped:
		s.state = target
		return nil
	case entity.StateClosed:
		return entity.ErrSessionClosed
	default:
		return fmt.Errorf("%w: %s from %s", entity.ErrInvalidState, target, s.state)
	}
}

// Dispose останавливает цикл, освобождает источник и закрывает канал событий.
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == entity.StateClosed {
		return nil
	}

	s.stopLocked()
	err := s.releaseSourceLocked()
	s.state = entity.StateClosed

	// канал закрывается только после выхода всех циклов
	go func() {
		s.loops.Wait()
		close(s.events)
	}()
	return err
}

// stopLocked отменяет цикл и ждёт его не дольше stopTimeout
func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil

	select {
	case <-s.done:
	case <-time.After(s.stopTimeout):
		s.logger.Warn("processing loop did not stop in time", zap.Duration("timeout", s.stopTimeout))
	}
}

// releaseSourceLocked закрывает источник. Если цикл ещё работает,
// закрытие откладывается до его завершения.
func (s *Session) releaseSourceLocked() error {
	source := s.source
	done := s.done
	s.source = nil
	s.path = ""
	if source == nil {
		return nil
	}

	if done != nil {
		select {
		case <-done:
		default:
			go func() {
				<-done
				if err := source.Close(); err != nil {
					s.logger.Warn("close video source", zap.Error(err))
				}
			}()
			return nil
		}
	}
	return source.Close()
}

// frameLoop цикл захват → детекция → разметка → доставка
type frameLoop struct {
	source    port.VideoSource
	detector  port.ObjectDetector
	annotator port.Annotator
	events    chan<- entity.Event
	cfg       entity.ProcessingConfig
	logger    *zap.Logger
	index     int64
}

func (l *frameLoop) run(ctx context.Context) {
	delay := FrameDelay(l.source.FPS())
	var prevRewound bool

	for {
		if ctx.Err() != nil {
			return
		}

		rewound, err := l.iterate(ctx)
		if err != nil {
			l.logger.Warn("frame processing failed", zap.Error(err))
			l.deliver(ctx, entity.Event{Kind: entity.EventError, Err: err})
		}
		// после перемотки кадр читается сразу; пустой источник всё равно ждёт паузу
		if rewound && !prevRewound {
			prevRewound = true
			continue
		}
		prevRewound = rewound

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// iterate обрабатывает один кадр. Ошибки и паники превращаются в ProcessingError.
func (l *frameLoop) iterate(ctx context.Context) (rewound bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &entity.ProcessingError{Message: "processing error", Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	frame, err := l.source.Read()
	switch {
	case err == nil && frame != nil:
	case err == nil, errors.Is(err, io.EOF):
		// источник исчерпан: воспроизведение идёт по кругу
		if rerr := l.source.Rewind(); rerr != nil {
			return false, &entity.ProcessingError{
				Message: "processing error",
				Cause:   multierr.Append(entity.ErrFrameReadFailed, rerr),
			}
		}
		return true, nil
	case errors.Is(err, entity.ErrDecodeFailed):
		// битый кадр пропускается
		return false, &entity.ProcessingError{Message: "processing error", Cause: err}
	default:
		cause := multierr.Append(entity.ErrFrameReadFailed, err)
		if rerr := l.source.Rewind(); rerr != nil {
			cause = multierr.Append(cause, rerr)
		}
		return false, &entity.ProcessingError{Message: "processing error", Cause: cause}
	}

	// начатая итерация доводится до конца даже после отмены
	detections, err := l.detector.Detect(context.WithoutCancel(ctx), frame, l.cfg.ConfidenceThreshold, l.cfg.IoUThreshold)
	if err != nil {
		return false, &entity.ProcessingError{Message: "processing error", Cause: err}
	}

	annotated := l.annotator.Annotate(frame, detections, l.cfg.CategoryFilter)

	l.index++
	l.deliver(ctx, entity.Event{
		Kind: entity.EventFrameProcessed,
		Frame: entity.ProcessedFrame{
			Index:      l.index,
			Image:      annotated,
			Detections: detections,
			At:         time.Now(),
		},
	})
	return false, nil
}

// deliver передаёт событие потребителю в порядке обработки.
// Если буфер полон, ждёт потребителя, пока цикл не отменён.
func (l *frameLoop) deliver(ctx context.Context, ev entity.Event) {
	select {
	case l.events <- ev:
		return
	default:
	}

	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}

// FrameDelay пауза между кадрами по частоте источника.
// Неизвестная или нечисловая частота даёт DefaultFrameDelay.
func FrameDelay(fps float64) time.Duration {
	if !(fps > 0) || math.IsInf(fps, 0) {
		return DefaultFrameDelay
	}
	return max(time.Duration(float64(time.Second)/fps), MinFrameDelay)
}
