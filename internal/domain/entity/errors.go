package entity

import (
	"errors"
	"fmt"
)

// Ошибки инициализации модели
var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelLoad     = errors.New("model load failed")
)

// Ошибки операций
var (
	ErrNotInitialized   = errors.New("detector is not initialized")
	ErrSourceOpenFailed = errors.New("failed to open video source")
	ErrDecodeFailed     = errors.New("failed to decode frame")
	ErrFrameReadFailed  = errors.New("failed to read frame")
)

// Ошибки командного слоя
var (
	ErrModelNotLoaded = errors.New("please load a model first")
	ErrNoVideo        = errors.New("no video is opened")
	ErrInvalidState   = errors.New("invalid session state")
	ErrSessionClosed  = errors.New("session is disposed")
)

// ProcessingError некритичная ошибка одной итерации цикла обработки
type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}
