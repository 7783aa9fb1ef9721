package inference

import (
	"fmt"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// New создаёт движок по имени бэкенда
func New(backend string, threads int) (port.InferenceEngine, error) {
	switch backend {
	case "", entity.BackendONNX:
		return NewONNXEngine(threads), nil
	case entity.BackendOpenCV:
		return NewOpenCVEngine(), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", backend)
	}
}
