//go:build gocv
// +build gocv

package inference

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gocv.io/x/gocv"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// OpenCVEngine выполняет ONNX-модель модулем dnn из OpenCV
type OpenCVEngine struct {
	mu     sync.Mutex
	net    gocv.Net
	loaded bool
}

// NewOpenCVEngine создаёт движок OpenCV dnn
func NewOpenCVEngine() *OpenCVEngine {
	return &OpenCVEngine{}
}

// Load читает модель и выбирает CPU-бэкенд
func (e *OpenCVEngine) Load(modelPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return fmt.Errorf("opencv could not read %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return fmt.Errorf("set target: %w", err)
	}

	e.net = net
	e.loaded = true
	return nil
}

// Run копирует тензор в blob, выполняет Forward и копирует первый выход
func (e *OpenCVEngine) Run(ctx context.Context, input entity.Tensor) (entity.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return entity.Tensor{}, err
	}
	if err := input.Validate(); err != nil {
		return entity.Tensor{}, fmt.Errorf("invalid input: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return entity.Tensor{}, entity.ErrNotInitialized
	}

	sizes := make([]int, len(input.Shape))
	for i, d := range input.Shape {
		sizes[i] = int(d)
	}
	blob := gocv.NewMatWithSizes(sizes, gocv.MatTypeCV32F)
	defer blob.Close()

	dst, err := blob.DataPtrFloat32()
	if err != nil {
		return entity.Tensor{}, fmt.Errorf("input blob: %w", err)
	}
	copy(dst, input.Data)

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return entity.Tensor{}, fmt.Errorf("output blob: %w", err)
	}
	dims := out.Size()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}

	return entity.Tensor{Shape: shape, Data: slices.Clone(data)}, nil
}

// Close освобождает сеть
func (e *OpenCVEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return nil
	}
	e.loaded = false
	return e.net.Close()
}

var _ port.InferenceEngine = (*OpenCVEngine)(nil)
