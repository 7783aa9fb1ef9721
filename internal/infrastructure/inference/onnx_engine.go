package inference

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

var (
	runtimeMu          sync.Mutex
	runtimeInitialized bool
)

// InitializeRuntime загружает разделяемую библиотеку ONNX Runtime.
// Повторные вызовы ничего не делают.
func InitializeRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeInitialized {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	runtimeInitialized = true
	return nil
}

// DestroyRuntime освобождает окружение ONNX Runtime после закрытия всех сессий
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeInitialized {
		return nil
	}
	runtimeInitialized = false
	return ort.DestroyEnvironment()
}

// ONNXEngine выполняет модель через ONNX Runtime
type ONNXEngine struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	threads int
}

// NewONNXEngine создаёт движок; threads <= 0 означает число CPU
func NewONNXEngine(threads int) *ONNXEngine {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &ONNXEngine{threads: threads}
}

// Load создаёт сессию с полным набором графовых оптимизаций.
// Используются первый вход и первый выход модели.
func (e *ONNXEngine) Load(modelPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return nil
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(e.threads); err != nil {
		return fmt.Errorf("set intra-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return fmt.Errorf("set graph optimization level: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("read model inputs: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return errors.New("model has no inputs or outputs")
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}

	e.session = session
	return nil
}

// Run прогоняет входной тензор; выход выделяется ONNX Runtime и копируется
func (e *ONNXEngine) Run(ctx context.Context, input entity.Tensor) (entity.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return entity.Tensor{}, err
	}
	if err := input.Validate(); err != nil {
		return entity.Tensor{}, fmt.Errorf("invalid input: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return entity.Tensor{}, entity.ErrNotInitialized
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return entity.Tensor{}, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{in}, outputs); err != nil {
		return entity.Tensor{}, err
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return entity.Tensor{}, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	return entity.Tensor{
		Shape: slices.Clone([]int64(out.GetShape())),
		Data:  slices.Clone(out.GetData()),
	}, nil
}

// Close уничтожает сессию; после этого движок можно загрузить снова
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

var _ port.InferenceEngine = (*ONNXEngine)(nil)
