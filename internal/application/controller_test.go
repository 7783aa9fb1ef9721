package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/infrastructure/storage"
)

type fakeModel struct {
	fakeDetector

	mu       sync.Mutex
	ready    bool
	loaded   []string
	loadErr  map[string]error
	disposes int
	gate     chan struct{} // если задан, загрузка ждёт его закрытия
}

func (m *fakeModel) InitializeAsync(path string) <-chan error {
	done := make(chan error, 1)
	load := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.loaded = append(m.loaded, path)
		if err := m.loadErr[path]; err != nil {
			done <- err
		} else {
			m.ready = true
			done <- nil
		}
		close(done)
	}
	if m.gate == nil {
		load()
		return done
	}
	go func() {
		<-m.gate
		load()
	}()
	return done
}

func (m *fakeModel) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func (m *fakeModel) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *fakeModel) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	m.disposes++
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

func newTestController(t *testing.T, model *fakeModel, src *fakeSource) *Controller {
	t.Helper()
	opener := &fakeOpener{sources: map[string]*fakeSource{"/videos/clip.mp4": src}}
	session := NewSession(model, passAnnotator{}, opener, zaptest.NewLogger(t))
	c := NewController(model, session, storage.NewMemoryFrameStore(), entity.DefaultProcessingConfig(), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestController_InitialStatus(t *testing.T) {
	c := newTestController(t, &fakeModel{}, &fakeSource{})

	status := c.Status()
	require.Equal(t, StatusReady, status.Message)
	require.Equal(t, entity.StateIdle, status.State)
	require.False(t, status.ModelLoaded)
}

func TestController_GuardsWithoutModel(t *testing.T) {
	c := newTestController(t, &fakeModel{}, &fakeSource{frames: 1})

	require.ErrorIs(t, c.OpenVideo("/videos/clip.mp4"), entity.ErrModelNotLoaded)
	require.Equal(t, StatusLoadModelFirst, c.Status().Message)

	require.ErrorIs(t, c.Play(), entity.ErrModelNotLoaded)
	require.Equal(t, entity.StateIdle, c.Status().State)
}

func TestController_LoadModel(t *testing.T) {
	model := &fakeModel{}
	c := newTestController(t, model, &fakeSource{})

	require.NoError(t, c.LoadModel(context.Background(), "/models/yolo11n.onnx"))
	status := c.Status()
	require.True(t, status.ModelLoaded)
	require.Equal(t, "Model loaded: yolo11n.onnx", status.Message)
	require.Equal(t, "/models/yolo11n.onnx", status.ModelPath)

	// та же модель повторно не загружается
	require.NoError(t, c.LoadModel(context.Background(), "/models/yolo11n.onnx"))
	require.Len(t, model.loaded, 1)

	// другая модель заменяет текущую
	require.NoError(t, c.LoadModel(context.Background(), "/models/yolov8n.onnx"))
	require.Len(t, model.loaded, 2)
	require.Equal(t, 1, model.disposes)
}

func TestController_LoadModelFailure(t *testing.T) {
	model := &fakeModel{loadErr: map[string]error{"/models/broken.onnx": entity.ErrModelLoad}}
	c := newTestController(t, model, &fakeSource{})

	err := c.LoadModel(context.Background(), "/models/broken.onnx")
	require.ErrorIs(t, err, entity.ErrModelLoad)
	status := c.Status()
	require.False(t, status.ModelLoaded)
	require.Contains(t, status.Message, "Failed to load model")
}

func TestController_LoadModelOutlivesCancelledRequest(t *testing.T) {
	model := &fakeModel{gate: make(chan struct{})}
	c := newTestController(t, model, &fakeSource{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.LoadModel(ctx, "/models/yolo11n.onnx")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "Loading model: yolo11n.onnx...", c.Status().Message)

	close(model.gate)
	require.Eventually(t, func() bool {
		return c.Status().ModelLoaded
	}, 2*time.Second, 5*time.Millisecond)

	status := c.Status()
	require.True(t, model.Ready())
	require.Equal(t, "Model loaded: yolo11n.onnx", status.Message)
	require.Equal(t, "/models/yolo11n.onnx", status.ModelPath)

	// повторная загрузка того же файла не перезагружает модель
	require.NoError(t, c.LoadModel(context.Background(), "/models/yolo11n.onnx"))
	require.Equal(t, 1, model.loadCount())
	require.Zero(t, model.disposes)
}

func TestController_AutoLoad(t *testing.T) {
	model := &fakeModel{loadErr: map[string]error{"/missing.onnx": entity.ErrModelNotFound}}
	c := newTestController(t, model, &fakeSource{})

	require.NoError(t, c.AutoLoad(context.Background(), "", "/missing.onnx", "/models/yolo11n.onnx"))
	require.True(t, c.Status().ModelLoaded)
}

func TestController_AutoLoadNothingFound(t *testing.T) {
	model := &fakeModel{loadErr: map[string]error{"/missing.onnx": entity.ErrModelNotFound}}
	c := newTestController(t, model, &fakeSource{})

	err := c.AutoLoad(context.Background(), "/missing.onnx")
	require.ErrorIs(t, err, entity.ErrModelNotFound)
	require.Equal(t, StatusNoModel, c.Status().Message)
}

func TestController_PlayRequiresVideo(t *testing.T) {
	model := &fakeModel{}
	c := newTestController(t, model, &fakeSource{})
	require.NoError(t, c.LoadModel(context.Background(), "/models/yolo11n.onnx"))

	require.ErrorIs(t, c.Play(), entity.ErrNoVideo)
}

func TestController_PlayPauseAndFrames(t *testing.T) {
	model := &fakeModel{}
	src := &fakeSource{frames: 4, fps: 1000}
	c := newTestController(t, model, src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.LoadModel(ctx, "/models/yolo11n.onnx"))
	require.NoError(t, c.OpenVideo("/videos/clip.mp4"))
	require.Equal(t, "Video loaded: clip.mp4", c.Status().Message)
	require.Equal(t, entity.StateOpened, c.Status().State)

	require.NoError(t, c.Play())
	require.Equal(t, StatusProcessing, c.Status().Message)

	require.Eventually(t, func() bool {
		return c.Status().FramesProcessed >= 3
	}, 2*time.Second, 5*time.Millisecond)

	frame, ok := c.LatestFrame()
	require.True(t, ok)
	require.NotNil(t, frame.Image)

	require.NoError(t, c.Pause())
	status := c.Status()
	require.Equal(t, StatusPaused, status.Message)
	require.Equal(t, entity.StatePaused, status.State)

	// пауза без обработки ничего не меняет
	require.NoError(t, c.Pause())
	require.Equal(t, entity.StatePaused, c.Status().State)
}

func TestController_ErrorsUpdateStatusAndNotify(t *testing.T) {
	model := &fakeModel{}
	model.detect = func(call int32) ([]entity.Detection, error) {
		return nil, errors.New("tensor mismatch")
	}
	src := &fakeSource{frames: 4, fps: 1000}
	c := newTestController(t, model, src)
	notifier := &recordingNotifier{}
	c.AddNotifier(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.LoadModel(ctx, "/models/yolo11n.onnx"))
	require.NoError(t, c.OpenVideo("/videos/clip.mp4"))
	require.NoError(t, c.Play())

	require.Eventually(t, func() bool {
		return notifier.count() > 0 && strings.HasPrefix(c.Status().Message, "Error: ")
	}, 2*time.Second, 5*time.Millisecond)

	status := c.Status()
	require.Positive(t, status.Errors)
	require.Contains(t, status.LastError, "tensor mismatch")
	require.Equal(t, entity.StateRunning, status.State)
}

func TestController_RunStopsWhenSessionDisposed(t *testing.T) {
	c := newTestController(t, &fakeModel{}, &fakeSource{})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	require.NoError(t, c.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
