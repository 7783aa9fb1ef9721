package api

import (
	"context"
	"image"
	"image/color"
	"sync"

	"texiv-detect/internal/domain/entity"
)

type fakeCommands struct {
	mu       sync.Mutex
	status   entity.Status
	frame    entity.ProcessedFrame
	hasFrame bool
	err      error
	calls    []string
}

func (f *fakeCommands) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeCommands) LoadModel(ctx context.Context, path string) error {
	return f.record("load " + path)
}

func (f *fakeCommands) OpenVideo(path string) error {
	return f.record("open " + path)
}

func (f *fakeCommands) Play() error { return f.record("play") }

func (f *fakeCommands) Pause() error { return f.record("pause") }

func (f *fakeCommands) Status() entity.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeCommands) LatestFrame() (entity.ProcessedFrame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.hasFrame
}

func (f *fakeCommands) setFrame() {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasFrame = true
	f.frame = entity.ProcessedFrame{
		Index: 7,
		Image: img,
		Detections: []entity.Detection{{
			ClassID: 0, ClassName: "person", Confidence: 0.87,
			Box: entity.BoundingBox{X: 1, Y: 2, Width: 5, Height: 6},
		}},
	}
}
