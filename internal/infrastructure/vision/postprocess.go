package vision

import (
	"fmt"
	"math"
	"slices"

	"texiv-detect/internal/domain/entity"
)

// Postprocessor разбирает выход модели [1, 4+classes, anchors]
type Postprocessor struct {
	Labels      []string
	InputWidth  int
	InputHeight int
}

// NewPostprocessor создаёт постпроцессор для модели 640×640 с метками COCO
func NewPostprocessor() *Postprocessor {
	return &Postprocessor{
		Labels:      entity.CocoLabels,
		InputWidth:  InputWidth,
		InputHeight: InputHeight,
	}
}

// Process декодирует якоря, отбрасывает слабые и применяет NMS.
// Результат упорядочен по убыванию уверенности.
func (p *Postprocessor) Process(raw entity.Tensor, sourceWidth, sourceHeight int, confidenceThreshold, iouThreshold float32) ([]entity.Detection, error) {
	candidates, err := p.decode(raw, sourceWidth, sourceHeight, confidenceThreshold)
	if err != nil {
		return nil, err
	}
	return NonMaxSuppression(candidates, iouThreshold), nil
}

func (p *Postprocessor) decode(raw entity.Tensor, sourceWidth, sourceHeight int, confidenceThreshold float32) ([]entity.Detection, error) {
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model output: %w", err)
	}
	if len(raw.Shape) != 3 || raw.Shape[0] != 1 {
		return nil, fmt.Errorf("unsupported output shape %v, want [1, 4+classes, anchors]", raw.Shape)
	}
	numFeatures := int(raw.Shape[1])
	numAnchors := int(raw.Shape[2])
	numClasses := numFeatures - 4
	if numClasses <= 0 {
		return nil, fmt.Errorf("output shape %v has no class scores", raw.Shape)
	}
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return nil, fmt.Errorf("invalid source size %dx%d", sourceWidth, sourceHeight)
	}

	data := raw.Data
	at := func(feature, anchor int) float32 {
		return data[feature*numAnchors+anchor]
	}

	scaleX := float64(sourceWidth) / float64(p.InputWidth)
	scaleY := float64(sourceHeight) / float64(p.InputHeight)

	detections := make([]entity.Detection, 0, 64)
	for i := 0; i < numAnchors; i++ {
		// при равенстве выигрывает класс с меньшим индексом
		bestID := 0
		bestScore := at(4, i)
		for c := 1; c < numClasses; c++ {
			if score := at(4+c, i); score > bestScore {
				bestScore = score
				bestID = c
			}
		}
		if math.IsNaN(float64(bestScore)) || bestScore < confidenceThreshold {
			continue
		}

		cx := float64(at(0, i))
		cy := float64(at(1, i))
		w := float64(at(2, i))
		h := float64(at(3, i))

		detections = append(detections, entity.Detection{
			ClassID:    bestID,
			ClassName:  entity.LabelFor(p.Labels, bestID),
			Confidence: clampUnit(bestScore),
			Box: clipBox(
				(cx-w/2)*scaleX,
				(cy-h/2)*scaleY,
				w*scaleX,
				h*scaleY,
				sourceWidth,
				sourceHeight,
			),
		})
	}

	return detections, nil
}

// clipBox переводит прямоугольник в целые пиксели и обрезает по границам кадра
func clipBox(x, y, width, height float64, sourceWidth, sourceHeight int) entity.BoundingBox {
	bx := clampInt(truncate(x), 0, sourceWidth)
	by := clampInt(truncate(y), 0, sourceHeight)
	bw := clampInt(truncate(width), 0, sourceWidth-bx)
	bh := clampInt(truncate(height), 0, sourceHeight-by)
	return entity.BoundingBox{X: bx, Y: by, Width: bw, Height: bh}
}

// NonMaxSuppression жадно подавляет пересекающиеся прямоугольники одного класса.
// Кандидат удаляется, если IoU с выбранным строго больше iouThreshold.
func NonMaxSuppression(candidates []entity.Detection, iouThreshold float32) []entity.Detection {
	if len(candidates) == 0 {
		return []entity.Detection{}
	}

	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b entity.Detection) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		default:
			return 0
		}
	})

	threshold := float64(iouThreshold)
	suppressed := make([]bool, len(sorted))
	kept := make([]entity.Detection, 0, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		best := sorted[i]
		kept = append(kept, best)
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].ClassID != best.ClassID {
				continue
			}
			if entity.IoU(best.Box, sorted[j].Box) > threshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

func truncate(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
