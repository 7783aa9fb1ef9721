package entity

import (
	"fmt"
	"strings"
)

// BoundingBox прямоугольник в пикселях исходного кадра
type BoundingBox struct {
	X      int `json:"x"`      // координата X левого верхнего угла
	Y      int `json:"y"`      // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина области в пикселях
	Height int `json:"height"` // высота области в пикселях
}

// Area возвращает площадь прямоугольника
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// IoU считает отношение пересечения к объединению двух прямоугольников.
// При нулевой площади объединения возвращается 0.
func IoU(a, b BoundingBox) float64 {
	x1 := maxInt(a.X, b.X)
	y1 := maxInt(a.Y, b.Y)
	x2 := minInt(a.X+a.Width, b.X+b.Width)
	y2 := minInt(a.Y+a.Height, b.Y+b.Height)

	intersection := maxInt(0, x2-x1) * maxInt(0, y2-y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Detection найденный на кадре объект
type Detection struct {
	ClassID    int         `json:"class_id"`   // индекс класса в выходе модели
	ClassName  string      `json:"class_name"` // имя класса из набора меток
	Confidence float32     `json:"confidence"` // уверенность в диапазоне [0,1]
	Box        BoundingBox `json:"box"`        // прямоугольник в координатах исходного кадра
}

// Label возвращает подпись вида "person: 87%".
func (d Detection) Label() string {
	return fmt.Sprintf("%s: %.0f%%", d.ClassName, float64(d.Confidence)*100)
}

// CategoryFilter набор классов, которые отображаются на кадре
type CategoryFilter map[string]struct{}

// NewCategoryFilter создаёт фильтр; имена приводятся к нижнему регистру.
func NewCategoryFilter(names ...string) CategoryFilter {
	f := make(CategoryFilter, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f[name] = struct{}{}
	}
	return f
}

// Contains проверяет класс без учёта регистра
func (f CategoryFilter) Contains(name string) bool {
	_, ok := f[strings.ToLower(name)]
	return ok
}

// DefaultCategories классы, которые подсвечиваются по умолчанию
var DefaultCategories = []string{"person", "backpack", "umbrella", "handbag", "tie", "suitcase"}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
