package entity

import "fmt"

// Tensor плотный массив float32 с формой в порядке row-major.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor создаёт тензор заданной формы, заполненный нулями
func NewTensor(shape ...int64) Tensor {
	return Tensor{Shape: shape, Data: make([]float32, elements(shape))}
}

// Validate проверяет, что длина данных соответствует форме
func (t Tensor) Validate() error {
	if len(t.Shape) == 0 {
		return fmt.Errorf("tensor has no shape")
	}
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("tensor shape %v has non-positive dimension", t.Shape)
		}
	}
	if want := elements(t.Shape); int64(len(t.Data)) != want {
		return fmt.Errorf("tensor data length %d does not match shape %v (%d)", len(t.Data), t.Shape, want)
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
