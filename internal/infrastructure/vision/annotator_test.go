package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"texiv-detect/internal/domain/entity"
)

func TestColorForClass(t *testing.T) {
	require.Equal(t, classColors["person"], ColorForClass("Person"))
	require.Equal(t, classColors["backpack"], ColorForClass("backpack"))
	require.Equal(t, DefaultClassColor, ColorForClass("car"))
}

func TestAnnotate_DrawsOnlyFilteredClasses(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	black := color.NRGBA{A: 255}
	frame := uniformImage(400, 300, black)

	person := entity.Detection{ClassID: 0, ClassName: "person", Confidence: 0.9,
		Box: entity.BoundingBox{X: 40, Y: 60, Width: 100, Height: 120}}
	car := entity.Detection{ClassID: 2, ClassName: "car", Confidence: 0.8,
		Box: entity.BoundingBox{X: 250, Y: 150, Width: 100, Height: 100}}

	out := a.Annotate(frame, []entity.Detection{person, car}, entity.NewCategoryFilter("person"))
	require.Equal(t, frame.Bounds(), out.Bounds())

	// левая грань рамки person
	r, g, b, _ := out.At(person.Box.X, person.Box.Y+person.Box.Height/2).RGBA()
	require.NotZero(t, r+g+b)

	// car не в фильтре: грань и центр не тронуты
	r, g, b, _ = out.At(car.Box.X, car.Box.Y+car.Box.Height/2).RGBA()
	require.Zero(t, r+g+b)
	r, g, b, _ = out.At(car.Box.X+car.Box.Width/2, car.Box.Y+car.Box.Height/2).RGBA()
	require.Zero(t, r+g+b)

	// подложка подписи над рамкой
	r, g, b, _ = out.At(person.Box.X+2, person.Box.Y-3).RGBA()
	require.NotZero(t, r+g+b)
}

func TestAnnotate_DoesNotMutateInput(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	frame := uniformImage(100, 100, color.NRGBA{A: 255})
	before := make([]byte, len(frame.Pix))
	copy(before, frame.Pix)

	det := entity.Detection{ClassName: "person", Confidence: 0.5,
		Box: entity.BoundingBox{X: 20, Y: 30, Width: 40, Height: 40}}
	out := a.Annotate(frame, []entity.Detection{det}, entity.NewCategoryFilter("person"))

	require.Equal(t, before, frame.Pix)
	require.NotSame(t, image.Image(frame), out)
}

func TestAnnotate_EmptyFilter(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	frame := uniformImage(50, 50, color.NRGBA{A: 255})
	det := entity.Detection{ClassName: "person", Confidence: 0.5,
		Box: entity.BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}}

	out := a.Annotate(frame, []entity.Detection{det}, entity.NewCategoryFilter())
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			r, g, b, _ := out.At(x, y).RGBA()
			require.Zero(t, r+g+b)
		}
	}
}
