package vision

import (
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

const (
	boxLineWidth  = 2
	labelFontSize = 14
	labelPadding  = 5
)

// DefaultClassColor цвет для классов вне таблицы
var DefaultClassColor = color.RGBA{R: 255, A: 255}

// classColors фиксированная таблица цветов по имени класса
var classColors = map[string]color.RGBA{
	"person":   {R: 255, G: 128, A: 255},
	"shirt":    {B: 255, A: 255},
	"t-shirt":  {B: 255, A: 255},
	"pants":    {G: 255, A: 255},
	"jeans":    {G: 255, A: 255},
	"dress":    {R: 255, B: 255, A: 255},
	"jacket":   {R: 255, G: 255, A: 255},
	"coat":     {R: 255, G: 255, A: 255},
	"shoes":    {G: 255, B: 255, A: 255},
	"bag":      {R: 128, B: 128, A: 255},
	"handbag":  {R: 128, B: 128, A: 255},
	"backpack": {R: 128, B: 128, A: 255},
}

// ColorForClass возвращает цвет рамки для класса
func ColorForClass(className string) color.RGBA {
	if c, ok := classColors[strings.ToLower(className)]; ok {
		return c
	}
	return DefaultClassColor
}

// Annotator рисует рамки и подписи детекций
type Annotator struct {
	face font.Face
}

// NewAnnotator создаёт аннотатор со шрифтом Go Regular
func NewAnnotator() (*Annotator, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &Annotator{
		face: truetype.NewFace(f, &truetype.Options{Size: labelFontSize}),
	}, nil
}

// Annotate рисует детекции из filter на копии кадра.
// Остальные детекции не отображаются, но и не удаляются из результата.
func (a *Annotator) Annotate(frame image.Image, detections []entity.Detection, filter entity.CategoryFilter) image.Image {
	dc := gg.NewContextForImage(frame)
	dc.SetFontFace(a.face)

	for _, d := range detections {
		if !filter.Contains(d.ClassName) {
			continue
		}
		c := ColorForClass(d.ClassName)
		x := float64(d.Box.X)
		y := float64(d.Box.Y)

		dc.SetColor(c)
		dc.SetLineWidth(boxLineWidth)
		dc.DrawRectangle(x, y, float64(d.Box.Width), float64(d.Box.Height))
		dc.Stroke()

		label := d.Label()
		tw, th := dc.MeasureString(label)

		// подложка подписи над рамкой
		dc.DrawRectangle(x, y-th-2*labelPadding, tw+2*labelPadding, th+2*labelPadding)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawString(label, x+labelPadding, y-labelPadding)
	}

	return dc.Image()
}

var _ port.Annotator = (*Annotator)(nil)
