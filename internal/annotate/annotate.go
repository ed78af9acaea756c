package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

var (
	ZoneColor      = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	PlacedColor    = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	MisplacedColor = color.NRGBA{R: 230, G: 0, B: 0, A: 255}
	textColor      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotator 在原图上标注期望区域与检测结果
type Annotator struct {
	quality int
}

// New 创建标注器，quality 为 JPEG 质量
func New(quality int) *Annotator {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Annotator{quality: quality}
}

// Annotate 解码 JPEG、绘制并重新编码
func (a *Annotator) Annotate(src []byte, p *analysis.Planogram, r *analysis.AnalysisResult) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	canvas := Render(img, p, r)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(a.quality)); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

// Render 返回标注后的图像副本
// 区域蓝色细线，在位检测绿色，错位检测红色并标注 MISPLACED
func Render(img image.Image, p *analysis.Planogram, r *analysis.AnalysisResult) *image.NRGBA {
	canvas := imaging.Clone(img)
	bounds := canvas.Bounds()

	for _, z := range p.Zones() {
		rect := ToPixels(z.Rect, bounds)
		StrokeRect(canvas, rect, ZoneColor, 1)
		DrawLabel(canvas, rect.Min, z.Label+" zone", textColor, ZoneColor)
	}

	for _, d := range r.CorrectlyPlaced {
		rect := ToPixels(d.Box, bounds)
		StrokeRect(canvas, rect, PlacedColor, 2)
		DrawLabel(canvas, rect.Min, label(d), textColor, PlacedColor)
	}

	for _, d := range r.Misplaced {
		rect := ToPixels(d.Box, bounds)
		StrokeRect(canvas, rect, MisplacedColor, 2)
		DrawLabel(canvas, rect.Min, label(d), textColor, MisplacedColor)
		DrawLabel(canvas, image.Pt(rect.Min.X, rect.Max.Y+glyphHeight+3), "MISPLACED", textColor, MisplacedColor)
	}

	return canvas
}

func label(d analysis.Detection) string {
	return fmt.Sprintf("%s: %.1f%%", d.Label, d.Confidence*100)
}
