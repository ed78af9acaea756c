package annotate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

const (
	glyphWidth  = 7
	glyphHeight = 13
)

// StrokeRect 描边矩形，越界像素忽略
func StrokeRect(img draw.Image, r image.Rectangle, c color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y+t, c)
			img.Set(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X+t, y, c)
			img.Set(r.Max.X-1-t, y, c)
		}
	}
}

// DrawText 在 (x, baseline) 处绘制文字
func DrawText(img draw.Image, x, baseline int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// DrawLabel 带底色的文字标签，尽量放在 anchor 上方
func DrawLabel(img draw.Image, anchor image.Point, text string, fg, bg color.Color) {
	baseline := anchor.Y - 3
	if baseline-glyphHeight < img.Bounds().Min.Y {
		baseline = anchor.Y + glyphHeight
	}
	box := image.Rect(anchor.X, baseline-glyphHeight+2, anchor.X+len(text)*glyphWidth+2, baseline+3)
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)
	DrawText(img, anchor.X+1, baseline, text, fg)
}

// ToPixels 归一化矩形换算为像素矩形
func ToPixels(r analysis.Rect, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(r.Left*w),
		bounds.Min.Y+int(r.Top*h),
		bounds.Min.X+int(r.Right()*w),
		bounds.Min.Y+int(r.Bottom()*h),
	)
}
