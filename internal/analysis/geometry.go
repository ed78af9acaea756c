package analysis

import "math"

// Point 归一化坐标点（x 向右，y 向下）
type Point struct {
	X float64
	Y float64
}

// Polygon 多边形顶点序列（首尾隐式相连）
type Polygon []Point

// Rect 归一化矩形，left/top 为左上角，各分量取值 [0,1]
type Rect struct {
	Left   float64 `json:"left" mapstructure:"left"`
	Top    float64 `json:"top" mapstructure:"top"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// Right 右边界
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom 下边界
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Area 面积，退化矩形返回 0
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Polygon 转换为四边形
func (r Rect) Polygon() Polygon {
	return Polygon{
		{X: r.Left, Y: r.Top},
		{X: r.Right(), Y: r.Top},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.Left, Y: r.Bottom()},
	}
}

// IntersectionArea 两个矩形的交集面积
func IntersectionArea(a, b Rect) float64 {
	return a.Polygon().Intersect(b.Polygon()).Area()
}

// Area 多边形面积（鞋带公式），顶点不足 3 个返回 0
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	return math.Abs(p.signedArea())
}

func (p Polygon) signedArea() float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// Intersect 用凸多边形 clip 裁剪 p（Sutherland-Hodgman），返回交集多边形
// clip 必须是凸多边形，顶点方向不限；退化的 clip 返回空
func (p Polygon) Intersect(clip Polygon) Polygon {
	if len(p) < 3 || len(clip) < 3 {
		return nil
	}
	orient := clip.signedArea()
	if orient == 0 {
		return nil
	}

	out := append(Polygon(nil), p...)
	for i := range clip {
		if len(out) == 0 {
			return nil
		}
		a, b := clip[i], clip[(i+1)%len(clip)]

		in := out
		out = make(Polygon, 0, len(in)+1)
		for k := range in {
			cur := in[k]
			prev := in[(k+len(in)-1)%len(in)]
			curIn := inside(a, b, cur, orient)
			prevIn := inside(a, b, prev, orient)

			switch {
			case curIn && !prevIn:
				out = append(out, edgeCrossing(prev, cur, a, b))
				out = append(out, cur)
			case curIn:
				out = append(out, cur)
			case prevIn:
				out = append(out, edgeCrossing(prev, cur, a, b))
			}
		}
	}
	return out
}

// cross 点 p 相对有向边 a->b 的叉积
func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func inside(a, b, p Point, orient float64) bool {
	c := cross(a, b, p)
	if orient > 0 {
		return c >= 0
	}
	return c <= 0
}

// edgeCrossing 线段 p-q 与直线 a-b 的交点，调用方保证 p、q 位于直线两侧
func edgeCrossing(p, q, a, b Point) Point {
	cp := cross(a, b, p)
	cq := cross(a, b, q)
	t := cp / (cp - cq)
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}
