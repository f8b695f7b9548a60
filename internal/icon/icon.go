// Package icon 渲染控件的三种外观：播放、停止和加载动画。
//
// 渲染是纯函数：同样的输入总是得到同样的 Drawable，不产生任何副作用。
package icon

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// Shape 表示控件当前应显示的图形。
type Shape int

const (
	// Play 圆环 + 向右的三角形。
	Play Shape = iota
	// Stop 圆环 + 实心方块。
	Stop
	// Loading 旋转的四分之一圆弧。
	Loading
)

var shapeNames = [...]string{
	"play",
	"stop",
	"loading",
}

func (s Shape) String() string {
	if int(s) >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// 所有图形都画在 800x800 的 viewBox 内。
const (
	ViewBox     = 800
	center      = 400
	ringRadius  = 294
	strokeWidth = 12

	playPath    = "M550 400L325 529.904V270.096L550 400Z"
	loadingPath = "M400 700C234.315 700 100 565.685 100 400"

	squareOrigin = 275
	squareSize   = 250

	spinPeriod = "2s"
)

// Drawable 是一次渲染的结果，描述要绘制的图形及其参数。
type Drawable struct {
	Shape  Shape
	Stroke string
	Width  float64
	Height float64
}

// Render 根据图形、描边颜色和分配的尺寸生成 Drawable。
// 负数或 NaN 尺寸按 0 处理，0 尺寸是合法的空图形。
func Render(shape Shape, stroke string, width, height float64) Drawable {
	if shape < Play || shape > Loading {
		shape = Play
	}
	return Drawable{
		Shape:  shape,
		Stroke: stroke,
		Width:  clampSize(width),
		Height: clampSize(height),
	}
}

func clampSize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat32
	}
	return v
}

// HasRing 返回图形是否包含外圈圆环。加载动画只有圆弧。
func (d Drawable) HasRing() bool {
	return d.Shape != Loading
}

// Animated 返回图形是否带有持续旋转动画。
func (d Drawable) Animated() bool {
	return d.Shape == Loading
}

// SVG 将 Drawable 序列化为独立的 SVG 文档。
func (d Drawable) SVG() string {
	stroke := escapeAttr(d.Stroke)

	var b strings.Builder
	b.WriteString(`<svg width="`)
	b.WriteString(formatSize(d.Width))
	b.WriteString(`" height="`)
	b.WriteString(formatSize(d.Height))
	b.WriteString(`" viewBox="0 0 800 800" fill="none" xmlns="http://www.w3.org/2000/svg">`)

	switch d.Shape {
	case Stop:
		writeRing(&b, stroke)
		b.WriteString(`<rect x="` + strconv.Itoa(squareOrigin) + `" y="` + strconv.Itoa(squareOrigin) +
			`" width="` + strconv.Itoa(squareSize) + `" height="` + strconv.Itoa(squareSize) +
			`" fill="` + stroke + `"/>`)
	case Loading:
		b.WriteString(`<g><path d="` + loadingPath + `" stroke="` + stroke +
			`" stroke-width="` + strconv.Itoa(strokeWidth) + `"/>`)
		b.WriteString(`<animateTransform attributeType="xml" attributeName="transform" type="rotate" from="0 400 400" to="360 400 400" dur="` +
			spinPeriod + `" additive="sum" repeatCount="indefinite"/></g>`)
	default:
		writeRing(&b, stroke)
		b.WriteString(`<path d="` + playPath + `" fill="` + stroke + `"/>`)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func writeRing(b *strings.Builder, stroke string) {
	b.WriteString(`<circle cx="` + strconv.Itoa(center) + `" cy="` + strconv.Itoa(center) +
		`" r="` + strconv.Itoa(ringRadius) + `" stroke="` + stroke +
		`" stroke-width="` + strconv.Itoa(strokeWidth) + `"/>`)
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeAttr(s string) string {
	var b strings.Builder
	// strings.Builder 的 Write 不会返回错误
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
