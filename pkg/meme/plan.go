package meme

import (
	"math"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
	"github.com/shouni/gemini-meme-kit/pkg/layout"
)

const (
	fontDivisor     = 12
	strokeDivisor   = 15
	lineHeightRatio = 1.1
	paddingRatio    = 0.05
	sideMargin      = 40
)

// Metrics はキャンバスサイズから導出される文字描画の寸法です。
// 見た目の仕様として固定で、設定では変更できません。
type Metrics struct {
	Width       int
	Height      int
	FontSize    float64
	StrokeWidth float64
	LineHeight  float64
	Padding     float64
	TextWidth   float64
}

// MetricsFor はキャンバスの幅と高さから Metrics を計算します。
func MetricsFor(width, height int) Metrics {
	fontSize := math.Floor(float64(width) / fontDivisor)
	return Metrics{
		Width:       width,
		Height:      height,
		FontSize:    fontSize,
		StrokeWidth: fontSize / strokeDivisor,
		LineHeight:  fontSize * lineHeightRatio,
		Padding:     float64(height) * paddingRatio,
		TextWidth:   float64(width - sideMargin),
	}
}

// Line は配置済みの1行です。X は行の中心、Y は Baseline が指す位置です。
type Line struct {
	Text     string
	X        float64
	Y        float64
	Baseline layout.Baseline
}

// Plan はキャプションを大文字化して行分割し、各行の描画位置を決めます。
//
// 上段は上端の余白から下へ、下段はブロック全体の高さを先に求めて
// 最終行の下端がちょうど下余白に来るよう配置します。空のスロットは行を生成しません。
func Plan(captions domain.Captions, m Metrics, measure layout.MeasureFunc) []Line {
	upper := captions.Upper()
	centerX := float64(m.Width) / 2

	var lines []Line
	for i, text := range layout.Wrap(upper.TopText, m.TextWidth, measure) {
		lines = append(lines, Line{
			Text:     text,
			X:        centerX,
			Y:        m.Padding + float64(i)*m.LineHeight,
			Baseline: layout.BaselineTop,
		})
	}

	bottom := layout.Wrap(upper.BottomText, m.TextWidth, measure)
	startY := float64(m.Height) - m.Padding - float64(len(bottom)-1)*m.LineHeight
	for i, text := range bottom {
		lines = append(lines, Line{
			Text:     text,
			X:        centerX,
			Y:        startY + float64(i)*m.LineHeight,
			Baseline: layout.BaselineBottom,
		})
	}
	return lines
}
