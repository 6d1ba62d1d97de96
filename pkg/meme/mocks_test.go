package meme

import (
	"github.com/shouni/gemini-meme-kit/pkg/layout"
)

// drawCall は recordingSurface に対する描画呼び出し1回分の記録なのだ。
type drawCall struct {
	op       string
	text     string
	x, y     float64
	baseline layout.Baseline
	width    float64
}

// recordingSurface は描画呼び出しを記録するだけの Surface なのだ。
// 文字幅は1文字あたり charWidth px で計測するのだ。
type recordingSurface struct {
	width, height int
	charWidth     float64
	fontSize      float64
	calls         []drawCall
	fontErr       error
}

func (s *recordingSurface) Size() (int, int) { return s.width, s.height }

func (s *recordingSurface) SetFontSize(size float64) error {
	if s.fontErr != nil {
		return s.fontErr
	}
	s.fontSize = size
	return nil
}

func (s *recordingSurface) MeasureString(str string) float64 {
	return float64(len([]rune(str))) * s.charWidth
}

func (s *recordingSurface) StrokeText(str string, x, y float64, baseline layout.Baseline, width float64) {
	s.calls = append(s.calls, drawCall{op: "stroke", text: str, x: x, y: y, baseline: baseline, width: width})
}

func (s *recordingSurface) FillText(str string, x, y float64, baseline layout.Baseline) {
	s.calls = append(s.calls, drawCall{op: "fill", text: str, x: x, y: y, baseline: baseline})
}

func (s *recordingSurface) callsWith(baseline layout.Baseline) []drawCall {
	var out []drawCall
	for _, c := range s.calls {
		if c.baseline == baseline {
			out = append(out, c)
		}
	}
	return out
}
