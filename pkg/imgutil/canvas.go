package imgutil

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
	"github.com/shouni/gemini-meme-kit/pkg/layout"
)

// memeFont は全処理で共有する読み取り専用のフォントです。
var memeFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

var (
	fillColor    = image.NewUniform(color.White)
	outlineColor = image.NewUniform(color.Black)
)

// Canvas はリサイズ済み画像にキャプションを描くためのサーフェスです。
// 1回の描画処理だけが所有し、終了時に Close します。
type Canvas struct {
	img  *image.NRGBA
	face font.Face
}

// NewCanvas は img を描画先とする Canvas を作成します。
func NewCanvas(img *image.NRGBA) *Canvas {
	return &Canvas{img: img}
}

// Image は描画結果を返します。
func (c *Canvas) Image() image.Image { return c.img }

// Size はサーフェスの幅と高さを返します。
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// SetFontSize は以降の計測と描画に使うフォントサイズ（px）を設定します。
func (c *Canvas) SetFontSize(size float64) error {
	f, err := memeFont()
	if err != nil {
		return fmt.Errorf("%w: font parse: %v", domain.ErrSurface, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return fmt.Errorf("%w: font face: %v", domain.ErrSurface, err)
	}
	if c.face != nil {
		_ = c.face.Close()
	}
	c.face = face
	return nil
}

// MeasureString は現在のフォントでの s の描画幅を返します。
func (c *Canvas) MeasureString(s string) float64 {
	if c.face == nil {
		return 0
	}
	return fromFixed(font.MeasureString(c.face, s))
}

// StrokeText は (x, y) を中心基準とした黒い縁取りを描きます。
// 縁取りはグリフの輪郭から外側へ width/2 の範囲を塗りつぶして表現します。
func (c *Canvas) StrokeText(s string, x, y float64, baseline layout.Baseline, width float64) {
	radius := math.Max(width/2, 1)
	r := int(math.Ceil(radius))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float64(dx*dx+dy*dy) > radius*radius {
				continue
			}
			c.drawString(s, x+float64(dx), y+float64(dy), baseline, outlineColor)
		}
	}
}

// FillText は (x, y) を中心基準とした白い文字を描きます。
func (c *Canvas) FillText(s string, x, y float64, baseline layout.Baseline) {
	c.drawString(s, x, y, baseline, fillColor)
}

// Close はフォントフェイスを解放します。
func (c *Canvas) Close() error {
	if c.face == nil {
		return nil
	}
	err := c.face.Close()
	c.face = nil
	return err
}

func (c *Canvas) drawString(s string, x, y float64, baseline layout.Baseline, src image.Image) {
	if c.face == nil {
		return
	}
	m := c.face.Metrics()
	dotY := y + fromFixed(m.Ascent)
	if baseline == layout.BaselineBottom {
		dotY = y - fromFixed(m.Descent)
	}
	d := &font.Drawer{
		Dst:  c.img,
		Src:  src,
		Face: c.face,
		Dot:  fixed.Point26_6{X: toFixed(x - c.MeasureString(s)/2), Y: toFixed(dotY)},
	}
	d.DrawString(s)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
