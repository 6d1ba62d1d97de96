// Package meme は写真にミーム風のキャプションを描き込みます。
package meme

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
	"github.com/shouni/gemini-meme-kit/pkg/imgutil"
	"github.com/shouni/gemini-meme-kit/pkg/layout"
)

const (
	// DefaultMaxWidth は保存用成果物の最大幅です。送信用の縮小幅とは別の値です。
	DefaultMaxWidth = 1200
	// DefaultQuality は保存用成果物の JPEG 品質です。
	DefaultQuality = 0.8
)

// Surface はキャプションの描画先です。imgutil.Canvas が実装します。
type Surface interface {
	Size() (int, int)
	SetFontSize(size float64) error
	MeasureString(s string) float64
	StrokeText(s string, x, y float64, baseline layout.Baseline, width float64)
	FillText(s string, x, y float64, baseline layout.Baseline)
}

// Paint は surface にキャプションを描きます。各行は縁取りを先に描き、その上に塗りを重ねます。
func Paint(surface Surface, captions domain.Captions) error {
	w, h := surface.Size()
	m := MetricsFor(w, h)
	if err := surface.SetFontSize(m.FontSize); err != nil {
		return err
	}

	for _, line := range Plan(captions, m, surface.MeasureString) {
		surface.StrokeText(line.Text, line.X, line.Y, line.Baseline, m.StrokeWidth)
		surface.FillText(line.Text, line.X, line.Y, line.Baseline)
	}
	return nil
}

// Renderer はソース画像をリサイズしてキャプションを描き、JPEG で再エンコードします。
type Renderer struct {
	MaxWidth int
	Quality  float64
}

// NewRenderer はデフォルト設定の Renderer を返します。
func NewRenderer() *Renderer {
	return &Renderer{MaxWidth: DefaultMaxWidth, Quality: DefaultQuality}
}

// Render は src にキャプションを描いた新しい画像を返します。
// デコードやサーフェス確保に失敗した場合は部分的な成果物を返さずに終了します。
func (r *Renderer) Render(ctx context.Context, src domain.EncodedImage, captions domain.Captions) (domain.EncodedImage, error) {
	raster, err := imgutil.Decode(src)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("ミーム描画エラー: %w", err)
	}

	resized, err := raster.Resample(r.MaxWidth)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("ミーム描画エラー: %w", err)
	}

	canvas := imgutil.NewCanvas(resized)
	defer canvas.Close()

	if err := Paint(canvas, captions); err != nil {
		return domain.EncodedImage{}, fmt.Errorf("ミーム描画エラー: %w", err)
	}

	out, err := imgutil.EncodeJPEG(canvas.Image(), r.Quality)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("ミーム描画エラー: %w", err)
	}

	w, h := canvas.Size()
	slog.DebugContext(ctx, "ミーム画像を描画しました", "width", w, "height", h, "bytes", len(out.Data))
	return out, nil
}
