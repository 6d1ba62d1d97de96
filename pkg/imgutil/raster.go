package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// MaxSurfacePixels は1回の処理で確保できる描画サーフェスの最大画素数です。
const MaxSurfacePixels = 64 << 20

// Raster はデコード済みの画像です。デコードした処理だけが所有し、処理後は破棄します。
type Raster struct {
	img image.Image
}

// Decode はエンコード済み画像をデコードします。EXIF の回転情報は適用済みになります。
func Decode(src domain.EncodedImage) (*Raster, error) {
	if src.IsEmpty() {
		return nil, fmt.Errorf("%w: empty image data", domain.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return &Raster{img: img}, nil
}

// Width は画素幅を返します。
func (r *Raster) Width() int { return r.img.Bounds().Dx() }

// Height は画素高さを返します。
func (r *Raster) Height() int { return r.img.Bounds().Dy() }

// Resample は maxWidth に収まるサイズの新しいサーフェスへ画像を描き込みます。
// 元画像は変更しません。
func (r *Raster) Resample(maxWidth int) (*image.NRGBA, error) {
	w, h := ScaleDimensions(r.Width(), r.Height(), maxWidth)
	if err := checkSurface(w, h); err != nil {
		return nil, err
	}
	if w == r.Width() && h == r.Height() {
		return imaging.Clone(r.img), nil
	}
	return imaging.Resize(r.img, w, h, imaging.Lanczos), nil
}

// ScaleDimensions は幅が maxWidth を超える場合だけアスペクト比を保って縮小したサイズを返します。
// 高さは最も近い整数に丸めます。maxWidth が 0 以下なら制限なしとして扱います。
func ScaleDimensions(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height
	}
	scaled := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	return maxWidth, max(scaled, 1)
}

func checkSurface(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", domain.ErrSurface, w, h)
	}
	if int64(w)*int64(h) > MaxSurfacePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrSurface, w, h, MaxSurfacePixels)
	}
	return nil
}

// EncodeJPEG は img を quality (0..1) の JPEG にエンコードします。
func EncodeJPEG(img image.Image, quality float64) (domain.EncodedImage, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return domain.EncodedImage{}, fmt.Errorf("%w: jpeg encode: %v", domain.ErrSurface, err)
	}
	return domain.EncodedImage{Data: buf.Bytes(), MimeType: domain.MimeTypeJPEG}, nil
}

// jpegQuality は 0..1 の品質係数を image/jpeg の 1..100 に変換します。
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return min(max(v, 1), 100)
}
