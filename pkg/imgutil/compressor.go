package imgutil

import (
	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

const (
	// UploadMaxWidth は Gemini へ送る前の縮小幅です。
	UploadMaxWidth = 800
	// UploadQuality は送信用コピーの JPEG 品質です。
	UploadQuality = 0.7
)

// Compress は画像を maxWidth 以下に縮小し、入力形式に関わらず JPEG に再エンコードします。
// PNG や大きな JPEG でも送信ペイロードを抑えるためのもので、成果物のベースには使いません。
func Compress(src domain.EncodedImage, maxWidth int, quality float64) (domain.EncodedImage, error) {
	raster, err := Decode(src)
	if err != nil {
		return domain.EncodedImage{}, err
	}

	surface, err := raster.Resample(maxWidth)
	if err != nil {
		return domain.EncodedImage{}, err
	}

	return EncodeJPEG(surface, quality)
}

// Compressor は Compress をデフォルト値付きで呼び出す関数型です。
type Compressor func(src domain.EncodedImage) (domain.EncodedImage, error)

// NewCompressor は maxWidth と quality を固定した Compressor を返します。
func NewCompressor(maxWidth int, quality float64) Compressor {
	return func(src domain.EncodedImage) (domain.EncodedImage, error) {
		return Compress(src, maxWidth, quality)
	}
}
