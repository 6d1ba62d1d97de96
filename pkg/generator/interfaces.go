package generator

import (
	"context"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// ContentGenerator は Gemini へのリクエスト送信を担当します。
// gemini.GenerativeModel の GenerateWithParts と同じ形なので、go-gemini-client の
// クライアントもそのまま渡せます。
type ContentGenerator interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// Captioner は画像とユーザープロンプトから上下のキャプションを作ります。
type Captioner interface {
	Caption(ctx context.Context, img domain.EncodedImage, prompt string) (domain.Captions, error)
}

// ImageTransformer は画像とプロンプトから新しい画像を生成します。
type ImageTransformer interface {
	Transform(ctx context.Context, img domain.EncodedImage, prompt string) (domain.EncodedImage, error)
}
