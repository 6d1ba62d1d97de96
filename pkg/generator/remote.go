package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// RemoteCaptioner は Gemini にキャプションを生成させる Captioner です。
// 保持するのは不変の設定だけなので、独立したリクエストから並行に呼び出せます。
type RemoteCaptioner struct {
	aiClient ContentGenerator
	opts     Options
}

// NewRemoteCaptioner は依存関係を注入して RemoteCaptioner を初期化します。
func NewRemoteCaptioner(aiClient ContentGenerator, opts Options) (*RemoteCaptioner, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentGenerator) is required")
	}
	return &RemoteCaptioner{aiClient: aiClient, opts: opts.withDefaults()}, nil
}

// Caption は画像とユーザーのプロンプトからキャプションを生成します。
// クォータエラーは固定間隔で再試行し、それ以外の失敗はそのまま返します。
func (c *RemoteCaptioner) Caption(ctx context.Context, img domain.EncodedImage, prompt string) (domain.Captions, error) {
	parts, err := buildParts(img, captionPrompt(prompt))
	if err != nil {
		return domain.Captions{}, fmt.Errorf("キャプション生成エラー: %w", err)
	}

	slog.InfoContext(ctx, "Geminiにキャプション生成をリクエストします", "model", c.opts.Model, "image_bytes", len(img.Data))
	captions, err := withRetry(ctx, c.opts, "caption", func(ctx context.Context) (domain.Captions, error) {
		resp, err := c.aiClient.GenerateWithParts(ctx, c.opts.Model, parts, gemini.GenerateOptions{})
		if err != nil {
			return domain.Captions{}, classifyError(err)
		}
		return parseCaptions(resp)
	})
	if err != nil {
		return domain.Captions{}, fmt.Errorf("キャプション生成エラー: %w", err)
	}
	return captions, nil
}

// RemoteImageEditor は Gemini に画像そのものを変換させる ImageTransformer です。
type RemoteImageEditor struct {
	aiClient ContentGenerator
	opts     Options
}

// NewRemoteImageEditor は依存関係を注入して RemoteImageEditor を初期化します。
func NewRemoteImageEditor(aiClient ContentGenerator, opts Options) (*RemoteImageEditor, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentGenerator) is required")
	}
	return &RemoteImageEditor{aiClient: aiClient, opts: opts.withDefaults()}, nil
}

// Transform は画像とプロンプトから新しい画像を生成します。
func (e *RemoteImageEditor) Transform(ctx context.Context, img domain.EncodedImage, prompt string) (domain.EncodedImage, error) {
	parts, err := buildParts(img, prompt)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("画像変換エラー: %w", err)
	}

	slog.InfoContext(ctx, "Geminiに画像変換をリクエストします", "model", e.opts.Model)
	out, err := withRetry(ctx, e.opts, "transform", func(ctx context.Context) (domain.EncodedImage, error) {
		resp, err := e.aiClient.GenerateWithParts(ctx, e.opts.Model, parts, gemini.GenerateOptions{})
		if err != nil {
			return domain.EncodedImage{}, classifyError(err)
		}
		return parseImage(resp)
	})
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("画像変換エラー: %w", err)
	}
	return out, nil
}
