package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// GenAIClient は google.golang.org/genai を直接使う ContentGenerator です。
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient は API キーから Gemini API クライアントを作成します。
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is not set", domain.ErrInvalidCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// GenerateWithParts はパーツを1件のユーザーメッセージとして送信します。
func (c *GenAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, _ gemini.GenerateOptions) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}
