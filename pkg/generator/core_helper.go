package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

var codeFencePattern = regexp.MustCompile("```(?:json)?\\n?|\\n?```")

// buildParts は画像パーツと指示文パーツを組み立てます。
func buildParts(img domain.EncodedImage, instruction string) ([]*genai.Part, error) {
	imgPart, err := toPart(img)
	if err != nil {
		return nil, err
	}
	return []*genai.Part{imgPart, {Text: instruction}}, nil
}

// toPart は画像を genai.Part (InlineData) に変換します。
// MIME タイプが無い場合は中身から判定し、画像でなければエラーにします。
func toPart(img domain.EncodedImage) (*genai.Part, error) {
	if img.IsEmpty() {
		return nil, fmt.Errorf("%w: empty image data", domain.ErrDecode)
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: MIMEタイプが画像ではありません (%s)", domain.ErrDecode, mimeType)
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     img.Data,
		},
	}, nil
}

// firstCandidate は最初の候補 (Candidate) を返します。
func firstCandidate(resp *gemini.Response) (*genai.Candidate, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 || resp.RawResponse.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: Geminiからの有効な応答がありませんでした", domain.ErrMalformedResponse)
	}
	return resp.RawResponse.Candidates[0], nil
}

// checkFinishReason は安全フィルター等で異常終了した候補をエラーにします。
func checkFinishReason(candidate *genai.Candidate) error {
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return fmt.Errorf("%w: 生成が異常終了しました (FinishReason: %s)", domain.ErrMalformedResponse, candidate.FinishReason)
	}
	return nil
}

// parseCaptions はテキストパーツから最初に解析できたキャプションを返します。
func parseCaptions(resp *gemini.Response) (domain.Captions, error) {
	candidate, err := firstCandidate(resp)
	if err != nil {
		return domain.Captions{}, err
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			captions, err := decodeCaptions(part.Text)
			if err == nil {
				return captions, nil
			}
			slog.Warn("AI応答の解析に失敗しました", "text", part.Text, "error", err)
		}
	}

	if err := checkFinishReason(candidate); err != nil {
		return domain.Captions{}, err
	}
	return domain.Captions{}, fmt.Errorf("%w: キャプションを解析できませんでした", domain.ErrMalformedResponse)
}

// decodeCaptions はコードフェンスを除去し、topText と bottomText だけを持つ JSON として厳密に解析します。
func decodeCaptions(text string) (domain.Captions, error) {
	body := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))

	var raw struct {
		TopText    *string `json:"topText"`
		BottomText *string `json:"bottomText"`
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return domain.Captions{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Captions{}, fmt.Errorf("JSONの後ろに余分なデータがあります")
	}
	if raw.TopText == nil || raw.BottomText == nil {
		return domain.Captions{}, fmt.Errorf("topText と bottomText の両方が必要です")
	}
	return domain.Captions{TopText: *raw.TopText, BottomText: *raw.BottomText}, nil
}

// parseImage は最初のインライン画像パーツを取り出します。
func parseImage(resp *gemini.Response) (domain.EncodedImage, error) {
	candidate, err := firstCandidate(resp)
	if err != nil {
		return domain.EncodedImage{}, err
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return domain.EncodedImage{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	if err := checkFinishReason(candidate); err != nil {
		return domain.EncodedImage{}, err
	}
	return domain.EncodedImage{}, fmt.Errorf("%w: 画像データが見つかりませんでした", domain.ErrMalformedResponse)
}
