package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

const (
	statusResourceExhausted = "RESOURCE_EXHAUSTED"
	statusUnauthenticated   = "UNAUTHENTICATED"
	statusPermissionDenied  = "PERMISSION_DENIED"
	markerAPIKey            = "API key"
)

// classifyError は Gemini 呼び出しのエラーを domain のエラー分類に対応付けます。
//
// genai.APIError の HTTP ステータスと gRPC ステータスで判定します。型情報が失われたエラー
// （ラッパー経由で文字列化されたもの）は RESOURCE_EXHAUSTED と API key の目印だけを見ます。
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	code, status, message := apiErrorFields(err)
	switch {
	case code == http.StatusTooManyRequests || status == statusResourceExhausted:
		return fmt.Errorf("%w: %w", domain.ErrQuota, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden,
		status == statusUnauthenticated || status == statusPermissionDenied,
		strings.Contains(message, markerAPIKey):
		return fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}
	return err
}

func apiErrorFields(err error) (int, string, string) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, apiErr.Message
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	}

	msg := err.Error()
	status := ""
	if strings.Contains(msg, statusResourceExhausted) {
		status = statusResourceExhausted
	}
	return 0, status, msg
}
