package domain

import "errors"

// パイプライン全体で共有するエラー分類です。
// 各コンポーネントは fmt.Errorf の %w でこれらをラップして返し、
// 呼び出し側は errors.Is で判定します。
var (
	// ErrDecode はソースのバイト列を画像としてデコードできなかったことを示します。
	ErrDecode = errors.New("image decode failed")
	// ErrSurface は描画用のサーフェスを確保できなかったことを示します。
	ErrSurface = errors.New("drawing surface unavailable")
	// ErrQuota はレート制限・クォータ枯渇による一時的な失敗です。リトライ対象です。
	ErrQuota = errors.New("remote quota exhausted")
	// ErrServiceBusy はクォータエラーのリトライを使い切ったことを示します。
	ErrServiceBusy = errors.New("service busy, retry later")
	// ErrMalformedResponse は応答に利用可能なパーツが無かったことを示します。
	ErrMalformedResponse = errors.New("no usable part found in response")
	// ErrInvalidCredential は API キーの設定不備です。
	ErrInvalidCredential = errors.New("invalid API key")
	// ErrStorageFull は履歴ストアの容量超過です。描画結果自体は無効になりません。
	ErrStorageFull = errors.New("STORAGE_FULL: history is full")
)

// IsRetryable はリトライで回復し得るエラーかどうかを返します。
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQuota)
}
