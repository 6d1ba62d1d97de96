package generator

import (
	"fmt"
	"time"
)

const (
	// DefaultModel は速度とクォータのバランスが良いモデルです。
	DefaultModel = "gemini-flash-latest"
	// DefaultAttempts はクォータエラー時の再試行回数です。
	DefaultAttempts = 2
	// DefaultRetryDelay は再試行までの固定待ち時間です。
	DefaultRetryDelay = 2000 * time.Millisecond
	// NoRetry を Options.Attempts に指定すると再試行しません。
	NoRetry = -1
)

// captionTemplate はキャプション生成用の固定の指示文です。%s にユーザーのプロンプトが入ります。
const captionTemplate = `Create a funny internet cat meme caption for this image.
User Context: %s

IMPORTANT: Return ONLY a JSON object with "topText" and "bottomText" keys.
Example: {"topText": "WHEN YOU REALISE", "bottomText": "IT IS MONDAY AGAIN"}
Keep it short and witty. Use uppercase for the classic meme look.`

func captionPrompt(userPrompt string) string {
	return fmt.Sprintf(captionTemplate, userPrompt)
}

// Options はリモート呼び出しの設定です。リクエストごとに環境変数を読み直さず、
// 起動時に1度だけ組み立てて渡します。
type Options struct {
	Model string
	// Attempts はクォータエラー時の再試行回数です。0 は DefaultAttempts、NoRetry（負数）は再試行なしです。
	Attempts   int
	RetryDelay time.Duration
	// NewTimer は待機用の Timer を作ります。nil なら time.Timer を使います。
	NewTimer TimerFunc
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	switch {
	case o.Attempts == 0:
		o.Attempts = DefaultAttempts
	case o.Attempts < 0:
		o.Attempts = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// DefaultOptions はデフォルトの Options を返します。
func DefaultOptions() Options {
	return Options{}.withDefaults()
}
