package domain

import (
	"strings"
	"time"
)

// DefaultPrompt はユーザーがプロンプトを入力しなかった場合に履歴へ残す表示名です。
const DefaultPrompt = "Photo Meme"

// GenerationResult は生成に成功したミーム1件分の記録です。
// 作成後の所有権は呼び出し側（履歴ストア）へ移ります。
type GenerationResult struct {
	ID            string       `json:"id"`
	RenderedImage EncodedImage `json:"rendered_image"`
	Prompt        string       `json:"prompt"`
	CreatedAt     time.Time    `json:"created_at"`
}

// PromptLabel は履歴表示用のプロンプトを返します。
func PromptLabel(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return DefaultPrompt
	}
	return prompt
}
