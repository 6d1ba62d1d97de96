package domain

import "strings"

// MimeTypeJPEG は再エンコード後の成果物が常に持つ MIME タイプです。
const MimeTypeJPEG = "image/jpeg"

// EncodedImage はコンポーネント境界で受け渡されるエンコード済み画像です。
// 一度作成したら変更せず、加工結果は常に新しい値として返します。
type EncodedImage struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// IsEmpty は画像データを持たない場合に true を返します。
func (e EncodedImage) IsEmpty() bool {
	return len(e.Data) == 0
}

// Mode はキャプション取得の方式です。
type Mode int

const (
	// ModeRemote は Gemini にキャプション生成を依頼します。
	ModeRemote Mode = iota
	// ModeMock はオフラインのデモ用に手元のコーパスからキャプションを選びます。
	ModeMock
)

func (m Mode) String() string {
	if m == ModeMock {
		return "mock"
	}
	return "remote"
}

// GenerationRequest はユーザー操作1回分の生成要求です。保持はしません。
type GenerationRequest struct {
	Image  EncodedImage
	Prompt string
	Mode   Mode
}

// Captions はミーム画像の上下に載せるテキストの組です。
// どちらも空文字を許容し、空のスロットは描画しません。
type Captions struct {
	TopText    string `json:"topText"`
	BottomText string `json:"bottomText"`
}

// Upper は描画用に大文字化したキャプションを返します。
func (c Captions) Upper() Captions {
	return Captions{
		TopText:    strings.ToUpper(c.TopText),
		BottomText: strings.ToUpper(c.BottomText),
	}
}
