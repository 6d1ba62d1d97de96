package pipeline

import (
	"errors"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// State は1回の生成操作の状態です。Success と Error は終端で、次の操作で Generating に戻ります。
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Kind はユーザーに見せるエラーの分類です。
type Kind int

const (
	KindNone Kind = iota
	KindMissingImage
	KindQuota
	KindStorage
	KindCredential
	KindGeneric
	KindSaveFailed
)

// ユーザー向けメッセージ。内部のエラー文言はログにだけ出します。
const (
	MessageMissingImage = "Please upload a cat photo first!"
	MessageQuota        = "The API is busy (RPM Limit). Please wait 10 seconds and try again."
	MessageStorage      = "Meme generated, but your history is full! Please clear some old memes in the Gallery."
	MessageCredential   = "Invalid API Key. Please check your .env configuration."
	MessageGeneric      = "Failed to generate meme. Please try again."
	MessageSaveFailed   = "Meme generated, but it could not be saved to your history."
)

// Classify はエラーをユーザー向けの分類に対応付けます。
// 保存時のエラーは persistKind で分類します。
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, domain.ErrQuota), errors.Is(err, domain.ErrServiceBusy):
		return KindQuota
	case errors.Is(err, domain.ErrStorageFull):
		return KindStorage
	case errors.Is(err, domain.ErrInvalidCredential):
		return KindCredential
	default:
		return KindGeneric
	}
}

// Message は分類に対応するユーザー向けメッセージを返します。
func (k Kind) Message() string {
	switch k {
	case KindNone:
		return ""
	case KindMissingImage:
		return MessageMissingImage
	case KindQuota:
		return MessageQuota
	case KindStorage:
		return MessageStorage
	case KindCredential:
		return MessageCredential
	case KindSaveFailed:
		return MessageSaveFailed
	default:
		return MessageGeneric
	}
}

// Outcome は生成操作の結果です。
//
// State が StateSuccess のとき Result は必ず設定されます。保存に失敗した場合も
// 描画結果は失われず、Warning にその旨が入ります。StateError のときは Message に
// ユーザー向けの説明が入り、Err に元のエラーが残ります。
type Outcome struct {
	State    State
	Result   *domain.GenerationResult
	Captions domain.Captions
	Kind     Kind
	Message  string
	Warning  string
	Err      error
}

// persistKind は履歴保存の失敗を分類します。容量不足以外はすべて KindSaveFailed です。
func persistKind(err error) Kind {
	if errors.Is(err, domain.ErrStorageFull) {
		return KindStorage
	}
	return KindSaveFailed
}
