package generator

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// MockDelay はデモモードで応答を待つふりをする時間です。
const MockDelay = 800 * time.Millisecond

// mockCorpus はデモモードで使う固定のキャプション集です。
var mockCorpus = []domain.Captions{
	{TopText: "ME WHEN I SEE", BottomText: "A BUG IN PRODUCTION"},
	{TopText: "I CAN HAZ", BottomText: "CLEAN CODE?"},
	{TopText: "NO TALK ME", BottomText: "I ANGY"},
	{TopText: "POV: YOURE A SENIOR", BottomText: "LOOKING AT JUNIOR CODE"},
	{TopText: "MERRY CHRISTMAS", BottomText: "YA FILTHY ANIMAL"},
}

// MockCaptioner は Gemini を呼ばずに手元のコーパスからキャプションを選ぶ Captioner です。
type MockCaptioner struct {
	Delay    time.Duration
	NewTimer TimerFunc

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockCaptioner は rnd で選択する MockCaptioner を作ります。rnd が nil なら現在時刻で初期化します。
func NewMockCaptioner(rnd *rand.Rand) *MockCaptioner {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	}
	return &MockCaptioner{Delay: MockDelay, rnd: rnd}
}

// Caption は一定時間待ってからコーパスのキャプションを1つ返します。画像とプロンプトは使いません。
func (m *MockCaptioner) Caption(ctx context.Context, _ domain.EncodedImage, _ string) (domain.Captions, error) {
	if err := wait(ctx, m.NewTimer.timer(), m.Delay); err != nil {
		return domain.Captions{}, err
	}

	m.mu.Lock()
	idx := m.rnd.Intn(len(mockCorpus))
	m.mu.Unlock()

	slog.InfoContext(ctx, "デモモードのキャプションを選びました", "index", idx)
	return mockCorpus[idx], nil
}
