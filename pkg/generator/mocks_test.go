package generator

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

// scriptedResult は mockAIClient が1回の呼び出しで返す結果です。
type scriptedResult struct {
	resp *gemini.Response
	err  error
}

// mockAIClient は呼び出し順に scripted の結果を返す ContentGenerator です。
// 台本を使い切った後は最後の結果を返し続けます。
type mockAIClient struct {
	mu        sync.Mutex
	scripted  []scriptedResult
	calls     int
	lastModel string
	lastParts []*genai.Part
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := min(m.calls, len(m.scripted)-1)
	m.calls++
	m.lastModel = model
	m.lastParts = parts
	r := m.scripted[idx]
	return r.resp, r.err
}

func (m *mockAIClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeTimer は実際には待たずに即座に発火し、待機時間を記録する backoff.Timer なのだ。
type fakeTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	ch    chan time.Time
}

func (f *fakeTimer) newTimer() backoff.Timer { return f }

func (f *fakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil {
		f.ch = make(chan time.Time, 1)
	}
	f.waits = append(f.waits, d)
	select {
	case f.ch <- time.Now():
	default:
	}
}

func (f *fakeTimer) Stop() {}

func (f *fakeTimer) C() <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ch
}

func (f *fakeTimer) total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum time.Duration
	for _, d := range f.waits {
		sum += d
	}
	return sum
}

// textResponse はテキストパーツ1つだけの応答を作ります。
func textResponse(texts ...string) *gemini.Response {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: parts},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
}

// imageResponse はインライン画像パーツ1つだけの応答を作ります。
func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

func quotaError() error {
	return genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Resource has been exhausted (e.g. check quota)."}
}
