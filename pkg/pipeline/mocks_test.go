package pipeline

import (
	"context"
	"sync"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// fakeCaptioner は受け取った画像を記録し、決まった結果を返すのだ。
type fakeCaptioner struct {
	mu       sync.Mutex
	captions domain.Captions
	err      error
	calls    int
	lastImg  domain.EncodedImage
	onCall   func()
}

func (f *fakeCaptioner) Caption(_ context.Context, img domain.EncodedImage, _ string) (domain.Captions, error) {
	f.mu.Lock()
	f.calls++
	f.lastImg = img
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
	return f.captions, f.err
}

func (f *fakeCaptioner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRenderer struct {
	out     domain.EncodedImage
	err     error
	lastSrc domain.EncodedImage
	lastCap domain.Captions
}

func (f *fakeRenderer) Render(_ context.Context, src domain.EncodedImage, captions domain.Captions) (domain.EncodedImage, error) {
	f.lastSrc = src
	f.lastCap = captions
	return f.out, f.err
}

type fakePersister struct {
	err   error
	saved []domain.GenerationResult
}

func (f *fakePersister) Append(result domain.GenerationResult) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, result)
	return nil
}

// recordingCompressor は呼ばれた回数を数え、目印のバイト列を返すのだ。
type recordingCompressor struct {
	calls int
	out   domain.EncodedImage
	err   error
}

func (r *recordingCompressor) compress(_ domain.EncodedImage) (domain.EncodedImage, error) {
	r.calls++
	return r.out, r.err
}
