// Package pipeline は圧縮・キャプション生成・描画・保存を1回の生成操作として順に実行します。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
	"github.com/shouni/gemini-meme-kit/pkg/generator"
	"github.com/shouni/gemini-meme-kit/pkg/imgutil"
)

// Renderer はキャプションを描き込んだ成果物を作ります。
type Renderer interface {
	Render(ctx context.Context, src domain.EncodedImage, captions domain.Captions) (domain.EncodedImage, error)
}

// Persister は生成結果を履歴に保存します。
type Persister interface {
	Append(result domain.GenerationResult) error
}

// Orchestrator は1件ずつ生成操作を実行します。
// 実行中に次の操作を始めないのは呼び出し側の責務です（UI ではボタンを無効化します）。
type Orchestrator struct {
	remote   generator.Captioner
	mock     generator.Captioner
	compress imgutil.Compressor
	renderer Renderer
	store    Persister
	ids      *IDSource
	now      func() time.Time

	mu    sync.RWMutex
	state State
}

// NewOrchestrator は依存関係を注入して Orchestrator を初期化します。
// remote と mock はどちらか一方が nil でも構いません。
func NewOrchestrator(remote, mock generator.Captioner, compress imgutil.Compressor, renderer Renderer, store Persister) (*Orchestrator, error) {
	if remote == nil && mock == nil {
		return nil, fmt.Errorf("remote or mock captioner is required")
	}
	if compress == nil {
		return nil, fmt.Errorf("compress is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return &Orchestrator{
		remote:   remote,
		mock:     mock,
		compress: compress,
		renderer: renderer,
		store:    store,
		ids:      processIDs,
		now:      time.Now,
		state:    StateIdle,
	}, nil
}

// State は現在の状態を返します。
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Generate は1回の生成操作を実行します。
//
// キャプションはモードに応じてデモ用コーパスか Gemini から取得し、描画は常に元画像に対して
// 行います。保存の失敗は成功した描画を取り消さず、Outcome.Warning として返します。
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) Outcome {
	logger := slog.With("request_id", uuid.NewString(), "mode", req.Mode.String())

	if req.Image.IsEmpty() {
		o.setState(StateError)
		return Outcome{State: StateError, Kind: KindMissingImage, Message: KindMissingImage.Message()}
	}

	o.setState(StateGenerating)
	logger.InfoContext(ctx, "ミーム生成を開始します", "image_bytes", len(req.Image.Data))

	captions, err := o.captions(ctx, req)
	if err != nil {
		return o.fail(ctx, logger, err)
	}

	rendered, err := o.renderer.Render(ctx, req.Image, captions)
	if err != nil {
		return o.fail(ctx, logger, err)
	}

	now := o.now()
	result := domain.GenerationResult{
		ID:            o.ids.Next(now),
		RenderedImage: rendered,
		Prompt:        domain.PromptLabel(req.Prompt),
		CreatedAt:     now,
	}
	outcome := Outcome{State: StateSuccess, Result: &result, Captions: captions}

	if err := o.store.Append(result); err != nil {
		kind := persistKind(err)
		logger.WarnContext(ctx, "ミームは生成できましたが履歴に保存できませんでした", "id", result.ID, "error", err)
		outcome.Kind = kind
		outcome.Warning = kind.Message()
		outcome.Err = err
	}

	o.setState(StateSuccess)
	logger.InfoContext(ctx, "ミーム生成が完了しました", "id", result.ID, "bytes", len(rendered.Data))
	return outcome
}

func (o *Orchestrator) captions(ctx context.Context, req domain.GenerationRequest) (domain.Captions, error) {
	if req.Mode == domain.ModeMock {
		if o.mock == nil {
			return domain.Captions{}, fmt.Errorf("mock captioner is not configured")
		}
		return o.mock.Caption(ctx, req.Image, req.Prompt)
	}

	if o.remote == nil {
		return domain.Captions{}, fmt.Errorf("%w: remote captioner is not configured", domain.ErrInvalidCredential)
	}
	// 送信用の縮小コピーは通信量の削減だけに使い、成果物には使わない
	compressed, err := o.compress(req.Image)
	if err != nil {
		return domain.Captions{}, err
	}
	return o.remote.Caption(ctx, compressed, req.Prompt)
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, err error) Outcome {
	kind := Classify(err)
	logger.ErrorContext(ctx, "ミーム生成に失敗しました", "kind", int(kind), "error", err)
	o.setState(StateError)
	return Outcome{State: StateError, Kind: kind, Message: kind.Message(), Err: err}
}
