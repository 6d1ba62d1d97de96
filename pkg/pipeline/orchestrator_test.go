package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

var (
	sourceImage     = domain.EncodedImage{Data: []byte("original"), MimeType: "image/png"}
	compressedImage = domain.EncodedImage{Data: []byte("compressed"), MimeType: domain.MimeTypeJPEG}
	renderedImage   = domain.EncodedImage{Data: []byte("rendered"), MimeType: domain.MimeTypeJPEG}
	testCaptions    = domain.Captions{TopText: "WHEN THE BOWL", BottomText: "IS HALF EMPTY"}
)

type fixture struct {
	remote     *fakeCaptioner
	mock       *fakeCaptioner
	compressor *recordingCompressor
	renderer   *fakeRenderer
	store      *fakePersister
	orch       *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote:     &fakeCaptioner{captions: testCaptions},
		mock:       &fakeCaptioner{captions: domain.Captions{TopText: "MOCK", BottomText: "CAT"}},
		compressor: &recordingCompressor{out: compressedImage},
		renderer:   &fakeRenderer{out: renderedImage},
		store:      &fakePersister{},
	}
	orch, err := NewOrchestrator(f.remote, f.mock, f.compressor.compress, f.renderer, f.store)
	require.NoError(t, err)
	orch.ids = &IDSource{}
	orch.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	f.orch = orch
	return f
}

func TestNewOrchestrator_Validation(t *testing.T) {
	c := &fakeCaptioner{}
	comp := (&recordingCompressor{}).compress
	r := &fakeRenderer{}
	p := &fakePersister{}

	_, err := NewOrchestrator(nil, nil, comp, r, p)
	assert.Error(t, err)
	_, err = NewOrchestrator(c, nil, nil, r, p)
	assert.Error(t, err)
	_, err = NewOrchestrator(c, nil, comp, nil, p)
	assert.Error(t, err)
	_, err = NewOrchestrator(c, nil, comp, r, nil)
	assert.Error(t, err)

	o, err := NewOrchestrator(nil, c, comp, r, p)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, o.State())
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	f := newFixture(t)
	f.remote.onCall = func() {
		assert.Equal(t, StateGenerating, f.orch.State(), "キャプション取得中は Generating なのだ")
	}

	out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Prompt: "hungry", Mode: domain.ModeRemote})

	require.Equal(t, StateSuccess, out.State)
	require.NotNil(t, out.Result)
	assert.Equal(t, StateSuccess, f.orch.State())
	assert.Equal(t, KindNone, out.Kind)
	assert.Empty(t, out.Warning)
	assert.Empty(t, out.Message)
	assert.NoError(t, out.Err)

	assert.Equal(t, 1, f.compressor.calls)
	assert.Equal(t, compressedImage, f.remote.lastImg, "Gemini には縮小コピーを送るのだ")
	assert.Equal(t, sourceImage, f.renderer.lastSrc, "描画は元画像に対して行うのだ")
	assert.Equal(t, testCaptions, f.renderer.lastCap)
	assert.Equal(t, testCaptions, out.Captions)

	assert.Equal(t, "1700000000000", out.Result.ID)
	assert.Equal(t, renderedImage, out.Result.RenderedImage)
	assert.Equal(t, "hungry", out.Result.Prompt)
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, *out.Result, f.store.saved[0])
}

func TestGenerate_EmptyPromptLabel(t *testing.T) {
	f := newFixture(t)
	out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Mode: domain.ModeRemote})
	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, domain.DefaultPrompt, out.Result.Prompt)
}

func TestGenerate_MockBypassesRemote(t *testing.T) {
	f := newFixture(t)

	out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Mode: domain.ModeMock})

	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, 0, f.remote.callCount())
	assert.Equal(t, 0, f.compressor.calls, "デモモードでは圧縮もしないのだ")
	assert.Equal(t, 1, f.mock.callCount())
	assert.Equal(t, "MOCK", out.Captions.TopText)
	assert.Equal(t, sourceImage, f.renderer.lastSrc)
}

func TestGenerate_MissingImage(t *testing.T) {
	f := newFixture(t)

	out := f.orch.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})

	assert.Equal(t, StateError, out.State)
	assert.Equal(t, KindMissingImage, out.Kind)
	assert.Equal(t, MessageMissingImage, out.Message)
	assert.Nil(t, out.Result)
	assert.Equal(t, StateError, f.orch.State())
	assert.Equal(t, 0, f.remote.callCount())
	assert.Empty(t, f.store.saved)
}

func TestGenerate_PersistenceFailureKeepsSuccess(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		warning string
	}{
		{
			name:    "容量不足",
			err:     fmt.Errorf("履歴保存エラー: %w", domain.ErrStorageFull),
			kind:    KindStorage,
			warning: MessageStorage,
		},
		{
			name:    "容量以外の保存失敗",
			err:     fmt.Errorf("履歴保存エラー: %w", os.ErrPermission),
			kind:    KindSaveFailed,
			warning: MessageSaveFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.err = tt.err

			out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Mode: domain.ModeRemote})

			assert.Equal(t, StateSuccess, out.State, "保存に失敗しても描画は成功のままなのだ")
			require.NotNil(t, out.Result)
			assert.Equal(t, renderedImage, out.Result.RenderedImage)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.warning, out.Warning)
			assert.NotEqual(t, MessageGeneric, out.Warning, "生成に失敗したとは伝えないのだ")
			assert.Empty(t, out.Message)
			assert.ErrorIs(t, out.Err, tt.err)
			assert.Equal(t, StateSuccess, f.orch.State())
		})
	}
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		kind    Kind
		message string
	}{
		{
			name:    "Quota",
			setup:   func(f *fixture) { f.remote.err = fmt.Errorf("キャプション生成エラー: %w", domain.ErrQuota) },
			kind:    KindQuota,
			message: MessageQuota,
		},
		{
			name:    "ServiceBusy",
			setup:   func(f *fixture) { f.remote.err = fmt.Errorf("%w (last error: 429)", domain.ErrServiceBusy) },
			kind:    KindQuota,
			message: MessageQuota,
		},
		{
			name:    "Credential",
			setup:   func(f *fixture) { f.remote.err = domain.ErrInvalidCredential },
			kind:    KindCredential,
			message: MessageCredential,
		},
		{
			name:    "Malformed",
			setup:   func(f *fixture) { f.remote.err = domain.ErrMalformedResponse },
			kind:    KindGeneric,
			message: MessageGeneric,
		},
		{
			name:    "CompressDecode",
			setup:   func(f *fixture) { f.compressor.err = domain.ErrDecode },
			kind:    KindGeneric,
			message: MessageGeneric,
		},
		{
			name:    "Render",
			setup:   func(f *fixture) { f.renderer.err = domain.ErrSurface },
			kind:    KindGeneric,
			message: MessageGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Mode: domain.ModeRemote})

			assert.Equal(t, StateError, out.State)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.message, out.Message)
			assert.NotContains(t, out.Message, "キャプション生成エラー", "内部の文言は見せないのだ")
			assert.Error(t, out.Err)
			assert.Nil(t, out.Result)
			assert.Empty(t, f.store.saved)
			assert.Equal(t, StateError, f.orch.State())
		})
	}
}

func TestGenerate_RemoteNotConfigured(t *testing.T) {
	mock := &fakeCaptioner{}
	o, err := NewOrchestrator(nil, mock, (&recordingCompressor{}).compress, &fakeRenderer{}, &fakePersister{})
	require.NoError(t, err)

	out := o.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage, Mode: domain.ModeRemote})

	assert.Equal(t, StateError, out.State)
	assert.Equal(t, KindCredential, out.Kind)
	assert.Equal(t, MessageCredential, out.Message)
}

func TestGenerate_RecoversAfterError(t *testing.T) {
	f := newFixture(t)
	f.remote.err = errors.New("boom")
	out := f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage})
	require.Equal(t, StateError, out.State)

	f.remote.err = nil
	out = f.orch.Generate(context.Background(), domain.GenerationRequest{Image: sourceImage})
	assert.Equal(t, StateSuccess, out.State)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindQuota, Classify(fmt.Errorf("x: %w", domain.ErrQuota)))
	assert.Equal(t, KindQuota, Classify(domain.ErrServiceBusy))
	assert.Equal(t, KindStorage, Classify(fmt.Errorf("x: %w", domain.ErrStorageFull)))
	assert.Equal(t, KindCredential, Classify(domain.ErrInvalidCredential))
	assert.Equal(t, KindGeneric, Classify(errors.New("network down")))
	assert.Equal(t, KindGeneric, Classify(domain.ErrDecode))
}

func TestKind_Message(t *testing.T) {
	assert.Empty(t, KindNone.Message())
	assert.Equal(t, MessageMissingImage, KindMissingImage.Message())
	assert.Equal(t, MessageQuota, KindQuota.Message())
	assert.Equal(t, MessageStorage, KindStorage.Message())
	assert.Equal(t, MessageCredential, KindCredential.Message())
	assert.Equal(t, MessageGeneric, KindGeneric.Message())
	assert.Equal(t, MessageSaveFailed, KindSaveFailed.Message())
}

func TestPersistKind(t *testing.T) {
	assert.Equal(t, KindStorage, persistKind(fmt.Errorf("x: %w", domain.ErrStorageFull)))
	assert.Equal(t, KindSaveFailed, persistKind(os.ErrPermission))
	assert.Equal(t, KindSaveFailed, persistKind(errors.New("disk I/O error")))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "generating", StateGenerating.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "error", StateError.String())
}
