package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-remote-io/pkg/s3factory"

	"github.com/shouni/gemini-meme-kit/pkg/generator"
	"github.com/shouni/gemini-meme-kit/pkg/history"
	"github.com/shouni/gemini-meme-kit/pkg/imgutil"
	"github.com/shouni/gemini-meme-kit/pkg/meme"
	"github.com/shouni/gemini-meme-kit/pkg/pipeline"
)

// OrchestratorFactory は入力ファイルごとに新しい Orchestrator を作ります。
type OrchestratorFactory func() (*pipeline.Orchestrator, error)

// ioFactory は Injector の Shutdown でクラウドストレージのクライアントを閉じます。
type ioFactory struct {
	remoteio.IOFactory
}

func (f *ioFactory) Shutdown() error {
	return f.Close()
}

// Setup は cfg を元に依存関係を登録した Injector を返します。
func Setup(ctx context.Context, cfg Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			slog.DebugContext(ctx, fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[Config](injector, cfg)
	do.Provide[*ioFactory](injector, func(i *do.Injector) (*ioFactory, error) {
		var (
			f   remoteio.IOFactory
			err error
		)
		switch storage := do.MustInvoke[Config](i).Storage; storage {
		case StorageGCS:
			f, err = gcsfactory.New(ctx)
		case StorageS3:
			f, err = s3factory.New(ctx)
		default:
			return nil, fmt.Errorf("storage %q has no client factory", storage)
		}
		if err != nil {
			return nil, err
		}
		return &ioFactory{IOFactory: f}, nil
	})
	do.Provide[remoteio.InputReader](injector, func(i *do.Injector) (remoteio.InputReader, error) {
		if do.MustInvoke[Config](i).Storage == StorageLocal {
			return remoteio.NewUniversalInputReader(nil, nil), nil
		}
		f, err := do.Invoke[*ioFactory](i)
		if err != nil {
			return nil, err
		}
		return f.InputReader()
	})
	do.Provide[remoteio.OutputWriter](injector, func(i *do.Injector) (remoteio.OutputWriter, error) {
		if do.MustInvoke[Config](i).Storage == StorageLocal {
			return remoteio.NewUniversalIOWriter(nil, nil), nil
		}
		f, err := do.Invoke[*ioFactory](i)
		if err != nil {
			return nil, err
		}
		return f.OutputWriter()
	})
	do.Provide[generator.ContentGenerator](injector, func(i *do.Injector) (generator.ContentGenerator, error) {
		return generator.NewGenAIClient(ctx, do.MustInvoke[Config](i).APIKey)
	})
	do.Provide[*generator.RemoteCaptioner](injector, func(i *do.Injector) (*generator.RemoteCaptioner, error) {
		client, err := do.Invoke[generator.ContentGenerator](i)
		if err != nil {
			return nil, err
		}
		return generator.NewRemoteCaptioner(client, do.MustInvoke[Config](i).GeneratorOptions())
	})
	do.Provide[generator.ImageTransformer](injector, func(i *do.Injector) (generator.ImageTransformer, error) {
		client, err := do.Invoke[generator.ContentGenerator](i)
		if err != nil {
			return nil, err
		}
		return generator.NewRemoteImageEditor(client, do.MustInvoke[Config](i).GeneratorOptions())
	})
	do.Provide[*generator.MockCaptioner](injector, func(i *do.Injector) (*generator.MockCaptioner, error) {
		return generator.NewMockCaptioner(nil), nil
	})
	do.ProvideValue[imgutil.Compressor](injector, imgutil.NewCompressor(imgutil.UploadMaxWidth, imgutil.UploadQuality))
	do.Provide[*meme.Renderer](injector, func(i *do.Injector) (*meme.Renderer, error) {
		return meme.NewRenderer(), nil
	})
	do.Provide[history.Backend](injector, func(i *do.Injector) (history.Backend, error) {
		cfg := do.MustInvoke[Config](i)
		return history.NewFileBackend(cfg.HistoryDir, cfg.HistoryCapacity)
	})
	do.Provide[*history.Store](injector, func(i *do.Injector) (*history.Store, error) {
		backend, err := do.Invoke[history.Backend](i)
		if err != nil {
			return nil, err
		}
		return history.NewStore(backend)
	})
	do.Provide[OrchestratorFactory](injector, newOrchestratorFactory)

	return injector
}

func newOrchestratorFactory(i *do.Injector) (OrchestratorFactory, error) {
	cfg := do.MustInvoke[Config](i)

	// デモモードでは API キーが無くても動くよう、リモート側は作らない
	var remote generator.Captioner
	if !cfg.Mock {
		r, err := do.Invoke[*generator.RemoteCaptioner](i)
		if err != nil {
			return nil, err
		}
		remote = r
	}

	mock := do.MustInvoke[*generator.MockCaptioner](i)
	compress := do.MustInvoke[imgutil.Compressor](i)
	renderer := do.MustInvoke[*meme.Renderer](i)
	store, err := do.Invoke[*history.Store](i)
	if err != nil {
		return nil, err
	}

	return func() (*pipeline.Orchestrator, error) {
		return pipeline.NewOrchestrator(remote, mock, compress, renderer, store)
	}, nil
}
