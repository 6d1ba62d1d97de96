// memegen は猫の写真に Gemini が考えたキャプションを入れてミーム画像を作るコマンドです。
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
	"github.com/shouni/gemini-meme-kit/pkg/generator"
	"github.com/shouni/gemini-meme-kit/pkg/history"
	"github.com/shouni/gemini-meme-kit/pkg/pipeline"
)

func main() {
	slog.SetDefault(newLogger(os.Stderr, slog.LevelInfo))

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("memegen failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	prompt string
	edit   string
	outDir string
	mock   bool
	list   bool
	clear  bool
	debug  bool
	files  []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("memegen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.prompt, "prompt", "", "キャプションのヒント（例: 'hungry', 'monday'）")
	fs.StringVar(&opts.edit, "edit", "", "キャプションの前に Gemini で写真を加工する指示（例: 'add a party hat'）")
	fs.StringVar(&opts.outDir, "out", ".", "生成したミームの保存先（ディレクトリ、gs:// または s3://）")
	fs.BoolVar(&opts.mock, "mock", false, "Gemini を呼ばずにデモ用キャプションを使う")
	fs.BoolVar(&opts.list, "list", false, "履歴を新しい順に表示する")
	fs.BoolVar(&opts.clear, "clear", false, "履歴をすべて削除する")
	fs.BoolVar(&opts.debug, "debug", false, "デバッグログを出力する")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: memegen [flags] <image>...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.files = fs.Args()

	if len(opts.files) == 0 && !opts.list && !opts.clear {
		fs.Usage()
		return options{}, errors.New("画像ファイルを指定してください")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.debug {
		slog.SetDefault(newLogger(os.Stderr, slog.LevelDebug))
	}

	loadDotenv(".env.local", ".env")
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	cfg.Mock = cfg.Mock || opts.mock

	injector := Setup(ctx, cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			slog.Warn("shutdown failed", "error", err)
		}
	}()

	out := &printer{w: stdout}

	if opts.clear {
		store, err := do.Invoke[*history.Store](injector)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		out.printf("history cleared\n")
	}

	if len(opts.files) > 0 {
		if err := generateAll(ctx, injector, cfg, opts, out); err != nil {
			return err
		}
	}

	if opts.list {
		store, err := do.Invoke[*history.Store](injector)
		if err != nil {
			return err
		}
		items, err := store.LoadAll()
		if err != nil {
			return err
		}
		for _, line := range historyLines(items) {
			out.printf("%s\n", line)
		}
	}
	return nil
}

func historyLines(items []domain.GenerationResult) []string {
	return lo.Map(items, func(item domain.GenerationResult, _ int) string {
		return fmt.Sprintf("%s\t%s\t%s\t%d bytes", item.ID, item.CreatedAt.Local().Format("2006-01-02 15:04:05"), item.Prompt, len(item.RenderedImage.Data))
	})
}

func generateAll(ctx context.Context, injector *do.Injector, cfg Config, opts options, out *printer) error {
	factory, err := do.Invoke[OrchestratorFactory](injector)
	if err != nil {
		// API キー未設定などは生成前に分かるので、ユーザー向けの文言で返す
		return fmt.Errorf("%s: %w", pipeline.Classify(err).Message(), err)
	}
	reader, err := do.Invoke[remoteio.InputReader](injector)
	if err != nil {
		return err
	}
	writer, err := do.Invoke[remoteio.OutputWriter](injector)
	if err != nil {
		return err
	}

	b := &batch{
		factory: factory,
		reader:  reader,
		writer:  writer,
		mode:    lo.Ternary(cfg.Mock, domain.ModeMock, domain.ModeRemote),
		prompt:  opts.prompt,
		outDir:  opts.outDir,
		out:     out,
	}
	if opts.edit != "" {
		if cfg.Mock {
			slog.WarnContext(ctx, "デモモードでは -edit を無視します")
		} else if b.editor, err = do.Invoke[generator.ImageTransformer](injector); err != nil {
			return err
		}
		b.instruction = opts.edit
	}

	// 1件の失敗で他のファイルを止めないよう、キャンセルしない errgroup を使う
	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for _, path := range opts.files {
		g.Go(func() error {
			return b.generate(ctx, path)
		})
	}
	return g.Wait()
}

// batch は入力ファイルごとの生成に共通する設定です。
type batch struct {
	factory     OrchestratorFactory
	reader      remoteio.InputReader
	writer      remoteio.OutputWriter
	editor      generator.ImageTransformer
	instruction string
	mode        domain.Mode
	prompt      string
	outDir      string
	out         *printer
}

func (b *batch) generate(ctx context.Context, path string) error {
	data, err := b.read(ctx, path)
	if err != nil {
		b.out.printf("%s: %s\n", path, err)
		return fmt.Errorf("%s: %w", path, err)
	}
	req := domain.GenerationRequest{
		Image:  domain.EncodedImage{Data: data, MimeType: http.DetectContentType(data)},
		Prompt: b.prompt,
		Mode:   b.mode,
	}

	if b.editor != nil {
		edited, err := b.editor.Transform(ctx, req.Image, b.instruction)
		if err != nil {
			b.out.printf("%s: %s\n", path, pipeline.Classify(err).Message())
			return fmt.Errorf("%s: %w", path, err)
		}
		req.Image = edited
	}

	orch, err := b.factory()
	if err != nil {
		return err
	}

	outcome := orch.Generate(ctx, req)
	if outcome.State != pipeline.StateSuccess {
		b.out.printf("%s: %s\n", path, outcome.Message)
		return fmt.Errorf("%s: %w", path, lo.Ternary(outcome.Err != nil, outcome.Err, errors.New(outcome.Message)))
	}

	dst := outputPath(b.outDir, "meme-"+outcome.Result.ID+".jpg")
	rendered := outcome.Result.RenderedImage
	if err := b.writer.Write(ctx, dst, bytes.NewReader(rendered.Data), rendered.MimeType); err != nil {
		return fmt.Errorf("%s: ミームの書き込みに失敗しました: %w", path, err)
	}

	captions := outcome.Captions.Upper()
	b.out.printf("%s -> %s [%s / %s]\n", path, dst, captions.TopText, captions.BottomText)
	if outcome.Warning != "" {
		b.out.printf("%s: %s\n", path, outcome.Warning)
	}
	return nil
}

func (b *batch) read(ctx context.Context, path string) ([]byte, error) {
	rc, err := b.reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// outputPath は出力先ディレクトリとファイル名を結合します。gs:// や s3:// はスラッシュで結合します。
func outputPath(dir, name string) string {
	if remoteio.IsRemoteURI(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// printer は並行に生成した結果を行単位で出力します。
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}
