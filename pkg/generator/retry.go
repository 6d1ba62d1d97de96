package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// TimerFunc は1回の呼び出しで使う backoff.Timer を作ります。
// nil の場合は time.Timer を使います。テストでは即座に発火する Timer に差し替えます。
type TimerFunc func() backoff.Timer

func (f TimerFunc) timer() backoff.Timer {
	if f == nil {
		return &systemTimer{}
	}
	return f()
}

// systemTimer は time.Timer による backoff.Timer です。
type systemTimer struct {
	timer *time.Timer
}

func (t *systemTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *systemTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *systemTimer) C() <-chan time.Time {
	return t.timer.C
}

// wait は t で d だけ待ちます。ctx が終了した場合はその時点で戻ります。
func wait(ctx context.Context, t backoff.Timer, d time.Duration) error {
	t.Start(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

// withRetry は fn をクォータエラーの間だけ固定間隔で再試行します。
// 再試行の残り回数は呼び出しごとの BackOff が持ち、呼び出し間で共有しません。
// 使い切った場合は domain.ErrServiceBusy を返します。それ以外のエラーは即座に返します。
func withRetry[T any](ctx context.Context, opts Options, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.RetryDelay), uint64(opts.Attempts)),
		ctx,
	)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		out, err := fn(ctx)
		if err != nil && !domain.IsRetryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, delay time.Duration) {
		slog.WarnContext(ctx, "クォータ超過のため待機して再試行します",
			"op", op, "attempt", attempt, "max_retries", opts.Attempts, "delay", delay, "error", err)
	}

	out, err := backoff.RetryNotifyWithTimerAndData(operation, policy, notify, opts.NewTimer.timer())
	if err == nil {
		return out, nil
	}

	var zero T
	if domain.IsRetryable(err) && ctx.Err() == nil {
		slog.ErrorContext(ctx, "クォータ超過の再試行回数を使い切りました", "op", op, "attempts", attempt, "error", err)
		return zero, fmt.Errorf("%w (last error: %v)", domain.ErrServiceBusy, err)
	}
	return zero, err
}
