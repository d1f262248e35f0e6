package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(attempts uint64) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestPolicy_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("成功するまでリトライされること", func(t *testing.T) {
		calls := 0
		err := testPolicy(3).Do(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("成功すべき処理がエラーになりました: %v", err)
		}
		if calls != 3 {
			t.Errorf("期待する試行回数 3, 実際 %d", calls)
		}
	})

	t.Run("試行回数の上限で打ち切られること", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("always failing")
		err := testPolicy(3).Do(ctx, func() error {
			calls++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("元のエラーが返るべきです: %v", err)
		}
		if calls != 3 {
			t.Errorf("期待する試行回数 3, 実際 %d", calls)
		}
	})

	t.Run("Permanentなエラーは一度も再試行されないこと", func(t *testing.T) {
		permErr := errors.New("moderation rejected")
		p := testPolicy(5)
		p.Permanent = func(err error) bool { return errors.Is(err, permErr) }

		calls := 0
		err := p.Do(ctx, func() error {
			calls++
			return permErr
		})
		if !errors.Is(err, permErr) {
			t.Fatalf("Permanentなエラーがそのまま返るべきです: %v", err)
		}
		if calls != 1 {
			t.Errorf("期待する試行回数 1, 実際 %d", calls)
		}
	})

	t.Run("コンテキストのキャンセルでリトライが停止すること", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		calls := 0
		err := testPolicy(10).Do(cancelCtx, func() error {
			calls++
			cancel()
			return errors.New("transient")
		})
		if err == nil {
			t.Fatal("キャンセル後はエラーが返るべきです")
		}
		if calls > 2 {
			t.Errorf("キャンセル後もリトライが続いています: %d 回", calls)
		}
	})
}
