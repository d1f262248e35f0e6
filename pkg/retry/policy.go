// Package retry は Converter と Synthesizer が共有するリトライポリシーを提供します。
// マジックナンバーのスリープをコード中に散らさず、ポリシーオブジェクトとして
// 注入することで、ネットワーク挙動と切り離してテストできるようにします。
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts は1段あたりの最大試行回数です。
	DefaultMaxAttempts = 3
	// DefaultBaseDelay は指数バックオフの初期間隔です。
	DefaultBaseDelay = 2 * time.Second
)

// Policy は指数バックオフ付きリトライの設定です。
type Policy struct {
	// MaxAttempts は初回を含む試行回数の上限です。
	MaxAttempts uint64
	// BaseDelay は初回リトライまでの基本待ち時間です。
	BaseDelay time.Duration
	// Permanent は「リトライしてはいけない」エラー分類を判定します。
	// 例: モデレーション拒否はリトライせず即座にフォールバック段へ進みます。
	Permanent func(error) bool
}

// DefaultPolicy は推奨されるデフォルト設定を返します。
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Do は op をポリシーに従って実行します。
// Permanent と判定されたエラーは即座にそのまま返します。
func (p Policy) Do(ctx context.Context, op func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	b := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		b.InitialInterval = p.BaseDelay
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx))
}
