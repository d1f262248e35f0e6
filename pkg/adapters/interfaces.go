// Package adapters は外部コラボレーターへのポートと、その Gemini 実装を提供します。
// パイプライン本体はここで定義されたインターフェースにのみ依存します。
package adapters

import (
	"context"
)

// TextStructurer は台本構造化サービスへのポートです。
// schema には応答を制約する JSON Schema を渡します。
// モデレーション拒否は domain.ErrModerationRejected として判別可能です。
type TextStructurer interface {
	Structure(ctx context.Context, prompt string, schema string) (string, error)
}

// SynthesisRequest は単一パネルの画像合成要求です。
type SynthesisRequest struct {
	Prompt         string
	SystemPrompt   string
	NegativePrompt string
	AspectRatio    string
	Seed           *int64
}

// SynthesisResult は合成された生画像です。
type SynthesisResult struct {
	Data     []byte
	MimeType string
}

// ImageSynthesizer は画像合成サービスへのポートです。
// モデレーション拒否（domain.ErrModerationRejected）は一般的なサービス
// エラーと必ず区別されます。この区別がフォールバックチェーンを駆動します。
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}
