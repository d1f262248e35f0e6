package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/gemini"
)

// GeminiStructurer は go-gemini-client を用いた TextStructurer 実装です。
type GeminiStructurer struct {
	client gemini.GenerativeModel
	model  string
}

// NewGeminiStructurer は Gemini ベースの構造化アダプターを初期化します。
func NewGeminiStructurer(client gemini.GenerativeModel, model string) *GeminiStructurer {
	return &GeminiStructurer{
		client: client,
		model:  model,
	}
}

// Structure はスキーマ付きプロンプトを Gemini へ送り、応答本文をそのまま返します。
// JSON の抽出と検証は呼び出し側（Converter）の責務です。
func (gs *GeminiStructurer) Structure(ctx context.Context, prompt string, schema string) (string, error) {
	// スキーマ制約はプロンプト側に埋め込み済みのことが多いため、
	// 未埋め込みの場合のみ末尾へ連結します。
	finalPrompt := prompt
	if schema != "" && !strings.Contains(prompt, schema) {
		finalPrompt = fmt.Sprintf("%s\n\nRespond ONLY with JSON conforming to this schema:\n%s", prompt, schema)
	}

	resp, err := gs.client.GenerateContent(ctx, finalPrompt, gs.model)
	if err != nil {
		return "", classifyError(fmt.Errorf("構造化サービスの呼び出しに失敗しました: %w", err))
	}
	return resp.Text, nil
}
