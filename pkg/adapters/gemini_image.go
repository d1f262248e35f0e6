package adapters

import (
	"context"
	"fmt"

	imagedom "github.com/shouni/gemini-image-kit/ports"
)

// PanelAspectRatio は縦スクロール向け単体パネルの推奨アスペクト比です。
const PanelAspectRatio = "4:5"

// GeminiImageSynthesizer は gemini-image-kit を用いた ImageSynthesizer 実装です。
type GeminiImageSynthesizer struct {
	generator imagedom.ImageGenerator
}

// NewGeminiImageSynthesizer は Gemini ベースの画像合成アダプターを初期化します。
func NewGeminiImageSynthesizer(gen imagedom.ImageGenerator) *GeminiImageSynthesizer {
	return &GeminiImageSynthesizer{generator: gen}
}

// Synthesize は1枚の画像を合成します。モデレーション拒否は
// domain.ErrModerationRejected として返り、呼び出し側のフォールバック
// チェーンを次の段へ進めます。
func (gi *GeminiImageSynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = PanelAspectRatio
	}

	resp, err := gi.generator.GenerateMangaPanel(ctx, imagedom.ImagePanelRequest{
		GenerationOptions: imagedom.GenerationOptions{
			Prompt:         req.Prompt,
			SystemPrompt:   req.SystemPrompt,
			NegativePrompt: req.NegativePrompt,
			AspectRatio:    aspect,
			Seed:           req.Seed,
		},
	})
	if err != nil {
		return nil, classifyError(fmt.Errorf("画像合成サービスの呼び出しに失敗しました: %w", err))
	}

	return &SynthesisResult{
		Data:     resp.Data,
		MimeType: resp.MimeType,
	}, nil
}
