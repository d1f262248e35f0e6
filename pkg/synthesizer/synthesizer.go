// Package synthesizer はパネル1枚分の画像合成を担います。
// モデレーション拒否に対しては 元プロンプト → 語彙置換 → 汎用構図 の
// 3段フォールバックチェーンを厳密な順序で辿り、最初に成功した段で停止します。
package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-toonplay-kit/pkg/adapters"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/prompts"
	"github.com/shouni/go-toonplay-kit/pkg/retry"
)

// DefaultAttemptTimeout は1回の合成試行あたりのタイムアウトです。
// ラン全体のタイムアウトとは独立しています。
const DefaultAttemptTimeout = 90 * time.Second

// stages はフォールバックチェーンの固定順序です。
var stages = []domain.GenerationStage{
	domain.StageOriginal,
	domain.StageSanitized,
	domain.StageGeneric,
}

// Optimizer は合成済み画像から配信用バリアント行列を導出する契約です。
type Optimizer interface {
	Optimize(ctx context.Context, src []byte, sceneID uint, panelNumber int) (domain.ImageVariantSet, error)
}

// SynthesizeRequest はパネル1枚分の合成要求です。
type SynthesizeRequest struct {
	SceneID    uint
	Spec       domain.PanelSpec
	Characters domain.CharactersMap
	Genre      string
}

// PanelSynthesizer はフォールバックチェーンと一過性エラーのリトライを実装します。
// プロンプトは要求ごとのロスターから組み立てるため、パネルやシーンを
// またいだ状態は一切持ちません。
type PanelSynthesizer struct {
	image          adapters.ImageSynthesizer
	optimizer      Optimizer
	styleSuffix    string
	policy         retry.Policy
	aspectRatio    string
	attemptTimeout time.Duration
}

// Option は PanelSynthesizer の挙動を調整します。
type Option func(*PanelSynthesizer)

// WithRetryPolicy は段ごとのリトライポリシーを差し替えます。
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *PanelSynthesizer) { s.policy = p }
}

// WithAspectRatio はパネルのアスペクト比を差し替えます。
func WithAspectRatio(ar string) Option {
	return func(s *PanelSynthesizer) { s.aspectRatio = ar }
}

// WithStyleSuffix は全パネル共通のスタイル指定を差し替えます。
func WithStyleSuffix(suffix string) Option {
	return func(s *PanelSynthesizer) { s.styleSuffix = suffix }
}

// WithAttemptTimeout は1試行あたりのタイムアウトを差し替えます。
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *PanelSynthesizer) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// New は PanelSynthesizer を初期化します。
func New(image adapters.ImageSynthesizer, opt Optimizer, opts ...Option) *PanelSynthesizer {
	policy := retry.DefaultPolicy()
	// モデレーション拒否は同じ段ではリトライせず、即座に次の段へ進めます
	policy.Permanent = func(err error) bool {
		return errors.Is(err, domain.ErrModerationRejected)
	}

	s := &PanelSynthesizer{
		image:          image,
		optimizer:      opt,
		policy:         policy,
		aspectRatio:    adapters.PanelAspectRatio,
		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.policy.Permanent == nil {
		s.policy.Permanent = func(err error) bool {
			return errors.Is(err, domain.ErrModerationRejected)
		}
	}
	return s
}

// Synthesize はパネル1枚を合成し、バリアント行列まで含めた Panel を組み立てます。
// 永続化は行いません（それは Orchestrator の責務です）。
func (s *PanelSynthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*domain.Panel, error) {
	spec := req.Spec
	logger := slog.With("scene_id", req.SceneID, "panel", spec.Ordinal)
	promptBuilder := prompts.NewImagePromptBuilder(req.Characters, s.styleSuffix)

	var lastErr error
	for _, stage := range stages {
		userPrompt, systemPrompt, seed := promptBuilder.BuildStage(stage, spec, req.Genre)

		result, err := s.synthesizeStage(ctx, userPrompt, systemPrompt, seed)
		if err != nil {
			if errors.Is(err, domain.ErrModerationRejected) {
				// GenerationAttempt の記録はログのみで、永続化はしません
				logger.Warn("モデレーション拒否により次の段へフォールバックします",
					"stage", stage.String())
				lastErr = err
				continue
			}
			return nil, &domain.SynthesisError{PanelNumber: spec.Ordinal, Stage: stage, Err: err}
		}

		variants, err := s.optimizer.Optimize(ctx, result.Data, req.SceneID, spec.Ordinal)
		if err != nil {
			// 部分的なバリアント集合は保存できないため、合成失敗として扱い
			// 呼び出し側にパネル全体の再試行を委ねます
			return nil, &domain.SynthesisError{PanelNumber: spec.Ordinal, Stage: stage, Err: err}
		}

		logger.Info("パネル画像を合成しました", "stage", stage.String(), "variants", len(variants))
		return s.assemblePanel(req, userPrompt, variants), nil
	}

	return nil, &domain.SynthesisError{
		PanelNumber: spec.Ordinal,
		Stage:       domain.StageGeneric,
		Err:         fmt.Errorf("全フォールバック段が拒否されました: %w", lastErr),
	}
}

// synthesizeStage は1段分の合成を行います。一過性のエラーはポリシーに従って
// 同じ段の中でリトライされ、モデレーション拒否は即座に返ります。
func (s *PanelSynthesizer) synthesizeStage(ctx context.Context, userPrompt, systemPrompt string, seed int64) (*adapters.SynthesisResult, error) {
	var result *adapters.SynthesisResult
	err := s.policy.Do(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		var callErr error
		result, callErr = s.image.Synthesize(attemptCtx, adapters.SynthesisRequest{
			Prompt:         userPrompt,
			SystemPrompt:   systemPrompt,
			NegativePrompt: prompts.NegativePanelPrompt,
			AspectRatio:    s.aspectRatio,
			Seed:           &seed,
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// assemblePanel は構成案・画像参照・バリアント集合から最終レコードを組み立てます。
func (s *PanelSynthesizer) assemblePanel(req SynthesizeRequest, prompt string, variants domain.ImageVariantSet) *domain.Panel {
	spec := req.Spec

	// キャラクター不在のパネルでのみ地の文を設定します
	var narrative *string
	if len(spec.Characters) == 0 {
		text := spec.VisualDescription
		narrative = &text
	}

	return &domain.Panel{
		SceneID:           req.SceneID,
		PanelNumber:       spec.Ordinal,
		ShotType:          spec.ShotType,
		NarrativeText:     narrative,
		VisualDescription: spec.VisualDescription,
		Dialogue:          spec.Dialogue,
		Sfx:               spec.Sfx,
		Variants:          variants,
		ImageURL:          primaryURL(variants),
		Metadata: domain.PanelMetadata{
			Prompt:       prompt,
			CharacterIDs: spec.Characters,
			CameraAngle:  spec.CameraAngle,
			Mood:         spec.Mood,
			GeneratedAt:  time.Now().UTC(),
		},
	}
}

// primaryURL は配信時の代表バリアント（高解像度 JPEG 優先）を選びます。
func primaryURL(variants domain.ImageVariantSet) string {
	if v, ok := variants.Find(domain.FormatJPEG, domain.TierHigh); ok {
		return v.URL
	}
	if len(variants) > 0 {
		return variants[0].URL
	}
	return ""
}
