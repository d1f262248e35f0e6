package domain

import (
	"errors"
	"fmt"
	"strings"
)

// パイプライン全体で共有されるエラー分類です。
// 一過性のサービスエラーは Converter / Synthesizer の内部でリトライされ、
// ここに定義されたものだけが呼び出し元へ伝播します。
var (
	// ErrInvalidRange は目標パネル数が許容範囲外であることを示します。
	ErrInvalidRange = errors.New("toonplay: target panel count outside the allowed range")

	// ErrModerationRejected は画像生成側のコンテンツモデレーション拒否です。
	// フォールバックチェーンを駆動する内部エラーで、Synthesizer の外には出ません。
	ErrModerationRejected = errors.New("toonplay: prompt rejected by content moderation")

	// ErrRegenerationInProgress は同一シーンの再生成が進行中であることを示します。
	ErrRegenerationInProgress = errors.New("toonplay: regeneration already in progress for this scene")

	// ErrRunTimeout はラン全体のタイムアウト超過です。
	ErrRunTimeout = errors.New("toonplay: generation run exceeded its overall timeout")

	// ErrUnknownBeatTransition は未定義の BeatTransition 入力です。
	ErrUnknownBeatTransition = errors.New("toonplay: unknown beat transition")
)

// StructureValidationError は、リトライを使い切っても構造化結果が
// 検証を通らなかったことを示します。違反した理由をすべて列挙します。
type StructureValidationError struct {
	Reasons []string
}

func (e *StructureValidationError) Error() string {
	return fmt.Sprintf("toonplay: structure validation failed: %s", strings.Join(e.Reasons, "; "))
}

// SynthesisError は全フォールバック段を使い切った合成失敗です。
type SynthesisError struct {
	PanelNumber int
	Stage       GenerationStage
	Err         error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("toonplay: synthesis failed for panel %d (stage %s): %v", e.PanelNumber, e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// OptimizationError はバリアント行列の導出が全体として失敗したことを示します。
// 部分的なバリアント集合が保存されることはありません。
type OptimizationError struct {
	Format ImageFormat
	Tier   ResolutionTier
	Err    error
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("toonplay: variant optimization failed (%s/%s): %v", e.Format, e.Tier, e.Err)
}

func (e *OptimizationError) Unwrap() error { return e.Err }

// PartialGenerationError は一部のパネルが合成に失敗したことを示します。
// 失敗したパネル番号を列挙します。部分集合が永続化されることはありません。
type PartialGenerationError struct {
	FailedPanels []int
	Errs         map[int]error
}

func (e *PartialGenerationError) Error() string {
	nums := make([]string, len(e.FailedPanels))
	for i, n := range e.FailedPanels {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("toonplay: generation failed for panels [%s]; nothing was persisted", strings.Join(nums, ", "))
}
