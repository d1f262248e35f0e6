// Package converter はシーンの散文を検証済みの PanelSpec 列へ変換します。
// 構造抽出は外部の構造化サービスに委譲しますが、検証はこのパッケージが
// 所有します。
package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-toonplay-kit/pkg/adapters"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/prompts"
	"github.com/shouni/go-toonplay-kit/pkg/retry"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// DefaultMaxValidationAttempts は検証失敗時にコラボレーター呼び出しを
// やり直す回数の上限（初回を含む）です。
const DefaultMaxValidationAttempts = 3

// ConvertRequest は変換1回分の入力です。
type ConvertRequest struct {
	SceneText  string
	Characters domain.CharactersMap
	Setting    string
	Genre      string
	// TargetPanelCount は任意の目標パネル数です（0 は未指定）。
	TargetPanelCount int
}

// ToonplayConverter は構造化サービスの応答を検証し、境界を強制します。
type ToonplayConverter struct {
	structurer    adapters.TextStructurer
	promptBuilder prompts.StructurePrompt
	policy        retry.Policy
	countRange    domain.PanelCountRange
	maxAttempts   int
}

// Option は ToonplayConverter の挙動を調整します。
type Option func(*ToonplayConverter)

// WithPanelCountRange はパネル数の許容範囲を差し替えます。
func WithPanelCountRange(r domain.PanelCountRange) Option {
	return func(c *ToonplayConverter) { c.countRange = r }
}

// WithRetryPolicy はサービス呼び出しのリトライポリシーを差し替えます。
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *ToonplayConverter) { c.policy = p }
}

// WithMaxValidationAttempts は検証リトライの上限を差し替えます。
func WithMaxValidationAttempts(n int) Option {
	return func(c *ToonplayConverter) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// New は ToonplayConverter を初期化します。
func New(structurer adapters.TextStructurer, pb prompts.StructurePrompt, opts ...Option) *ToonplayConverter {
	policy := retry.DefaultPolicy()
	// モデレーション拒否は同じプロンプトを何度送っても通らないため、
	// バックオフせず即座に打ち切ります
	policy.Permanent = isModerationRejected

	c := &ToonplayConverter{
		structurer:    structurer,
		promptBuilder: pb,
		policy:        policy,
		countRange:    domain.DefaultPanelCountRange,
		maxAttempts:   DefaultMaxValidationAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.Permanent == nil {
		c.policy.Permanent = isModerationRejected
	}
	return c
}

func isModerationRejected(err error) bool {
	return errors.Is(err, domain.ErrModerationRejected)
}

// Convert はシーン本文をパネル構成案のリストへ変換します。
// 検証を通らない応答は上限回数までやり直し、使い切った場合は
// 違反理由をすべて列挙した StructureValidationError を返します。
func (c *ToonplayConverter) Convert(ctx context.Context, req ConvertRequest) (domain.PanelSpecs, error) {
	if strings.TrimSpace(req.SceneText) == "" {
		return nil, fmt.Errorf("%w: シーン本文が空です", domain.ErrInvalidRange)
	}
	if req.TargetPanelCount != 0 && !c.countRange.Contains(req.TargetPanelCount) {
		return nil, fmt.Errorf("%w: 目標パネル数 %d は [%d, %d] の範囲外です",
			domain.ErrInvalidRange, req.TargetPanelCount, c.countRange.Min, c.countRange.Max)
	}

	prompt, err := c.promptBuilder.Build(prompts.StructureData{
		SceneText:        req.SceneText,
		Roster:           prompts.FormatRoster(req.Characters),
		Setting:          req.Setting,
		Genre:            req.Genre,
		MinPanels:        c.countRange.Min,
		MaxPanels:        c.countRange.Max,
		TargetPanelCount: req.TargetPanelCount,
		Schema:           prompts.PanelListSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("構造化プロンプトの生成に失敗しました: %w", err)
	}

	var lastReasons []string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		specs, reasons, err := c.structureOnce(ctx, prompt, req.Characters)
		if err != nil {
			return nil, err
		}
		if len(reasons) == 0 {
			c.warnSoftCaps(specs)
			return specs, nil
		}

		lastReasons = reasons
		slog.WarnContext(ctx, "構造化結果が検証を通りませんでした",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"reasons", strings.Join(reasons, "; "),
		)
	}

	return nil, &domain.StructureValidationError{Reasons: lastReasons}
}

// structureOnce は1回分の呼び出しと検証を行います。
// 一過性のサービスエラーはポリシーに従って内部でリトライされます。
func (c *ToonplayConverter) structureOnce(ctx context.Context, prompt string, chars domain.CharactersMap) (domain.PanelSpecs, []string, error) {
	var raw string
	err := c.policy.Do(ctx, func() error {
		var callErr error
		raw, callErr = c.structurer.Structure(ctx, prompt, prompts.PanelListSchema)
		return callErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("構造化サービスの呼び出しに失敗しました: %w", err)
	}

	specs, err := parseResponse(raw)
	if err != nil {
		// パース不能は「不正な構造」の一種として検証リトライの対象にします
		return nil, []string{err.Error()}, nil
	}

	reasons := c.validate(specs, chars)
	return specs, reasons, nil
}

// parseResponse は応答本文から JSON を抽出してパネル構成案へ変換します。
func parseResponse(raw string) (domain.PanelSpecs, error) {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		// フォールバック1: 最外周の JSON オブジェクトを探す
		firstBracket := strings.Index(raw, "{")
		lastBracket := strings.LastIndex(raw, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			rawJSON = raw[firstBracket : lastBracket+1]
		} else {
			// フォールバック2: 応答全体を JSON とみなす
			rawJSON = raw
		}
	}

	var parsed struct {
		Panels domain.PanelSpecs `json:"panels"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return nil, fmt.Errorf("応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	return parsed.Panels, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
