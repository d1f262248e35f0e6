// Package pipeline はシーン1つ分の生成ランをオーケストレートする司令塔です。
// 構造化 → 並列画像合成 → ペーシング → トランザクション永続化 の順で進み、
// 途中で失敗したランは一切永続化しません（all-or-nothing）。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	kitconfig "github.com/shouni/go-toonplay-kit/pkg/config"
	"github.com/shouni/go-toonplay-kit/pkg/converter"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/pacing"
	"github.com/shouni/go-toonplay-kit/pkg/synthesizer"
)

const (
	// DefaultConcurrency は同時に合成するパネル数の上限です。
	DefaultConcurrency = 4
	// DefaultRateInterval は画像生成リクエストの最小間隔です。
	DefaultRateInterval = 2 * time.Second
	// DefaultRunTimeout はラン全体のタイムアウトです。
	DefaultRunTimeout = 15 * time.Minute
)

// Converter はシーン本文を検証済みのパネル構成案へ変換する契約です。
type Converter interface {
	Convert(ctx context.Context, req converter.ConvertRequest) (domain.PanelSpecs, error)
}

// Synthesizer はパネル1枚分の画像合成とバリアント導出を行う契約です。
type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesizer.SynthesizeRequest) (*domain.Panel, error)
}

// SceneStore はシーンの読み出しとパネル集合の一括置換を行う契約です。
type SceneStore interface {
	GetScene(ctx context.Context, id uint) (*domain.Scene, error)
	ReplacePanelSet(ctx context.Context, sceneID uint, panels []domain.Panel) error
}

// Orchestrator はシーン単位の生成ランを実行します。
// 同一シーンに対するランは常に1つしか走りません。
type Orchestrator struct {
	converter   Converter
	synthesizer Synthesizer
	store       SceneStore
	pacing      *pacing.Calculator

	concurrency  int
	rateInterval time.Duration
	runTimeout   time.Duration

	inflight inflightRegistry
}

// Option は Orchestrator の挙動を調整します。
type Option func(*Orchestrator)

// WithConcurrency は並列合成数の上限を差し替えます。
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateInterval は画像生成リクエストの最小間隔を差し替えます。
// 0 を渡すとレート制限なしで動きます。
func WithRateInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.rateInterval = d }
}

// WithRunTimeout はラン全体のタイムアウトを差し替えます。
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

// WithPacingCalculator はガター計算テーブルを差し替えます。
func WithPacingCalculator(c *pacing.Calculator) Option {
	return func(o *Orchestrator) { o.pacing = c }
}

// New は Orchestrator を初期化します。
func New(conv Converter, synth Synthesizer, store SceneStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		converter:    conv,
		synthesizer:  synth,
		store:        store,
		pacing:       pacing.NewCalculator(),
		concurrency:  DefaultConcurrency,
		rateInterval: DefaultRateInterval,
		runTimeout:   DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewWithConfig はライブラリ設定の値を各オプションへ展開して組み立てます。
func NewWithConfig(conv Converter, synth Synthesizer, store SceneStore, cfg kitconfig.Config) *Orchestrator {
	return New(conv, synth, store,
		WithConcurrency(cfg.Concurrency),
		WithRateInterval(cfg.RateInterval),
		WithRunTimeout(cfg.RunTimeout),
	)
}

// GenerateOptions はラン1回分の指定です。
type GenerateOptions struct {
	// TargetPanelCount は任意の目標パネル数です（0 は未指定）。
	TargetPanelCount int
	// Progress が非nilなら、ランの進行に応じてイベントが届きます。
	Progress ProgressFunc
}

// GeneratePanels はシーン1つ分のランを実行し、永続化済みのパネル列を返します。
// 1枚でも合成に失敗したランは永続化せず PartialGenerationError を返します。
func (o *Orchestrator) GeneratePanels(ctx context.Context, sceneID uint, opts GenerateOptions) ([]domain.Panel, error) {
	if !o.inflight.tryAcquire(sceneID) {
		return nil, fmt.Errorf("%w (scene_id=%d)", domain.ErrRegenerationInProgress, sceneID)
	}
	defer o.inflight.release(sceneID)

	runCtx := ctx
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	// ランIDはログの突き合わせ用。永続化はしない
	logger := slog.With("scene_id", sceneID, "run_id", uuid.NewString())
	started := time.Now()

	scene, err := o.store.GetScene(runCtx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("シーンの読み出しに失敗しました: %w", err)
	}
	chars := domain.BuildCharactersMap(scene.Characters)

	emit(opts.Progress, ProgressEvent{Phase: PhaseStructuring})
	specs, err := o.converter.Convert(runCtx, converter.ConvertRequest{
		SceneText:        scene.Text,
		Characters:       chars,
		Setting:          scene.Setting,
		Genre:            scene.Genre,
		TargetPanelCount: opts.TargetPanelCount,
	})
	if err != nil {
		return nil, o.wrapRunErr(runCtx, err)
	}
	logger.Info("構成案が確定しました", "panels", len(specs))

	panels, failed := o.synthesizeAll(runCtx, scene, chars, specs, opts.Progress)

	// キャンセル・タイムアウトされたランは結果を破棄します
	if err := runCtx.Err(); err != nil {
		return nil, o.wrapRunErr(runCtx, err)
	}
	if len(failed) > 0 {
		nums := make([]int, 0, len(failed))
		for n := range failed {
			nums = append(nums, n)
		}
		sort.Ints(nums)
		logger.Error("一部のパネルが合成に失敗したため永続化を中止します", "failed_panels", nums)
		return nil, &domain.PartialGenerationError{FailedPanels: nums, Errs: failed}
	}

	result := make([]domain.Panel, len(panels))
	for i, p := range panels {
		result[i] = *p
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PanelNumber < result[j].PanelNumber })

	emit(opts.Progress, ProgressEvent{Phase: PhasePacing, Completed: len(result), Total: len(result)})
	if err := o.applyPacing(result, specs); err != nil {
		return nil, err
	}

	emit(opts.Progress, ProgressEvent{Phase: PhasePersisting, Completed: len(result), Total: len(result)})
	if err := o.store.ReplacePanelSet(runCtx, sceneID, result); err != nil {
		return nil, fmt.Errorf("パネル集合の置換に失敗しました: %w", err)
	}

	logger.Info("生成ランが完了しました",
		"panels", len(result),
		"total_height", o.pacing.TotalHeight(result),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	emit(opts.Progress, ProgressEvent{Phase: PhaseCompleted, Completed: len(result), Total: len(result)})
	return result, nil
}

// synthesizeAll はパネルを並列に合成します。fail-fast はせず、
// 失敗したパネル番号とエラーをすべて収集して返します。
func (o *Orchestrator) synthesizeAll(
	ctx context.Context,
	scene *domain.Scene,
	chars domain.CharactersMap,
	specs domain.PanelSpecs,
	progress ProgressFunc,
) ([]*domain.Panel, map[int]error) {
	panels := make([]*domain.Panel, len(specs))
	failed := make(map[int]error)

	var (
		mu        sync.Mutex
		completed int
	)

	var limiter *rate.Limiter
	if o.rateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(o.rateInterval), 1)
	}

	var eg errgroup.Group
	eg.SetLimit(o.concurrency)

	for i, spec := range specs {
		i, spec := i, spec
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
			}

			panel, err := o.synthesizer.Synthesize(ctx, synthesizer.SynthesizeRequest{
				SceneID:    scene.ID,
				Spec:       spec,
				Characters: chars,
				Genre:      scene.Genre,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[spec.Ordinal] = err
				return nil
			}
			panels[i] = panel
			completed++
			emit(progress, ProgressEvent{
				Phase:       PhaseSynthesizing,
				PanelNumber: spec.Ordinal,
				Completed:   completed,
				Total:       len(specs),
			})
			return nil
		})
	}
	// ワーカーは常に nil を返すため、待つだけでよい
	_ = eg.Wait()

	return panels, failed
}

// applyPacing は隣接パネル間のガターを割り当てます。
// パネル i の遷移分類が、パネル i から次のパネルへの「間」を決めます。
// 末尾のパネルの後ろにはガターを置きません。
func (o *Orchestrator) applyPacing(panels []domain.Panel, specs domain.PanelSpecs) error {
	for i := range panels {
		if i == len(panels)-1 {
			panels[i].GutterAfter = 0
			continue
		}
		gutter, err := o.pacing.GutterAfter(specs[i].Transition)
		if err != nil {
			return fmt.Errorf("パネル %d のガター計算に失敗しました: %w", panels[i].PanelNumber, err)
		}
		panels[i].GutterAfter = gutter
	}
	return nil
}

// wrapRunErr はラン自身のタイムアウト超過を ErrRunTimeout へ写像します。
func (o *Orchestrator) wrapRunErr(runCtx context.Context, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrRunTimeout, err)
	}
	return err
}
