package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-toonplay-kit/pkg/adapters"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/retry"
)

// fakeImage は画像合成サービスのスクリプト化された代役です。
// errs を使い切った後の呼び出しはすべて成功します。
type fakeImage struct {
	errs    []error
	prompts []string
	calls   int
}

func (f *fakeImage) Synthesize(_ context.Context, req adapters.SynthesisRequest) (*adapters.SynthesisResult, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &adapters.SynthesisResult{Data: []byte("raw-image"), MimeType: "image/png"}, nil
}

// fakeOptimizer は固定のバリアント集合を返す代役です。
type fakeOptimizer struct {
	err   error
	calls int
}

func (f *fakeOptimizer) Optimize(_ context.Context, _ []byte, sceneID uint, panelNumber int) (domain.ImageVariantSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	set := domain.ImageVariantSet{}
	for _, format := range domain.DefaultFormats {
		for _, tier := range domain.DefaultTiers {
			set = append(set, domain.ImageVariant{
				Format: format, Tier: tier, Width: 720, Height: 900, ByteSize: 1000,
				URL: fmt.Sprintf("https://cdn.example.com/scenes/%d/panels/%d_%s.%s", sceneID, panelNumber, tier, format),
			})
		}
	}
	return set, nil
}

func moderationErr() error {
	return fmt.Errorf("%w: safety threshold exceeded", domain.ErrModerationRejected)
}

func testChars() domain.CharactersMap {
	return domain.BuildCharactersMap([]domain.Character{
		{ID: "mira", Name: "Mira", VisualCues: []string{"silver hair"}, Seed: 4242},
	})
}

func testRequest() SynthesizeRequest {
	return SynthesizeRequest{
		SceneID: 9,
		Spec: domain.PanelSpec{
			Ordinal:           2,
			ShotType:          domain.ShotMedium,
			VisualDescription: "Mira turns at the sound of footsteps",
			Characters:        []string{"mira"},
			CameraAngle:       "eye level",
			Transition:        domain.TransitionContinuous,
			Mood:              "uneasy",
		},
		Characters: testChars(),
		Genre:      "mystery",
	}
}

func newTestSynthesizer(img *fakeImage, opt *fakeOptimizer) *PanelSynthesizer {
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	return New(img, opt, WithRetryPolicy(policy), WithAttemptTimeout(time.Second))
}

func TestPanelSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("1段目で成功した場合は元プロンプトのままであること", func(t *testing.T) {
		img := &fakeImage{}
		opt := &fakeOptimizer{}
		panel, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())
		if err != nil {
			t.Fatalf("合成に失敗しました: %v", err)
		}

		if img.calls != 1 {
			t.Errorf("呼び出し回数の期待値 1, 実際 %d", img.calls)
		}
		if !strings.Contains(panel.Metadata.Prompt, "SUBJECT [Mira]") {
			t.Errorf("元プロンプトが使われるべきです: %q", panel.Metadata.Prompt)
		}
		if panel.PanelNumber != 2 || panel.SceneID != 9 {
			t.Errorf("パネルの基本属性が一致しません: %+v", panel)
		}
		if len(panel.Variants) != 4 {
			t.Errorf("バリアント数の期待値 4, 実際 %d", len(panel.Variants))
		}
		if panel.ImageURL == "" {
			t.Error("代表画像URLが設定されるべきです")
		}
		if panel.NarrativeText != nil {
			t.Error("キャラクターが映るパネルに地の文は不要です")
		}
	})

	t.Run("モデレーション拒否で段を順に進み3段目で成功すること", func(t *testing.T) {
		img := &fakeImage{errs: []error{moderationErr(), moderationErr()}}
		opt := &fakeOptimizer{}
		panel, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())
		if err != nil {
			t.Fatalf("3段目で成功すべきです: %v", err)
		}

		if img.calls != 3 {
			t.Fatalf("期待する呼び出し回数 3, 実際 %d", img.calls)
		}
		// 1段目: 元プロンプト、2段目: 置換済み、3段目: 汎用構図 の順であること
		if !strings.Contains(img.prompts[0], "SUBJECT [Mira]") {
			t.Errorf("1段目は元プロンプトであるべきです: %q", img.prompts[0])
		}
		if !strings.Contains(img.prompts[1], "SUBJECT [Mira]") {
			t.Errorf("2段目もキャラクター指定を保持すべきです: %q", img.prompts[1])
		}
		if strings.Contains(img.prompts[2], "Mira") {
			t.Errorf("3段目は固有性を捨てるべきです: %q", img.prompts[2])
		}
		if !strings.Contains(panel.Metadata.Prompt, "GENRE: mystery") {
			t.Errorf("返却されたパネルは3段目の記述を反映すべきです: %q", panel.Metadata.Prompt)
		}
	})

	t.Run("一過性エラーは同じ段の中で再試行されること", func(t *testing.T) {
		img := &fakeImage{errs: []error{errors.New("http 503")}}
		opt := &fakeOptimizer{}
		panel, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())
		if err != nil {
			t.Fatalf("再試行後に成功すべきです: %v", err)
		}

		if img.calls != 2 {
			t.Errorf("期待する呼び出し回数 2, 実際 %d", img.calls)
		}
		if !strings.Contains(panel.Metadata.Prompt, "SUBJECT [Mira]") {
			t.Error("再試行しても段は進まないべきです")
		}
	})

	t.Run("全段拒否されたらSynthesisErrorになること", func(t *testing.T) {
		img := &fakeImage{errs: []error{moderationErr(), moderationErr(), moderationErr()}}
		opt := &fakeOptimizer{}
		_, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())

		var synthErr *domain.SynthesisError
		if !errors.As(err, &synthErr) {
			t.Fatalf("SynthesisError が返るべきです: %v", err)
		}
		if synthErr.PanelNumber != 2 {
			t.Errorf("失敗したパネル番号が保持されるべきです: %d", synthErr.PanelNumber)
		}
		if opt.calls != 0 {
			t.Error("画像が得られていないのにオプティマイザーが呼ばれました")
		}
	})

	t.Run("一過性エラーがリトライ上限を超えたら失敗すること", func(t *testing.T) {
		img := &fakeImage{errs: []error{errors.New("503"), errors.New("503"), errors.New("503")}}
		opt := &fakeOptimizer{}
		_, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())

		var synthErr *domain.SynthesisError
		if !errors.As(err, &synthErr) {
			t.Fatalf("SynthesisError が返るべきです: %v", err)
		}
		// 一過性エラーでは段を進めない（MaxAttempts=2 で2回のみ）
		if img.calls != 2 {
			t.Errorf("期待する呼び出し回数 2, 実際 %d", img.calls)
		}
	})

	t.Run("オプティマイザー失敗は合成失敗として扱われること", func(t *testing.T) {
		img := &fakeImage{}
		opt := &fakeOptimizer{err: &domain.OptimizationError{Err: errors.New("storage down")}}
		_, err := newTestSynthesizer(img, opt).Synthesize(ctx, testRequest())

		var synthErr *domain.SynthesisError
		if !errors.As(err, &synthErr) {
			t.Fatalf("SynthesisError が返るべきです: %v", err)
		}
	})

	t.Run("キャラクター不在のパネルには地の文が設定されること", func(t *testing.T) {
		req := testRequest()
		req.Spec.Characters = nil
		img := &fakeImage{}
		panel, err := newTestSynthesizer(img, &fakeOptimizer{}).Synthesize(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		if panel.NarrativeText == nil || *panel.NarrativeText != req.Spec.VisualDescription {
			t.Error("キャラクター不在時は地の文が設定されるべきです")
		}
	})
}
