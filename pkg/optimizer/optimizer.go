// Package optimizer は1枚のソース画像から配信用バリアント行列
// （フォーマット × 解像度ティア）を決定論的に導出します。
package optimizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/storage"
)

const (
	// DefaultJPEGQuality は JPEG エンコードの品質です。
	DefaultJPEGQuality = 85

	// StandardWidth は標準ティアの目標幅（ピクセル）です。
	StandardWidth = 720
	// HighWidth は高解像度ティアの目標幅（ピクセル）です。
	HighWidth = 1440
)

// TierSpec は解像度ティアとその目標幅の組です。
type TierSpec struct {
	Tier  domain.ResolutionTier
	Width int
}

// Config はバリアント行列の不変の設定です（デフォルト 2×2=4）。
type Config struct {
	Formats     []domain.ImageFormat
	Tiers       []TierSpec
	JPEGQuality int
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		Formats: domain.DefaultFormats,
		Tiers: []TierSpec{
			{Tier: domain.TierStandard, Width: StandardWidth},
			{Tier: domain.TierHigh, Width: HighWidth},
		},
		JPEGQuality: DefaultJPEGQuality,
	}
}

// VariantOptimizer はソース画像のバイト列と固定設定から
// 正確に formats × tiers 件のバリアントを導出します。
type VariantOptimizer struct {
	store storage.ObjectStore
	cfg   Config
}

// New は VariantOptimizer を初期化します。
func New(store storage.ObjectStore, cfg Config) *VariantOptimizer {
	if len(cfg.Formats) == 0 || len(cfg.Tiers) == 0 {
		cfg = DefaultConfig()
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = DefaultJPEGQuality
	}
	return &VariantOptimizer{store: store, cfg: cfg}
}

// Optimize はソース画像をデコードし、各ティアへリサイズのうえ各フォーマットで
// 再エンコードしてアップロードします。1件でも失敗した場合は全体を失敗として
// 扱い、部分的なバリアント集合は決して返しません。
func (o *VariantOptimizer) Optimize(ctx context.Context, src []byte, sceneID uint, panelNumber int) (domain.ImageVariantSet, error) {
	srcImg, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &domain.OptimizationError{Err: fmt.Errorf("ソース画像のデコードに失敗しました: %w", err)}
	}

	bounds := srcImg.Bounds()
	slog.DebugContext(ctx, "バリアント導出を開始します",
		"panel", panelNumber,
		"source_format", format,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
	)

	variants := make(domain.ImageVariantSet, 0, len(o.cfg.Formats)*len(o.cfg.Tiers))

	for _, tier := range o.cfg.Tiers {
		scaled := o.scaleToTier(srcImg, tier.Width)
		w := scaled.Bounds().Dx()
		h := scaled.Bounds().Dy()

		for _, f := range o.cfg.Formats {
			encoded, err := o.encode(scaled, f)
			if err != nil {
				return nil, &domain.OptimizationError{Format: f, Tier: tier.Tier, Err: err}
			}

			key := storage.VariantKey(sceneID, panelNumber, tier.Tier, f)
			url, err := o.store.Put(ctx, key, encoded, storage.ContentTypeFor(f))
			if err != nil {
				return nil, &domain.OptimizationError{Format: f, Tier: tier.Tier, Err: err}
			}

			variants = append(variants, domain.ImageVariant{
				Format:   f,
				Tier:     tier.Tier,
				Width:    w,
				Height:   h,
				ByteSize: len(encoded),
				URL:      url,
			})
		}
	}

	formats := make([]domain.ImageFormat, len(o.cfg.Formats))
	copy(formats, o.cfg.Formats)
	tiers := make([]domain.ResolutionTier, 0, len(o.cfg.Tiers))
	for _, t := range o.cfg.Tiers {
		tiers = append(tiers, t.Tier)
	}
	if !variants.IsComplete(formats, tiers) {
		return nil, &domain.OptimizationError{Err: fmt.Errorf("バリアント集合が不完全です (%d 件)", len(variants))}
	}

	return variants, nil
}

// scaleToTier はアスペクト比を保ってティアの目標幅へ縮小します。
// ソースが目標より小さい場合は補間で引き伸ばさず、そのまま使います。
func (o *VariantOptimizer) scaleToTier(src image.Image, targetWidth int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	if srcW <= targetWidth {
		return src
	}

	targetHeight := int(math.Round(float64(srcH) * float64(targetWidth) / float64(srcW)))
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func (o *VariantOptimizer) encode(img image.Image, f domain.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case domain.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("PNGエンコードに失敗しました: %w", err)
		}
	case domain.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.cfg.JPEGQuality}); err != nil {
			return nil, fmt.Errorf("JPEGエンコードに失敗しました: %w", err)
		}
	default:
		return nil, fmt.Errorf("未対応のフォーマットです: %s", f)
	}
	return buf.Bytes(), nil
}
