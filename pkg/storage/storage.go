// Package storage は生成画像の配信用オブジェクトストレージを抽象化します。
package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

// ObjectStore はオブジェクトストレージサービスへのポートです。
// 保存されたオブジェクトは公開 URL で読み出せます。
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

// ExtensionFor はフォーマットに対応するファイル拡張子を返します。
func ExtensionFor(f domain.ImageFormat) string {
	switch f {
	case domain.FormatPNG:
		return ".png"
	default:
		return ".jpg"
	}
}

// ContentTypeFor はフォーマットに対応する MIME タイプを返します。
func ContentTypeFor(f domain.ImageFormat) string {
	switch f {
	case domain.FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// VariantKey はバリアント画像のオブジェクトキーを組み立てます。
// 例: scenes/12/panels/panel_03_standard.jpg
func VariantKey(sceneID uint, panelNumber int, tier domain.ResolutionTier, format domain.ImageFormat) string {
	name := fmt.Sprintf("panel_%02d_%s%s", panelNumber, tier, ExtensionFor(format))
	return path.Join("scenes", fmt.Sprintf("%d", sceneID), "panels", name)
}
