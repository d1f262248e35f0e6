// Package pacing は、物語の「間」の分類を縦スクロール用の
// 垂直スペース（ガター）へ写像するページネーション計算を提供します。
package pacing

import (
	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

const (
	// GutterContinuous は連続アクション向けの狭いガターです（200〜300pxの代表値）。
	GutterContinuous = 250
	// GutterBeatChange は話の区切り向けの中間のガターです（400〜600pxの代表値）。
	GutterBeatChange = 500
	// GutterSceneTransition は場面転換向けの広いガターです（800〜1000pxの代表値）。
	GutterSceneTransition = 900

	// DefaultPanelHeight はパネル1枚分の表示高さ（ピクセル）です。
	DefaultPanelHeight = 1280
)

// Calculator は BeatTransition からガター値を引く固定ルックアップテーブルです。
// ゼロ値でも動くよう、未設定の値はデフォルトにフォールバックします。
type Calculator struct {
	Continuous      int
	BeatChange      int
	SceneTransition int
	PanelHeight     int
}

// NewCalculator は推奨デフォルトのテーブルを持つ Calculator を返します。
func NewCalculator() *Calculator {
	return &Calculator{
		Continuous:      GutterContinuous,
		BeatChange:      GutterBeatChange,
		SceneTransition: GutterSceneTransition,
		PanelHeight:     DefaultPanelHeight,
	}
}

// GutterAfter は分類に対応するガター値（ピクセル）を返します。
// 未定義の分類には ErrUnknownBeatTransition を返します。
func (c *Calculator) GutterAfter(t domain.BeatTransition) (int, error) {
	switch t {
	case domain.TransitionContinuous:
		return c.valueOr(c.Continuous, GutterContinuous), nil
	case domain.TransitionBeatChange:
		return c.valueOr(c.BeatChange, GutterBeatChange), nil
	case domain.TransitionScene:
		return c.valueOr(c.SceneTransition, GutterSceneTransition), nil
	default:
		return 0, domain.ErrUnknownBeatTransition
	}
}

// TotalHeight はパネル列全体のレイアウト高さを返します。
// 各パネルの表示高さに GutterAfter を加算しますが、最後のパネルの
// 後ろにはガターを置きません。
func (c *Calculator) TotalHeight(panels []domain.Panel) int {
	height := 0
	panelHeight := c.valueOr(c.PanelHeight, DefaultPanelHeight)

	for i, p := range panels {
		height += panelHeight
		if i < len(panels)-1 {
			height += p.GutterAfter
		}
	}
	return height
}

func (c *Calculator) valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
