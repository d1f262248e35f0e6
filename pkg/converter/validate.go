package converter

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// softCaps は演出上のソフトキャップです。超過しても拒否はせず警告だけ出します。
var softCaps = map[domain.ShotType]int{
	domain.ShotEstablishing:   1,
	domain.ShotExtremeCloseUp: 2,
	domain.ShotOverShoulder:   2,
	domain.ShotDutchAngle:     1,
}

// validate は候補リストの違反をすべて列挙して返します。
// 空のスライスは「検証通過」を意味します。
func (c *ToonplayConverter) validate(specs domain.PanelSpecs, chars domain.CharactersMap) []string {
	var reasons []string

	if !c.countRange.Contains(len(specs)) {
		reasons = append(reasons, fmt.Sprintf(
			"パネル数 %d が範囲 [%d, %d] の外です", len(specs), c.countRange.Min, c.countRange.Max))
	}

	for i, spec := range specs {
		label := fmt.Sprintf("パネル %d", i+1)

		// 連番の検証: 1始まりで隙間がないこと
		if spec.Ordinal != i+1 {
			reasons = append(reasons, fmt.Sprintf("%s: ordinal が %d です（%d であるべき）", label, spec.Ordinal, i+1))
		}

		// 構造タグの検証（セリフ上限・文字数上限・ショット種別の列挙）
		if err := structValidator.Struct(spec); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, ve := range verrs {
					reasons = append(reasons, fmt.Sprintf("%s: フィールド %s が制約 %s に違反しています", label, ve.Field(), ve.Tag()))
				}
			} else {
				reasons = append(reasons, fmt.Sprintf("%s: %v", label, err))
			}
		}

		// ロスター整合性: 参照されるキャラクターIDは必ずロスターに存在すること
		for _, id := range spec.Characters {
			if !chars.Contains(id) {
				reasons = append(reasons, fmt.Sprintf("%s: 未知のキャラクターID %q が参照されています", label, id))
			}
		}
		for _, line := range spec.Dialogue {
			if line.SpeakerID != "" && !chars.Contains(line.SpeakerID) {
				reasons = append(reasons, fmt.Sprintf("%s: セリフの話者ID %q がロスターにありません", label, line.SpeakerID))
			}
		}
	}

	return reasons
}

// warnSoftCaps は検証通過後にソフトキャップ超過を警告します（強制はしません）。
func (c *ToonplayConverter) warnSoftCaps(specs domain.PanelSpecs) {
	counts := specs.ShotTypeCounts()
	for shot, limit := range softCaps {
		if counts[shot] > limit {
			slog.Warn("ショット種別が推奨回数を超えています",
				"shot_type", shot,
				"count", counts[shot],
				"recommended_max", limit,
			)
		}
	}
}
