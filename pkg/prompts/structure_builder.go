package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

//go:embed structure.md
var structureTemplate string

// StructureData は構造化プロンプトのテンプレートに渡すデータ構造です。
type StructureData struct {
	SceneText        string
	Roster           string
	Setting          string
	Genre            string
	MinPanels        int
	MaxPanels        int
	TargetPanelCount int
	Schema           string
}

// StructurePrompt は台本構造化プロンプトを構築する契約です。
type StructurePrompt interface {
	Build(data StructureData) (string, error)
}

// StructurePromptBuilder はシーン本文からパネル構成案を要求する
// プロンプトを組み立てます。テンプレートは不変の設定値として
// 構築時に一度だけ解析され、以後は変更されません。
type StructurePromptBuilder struct {
	tmpl *template.Template
}

// NewStructurePromptBuilder は埋め込みテンプレートを解析して初期化します。
func NewStructurePromptBuilder() (*StructurePromptBuilder, error) {
	if structureTemplate == "" {
		return nil, fmt.Errorf("プロンプトテンプレート 'structure' (go:embed) の読み込みに失敗しました: 内容が空です")
	}

	tmpl, err := template.New("structure").Parse(structureTemplate)
	if err != nil {
		return nil, fmt.Errorf("プロンプト 'structure' の解析に失敗: %w", err)
	}

	return &StructurePromptBuilder{tmpl: tmpl}, nil
}

// Build はテンプレートを実行して最終的なプロンプト文字列を返します。
func (b *StructurePromptBuilder) Build(data StructureData) (string, error) {
	if data.Schema == "" {
		data.Schema = PanelListSchema
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// FormatRoster はキャラクターマップをプロンプト向けの箇条書きに整形します。
func FormatRoster(chars domain.CharactersMap) string {
	var sb strings.Builder
	for _, id := range chars.Roster() {
		c := chars[id]
		cues := "None"
		if len(c.VisualCues) > 0 {
			cues = strings.Join(c.VisualCues, ", ")
		}
		sb.WriteString(fmt.Sprintf("- id: %s / name: %s / visual: {%s}\n", c.ID, c.Name, cues))
	}
	return sb.String()
}
