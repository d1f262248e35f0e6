package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

const (
	// NegativePanelPrompt は、パネル用のネガティブプロンプトです。
	NegativePanelPrompt = "speech bubble, dialogue balloon, text, alphabet, letters, words, signatures, watermark, username, low quality, distorted, bad anatomy"

	// CinematicTags はクオリティ向上のための共通タグです。
	CinematicTags = "cinematic composition, high resolution, sharp focus, 8k"

	// RenderingStyle は共通の画風を定義します。
	RenderingStyle = `### GLOBAL VISUAL STYLE ###
- RENDERING: Sharp clean lineart, vibrant colors, no blurring, high contrast, cinematic webtoon lighting.`

	// DefaultStyleSuffix は全パネル共通で適用するスタイル指定です。
	DefaultStyleSuffix = "Korean webtoon style, official art, cel-shaded, clean line art, vivid colors, expressive eyes, cinematic lighting, masterpiece, ultra-detailed, flat shading, high resolution"

	panelSystemInstruction = "You are a professional webtoon illustrator. Create a single high-quality cinematic scene."
)

// PanelPrompt はフォールバック各段のプロンプトを構築する契約です。
type PanelPrompt interface {
	BuildStage(stage domain.GenerationStage, spec domain.PanelSpec, genre string) (userPrompt string, systemPrompt string, seed int64)
}

// ImagePromptBuilder は PanelSpec から画像生成プロンプトを組み立てます。
// キャラクターマップとスタイルサフィックスは構築時に注入される不変の
// 設定値であり、並行するラン同士が互いのテンプレートを書き換えることは
// ありません。
type ImagePromptBuilder struct {
	characterMap  domain.CharactersMap
	defaultSuffix string
}

// NewImagePromptBuilder は ImagePromptBuilder を初期化します。
func NewImagePromptBuilder(cm domain.CharactersMap, styleSuffix string) *ImagePromptBuilder {
	if styleSuffix == "" {
		styleSuffix = DefaultStyleSuffix
	}
	return &ImagePromptBuilder{
		characterMap:  cm,
		defaultSuffix: styleSuffix,
	}
}

// BuildStage は段に応じたプロンプトを返します。
// 1段目: 元プロンプト。2段目: 語彙置換済み。3段目: ムードのみの汎用構図。
func (pb *ImagePromptBuilder) BuildStage(stage domain.GenerationStage, spec domain.PanelSpec, genre string) (string, string, int64) {
	switch stage {
	case domain.StageSanitized:
		user, system, seed := pb.buildOriginal(spec)
		return Sanitize(user), system, seed
	case domain.StageGeneric:
		return pb.buildGeneric(spec, genre)
	default:
		return pb.buildOriginal(spec)
	}
}

// buildOriginal はショット・カメラ・キャラクター・照明・アクション・ムードを
// すべて含む構造化プロンプトを生成します。
func (pb *ImagePromptBuilder) buildOriginal(spec domain.PanelSpec) (string, string, int64) {
	var parts []string

	parts = append(parts, fmt.Sprintf("SHOT: %s", shotTypeText(spec.ShotType)))
	if spec.CameraAngle != "" {
		parts = append(parts, fmt.Sprintf("CAMERA: %s", spec.CameraAngle))
	}
	if spec.SettingFocus != "" {
		parts = append(parts, fmt.Sprintf("SETTING: %s", spec.SettingFocus))
	}

	// キャラクターの外見はパネルごとに毎回すべて埋め込みます。
	// パネル間の一貫性はこの記述の同一性だけで担保されます。
	for _, id := range spec.Characters {
		char, ok := pb.characterMap.Get(id)
		if !ok {
			continue
		}
		line := fmt.Sprintf("SUBJECT [%s]: VISUAL_FEATURES: {%s}", char.Name, strings.Join(char.VisualCues, ", "))
		if pose, ok := spec.Poses[id]; ok && pose != "" {
			line += fmt.Sprintf(", POSE: %s", pose)
		}
		parts = append(parts, line)
	}

	if spec.Lighting != "" {
		parts = append(parts, fmt.Sprintf("LIGHTING: %s", spec.Lighting))
	}
	parts = append(parts, fmt.Sprintf("ACTION: %s", spec.VisualDescription))
	if spec.Mood != "" {
		parts = append(parts, fmt.Sprintf("MOOD: %s", spec.Mood))
	}

	return joinClean(parts), pb.systemPrompt(), pb.seedFor(spec)
}

// buildGeneric はキャラクターとアクションの固有性を捨てた汎用構図を生成します。
// モデレーションに2度拒否されても必ず納品可能な画像を得るための最終段です。
func (pb *ImagePromptBuilder) buildGeneric(spec domain.PanelSpec, genre string) (string, string, int64) {
	parts := []string{
		fmt.Sprintf("SHOT: %s", shotTypeText(spec.ShotType)),
		fmt.Sprintf("GENRE: %s", genre),
		"SETTING: an atmospheric, neutral environment matching the genre",
	}
	if spec.Mood != "" {
		parts = append(parts, fmt.Sprintf("MOOD: %s", spec.Mood))
	}

	return joinClean(parts), pb.systemPrompt(), domain.GetSeedFromString(genre)
}

func (pb *ImagePromptBuilder) systemPrompt() string {
	systemParts := []string{
		panelSystemInstruction,
		RenderingStyle,
		CinematicTags,
	}
	if pb.defaultSuffix != "" {
		systemParts = append(systemParts, fmt.Sprintf("### GLOBAL VISUAL STYLE ###\n%s", pb.defaultSuffix))
	}
	return strings.Join(systemParts, "\n\n")
}

// seedFor は最初に登場するキャラクターのシード値を使います。
// キャラクター不在のパネルでは描写文から決定論的に導出します。
func (pb *ImagePromptBuilder) seedFor(spec domain.PanelSpec) int64 {
	for _, id := range spec.Characters {
		if pb.characterMap.Contains(id) {
			return pb.characterMap.SeedFor(id)
		}
	}
	return domain.GetSeedFromString(spec.VisualDescription)
}

func shotTypeText(s domain.ShotType) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func joinClean(parts []string) string {
	var cleanParts []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			cleanParts = append(cleanParts, s)
		}
	}
	return strings.Join(cleanParts, "\n")
}
