package domain

import "time"

// ImageFormat は配信用画像のエンコード形式を表す閉じた列挙です。
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// DefaultFormats はデフォルトの出力フォーマット群です。
var DefaultFormats = []ImageFormat{FormatJPEG, FormatPNG}

// ResolutionTier は配信用画像の解像度ティアを表す閉じた列挙です。
type ResolutionTier string

const (
	TierStandard ResolutionTier = "standard"
	TierHigh     ResolutionTier = "high"
)

// DefaultTiers はデフォルトの解像度ティア群です。
var DefaultTiers = []ResolutionTier{TierStandard, TierHigh}

// ImageVariant は1枚のソース画像から導出された配信用バリアントです。
type ImageVariant struct {
	Format   ImageFormat    `json:"format"`
	Tier     ResolutionTier `json:"tier"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	ByteSize int            `json:"byte_size"`
	URL      string         `json:"url"`
}

// ImageVariantSet は1枚のソース画像に対するバリアントの順序付き集合です。
// 常に フォーマット数 × ティア数 のエントリを持ちます。
type ImageVariantSet []ImageVariant

// Find は指定の (format, tier) に一致するバリアントを返します。
func (vs ImageVariantSet) Find(f ImageFormat, t ResolutionTier) (ImageVariant, bool) {
	for _, v := range vs {
		if v.Format == f && v.Tier == t {
			return v, true
		}
	}
	return ImageVariant{}, false
}

// IsComplete は formats × tiers の全組み合わせが揃っているかを検証します。
func (vs ImageVariantSet) IsComplete(formats []ImageFormat, tiers []ResolutionTier) bool {
	if len(vs) != len(formats)*len(tiers) {
		return false
	}
	for _, f := range formats {
		for _, t := range tiers {
			if _, ok := vs.Find(f, t); !ok {
				return false
			}
		}
	}
	return true
}

// PanelMetadata はパネル生成時の自由形式メタデータです。
type PanelMetadata struct {
	Prompt       string    `json:"prompt"`
	CharacterIDs []string  `json:"character_ids"`
	CameraAngle  string    `json:"camera_angle"`
	Mood         string    `json:"mood"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Panel は永続化される1パネルのレコードです。
// シーンのパネル集合は再生成時にトランザクション内で一括置換されます。
type Panel struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	SceneID uint `gorm:"index;not null" json:"scene_id"`

	PanelNumber int      `gorm:"not null" json:"panel_number"`
	ShotType    ShotType `gorm:"type:varchar(32)" json:"shot_type"`

	// NarrativeText はキャラクター不在のパネルでのみ使う地の文です。
	NarrativeText *string `json:"narrative_text,omitempty"`

	VisualDescription string `gorm:"type:text" json:"visual_description"`

	Dialogue []DialogueLine  `gorm:"serializer:json" json:"dialogue"`
	Sfx      []SfxEntry      `gorm:"serializer:json" json:"sfx"`
	Variants ImageVariantSet `gorm:"serializer:json" json:"variants"`

	// ImageURL は代表（プライマリ）バリアントの配信 URL です。
	ImageURL string `json:"image_url"`

	// GutterAfter は次のパネルまでの垂直スペース（ピクセル）です。
	GutterAfter int `json:"gutter_after"`

	Metadata PanelMetadata `gorm:"serializer:json" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}

// Scene は生成対象となるシーンの永続レコードです。
// シーン削除時には所属パネルもカスケード削除されます。
type Scene struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `json:"title"`

	Text    string `gorm:"type:text" json:"text"`
	Genre   string `json:"genre"`
	Setting string `gorm:"type:text" json:"setting"`

	Characters []Character `gorm:"serializer:json" json:"characters"`

	Panels []Panel `gorm:"constraint:OnDelete:CASCADE" json:"panels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationStage はフォールバックチェーンのどの段で画像が受理されたかを表します。
// ロギング・計測専用で、永続化はされません。
type GenerationStage int

const (
	// StageOriginal は元プロンプトでの生成です。
	StageOriginal GenerationStage = iota
	// StageSanitized は語彙置換後のプロンプトでの生成です。
	StageSanitized
	// StageGeneric はムードのみの汎用構図での生成です。
	StageGeneric
)

// String は GenerationStage のログ向け表現を返します。
func (s GenerationStage) String() string {
	switch s {
	case StageOriginal:
		return "original"
	case StageSanitized:
		return "sanitized"
	case StageGeneric:
		return "generic"
	default:
		return "unknown"
	}
}
