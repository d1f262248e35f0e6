package domain

// ShotType はパネルのカメラショット種別を表す閉じた列挙です。
type ShotType string

const (
	ShotEstablishing    ShotType = "establishing"
	ShotWide            ShotType = "wide"
	ShotMedium          ShotType = "medium"
	ShotCloseUp         ShotType = "close_up"
	ShotExtremeCloseUp  ShotType = "extreme_close_up"
	ShotOverShoulder    ShotType = "over_shoulder"
	ShotDutchAngle      ShotType = "dutch_angle"
)

// ShotTypes は定義済みの全ショット種別です。
var ShotTypes = []ShotType{
	ShotEstablishing,
	ShotWide,
	ShotMedium,
	ShotCloseUp,
	ShotExtremeCloseUp,
	ShotOverShoulder,
	ShotDutchAngle,
}

// IsValid は列挙に含まれるショット種別かどうかを返します。
func (s ShotType) IsValid() bool {
	for _, t := range ShotTypes {
		if s == t {
			return true
		}
	}
	return false
}

// BeatTransition は隣接パネル間の「間（ま）」の分類です。
// 次のパネルまでの垂直方向スペース（ガター）を決定します。
type BeatTransition string

const (
	// TransitionContinuous は連続したアクション（狭いガター）です。
	TransitionContinuous BeatTransition = "continuous"
	// TransitionBeatChange は話の区切り（中間のガター）です。
	TransitionBeatChange BeatTransition = "beat_change"
	// TransitionScene は場面・場所・時間の転換（広いガター）です。
	TransitionScene BeatTransition = "scene_transition"
)

// IsValid は列挙に含まれる分類かどうかを返します。
func (b BeatTransition) IsValid() bool {
	switch b {
	case TransitionContinuous, TransitionBeatChange, TransitionScene:
		return true
	}
	return false
}

const (
	// MaxDialoguePerPanel は1パネルに載せられるセリフ数の上限です。
	MaxDialoguePerPanel = 3
	// MaxDialogueLength はセリフ1行あたりの文字数上限です。
	MaxDialogueLength = 100
)

// DialogueLine はパネル内のセリフ1行です。
type DialogueLine struct {
	SpeakerID string `json:"speaker_id" validate:"required"`
	Text      string `json:"text" validate:"required,max=100"`
	Tone      string `json:"tone"`
}

// SfxEntry は効果音（オノマトペ）の1エントリです。
type SfxEntry struct {
	Text     string `json:"text" validate:"required"`
	Emphasis string `json:"emphasis"`
}

// PanelSpec は画像生成前の1パネルの構成案です。
// Toonplay Converter が生成し、Synthesizer が消費する一時的なデータです。
type PanelSpec struct {
	// Ordinal はシーン内での1始まりの連番です。
	Ordinal int `json:"ordinal" validate:"min=1"`

	ShotType          ShotType `json:"shot_type" validate:"required,oneof=establishing wide medium close_up extreme_close_up over_shoulder dutch_angle"`
	VisualDescription string   `json:"visual_description" validate:"required"`

	// Characters はこのパネルに映るキャラクター ID の集合です。
	// シーンのキャラクターロスターの部分集合でなければなりません。
	Characters []string          `json:"characters"`
	Poses      map[string]string `json:"poses"`

	SettingFocus string `json:"setting_focus"`
	Lighting     string `json:"lighting"`
	CameraAngle  string `json:"camera_angle"`

	Dialogue []DialogueLine `json:"dialogue" validate:"max=3,dive"`
	Sfx      []SfxEntry     `json:"sfx" validate:"dive"`

	// Transition は次のパネルへの「間」の分類です。
	Transition BeatTransition `json:"transition" validate:"required,oneof=continuous beat_change scene_transition"`
	Mood       string         `json:"mood"`
}

// PanelSpecs は PanelSpec のスライスに対するヘルパー群です。
type PanelSpecs []PanelSpec

// UniqueCharacterIDs は全パネルから重複しないキャラクター ID を抽出します。
func (ps PanelSpecs) UniqueCharacterIDs() []string {
	set := make(map[string]struct{})
	for _, spec := range ps {
		for _, id := range spec.Characters {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// ShotTypeCounts はショット種別ごとの出現回数を数えます。
// 演出上のソフトキャップ（推奨値）の警告に使います。
func (ps PanelSpecs) ShotTypeCounts() map[ShotType]int {
	counts := make(map[ShotType]int)
	for _, spec := range ps {
		counts[spec.ShotType]++
	}
	return counts
}

// PanelCountRange はシーンあたりのパネル数の許容範囲（閉区間）です。
type PanelCountRange struct {
	Min int
	Max int
}

// DefaultPanelCountRange は推奨されるデフォルトの範囲（8〜12）です。
var DefaultPanelCountRange = PanelCountRange{Min: 8, Max: 12}

// Contains は n が範囲内かどうかを返します。
func (r PanelCountRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}
