package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

func testCharacters() domain.CharactersMap {
	return domain.BuildCharactersMap([]domain.Character{
		{ID: "mira", Name: "Mira", VisualCues: []string{"silver hair", "long gray coat"}, Seed: 4242},
		{ID: "joss", Name: "Joss", VisualCues: []string{"red scarf"}},
	})
}

func testSpec() domain.PanelSpec {
	return domain.PanelSpec{
		Ordinal:           3,
		ShotType:          domain.ShotCloseUp,
		VisualDescription: "Mira grips the railing as the bridge shakes",
		Characters:        []string{"mira"},
		Poses:             map[string]string{"mira": "leaning forward, knuckles white"},
		SettingFocus:      "a rusted iron bridge over the canal",
		Lighting:          "cold dawn light",
		CameraAngle:       "low angle",
		Transition:        domain.TransitionContinuous,
		Mood:              "tense",
	}
}

func TestImagePromptBuilder_BuildStage(t *testing.T) {
	pb := NewImagePromptBuilder(testCharacters(), "")

	t.Run("元プロンプトに全要素が含まれること", func(t *testing.T) {
		user, system, seed := pb.BuildStage(domain.StageOriginal, testSpec(), "mystery")

		for _, want := range []string{"close up", "low angle", "SUBJECT [Mira]", "silver hair", "POSE: leaning forward", "cold dawn light", "Mira grips the railing", "MOOD: tense"} {
			if !strings.Contains(user, want) {
				t.Errorf("ユーザープロンプトに %q が含まれていません:\n%s", want, user)
			}
		}
		if !strings.Contains(system, "webtoon illustrator") {
			t.Errorf("システムプロンプトが想定と異なります:\n%s", system)
		}
		if seed != 4242 {
			t.Errorf("キャラクターのシード値が使われていません: %d", seed)
		}
	})

	t.Run("2段目は語彙置換のみで構造は同じであること", func(t *testing.T) {
		spec := testSpec()
		spec.VisualDescription = "blood drips as Mira lets out a scream"

		user, _, seed := pb.BuildStage(domain.StageSanitized, spec, "mystery")
		if strings.Contains(strings.ToLower(user), "blood") || strings.Contains(strings.ToLower(user), "scream") {
			t.Errorf("置換対象の語が残っています:\n%s", user)
		}
		if !strings.Contains(user, "SUBJECT [Mira]") {
			t.Error("2段目でもキャラクター指定は保持されるべきです")
		}
		if seed != 4242 {
			t.Errorf("2段目でもシード値は同じであるべきです: %d", seed)
		}
	})

	t.Run("3段目はキャラクターとアクションを捨てた汎用構図であること", func(t *testing.T) {
		user, _, _ := pb.BuildStage(domain.StageGeneric, testSpec(), "mystery")

		if strings.Contains(user, "Mira") {
			t.Errorf("3段目にキャラクターの固有性が残っています:\n%s", user)
		}
		if strings.Contains(user, "railing") {
			t.Errorf("3段目にアクションの固有性が残っています:\n%s", user)
		}
		for _, want := range []string{"GENRE: mystery", "MOOD: tense", "close up"} {
			if !strings.Contains(user, want) {
				t.Errorf("3段目に %q が含まれていません:\n%s", want, user)
			}
		}
	})

	t.Run("キャラクター不在のパネルでは描写文からシードを導出すること", func(t *testing.T) {
		spec := testSpec()
		spec.Characters = nil

		_, _, seed1 := pb.BuildStage(domain.StageOriginal, spec, "mystery")
		_, _, seed2 := pb.BuildStage(domain.StageOriginal, spec, "mystery")
		if seed1 == 0 || seed1 != seed2 {
			t.Errorf("決定論的なシードが導出されていません: %d, %d", seed1, seed2)
		}
	})
}

func TestStructurePromptBuilder_Build(t *testing.T) {
	b, err := NewStructurePromptBuilder()
	if err != nil {
		t.Fatalf("ビルダーの初期化に失敗しました: %v", err)
	}

	prompt, err := b.Build(StructureData{
		SceneText: "The bridge shakes. Mira runs.",
		Roster:    FormatRoster(testCharacters()),
		Setting:   "canal town at dawn",
		Genre:     "mystery",
		MinPanels: 8,
		MaxPanels: 12,
	})
	if err != nil {
		t.Fatalf("プロンプト生成に失敗しました: %v", err)
	}

	for _, want := range []string{"between 8 and 12 panels", "id: mira", "canal town at dawn", "The bridge shakes", `"shot_type"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("プロンプトに %q が含まれていません", want)
		}
	}
}
