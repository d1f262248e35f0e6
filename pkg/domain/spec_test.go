package domain

import (
	"testing"
)

func TestShotType_IsValid(t *testing.T) {
	t.Run("定義済みのショット種別は有効であること", func(t *testing.T) {
		for _, s := range ShotTypes {
			if !s.IsValid() {
				t.Errorf("ショット種別 %q が無効と判定されました", s)
			}
		}
	})

	t.Run("未定義のショット種別は無効であること", func(t *testing.T) {
		if ShotType("birds_eye").IsValid() {
			t.Error("未定義のショット種別が有効と判定されました")
		}
	})
}

func TestBeatTransition_IsValid(t *testing.T) {
	valid := []BeatTransition{TransitionContinuous, TransitionBeatChange, TransitionScene}
	for _, b := range valid {
		if !b.IsValid() {
			t.Errorf("分類 %q が無効と判定されました", b)
		}
	}
	if BeatTransition("jump_cut").IsValid() {
		t.Error("未定義の分類が有効と判定されました")
	}
}

func TestPanelCountRange_Contains(t *testing.T) {
	r := DefaultPanelCountRange

	t.Run("閉区間の両端を含むこと", func(t *testing.T) {
		if !r.Contains(8) || !r.Contains(12) {
			t.Errorf("閉区間 [%d, %d] の端が含まれていません", r.Min, r.Max)
		}
	})

	t.Run("範囲外は含まないこと", func(t *testing.T) {
		if r.Contains(7) || r.Contains(13) {
			t.Error("範囲外の値が含まれると判定されました")
		}
	})
}

func TestPanelSpecs_UniqueCharacterIDs(t *testing.T) {
	specs := PanelSpecs{
		{Ordinal: 1, Characters: []string{"mira", "joss"}},
		{Ordinal: 2, Characters: []string{"joss"}},
		{Ordinal: 3, Characters: []string{""}},
	}

	ids := specs.UniqueCharacterIDs()
	if len(ids) != 2 {
		t.Fatalf("期待値 2 件, 実際の値 %d 件: %v", len(ids), ids)
	}
}

func TestPanelSpecs_ShotTypeCounts(t *testing.T) {
	specs := PanelSpecs{
		{ShotType: ShotEstablishing},
		{ShotType: ShotMedium},
		{ShotType: ShotMedium},
	}

	counts := specs.ShotTypeCounts()
	if counts[ShotMedium] != 2 {
		t.Errorf("medium の期待値 2, 実際の値 %d", counts[ShotMedium])
	}
	if counts[ShotEstablishing] != 1 {
		t.Errorf("establishing の期待値 1, 実際の値 %d", counts[ShotEstablishing])
	}
}

func TestImageVariantSet_IsComplete(t *testing.T) {
	full := ImageVariantSet{
		{Format: FormatJPEG, Tier: TierStandard},
		{Format: FormatJPEG, Tier: TierHigh},
		{Format: FormatPNG, Tier: TierStandard},
		{Format: FormatPNG, Tier: TierHigh},
	}

	t.Run("全組み合わせが揃っていれば完全であること", func(t *testing.T) {
		if !full.IsComplete(DefaultFormats, DefaultTiers) {
			t.Error("完全なバリアント集合が不完全と判定されました")
		}
	})

	t.Run("欠けがあれば不完全であること", func(t *testing.T) {
		if full[:3].IsComplete(DefaultFormats, DefaultTiers) {
			t.Error("不完全なバリアント集合が完全と判定されました")
		}
	})

	t.Run("件数が同じでも組み合わせが重複していれば不完全であること", func(t *testing.T) {
		dup := ImageVariantSet{
			{Format: FormatJPEG, Tier: TierStandard},
			{Format: FormatJPEG, Tier: TierStandard},
			{Format: FormatPNG, Tier: TierStandard},
			{Format: FormatPNG, Tier: TierHigh},
		}
		if dup.IsComplete(DefaultFormats, DefaultTiers) {
			t.Error("重複を含むバリアント集合が完全と判定されました")
		}
	})
}

func TestCharactersMap(t *testing.T) {
	chars := BuildCharactersMap([]Character{
		{ID: "mira", Name: "ミラ", VisualCues: []string{"silver hair", "long coat"}, Seed: 999},
		{ID: "joss", Name: "ジョス"},
	})

	t.Run("ロスターがソート済みで返ること", func(t *testing.T) {
		roster := chars.Roster()
		if len(roster) != 2 || roster[0] != "joss" || roster[1] != "mira" {
			t.Errorf("ロスターが期待と異なります: %v", roster)
		}
	})

	t.Run("設定済みのSeedを取得できること", func(t *testing.T) {
		if seed := chars.SeedFor("mira"); seed != 999 {
			t.Errorf("期待値 999, 実際の値 %d", seed)
		}
	})

	t.Run("Seed未設定の場合はIDから決定論的に生成されること", func(t *testing.T) {
		seed1 := chars.SeedFor("joss")
		seed2 := chars.SeedFor("joss")
		if seed1 == 0 {
			t.Error("Seedが0です。ハッシュ生成が行われていない可能性があります")
		}
		if seed1 != seed2 {
			t.Error("同じIDから異なるSeedが生成されました。決定論的ではありません")
		}
	})
}

func TestCharacter_Description(t *testing.T) {
	c := Character{Name: "ミラ", VisualCues: []string{"silver hair", "long coat"}}
	expected := "ミラ: silver hair, long coat"
	if c.Description() != expected {
		t.Errorf("期待値 %q, 実際の値 %q", expected, c.Description())
	}

	empty := Character{Name: "ジョス"}
	if empty.Description() != "ジョス" {
		t.Errorf("特徴が空の場合は名前だけを返すべきです: %q", empty.Description())
	}
}
