package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

func openTestStore(t *testing.T) *SceneStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "toonplay_test.db"))
	if err != nil {
		t.Fatalf("テスト用DBを開けませんでした: %v", err)
	}
	return NewSceneStore(db)
}

func seedScene(t *testing.T, s *SceneStore) *domain.Scene {
	t.Helper()
	scene := &domain.Scene{
		Title: "鐘の鳴る朝",
		Text:  "Mira crosses the bridge as the bells begin to ring.",
		Genre: "mystery",
		Characters: []domain.Character{
			{ID: "mira", Name: "Mira", VisualCues: []string{"silver hair"}, Seed: 11},
		},
	}
	if err := s.CreateScene(context.Background(), scene); err != nil {
		t.Fatal(err)
	}
	return scene
}

func makePanels(sceneID uint, numbers ...int) []domain.Panel {
	panels := make([]domain.Panel, len(numbers))
	for i, n := range numbers {
		panels[i] = domain.Panel{
			SceneID:           sceneID,
			PanelNumber:       n,
			ShotType:          domain.ShotMedium,
			VisualDescription: "bridge at dawn",
			Dialogue: []domain.DialogueLine{
				{SpeakerID: "mira", Text: "It's quiet.", Tone: "wary"},
			},
			Variants: domain.ImageVariantSet{
				{Format: domain.FormatJPEG, Tier: domain.TierHigh, Width: 1440, Height: 1800, URL: "https://cdn.example.com/p.jpg"},
			},
			GutterAfter: 250,
		}
	}
	return panels
}

func TestSceneStore(t *testing.T) {
	ctx := context.Background()

	t.Run("シーンがパネルごと読み出せること", func(t *testing.T) {
		s := openTestStore(t)
		scene := seedScene(t, s)

		if err := s.ReplacePanelSet(ctx, scene.ID, makePanels(scene.ID, 1, 2, 3)); err != nil {
			t.Fatal(err)
		}

		got, err := s.GetScene(ctx, scene.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Panels) != 3 {
			t.Fatalf("期待値 3 パネル, 実際 %d", len(got.Panels))
		}
		if len(got.Characters) != 1 || got.Characters[0].ID != "mira" {
			t.Errorf("キャラクターがJSONのまま往復すべきです: %+v", got.Characters)
		}
		if got.Panels[0].Dialogue[0].Text != "It's quiet." {
			t.Error("セリフがJSONのまま往復すべきです")
		}
	})

	t.Run("パネルが番号順で返ること", func(t *testing.T) {
		s := openTestStore(t)
		scene := seedScene(t, s)

		// わざと逆順で書き込む
		if err := s.ReplacePanelSet(ctx, scene.ID, makePanels(scene.ID, 3, 1, 2)); err != nil {
			t.Fatal(err)
		}

		panels, err := s.ListPanels(ctx, scene.ID)
		if err != nil {
			t.Fatal(err)
		}
		for i, p := range panels {
			if p.PanelNumber != i+1 {
				t.Errorf("番号順であるべきです: %d 番目が %d", i, p.PanelNumber)
			}
		}
	})

	t.Run("置換後に旧パネルが残らないこと", func(t *testing.T) {
		s := openTestStore(t)
		scene := seedScene(t, s)

		if err := s.ReplacePanelSet(ctx, scene.ID, makePanels(scene.ID, 1, 2, 3, 4)); err != nil {
			t.Fatal(err)
		}
		if err := s.ReplacePanelSet(ctx, scene.ID, makePanels(scene.ID, 1, 2)); err != nil {
			t.Fatal(err)
		}

		panels, err := s.ListPanels(ctx, scene.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(panels) != 2 {
			t.Errorf("置換後のパネル数の期待値 2, 実際 %d", len(panels))
		}
	})

	t.Run("他のシーンのパネルには影響しないこと", func(t *testing.T) {
		s := openTestStore(t)
		sceneA := seedScene(t, s)
		sceneB := seedScene(t, s)

		if err := s.ReplacePanelSet(ctx, sceneA.ID, makePanels(sceneA.ID, 1, 2)); err != nil {
			t.Fatal(err)
		}
		if err := s.ReplacePanelSet(ctx, sceneB.ID, makePanels(sceneB.ID, 1)); err != nil {
			t.Fatal(err)
		}
		if err := s.ReplacePanelSet(ctx, sceneA.ID, nil); err != nil {
			t.Fatal(err)
		}

		panelsB, err := s.ListPanels(ctx, sceneB.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(panelsB) != 1 {
			t.Errorf("別シーンのパネルが消えてはいけません: %d", len(panelsB))
		}
	})

	t.Run("存在しないシーンはエラーになること", func(t *testing.T) {
		s := openTestStore(t)
		if _, err := s.GetScene(ctx, 9999); err == nil {
			t.Error("未登録のシーンはエラーになるべきです")
		}
	})
}
