package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-toonplay-kit/internal/builder"
	"github.com/shouni/go-toonplay-kit/internal/config"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、散文からウェブトゥーン1シーン分のパネル群を生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "散文シーンからパネル画像一式を生成しますなのだ。",
	Long: `シーンの文章を解析してコマ割り（構成案）を作り、各パネルの画像と
配信用バリアントを生成して保存するのだ。進捗はログで追えるのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. シーン本文の読み込み
	text, err := readSceneText()
	if err != nil {
		return err
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.HTTPTimeout = opts.HTTPTimeout

	// 3. キャラクターロスターの読み込み
	charMap, err := domain.LoadCharacters(opts.CharConfig)
	if err != nil {
		return fmt.Errorf("キャラクター情報の取得に失敗しました: %w", err)
	}
	characters := make([]domain.Character, 0, len(charMap))
	for _, id := range charMap.Roster() {
		c, _ := charMap.Get(id)
		characters = append(characters, c)
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの組み立てに失敗したのだ: %w", err)
	}

	// 4. シーンを登録してランを実行するのだ
	scene := &domain.Scene{
		Title:      opts.Title,
		Text:       text,
		Genre:      opts.Genre,
		Setting:    opts.Setting,
		Characters: characters,
	}
	if err := appCtx.Store.CreateScene(ctx, scene); err != nil {
		return err
	}

	slog.Info("パネル生成ランを起動するのだ！",
		"scene_id", scene.ID,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"target_panels", opts.TargetPanels,
	)

	panels, err := appCtx.Orchestrator.GeneratePanels(ctx, scene.ID, pipeline.GenerateOptions{
		TargetPanelCount: opts.TargetPanels,
		Progress: func(ev pipeline.ProgressEvent) {
			if ev.Phase == pipeline.PhaseSynthesizing {
				slog.Info("パネルが完成したのだ", "panel", ev.PanelNumber, "completed", ev.Completed, "total", ev.Total)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("パネル生成ランが失敗したのだ: %w", err)
	}

	for _, p := range panels {
		slog.Info("panel",
			"number", p.PanelNumber,
			"shot", p.ShotType,
			"gutter_after", p.GutterAfter,
			"url", p.ImageURL,
		)
	}
	slog.Info("すべての生成工程が完了したのだ！", "scene_id", scene.ID, "panels", len(panels))
	return nil
}

// readSceneText はフラグまたは標準入力からシーン本文を読むのだ。
func readSceneText() (string, error) {
	if opts.SceneFile == "" && !isStdin() {
		return "", fmt.Errorf("ソース（--scene-file または標準入力）を指定してほしいのだ")
	}

	if opts.SceneFile != "" && opts.SceneFile != "-" {
		data, err := os.ReadFile(opts.SceneFile)
		if err != nil {
			return "", fmt.Errorf("シーンファイルの読み込みに失敗したのだ: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("シーン本文が空なのだ")
	}
	return string(data), nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
