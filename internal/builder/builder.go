package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/genai"

	imagegen "github.com/shouni/gemini-image-kit/generator"
	imageports "github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-toonplay-kit/internal/config"
	"github.com/shouni/go-toonplay-kit/internal/store"
	"github.com/shouni/go-toonplay-kit/pkg/adapters"
	kitconfig "github.com/shouni/go-toonplay-kit/pkg/config"
	"github.com/shouni/go-toonplay-kit/pkg/converter"
	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/optimizer"
	"github.com/shouni/go-toonplay-kit/pkg/pipeline"
	"github.com/shouni/go-toonplay-kit/pkg/prompts"
	"github.com/shouni/go-toonplay-kit/pkg/storage"
	"github.com/shouni/go-toonplay-kit/pkg/synthesizer"
)

// BuildAppContext は設定から全コンポーネントを配線して AppContext を返すのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	sceneStore := store.NewSceneStore(db)

	httpClient := httpkit.New(cfg.HTTPTimeout)
	aiClient, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	imgGen, err := initializeImageGenerator(httpClient, aiClient, cfg.GeminiImageModel)
	if err != nil {
		return nil, err
	}

	objStore, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	structurePrompt, err := prompts.NewStructurePromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("構造化プロンプトテンプレートの初期化に失敗したのだ: %w", err)
	}

	// 環境変数ベースのアプリ設定を、ライブラリ側の設定へ写すのだ
	kitCfg := kitconfig.DefaultConfig()
	kitCfg.GeminiAPIKey = cfg.GeminiAPIKey
	kitCfg.GeminiModel = cfg.GeminiModel
	kitCfg.ImageModel = cfg.GeminiImageModel
	kitCfg.StyleSuffix = cfg.StyleSuffix
	kitCfg.RateInterval = cfg.RateInterval
	kitCfg.Concurrency = cfg.Concurrency
	kitCfg.RunTimeout = cfg.RunTimeout

	conv := converter.New(
		adapters.NewGeminiStructurer(aiClient, kitCfg.GeminiModel),
		structurePrompt,
		converter.WithPanelCountRange(domain.PanelCountRange{Min: kitCfg.MinPanels, Max: kitCfg.MaxPanels}),
	)

	synth := synthesizer.New(
		adapters.NewGeminiImageSynthesizer(imgGen),
		optimizer.New(objStore, optimizer.DefaultConfig()),
		synthesizer.WithStyleSuffix(kitCfg.StyleSuffix),
		synthesizer.WithAspectRatio(kitCfg.AspectRatio),
	)

	orch := pipeline.NewWithConfig(conv, synth, sceneStore, kitCfg)

	return &AppContext{
		Config:       cfg,
		DB:           db,
		Store:        sceneStore,
		Orchestrator: orch,
	}, nil
}

// initializeAIClient は gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.2)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// initializeImageGenerator は画像キャッシュを含む ImageGenerator を初期化します。
func initializeImageGenerator(httpClient httpkit.ClientInterface, aiClient gemini.GenerativeModel, model string) (imageports.ImageGenerator, error) {
	imgCache := cache.New(30*time.Minute, 1*time.Hour)
	cacheTTL := 1 * time.Hour

	core, err := imagegen.NewGeminiImageCore(
		httpClient,
		imgCache,
		cacheTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗したのだ: %w", err)
	}

	imgGen, err := imagegen.NewGeminiGenerator(
		core,
		aiClient,
		model,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗したのだ: %w", err)
	}

	return imgGen, nil
}

// buildObjectStore は配信用ストレージを選ぶのだ。
// S3 互換の設定が揃っていればそちらを、無ければローカル保存を使う。
func buildObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.UseS3() {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("S3ストレージの初期化に失敗したのだ: %w", err)
		}
		return s3Store, nil
	}
	return storage.NewLocalStore(cfg.LocalDir), nil
}
