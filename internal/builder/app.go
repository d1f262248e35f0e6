package builder

import (
	"gorm.io/gorm"

	"github.com/shouni/go-toonplay-kit/internal/config"
	"github.com/shouni/go-toonplay-kit/internal/store"
	"github.com/shouni/go-toonplay-kit/pkg/pipeline"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを CLI とサーバーの両方に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config       *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、ストレージ設定など）。
	DB           *gorm.DB               // DBは、シーンとパネルを保持するデータベース接続です。
	Store        *store.SceneStore      // Storeは、シーンとパネルの永続化層です。
	Orchestrator *pipeline.Orchestrator // Orchestratorは、構造化から永続化までの生成ランの司令塔です。
}
