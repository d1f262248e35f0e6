// Package server はシーン管理と生成ランを公開する HTTP API なのだ。
// 生成ランの進捗は SSE でストリーミングする。
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/pipeline"
)

// SceneStore はハンドラーが必要とする永続化層の契約なのだ。
type SceneStore interface {
	CreateScene(ctx context.Context, scene *domain.Scene) error
	GetScene(ctx context.Context, id uint) (*domain.Scene, error)
	ListPanels(ctx context.Context, sceneID uint) ([]domain.Panel, error)
}

// PanelGenerator は生成ランの契約なのだ。
type PanelGenerator interface {
	GeneratePanels(ctx context.Context, sceneID uint, opts pipeline.GenerateOptions) ([]domain.Panel, error)
}

// Server はシーン管理 API と生成ランのエンドポイントを束ねる。
type Server struct {
	store     SceneStore
	generator PanelGenerator
	engine    *gin.Engine
}

// New は Server を初期化してルーティングを組み立てるのだ。
func New(store SceneStore, generator PanelGenerator) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		store:     store,
		generator: generator,
		engine:    engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.POST("/scenes", s.handleCreateScene)
	api.GET("/scenes/:id", s.handleGetScene)
	api.GET("/scenes/:id/panels", s.handleListPanels)
	api.POST("/scenes/:id/panels", s.handleGeneratePanels)
}

// Handler はテストや外部マウント用に http.Handler を返す。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run はリクエストの受付を開始するのだ。
func (s *Server) Run(addr string) error {
	slog.Info("HTTPサーバーを起動するのだ", "addr", addr)
	return s.engine.Run(addr)
}

// requestLogger はリクエスト1件ごとの構造化ログを出す。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Millisecond),
		)
	}
}
