// Package store はシーンとパネルの永続化層なのだ。
// パネル集合の置換は必ず1トランザクションで行い、旧パネルと新パネルが
// 混ざった状態を外から観測できないようにする。
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

// Open は SQLite データベースを開き、スキーマを最新化して返すのだ。
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("データベースを開けませんでした: %w", err)
	}
	if err := db.AutoMigrate(&domain.Scene{}, &domain.Panel{}); err != nil {
		return nil, fmt.Errorf("スキーマのマイグレーションに失敗しました: %w", err)
	}
	return db, nil
}

// SceneStore は gorm ベースのシーン・パネル永続化なのだ。
type SceneStore struct {
	db *gorm.DB
}

// NewSceneStore は SceneStore を生成する。
func NewSceneStore(db *gorm.DB) *SceneStore {
	return &SceneStore{db: db}
}

// CreateScene はシーンを新規登録する。
func (s *SceneStore) CreateScene(ctx context.Context, scene *domain.Scene) error {
	if err := s.db.WithContext(ctx).Create(scene).Error; err != nil {
		return fmt.Errorf("シーンの登録に失敗しました: %w", err)
	}
	return nil
}

// GetScene はシーンを所属パネルごと読み出す。パネルは番号順で返る。
func (s *SceneStore) GetScene(ctx context.Context, id uint) (*domain.Scene, error) {
	var scene domain.Scene
	err := s.db.WithContext(ctx).
		Preload("Panels", func(db *gorm.DB) *gorm.DB {
			return db.Order("panel_number ASC")
		}).
		First(&scene, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("シーン %d が見つかりません: %w", id, err)
		}
		return nil, fmt.Errorf("シーンの読み出しに失敗しました: %w", err)
	}
	return &scene, nil
}

// ListPanels はシーンのパネル列を番号順で返す。
func (s *SceneStore) ListPanels(ctx context.Context, sceneID uint) ([]domain.Panel, error) {
	var panels []domain.Panel
	err := s.db.WithContext(ctx).
		Where("scene_id = ?", sceneID).
		Order("panel_number ASC").
		Find(&panels).Error
	if err != nil {
		return nil, fmt.Errorf("パネルの読み出しに失敗しました: %w", err)
	}
	return panels, nil
}

// ReplacePanelSet はシーンのパネル集合をまるごと置き換える。
// 削除と挿入を同一トランザクションで行うため、途中状態は観測されない。
func (s *SceneStore) ReplacePanelSet(ctx context.Context, sceneID uint, panels []domain.Panel) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scene_id = ?", sceneID).Delete(&domain.Panel{}).Error; err != nil {
			return fmt.Errorf("旧パネルの削除に失敗しました: %w", err)
		}
		if len(panels) == 0 {
			return nil
		}
		for i := range panels {
			panels[i].ID = 0
			panels[i].SceneID = sceneID
		}
		if err := tx.Create(&panels).Error; err != nil {
			return fmt.Errorf("新パネルの登録に失敗しました: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("パネル集合の置換トランザクションが失敗しました: %w", err)
	}
	return nil
}
