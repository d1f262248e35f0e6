package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

func TestVariantKey(t *testing.T) {
	key := VariantKey(12, 3, domain.TierStandard, domain.FormatJPEG)
	want := "scenes/12/panels/panel_03_standard.jpg"
	if key != want {
		t.Errorf("期待値 %q, 実際の値 %q", want, key)
	}

	key = VariantKey(7, 10, domain.TierHigh, domain.FormatPNG)
	if !strings.HasSuffix(key, "panel_10_high.png") {
		t.Errorf("キーの形式が想定と異なります: %q", key)
	}
}

func TestContentTypeFor(t *testing.T) {
	if ContentTypeFor(domain.FormatJPEG) != "image/jpeg" {
		t.Error("jpeg の MIME タイプが違います")
	}
	if ContentTypeFor(domain.FormatPNG) != "image/png" {
		t.Error("png の MIME タイプが違います")
	}
}

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	url, err := store.Put(context.Background(), "scenes/1/panels/panel_01_standard.jpg", []byte("fake-image"), "image/jpeg")
	if err != nil {
		t.Fatalf("書き込みに失敗しました: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("file:// 形式の URL が返るべきです: %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "scenes", "1", "panels", "panel_01_standard.jpg"))
	if err != nil {
		t.Fatalf("書き込まれたファイルが読めません: %v", err)
	}
	if string(data) != "fake-image" {
		t.Errorf("内容が一致しません: %q", data)
	}
}
