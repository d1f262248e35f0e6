package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Character はシーンに登場するキャラクターの定義を保持します。
type Character struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	VisualCues []string `json:"visual_cues"` // 生成プロンプトに注入する外見上の特徴
	Seed       int64    `json:"seed"`        // DB保存等のために広い型を維持
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// Description はプロンプトに埋め込む外見記述を返します。
// パネルをまたいだキャラクターの一貫性は、この記述を毎回のプロンプトに
// 含めることだけで担保されます（状態は持ちません）。
func (c Character) Description() string {
	if len(c.VisualCues) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s: %s", c.Name, strings.Join(c.VisualCues, ", "))
}

// CharactersMap は ID をキーとしたキャラクターの検索用マップなのだ。
type CharactersMap map[string]Character

// BuildCharactersMap はスライス形式のデータを検索効率の良いマップ形式に変換するのだ。
func BuildCharactersMap(chars []Character) CharactersMap {
	m := make(CharactersMap)
	for _, c := range chars {
		key := c.ID
		if key == "" {
			key = c.Name
		}
		m[key] = c
	}
	return m
}

// Get は ID に一致するキャラクターを返します。
func (cm CharactersMap) Get(id string) (Character, bool) {
	c, ok := cm[id]
	return c, ok
}

// Contains は ID がロスターに含まれるかを返します。
func (cm CharactersMap) Contains(id string) bool {
	_, ok := cm[id]
	return ok
}

// Roster はソート済みのキャラクター ID 一覧を返します。
func (cm CharactersMap) Roster() []string {
	ids := make([]string, 0, len(cm))
	for id := range cm {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadCharacters は指定されたファイルパスからJSONを読み込み、キャラクターマップを返すのだ。
func LoadCharacters(path string) (CharactersMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("キャラクターファイルの読み込みに失敗したのだ: %w", err)
	}

	var chars CharactersMap
	if err := json.Unmarshal(data, &chars); err != nil {
		return nil, fmt.Errorf("キャラクター設定のデコードに失敗したのだ: %w", err)
	}
	return chars, nil
}

// GetSeedFromString は文字列から決定論的なシード値を生成します。
func GetSeedFromString(s string) int64 {
	hash := sha256.Sum256([]byte(s))
	seed := int32(binary.BigEndian.Uint32(hash[:4]))
	// シード値は正の数が望ましいため、最上位ビットを落とすのが安全なのだ
	return int64(seed & 0x7FFFFFFF)
}

// SeedFor はキャラクターのシード値を返します。未設定ならIDから決定論的に導出します。
func (cm CharactersMap) SeedFor(id string) int64 {
	if c, ok := cm[id]; ok && c.Seed != 0 {
		return c.Seed
	}
	return GetSeedFromString(id)
}
