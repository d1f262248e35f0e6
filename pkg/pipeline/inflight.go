package pipeline

import "sync"

// inflightRegistry はシーンごとの排他を担う軽量なレジストリです。
// ゼロ値のまま使えます。
type inflightRegistry struct {
	mu     sync.Mutex
	scenes map[uint]struct{}
}

// tryAcquire はシーンの生成スロットの獲得を試みます。
// 既に進行中なら false を返します。
func (r *inflightRegistry) tryAcquire(sceneID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scenes == nil {
		r.scenes = make(map[uint]struct{})
	}
	if _, busy := r.scenes[sceneID]; busy {
		return false
	}
	r.scenes[sceneID] = struct{}{}
	return true
}

func (r *inflightRegistry) release(sceneID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scenes, sceneID)
}
