package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
	"github.com/shouni/go-toonplay-kit/pkg/pipeline"
)

// createSceneRequest はシーン登録のリクエストボディなのだ。
type createSceneRequest struct {
	Title      string             `json:"title"`
	Text       string             `json:"text" binding:"required"`
	Genre      string             `json:"genre"`
	Setting    string             `json:"setting"`
	Characters []domain.Character `json:"characters"`
}

func (s *Server) handleCreateScene(c *gin.Context) {
	var req createSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scene := &domain.Scene{
		Title:      req.Title,
		Text:       req.Text,
		Genre:      req.Genre,
		Setting:    req.Setting,
		Characters: req.Characters,
	}
	if err := s.store.CreateScene(c.Request.Context(), scene); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, scene)
}

func (s *Server) handleGetScene(c *gin.Context) {
	id, ok := sceneID(c)
	if !ok {
		return
	}
	scene, err := s.store.GetScene(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scene)
}

func (s *Server) handleListPanels(c *gin.Context) {
	id, ok := sceneID(c)
	if !ok {
		return
	}
	panels, err := s.store.ListPanels(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scene_id": id, "panels": panels})
}

// handleGeneratePanels は生成ランを実行するのだ。
// Accept: text/event-stream なら進捗を SSE で流し、それ以外は完了まで
// 待って JSON を返す。
func (s *Server) handleGeneratePanels(c *gin.Context) {
	id, ok := sceneID(c)
	if !ok {
		return
	}
	target, err := strconv.Atoi(c.DefaultQuery("target", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target はパネル数の整数で指定するのだ"})
		return
	}

	// Accept は "text/event-stream, */*" のように複数指定で届くことがある
	if !strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		panels, err := s.generator.GeneratePanels(c.Request.Context(), id, pipeline.GenerateOptions{
			TargetPanelCount: target,
		})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scene_id": id, "panels": panels})
		return
	}

	s.streamGeneration(c, id, target)
}

type runResult struct {
	panels []domain.Panel
	err    error
}

// streamGeneration はランをバックグラウンドで走らせ、進捗イベントを
// SSE で届けるのだ。最初のイベントが届く前に失敗したランは、ストリームを
// 開かず通常の JSON エラーで返す。
func (s *Server) streamGeneration(c *gin.Context, id uint, target int) {
	events := make(chan pipeline.ProgressEvent, 64)
	done := make(chan runResult, 1)

	go func() {
		panels, err := s.generator.GeneratePanels(c.Request.Context(), id, pipeline.GenerateOptions{
			TargetPanelCount: target,
			Progress: func(ev pipeline.ProgressEvent) {
				// 遅い購読者のためにランを止めない。イベントは累計値を
				// 含むスナップショットなので、取りこぼしても整合する。
				select {
				case events <- ev:
				default:
				}
			},
		})
		done <- runResult{panels: panels, err: err}
		close(events)
	}()

	streamOpened := false
	for ev := range events {
		if !streamOpened {
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			streamOpened = true
		}
		c.SSEvent("progress", ev)
		c.Writer.Flush()
	}

	r := <-done
	if r.err != nil {
		// 最初のイベントが届く前の失敗（排他拒否・入力不正など）は
		// ストリームを開かず通常の JSON エラーで返す
		if !streamOpened {
			c.JSON(statusFor(r.err), gin.H{"error": r.err.Error()})
			return
		}
		c.SSEvent("error", gin.H{"message": r.err.Error()})
		c.Writer.Flush()
		return
	}

	if !streamOpened {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
	}
	c.SSEvent("result", gin.H{"scene_id": id, "panels": r.panels})
	c.Writer.Flush()
}

func sceneID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "シーンIDが不正なのだ: " + raw})
		return 0, false
	}
	return uint(id), true
}

// statusFor はパイプラインのエラー分類を HTTP ステータスへ写像するのだ。
func statusFor(err error) int {
	var (
		sve *domain.StructureValidationError
		pge *domain.PartialGenerationError
	)
	switch {
	case errors.Is(err, domain.ErrRegenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &sve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &pge):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
