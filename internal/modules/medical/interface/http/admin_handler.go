package http

import (
	"crypto/subtle"
	"strings"

	"MediVision/internal/config"
	"MediVision/internal/modules/medical/application/dto/request"
	"MediVision/internal/modules/medical/application/dto/respond"
	"MediVision/internal/modules/medical/application/service"
	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/pkg/back"
	"MediVision/pkg/util/myjwt"
	"MediVision/pkg/xerr"
	"MediVision/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the token-guarded content management endpoints.
type AdminHandler struct {
	ingestSvc service.IngestService
	ragSvc    service.RagService
	memorySvc *service.MemoryService
	store     repository.VectorStore
	jwtConf   config.JwtConfig
}

func NewAdminHandler(
	ingestSvc service.IngestService,
	ragSvc service.RagService,
	memorySvc *service.MemoryService,
	store repository.VectorStore,
	jwtConf config.JwtConfig,
) *AdminHandler {
	return &AdminHandler{
		ingestSvc: ingestSvc,
		ragSvc:    ragSvc,
		memorySvc: memorySvc,
		store:     store,
		jwtConf:   jwtConf,
	}
}

// IndexText handles POST /api/admin/index/text.
func (h *AdminHandler) IndexText(c *gin.Context) {
	var req request.IndexTextRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	ids, err := h.ingestSvc.IndexKnowledge(c.Request.Context(), entity.KnowledgeText{
		Title:     req.Title,
		Category:  req.Category,
		Specialty: req.Specialty,
		Source:    req.Source,
		Content:   req.Content,
		Extra:     req.Extra,
	})
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.IndexTextRespond{ChunkIDs: ids, Chunks: len(ids)})
}

// IndexBatch handles POST /api/admin/index/batch.
func (h *AdminHandler) IndexBatch(c *gin.Context) {
	var req request.IndexBatchRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	if len(req.Documents) == 0 {
		back.Error(c, xerr.BadRequest, "documents is empty")
		return
	}

	docs := make([]entity.KnowledgeText, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, entity.KnowledgeText{
			Title:     d.Title,
			Category:  d.Category,
			Specialty: d.Specialty,
			Source:    d.Source,
			Content:   d.Content,
			Extra:     d.Extra,
		})
	}

	ids, err := h.ingestSvc.EnqueueBatch(c.Request.Context(), docs)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.IndexBatchRespond{Enqueued: len(ids), EventIDs: ids})
}

// Seed handles POST /api/admin/seed.
func (h *AdminHandler) Seed(c *gin.Context) {
	data, err := h.ingestSvc.Seed(c.Request.Context(), h.memorySvc)
	back.Result(c, data, err)
}

// DropCollection handles DELETE /api/admin/collections/:name.
func (h *AdminHandler) DropCollection(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		back.Error(c, xerr.BadRequest, "collection name is required")
		return
	}

	if err := h.store.Drop(c.Request.Context(), name); err != nil {
		back.Result(c, nil, err)
		return
	}
	zlog.Info("dropped collection", zap.String("collection", name))
	back.Success(c, gin.H{"dropped": name})
}

// AnalyzeImage handles POST /api/analyze-image.
func (h *AdminHandler) AnalyzeImage(c *gin.Context) {
	var req request.AnalyzeImageRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.ragSvc.AnalyzeImage(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("image analysis failed", zap.String("patient_id", req.PatientID), zap.Error(err))
	}
	back.Result(c, data, err)
}

// Token handles POST /api/admin/token. The caller proves knowledge of the
// signing key and gets a short-lived admin token back.
func (h *AdminHandler) Token(c *gin.Context) {
	var req request.TokenRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	if h.jwtConf.Key == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.jwtConf.Key)) != 1 {
		back.Error(c, xerr.Unauthorized, "invalid secret")
		return
	}

	token, err := myjwt.GenerateToken(h.jwtConf, strings.TrimSpace(req.Subject), "admin")
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.TokenRespond{Token: token})
}
