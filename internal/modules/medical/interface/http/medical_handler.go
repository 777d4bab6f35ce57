package http

import (
	"strings"

	"MediVision/internal/modules/medical/application/dto/request"
	"MediVision/internal/modules/medical/application/dto/respond"
	"MediVision/internal/modules/medical/application/service"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/pkg/back"
	"MediVision/pkg/xerr"
	"MediVision/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MedicalHandler serves the public clinical endpoints.
type MedicalHandler struct {
	ragSvc    service.RagService
	memorySvc *service.MemoryService
	store     repository.VectorStore
}

func NewMedicalHandler(ragSvc service.RagService, memorySvc *service.MemoryService, store repository.VectorStore) *MedicalHandler {
	return &MedicalHandler{ragSvc: ragSvc, memorySvc: memorySvc, store: store}
}

// Diagnose handles POST /api/diagnose.
func (h *MedicalHandler) Diagnose(c *gin.Context) {
	var req request.DiagnoseRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.ragSvc.Diagnose(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("diagnose failed", zap.String("patient_id", req.PatientID), zap.Error(err))
	}
	back.Result(c, data, err)
}

// Search handles POST /api/search.
func (h *MedicalHandler) Search(c *gin.Context) {
	var req request.SearchRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.ragSvc.SearchTexts(c.Request.Context(), req)
	back.Result(c, data, err)
}

// PatientSummary handles GET /api/patients/:id.
func (h *MedicalHandler) PatientSummary(c *gin.Context) {
	patientID := strings.TrimSpace(c.Param("id"))
	if patientID == "" {
		back.Error(c, xerr.BadRequest, "patient id is required")
		return
	}

	data, err := h.memorySvc.Summarize(c.Request.Context(), patientID)
	back.Result(c, data, err)
}

// Treatment handles POST /api/treatment.
func (h *MedicalHandler) Treatment(c *gin.Context) {
	var req request.TreatmentRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.ragSvc.RecommendTreatment(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("treatment recommendation failed", zap.String("patient_id", req.PatientID), zap.Error(err))
	}
	back.Result(c, data, err)
}

// Collections handles GET /api/collections.
func (h *MedicalHandler) Collections(c *gin.Context) {
	names, err := h.store.ListCollections(c.Request.Context())
	if err != nil {
		back.Result(c, nil, err)
		return
	}

	out := make([]respond.CollectionRespond, 0, len(names))
	for _, name := range names {
		info, err := h.store.Describe(c.Request.Context(), name)
		if err != nil {
			zlog.Warn("describe collection failed", zap.String("collection", name), zap.Error(err))
			continue
		}
		out = append(out, respond.CollectionRespond{
			Name:       info.Name,
			Dimension:  info.Dimension,
			PointCount: info.PointCount,
			Loaded:     info.Loaded,
		})
	}
	back.Success(c, out)
}

// Health handles GET /.
func (h *MedicalHandler) Health(c *gin.Context) {
	back.Success(c, gin.H{"status": "ok", "service": "MediVision"})
}
