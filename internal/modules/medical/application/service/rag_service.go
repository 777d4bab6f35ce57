package service

import (
	"context"
	"fmt"
	"strings"

	"MediVision/internal/modules/medical/application/dto/request"
	"MediVision/internal/modules/medical/application/dto/respond"
	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"
	infraembed "MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/internal/modules/medical/infrastructure/llm"
	"MediVision/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// RagService is the retrieval-augmented clinical reasoning surface: literature
// search, diagnosis, image analysis and treatment recommendations.
type RagService interface {
	SearchTexts(ctx context.Context, req request.SearchRequest) (*respond.SearchRespond, error)
	SearchImages(ctx context.Context, imagePath string, limit int, filters map[string]any) ([]entity.KnowledgeImage, error)
	Diagnose(ctx context.Context, req request.DiagnoseRequest) (*respond.DiagnoseRespond, error)
	AnalyzeImage(ctx context.Context, req request.AnalyzeImageRequest) (*respond.AnalyzeImageRespond, error)
	RecommendTreatment(ctx context.Context, req request.TreatmentRequest) (*respond.TreatmentRespond, error)
	SummarizeSession(ctx context.Context, session []llm.SessionMessage) (string, error)
}

type ragServiceImpl struct {
	store         repository.VectorStore
	textEmbedder  embedding.Embedder
	imageEmbedder repository.ImageEmbedder
	generator     *llm.Generator
	memory        *MemoryService

	textsCollection  string
	imagesCollection string
}

func NewRagService(
	store repository.VectorStore,
	textEmbedder embedding.Embedder,
	imageEmbedder repository.ImageEmbedder,
	generator *llm.Generator,
	memory *MemoryService,
	textsCollection, imagesCollection string,
) RagService {
	return &ragServiceImpl{
		store:            store,
		textEmbedder:     textEmbedder,
		imageEmbedder:    imageEmbedder,
		generator:        generator,
		memory:           memory,
		textsCollection:  textsCollection,
		imagesCollection: imagesCollection,
	}
}

// SearchTexts runs filtered ANN search over the literature collection.
// Category and specialty shortcuts fold into the metadata filter.
func (s *ragServiceImpl) SearchTexts(ctx context.Context, req request.SearchRequest) (*respond.SearchRespond, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	filters := make(map[string]any, len(req.Filters)+2)
	for k, v := range req.Filters {
		filters[k] = v
	}
	if strings.TrimSpace(req.Category) != "" {
		filters["category"] = strings.TrimSpace(req.Category)
	}
	if strings.TrimSpace(req.Specialty) != "" {
		filters["specialty"] = strings.TrimSpace(req.Specialty)
	}

	results, err := s.searchTexts(ctx, query, limit, filters)
	if err != nil {
		return nil, err
	}
	return &respond.SearchRespond{Query: query, Results: results, Count: len(results)}, nil
}

func (s *ragServiceImpl) searchTexts(ctx context.Context, query string, limit int, filters map[string]any) ([]entity.KnowledgeText, error) {
	vector, err := infraembed.EmbedOne(ctx, s.textEmbedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, s.textsCollection, vector, limit, 0, filters)
	if err != nil {
		return nil, err
	}

	results := make([]entity.KnowledgeText, 0, len(hits))
	for _, h := range hits {
		results = append(results, hitToKnowledgeText(h))
	}
	return results, nil
}

// SearchImages embeds the image on disk and finds visually similar reference
// cases.
func (s *ragServiceImpl) SearchImages(ctx context.Context, imagePath string, limit int, filters map[string]any) ([]entity.KnowledgeImage, error) {
	if strings.TrimSpace(imagePath) == "" {
		return nil, fmt.Errorf("image path is required")
	}
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.imageEmbedder.EmbedFile(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, s.imagesCollection, vector, limit, 0, filters)
	if err != nil {
		return nil, err
	}

	cases := make([]entity.KnowledgeImage, 0, len(hits))
	for _, h := range hits {
		cases = append(cases, hitToKnowledgeImage(h))
	}
	return cases, nil
}

// Diagnose retrieves the patient's recent history plus relevant literature
// and asks the model for a differential. The exchange is written back to the
// patient's memory as a diagnosis interaction.
func (s *ragServiceImpl) Diagnose(ctx context.Context, req request.DiagnoseRequest) (*respond.DiagnoseRespond, error) {
	patientID := strings.TrimSpace(req.PatientID)
	symptoms := strings.TrimSpace(req.Symptoms)
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if symptoms == "" {
		return nil, fmt.Errorf("symptoms is required")
	}
	useHistory := req.UsePatientHistory == nil || *req.UsePatientHistory

	patientHistory := ""
	if useHistory {
		history, err := s.memory.RetrieveHistory(ctx, patientID, 5)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			lines := make([]string, 0, len(history))
			for _, h := range history {
				lines = append(lines, fmt.Sprintf("- %s: %s", h.Timestamp, llm.TruncateForPrompt(h.Content, 100)))
			}
			patientHistory = strings.Join(lines, "\n")
		} else {
			patientHistory = "No previous history available."
		}
	}

	evidence, err := s.searchTexts(ctx, "symptoms: "+symptoms, 5, nil)
	if err != nil {
		return nil, err
	}

	system, user := llm.BuildDiagnosisPrompt(patientHistory, symptoms, evidence)
	diagnosis, err := s.generator.Complete(ctx, system, user, llm.DiagnosisTemperature, llm.DiagnosisMaxTokens)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Symptoms: %s\n\nDiagnosis: %s", symptoms, diagnosis)
	if _, err := s.memory.StoreInteraction(ctx, patientID, entity.InteractionDiagnosis, content,
		map[string]any{"symptoms": symptoms}); err != nil {
		// The answer is already produced; losing the memory write is logged,
		// not fatal.
		zlog.Warn("diagnose memory write failed", zap.String("patient_id", patientID), zap.Error(err))
	}

	return &respond.DiagnoseRespond{
		PatientID:          patientID,
		Diagnosis:          diagnosis,
		RetrievedEvidence:  evidence,
		PatientHistoryUsed: patientHistory != "",
	}, nil
}

// AnalyzeImage retrieves similar reference cases for the image (restricted to
// the same modality) and asks the model for a radiological read.
func (s *ragServiceImpl) AnalyzeImage(ctx context.Context, req request.AnalyzeImageRequest) (*respond.AnalyzeImageRespond, error) {
	patientID := strings.TrimSpace(req.PatientID)
	imagePath := strings.TrimSpace(req.ImagePath)
	imageType := strings.TrimSpace(req.ImageType)
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if imagePath == "" {
		return nil, fmt.Errorf("image_path is required")
	}
	if imageType == "" {
		return nil, fmt.Errorf("image_type is required")
	}

	similarCases, err := s.SearchImages(ctx, imagePath, 5, map[string]any{"modality": imageType})
	if err != nil {
		return nil, err
	}

	system, user := llm.BuildImageAnalysisPrompt(req.Description, imageType, similarCases)
	analysis, err := s.generator.Complete(ctx, system, user, llm.ImageAnalysisTemperature, llm.ImageAnalysisMaxTokens)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Image Type: %s\nDescription: %s\n\nAnalysis: %s", imageType, req.Description, analysis)
	if _, err := s.memory.StoreInteraction(ctx, patientID, entity.InteractionImageAnalysis, content,
		map[string]any{"image_type": imageType, "image_path": imagePath}); err != nil {
		zlog.Warn("image analysis memory write failed", zap.String("patient_id", patientID), zap.Error(err))
	}

	return &respond.AnalyzeImageRespond{
		PatientID:     patientID,
		ImageAnalysis: analysis,
		SimilarCases:  similarCases,
	}, nil
}

// RecommendTreatment searches treatment literature for the diagnosis and
// personalizes the recommendation with the patient's recent history.
func (s *ragServiceImpl) RecommendTreatment(ctx context.Context, req request.TreatmentRequest) (*respond.TreatmentRespond, error) {
	patientID := strings.TrimSpace(req.PatientID)
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if diagnosis == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}

	guidelines, err := s.searchTexts(ctx, "treatment guidelines for "+diagnosis, 5, map[string]any{"category": "treatment"})
	if err != nil {
		return nil, err
	}

	history, err := s.memory.RetrieveHistory(ctx, patientID, 10)
	if err != nil {
		return nil, err
	}
	historyLines := make([]string, 0, 5)
	for i, h := range history {
		if i >= 5 {
			break
		}
		historyLines = append(historyLines, fmt.Sprintf("- %s: %s - %s", h.Timestamp, h.Type, llm.TruncateForPrompt(h.Content, 100)))
	}

	system, user := llm.BuildTreatmentPrompt(diagnosis, strings.Join(historyLines, "\n"), req.Contraindications, guidelines)
	recommendations, err := s.generator.Complete(ctx, system, user, llm.TreatmentTemperature, llm.TreatmentMaxTokens)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Diagnosis: %s\n\nRecommendations: %s", diagnosis, recommendations)
	if _, err := s.memory.StoreInteraction(ctx, patientID, entity.InteractionTreatment, content,
		map[string]any{"diagnosis": diagnosis}); err != nil {
		zlog.Warn("treatment memory write failed", zap.String("patient_id", patientID), zap.Error(err))
	}

	return &respond.TreatmentRespond{
		PatientID:       patientID,
		Recommendations: recommendations,
		EvidenceSources: guidelines,
	}, nil
}

func (s *ragServiceImpl) SummarizeSession(ctx context.Context, session []llm.SessionMessage) (string, error) {
	if len(session) == 0 {
		return "", fmt.Errorf("session is empty")
	}
	system, user := llm.BuildSessionSummaryPrompt(session)
	return s.generator.Complete(ctx, system, user, llm.SessionSummaryTemperature, llm.SessionSummaryMaxTokens)
}

func hitToKnowledgeText(h repository.Hit) entity.KnowledgeText {
	kt := entity.KnowledgeText{
		ID:             h.ID,
		Content:        h.Content,
		RelevanceScore: h.Score,
	}

	extra := make(map[string]any)
	for k, v := range h.Metadata {
		switch k {
		case "title":
			kt.Title, _ = v.(string)
		case "category":
			kt.Category, _ = v.(string)
		case "specialty":
			kt.Specialty, _ = v.(string)
		case "source":
			kt.Source, _ = v.(string)
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		kt.Extra = extra
	}
	return kt
}

func hitToKnowledgeImage(h repository.Hit) entity.KnowledgeImage {
	ki := entity.KnowledgeImage{
		ID:              h.ID,
		SimilarityScore: h.Score,
	}

	extra := make(map[string]any)
	for k, v := range h.Metadata {
		switch k {
		case "image_path":
			ki.ImagePath, _ = v.(string)
		case "modality":
			ki.Modality, _ = v.(string)
		case "body_part":
			ki.BodyPart, _ = v.(string)
		case "diagnosis":
			ki.Diagnosis, _ = v.(string)
		case "findings":
			ki.Findings, _ = v.(string)
		default:
			extra[k] = v
		}
	}
	if ki.Findings == "" {
		ki.Findings = h.Content
	}
	if len(extra) > 0 {
		ki.Extra = extra
	}
	return ki
}
