package respond

import "MediVision/internal/modules/medical/domain/entity"

type DiagnoseRespond struct {
	PatientID          string                 `json:"patient_id"`
	Diagnosis          string                 `json:"diagnosis"`
	RetrievedEvidence  []entity.KnowledgeText `json:"retrieved_evidence"`
	PatientHistoryUsed bool                   `json:"patient_history_used"`
}

type SearchRespond struct {
	Query   string                 `json:"query"`
	Results []entity.KnowledgeText `json:"results"`
	Count   int                    `json:"count"`
}

type TreatmentRespond struct {
	PatientID       string                 `json:"patient_id"`
	Recommendations string                 `json:"recommendations"`
	EvidenceSources []entity.KnowledgeText `json:"evidence_sources"`
}

type AnalyzeImageRespond struct {
	PatientID     string                  `json:"patient_id"`
	ImageAnalysis string                  `json:"image_analysis"`
	SimilarCases  []entity.KnowledgeImage `json:"similar_cases"`
}

type IndexTextRespond struct {
	ChunkIDs []string `json:"chunk_ids"`
	Chunks   int      `json:"chunks"`
}

type IndexBatchRespond struct {
	Enqueued int     `json:"enqueued"`
	EventIDs []int64 `json:"event_ids"`
}

type SeedRespond struct {
	TextsIndexed int `json:"texts_indexed"`
	Patients     int `json:"patients"`
	Interactions int `json:"interactions"`
}

type CollectionRespond struct {
	Name       string `json:"name"`
	Dimension  int    `json:"dimension"`
	PointCount int64  `json:"point_count"`
	Loaded     bool   `json:"loaded"`
}

type TokenRespond struct {
	Token string `json:"token"`
}
