package request

// DiagnoseRequest drives the symptom-based clinical reasoning endpoint.
type DiagnoseRequest struct {
	PatientID         string `json:"patient_id" binding:"required"`
	Symptoms          string `json:"symptoms" binding:"required"`
	UsePatientHistory *bool  `json:"use_patient_history,omitempty"`
}

// SearchRequest queries the medical literature collection.
type SearchRequest struct {
	Query     string         `json:"query" binding:"required"`
	Limit     int            `json:"limit,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`
	Category  string         `json:"category,omitempty"`
	Specialty string         `json:"specialty,omitempty"`
}

// TreatmentRequest asks for treatment recommendations for a confirmed
// diagnosis.
type TreatmentRequest struct {
	PatientID         string   `json:"patient_id" binding:"required"`
	Diagnosis         string   `json:"diagnosis" binding:"required"`
	Contraindications []string `json:"contraindications,omitempty"`
}

// AnalyzeImageRequest runs similar-case retrieval plus LLM analysis on a
// medical image already on disk.
type AnalyzeImageRequest struct {
	PatientID   string `json:"patient_id" binding:"required"`
	ImagePath   string `json:"image_path" binding:"required"`
	ImageType   string `json:"image_type" binding:"required"`
	Description string `json:"description,omitempty"`
}

// IndexTextRequest indexes one literature entry synchronously.
type IndexTextRequest struct {
	Title     string         `json:"title" binding:"required"`
	Category  string         `json:"category,omitempty"`
	Specialty string         `json:"specialty,omitempty"`
	Source    string         `json:"source,omitempty"`
	Content   string         `json:"content" binding:"required"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// IndexBatchRequest enqueues documents for asynchronous indexing through the
// outbox.
type IndexBatchRequest struct {
	Documents []IndexTextRequest `json:"documents" binding:"required"`
}

// TokenRequest mints an admin token.
type TokenRequest struct {
	Subject string `json:"subject" binding:"required"`
	Secret  string `json:"secret" binding:"required"`
}
