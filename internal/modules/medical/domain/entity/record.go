package entity

// KnowledgeText is a medical literature entry in the texts collection.
type KnowledgeText struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Category  string `json:"category"`  // e.g. diagnosis, treatment
	Specialty string `json:"specialty"` // e.g. cardiology, pulmonology
	Source    string `json:"source,omitempty"`
	Content   string `json:"content"`

	Extra map[string]any `json:"extra,omitempty"`

	// RelevanceScore is set only on search results.
	RelevanceScore float32 `json:"relevance_score,omitempty"`
}

// KnowledgeImage is a reference medical image in the images collection. The
// image bytes live outside the store; only the path and findings are indexed.
type KnowledgeImage struct {
	ID        string `json:"id,omitempty"`
	ImagePath string `json:"image_path"`
	Modality  string `json:"modality"` // X-ray, MRI, CT, ...
	BodyPart  string `json:"body_part,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Findings  string `json:"findings,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`

	// SimilarityScore is set only on search results.
	SimilarityScore float32 `json:"similarity_score,omitempty"`
}
