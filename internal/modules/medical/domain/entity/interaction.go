package entity

import "time"

// InteractionType classifies a patient-history record. The set is open:
// stores accept any non-empty value, these are the ones the system writes.
type InteractionType string

const (
	InteractionConsultation  InteractionType = "consultation"
	InteractionDiagnosis     InteractionType = "diagnosis"
	InteractionFollowUp      InteractionType = "follow_up"
	InteractionLabReview     InteractionType = "lab_review"
	InteractionImaging       InteractionType = "imaging_review"
	InteractionMedication    InteractionType = "medication_adjustment"
	InteractionImageAnalysis InteractionType = "image_analysis"
	InteractionTreatment     InteractionType = "treatment_recommendation"
)

// Interaction is a timestamped patient-history record persisted in the
// patient memory collection. Known fields are typed; Extra carries
// provider-specific metadata (symptoms, diagnosis, image_path, ...).
type Interaction struct {
	ID        string          `json:"interaction_id"`
	PatientID string          `json:"patient_id"`
	Type      InteractionType `json:"type"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"` // RFC3339

	Extra map[string]any `json:"extra,omitempty"`

	// RelevanceScore is set only on semantic search results.
	RelevanceScore float32 `json:"relevance_score,omitempty"`
}

// Time parses the RFC3339 timestamp; zero time on a malformed value.
func (i Interaction) Time() time.Time {
	t, err := time.Parse(time.RFC3339, i.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PatientSummary is derived on demand from a patient's interactions; it is
// never stored. FirstVisit is the oldest timestamp, LastVisit the newest.
type PatientSummary struct {
	PatientID          string         `json:"patient_id"`
	TotalInteractions  int            `json:"total_interactions"`
	InteractionTypes   map[string]int `json:"interaction_types"`
	FirstVisit         string         `json:"first_visit,omitempty"`
	LastVisit          string         `json:"last_visit,omitempty"`
	RecentInteractions []Interaction  `json:"recent_interactions"`
}
