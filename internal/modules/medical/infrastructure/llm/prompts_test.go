package llm

import (
	"strings"
	"testing"

	"MediVision/internal/modules/medical/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildDiagnosisPromptEnumeratesSources(t *testing.T) {
	system, user := BuildDiagnosisPrompt(
		"- 2024-01-15: persistent cough",
		"fever, productive cough, chest pain",
		[]entity.KnowledgeText{
			{Title: "Community-Acquired Pneumonia", Content: "CAP presents with fever and cough."},
			{Content: "Untitled reference body."},
		})

	assert.Contains(t, system, "expert medical AI assistant")
	assert.Contains(t, user, "**Source 1**: Community-Acquired Pneumonia")
	assert.Contains(t, user, "**Source 2**: Unknown")
	assert.Contains(t, user, "persistent cough")
	assert.Contains(t, user, "fever, productive cough, chest pain")
	// 1-based enumeration, never a Source 0.
	assert.NotContains(t, user, "**Source 0**")
}

func TestBuildTreatmentPromptContraindications(t *testing.T) {
	_, user := BuildTreatmentPrompt("community-acquired pneumonia", "no relevant history", nil,
		[]entity.KnowledgeText{{Title: "CAP Treatment", Content: "Amoxicillin first line."}})
	assert.Contains(t, user, "**Known Contraindications:** None known")
	assert.Contains(t, user, "**Guideline 1**: CAP Treatment")

	_, user = BuildTreatmentPrompt("community-acquired pneumonia", "no relevant history",
		[]string{"penicillin allergy", "renal impairment"}, nil)
	assert.Contains(t, user, "**Known Contraindications:** penicillin allergy, renal impairment")
}

func TestBuildImageAnalysisPrompt(t *testing.T) {
	system, user := BuildImageAnalysisPrompt("right lower lobe opacity", "xray",
		[]entity.KnowledgeImage{
			{Diagnosis: "Pneumonia", Findings: "consolidation in right lower lobe"},
			{Findings: "clear lung fields"},
		})

	assert.Contains(t, system, "radiologist")
	assert.Contains(t, user, "**Image Type:** xray")
	assert.Contains(t, user, "**Similar Case 1**: Pneumonia")
	assert.Contains(t, user, "Findings: consolidation in right lower lobe")
	assert.Contains(t, user, "**Similar Case 2**: Unknown")
}

func TestBuildSessionSummaryPrompt(t *testing.T) {
	_, user := BuildSessionSummaryPrompt([]SessionMessage{
		{Role: "patient", Content: "I have had a headache for three days."},
		{Role: "doctor", Content: "Any visual disturbances?"},
	})

	assert.Contains(t, user, "patient: I have had a headache for three days.")
	assert.Contains(t, user, "doctor: Any visual disturbances?")
	assert.Contains(t, user, "Chief Complaint")
	idx1 := strings.Index(user, "patient:")
	idx2 := strings.Index(user, "doctor:")
	assert.Less(t, idx1, idx2)
}

func TestTruncateForPrompt(t *testing.T) {
	assert.Equal(t, "short", TruncateForPrompt("short", 100))
	assert.Equal(t, "abcde...", TruncateForPrompt("abcdefgh", 5))
	assert.Equal(t, "unbounded", TruncateForPrompt("unbounded", 0))

	// Multi-byte runes are never split.
	got := TruncateForPrompt("发热咳嗽胸痛病例", 4)
	assert.Equal(t, "发热咳嗽...", got)
}
