package llm

import (
	"fmt"
	"strings"

	"MediVision/internal/modules/medical/domain/entity"
)

// Prompt templates for the clinical reasoning operations. Retrieved evidence
// is enumerated 1-based ("Source 1", "Guideline 1") so the model can cite it
// and the response can be checked against the evidence list.

const diagnosisSystemPrompt = `You are an expert medical AI assistant with access to comprehensive medical knowledge.
Your role is to:
1. Analyze patient symptoms and history
2. Consider retrieved medical literature and guidelines
3. Provide evidence-based diagnostic suggestions
4. Highlight important considerations and red flags
5. Recommend appropriate next steps

IMPORTANT: Always cite sources from the retrieved context. Be clear about confidence levels.
This is for educational purposes only - not a replacement for professional medical consultation.`

const imageAnalysisSystemPrompt = `You are an expert radiologist AI assistant specialized in medical image analysis.
Your role is to:
1. Analyze medical image descriptions
2. Compare with similar cases
3. Identify key findings
4. Suggest potential diagnoses
5. Recommend follow-up imaging or tests

Always provide evidence-based analysis with confidence levels.`

const treatmentSystemPrompt = `You are an expert medical AI assistant providing evidence-based treatment recommendations.`

const sessionSummarySystemPrompt = `You are a medical documentation assistant.
Summarize patient consultation sessions clearly and concisely.
Include: chief complaint, key findings, assessment, and plan.`

// Generation parameters per operation; clinical outputs run cool.
const (
	DiagnosisTemperature = 0.3
	DiagnosisMaxTokens   = 1500

	ImageAnalysisTemperature = 0.2
	ImageAnalysisMaxTokens   = 1200

	TreatmentTemperature = 0.2
	TreatmentMaxTokens   = 1500

	SessionSummaryTemperature = 0.1
	SessionSummaryMaxTokens   = 800
)

func BuildDiagnosisPrompt(patientHistory, symptoms string, retrieved []entity.KnowledgeText) (system, user string) {
	blocks := make([]string, 0, len(retrieved))
	for i, ctx := range retrieved {
		title := ctx.Title
		if title == "" {
			title = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("**Source %d**: %s\n%s", i+1, title, ctx.Content))
	}

	user = fmt.Sprintf(`**Patient History:**
%s

**Current Symptoms:**
%s

**Retrieved Medical Knowledge:**
%s

Based on the patient information and medical knowledge above, please provide:
1. Potential diagnoses (ranked by likelihood)
2. Key supporting evidence from the retrieved context
3. Important differential diagnoses to consider
4. Recommended diagnostic tests or examinations
5. Urgent care considerations (if any)
`, patientHistory, symptoms, strings.Join(blocks, "\n\n"))

	return diagnosisSystemPrompt, user
}

func BuildImageAnalysisPrompt(imageDescription, imageType string, similarCases []entity.KnowledgeImage) (system, user string) {
	blocks := make([]string, 0, len(similarCases))
	for i, c := range similarCases {
		diag := c.Diagnosis
		if diag == "" {
			diag = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("**Similar Case %d**: %s\nFindings: %s", i+1, diag, c.Findings))
	}

	user = fmt.Sprintf(`**Image Type:** %s

**Image Description:**
%s

**Similar Cases:**
%s

Please provide detailed analysis including:
1. Key radiological findings
2. Comparison with similar cases
3. Potential diagnoses
4. Confidence level and reasoning
5. Recommended follow-up
`, imageType, imageDescription, strings.Join(blocks, "\n\n"))

	return imageAnalysisSystemPrompt, user
}

func BuildTreatmentPrompt(diagnosis, historyText string, contraindications []string, guidelines []entity.KnowledgeText) (system, user string) {
	blocks := make([]string, 0, len(guidelines))
	for i, g := range guidelines {
		title := g.Title
		if title == "" {
			title = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("**Guideline %d**: %s\n%s", i+1, title, g.Content))
	}

	contraText := "None known"
	if len(contraindications) > 0 {
		contraText = strings.Join(contraindications, ", ")
	}

	user = fmt.Sprintf(`**Diagnosis:** %s

**Patient History:**
%s

**Known Contraindications:** %s

**Treatment Guidelines:**
%s

Based on the diagnosis, patient history, and treatment guidelines above, please provide:
1. Recommended treatment options (ranked by effectiveness and patient suitability)
2. Considerations for this specific patient
3. Potential side effects or risks
4. Monitoring recommendations
5. Alternative approaches if first-line treatment fails
`, diagnosis, historyText, contraText, strings.Join(blocks, "\n\n"))

	return treatmentSystemPrompt, user
}

type SessionMessage struct {
	Role    string
	Content string
}

func BuildSessionSummaryPrompt(session []SessionMessage) (system, user string) {
	lines := make([]string, 0, len(session))
	for _, msg := range session {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}

	user = fmt.Sprintf(`Please summarize the following patient consultation:

%s

Provide a structured summary with:
- Chief Complaint
- History of Present Illness
- Key Findings
- Assessment
- Plan
`, strings.Join(lines, "\n"))

	return sessionSummarySystemPrompt, user
}

// TruncateForPrompt caps a history entry preview, keeping whole runes.
func TruncateForPrompt(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
