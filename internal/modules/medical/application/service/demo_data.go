package service

import "MediVision/internal/modules/medical/domain/entity"

// Built-in sample corpus for the seed endpoint. Small on purpose: enough to
// exercise retrieval, diagnosis and treatment end to end on a fresh deploy.

var demoMedicalTexts = []entity.KnowledgeText{
	{
		Title: "Pneumonia: Diagnosis and Management",
		Content: `Pneumonia is an infection that inflames the air sacs in one or both lungs.
Symptoms include cough with phlegm, fever, chills, and difficulty breathing.
Diagnosis typically involves chest X-ray, blood tests, and sputum culture.
Treatment depends on the cause but often includes antibiotics for bacterial pneumonia.
Key diagnostic criteria: fever >38°C, productive cough, chest pain, dyspnea, and
abnormal lung sounds. Chest X-ray showing infiltrates is confirmatory.`,
		Category:  "diagnosis",
		Specialty: "pulmonology",
		Source:    "Medical Guidelines Database",
	},
	{
		Title: "Type 2 Diabetes: Clinical Guidelines",
		Content: `Type 2 diabetes is a chronic condition affecting glucose metabolism.
Diagnostic criteria: Fasting plasma glucose ≥126 mg/dL or HbA1c ≥6.5%.
Symptoms include increased thirst, frequent urination, fatigue, and blurred vision.
First-line treatment is lifestyle modification and metformin.
Complications include cardiovascular disease, neuropathy, nephropathy, and retinopathy.
Regular monitoring of blood glucose, HbA1c, and kidney function is essential.`,
		Category:  "diagnosis",
		Specialty: "endocrinology",
		Source:    "Diabetes Association Guidelines",
	},
	{
		Title: "Hypertension: Screening and Management",
		Content: `Hypertension (high blood pressure) is defined as BP ≥130/80 mmHg.
Often asymptomatic, it's a major risk factor for stroke and heart disease.
Diagnosis requires multiple BP measurements on different occasions.
Treatment includes lifestyle modifications (diet, exercise, weight loss) and
antihypertensive medications. First-line drugs include ACE inhibitors, ARBs,
calcium channel blockers, and thiazide diuretics. Regular monitoring is crucial.`,
		Category:  "diagnosis",
		Specialty: "cardiology",
		Source:    "Cardiology Association Guidelines",
	},
	{
		Title: "COVID-19: Diagnosis and Treatment Protocol",
		Content: `COVID-19 is caused by SARS-CoV-2 virus. Symptoms range from mild
(fever, cough, fatigue) to severe (pneumonia, ARDS). Diagnosis via RT-PCR or
rapid antigen test. Mild cases: supportive care at home. Severe cases:
hospitalization, oxygen therapy, antivirals (remdesivir), and corticosteroids.
Risk factors for severe disease: age >65, obesity, diabetes, cardiovascular disease.
Vaccination is the primary prevention strategy.`,
		Category:  "diagnosis",
		Specialty: "infectious disease",
		Source:    "WHO Clinical Guidelines",
	},
	{
		Title: "Migraine: Diagnosis and Treatment",
		Content: `Migraine is a neurological condition characterized by recurrent headaches.
Symptoms: unilateral throbbing headache, nausea, photophobia, and phonophobia.
Diagnosis is clinical based on ICHD-3 criteria. Acute treatment: NSAIDs, triptans.
Preventive treatment for chronic migraine: beta-blockers, anticonvulsants,
CGRP inhibitors. Lifestyle modifications include regular sleep, stress management,
and identifying/avoiding triggers.`,
		Category:  "diagnosis",
		Specialty: "neurology",
		Source:    "Headache Society Guidelines",
	},
	{
		Title: "Pneumonia: Antibiotic Treatment Guidelines",
		Content: `Community-acquired pneumonia (CAP) treatment: First-line for outpatients
without comorbidities is amoxicillin or doxycycline. For patients with comorbidities,
use amoxicillin-clavulanate or respiratory fluoroquinolone. Hospitalized patients:
beta-lactam plus macrolide or respiratory fluoroquinolone. Severe CAP:
beta-lactam plus azithromycin or fluoroquinolone, consider ICU admission.
Duration: 5-7 days for most cases. Monitor clinical response at 48-72 hours.`,
		Category:  "treatment",
		Specialty: "pulmonology",
		Source:    "Infectious Disease Society Guidelines",
	},
	{
		Title: "Type 2 Diabetes: Treatment Algorithm",
		Content: `Step 1: Lifestyle modification and metformin. Step 2: If HbA1c target
not met, add second agent based on patient factors. With ASCVD or CKD: add GLP-1 RA
or SGLT2i. With heart failure: add SGLT2i. Cost is concern: add sulfonylurea or
thiazolidinedione. Step 3: Triple therapy or insulin. Target HbA1c <7% for most
adults. Monitor for hypoglycemia, especially with insulin or sulfonylureas.
Regular screening for complications (retinopathy, nephropathy, neuropathy).`,
		Category:  "treatment",
		Specialty: "endocrinology",
		Source:    "Endocrine Society Treatment Protocol",
	},
	{
		Title: "Hypertension: Medication Selection Guide",
		Content: `First-line agents for hypertension: ACE inhibitors (ramipril, lisinopril),
ARBs (losartan, valsartan), CCBs (amlodipine, diltiazem), thiazide diuretics
(hydrochlorothiazide). Black patients: start with CCB or thiazide. CKD patients:
ACE inhibitor or ARB. Post-MI patients: beta-blocker and ACE inhibitor.
Combination therapy often needed for BP >150/95. Target BP <130/80 for most adults.
Monitor electrolytes with diuretics, renal function with ACE/ARB, heart rate with beta-blockers.`,
		Category:  "treatment",
		Specialty: "cardiology",
		Source:    "Hypertension Management Guidelines",
	},
}

type demoInteraction struct {
	Timestamp string
	Type      entity.InteractionType
	Content   string
}

type demoPatient struct {
	PatientID string
	Name      string
	Age       int
	Gender    string
	History   []demoInteraction
}

var demoPatients = []demoPatient{
	{
		PatientID: "P001",
		Name:      "John Smith",
		Age:       45,
		Gender:    "male",
		History: []demoInteraction{
			{
				Timestamp: "2024-01-15T10:30:00Z",
				Type:      entity.InteractionConsultation,
				Content:   "Patient presented with persistent cough and fever for 5 days. Temperature 38.5°C. No known allergies.",
			},
			{
				Timestamp: "2024-01-20T14:00:00Z",
				Type:      entity.InteractionFollowUp,
				Content:   "Follow-up visit: Cough improving with antibiotics. Temperature normal. Continue treatment for 7 days total.",
			},
		},
	},
	{
		PatientID: "P002",
		Name:      "Sarah Johnson",
		Age:       62,
		Gender:    "female",
		History: []demoInteraction{
			{
				Timestamp: "2024-02-01T09:00:00Z",
				Type:      entity.InteractionConsultation,
				Content:   "Annual checkup. Patient reports increased thirst and frequent urination. Random blood glucose 205 mg/dL.",
			},
			{
				Timestamp: "2024-02-08T11:00:00Z",
				Type:      entity.InteractionDiagnosis,
				Content:   "Fasting glucose 135 mg/dL. HbA1c 7.2%. Diagnosed with Type 2 Diabetes. Started on metformin 500mg BID.",
			},
		},
	},
}
