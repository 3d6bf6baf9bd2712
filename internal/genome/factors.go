package genome

import "strings"

// Risk levels and health statuses reported to the frontend.
const (
	LevelHigh    = "High"
	LevelMedium  = "Medium"
	LevelLow     = "Low"
	LevelUnknown = "Unknown"

	StatusHighRisk = "High Risk"
	StatusAtRisk   = "At Risk"
	StatusNormal   = "Normal"
	StatusError    = "Error"
)

const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Profile is the patient side of a prediction record.
type Profile struct {
	Age            int
	Gender         string
	BloodGroup     string
	MedicalHistory string
	FamilyHistory  string
	Lifestyle      string
	BMI            float64
	SystolicBP     int
	DiastolicBP    int
	ReportType     string
}

// Association is the gene-disease side of a prediction record.
type Association struct {
	GeneID              int
	GeneSymbol          string
	GeneName            string
	DiseaseID           string
	DiseaseName         string
	DiseaseType         string
	DiseaseClass        string
	DiseaseClassEncoded int
	Score               float64
	EI                  float64
	CombinedScore       float64
	EvidenceStrength    float64
	AssociationAge      int
	ResearchActivity    float64
	NofPMIDs            int
	NofSNPs             int
	YearInitial         int
	YearFinal           int
	AssociationType     string
	Status              string
}

// Factors scale an association score into a personalized risk.
type Factors struct {
	Age       float64
	Gender    float64
	Medical   float64
	Family    float64
	Lifestyle float64
	BMI       float64
}

// Product multiplies all factors together.
func (f Factors) Product() float64 {
	return f.Age * f.Gender * f.Medical * f.Family * f.Lifestyle * f.BMI
}

// Values returns the factors keyed by their dataset column.
func (f Factors) Values() map[string]float64 {
	return map[string]float64{
		ColAgeFactor:       f.Age,
		ColGenderFactor:    f.Gender,
		ColMedicalFactor:   f.Medical,
		ColFamilyFactor:    f.Family,
		ColLifestyleFactor: f.Lifestyle,
		ColBMIFactor:       f.BMI,
	}
}

// ComputeFactors derives the personalized factors for a patient and
// association pair.
func ComputeFactors(p Profile, a Association) Factors {
	disease := strings.ToLower(a.DiseaseName)
	class := strings.ToLower(a.DiseaseClass)
	cardio := strings.Contains(class, "cardiovascular")

	f := Factors{Age: 1, Gender: 1, Medical: 1, Family: 1, Lifestyle: 1, BMI: 1}

	switch {
	case p.Age > 60:
		f.Age = 1.3
	case p.Age > 40:
		f.Age = 1.1
	case p.Age < 25:
		f.Age = 0.8
	}

	switch {
	case strings.EqualFold(p.Gender, "female") && strings.Contains(disease, "breast cancer"):
		f.Gender = 1.5
	case strings.EqualFold(p.Gender, "male") && strings.Contains(disease, "prostate cancer"):
		f.Gender = 1.4
	}

	medical := strings.ToLower(p.MedicalHistory)
	switch {
	case strings.Contains(medical, "diabetes") && strings.Contains(disease, "diabetes"):
		f.Medical = 1.8
	case strings.Contains(medical, "hypertension") && cardio:
		f.Medical = 1.6
	case strings.Contains(medical, "cancer") && strings.Contains(disease, "cancer"):
		f.Medical = 1.7
	}

	family := strings.ToLower(p.FamilyHistory)
	switch {
	case strings.Contains(family, "diabetes") && strings.Contains(disease, "diabetes"):
		f.Family = 1.4
	case strings.Contains(family, "heart disease") && cardio:
		f.Family = 1.3
	case strings.Contains(family, "cancer") && strings.Contains(disease, "cancer"):
		f.Family = 1.5
	case strings.Contains(family, "alzheimer") && strings.Contains(disease, "alzheimer"):
		f.Family = 1.6
	}

	lifestyle := strings.ToLower(p.Lifestyle)
	switch {
	case strings.Contains(lifestyle, "smoking") && strings.Contains(disease, "cancer"):
		f.Lifestyle = 1.4
	case strings.Contains(lifestyle, "obesity") && strings.Contains(disease, "diabetes"):
		f.Lifestyle = 1.3
	case strings.Contains(lifestyle, "sedentary") && cardio:
		f.Lifestyle = 1.2
	case strings.Contains(lifestyle, "regular exercise"):
		f.Lifestyle = 0.9
	}

	switch {
	case p.BMI > 30:
		if strings.Contains(disease, "diabetes") || cardio {
			f.BMI = 1.3
		}
	case p.BMI > 0 && p.BMI < 18.5:
		f.BMI = 0.9
	}

	return f
}

// PersonalizedRisk scales the association score by the patient factors and
// clamps the result to [0, 1].
func PersonalizedRisk(p Profile, a Association) (float64, Factors) {
	f := ComputeFactors(p, a)
	return Clamp(a.Score*f.Product(), 0, 1), f
}

// RiskLevel bands a score into High, Medium or Low.
func RiskLevel(score float64) string {
	switch {
	case score > highThreshold:
		return LevelHigh
	case score > mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// HealthStatus bands a score into the status shown on dashboards.
func HealthStatus(score float64) string {
	switch {
	case score > highThreshold:
		return StatusHighRisk
	case score > mediumThreshold:
		return StatusAtRisk
	default:
		return StatusNormal
	}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
