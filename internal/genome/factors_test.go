package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskBanding(t *testing.T) {
	cases := []struct {
		score  float64
		level  string
		status string
	}{
		{0.95, LevelHigh, StatusHighRisk},
		{0.71, LevelHigh, StatusHighRisk},
		{0.7, LevelMedium, StatusAtRisk},
		{0.41, LevelMedium, StatusAtRisk},
		{0.4, LevelLow, StatusNormal},
		{0, LevelLow, StatusNormal},
	}

	for _, c := range cases {
		assert.Equal(t, c.level, RiskLevel(c.score), "level for %v", c.score)
		assert.Equal(t, c.status, HealthStatus(c.score), "status for %v", c.score)
	}
}

func TestComputeFactors_Baseline(t *testing.T) {
	f := ComputeFactors(Profile{Age: 30, Gender: "Male", BMI: 22}, Association{DiseaseName: "Asthma"})
	assert.Equal(t, Factors{Age: 1, Gender: 1, Medical: 1, Family: 1, Lifestyle: 1, BMI: 1}, f)
	assert.InDelta(t, 1.0, f.Product(), 1e-9)
}

func TestComputeFactors_Matches(t *testing.T) {
	p := Profile{
		Age:            65,
		Gender:         "Female",
		MedicalHistory: "Hypertension, Breast Cancer",
		FamilyHistory:  "Cancer",
		Lifestyle:      "Smoking, Sedentary",
		BMI:            33,
	}
	a := Association{DiseaseName: "Breast cancer", DiseaseClass: ClassNeoplasms}

	f := ComputeFactors(p, a)
	assert.Equal(t, 1.3, f.Age)
	assert.Equal(t, 1.5, f.Gender)
	assert.Equal(t, 1.7, f.Medical)
	assert.Equal(t, 1.5, f.Family)
	assert.Equal(t, 1.4, f.Lifestyle)
	assert.Equal(t, 1.0, f.BMI, "obesity only scales diabetes and cardiovascular risk")
}

func TestComputeFactors_Cardiovascular(t *testing.T) {
	p := Profile{Age: 45, Gender: "Male", MedicalHistory: "Hypertension", FamilyHistory: "Heart Disease", Lifestyle: "Sedentary", BMI: 31}
	a := Association{DiseaseName: "Atherosclerosis", DiseaseClass: ClassCardiovascular}

	f := ComputeFactors(p, a)
	assert.Equal(t, 1.1, f.Age)
	assert.Equal(t, 1.6, f.Medical)
	assert.Equal(t, 1.3, f.Family)
	assert.Equal(t, 1.2, f.Lifestyle)
	assert.Equal(t, 1.3, f.BMI)
}

func TestPersonalizedRiskClamps(t *testing.T) {
	p := Profile{Age: 70, Gender: "Female", MedicalHistory: "Cancer", FamilyHistory: "Cancer", Lifestyle: "Smoking"}
	risk, _ := PersonalizedRisk(p, Association{DiseaseName: "Breast cancer", Score: 0.9})
	assert.Equal(t, 1.0, risk)

	risk, _ = PersonalizedRisk(Profile{Age: 20, BMI: 17}, Association{DiseaseName: "Asthma", Score: 0.5})
	assert.InDelta(t, 0.5*0.8*0.9, risk, 1e-9)
}

func TestCatalogLookups(t *testing.T) {
	assert.Equal(t, 7157, GeneID("tp53"))
	assert.Equal(t, UnknownGeneID, GeneID("NOPE1"))
	assert.Equal(t, "Lynch syndrome", DiseaseFor("MLH1"))
	assert.Equal(t, UnknownDisease, DiseaseFor("MYC"))
	assert.Equal(t, ClassNeoplasms, DiseaseClassOf("breast cancer"))
	assert.Equal(t, ClassNervous, DiseaseClassOf("Huntington disease"))
	assert.Equal(t, "", DiseaseClassOf("Something else"))
	assert.Equal(t, 5, EncodeDiseaseClass(ClassBlood))
	assert.Equal(t, 1, EncodeDiseaseClass(""))
}
