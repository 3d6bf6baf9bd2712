// Package genome holds the shared vocabulary of the risk pipeline: dataset
// column names, the gene and disease catalogs, personalized risk factors and
// risk banding.
package genome

// Dataset column names.
const (
	ColPatientID      = "patient_id"
	ColAge            = "age"
	ColGender         = "gender"
	ColBloodGroup     = "blood_group"
	ColBMI            = "bmi"
	ColSystolicBP     = "systolic_bp"
	ColDiastolicBP    = "diastolic_bp"
	ColMedicalHistory = "medical_history"
	ColFamilyHistory  = "family_history"
	ColLifestyle      = "lifestyle"
	ColReportType     = "report_type"

	ColGeneID              = "gene_id"
	ColGeneSymbol          = "gene_symbol"
	ColGeneName            = "gene_name"
	ColDiseaseID           = "disease_id"
	ColDiseaseName         = "disease_name"
	ColDiseaseClass        = "disease_class"
	ColDiseaseClassEncoded = "disease_class_encoded"
	ColScore               = "score"
	ColEI                  = "ei"
	ColCombinedScore       = "combined_score"
	ColEvidenceStrength    = "evidence_strength"
	ColAssociationAge      = "association_age"
	ColResearchActivity    = "research_activity"
	ColNofPMIDs            = "nofpmids"
	ColYearInitial         = "year_initial"
	ColYearFinal           = "year_final"

	ColGeneValue = "gene_value"
	ColNormalMin = "normal_min"
	ColNormalMax = "normal_max"
	ColStatus    = "status"
	ColDeviation = "deviation"

	ColAgeFactor       = "age_factor"
	ColGenderFactor    = "gender_factor"
	ColMedicalFactor   = "medical_factor"
	ColFamilyFactor    = "family_factor"
	ColLifestyleFactor = "lifestyle_factor"
	ColBMIFactor       = "bmi_factor"

	ColPersonalizedRisk = "personalized_risk_score"
	ColRiskCategory     = "risk_category"
	ColHealthStatus     = "health_status"
)

// FeatureColumns are the model inputs in training order.
var FeatureColumns = []string{
	ColAge, ColGender, ColBloodGroup, ColBMI, ColSystolicBP, ColDiastolicBP,
	ColGeneID, ColDiseaseClassEncoded, ColScore, ColEI, ColCombinedScore,
	ColEvidenceStrength, ColAssociationAge, ColResearchActivity,
	ColAgeFactor, ColGenderFactor, ColMedicalFactor, ColFamilyFactor,
	ColLifestyleFactor, ColBMIFactor,
}

// CategoricalColumns are label encoded rather than scaled.
var CategoricalColumns = []string{ColGender, ColBloodGroup}

// FactorColumns can be derived from patient and association fields when a
// row does not carry them.
var FactorColumns = []string{
	ColAgeFactor, ColGenderFactor, ColMedicalFactor,
	ColFamilyFactor, ColLifestyleFactor, ColBMIFactor,
}

// AssociationColumns identify a gene-disease record inside a patient row.
var AssociationColumns = []string{
	ColGeneID, ColGeneSymbol, ColDiseaseName, ColDiseaseClassEncoded,
	ColScore, ColEI, ColCombinedScore, ColEvidenceStrength,
	ColAssociationAge, ColResearchActivity,
}

// IsCategorical reports whether col is label encoded.
func IsCategorical(col string) bool {
	for _, c := range CategoricalColumns {
		if c == col {
			return true
		}
	}
	return false
}
