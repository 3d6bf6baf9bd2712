package predictor

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

// DefaultPanel scores patient rows that carry no association of their own.
var DefaultPanel = []dataset.Row{
	{
		genome.ColGeneID:              "7157",
		genome.ColGeneSymbol:          "TP53",
		genome.ColDiseaseName:         "Breast cancer",
		genome.ColDiseaseClassEncoded: "1",
		genome.ColScore:               "0.85",
		genome.ColEI:                  "0.78",
		genome.ColCombinedScore:       "0.82",
		genome.ColEvidenceStrength:    "0.9",
		genome.ColAssociationAge:      "15",
		genome.ColResearchActivity:    "0.06",
	},
	{
		genome.ColGeneID:              "672",
		genome.ColGeneSymbol:          "BRCA1",
		genome.ColDiseaseName:         "Breast cancer",
		genome.ColDiseaseClassEncoded: "1",
		genome.ColScore:               "0.92",
		genome.ColEI:                  "0.88",
		genome.ColCombinedScore:       "0.9",
		genome.ColEvidenceStrength:    "0.95",
		genome.ColAssociationAge:      "20",
		genome.ColResearchActivity:    "0.08",
	},
}

type PatientResult struct {
	PatientID    string  `json:"patient_id"`
	RiskScore    float64 `json:"risk_score"`
	RiskLevel    string  `json:"risk_level"`
	HealthStatus string  `json:"health_status"`
	Error        string  `json:"error,omitempty"`
}

type AssociationRisk struct {
	GeneSymbol    string  `json:"gene_symbol"`
	DiseaseName   string  `json:"disease_name"`
	PredictedRisk float64 `json:"predicted_risk"`
	RiskCategory  string  `json:"risk_category"`
	HealthStatus  string  `json:"health_status"`
}

func (m *Model) score(r dataset.Row) float64 {
	return genome.Clamp(m.Forest.Predict(m.Prep.Transform(WithFactors(r))), 0, 1)
}

// PredictRisk scores one patient row. A row with its own association fields
// is scored as is; otherwise it is scored against DefaultPanel and the
// results are averaged.
func (m *Model) PredictRisk(r dataset.Row) (float64, error) {
	if m == nil || m.Forest == nil || m.Prep == nil {
		return 0, ErrNotTrained
	}
	if r.HasAny(genome.AssociationColumns...) {
		return m.score(r), nil
	}
	sum := 0.0
	for _, a := range DefaultPanel {
		sum += m.score(r.Merge(a))
	}
	return sum / float64(len(DefaultPanel)), nil
}

// PredictDetailed scores patient against each association, riskiest first.
func (m *Model) PredictDetailed(patient dataset.Row, associations []dataset.Row) ([]AssociationRisk, error) {
	if m == nil || m.Forest == nil || m.Prep == nil {
		return nil, ErrNotTrained
	}
	out := make([]AssociationRisk, 0, len(associations))
	for _, a := range associations {
		rec := patient.Merge(a)
		risk := m.score(rec)
		out = append(out, AssociationRisk{
			GeneSymbol:    rec.StringOr(genome.ColGeneSymbol, "Unknown"),
			DiseaseName:   rec.StringOr(genome.ColDiseaseName, "Unknown"),
			PredictedRisk: risk,
			RiskCategory:  genome.RiskLevel(risk),
			HealthStatus:  genome.HealthStatus(risk),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PredictedRisk > out[j].PredictedRisk })
	return out, nil
}

// PredictTable scores every row of t. A row that cannot be scored yields
// an Error result rather than failing the table.
func (m *Model) PredictTable(t *dataset.Table) ([]PatientResult, error) {
	if m == nil || m.Forest == nil || m.Prep == nil {
		return nil, ErrNotTrained
	}
	out := make([]PatientResult, 0, t.Len())
	for i, r := range t.Rows {
		id := r.StringOr(genome.ColPatientID, fmt.Sprintf("P%04d", i))
		risk, err := m.safeRisk(r)
		if err != nil {
			out = append(out, PatientResult{
				PatientID:    id,
				RiskLevel:    genome.LevelUnknown,
				HealthStatus: genome.StatusError,
				Error:        err.Error(),
			})
			continue
		}
		out = append(out, PatientResult{
			PatientID:    id,
			RiskScore:    risk,
			RiskLevel:    genome.RiskLevel(risk),
			HealthStatus: genome.HealthStatus(risk),
		})
	}
	return out, nil
}

func (m *Model) safeRisk(r dataset.Row) (risk float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("predict row: %v", p)
		}
	}()
	return m.PredictRisk(r)
}
