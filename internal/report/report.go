// Package report summarizes prediction results and renders them as JSON or
// PDF reports.
package report

import (
	"time"

	"github.com/Skufu/genewell/internal/genome"
	"github.com/Skufu/genewell/internal/predictor"
)

type Summary struct {
	HighRisk int `json:"high_risk"`
	AtRisk   int `json:"at_risk"`
	Normal   int `json:"normal"`
}

// Summarize counts results by health status. Errored rows count nowhere.
func Summarize(results []predictor.PatientResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.HealthStatus {
		case genome.StatusHighRisk:
			s.HighRisk++
		case genome.StatusAtRisk:
			s.AtRisk++
		case genome.StatusNormal:
			s.Normal++
		}
	}
	return s
}

type Report struct {
	Generated     time.Time                 `json:"report_generated"`
	TotalPatients int                       `json:"total_patients"`
	Summary       Summary                   `json:"summary"`
	Patients      []predictor.PatientResult `json:"patients"`
}

func Build(results []predictor.PatientResult, now time.Time) Report {
	if results == nil {
		results = []predictor.PatientResult{}
	}
	return Report{
		Generated:     now,
		TotalPatients: len(results),
		Summary:       Summarize(results),
		Patients:      results,
	}
}
