package synth

import (
	"sort"
	"time"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

type Summary struct {
	DatasetInfo  DatasetInfo        `json:"dataset_info"`
	Demographics Demographics       `json:"patient_demographics"`
	Risk         RiskDistribution   `json:"risk_distribution"`
	TopDiseases  map[string]float64 `json:"top_diseases"`
	TopGenes     map[string]float64 `json:"top_genes"`
}

type DatasetInfo struct {
	TotalRecords   int       `json:"total_records"`
	UniquePatients int       `json:"unique_patients"`
	UniqueGenes    int       `json:"unique_genes"`
	UniqueDiseases int       `json:"unique_diseases"`
	Generated      time.Time `json:"date_generated"`
	Filename       string    `json:"filename"`
}

type Demographics struct {
	MeanAge    float64        `json:"mean_age"`
	MedianAge  float64        `json:"median_age"`
	MinAge     int            `json:"min_age"`
	MaxAge     int            `json:"max_age"`
	Gender     map[string]int `json:"gender_distribution"`
	BloodGroup map[string]int `json:"blood_group_distribution"`
}

type RiskDistribution struct {
	MeanRisk     float64        `json:"mean_personalized_risk"`
	Category     map[string]int `json:"risk_category_distribution"`
	HealthStatus map[string]int `json:"health_status_distribution"`
}

const topN = 10

// Summarize describes a personalized dataset.
func Summarize(t *dataset.Table, filename string, now time.Time) Summary {
	s := Summary{
		DatasetInfo: DatasetInfo{
			TotalRecords: t.Len(),
			Generated:    now,
			Filename:     filename,
		},
		Demographics: Demographics{
			Gender:     map[string]int{},
			BloodGroup: map[string]int{},
		},
		Risk: RiskDistribution{
			Category:     map[string]int{},
			HealthStatus: map[string]int{},
		},
	}

	patients := map[string]struct{}{}
	geneRisk := map[string][]float64{}
	diseaseRisk := map[string][]float64{}
	var ages, risks []float64

	for _, r := range t.Rows {
		patients[r.String(genome.ColPatientID)] = struct{}{}
		if v, ok := r.Float(genome.ColAge); ok {
			ages = append(ages, v)
		}
		s.Demographics.Gender[r.String(genome.ColGender)]++
		s.Demographics.BloodGroup[r.String(genome.ColBloodGroup)]++
		s.Risk.Category[r.String(genome.ColRiskCategory)]++
		s.Risk.HealthStatus[r.String(genome.ColHealthStatus)]++

		risk, ok := r.Float(genome.ColPersonalizedRisk)
		if !ok {
			continue
		}
		risks = append(risks, risk)
		gene := r.String(genome.ColGeneSymbol)
		disease := r.String(genome.ColDiseaseName)
		geneRisk[gene] = append(geneRisk[gene], risk)
		diseaseRisk[disease] = append(diseaseRisk[disease], risk)
	}

	s.DatasetInfo.UniquePatients = len(patients)
	s.DatasetInfo.UniqueGenes = len(geneRisk)
	s.DatasetInfo.UniqueDiseases = len(diseaseRisk)

	if len(ages) > 0 {
		s.Demographics.MeanAge = mean(ages)
		s.Demographics.MedianAge = dataset.Median(ages)
		s.Demographics.MinAge = int(minOf(ages))
		s.Demographics.MaxAge = int(maxOf(ages))
	}
	s.Risk.MeanRisk = mean(risks)
	s.TopDiseases = topMeans(diseaseRisk, topN)
	s.TopGenes = topMeans(geneRisk, topN)
	return s
}

func topMeans(groups map[string][]float64, n int) map[string]float64 {
	type kv struct {
		k string
		v float64
	}
	all := make([]kv, 0, len(groups))
	for k, vs := range groups {
		all = append(all, kv{k, mean(vs)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].v != all[j].v {
			return all[i].v > all[j].v
		}
		return all[i].k < all[j].k
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make(map[string]float64, len(all))
	for _, e := range all {
		out[e.k] = e.v
	}
	return out
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range vs {
		s += v
	}
	return s / float64(len(vs))
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
