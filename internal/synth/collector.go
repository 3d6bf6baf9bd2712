// Package synth generates synthetic gene-disease associations, patients and
// the personalized training datasets built from them.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

const (
	defaultAssociations = 1000
	maxPerPatient       = 15
	fallbackPerPatient  = 10
)

var (
	bloodGroups      = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	genders          = []string{"Male", "Female"}
	reportTypes      = []string{"Routine", "Diagnostic", "Screening", "Follow-up"}
	associationTypes = []string{"Genetic", "Biochemical", "Expression", "Pathway"}
	associationState = []string{"Validated", "Predicted", "Literature"}
)

// Collector builds personalized datasets from a pool of synthetic
// associations. It is not safe for concurrent use.
type Collector struct {
	rng          *rand.Rand
	now          func() time.Time
	associations []genome.Association
}

type Option func(*Collector)

// WithNow pins the clock used for association ages.
func WithNow(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithAssociations overrides the association pool.
func WithAssociations(a []genome.Association) Option {
	return func(c *Collector) { c.associations = a }
}

// NewCollector seeds a collector and generates its association pool.
func NewCollector(seed uint64, opts ...Option) *Collector {
	c := &Collector{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.associations == nil {
		c.associations = c.GenerateAssociations(defaultAssociations)
	}
	return c
}

// Associations returns the pool patients draw from.
func (c *Collector) Associations() []genome.Association {
	return c.associations
}

// GenerateAssociations draws n random gene-disease pairs and derives their
// evidence features relative to the whole set.
func (c *Collector) GenerateAssociations(n int) []genome.Association {
	out := make([]genome.Association, 0, n)
	year := c.now().Year()

	for i := 0; i < n; i++ {
		g, _ := genome.LookupGene(genome.CollectorGenes[c.rng.IntN(len(genome.CollectorGenes))])
		d := genome.CollectorDiseases[c.rng.IntN(len(genome.CollectorDiseases))]

		score := c.beta(2, 5)
		if c.rng.Float64() < 0.2 {
			score = c.uniform(0.7, 1.0)
		}
		score = round(score, 3)

		pmids := int(3*c.rng.ExpFloat64()) + 1
		if score > 0.7 && pmids < 5 {
			pmids = 5
		}

		initial := min(1990+c.rng.IntN(31), year)
		final := initial + c.rng.IntN(year-initial+1)

		out = append(out, genome.Association{
			GeneID:          g.ID,
			GeneSymbol:      g.Symbol,
			GeneName:        g.Name,
			DiseaseID:       d.ID,
			DiseaseName:     d.Name,
			DiseaseType:     d.Type,
			DiseaseClass:    d.Class,
			Score:           score,
			EI:              round(score*0.8+c.uniform(0, 0.2), 3),
			YearInitial:     initial,
			YearFinal:       final,
			NofPMIDs:        pmids,
			NofSNPs:         c.rng.IntN(51),
			AssociationType: associationTypes[c.rng.IntN(len(associationTypes))],
			Status:          associationState[c.rng.IntN(len(associationState))],
		})
	}

	deriveFeatures(out, year)
	return out
}

func deriveFeatures(as []genome.Association, year int) {
	maxPMIDs := 1
	for _, a := range as {
		if a.NofPMIDs > maxPMIDs {
			maxPMIDs = a.NofPMIDs
		}
	}

	maxActivity := 0.0
	for i := range as {
		a := &as[i]
		a.EvidenceStrength = float64(a.NofPMIDs) / float64(maxPMIDs)
		a.AssociationAge = year - a.YearInitial
		a.ResearchActivity = float64(a.NofPMIDs) / float64(a.AssociationAge+1)
		a.DiseaseClassEncoded = genome.EncodeDiseaseClass(a.DiseaseClass)
		maxActivity = math.Max(maxActivity, a.ResearchActivity)
	}

	for i := range as {
		a := &as[i]
		normActivity := 0.0
		if maxActivity > 0 {
			normActivity = a.ResearchActivity / maxActivity
		}
		a.CombinedScore = a.Score*0.6 + a.EvidenceStrength*0.3 + normActivity*0.1
	}
}

// Patient draws a patient whose history depends on age and gender.
func (c *Collector) Patient() genome.Profile {
	age := clampInt(int(c.rng.NormFloat64()*15+45), 18, 90)
	gender := genders[c.rng.IntN(2)]

	var medical []string
	if age > 50 {
		c.maybe(&medical, 0.3, "Hypertension")
		c.maybe(&medical, 0.2, "Diabetes")
	}
	if age > 60 {
		c.maybe(&medical, 0.25, "Heart Disease")
		c.maybe(&medical, 0.15, "Arthritis")
	}
	if gender == "Female" && age > 40 {
		c.maybe(&medical, 0.1, "Breast Cancer")
	}
	if gender == "Male" && age > 50 {
		c.maybe(&medical, 0.08, "Prostate Cancer")
	}
	c.maybe(&medical, 0.05, "Asthma")
	c.maybe(&medical, 0.03, "Cystic Fibrosis")
	c.maybe(&medical, 0.02, "Hemophilia")

	var family []string
	c.maybe(&family, 0.4, "Diabetes")
	c.maybe(&family, 0.3, "Heart Disease")
	c.maybe(&family, 0.2, "Cancer")
	c.maybe(&family, 0.15, "Alzheimer")

	var lifestyle []string
	c.maybe(&lifestyle, 0.3, "Smoking")
	c.maybe(&lifestyle, 0.4, "Sedentary")
	c.maybe(&lifestyle, 0.2, "Obesity")
	c.maybe(&lifestyle, 0.6, "Regular Exercise")

	return genome.Profile{
		Age:            age,
		Gender:         gender,
		BloodGroup:     bloodGroups[c.rng.IntN(len(bloodGroups))],
		MedicalHistory: joinOr(medical, "None"),
		FamilyHistory:  joinOr(family, "None"),
		Lifestyle:      joinOr(lifestyle, "Healthy"),
		BMI:            round(math.Max(16, math.Min(50, c.rng.NormFloat64()*5+25)), 1),
		SystolicBP:     clampInt(int(c.rng.NormFloat64()*20+120), 90, 200),
		DiastolicBP:    clampInt(int(c.rng.NormFloat64()*10+80), 60, 120),
		ReportType:     reportTypes[c.rng.IntN(len(reportTypes))],
	}
}

// SelectAssociations narrows the pool to what is plausible for p: genetic
// conditions for the young, age-related ones for the old, and the matching
// gene panel for diabetic or cancer histories.
func (c *Collector) SelectAssociations(p genome.Profile) []genome.Association {
	pool := c.associations

	switch {
	case p.Age < 30:
		pool = filter(pool, func(a genome.Association) bool {
			return a.DiseaseClass == genome.ClassBlood || a.DiseaseClass == genome.ClassRespiratory
		})
	case p.Age > 60:
		pool = filter(pool, func(a genome.Association) bool {
			return a.DiseaseClass == genome.ClassCardiovascular || a.DiseaseClass == genome.ClassNervous || a.DiseaseClass == genome.ClassNeoplasms
		})
	}

	history := strings.ToLower(p.MedicalHistory)
	switch {
	case strings.Contains(history, "diabetes"):
		pool = filter(pool, inPanel(genome.DiabetesGenes))
	case strings.Contains(history, "cancer"):
		pool = filter(pool, inPanel(genome.CancerGenes))
	}

	if len(pool) == 0 {
		return c.sample(c.associations, fallbackPerPatient)
	}
	return c.sample(pool, maxPerPatient)
}

// PersonalizedDataset generates n patients and one row per selected
// association, carrying the factors and the personalized risk target.
func (c *Collector) PersonalizedDataset(n int) *dataset.Table {
	t := dataset.New(personalizedColumns...)
	for i := 0; i < n; i++ {
		p := c.Patient()
		base := dataset.ProfileRow(p)
		base[genome.ColPatientID] = fmt.Sprintf("P%04d", i)

		for _, a := range c.SelectAssociations(p) {
			risk, f := genome.PersonalizedRisk(p, a)
			risk = round(risk, 3)
			row := base.Merge(dataset.AssociationRow(a)).Merge(dataset.FactorRow(f))
			row[genome.ColPersonalizedRisk] = dataset.FormatRounded(risk, 3)
			row[genome.ColRiskCategory] = genome.RiskLevel(risk)
			row[genome.ColHealthStatus] = genome.HealthStatus(risk)
			t.Append(row)
		}
	}
	return t
}

// TrainingDataset projects a personalized dataset onto the model features
// and the target.
func TrainingDataset(personalized *dataset.Table) *dataset.Table {
	cols := append(append([]string{}, genome.FeatureColumns...), genome.ColGeneSymbol, genome.ColPersonalizedRisk)
	t := dataset.New(cols...)
	for _, r := range personalized.Rows {
		row := make(dataset.Row, len(cols))
		for _, col := range cols {
			row[col] = r[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// TrainingFileName names a training dataset the way the server finds it.
func TrainingFileName(at time.Time) string {
	return "ml_training_dataset_" + at.Format("20060102_150405") + ".csv"
}

var personalizedColumns = []string{
	genome.ColPatientID, genome.ColAge, genome.ColGender, genome.ColBloodGroup,
	genome.ColMedicalHistory, genome.ColFamilyHistory, genome.ColLifestyle,
	genome.ColBMI, genome.ColSystolicBP, genome.ColDiastolicBP, genome.ColReportType,
	genome.ColGeneID, genome.ColGeneSymbol, genome.ColGeneName,
	genome.ColDiseaseID, genome.ColDiseaseName, "disease_type", genome.ColDiseaseClass,
	genome.ColScore, genome.ColEI, genome.ColYearInitial, genome.ColYearFinal,
	genome.ColNofPMIDs, "nofsnps", "association_type", genome.ColStatus,
	genome.ColEvidenceStrength, genome.ColAssociationAge, genome.ColResearchActivity,
	genome.ColCombinedScore, genome.ColDiseaseClassEncoded,
	genome.ColPersonalizedRisk, genome.ColRiskCategory, genome.ColHealthStatus,
	genome.ColAgeFactor, genome.ColGenderFactor, genome.ColMedicalFactor,
	genome.ColFamilyFactor, genome.ColLifestyleFactor, genome.ColBMIFactor,
}

func (c *Collector) sample(pool []genome.Association, n int) []genome.Association {
	if n > len(pool) {
		n = len(pool)
	}
	idx := c.rng.Perm(len(pool))[:n]
	out := make([]genome.Association, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func (c *Collector) maybe(dst *[]string, p float64, v string) {
	if c.rng.Float64() < p {
		*dst = append(*dst, v)
	}
}

func (c *Collector) uniform(lo, hi float64) float64 {
	return lo + c.rng.Float64()*(hi-lo)
}

// beta samples Beta(a, b) for integer shapes as a ratio of gamma sums.
func (c *Collector) beta(a, b int) float64 {
	x := c.gamma(a)
	y := c.gamma(b)
	return x / (x + y)
}

func (c *Collector) gamma(k int) float64 {
	s := 0.0
	for i := 0; i < k; i++ {
		s += c.rng.ExpFloat64()
	}
	return s
}

func filter(as []genome.Association, keep func(genome.Association) bool) []genome.Association {
	var out []genome.Association
	for _, a := range as {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func inPanel(panel []string) func(genome.Association) bool {
	return func(a genome.Association) bool {
		for _, s := range panel {
			if a.GeneSymbol == s {
				return true
			}
		}
		return false
	}
}

func joinOr(vals []string, empty string) string {
	if len(vals) == 0 {
		return empty
	}
	return strings.Join(vals, ", ")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
