package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

type panelEntry struct {
	geneID   int
	symbol   string
	disease  string
	baseRisk float64
}

// uploadPanel is ordered from the highest to the lowest base risk band.
var uploadPanel = []panelEntry{
	{7157, "TP53", "Breast Cancer", 0.85},
	{672, "BRCA1", "Ovarian Cancer", 0.92},
	{675, "BRCA2", "Prostate Cancer", 0.78},
	{2064, "ERBB2", "Lung Cancer", 0.72},
	{1029, "CDKN2A", "Melanoma", 0.68},
	{3845, "KRAS", "Colon Cancer", 0.75},
	{1956, "EGFR", "Brain Cancer", 0.70},
	{7157, "TP53", "Liver Cancer", 0.65},
	{672, "BRCA1", "Pancreatic Cancer", 0.80},
	{675, "BRCA2", "Stomach Cancer", 0.73},
}

var uploadConditions = []string{
	"None", "Diabetes", "Hypertension", "Heart Disease", "Asthma",
	"Obesity", "High Cholesterol", "Arthritis", "Depression", "Anxiety",
}

// SampleColumns is the column layout of generated upload samples.
var SampleColumns = []string{
	genome.ColPatientID, genome.ColAge, genome.ColGender, genome.ColBloodGroup,
	genome.ColBMI, genome.ColMedicalHistory, genome.ColGeneID, genome.ColGeneSymbol,
	genome.ColDiseaseName, genome.ColDiseaseClassEncoded, genome.ColScore, genome.ColEI,
	genome.ColCombinedScore, genome.ColEvidenceStrength, genome.ColAssociationAge,
	genome.ColResearchActivity,
}

// Cohort describes the ranges a risk cohort draws from.
type Cohort struct {
	Prefix     string
	AgeMin     int
	AgeMax     int
	BMIMin     float64
	BMIMax     float64
	Conditions []string
	Panel      []panelEntry
	ScoreMin   float64
	ScoreMax   float64
	EIMin      float64
	EIMax      float64
	ClassMin   int
	ClassMax   int
	AssocMin   int
	AssocMax   int
	ResMin     float64
	ResMax     float64
}

var (
	HighRisk = Cohort{
		Prefix:     "H",
		AgeMin:     60,
		AgeMax:     75,
		BMIMin:     30,
		BMIMax:     40,
		Conditions: []string{"Diabetes", "Hypertension", "Heart Disease", "Obesity"},
		Panel:      uploadPanel[:5],
		ScoreMin:   0.8,
		ScoreMax:   1.0,
		EIMin:      0.7,
		EIMax:      0.95,
		ClassMin:   1,
		ClassMax:   3,
		AssocMin:   10,
		AssocMax:   20,
		ResMin:     0.05,
		ResMax:     0.15,
	}
	MediumRisk = Cohort{
		Prefix:     "M",
		AgeMin:     40,
		AgeMax:     60,
		BMIMin:     25,
		BMIMax:     30,
		Conditions: []string{"None", "High Cholesterol", "Asthma", "Arthritis"},
		Panel:      uploadPanel[3:7],
		ScoreMin:   0.5,
		ScoreMax:   0.8,
		EIMin:      0.5,
		EIMax:      0.8,
		ClassMin:   2,
		ClassMax:   4,
		AssocMin:   15,
		AssocMax:   25,
		ResMin:     0.02,
		ResMax:     0.08,
	}
	LowRisk = Cohort{
		Prefix:     "L",
		AgeMin:     25,
		AgeMax:     40,
		BMIMin:     18.5,
		BMIMax:     25,
		Conditions: []string{"None"},
		Panel:      uploadPanel[5:],
		ScoreMin:   0.2,
		ScoreMax:   0.5,
		EIMin:      0.3,
		EIMax:      0.6,
		ClassMin:   3,
		ClassMax:   5,
		AssocMin:   20,
		AssocMax:   30,
		ResMin:     0.01,
		ResMax:     0.05,
	}
)

// Generator produces patient upload files with a controlled risk mix.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

// Cohort draws n patients from c.
func (g *Generator) Cohort(c Cohort, n int) []dataset.Row {
	out := make([]dataset.Row, 0, n)
	for i := 0; i < n; i++ {
		e := c.Panel[g.rng.IntN(len(c.Panel))]
		out = append(out, dataset.Row{
			genome.ColPatientID:           fmt.Sprintf("%s%04d", c.Prefix, i),
			genome.ColAge:                 fmt.Sprint(g.intIn(c.AgeMin, c.AgeMax)),
			genome.ColGender:              genders[g.rng.IntN(len(genders))],
			genome.ColBloodGroup:          bloodGroups[g.rng.IntN(len(bloodGroups))],
			genome.ColBMI:                 dataset.FormatRounded(g.between(c.BMIMin, c.BMIMax), 1),
			genome.ColMedicalHistory:      c.Conditions[g.rng.IntN(len(c.Conditions))],
			genome.ColGeneID:              fmt.Sprint(e.geneID),
			genome.ColGeneSymbol:          e.symbol,
			genome.ColDiseaseName:         e.disease,
			genome.ColDiseaseClassEncoded: fmt.Sprint(g.intIn(c.ClassMin, c.ClassMax)),
			genome.ColScore:               dataset.FormatRounded(g.between(c.ScoreMin, c.ScoreMax), 3),
			genome.ColEI:                  dataset.FormatRounded(g.between(c.EIMin, c.EIMax), 3),
			genome.ColCombinedScore:       dataset.FormatRounded(g.between(c.ScoreMin, c.ScoreMax), 3),
			genome.ColEvidenceStrength:    dataset.FormatRounded(g.between(c.ScoreMin, c.ScoreMax), 3),
			genome.ColAssociationAge:      fmt.Sprint(g.intIn(c.AssocMin, c.AssocMax)),
			genome.ColResearchActivity:    dataset.FormatRounded(g.between(c.ResMin, c.ResMax), 4),
		})
	}
	return out
}

// Random draws n patients from the whole panel with scores shaped by the
// base risk of their gene.
func (g *Generator) Random(n int) []dataset.Row {
	out := make([]dataset.Row, 0, n)
	for i := 0; i < n; i++ {
		e := uploadPanel[g.rng.IntN(len(uploadPanel))]
		score := genome.Clamp(e.baseRisk+g.between(-0.1, 0.1), 0.1, 1)
		evidence := genome.Clamp(e.baseRisk+g.between(-0.15, 0.15), 0.2, 1)
		combined := genome.Clamp((score+evidence)/2+g.between(-0.1, 0.1), 0.1, 1)

		out = append(out, dataset.Row{
			genome.ColPatientID:           fmt.Sprintf("P%04d", i),
			genome.ColAge:                 fmt.Sprint(g.intIn(25, 75)),
			genome.ColGender:              genders[g.rng.IntN(len(genders))],
			genome.ColBloodGroup:          bloodGroups[g.rng.IntN(len(bloodGroups))],
			genome.ColBMI:                 dataset.FormatRounded(g.between(18.5, 40), 1),
			genome.ColMedicalHistory:      uploadConditions[g.rng.IntN(len(uploadConditions))],
			genome.ColGeneID:              fmt.Sprint(e.geneID),
			genome.ColGeneSymbol:          e.symbol,
			genome.ColDiseaseName:         e.disease,
			genome.ColDiseaseClassEncoded: fmt.Sprint(g.intIn(1, 5)),
			genome.ColScore:               dataset.FormatRounded(score, 3),
			genome.ColEI:                  dataset.FormatRounded(g.between(0.5, 0.95), 3),
			genome.ColCombinedScore:       dataset.FormatRounded(combined, 3),
			genome.ColEvidenceStrength:    dataset.FormatRounded(evidence, 3),
			genome.ColAssociationAge:      fmt.Sprint(g.intIn(5, 25)),
			genome.ColResearchActivity:    dataset.FormatRounded(g.between(0.01, 0.15), 4),
		})
	}
	return out
}

// Diverse mixes high, medium and low risk cohorts in a 7:7:6 ratio and
// shuffles them.
func (g *Generator) Diverse(total int) *dataset.Table {
	if total <= 0 {
		total = 20
	}
	high := total * 7 / 20
	medium := total * 7 / 20
	low := total - high - medium

	rows := g.Cohort(HighRisk, high)
	rows = append(rows, g.Cohort(MediumRisk, medium)...)
	rows = append(rows, g.Cohort(LowRisk, low)...)
	g.rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	t := dataset.New(SampleColumns...)
	t.Rows = rows
	return t
}

func (g *Generator) intIn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// StaticSample is the fixed four-patient file offered for download.
func StaticSample() *dataset.Table {
	cols := []string{
		genome.ColGeneID, genome.ColGeneSymbol, genome.ColDiseaseName, genome.ColDiseaseClassEncoded,
		genome.ColScore, genome.ColEI, genome.ColCombinedScore, genome.ColEvidenceStrength,
		genome.ColAssociationAge, genome.ColResearchActivity, genome.ColAge, genome.ColGender,
		genome.ColBloodGroup, genome.ColMedicalHistory, genome.ColBMI,
	}
	data := [][]string{
		{"7157", "TP53", "Breast cancer", "1", "0.85", "0.78", "0.82", "0.9", "15", "0.06", "45", "Female", "A+", "Diabetes", "24.5"},
		{"672", "BRCA1", "Breast cancer", "1", "0.92", "0.88", "0.9", "0.95", "20", "0.08", "52", "Female", "B+", "None", "26.8"},
		{"7157", "TP53", "Ovarian cancer", "1", "0.78", "0.72", "0.75", "0.85", "12", "0.05", "38", "Male", "O+", "Hypertension", "23.2"},
		{"672", "BRCA1", "Ovarian cancer", "1", "0.88", "0.85", "0.87", "0.92", "18", "0.07", "41", "Male", "AB+", "None", "25.1"},
	}

	t := dataset.New(cols...)
	for _, rec := range data {
		row := make(dataset.Row, len(cols))
		for i, c := range cols {
			row[c] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
