package pdfreport

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

// Patient defaults for fields a report leaves out.
const (
	DefaultAge         = 45
	DefaultBMI         = 24.5
	DefaultSystolicBP  = 120
	DefaultDiastolicBP = 80
)

// Columns is the layout of converted reports.
var Columns = []string{
	genome.ColPatientID, genome.ColAge, genome.ColGender, genome.ColBloodGroup,
	genome.ColMedicalHistory, genome.ColReportType,
	genome.ColGeneID, genome.ColGeneSymbol, genome.ColDiseaseName, genome.ColDiseaseClassEncoded,
	genome.ColGeneValue, genome.ColNormalMin, genome.ColNormalMax, genome.ColStatus, genome.ColDeviation,
	genome.ColScore, genome.ColEI, genome.ColCombinedScore, genome.ColEvidenceStrength,
	genome.ColAssociationAge, genome.ColResearchActivity,
	genome.ColAgeFactor, genome.ColGenderFactor, genome.ColMedicalFactor,
	genome.ColFamilyFactor, genome.ColLifestyleFactor, genome.ColBMIFactor,
	genome.ColSystolicBP, genome.ColDiastolicBP, genome.ColBMI,
}

// ExtractText concatenates the plain text of every page.
func ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("malformed pdf: %v", p)
		}
	}()

	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return "", errors.Wrap(err, "open pdf")
	}
	var b strings.Builder
	for i := 1; i <= pr.NumPage(); i++ {
		page := pr.Page(i)
		if page.V.IsNull() {
			continue
		}
		s, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "read page %d", i)
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}

// Converter derives model features from parsed reports. The evidence
// features it cannot read from a report are drawn from its seeded source.
type Converter struct {
	rng *rand.Rand
}

func NewConverter(seed uint64) *Converter {
	return &Converter{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// ConvertPDF extracts, parses and converts a PDF report.
func (c *Converter) ConvertPDF(r io.ReaderAt, size int64) (*dataset.Table, error) {
	text, err := ExtractText(r, size)
	if err != nil {
		return nil, err
	}
	rep, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return c.Convert(rep), nil
}

// Convert renders one row per gene reading.
func (c *Converter) Convert(rep Report) *dataset.Table {
	p := profile(rep.Patient)
	t := dataset.New(Columns...)

	for i, g := range rep.Readings {
		score := geneScore(g)
		ei := score*0.9 + c.between(0.05, 0.15)
		combined := (score + ei) / 2
		evidence := math.Min(0.95, combined+c.between(0.1, 0.2))

		a := genome.Association{
			GeneSymbol:  g.Symbol,
			DiseaseName: g.Disease,
			Score:       score,
		}
		a.DiseaseClass = genome.DiseaseClassOf(g.Disease)
		f := genome.ComputeFactors(p, a)

		row := dataset.Row{
			genome.ColPatientID:           fmt.Sprintf("P%04d", i),
			genome.ColAge:                 strconv.Itoa(p.Age),
			genome.ColGender:              p.Gender,
			genome.ColBloodGroup:          p.BloodGroup,
			genome.ColMedicalHistory:      p.MedicalHistory,
			genome.ColReportType:          p.ReportType,
			genome.ColGeneID:              strconv.Itoa(genome.GeneID(g.Symbol)),
			genome.ColGeneSymbol:          g.Symbol,
			genome.ColDiseaseName:         g.Disease,
			genome.ColDiseaseClassEncoded: strconv.Itoa(genome.EncodeDiseaseClass(a.DiseaseClass)),
			genome.ColGeneValue:           dataset.FormatFloat(g.Value),
			genome.ColNormalMin:           dataset.FormatFloat(g.NormalMin),
			genome.ColNormalMax:           dataset.FormatFloat(g.NormalMax),
			genome.ColStatus:              g.Status,
			genome.ColDeviation:           dataset.FormatRounded(g.Deviation, 4),
			genome.ColScore:               dataset.FormatRounded(score, 4),
			genome.ColEI:                  dataset.FormatRounded(ei, 4),
			genome.ColCombinedScore:       dataset.FormatRounded(combined, 4),
			genome.ColEvidenceStrength:    dataset.FormatRounded(evidence, 4),
			genome.ColAssociationAge:      strconv.Itoa(5 + c.rng.IntN(20)),
			genome.ColResearchActivity:    dataset.FormatRounded(c.between(0.01, 0.1), 4),
			genome.ColSystolicBP:          strconv.Itoa(p.SystolicBP),
			genome.ColDiastolicBP:         strconv.Itoa(p.DiastolicBP),
			genome.ColBMI:                 dataset.FormatFloat(p.BMI),
		}
		t.Append(row.Merge(dataset.FactorRow(f)))
	}
	return t
}

func profile(p Patient) genome.Profile {
	return genome.Profile{
		Age:            orInt(p.Age, DefaultAge),
		Gender:         orString(p.Gender, "Unknown"),
		BloodGroup:     orString(p.BloodGroup, "Unknown"),
		MedicalHistory: orString(p.MedicalHistory, "None"),
		FamilyHistory:  "None",
		Lifestyle:      "None",
		BMI:            DefaultBMI,
		SystolicBP:     DefaultSystolicBP,
		DiastolicBP:    DefaultDiastolicBP,
		ReportType:     orString(p.ReportType, "Routine"),
	}
}

// geneScore maps a reading's deviation from its normal range onto [0.1, 0.9].
func geneScore(g Reading) float64 {
	switch g.Status {
	case StatusDeficient:
		return math.Max(0.1, 0.5-g.Deviation)
	case StatusExcessive:
		return math.Min(0.9, 0.5+g.Deviation)
	default:
		return 0.5
	}
}

func (c *Converter) between(lo, hi float64) float64 {
	return lo + c.rng.Float64()*(hi-lo)
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
