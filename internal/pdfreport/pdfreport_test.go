package pdfreport

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/genewell/internal/genome"
	"github.com/Skufu/genewell/internal/pdfreport/pdfreporttest"
)

const sampleReport = `
Gene Report
===========

Patient Information:
Age: 45
Gender: female
Blood Group: AB-
History: Diabetes, Hypertension
Type: Diagnostic

Gene Analysis:
==============

Gene: TP53
Value: 0.8
Normal: 1.0 - 2.0
Status: Deficient

Gene: BRCA1
Value: 2.5
Normal: 1.0 - 2.0
Status: Excessive

Gene: APC
Value: 1.5
Normal: 1.0 - 2.0
Status: Normal
`

func TestParseReport(t *testing.T) {
	rep, err := Parse(sampleReport)
	require.NoError(t, err)

	assert.Equal(t, Patient{
		Age:            45,
		Gender:         "Female",
		BloodGroup:     "AB-",
		MedicalHistory: "Diabetes, Hypertension",
		ReportType:     "Diagnostic",
	}, rep.Patient)

	require.Len(t, rep.Readings, 3)
	tp53, brca1, apc := rep.Readings[0], rep.Readings[1], rep.Readings[2]

	assert.Equal(t, "TP53", tp53.Symbol)
	assert.Equal(t, "Breast cancer", tp53.Disease)
	assert.Equal(t, StatusDeficient, tp53.Status)
	assert.InDelta(t, 0.2, tp53.Deviation, 1e-9)

	assert.Equal(t, StatusExcessive, brca1.Status)
	assert.InDelta(t, 0.25, brca1.Deviation, 1e-9)

	assert.Equal(t, "Colorectal cancer", apc.Disease)
	assert.Equal(t, StatusNormal, apc.Status)
	assert.Zero(t, apc.Deviation)
}

func TestParseRunTogetherText(t *testing.T) {
	text := "Age: 61Gender: MaleBlood: O+History: Asthma, CancerType: RoutineGene: KRASValue: 3Normal: 1 - 2Gene: XYZ9"
	rep, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, 61, rep.Patient.Age)
	assert.Equal(t, "Male", rep.Patient.Gender)
	assert.Equal(t, "O+", rep.Patient.BloodGroup)
	assert.Equal(t, "Asthma, Cancer", rep.Patient.MedicalHistory)
	assert.Equal(t, "Routine", rep.Patient.ReportType)

	require.Len(t, rep.Readings, 2)
	assert.Equal(t, "KRAS", rep.Readings[0].Symbol)
	assert.Equal(t, StatusExcessive, rep.Readings[0].Status)
	assert.InDelta(t, 0.5, rep.Readings[0].Deviation, 1e-9)

	assert.Equal(t, "XYZ9", rep.Readings[1].Symbol)
	assert.Equal(t, genome.UnknownDisease, rep.Readings[1].Disease)
	assert.False(t, rep.Readings[1].HasValue)
	assert.Equal(t, StatusNormal, rep.Readings[1].Status)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("   ")
	assert.True(t, errors.Is(err, ErrNoText))

	_, err = Parse("Gene Report\nPatient: nobody\nGene Analysis:\n")
	assert.True(t, errors.Is(err, ErrNoGenes), "headings are not readings")
}

func TestParseLenientGeneLabels(t *testing.T) {
	rep, err := Parse("Gene: brca1\nValue: 2.5\nNormal: 1.0 - 2.0\n")
	require.NoError(t, err)
	require.Len(t, rep.Readings, 1)
	assert.Equal(t, "BRCA1", rep.Readings[0].Symbol)
	assert.Equal(t, "Breast cancer", rep.Readings[0].Disease)
	assert.Equal(t, StatusExcessive, rep.Readings[0].Status)

	rep, err = Parse("Gene Report\n\nGene TP53\nValue: 0.8\nNormal: 1.0 - 2.0\n\ngene apc value: 1.5 normal: 1 - 2\nGene myc2\n")
	require.NoError(t, err)
	require.Len(t, rep.Readings, 3)
	assert.Equal(t, "TP53", rep.Readings[0].Symbol)
	assert.Equal(t, StatusDeficient, rep.Readings[0].Status)
	assert.Equal(t, "APC", rep.Readings[1].Symbol)
	assert.Equal(t, StatusNormal, rep.Readings[1].Status)
	assert.True(t, rep.Readings[1].HasValue)
	assert.Equal(t, "MYC2", rep.Readings[2].Symbol)
}

func TestParseKeepsAdjacentGeneLabels(t *testing.T) {
	rep, err := Parse("Gene: XGene: TP53Value: 1")
	require.NoError(t, err)
	require.Len(t, rep.Readings, 2)
	assert.Equal(t, "X", rep.Readings[0].Symbol)
	assert.Equal(t, "TP53", rep.Readings[1].Symbol)
	assert.Equal(t, 1.0, rep.Readings[1].Value)
}

func TestDeviationWithZeroBound(t *testing.T) {
	r := parseReading("TP53", "Value: 0.5 Normal: 0 - 0")
	assert.Equal(t, StatusExcessive, r.Status)
	assert.Equal(t, 0.5, r.Deviation)
}

func TestConvert(t *testing.T) {
	rep, err := Parse(sampleReport)
	require.NoError(t, err)

	tbl := NewConverter(42).Convert(rep)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, Columns, tbl.Columns)
	require.NoError(t, tbl.Require(genome.FeatureColumns...))

	row := tbl.Rows[0]
	assert.Equal(t, "P0000", row.String(genome.ColPatientID))
	assert.Equal(t, "7157", row.String(genome.ColGeneID))
	assert.Equal(t, "1", row.String(genome.ColDiseaseClassEncoded))
	assert.Equal(t, "0.3", row.String(genome.ColScore))
	assert.Equal(t, "1.1", row.String(genome.ColAgeFactor))
	assert.Equal(t, "1.5", row.String(genome.ColGenderFactor))
	assert.Equal(t, "24.5", row.String(genome.ColBMI))
	assert.Equal(t, "120", row.String(genome.ColSystolicBP))

	score, _ := row.Float(genome.ColScore)
	ei, _ := row.Float(genome.ColEI)
	assert.InDelta(t, score*0.9+0.1, ei, 0.0501)
	evidence, _ := row.Float(genome.ColEvidenceStrength)
	assert.LessOrEqual(t, evidence, 0.95)
	age := row.IntOr(genome.ColAssociationAge, 0)
	assert.GreaterOrEqual(t, age, 5)
	assert.LessOrEqual(t, age, 24)

	assert.Equal(t, "0.75", tbl.Rows[1].String(genome.ColScore))
	assert.Equal(t, "0.5", tbl.Rows[2].String(genome.ColScore))

	again := NewConverter(42).Convert(rep)
	assert.Equal(t, tbl.Rows, again.Rows)
}

func TestConvertUsesDefaults(t *testing.T) {
	tbl := NewConverter(1).Convert(Report{Readings: []Reading{{Symbol: "CFTR", Disease: genome.DiseaseFor("CFTR"), Status: StatusNormal}}})
	row := tbl.Rows[0]
	assert.Equal(t, "45", row.String(genome.ColAge))
	assert.Equal(t, "Unknown", row.String(genome.ColGender))
	assert.Equal(t, "None", row.String(genome.ColMedicalHistory))
	assert.Equal(t, "Routine", row.String(genome.ColReportType))
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	data := []byte("this is not a pdf")
	_, err := ExtractText(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)

	_, err = NewConverter(1).ConvertPDF(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestConvertRenderedPDF(t *testing.T) {
	data, err := pdfreporttest.Render(pdfreporttest.SampleReport)
	require.NoError(t, err)

	text, err := ExtractText(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Contains(t, text, "TP53")

	tbl, err := NewConverter(7).ConvertPDF(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	want := []struct{ symbol, status string }{
		{"TP53", StatusDeficient},
		{"BRCA1", StatusExcessive},
		{"APC", StatusNormal},
	}
	for i, w := range want {
		row := tbl.Rows[i]
		assert.Equal(t, w.symbol, row.String(genome.ColGeneSymbol))
		assert.Equal(t, w.status, row.String(genome.ColStatus))
		assert.Equal(t, "45", row.String(genome.ColAge))
		assert.Equal(t, "Female", row.String(genome.ColGender))
		assert.Equal(t, "AB-", row.String(genome.ColBloodGroup))
	}
	assert.Equal(t, "672", tbl.Rows[1].String(genome.ColGeneID))
}
