package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/genewell/internal/genome"
)

func TestDiverseMixesCohorts(t *testing.T) {
	tbl := NewGenerator(42).Diverse(20)
	require.Equal(t, 20, tbl.Len())
	assert.Equal(t, SampleColumns, tbl.Columns)

	counts := map[byte]int{}
	for _, r := range tbl.Rows {
		counts[r.String(genome.ColPatientID)[0]]++
	}
	assert.Equal(t, map[byte]int{'H': 7, 'M': 7, 'L': 6}, counts)
}

func TestDiverseDefaultsTotal(t *testing.T) {
	assert.Equal(t, 20, NewGenerator(1).Diverse(0).Len())
}

func TestCohortStaysInRange(t *testing.T) {
	for _, r := range NewGenerator(9).Cohort(HighRisk, 30) {
		age, ok := r.Float(genome.ColAge)
		require.True(t, ok)
		assert.GreaterOrEqual(t, age, float64(HighRisk.AgeMin))
		assert.LessOrEqual(t, age, float64(HighRisk.AgeMax))

		score, _ := r.Float(genome.ColScore)
		assert.GreaterOrEqual(t, score, HighRisk.ScoreMin)
		assert.LessOrEqual(t, score, HighRisk.ScoreMax)
		assert.Contains(t, HighRisk.Conditions, r.String(genome.ColMedicalHistory))
	}
}

func TestRandomClampsScores(t *testing.T) {
	for _, r := range NewGenerator(2).Random(50) {
		score, _ := r.Float(genome.ColScore)
		assert.GreaterOrEqual(t, score, 0.1)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestStaticSample(t *testing.T) {
	tbl := StaticSample()
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, "BRCA1", tbl.Rows[1].String(genome.ColGeneSymbol))
	assert.Equal(t, "672", tbl.Rows[1].String(genome.ColGeneID))
	assert.NoError(t, tbl.Require(genome.ColAge, genome.ColGender, genome.ColBMI))
}
