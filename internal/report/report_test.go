package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Skufu/genewell/internal/genome"
	"github.com/Skufu/genewell/internal/predictor"
)

func results() []predictor.PatientResult {
	return []predictor.PatientResult{
		{PatientID: "P0000", RiskScore: 0.81, RiskLevel: genome.LevelHigh, HealthStatus: genome.StatusHighRisk},
		{PatientID: "P0001", RiskScore: 0.55, RiskLevel: genome.LevelMedium, HealthStatus: genome.StatusAtRisk},
		{PatientID: "P0002", RiskScore: 0.72, RiskLevel: genome.LevelHigh, HealthStatus: genome.StatusHighRisk},
		{PatientID: "P0003", RiskScore: 0.1, RiskLevel: genome.LevelLow, HealthStatus: genome.StatusNormal},
		{PatientID: "P0004", RiskLevel: genome.LevelUnknown, HealthStatus: genome.StatusError, Error: "bad row"},
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{HighRisk: 2, AtRisk: 1, Normal: 1}, Summarize(results()))
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestBuildJSON(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	b, err := json.Marshal(Build(results(), now))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T09:30:00Z", gjson.GetBytes(b, "report_generated").String())
	assert.Equal(t, int64(5), gjson.GetBytes(b, "total_patients").Int())
	assert.Equal(t, int64(2), gjson.GetBytes(b, "summary.high_risk").Int())
	assert.Equal(t, "bad row", gjson.GetBytes(b, "patients.4.error").String())
	assert.False(t, gjson.GetBytes(b, "patients.0.error").Exists())

	empty, err := json.Marshal(Build(nil, now))
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(empty, "patients").IsArray())
}

func TestRenderPDF(t *testing.T) {
	many := results()
	for i := 0; i < 60; i++ {
		many = append(many, many[i%4])
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, Build(many, time.Now())))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 1000)
}
