package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/forest"
	"github.com/Skufu/genewell/internal/history"
	"github.com/Skufu/genewell/internal/logger"
	"github.com/Skufu/genewell/internal/pdfreport/pdfreporttest"
	"github.com/Skufu/genewell/internal/synth"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := &Config{
		ModelPath:         filepath.Join(dir, "model.gob.gz"),
		DataDir:           filepath.Join(dir, "data"),
		UploadDir:         filepath.Join(dir, "uploads"),
		MaxUploadBytes:    1 << 20,
		SyntheticPatients: 40,
		Forest:            forest.Params{NumTrees: 5, MaxDepth: 6, MinSamplesLeaf: 2, Bootstrap: true, Seed: 1},
	}
	return NewService(cfg, logger.Discard(), history.NewMemory())
}

func trainedService(t *testing.T) *Service {
	t.Helper()
	svc := newTestService(t)
	res, err := svc.Train(context.Background(), TrainRequest{})
	require.NoError(t, err)
	require.Equal(t, "Model trained successfully", res.Message)
	return svc
}

func serve(svc *Service, req *http.Request) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	setupRouter(svc, "").ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, path, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func postJSON(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sampleCSV(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dataset.Write(&buf, synth.StaticSample()))
	return buf.Bytes()
}

func TestHomeAndHealth(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GeneWell ML API", gjson.Get(w.Body.String(), "message").String())
	assert.True(t, gjson.Get(w.Body.String(), "endpoints./predict").Exists())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
	assert.False(t, gjson.Get(w.Body.String(), "model_loaded").Bool())
}

func TestPredictRequiresModel(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, upload(t, "/predict", "patients.csv", sampleCSV(t)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNotTrained, gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/model-info", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Model not trained", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, postJSON(t, "/predict-batch", gin.H{"patients": []gin.H{{"age": 40}}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Model not trained. Please train the model first.", gjson.Get(w.Body.String(), "error").String())
}

func TestTrainEndpoint(t *testing.T) {
	svc := trainedService(t)

	w := serve(svc, httptest.NewRequest(http.MethodPost, "/train", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Model already trained and loaded", gjson.Get(w.Body.String(), "message").String())

	svc.training.Lock()
	w = serve(svc, httptest.NewRequest(http.MethodPost, "/train?force=true", nil))
	svc.training.Unlock()
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Training already in progress", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, httptest.NewRequest(http.MethodPost, "/train?force=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Model trained successfully", gjson.Get(w.Body.String(), "message").String())
	assert.EqualValues(t, 20, gjson.Get(w.Body.String(), "features_count").Int())
	assert.True(t, gjson.Get(w.Body.String(), "metrics.r2").Exists())
}

func TestPredictCSV(t *testing.T) {
	svc := trainedService(t)

	w := serve(svc, upload(t, "/predict", "patients.csv", sampleCSV(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "Predictions completed successfully", gjson.Get(body, "message").String())
	assert.EqualValues(t, 4, gjson.Get(body, "total_patients").Int())
	results := gjson.Get(body, "results").Array()
	require.Len(t, results, 4)
	for _, r := range results {
		score := r.Get("risk_score").Float()
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		assert.Contains(t, []string{"High", "Medium", "Low"}, r.Get("risk_level").String())
	}

	runID := gjson.Get(body, "run_id").String()
	require.NotEmpty(t, runID)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, runID, gjson.Get(w.Body.String(), "runs.0.id").String())
	assert.Equal(t, "patients.csv", gjson.Get(w.Body.String(), "runs.0.source").String())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/predictions/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.Get(w.Body.String(), "results").Array(), 4)
}

func TestPredictUploadErrors(t *testing.T) {
	svc := trainedService(t)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := serve(svc, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNoFile, gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, upload(t, "/predict", "patients.txt", []byte("a,b\n1,2\n")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInvalidType, gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, upload(t, "/predict", "patients.csv", []byte("")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(svc, upload(t, "/predict", "report.pdf", []byte("not a pdf")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, strings.HasPrefix(gjson.Get(w.Body.String(), "error").String(), "Error converting PDF: "))
}

func TestPredictBatch(t *testing.T) {
	svc := trainedService(t)

	w := serve(svc, postJSON(t, "/predict-batch", gin.H{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No patient data provided", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, postJSON(t, "/predict-batch", gin.H{"patients": []gin.H{
		{"patient_id": "A1", "age": 62, "gender": "Male", "bmi": 31.5, "medical_history": "Diabetes"},
		{"age": 30, "gender": "Female"},
	}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "Batch predictions completed", gjson.Get(body, "message").String())
	assert.Equal(t, "A1", gjson.Get(body, "results.0.patient_id").String())
	assert.Equal(t, "P0001", gjson.Get(body, "results.1.patient_id").String())
}

func TestConvertPDFRejectsOtherFiles(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, upload(t, "/convert-pdf", "patients.csv", sampleCSV(t)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload a PDF file", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, upload(t, "/convert-pdf", "report.pdf", []byte("garbage")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func samplePDF(t *testing.T) []byte {
	t.Helper()
	data, err := pdfreporttest.Render(pdfreporttest.SampleReport)
	require.NoError(t, err)
	return data
}

func TestConvertPDF(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, upload(t, "/convert-pdf", "lab_report.pdf", samplePDF(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, "PDF converted successfully", gjson.Get(body, "message").String())
	assert.EqualValues(t, 3, gjson.Get(body, "total_records").Int())
	assert.Len(t, gjson.Get(body, "preview").Array(), 3)
	assert.Equal(t, "TP53", gjson.Get(body, "preview.0.gene_symbol").String())
	assert.EqualValues(t, 45, gjson.Get(body, "preview.0.age").Int())
	assert.Contains(t, gjson.Get(body, "columns").String(), "disease_class_encoded")

	csvPath := gjson.Get(body, "csv_path").String()
	assert.Equal(t, filepath.Join(svc.cfg.UploadDir, "lab_report_converted.csv"), csvPath)
	tbl, err := dataset.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "BRCA1", tbl.Rows[1].String("gene_symbol"))
}

func TestPredictPDF(t *testing.T) {
	svc := trainedService(t)

	w := serve(svc, upload(t, "/predict", "lab_report.pdf", samplePDF(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.EqualValues(t, 3, gjson.Get(body, "total_patients").Int())
	for _, r := range gjson.Get(body, "results").Array() {
		assert.Contains(t, []string{"High", "Medium", "Low"}, r.Get("risk_level").String())
		assert.False(t, r.Get("error").Exists())
	}
	assert.True(t, gjson.Get(body, "summary").Exists())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lab_report.pdf", gjson.Get(w.Body.String(), "runs.0.source").String())
}

func TestModelInfo(t *testing.T) {
	svc := trainedService(t)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/model-info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "model_loaded").Bool())
	assert.EqualValues(t, 20, gjson.Get(body, "features_count").Int())
	assert.EqualValues(t, 5, gjson.Get(body, "params.n_estimators").Int())
	assert.Len(t, gjson.Get(body, "file.checksum").String(), 16)
	assert.Greater(t, gjson.Get(body, "file.size_bytes").Int(), int64(0))
}

func TestSampleData(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/sample-data", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sample_gene_data.csv")
	tbl, err := dataset.Read(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.True(t, tbl.Has("gene_symbol"))

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/sample-data?dynamic=true&patients=12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "dynamic_sample_12_patients.csv")
	tbl, err = dataset.Read(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 12, tbl.Len())
	assert.Equal(t, synth.SampleColumns, tbl.Columns)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/sample-data?dynamic=true&mix=random&patients=3", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/sample-data?dynamic=true&patients=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/sample-data?dynamic=true&mix=odd", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportReport(t *testing.T) {
	svc := newTestService(t)
	results := gin.H{"results": []gin.H{
		{"patient_id": "P1", "risk_score": 0.82, "risk_level": "High", "health_status": "High Risk", "gene_symbol": "BRCA1"},
		{"patient_id": "P2", "risk_score": 0.5, "risk_level": "Medium", "health_status": "At Risk"},
		{"patient_id": "P3", "risk_score": 0.1, "risk_level": "Low", "health_status": "Normal"},
	}}

	w := serve(svc, postJSON(t, "/export-report", gin.H{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No results data provided", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, postJSON(t, "/export-report", results))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.EqualValues(t, 3, gjson.Get(body, "total_patients").Int())
	assert.EqualValues(t, 1, gjson.Get(body, "summary.high_risk").Int())
	assert.EqualValues(t, 1, gjson.Get(body, "summary.at_risk").Int())
	assert.EqualValues(t, 1, gjson.Get(body, "summary.normal").Int())
	assert.True(t, gjson.Get(body, "report_generated").Exists())
	assert.Equal(t, "BRCA1", gjson.Get(body, "patients.0.gene_symbol").String(), "posted fields are echoed")
	assert.Equal(t, 0.82, gjson.Get(body, "patients.0.risk_score").Float())
	assert.Len(t, gjson.Get(body, "patients").Array(), 3)

	w = serve(svc, postJSON(t, "/export-report?format=pdf", results))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestGetRunErrors(t *testing.T) {
	svc := newTestService(t)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/predictions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/predictions/6f1c2a4e-8d3b-4b7a-9c2e-1a2b3c4d5e6f", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Prediction run not found", gjson.Get(w.Body.String(), "error").String())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gjson.Get(w.Body.String(), "runs").Array())
}
