package main

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/history"
	"github.com/Skufu/genewell/internal/pdfreport"
	"github.com/Skufu/genewell/internal/predictor"
	"github.com/Skufu/genewell/internal/report"
	"github.com/Skufu/genewell/internal/synth"
)

const (
	msgNotTrained      = "Model not trained. Please train the model first using /train endpoint."
	msgNoFile          = "No file uploaded"
	msgNoFileSelected  = "No file selected"
	msgInvalidType     = "Invalid file type. Please upload a CSV or PDF file."
	msgTooLarge        = "File too large"
	maxDynamicPatients = 10000
)

type handlers struct {
	svc *Service
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h *handlers) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "GeneWell ML API",
		"version":     "1.0.0",
		"description": "Personalized Gene-Disease Risk Prediction System",
		"workflow": []string{
			"1. Upload PDF gene report",
			"2. System converts PDF to CSV format",
			"3. ML model predicts disease risks",
			"4. Returns personalized risk scores",
		},
		"endpoints": gin.H{
			"/convert-pdf":   "Convert PDF gene report to CSV format",
			"/predict":       "Make predictions from CSV or PDF file",
			"/predict-batch": "Make predictions from JSON patient records",
			"/train":         "Train the ML model with personalized data",
			"/health":        "Check API health",
			"/model-info":    "Get model information and performance",
			"/sample-data":   "Download sample data for testing",
			"/export-report": "Export prediction results as a report",
			"/predictions":   "List recent prediction runs",
		},
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.svc.Loaded(),
		"timestamp":    h.svc.now().Format(time.RFC3339),
	})
}

func (h *handlers) train(c *gin.Context) {
	req := TrainRequest{
		Force: queryBool(c, "force"),
		Tune:  queryBool(c, "tune"),
	}
	res, err := h.svc.Train(c.Request.Context(), req)
	if errors.Is(err, ErrTrainingInProgress) {
		abortError(c, http.StatusConflict, "Training already in progress")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// uploadedFile reads the "file" form field, answering the client itself
// when the upload is absent or too large.
func uploadedFile(c *gin.Context) (*multipart.FileHeader, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
			return nil, nil, false
		}
		abortError(c, http.StatusBadRequest, msgNoFile)
		return nil, nil, false
	}
	if fh.Filename == "" {
		abortError(c, http.StatusBadRequest, msgNoFileSelected)
		return nil, nil, false
	}

	f, err := fh.Open()
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return fh, data, true
}

func (h *handlers) predict(c *gin.Context) {
	model, err := h.svc.Model()
	if err != nil {
		h.modelError(c, err, msgNotTrained)
		return
	}

	fh, data, ok := uploadedFile(c)
	if !ok {
		return
	}

	var table *dataset.Table
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".csv":
		table, err = dataset.Read(bytes.NewReader(data))
		if err != nil {
			abortError(c, http.StatusBadRequest, "Error reading CSV: "+err.Error())
			return
		}
	case ".pdf":
		table, err = newConverter().ConvertPDF(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			abortError(c, http.StatusInternalServerError, "Error converting PDF: "+err.Error())
			return
		}
	default:
		abortError(c, http.StatusBadRequest, msgInvalidType)
		return
	}

	h.respondPredictions(c, model, table, fh.Filename, "Predictions completed successfully")
}

type batchRequest struct {
	Patients []map[string]any `json:"patients"`
}

func (h *handlers) predictBatch(c *gin.Context) {
	model, err := h.svc.Model()
	if err != nil {
		h.modelError(c, err, "Model not trained. Please train the model first.")
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Patients == nil {
		abortError(c, http.StatusBadRequest, "No patient data provided")
		return
	}

	h.respondPredictions(c, model, tableFromJSON(req.Patients), "batch", "Batch predictions completed")
}

func (h *handlers) respondPredictions(c *gin.Context, model *predictor.Model, table *dataset.Table, source, message string) {
	results, err := model.PredictTable(table)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	run := h.svc.Record(c.Request.Context(), source, results)
	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"results":        results,
		"total_patients": len(results),
		"summary":        run.Summary,
		"run_id":         run.ID,
	})
}

func (h *handlers) modelError(c *gin.Context, err error, notTrained string) {
	if errors.Is(err, predictor.ErrNotTrained) {
		abortError(c, http.StatusBadRequest, notTrained)
		return
	}
	abortError(c, http.StatusInternalServerError, err.Error())
}

// tableFromJSON turns decoded JSON records into string cells.
func tableFromJSON(records []map[string]any) *dataset.Table {
	t := dataset.New()
	for _, rec := range records {
		row := make(dataset.Row, len(rec))
		for k, v := range rec {
			row[k] = cell(v)
		}
		t.Append(row)
	}
	return t
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return dataset.FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func (h *handlers) convertPDF(c *gin.Context) {
	fh, data, ok := uploadedFile(c)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		abortError(c, http.StatusBadRequest, "Please upload a PDF file")
		return
	}

	table, err := newConverter().ConvertPDF(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}

	base := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	path, err := h.svc.uploadPath(base + "_converted.csv")
	if err == nil {
		err = dataset.WriteFile(path, table)
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "PDF converted successfully",
		"csv_path":      path,
		"total_records": table.Len(),
		"preview":       table.Preview(5),
		"columns":       table.Columns,
	})
}

func (h *handlers) modelInfo(c *gin.Context) {
	model, err := h.svc.Model()
	if err != nil {
		h.modelError(c, err, "Model not trained")
		return
	}

	info := gin.H{
		"model_loaded":   true,
		"features_count": len(model.Prep.Features),
		"features":       model.Prep.Features,
		"model_path":     h.svc.cfg.ModelPath,
		"metrics":        model.Metrics,
		"samples_count":  model.Samples,
		"dataset":        model.Dataset,
		"trained_at":     model.TrainedAt,
		"params": gin.H{
			"n_estimators":     model.Params.NumTrees,
			"max_depth":        model.Params.MaxDepth,
			"min_samples_leaf": model.Params.MinSamplesLeaf,
		},
	}
	if st, err := predictor.Stat(h.svc.cfg.ModelPath); err == nil {
		info["file"] = gin.H{
			"size_bytes": st.Size,
			"size":       humanize.Bytes(uint64(st.Size)),
			"checksum":   st.Checksum,
		}
	}
	c.JSON(http.StatusOK, info)
}

func (h *handlers) sampleData(c *gin.Context) {
	table := synth.StaticSample()
	filename := "sample_gene_data.csv"

	if queryBool(c, "dynamic") {
		n, err := strconv.Atoi(c.DefaultQuery("patients", "20"))
		if err != nil || n <= 0 || n > maxDynamicPatients {
			abortError(c, http.StatusBadRequest, "patients must be between 1 and "+strconv.Itoa(maxDynamicPatients))
			return
		}
		gen := synth.NewGenerator(uint64(h.svc.now().UnixNano()))
		switch c.DefaultQuery("mix", "diverse") {
		case "random":
			table = dataset.New(synth.SampleColumns...)
			table.Rows = gen.Random(n)
		case "diverse":
			table = gen.Diverse(n)
		default:
			abortError(c, http.StatusBadRequest, "mix must be diverse or random")
			return
		}
		filename = "dynamic_sample_" + strconv.Itoa(n) + "_patients.csv"
	}

	var buf bytes.Buffer
	if err := dataset.Write(&buf, table); err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

type exportRequest struct {
	Results []predictor.PatientResult `json:"results"`
}

// exportRecords keeps the posted results as sent, extra fields included.
type exportRecords struct {
	Results []map[string]any `json:"results"`
}

func (h *handlers) exportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil || req.Results == nil {
		abortError(c, http.StatusBadRequest, "No results data provided")
		return
	}
	var records exportRecords
	if err := c.ShouldBindBodyWith(&records, binding.JSON); err != nil {
		abortError(c, http.StatusBadRequest, "No results data provided")
		return
	}

	rep := report.Build(req.Results, h.svc.now())
	if strings.EqualFold(c.Query("format"), "pdf") {
		var buf bytes.Buffer
		if err := report.RenderPDF(&buf, rep); err != nil {
			abortError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="genewell_report.pdf"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report_generated": rep.Generated,
		"total_patients":   rep.TotalPatients,
		"summary":          rep.Summary,
		"patients":         records.Results,
	})
}

func (h *handlers) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.svc.store.List(c.Request.Context(), limit)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *handlers) getRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusBadRequest, "Invalid run id")
		return
	}
	run, err := h.svc.store.Get(c.Request.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		abortError(c, http.StatusNotFound, "Prediction run not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

func newConverter() *pdfreport.Converter {
	return pdfreport.NewConverter(uint64(time.Now().UnixNano()))
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
