package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/history"
	"github.com/Skufu/genewell/internal/predictor"
	"github.com/Skufu/genewell/internal/synth"
)

var ErrTrainingInProgress = errors.New("training already in progress")

// Service owns the loaded model. Reads share the model under an RWMutex;
// training runs one at a time.
type Service struct {
	cfg   *Config
	log   *log.Logger
	store history.Store
	now   func() time.Time

	mu    sync.RWMutex
	model *predictor.Model

	training sync.Mutex
}

func NewService(cfg *Config, lg *log.Logger, store history.Store) *Service {
	return &Service{cfg: cfg, log: lg, store: store, now: time.Now}
}

// Model returns the loaded model, loading it from disk on first use.
func (s *Service) Model() (*predictor.Model, error) {
	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	if !fileExists(s.cfg.ModelPath) {
		return nil, predictor.ErrNotTrained
	}
	return s.load()
}

func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

func (s *Service) load() (*predictor.Model, error) {
	m, err := predictor.Load(s.cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	s.setModel(m)
	s.log.Info("model loaded", "path", s.cfg.ModelPath, "features", len(m.Prep.Features))
	return m, nil
}

func (s *Service) setModel(m *predictor.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

type TrainRequest struct {
	Force bool
	Tune  bool
}

type TrainResult struct {
	Message       string             `json:"message"`
	ModelPath     string             `json:"model_path"`
	FeaturesCount int                `json:"features_count,omitempty"`
	SamplesCount  int                `json:"samples_count,omitempty"`
	Dataset       string             `json:"dataset,omitempty"`
	Metrics       *predictor.Metrics `json:"metrics,omitempty"`
}

// Train loads an existing model file unless forced, otherwise fits a new
// model on the newest dataset in DataDir.
func (s *Service) Train(ctx context.Context, req TrainRequest) (TrainResult, error) {
	if !s.training.TryLock() {
		return TrainResult{}, ErrTrainingInProgress
	}
	defer s.training.Unlock()

	if !req.Force && fileExists(s.cfg.ModelPath) {
		if _, err := s.load(); err != nil {
			return TrainResult{}, err
		}
		return TrainResult{Message: "Model already trained and loaded", ModelPath: s.cfg.ModelPath}, nil
	}

	table, source, err := s.trainingData()
	if err != nil {
		return TrainResult{}, err
	}

	opts := predictor.DefaultTrainOptions()
	opts.Params = s.cfg.Forest
	opts.Tune = req.Tune
	opts.Dataset = source
	opts.Logger = s.log

	started := s.now()
	m, err := predictor.Train(ctx, table, opts)
	if err != nil {
		return TrainResult{}, errors.Wrap(err, "train model")
	}
	if err := m.Save(s.cfg.ModelPath); err != nil {
		return TrainResult{}, errors.Wrap(err, "save model")
	}
	s.setModel(m)
	s.log.Info("model trained", "dataset", source, "samples", m.Samples, "r2", m.Metrics.R2, "took", s.now().Sub(started).Round(time.Millisecond))

	return TrainResult{
		Message:       "Model trained successfully",
		ModelPath:     s.cfg.ModelPath,
		FeaturesCount: len(m.Prep.Features),
		SamplesCount:  m.Samples,
		Dataset:       source,
		Metrics:       &m.Metrics,
	}, nil
}

// trainingData reads the newest training dataset, generating a synthetic
// one when DataDir has none.
func (s *Service) trainingData() (*dataset.Table, string, error) {
	path, err := dataset.FindLatest(s.cfg.DataDir, dataset.TrainingPattern)
	if err == nil {
		t, err := dataset.ReadFile(path)
		return t, path, err
	}
	if !errors.Is(err, dataset.ErrNotFound) {
		return nil, "", err
	}

	s.log.Warn("no training dataset found, generating synthetic data", "dir", s.cfg.DataDir, "patients", s.cfg.SyntheticPatients)
	t := synth.TrainingDataset(synth.NewCollector(42).PersonalizedDataset(s.cfg.SyntheticPatients))
	path = filepath.Join(s.cfg.DataDir, synth.TrainingFileName(s.now()))
	if err := dataset.WriteFile(path, t); err != nil {
		return nil, "", err
	}
	return t, path, nil
}

// Bootstrap trains at startup when no model file exists. Failures are
// logged; the server still starts and /train can be retried.
func (s *Service) Bootstrap(ctx context.Context) {
	if fileExists(s.cfg.ModelPath) {
		if _, err := s.load(); err != nil {
			s.log.Error("model file unreadable", "path", s.cfg.ModelPath, "err", err)
		}
		return
	}
	s.log.Info("training model on startup")
	if _, err := s.Train(ctx, TrainRequest{}); err != nil {
		s.log.Error("startup training failed", "err", err)
	}
}

// Record saves a prediction run. History is best effort: a store failure
// is logged and the run id is still returned.
func (s *Service) Record(ctx context.Context, source string, results []predictor.PatientResult) *history.Run {
	run := history.NewRun(source, results)
	if err := s.store.Save(ctx, run); err != nil {
		s.log.Warn("saving prediction run failed", "run", run.ID, "err", err)
	}
	return run
}

func (s *Service) uploadPath(name string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	return filepath.Join(s.cfg.UploadDir, name), nil
}
