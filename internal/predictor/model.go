// Package predictor trains the personalized risk model and scores patients
// with it.
package predictor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/forest"
	"github.com/Skufu/genewell/internal/genome"
)

var ErrNotTrained = errors.New("model not trained")

// Metrics are measured on the held-out split.
type Metrics struct {
	R2           float64 `json:"r2"`
	RMSE         float64 `json:"rmse"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	TunedScore   float64 `json:"tuned_cv_r2,omitempty"`
}

type Model struct {
	Forest    *forest.Forest
	Prep      *Preprocessor
	Params    forest.Params
	Metrics   Metrics
	Samples   int
	Dataset   string
	TrainedAt time.Time
}

type TrainOptions struct {
	Params       forest.Params
	Tune         bool
	Grid         forest.Grid
	Folds        int
	TestFraction float64
	SplitSeed    uint64
	Dataset      string
	Logger       *log.Logger
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Params:       forest.DefaultParams(),
		Grid:         forest.DefaultGrid(),
		Folds:        3,
		TestFraction: 0.2,
		SplitSeed:    42,
	}
}

// Train fits a model on the rows of t that carry a target.
func Train(ctx context.Context, t *dataset.Table, opts TrainOptions) (*Model, error) {
	if err := t.Require(genome.ColPersonalizedRisk); err != nil {
		return nil, err
	}
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}

	labeled := dataset.New(t.Columns...)
	var y []float64
	for _, r := range t.Rows {
		if v, ok := r.Float(genome.ColPersonalizedRisk); ok {
			labeled.Rows = append(labeled.Rows, r)
			y = append(y, v)
		}
	}
	if len(y) < 2 {
		return nil, errors.Wrap(dataset.ErrEmptyDataset, "need at least two labeled rows")
	}

	prep, err := FitPreprocessor(labeled)
	if err != nil {
		return nil, err
	}
	X := make([][]float64, len(labeled.Rows))
	for i, r := range labeled.Rows {
		X[i] = prep.Transform(r)
	}
	lg.Info("preprocessed dataset", "records", len(X), "features", len(prep.Features))

	trainIdx, testIdx := forest.TrainTestSplit(len(X), opts.TestFraction, opts.SplitSeed)
	tx, ty := forest.Subset(X, y, trainIdx)
	vx, vy := forest.Subset(X, y, testIdx)

	params := opts.Params
	metrics := Metrics{TrainSamples: len(tx), TestSamples: len(vx)}
	if opts.Tune {
		lg.Info("tuning hyperparameters", "folds", opts.Folds)
		res, err := forest.GridSearch(ctx, tx, ty, params, opts.Grid, opts.Folds)
		if err != nil {
			return nil, errors.Wrap(err, "grid search")
		}
		params = res.Params
		metrics.TunedScore = res.Score
		lg.Info("best parameters", "trees", params.NumTrees, "max_depth", params.MaxDepth, "min_leaf", params.MinSamplesLeaf, "cv_r2", res.Score)
	}

	f, err := forest.Fit(ctx, tx, ty, params)
	if err != nil {
		return nil, err
	}
	pred := f.PredictAll(vx)
	metrics.R2 = forest.R2(vy, pred)
	metrics.RMSE = forest.RMSE(vy, pred)
	lg.Info("model performance", "r2", metrics.R2, "rmse", metrics.RMSE)

	params.OnTreeDone = nil
	return &Model{
		Forest:    f,
		Prep:      prep,
		Params:    params,
		Metrics:   metrics,
		Samples:   len(X),
		Dataset:   opts.Dataset,
		TrainedAt: time.Now().UTC(),
	}, nil
}
