package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/forest"
	"github.com/Skufu/genewell/internal/logger"
	"github.com/Skufu/genewell/internal/pdfreport"
	"github.com/Skufu/genewell/internal/predictor"
	"github.com/Skufu/genewell/internal/report"
	"github.com/Skufu/genewell/internal/synth"
)

const defaultModelPath = "personalized_model.gob.gz"

func newLogger(cmd *cli.Command) (*log.Logger, error) {
	return logger.New(cmd.String("log-level"), "text")
}

func seedFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "seed",
		Usage: "random seed, 0 seeds from the clock",
	}
}

func seedOf(cmd *cli.Command) uint64 {
	if s := cmd.Int("seed"); s > 0 {
		return uint64(s)
	}
	return uint64(time.Now().UnixNano())
}

func cmdGenerate() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate a synthetic personalized dataset, its training projection and a summary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "directory to write datasets to",
				Value:   "data",
			},
			&cli.IntFlag{
				Name:    "patients",
				Aliases: []string{"n"},
				Usage:   "number of synthetic patients",
				Value:   1500,
			},
			seedFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			lg, err := newLogger(cmd)
			if err != nil {
				return err
			}
			dir := cmd.String("output")
			n := int(cmd.Int("patients"))
			if n <= 0 {
				return errors.Errorf("patients must be positive, got %d", n)
			}

			now := time.Now()
			stamp := now.Format("20060102_150405")
			personalized := synth.NewCollector(seedOf(cmd)).PersonalizedDataset(n)
			training := synth.TrainingDataset(personalized)

			personalizedPath := filepath.Join(dir, "personalized_gene_disease_dataset_"+stamp+".csv")
			trainingPath := filepath.Join(dir, synth.TrainingFileName(now))
			summaryPath := filepath.Join(dir, "dataset_summary_"+stamp+".json")

			if err := dataset.WriteFile(personalizedPath, personalized); err != nil {
				return err
			}
			if err := dataset.WriteFile(trainingPath, training); err != nil {
				return err
			}
			summary := synth.Summarize(personalized, filepath.Base(personalizedPath), now)
			if err := writeJSON(summaryPath, summary); err != nil {
				return err
			}

			lg.Info("dataset generated",
				"records", personalized.Len(),
				"patients", summary.DatasetInfo.UniquePatients,
				"mean_risk", summary.Risk.MeanRisk,
				"training", trainingPath,
				"summary", summaryPath,
			)
			return nil
		},
	}
}

func cmdTrain() *cli.Command {
	defaults := forest.DefaultParams()
	return &cli.Command{
		Name:  "train",
		Usage: "train the risk model on the newest training dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data",
				Usage: "directory holding training datasets",
				Value: "data",
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "train on this CSV instead of the newest one in --data",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "path to write the model to",
				Value:   defaultModelPath,
			},
			&cli.IntFlag{Name: "trees", Usage: "number of trees", Value: int64(defaults.NumTrees)},
			&cli.IntFlag{Name: "max-depth", Usage: "maximum tree depth, 0 for unlimited", Value: int64(defaults.MaxDepth)},
			&cli.IntFlag{Name: "min-leaf", Usage: "minimum samples per leaf", Value: int64(defaults.MinSamplesLeaf)},
			&cli.BoolFlag{Name: "tune", Usage: "grid search forest parameters with cross validation"},
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing model file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lg, err := newLogger(cmd)
			if err != nil {
				return err
			}
			modelPath := cmd.String("model")
			if _, err := os.Stat(modelPath); err == nil && !cmd.Bool("force") {
				return errors.Errorf("%s already exists, pass --force to retrain", modelPath)
			}

			path := cmd.String("dataset")
			if path == "" {
				path, err = dataset.FindLatest(cmd.String("data"), dataset.TrainingPattern)
				if errors.Is(err, dataset.ErrNotFound) {
					return errors.Errorf("no training dataset in %s, run generate first", cmd.String("data"))
				}
				if err != nil {
					return err
				}
			}
			table, err := dataset.ReadFile(path)
			if err != nil {
				return err
			}

			opts := predictor.DefaultTrainOptions()
			opts.Params.NumTrees = int(cmd.Int("trees"))
			opts.Params.MaxDepth = int(cmd.Int("max-depth"))
			opts.Params.MinSamplesLeaf = int(cmd.Int("min-leaf"))
			opts.Tune = cmd.Bool("tune")
			opts.Dataset = path
			opts.Logger = lg

			var bar *progressbar.ProgressBar
			if opts.Tune {
				bar = progressbar.Default(-1, "tuning")
			} else {
				bar = progressbar.Default(int64(opts.Params.NumTrees), "fitting trees")
			}
			opts.Params.OnTreeDone = func() { _ = bar.Add(1) }

			m, err := predictor.Train(ctx, table, opts)
			_ = bar.Finish()
			if err != nil {
				return err
			}
			if err := m.Save(modelPath); err != nil {
				return err
			}

			lg.Info("model saved",
				"path", modelPath,
				"samples", m.Samples,
				"r2", m.Metrics.R2,
				"rmse", m.Metrics.RMSE,
			)
			return nil
		},
	}
}

func cmdConvert() *cli.Command {
	var pdfPath string

	return &cli.Command{
		Name:  "convert",
		Usage: "convert a PDF gene report to CSV",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "pdf",
				UsageText:   "<report.pdf>",
				Destination: &pdfPath,
				Min:         1,
				Max:         1,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "CSV path, defaults to <report>_converted.csv next to the PDF",
			},
			seedFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			lg, err := newLogger(cmd)
			if err != nil {
				return err
			}
			table, err := convertFile(pdfPath, seedOf(cmd))
			if err != nil {
				return err
			}

			out := cmd.String("output")
			if out == "" {
				out = strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + "_converted.csv"
			}
			if err := dataset.WriteFile(out, table); err != nil {
				return err
			}
			lg.Info("report converted", "records", table.Len(), "csv", out)
			return nil
		},
	}
}

func cmdPredict() *cli.Command {
	var inputPath string

	return &cli.Command{
		Name:  "predict",
		Usage: "score patients in a CSV or PDF file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "file",
				UsageText:   "<patients.csv|report.pdf>",
				Destination: &inputPath,
				Min:         1,
				Max:         1,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "path of the trained model",
				Value:   defaultModelPath,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "report path, .pdf renders a PDF, anything else is JSON; stdout when empty",
			},
			seedFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			m, err := predictor.Load(cmd.String("model"))
			if os.IsNotExist(errors.Cause(err)) {
				return errors.Wrap(predictor.ErrNotTrained, "run train first")
			}
			if err != nil {
				return err
			}

			var table *dataset.Table
			switch strings.ToLower(filepath.Ext(inputPath)) {
			case ".csv":
				table, err = dataset.ReadFile(inputPath)
			case ".pdf":
				table, err = convertFile(inputPath, seedOf(cmd))
			default:
				return errors.Errorf("unsupported file type %q, expected .csv or .pdf", filepath.Ext(inputPath))
			}
			if err != nil {
				return err
			}

			results, err := m.PredictTable(table)
			if err != nil {
				return err
			}
			rep := report.Build(results, time.Now())

			out := cmd.String("output")
			if strings.EqualFold(filepath.Ext(out), ".pdf") {
				return writePDF(out, rep)
			}
			if out == "" {
				return encodeJSON(os.Stdout, rep)
			}
			return writeJSON(out, rep)
		},
	}
}

func cmdSample() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "write a sample patient CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "CSV path",
				Value:   "sample_gene_data.csv",
			},
			&cli.BoolFlag{Name: "dynamic", Usage: "generate a cohort instead of the fixed sample"},
			&cli.IntFlag{Name: "patients", Aliases: []string{"n"}, Usage: "patients in a dynamic sample", Value: 20},
			&cli.StringFlag{Name: "mix", Usage: "diverse or random", Value: "diverse"},
			seedFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			table, err := sampleTable(cmd.Bool("dynamic"), int(cmd.Int("patients")), cmd.String("mix"), seedOf(cmd))
			if err != nil {
				return err
			}
			return dataset.WriteFile(cmd.String("output"), table)
		},
	}
}

func sampleTable(dynamic bool, n int, mix string, seed uint64) (*dataset.Table, error) {
	if !dynamic {
		return synth.StaticSample(), nil
	}
	if n <= 0 {
		return nil, errors.Errorf("patients must be positive, got %d", n)
	}
	gen := synth.NewGenerator(seed)
	switch mix {
	case "diverse":
		return gen.Diverse(n), nil
	case "random":
		t := dataset.New(synth.SampleColumns...)
		t.Rows = gen.Random(n)
		return t, nil
	default:
		return nil, errors.Errorf("unknown mix %q, expected diverse or random", mix)
	}
}

func convertFile(path string, seed uint64) (*dataset.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read pdf")
	}
	return pdfreport.NewConverter(seed).ConvertPDF(bytes.NewReader(data), int64(len(data)))
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create json")
	}
	if err := encodeJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close json")
}

func writePDF(path string, rep report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	if err := report.RenderPDF(f, rep); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close report")
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode json")
}
