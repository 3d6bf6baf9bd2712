package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skufu/genewell/internal/predictor"
	"github.com/Skufu/genewell/internal/report"
)

type runRecord struct {
	ID            string    `gorm:"primaryKey;size:36"`
	CreatedAt     time.Time `gorm:"index"`
	Source        string
	TotalPatients int
	HighRisk      int
	AtRisk        int
	Normal        int
	Results       string
}

func (runRecord) TableName() string { return "prediction_runs" }

func toRecord(r *Run) (runRecord, error) {
	b, err := json.Marshal(r.Results)
	if err != nil {
		return runRecord{}, errors.Wrap(err, "encode results")
	}
	return runRecord{
		ID:            r.ID.String(),
		CreatedAt:     r.CreatedAt,
		Source:        r.Source,
		TotalPatients: r.TotalPatients,
		HighRisk:      r.Summary.HighRisk,
		AtRisk:        r.Summary.AtRisk,
		Normal:        r.Summary.Normal,
		Results:       string(b),
	}, nil
}

func (rec runRecord) run(withResults bool) (Run, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return Run{}, errors.Wrap(err, "parse run id")
	}
	r := Run{
		ID:            id,
		CreatedAt:     rec.CreatedAt.UTC(),
		Source:        rec.Source,
		TotalPatients: rec.TotalPatients,
		Summary:       report.Summary{HighRisk: rec.HighRisk, AtRisk: rec.AtRisk, Normal: rec.Normal},
	}
	if withResults && rec.Results != "" {
		var results []predictor.PatientResult
		if err := json.Unmarshal([]byte(rec.Results), &results); err != nil {
			return Run{}, errors.Wrap(err, "decode results")
		}
		r.Results = results
	}
	return r, nil
}

// SQLite stores runs in an embedded database file through gorm.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if err := db.AutoMigrate(&runRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate sqlite")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, run *Run) error {
	rec, err := toRecord(run)
	if err != nil {
		return err
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&rec).Error, "insert run")
}

func (s *SQLite) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	var rec runRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select run")
	}
	r, err := rec.run(true)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]Run, error) {
	var recs []runRecord
	err := s.db.WithContext(ctx).
		Omit("results").
		Order("created_at desc").
		Limit(clampLimit(limit)).
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	out := make([]Run, 0, len(recs))
	for _, rec := range recs {
		r, err := rec.run(false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	inner, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "sqlite handle")
	}
	return inner.PingContext(ctx)
}

func (s *SQLite) Close() error {
	inner, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "sqlite handle")
	}
	return errors.Wrap(inner.Close(), "close sqlite")
}
