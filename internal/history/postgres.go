package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/predictor"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_runs (
	id             UUID PRIMARY KEY,
	created_at     TIMESTAMPTZ NOT NULL,
	source         TEXT NOT NULL,
	total_patients INT NOT NULL,
	high_risk      INT NOT NULL,
	at_risk        INT NOT NULL,
	normal         INT NOT NULL,
	results        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS prediction_runs_created_at ON prediction_runs (created_at DESC);
`

// Postgres stores runs in a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool, checks it answers within five seconds and
// creates the runs table.
func ConnectPostgres(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse db url")
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping db")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, run *Run) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return errors.Wrap(err, "encode results")
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO prediction_runs (id, created_at, source, total_patients, high_risk, at_risk, normal, results)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.CreatedAt, run.Source, run.TotalPatients,
		run.Summary.HighRisk, run.Summary.AtRisk, run.Summary.Normal, results,
	)
	return errors.Wrap(err, "insert run")
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		r       Run
		results []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, created_at, source, total_patients, high_risk, at_risk, normal, results
		 FROM prediction_runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.CreatedAt, &r.Source, &r.TotalPatients,
		&r.Summary.HighRisk, &r.Summary.AtRisk, &r.Summary.Normal, &results)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select run")
	}
	var rs []predictor.PatientResult
	if err := json.Unmarshal(results, &rs); err != nil {
		return nil, errors.Wrap(err, "decode results")
	}
	r.Results = rs
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at, source, total_patients, high_risk, at_risk, normal
		 FROM prediction_runs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.TotalPatients,
			&r.Summary.HighRisk, &r.Summary.AtRisk, &r.Summary.Normal); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "list runs")
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
