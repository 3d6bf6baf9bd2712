package predictor

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/dataset"
	"github.com/Skufu/genewell/internal/genome"
)

const unknownClass = "Unknown"

// Preprocessor turns dataset rows into model vectors: categorical columns
// are label encoded, numeric columns are median imputed and standardized.
type Preprocessor struct {
	Features []string
	Classes  map[string][]string
	Medians  map[string]float64
	Mean     []float64
	Scale    []float64
}

// FitPreprocessor learns encoders, medians and scaling from t using every
// model feature the table carries.
func FitPreprocessor(t *dataset.Table) (*Preprocessor, error) {
	p := &Preprocessor{
		Classes: map[string][]string{},
		Medians: map[string]float64{},
	}
	for _, col := range genome.FeatureColumns {
		if t.Has(col) {
			p.Features = append(p.Features, col)
		}
	}
	if len(p.Features) == 0 {
		return nil, errors.Wrap(dataset.ErrMissingColumn, "no model features in dataset")
	}

	for _, col := range p.Features {
		if genome.IsCategorical(col) {
			p.Classes[col] = classes(t, col)
			continue
		}
		p.Medians[col] = dataset.Median(t.Floats(col))
	}

	p.Mean = make([]float64, len(p.Features))
	p.Scale = make([]float64, len(p.Features))
	for j := range p.Scale {
		p.Scale[j] = 1
	}

	raw := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		raw[i] = p.encode(r)
	}
	for j, col := range p.Features {
		if genome.IsCategorical(col) {
			continue
		}
		var sum, sq float64
		for _, v := range raw {
			sum += v[j]
		}
		mean := sum / float64(len(raw))
		for _, v := range raw {
			sq += (v[j] - mean) * (v[j] - mean)
		}
		p.Mean[j] = mean
		if sd := math.Sqrt(sq / float64(len(raw))); sd > 0 {
			p.Scale[j] = sd
		}
	}
	return p, nil
}

func classes(t *dataset.Table, col string) []string {
	seen := map[string]struct{}{}
	for _, r := range t.Rows {
		seen[r.StringOr(col, unknownClass)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// encode imputes and label encodes r without scaling.
func (p *Preprocessor) encode(r dataset.Row) []float64 {
	v := make([]float64, len(p.Features))
	for j, col := range p.Features {
		if genome.IsCategorical(col) {
			v[j] = float64(p.classIndex(col, r.StringOr(col, unknownClass)))
			continue
		}
		v[j] = r.FloatOr(col, p.Medians[col])
	}
	return v
}

// classIndex maps unseen values to the first known class.
func (p *Preprocessor) classIndex(col, val string) int {
	cs := p.Classes[col]
	i := sort.SearchStrings(cs, val)
	if i < len(cs) && cs[i] == val {
		return i
	}
	return 0
}

// Transform returns the scaled feature vector for r.
func (p *Preprocessor) Transform(r dataset.Row) []float64 {
	v := p.encode(r)
	for j := range v {
		v[j] = (v[j] - p.Mean[j]) / p.Scale[j]
	}
	return v
}

// WithFactors fills any missing factor column of r from its patient and
// association fields.
func WithFactors(r dataset.Row) dataset.Row {
	missing := false
	for _, col := range genome.FactorColumns {
		if dataset.IsMissing(r[col]) {
			missing = true
			break
		}
	}
	if !missing {
		return r
	}

	out := r.Merge(nil)
	for col, v := range dataset.FactorRow(genome.ComputeFactors(r.Profile(), r.Association())) {
		if dataset.IsMissing(out[col]) {
			out[col] = v
		}
	}
	return out
}
