// Package dataset reads and writes the CSV tables that flow between report
// conversion, training and prediction.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyDataset  = errors.New("dataset has no rows")
	ErrMissingColumn = errors.New("missing column")
	ErrNotFound      = errors.New("no dataset found")
)

// TrainingPattern matches training datasets written by the generator.
const TrainingPattern = "ml_training_dataset_*.csv"

// Row is one CSV record keyed by column name. Missing cells are empty.
type Row map[string]string

// Table is an ordered set of columns and the rows that fill them.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the table carries col.
func (t *Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Append adds a row and registers any column the table does not know yet,
// in sorted order so output stays stable.
func (t *Table) Append(r Row) {
	var extra []string
	for k := range r {
		if !t.Has(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	t.Columns = append(t.Columns, extra...)
	t.Rows = append(t.Rows, r)
}

// Require fails with ErrMissingColumn naming the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return errors.Wrap(ErrMissingColumn, c)
		}
	}
	return nil
}

// Floats returns the parsed values of col, skipping missing cells.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// Preview returns up to n rows with numeric cells decoded, ready for JSON.
func (t *Table) Preview(n int) []map[string]any {
	if n > len(t.Rows) || n < 0 {
		n = len(t.Rows)
	}
	out := make([]map[string]any, 0, n)
	for _, r := range t.Rows[:n] {
		m := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			m[c] = r.Value(c)
		}
		out = append(out, m)
	}
	return out
}

// String returns the trimmed cell or "".
func (r Row) String(col string) string {
	return strings.TrimSpace(r[col])
}

// StringOr returns the cell or fallback when the cell is missing.
func (r Row) StringOr(col, fallback string) string {
	if IsMissing(r[col]) {
		return fallback
	}
	return r.String(col)
}

// Float parses col. Empty, "nan" and unparseable cells are missing.
func (r Row) Float(col string) (float64, bool) {
	s := r.String(col)
	if IsMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FloatOr parses col or returns fallback.
func (r Row) FloatOr(col string, fallback float64) float64 {
	if v, ok := r.Float(col); ok {
		return v
	}
	return fallback
}

// IntOr parses col, truncating decimals, or returns fallback.
func (r Row) IntOr(col string, fallback int) int {
	if v, ok := r.Float(col); ok {
		return int(v)
	}
	return fallback
}

// Value decodes col as a number when possible, nil when missing and the raw
// string otherwise.
func (r Row) Value(col string) any {
	s, ok := r[col]
	if !ok || IsMissing(s) {
		return nil
	}
	if v, ok := r.Float(col); ok {
		return v
	}
	return s
}

// Merge returns a copy of r overlaid with every cell of other.
func (r Row) Merge(other Row) Row {
	out := make(Row, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// HasAny reports whether any of cols holds a value.
func (r Row) HasAny(cols ...string) bool {
	for _, c := range cols {
		if !IsMissing(r[c]) {
			return true
		}
	}
	return false
}

// Median returns the middle value of vs without reordering it.
func Median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	c := append([]float64(nil), vs...)
	sort.Float64s(c)
	m := len(c) / 2
	if len(c)%2 == 0 {
		return (c[m-1] + c[m]) / 2
	}
	return c[m]
}

func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null")
}

// FormatFloat renders v the way generated datasets store numbers.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRounded renders v rounded to places decimals.
func FormatRounded(v float64, places int) string {
	p := math.Pow(10, float64(places))
	return FormatFloat(math.Round(v*p) / p)
}

// Read parses a CSV with a header line.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := New(header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", len(t.Rows)+1)
		}
		row := make(Row, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return t, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}

// Write renders t as CSV in column order.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = r[c]
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WriteFile writes t to path through a temporary file and rename.
func WriteFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create dataset dir")
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create dataset")
	}
	if err := Write(f, t); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close dataset")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename dataset")
	}
	return nil
}

// FindLatest returns the most recently modified file in dir matching
// pattern.
func FindLatest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", errors.Wrap(err, "glob datasets")
	}

	var (
		latest string
		newest int64
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if mt := info.ModTime().UnixNano(); latest == "" || mt > newest || (mt == newest && m > latest) {
			latest, newest = m, mt
		}
	}
	if latest == "" {
		return "", errors.Wrapf(ErrNotFound, "%s in %s", pattern, dir)
	}
	return latest, nil
}
