// Package pdfreport turns genomic lab reports into prediction rows.
package pdfreport

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/genome"
)

var (
	ErrNoText  = errors.New("could not extract text from PDF")
	ErrNoGenes = errors.New("no gene data found in PDF")
)

// Gene statuses relative to the reported normal range.
const (
	StatusNormal    = "normal"
	StatusDeficient = "deficient"
	StatusExcessive = "excessive"
)

var (
	geneRe    = regexp.MustCompile(`(?i)Gene(:\s*|\s+)([A-Z0-9-]+?)(?:\s|[,;]|$|(?:Value|Normal|Status|Gene):)`)
	valueRe   = regexp.MustCompile(`(?i)Value:\s*(\d+(?:\.\d+)?)`)
	rangeRe   = regexp.MustCompile(`(?i)Normal(?:\s+Range)?:\s*(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)`)
	ageRe     = regexp.MustCompile(`(?i)Age:\s*(\d+)`)
	genderRe  = regexp.MustCompile(`(?i)Gender:\s*(Male|Female)`)
	bloodRe   = regexp.MustCompile(`(?i:Blood(?:\s+Group)?)[:\s]+(AB|A|B|O)(?:([+-])|[^A-Za-z]|$)`)
	historyRe = regexp.MustCompile(`(?i)History:\s*([^\n]*)`)
	typeRe    = regexp.MustCompile(`(?i)(?:Report\s+)?Type:\s*([^\n]*)`)
	labelRe   = regexp.MustCompile(`(?i)(?:Report\s+Type|Type|Gene|Age|Gender|Blood(?:\s+Group)?|Value|Normal|Status):`)
)

// Patient holds the fields a report states about its subject. Zero values
// mean the report did not say.
type Patient struct {
	Age            int
	Gender         string
	BloodGroup     string
	MedicalHistory string
	ReportType     string
}

// Reading is one gene measurement.
type Reading struct {
	Symbol    string
	Disease   string
	Value     float64
	NormalMin float64
	NormalMax float64
	HasValue  bool
	HasRange  bool
	Status    string
	Deviation float64
}

type Report struct {
	Patient  Patient
	Readings []Reading
}

// Parse extracts the patient and every gene reading from report text.
func Parse(text string) (Report, error) {
	if strings.TrimSpace(text) == "" {
		return Report{}, ErrNoText
	}
	rep := Report{Patient: parsePatient(text)}

	// Matches resume after the symbol so a terminating label is scanned again.
	var locs [][]int
	for pos := 0; pos < len(text); {
		loc := geneRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			loc[i] += pos
		}
		if isGeneLabel(text[loc[2]:loc[3]], text[loc[4]:loc[5]]) {
			locs = append(locs, loc)
		}
		pos = loc[5]
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		symbol := strings.ToUpper(text[loc[4]:loc[5]])
		rep.Readings = append(rep.Readings, parseReading(symbol, text[loc[5]:end]))
	}
	if len(rep.Readings) == 0 {
		return Report{}, ErrNoGenes
	}
	return rep, nil
}

func parsePatient(text string) Patient {
	var p Patient
	if m := ageRe.FindStringSubmatch(text); m != nil {
		p.Age, _ = strconv.Atoi(m[1])
	}
	if m := genderRe.FindStringSubmatch(text); m != nil {
		p.Gender = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	}
	if m := bloodRe.FindStringSubmatch(text); m != nil {
		p.BloodGroup = m[1] + m[2]
	}
	if m := historyRe.FindStringSubmatch(text); m != nil {
		p.MedicalHistory = strings.Trim(strings.TrimSpace(untilLabel(m[1])), ",;")
	}
	if m := typeRe.FindStringSubmatch(text); m != nil {
		if f := strings.Fields(untilLabel(m[1])); len(f) > 0 {
			p.ReportType = f[0]
		}
	}
	return p
}

// isGeneLabel accepts "Gene: X" for any symbol. Without the colon the
// symbol must be a catalog gene or carry a digit, so headings such as
// "Gene Report" are not read as genes.
func isGeneLabel(sep, symbol string) bool {
	if strings.Contains(sep, ":") {
		return true
	}
	if _, ok := genome.LookupGene(symbol); ok {
		return true
	}
	return strings.ContainsAny(symbol, "0123456789")
}

// untilLabel cuts s at the next field label, for text extracted without
// line breaks.
func untilLabel(s string) string {
	if loc := labelRe.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

func parseReading(symbol, block string) Reading {
	r := Reading{Symbol: symbol, Disease: genome.DiseaseFor(symbol), Status: StatusNormal}
	if m := valueRe.FindStringSubmatch(block); m != nil {
		r.Value, _ = strconv.ParseFloat(m[1], 64)
		r.HasValue = true
	}
	if m := rangeRe.FindStringSubmatch(block); m != nil {
		r.NormalMin, _ = strconv.ParseFloat(m[1], 64)
		r.NormalMax, _ = strconv.ParseFloat(m[2], 64)
		r.HasRange = true
	}
	if r.HasValue && r.HasRange {
		switch {
		case r.Value < r.NormalMin:
			r.Status = StatusDeficient
			r.Deviation = relative(r.NormalMin-r.Value, r.NormalMin)
		case r.Value > r.NormalMax:
			r.Status = StatusExcessive
			r.Deviation = relative(r.Value-r.NormalMax, r.NormalMax)
		}
	}
	return r
}

func relative(diff, base float64) float64 {
	if base == 0 {
		return diff
	}
	return diff / base
}
