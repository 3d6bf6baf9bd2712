package dataset

import (
	"strconv"

	"github.com/Skufu/genewell/internal/genome"
)

// ProfileRow renders the patient columns of p.
func ProfileRow(p genome.Profile) Row {
	return Row{
		genome.ColAge:            strconv.Itoa(p.Age),
		genome.ColGender:         p.Gender,
		genome.ColBloodGroup:     p.BloodGroup,
		genome.ColMedicalHistory: p.MedicalHistory,
		genome.ColFamilyHistory:  p.FamilyHistory,
		genome.ColLifestyle:      p.Lifestyle,
		genome.ColBMI:            FormatRounded(p.BMI, 1),
		genome.ColSystolicBP:     strconv.Itoa(p.SystolicBP),
		genome.ColDiastolicBP:    strconv.Itoa(p.DiastolicBP),
		genome.ColReportType:     p.ReportType,
	}
}

// AssociationRow renders the gene-disease columns of a.
func AssociationRow(a genome.Association) Row {
	return Row{
		genome.ColGeneID:              strconv.Itoa(a.GeneID),
		genome.ColGeneSymbol:          a.GeneSymbol,
		genome.ColGeneName:            a.GeneName,
		genome.ColDiseaseID:           a.DiseaseID,
		genome.ColDiseaseName:         a.DiseaseName,
		"disease_type":                a.DiseaseType,
		genome.ColDiseaseClass:        a.DiseaseClass,
		genome.ColDiseaseClassEncoded: strconv.Itoa(a.DiseaseClassEncoded),
		genome.ColScore:               FormatRounded(a.Score, 3),
		genome.ColEI:                  FormatRounded(a.EI, 3),
		genome.ColCombinedScore:       FormatRounded(a.CombinedScore, 4),
		genome.ColEvidenceStrength:    FormatRounded(a.EvidenceStrength, 4),
		genome.ColAssociationAge:      strconv.Itoa(a.AssociationAge),
		genome.ColResearchActivity:    FormatRounded(a.ResearchActivity, 4),
		genome.ColNofPMIDs:            strconv.Itoa(a.NofPMIDs),
		"nofsnps":                     strconv.Itoa(a.NofSNPs),
		genome.ColYearInitial:         strconv.Itoa(a.YearInitial),
		genome.ColYearFinal:           strconv.Itoa(a.YearFinal),
		"association_type":            a.AssociationType,
		genome.ColStatus:              a.Status,
	}
}

// FactorRow renders the six factor columns of f.
func FactorRow(f genome.Factors) Row {
	r := make(Row, 6)
	for col, v := range f.Values() {
		r[col] = FormatRounded(v, 2)
	}
	return r
}

// Profile reads the patient columns of r. Missing numbers are zero.
func (r Row) Profile() genome.Profile {
	return genome.Profile{
		Age:            r.IntOr(genome.ColAge, 0),
		Gender:         r.String(genome.ColGender),
		BloodGroup:     r.String(genome.ColBloodGroup),
		MedicalHistory: r.String(genome.ColMedicalHistory),
		FamilyHistory:  r.String(genome.ColFamilyHistory),
		Lifestyle:      r.String(genome.ColLifestyle),
		BMI:            r.FloatOr(genome.ColBMI, 0),
		SystolicBP:     r.IntOr(genome.ColSystolicBP, 0),
		DiastolicBP:    r.IntOr(genome.ColDiastolicBP, 0),
		ReportType:     r.String(genome.ColReportType),
	}
}

// Association reads the gene-disease columns of r. A missing disease class
// is looked up from the disease name.
func (r Row) Association() genome.Association {
	a := genome.Association{
		GeneID:              r.IntOr(genome.ColGeneID, 0),
		GeneSymbol:          r.String(genome.ColGeneSymbol),
		GeneName:            r.String(genome.ColGeneName),
		DiseaseID:           r.String(genome.ColDiseaseID),
		DiseaseName:         r.String(genome.ColDiseaseName),
		DiseaseClass:        r.String(genome.ColDiseaseClass),
		DiseaseClassEncoded: r.IntOr(genome.ColDiseaseClassEncoded, 0),
		Score:               r.FloatOr(genome.ColScore, 0),
		EI:                  r.FloatOr(genome.ColEI, 0),
		CombinedScore:       r.FloatOr(genome.ColCombinedScore, 0),
		EvidenceStrength:    r.FloatOr(genome.ColEvidenceStrength, 0),
		AssociationAge:      r.IntOr(genome.ColAssociationAge, 0),
		ResearchActivity:    r.FloatOr(genome.ColResearchActivity, 0),
	}
	if a.DiseaseClass == "" {
		a.DiseaseClass = genome.DiseaseClassOf(a.DiseaseName)
	}
	return a
}
