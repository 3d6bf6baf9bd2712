package genome

import "strings"

// UnknownGeneID is reported for symbols missing from the catalog.
const UnknownGeneID = 9999

// UnknownDisease is reported for genes without a known association.
const UnknownDisease = "Unknown disease"

// Disease classes.
const (
	ClassNeoplasms       = "Neoplasms"
	ClassEndocrine       = "Endocrine diseases"
	ClassCardiovascular  = "Cardiovascular diseases"
	ClassNervous         = "Nervous system diseases"
	ClassBlood           = "Blood diseases"
	ClassRespiratory     = "Respiratory diseases"
	ClassMusculoskeletal = "Musculoskeletal diseases"
)

type Gene struct {
	Symbol  string
	ID      int
	Name    string
	Disease string
}

type Disease struct {
	ID    string
	Name  string
	Type  string
	Class string
}

var genes = []Gene{
	{"TP53", 7157, "Tumor protein p53", "Breast cancer"},
	{"BRCA1", 672, "BRCA1 DNA repair associated", "Breast cancer"},
	{"BRCA2", 675, "BRCA2 DNA repair associated", "Breast cancer"},
	{"MYC", 4609, "MYC proto-oncogene", ""},
	{"KRAS", 3845, "KRAS proto-oncogene", "Colon cancer"},
	{"AKT1", 207, "AKT serine/threonine kinase 1", ""},
	{"PTEN", 5728, "Phosphatase and tensin homolog", "Cowden syndrome"},
	{"PIK3CA", 5290, "Phosphatidylinositol-4,5-bisphosphate 3-kinase catalytic subunit alpha", ""},
	{"APC", 324, "APC regulator of WNT signaling pathway", "Colorectal cancer"},
	{"VHL", 7428, "Von Hippel-Lindau tumor suppressor", "Von Hippel-Lindau syndrome"},
	{"RB1", 5925, "RB transcriptional corepressor 1", "Retinoblastoma"},
	{"CDKN2A", 1029, "Cyclin dependent kinase inhibitor 2A", "Melanoma"},
	{"SMAD4", 4089, "SMAD family member 4", ""},
	{"NOTCH1", 4851, "Notch receptor 1", ""},
	{"JAK2", 3717, "Janus kinase 2", ""},
	{"FLT3", 2322, "Fms related receptor tyrosine kinase 3", ""},
	{"IDH1", 3417, "Isocitrate dehydrogenase 1", ""},
	{"BRAF", 673, "B-Raf proto-oncogene", ""},
	{"EGFR", 1956, "Epidermal growth factor receptor", "Lung cancer"},
	{"ERBB2", 2064, "Erb-b2 receptor tyrosine kinase 2", "Breast cancer"},
	{"ALK", 238, "ALK receptor tyrosine kinase", ""},
	{"ROS1", 6098, "ROS proto-oncogene 1", ""},
	{"MET", 4233, "MET proto-oncogene", ""},
	{"MLH1", 4292, "MutL homolog 1", "Lynch syndrome"},
	{"MSH2", 4436, "MutS homolog 2", "Lynch syndrome"},
	{"NF1", 4763, "Neurofibromin 1", "Neurofibromatosis"},
	{"CFTR", 1080, "Cystic fibrosis transmembrane conductance regulator", "Cystic fibrosis"},
	{"HBB", 3043, "Hemoglobin subunit beta", "Sickle cell anemia"},
	{"F8", 2157, "Coagulation factor VIII", "Hemophilia A"},
	{"F9", 2158, "Coagulation factor IX", "Hemophilia B"},
	{"DMD", 1756, "Dystrophin", "Duchenne muscular dystrophy"},
	{"HTT", 3064, "Huntingtin", "Huntington disease"},
	{"APP", 351, "Amyloid beta precursor protein", "Alzheimer disease"},
	{"PSEN1", 5663, "Presenilin 1", "Alzheimer disease"},
	{"PSEN2", 5664, "Presenilin 2", "Alzheimer disease"},
	{"APOE", 348, "Apolipoprotein E", ""},
	{"SNCA", 6622, "Synuclein alpha", "Parkinson disease"},
	{"LRRK2", 120892, "Leucine rich repeat kinase 2", "Parkinson disease"},
	{"PARK2", 5071, "Parkin RBR E3 ubiquitin protein ligase", "Parkinson disease"},
	{"PINK1", 65018, "PTEN induced kinase 1", "Parkinson disease"},
	{"DJ1", 11315, "Parkinsonism associated deglycase", "Parkinson disease"},
	{"ATP7B", 540, "ATPase copper transporting beta", "Wilson disease"},
	{"HFE", 3077, "Homeostatic iron regulator", "Hemochromatosis"},
	{"G6PD", 2539, "Glucose-6-phosphate dehydrogenase", "G6PD deficiency"},
	{"PAH", 5053, "Phenylalanine hydroxylase", "Phenylketonuria"},
	{"GALT", 2592, "Galactose-1-phosphate uridylyltransferase", "Galactosemia"},
	{"GBA", 2629, "Glucosylceramidase beta", "Gaucher disease"},
	{"INS", 3630, "Insulin", ""},
	{"GCK", 2645, "Glucokinase", ""},
	{"HNF1A", 6927, "HNF1 homeobox A", ""},
	{"HNF4A", 3172, "HNF4 homeobox A", ""},
	{"PPARG", 5468, "Peroxisome proliferator activated receptor gamma", ""},
	{"KCNJ11", 3767, "Potassium inwardly rectifying channel subfamily J member 11", ""},
	{"ABCC8", 6833, "ATP binding cassette subfamily C member 8", ""},
}

// CollectorGenes are sampled when generating synthetic associations.
var CollectorGenes = []string{
	"TP53", "BRCA2", "BRCA1", "MYC", "KRAS", "AKT1", "PTEN", "PIK3CA", "APC",
	"VHL", "RB1", "CDKN2A", "SMAD4", "NOTCH1", "JAK2", "FLT3", "IDH1", "BRAF",
	"EGFR", "ALK", "ROS1", "MET", "CFTR", "HBB", "F8", "F9", "APP", "PSEN1",
	"PSEN2", "APOE", "INS", "GCK", "HNF1A", "HNF4A", "PPARG", "KCNJ11", "ABCC8",
}

// DiabetesGenes and CancerGenes narrow association selection for patients
// with a matching medical history.
var (
	DiabetesGenes = []string{"INS", "GCK", "HNF1A", "HNF4A", "PPARG", "KCNJ11", "ABCC8"}
	CancerGenes   = []string{"TP53", "BRCA1", "BRCA2", "APC", "KRAS", "BRAF", "EGFR"}
)

// CollectorDiseases are sampled when generating synthetic associations.
var CollectorDiseases = []Disease{
	{"C0006826", "Cancer", "Disease", ClassNeoplasms},
	{"C0011849", "Diabetes mellitus", "Disease", ClassEndocrine},
	{"C0020538", "Hypertension", "Disease", ClassCardiovascular},
	{"C0002395", "Alzheimer disease", "Disease", ClassNervous},
	{"C0019069", "Hemophilia", "Disease", ClassBlood},
	{"C0010674", "Cystic fibrosis", "Disease", ClassRespiratory},
	{"C0002895", "Sickle cell anemia", "Disease", ClassBlood},
	{"C0004096", "Asthma", "Disease", ClassRespiratory},
	{"C0003864", "Arthritis", "Disease", ClassMusculoskeletal},
	{"C0004153", "Atherosclerosis", "Disease", ClassCardiovascular},
	{"C0006142", "Breast cancer", "Disease", ClassNeoplasms},
	{"C0242379", "Lung cancer", "Disease", ClassNeoplasms},
	{"C0007102", "Colon cancer", "Disease", ClassNeoplasms},
	{"C0376358", "Prostate cancer", "Disease", ClassNeoplasms},
	{"C0003873", "Rheumatoid arthritis", "Disease", ClassMusculoskeletal},
	{"C0011854", "Type 1 diabetes", "Disease", ClassEndocrine},
	{"C0011860", "Type 2 diabetes", "Disease", ClassEndocrine},
	{"C0030567", "Parkinson disease", "Disease", ClassNervous},
	{"C0026769", "Multiple sclerosis", "Disease", ClassNervous},
}

var reportDiseaseClass = map[string]string{
	"Colorectal cancer":           ClassNeoplasms,
	"Lynch syndrome":              ClassNeoplasms,
	"Cowden syndrome":             ClassNeoplasms,
	"Retinoblastoma":              ClassNeoplasms,
	"Von Hippel-Lindau syndrome":  ClassNeoplasms,
	"Neurofibromatosis":           ClassNeoplasms,
	"Melanoma":                    ClassNeoplasms,
	"Hemophilia A":                ClassBlood,
	"Hemophilia B":                ClassBlood,
	"Hemochromatosis":             ClassBlood,
	"G6PD deficiency":             ClassBlood,
	"Duchenne muscular dystrophy": ClassMusculoskeletal,
	"Huntington disease":          ClassNervous,
	"Wilson disease":              ClassEndocrine,
	"Phenylketonuria":             ClassEndocrine,
	"Galactosemia":                ClassEndocrine,
	"Gaucher disease":             ClassEndocrine,
}

var classEncoding = map[string]int{
	"Disease":            1,
	"Phenotype":          2,
	"Sign or Symptom":    3,
	"Finding":            4,
	ClassNeoplasms:       1,
	ClassEndocrine:       2,
	ClassCardiovascular:  3,
	ClassNervous:         4,
	ClassBlood:           5,
	ClassRespiratory:     6,
	ClassMusculoskeletal: 7,
}

var geneIndex = func() map[string]Gene {
	m := make(map[string]Gene, len(genes))
	for _, g := range genes {
		m[g.Symbol] = g
	}
	return m
}()

// LookupGene finds a gene by symbol, ignoring case.
func LookupGene(symbol string) (Gene, bool) {
	g, ok := geneIndex[strings.ToUpper(strings.TrimSpace(symbol))]
	return g, ok
}

// GeneID returns the NCBI id for symbol or UnknownGeneID.
func GeneID(symbol string) int {
	if g, ok := LookupGene(symbol); ok {
		return g.ID
	}
	return UnknownGeneID
}

// DiseaseFor returns the disease a report attributes to a gene.
func DiseaseFor(symbol string) string {
	if g, ok := LookupGene(symbol); ok && g.Disease != "" {
		return g.Disease
	}
	return UnknownDisease
}

// DiseaseClassOf returns the class of a disease name, or "" when unknown.
func DiseaseClassOf(name string) string {
	for _, d := range CollectorDiseases {
		if strings.EqualFold(d.Name, name) {
			return d.Class
		}
	}
	for n, c := range reportDiseaseClass {
		if strings.EqualFold(n, name) {
			return c
		}
	}
	return ""
}

// EncodeDiseaseClass maps a class to its model encoding. Unknown classes
// encode as 1.
func EncodeDiseaseClass(class string) int {
	if v, ok := classEncoding[class]; ok {
		return v
	}
	return 1
}
