package models

import "fmt"

// ReportKind selects the audience of a generated report
type ReportKind int

const (
	// CandidateReport narrates a job interview and includes the suitability section
	CandidateReport ReportKind = 0
	// CustomerReport narrates a customer meeting and omits the suitability section
	CustomerReport ReportKind = 1
)

// Valid reports whether the kind is one the report template knows about
func (k ReportKind) Valid() bool {
	return k == CandidateReport || k == CustomerReport
}

// String returns a short label used in logs and exports
func (k ReportKind) String() string {
	switch k {
	case CandidateReport:
		return "aday"
	case CustomerReport:
		return "musteri"
	default:
		return fmt.Sprintf("bilinmeyen(%d)", int(k))
	}
}

// Emotion describes one emotion column of the metrics table
type Emotion struct {
	Name   string // Turkish label shown in charts
	Key    string // column holding the person's percentage
	AvgKey string // column holding the population average
	Color  string // bar colour
}

// Emotions lists the tracked emotions in report order
var Emotions = []Emotion{
	{Name: "Mutlu", Key: "duygu_mutlu_%", AvgKey: "avg_duygu_mutlu_%", Color: "#d4eac8"},
	{Name: "Kızgın", Key: "duygu_kizgin_%", AvgKey: "avg_duygu_kizgin_%", Color: "#e5b9b5"},
	{Name: "İğrenme", Key: "duygu_igrenme_%", AvgKey: "avg_duygu_igrenme_%", Color: "#d3cdd7"},
	{Name: "Korku", Key: "duygu_korku_%", AvgKey: "avg_duygu_korku_%", Color: "#a9b4c2"},
	{Name: "Üzgün", Key: "duygu_uzgun_%", AvgKey: "avg_duygu_uzgun_%", Color: "#b7d0e2"},
	{Name: "Şaşkın", Key: "duygu_saskin_%", AvgKey: "avg_duygu_saskin_%", Color: "#fdeac9"},
	{Name: "Doğal", Key: "duygu_dogal_%", AvgKey: "avg_duygu_dogal_%", Color: "#d8d8d8"},
}

// QA is a single interview question with the given answer
type QA struct {
	Question string `json:"soru"`
	Answer   string `json:"cevap"`
}

// InterviewRecord holds the aggregated metrics of one interview
type InterviewRecord struct {
	PersonName    string `json:"kisi_adi"`
	InterviewName string `json:"mulakat_adi"`

	LLMScore    float64 `json:"llm_skoru"`
	AvgLLMScore float64 `json:"avg_llm_skoru"`

	// Emotion percentages keyed by Emotion.Key and Emotion.AvgKey
	Emotions map[string]float64 `json:"duygular"`

	OffScreenSeconds    float64 `json:"ekran_disi_sure_sn"`
	AvgOffScreenSeconds float64 `json:"avg_ekran_disi_sure_sn"`
	OffScreenCount      int     `json:"ekran_disi_sayisi"`
	AvgOffScreenCount   int     `json:"avg_ekran_disi_sayisi"`

	QA   []QA       `json:"soru_cevap"`
	Kind ReportKind `json:"tip"`
}

// Emotion returns the person's percentage for the emotion column key
func (r InterviewRecord) Emotion(key string) float64 {
	return r.Emotions[key]
}

// HasEmotions reports whether any emotion column was populated
func (r InterviewRecord) HasEmotions() bool {
	for _, e := range Emotions {
		if _, ok := r.Emotions[e.Key]; ok {
			return true
		}
	}
	return false
}

// BaseName is the "<person>_<interview>" stem shared by output files
func (r InterviewRecord) BaseName() string {
	return fmt.Sprintf("%s_%s", r.PersonName, r.InterviewName)
}

// ReportResult describes one generated report in a batch run
type ReportResult struct {
	PersonName    string     `json:"kisi_adi"`
	InterviewName string     `json:"mulakat_adi"`
	Kind          ReportKind `json:"tip"`
	LLMScore      float64    `json:"llm_skoru"`
	AvgLLMScore   float64    `json:"avg_llm_skoru"`
	PDFPath       string     `json:"pdf_path,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Delta is the distance of the score from the population average
func (r ReportResult) Delta() float64 {
	return r.LLMScore - r.AvgLLMScore
}
