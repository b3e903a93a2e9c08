package ingestion

import "strings"

var testHeader = []string{
	"kisi_adi", "mulakat_adi", "llm_skoru",
	"duygu_mutlu_%", "duygu_kizgin_%", "duygu_igrenme_%", "duygu_korku_%",
	"duygu_uzgun_%", "duygu_saskin_%", "duygu_dogal_%",
	"avg_duygu_mutlu_%", "avg_duygu_dogal_%",
	"ekran_disi_sure_sn", "ekran_disi_sayisi",
	"avg_ekran_disi_sure_sn", "avg_ekran_disi_sayisi",
	"soru", "cevap", "tip", "avg_llm_skoru",
}

func testRow(name, interview, question, answer, kind string) []string {
	return []string{
		name, interview, "78.456",
		"40.123", "5", "1", "2",
		"3", "4", "44.877",
		"35", "50",
		"12.346", "3.9",
		"10", "2",
		question, answer, kind, "70",
	}
}

func csvOf(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(testHeader, ",") + "\n")
	for _, r := range rows {
		sb.WriteString(strings.Join(r, ",") + "\n")
	}
	return sb.String()
}
