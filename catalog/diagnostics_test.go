package catalog

import (
	"testing"
)

func rowsFixture() []map[string]any {
	return []map[string]any{
		{"sku": "A-1", "nome": "Parafuso M6", "preco": "R$ 1,50"},
		{"sku": "A-2", "nome": "Porca M6", "preco": "2,00"},
		{"sku": "A-1", "nome": "Parafuso M6 inox", "preco": "R$ 3,50"},
		{"sku": "", "nome": "Sem código", "preco": ""},
	}
}

func TestFindDuplicateSKUs(t *testing.T) {
	duplicates := FindDuplicateSKUs(rowsFixture(), "sku")
	if len(duplicates) != 2 {
		t.Fatalf("expected 2 duplicate rows, got %d", len(duplicates))
	}
	if duplicates[0]["nome"] != "Parafuso M6" || duplicates[1]["nome"] != "Parafuso M6 inox" {
		t.Fatalf("input order not preserved: %v", duplicates)
	}
}

func TestFindDuplicateSKUs_EmptyKeysIgnored(t *testing.T) {
	rows := []map[string]any{
		{"sku": ""},
		{"sku": ""},
		{"sku": "B-1"},
	}
	if got := FindDuplicateSKUs(rows, "sku"); len(got) != 0 {
		t.Fatalf("empty keys must not count as duplicates, got %v", got)
	}
}

func TestAnalyzeColumn_FillStats(t *testing.T) {
	analysis := AnalyzeColumn(rowsFixture(), "sku")

	if analysis.Total != 4 || analysis.Filled != 3 || analysis.Empty != 1 {
		t.Fatalf("unexpected counts: %+v", analysis)
	}
	if analysis.FillRate != "75.0%" {
		t.Fatalf("unexpected fill rate %q", analysis.FillRate)
	}
	if analysis.UniqueCount != 2 {
		t.Fatalf("unexpected unique count %d", analysis.UniqueCount)
	}
	if len(analysis.Examples) != 3 {
		t.Fatalf("unexpected examples %v", analysis.Examples)
	}
}

func TestAnalyzeColumn_NumericStats(t *testing.T) {
	analysis := AnalyzeColumn(rowsFixture(), "preco")

	if analysis.Min == nil || analysis.Max == nil || analysis.Mean == nil {
		t.Fatalf("expected numeric stats for price column: %+v", analysis)
	}
	if *analysis.Min != "1.5" || *analysis.Max != "3.5" {
		t.Fatalf("unexpected min/max: %s / %s", *analysis.Min, *analysis.Max)
	}
	if *analysis.Mean != "2.33" {
		t.Fatalf("unexpected mean %s", *analysis.Mean)
	}
}

func TestAnalyzeColumn_NonNumericSkipsStats(t *testing.T) {
	analysis := AnalyzeColumn(rowsFixture(), "nome")
	if analysis.Min != nil || analysis.Max != nil || analysis.Mean != nil {
		t.Fatalf("text column must not report numeric stats: %+v", analysis)
	}
}

func TestAnalyzeColumn_EmptyRows(t *testing.T) {
	analysis := AnalyzeColumn(nil, "sku")
	if analysis.Total != 0 || analysis.FillRate != "0.0%" {
		t.Fatalf("unexpected empty analysis: %+v", analysis)
	}
}
