package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseProductSheet_CsvHeaderAndRows(t *testing.T) {
	csvData := []byte("sku,descricao,preço\nA-1,Parafuso M6,\"R$ 1,50\"\n,,\nA-2,Porca M6,\"2,00\"\n")

	columns, rows, err := parseProductSheet("lista.csv", csvData)
	if err != nil {
		t.Fatalf("parseProductSheet() error = %v", err)
	}
	wantColumns := []string{"sku", "descricao", "preço"}
	if !reflect.DeepEqual(columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", columns, wantColumns)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank line skipped)", len(rows))
	}
	if rows[0]["sku"] != "A-1" || rows[0]["descricao"] != "Parafuso M6" {
		t.Fatalf("first row = %v", rows[0])
	}
	if rows[0]["preço"] != "1.5" {
		t.Fatalf("price cell = %v, want normalized 1.5", rows[0]["preço"])
	}
	if rows[1]["preço"] != "2" {
		t.Fatalf("price cell = %v, want normalized 2", rows[1]["preço"])
	}
}

func TestParseProductSheet_BlankHeaderGetsFallbackName(t *testing.T) {
	csvData := []byte("sku,,valor\nA-1,azul,10\n")

	columns, rows, err := parseProductSheet("lista.csv", csvData)
	if err != nil {
		t.Fatalf("parseProductSheet() error = %v", err)
	}
	wantColumns := []string{"sku", "coluna_2", "valor"}
	if !reflect.DeepEqual(columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", columns, wantColumns)
	}
	if rows[0]["coluna_2"] != "azul" {
		t.Fatalf("fallback column value = %v, want azul", rows[0]["coluna_2"])
	}
}

func TestParseProductSheet_ShortRowPadded(t *testing.T) {
	csvData := []byte("sku,descricao,marca\nA-1,Parafuso\n")

	_, rows, err := parseProductSheet("lista.csv", csvData)
	if err != nil {
		t.Fatalf("parseProductSheet() error = %v", err)
	}
	if rows[0]["marca"] != "" {
		t.Fatalf("missing cell = %q, want empty string", rows[0]["marca"])
	}
}

func TestParseProductSheet_RejectsUnknownExtension(t *testing.T) {
	_, _, err := parseProductSheet("lista.pdf", []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("error = %v, want unsupported file type", err)
	}
}

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		column string
		cell   string
		want   string
	}{
		{"preço", "R$ 1.234,56", "1234.56"},
		{"custo unitário", "10,00", "10"},
		{"preco", "abc", "abc"},
		{"descricao", "R$ 1,50", "R$ 1,50"},
		{"valor", "", ""},
	}
	for _, tt := range tests {
		if got := normalizeCell(tt.column, tt.cell); got != tt.want {
			t.Fatalf("normalizeCell(%q, %q) = %q, want %q", tt.column, tt.cell, got, tt.want)
		}
	}
}
