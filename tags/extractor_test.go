package tags

import (
	"reflect"
	"testing"
)

func TestExtractTags_KeywordQuotedAndTokens(t *testing.T) {
	got := ExtractTags(`Atualizar NCM do produto "Parafuso M6"`)

	want := []string{"NCM", "Parafuso M6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractTags = %v, want %v", got, want)
	}
}

func TestExtractTags_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		got := ExtractTags(input)
		if len(got) != 0 {
			t.Fatalf("ExtractTags(%q) = %v, want empty", input, got)
		}
	}
}

func TestExtractTags_KeywordCaseInsensitive(t *testing.T) {
	got := ExtractTags("buscar ncm e Ncm")
	if len(got) != 1 || got[0] != "NCM" {
		t.Fatalf("expected single NCM tag, got %v", got)
	}
}

func TestExtractTags_TokenCasePreservedAndDeduped(t *testing.T) {
	got := ExtractTags("Parafuso aço parafuso AÇO")

	want := []string{"Parafuso", "aço"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractTags = %v, want %v", got, want)
	}
}

func TestExtractTags_ShortTokensDropped(t *testing.T) {
	got := ExtractTags("M6 aço x1")
	if len(got) != 1 || got[0] != "aço" {
		t.Fatalf("expected only aço, got %v", got)
	}
}

func TestExtractTags_MultipleQuotedSpans(t *testing.T) {
	got := ExtractTags(`comparar "Furadeira 500W" contra "Furadeira 750W"`)

	want := []string{"Furadeira 500W", "Furadeira 750W", "comparar", "contra"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractTags = %v, want %v", got, want)
	}
}

func TestExtractTags_KeywordInsideQuotedSpanStillUppercased(t *testing.T) {
	got := ExtractTags(`"tabela ncm completa"`)

	want := []string{"NCM", "tabela ncm completa"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractTags = %v, want %v", got, want)
	}
}
