package tags

import (
	"reflect"
	"strings"
	"testing"
)

func TestPostProcessTags_CleansAndDedupes(t *testing.T) {
	raw := []string{
		"Ferramentas, FERRAMENTAS",
		`"parafuso"  `,
		"- aço inox",
		"x",
		"",
		"ferramentas",
	}

	got := PostProcessTags(raw, 10)
	want := []string{"ferramentas", "parafuso", "aço inox"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PostProcessTags = %v, want %v", got, want)
	}
}

func TestPostProcessTags_TruncatesToCount(t *testing.T) {
	raw := []string{"um dois", "três quatro", "cinco", "seis", "sete"}
	got := PostProcessTags(raw, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 tags, got %v", got)
	}
}

func TestBuildPrompt_IncludesOptionalFields(t *testing.T) {
	prompt := BuildPrompt(GenerateTagsInput{
		ProductName:        "Furadeira 500W",
		ProductDescription: "Furadeira de impacto",
		ExistingTags:       []string{"ferramentas", "elétrica"},
	}, 5)

	for _, fragment := range []string{"Furadeira 500W", "Furadeira de impacto", "ferramentas, elétrica", "5 tags"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestBuildPrompt_OmitsEmptyOptionalFields(t *testing.T) {
	prompt := BuildPrompt(GenerateTagsInput{ProductName: "Parafuso M6"}, 10)
	if strings.Contains(prompt, "Descrição") || strings.Contains(prompt, "existentes") {
		t.Fatalf("prompt should omit empty sections:\n%s", prompt)
	}
}
