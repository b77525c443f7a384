package tags

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/catalogodata/catalogo_backend/utils"
	"google.golang.org/genai"
)

const defaultTagCount = 10

// ErrGeneratorUnconfigured means no API key is present; callers map it to a
// server-side configuration error, not a client fault.
var ErrGeneratorUnconfigured = errors.New("tag generator backend is not configured")

type GenerateTagsInput struct {
	ProductName        string   `json:"productName" binding:"required"`
	ProductDescription string   `json:"productDescription"`
	ExistingTags       []string `json:"existingTags"`
	Count              int      `json:"count"`
}

type GenerateTagsResult struct {
	Tags   []string `json:"tags"`
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
}

type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator builds a Gemini-backed generator. The key comes from
// GOOGLE_API_KEY (GEMINI_API_KEY as an alias); without one the generator is
// unconfigured and every call would fail, so we refuse up front.
func NewGenerator(ctx context.Context) (*Generator, error) {
	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if apiKey == "" {
		return nil, ErrGeneratorUnconfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(os.Getenv("TAG_GENERATOR_MODEL"))
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Generator{client: client, model: model}, nil
}

func (g *Generator) GenerateTags(ctx context.Context, input GenerateTagsInput) (GenerateTagsResult, error) {
	count := input.Count
	if count <= 0 {
		count = defaultTagCount
	}

	prompt := BuildPrompt(input, count)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return GenerateTagsResult{}, err
	}

	return GenerateTagsResult{
		Tags:   PostProcessTags(strings.Split(resp.Text(), "\n"), count),
		Model:  g.model,
		Prompt: prompt,
	}, nil
}

// BuildPrompt asks for one tag per line so the response needs no structured
// parsing. Existing tags are listed so the model avoids repeating them.
func BuildPrompt(input GenerateTagsInput, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gere até %d tags curtas de catálogo, em português, para o produto a seguir.\n", count)
	fmt.Fprintf(&b, "Produto: %s\n", strings.TrimSpace(input.ProductName))
	if desc := strings.TrimSpace(input.ProductDescription); desc != "" {
		fmt.Fprintf(&b, "Descrição: %s\n", desc)
	}
	if len(input.ExistingTags) > 0 {
		fmt.Fprintf(&b, "Tags já existentes (não repetir): %s\n", strings.Join(utils.UniqueSlice(input.ExistingTags), ", "))
	}
	b.WriteString("Responda apenas com as tags, uma por linha, sem numeração e sem explicações.")
	return b.String()
}

// PostProcessTags cleans raw model output into the final tag list: lowercase,
// trimmed, deduplicated, no one-character tags, at most count entries.
func PostProcessTags(raw []string, count int) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, line := range raw {
		for _, piece := range strings.Split(line, ",") {
			tag := strings.ToLower(strings.TrimSpace(piece))
			tag = strings.Trim(tag, `"'-*• `)
			if len([]rune(tag)) < 2 || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
			if len(tags) == count {
				return tags
			}
		}
	}
	return tags
}
