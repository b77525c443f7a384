package tags

import (
	"regexp"
	"strings"
)

// Domain keywords recognized anywhere in a query, appended upper-cased.
var keywordVocabulary = []string{
	"ncm",
	"cest",
	"cfop",
	"sku",
	"ean",
	"gtin",
	"marca",
	"categoria",
	"preço",
	"preco",
	"estoque",
	"imposto",
	"tributação",
	"tributacao",
}

var stopWords = map[string]bool{
	"de":        true,
	"do":        true,
	"da":        true,
	"dos":       true,
	"das":       true,
	"para":      true,
	"por":       true,
	"com":       true,
	"sem":       true,
	"que":       true,
	"uma":       true,
	"como":      true,
	"produto":   true,
	"produtos":  true,
	"item":      true,
	"itens":     true,
	"atualizar": true,
	"buscar":    true,
	"gerar":     true,
	"criar":     true,
	"listar":    true,
	"remover":   true,
	"mostrar":   true,
	"todos":     true,
	"todas":     true,
}

var quotedSpanRe = regexp.MustCompile(`"([^"]*)"`)

// ExtractTags turns a free-text query into an ordered, case-insensitively
// deduplicated tag list. Known domain keywords come first (upper-cased), then
// quoted phrases verbatim, then any remaining token of three or more
// characters that is neither a stop word nor a keyword.
func ExtractTags(text string) []string {
	result := []string{}
	if strings.TrimSpace(text) == "" {
		return result
	}

	seen := map[string]bool{}
	appendTag := func(tag string) {
		key := strings.ToLower(tag)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		result = append(result, tag)
	}

	lower := strings.ToLower(text)
	for _, keyword := range keywordVocabulary {
		if strings.Contains(lower, keyword) {
			appendTag(strings.ToUpper(keyword))
		}
	}

	for _, match := range quotedSpanRe.FindAllStringSubmatch(text, -1) {
		span := strings.TrimSpace(match[1])
		if span != "" {
			appendTag(span)
		}
	}

	remainder := quotedSpanRe.ReplaceAllString(text, " ")
	for _, token := range strings.Fields(remainder) {
		if len([]rune(token)) < 3 {
			continue
		}
		key := strings.ToLower(token)
		if stopWords[key] || isKeyword(key) {
			continue
		}
		appendTag(token)
	}

	return result
}

func isKeyword(lowerToken string) bool {
	for _, keyword := range keywordVocabulary {
		if lowerToken == keyword {
			return true
		}
	}
	return false
}
