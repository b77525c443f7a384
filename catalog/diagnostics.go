package catalog

import (
	"fmt"
	"strings"

	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/shopspring/decimal"
)

const maxColumnExamples = 5

// ColumnAnalysis summarizes one column of a session's raw rows. Numeric
// stats are present only when every filled cell parses as a number.
type ColumnAnalysis struct {
	Column      string   `json:"column"`
	Total       int      `json:"total"`
	Filled      int      `json:"filled"`
	Empty       int      `json:"empty"`
	FillRate    string   `json:"fillRate"`
	UniqueCount int      `json:"uniqueCount"`
	Examples    []string `json:"examples"`

	Min  *string `json:"min,omitempty"`
	Max  *string `json:"max,omitempty"`
	Mean *string `json:"mean,omitempty"`
}

// FindDuplicateSKUs returns every row whose key column value appears more
// than once, in input order. Empty keys are never counted as duplicates.
func FindDuplicateSKUs(rows []map[string]any, column string) []map[string]any {
	counts := map[string]int{}
	for _, row := range rows {
		key := cellString(row[column])
		if key == "" {
			continue
		}
		counts[key]++
	}

	duplicates := []map[string]any{}
	for _, row := range rows {
		key := cellString(row[column])
		if key != "" && counts[key] > 1 {
			duplicates = append(duplicates, row)
		}
	}
	return duplicates
}

// AnalyzeColumn computes fill and uniqueness statistics for one column.
func AnalyzeColumn(rows []map[string]any, column string) ColumnAnalysis {
	analysis := ColumnAnalysis{
		Column:   column,
		Total:    len(rows),
		Examples: []string{},
	}

	unique := map[string]bool{}
	values := []decimal.Decimal{}
	allNumeric := true

	for _, row := range rows {
		value := cellString(row[column])
		if value == "" {
			analysis.Empty++
			continue
		}
		analysis.Filled++
		unique[value] = true
		if len(analysis.Examples) < maxColumnExamples {
			analysis.Examples = append(analysis.Examples, value)
		}

		if allNumeric {
			if parsed, err := utils.ParsePrice(value); err == nil {
				values = append(values, parsed)
			} else {
				allNumeric = false
			}
		}
	}

	analysis.UniqueCount = len(unique)
	if analysis.Total > 0 {
		analysis.FillRate = fmt.Sprintf("%.1f%%", float64(analysis.Filled)/float64(analysis.Total)*100)
	} else {
		analysis.FillRate = "0.0%"
	}

	if allNumeric && len(values) > 0 {
		min, max, sum := values[0], values[0], decimal.Zero
		for _, v := range values {
			if v.LessThan(min) {
				min = v
			}
			if v.GreaterThan(max) {
				max = v
			}
			sum = sum.Add(v)
		}
		mean := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2)

		analysis.Min = decimalString(min)
		analysis.Max = decimalString(max)
		analysis.Mean = decimalString(mean)
	}

	return analysis
}

func cellString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func decimalString(d decimal.Decimal) *string {
	s := d.String()
	return &s
}
