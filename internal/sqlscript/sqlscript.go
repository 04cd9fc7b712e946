// Package sqlscript renders the markup SQL scripts.
//
// Scripts use {name} placeholders. Literal braces are written as {{ and }}.
// A string value containing commas is rendered as a SQL tuple, so
// "US,GB" becomes ('US', 'GB') and can be used with IN.
package sqlscript

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Views are the scripts creating the markup tables and views, in execution
// order.
var Views = []string{
	"1_product_view.sql",
	"targeted_products/targeted_product_ddl.sql",
	"targeted_products/construct_parsed_criteria.sql",
	"2_product_metrics_view.sql",
	"3_customer_view.sql",
	"4_product_detailed_view.sql",
	"materialize_product_detailed.sql",
	"materialize_product_historical.sql",
}

var MarketInsightsViews = []string{
	"market_insights/snapshot_view.sql",
	"market_insights/historical_view.sql",
}

const (
	MainWorkflow        = "main_workflow.sql"
	BestSellersWorkflow = "market_insights/best_sellers_workflow.sql"
)

// Ordered returns the view scripts to run.
func Ordered(marketInsights bool) []string {
	files := append([]string{}, Views...)
	if marketInsights {
		files = append(files, MarketInsightsViews...)
	}
	return files
}

type Params map[string]any

var (
	ErrUnknownParam = errors.New("unknown placeholder")
	ErrSyntax       = errors.New("malformed placeholder")
)

func Render(script string, params Params) (string, error) {
	var b strings.Builder
	b.Grow(len(script))

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '{' && i+1 < len(script) && script[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(script) && script[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '}':
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrSyntax, i)
		case c == '{':
			end := strings.IndexByte(script[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' at offset %d", ErrSyntax, i)
			}
			name := script[i+1 : i+1+end]
			if !isIdent(name) {
				return "", fmt.Errorf("%w: {%s} at offset %d", ErrSyntax, name, i)
			}
			value, ok := params[name]
			if !ok {
				return "", fmt.Errorf("%w: {%s}", ErrUnknownParam, name)
			}
			b.WriteString(format(value))
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

func RenderFile(path string, params Params) (string, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("the file %q could not be found", path)
	}
	if err != nil {
		return "", err
	}

	sql, err := Render(string(content), params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sql, nil
}

func format(value any) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}
	if !strings.Contains(s, ",") {
		return s
	}

	parts := strings.Split(s, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + strings.ReplaceAll(p, "'", `\'`) + "'"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
