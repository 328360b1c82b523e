// Package renderer renders calculation results as markdown, for the terminal or as HTML.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"unicode"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

// PositionsMarkdown renders the positions evaluated on asOf.
func PositionsMarkdown(res perf.CurrentPositionsResult, asOf date.Date) string {
	partials := map[string]string{
		"positions_summary": "positions_summary.md",
		"positions_table":   "positions_table.md",
		"positions_errors":  "positions_errors.md",
	}
	data := struct {
		AsOf   date.Date
		Result perf.CurrentPositionsResult
	}{asOf, res}
	return renderTemplate("positions", "positions.md", partials, nil, data)
}

// InvestmentsMarkdown renders an investment series.
func InvestmentsMarkdown(title string, series perf.ChartSeries) string {
	partials := map[string]string{
		"investments_errors": "investments_errors.md",
	}
	data := struct {
		Title string
		perf.ChartSeries
	}{title, series}
	return renderTemplate("investments", "investments.md", partials, nil, data)
}

// GroupedMarkdown renders the net investment per period.
func GroupedMarkdown(grouped []perf.GroupedInvestment, period date.Period, currency string) string {
	funcs := template.FuncMap{
		"title": title,
		"identifier": func(d date.Date) string {
			return date.NewRange(d, period).Identifier()
		},
	}
	data := struct {
		Period   date.Period
		Currency string
		Grouped  []perf.GroupedInvestment
	}{period, currency, grouped}
	return renderTemplate("grouped", "grouped.md", nil, funcs, data)
}

func title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Terminal renders markdown for a terminal of the given width.
func Terminal(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("cannot create terminal renderer: %w", err)
	}
	return r.Render(markdown)
}

// HTML renders markdown, with tables, into an HTML fragment.
func HTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("cannot render html: %w", err)
	}
	return buf.Bytes(), nil
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, funcs template.FuncMap, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
