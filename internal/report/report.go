// Package report renders sentiment and topic frequency tables for people:
// as terminal tables, or as a workbook with a pie and a column chart.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/aggregator"
	"comment-insights-go/internal/types"
)

const (
	sentimentTitle = "Sentiment Distribution"
	topicTitle     = "Topic Distribution"

	chartSheet     = "Charts"
	sentimentSheet = "Sentiment"
	topicSheet     = "Topic"
)

// Text renders both tables with counts and percentage share.
func Text(r aggregator.Report) string {
	var b strings.Builder
	b.WriteString(renderTable(sentimentTitle, "Sentiment", r.Sentiment))
	b.WriteString("\n")
	b.WriteString(renderTable(topicTitle, "Topic", r.Topic))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d comments classified\n", r.Classified, r.Total)
	return b.String()
}

func renderTable(title, column string, t types.FrequencyTable) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{column, "Count", "Share"})

	total := t.Total()
	for _, e := range aggregator.Sorted(t) {
		tw.AppendRow(table.Row{e.Label, e.Count, share(e.Count, total)})
	}
	tw.AppendFooter(table.Row{"Total", total, ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render() + "\n"
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

// WriteCharts writes a workbook with one data sheet per dimension and a chart
// sheet holding a sentiment pie chart and a topic column chart. A dimension
// with no counts gets its data sheet but no chart.
func WriteCharts(w io.Writer, r aggregator.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", chartSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sentimentRows, err := writeData(f, sentimentSheet, "Sentiment", r.Sentiment)
	if err != nil {
		return err
	}
	topicRows, err := writeData(f, topicSheet, "Topic", r.Topic)
	if err != nil {
		return err
	}

	if sentimentRows > 0 {
		if err := f.AddChart(chartSheet, "A1", &excelize.Chart{
			Type:     excelize.Pie,
			Series:   []excelize.ChartSeries{series(sentimentSheet, sentimentRows)},
			Title:    []excelize.RichTextRun{{Text: sentimentTitle}},
			PlotArea: excelize.ChartPlotArea{ShowPercent: true},
		}); err != nil {
			return fmt.Errorf("add sentiment chart: %w", err)
		}
	}
	if topicRows > 0 {
		if err := f.AddChart(chartSheet, "A18", &excelize.Chart{
			Type:   excelize.Col,
			Series: []excelize.ChartSeries{series(topicSheet, topicRows)},
			Title:  []excelize.RichTextRun{{Text: topicTitle}},
			Legend: excelize.ChartLegend{Position: "none"},
			PlotArea: excelize.ChartPlotArea{
				ShowVal: true,
			},
		}); err != nil {
			return fmt.Errorf("add topic chart: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeData writes a label/count table and returns the number of data rows.
func writeData(f *excelize.File, sheet, column string, t types.FrequencyTable) (int, error) {
	if _, err := f.NewSheet(sheet); err != nil {
		return 0, fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	header := []any{column, "Count"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return 0, err
	}
	entries := aggregator.Sorted(t)
	for i, e := range entries {
		row := []any{e.Label, e.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func series(sheet string, rows int) excelize.ChartSeries {
	last := rows + 1
	return excelize.ChartSeries{
		Name:       fmt.Sprintf("%s!$B$1", sheet),
		Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
		Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
	}
}
