package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is a table heading; numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

func label(title string) column { return column{title: title} }

func number(title string) column { return column{title: title, numeric: true} }

// writeTable renders rows under cols to w. Short rows are filled with "-".
func writeTable(w io.Writer, cols []column, rows [][]string) {
	if len(cols) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = "-"
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
