package output

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints rows as an aligned table on stdout. Every stats and
// token listing in the CLI goes through here so they all look alike.
func RenderTable(headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}
