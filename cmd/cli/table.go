package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alexsergivan/transliterator"
	"github.com/spf13/cobra"

	"github.com/bigredeye/schoolbook/internal/table"
)

func makeDumpTableCommand() *cobra.Command {
	var page, rows int
	var translit bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Dump the attendance table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpTable(cmd.Context(), page, rows, translit)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting from zero")
	cmd.Flags().IntVar(&rows, "rows", 25, "Rows per page")
	cmd.Flags().BoolVar(&translit, "translit", false, "Transliterate names to latin")

	return cmd
}

func dumpTable(ctx context.Context, page, rows int, translit bool) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	view, err := c.load(ctx)
	if err != nil {
		return err
	}

	grid := table.BuildGrid(view, table.Paging{
		Page:        page,
		RowsPerPage: rows,
		Options:     c.conf.Table.RowsPerPageOptions,
	}, c.conf.Placeholders)

	text := func(s string) string { return s }
	if translit {
		trans := transliterator.NewTransliterator(nil)
		text = func(s string) string { return trans.Transliterate(s, "en") }
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := []string{table.HeaderNumber, text(table.HeaderName)}
	for _, column := range grid.Columns {
		header = append(header, text(column.Title))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range grid.Rows {
		line := []string{fmt.Sprint(row.Number), text(row.Name)}
		for _, cell := range row.Cells {
			line = append(line, cell.Mark)
		}
		fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println(grid.Label)
	return nil
}
