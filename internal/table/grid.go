package table

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/bigredeye/schoolbook/internal/models"
)

const (
	Title            = "Учнi"
	HeaderNumber     = "№"
	HeaderName       = "Ім’я учня"
	LabelRowsPerPage = "Рядків на сторінку:"
)

var DefaultRowsPerPageOptions = []int{5, 10, 25}

type Cell struct {
	Pair   models.Pair
	Marked bool
	Mark   string
}

type Row struct {
	Number  int
	Student models.Student
	Name    string
	Cells   []Cell
}

type Grid struct {
	Columns []models.Column
	Rows    []Row

	Page        int
	RowsPerPage int
	Options     []int
	Count       int
	LastPage    int
	Label       string
}

func (g *Grid) HasPrev() bool {
	return g.Page > 0
}

func (g *Grid) HasNext() bool {
	return g.Page < g.LastPage
}

type Paging struct {
	Page        int
	RowsPerPage int
	Options     []int
}

// BuildGrid lays out one page of a ready view.
func BuildGrid(view View, paging Paging, placeholders models.Placeholders) *Grid {
	options := paging.Options
	if len(options) == 0 {
		options = DefaultRowsPerPageOptions
	}
	rowsPerPage := paging.RowsPerPage
	if !slices.Contains(options, rowsPerPage) {
		rowsPerPage = options[0]
	}
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPageOptions[0]
	}

	grid := &Grid{
		RowsPerPage: rowsPerPage,
		Options:     options,
	}
	if view.Students == nil || view.Columns == nil || view.Records == nil {
		grid.Label = DisplayedRows(0, 0, 0)
		return grid
	}

	students := view.Students.Items
	grid.Columns = view.Columns.Items
	grid.Count = len(students)
	if grid.Count > 0 {
		grid.LastPage = (grid.Count - 1) / rowsPerPage
	}
	grid.Page = clamp(paging.Page, 0, grid.LastPage)

	from := grid.Page * rowsPerPage
	to := from + rowsPerPage
	if to > grid.Count {
		to = grid.Count
	}

	for i, student := range students[from:to] {
		row := Row{
			Number:  from + i + 1,
			Student: student,
			Name:    student.DisplayName(placeholders),
			Cells:   make([]Cell, 0, len(grid.Columns)),
		}
		for _, column := range grid.Columns {
			pair := models.Pair{StudentID: student.Id, ColumnID: column.Id}
			cell := Cell{Pair: pair}
			if record, found := Find(view.Records, pair); found && record.Title != "" {
				cell.Marked = true
				cell.Mark = record.Title
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}

	if grid.Count == 0 {
		grid.Label = DisplayedRows(0, 0, 0)
	} else {
		grid.Label = DisplayedRows(from+1, to, grid.Count)
	}
	return grid
}

// Find returns the first record of the pair.
func Find(records *models.GradeRecords, pair models.Pair) (models.GradeRecord, bool) {
	if records == nil {
		return models.GradeRecord{}, false
	}
	i := slices.IndexFunc(records.Items, pair.Matches)
	if i < 0 {
		return models.GradeRecord{}, false
	}
	return records.Items[i], true
}

// Marked reports whether the cell of the pair shows a mark.
func Marked(records *models.GradeRecords, pair models.Pair) bool {
	record, found := Find(records, pair)
	return found && record.Title != ""
}

// DisplayedRows is the pagination label.
func DisplayedRows(from, to, count int) string {
	return fmt.Sprintf("%d-%d з %d", from, to, count)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
