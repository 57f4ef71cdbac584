// Package table holds the in-memory model a workbook sheet is loaded into:
// named columns of typed cells, and an ordered set of named tables.
package table

import (
	"fmt"
	"strings"
)

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Table is an ordered list of columns. Every column has the same length.
type Table struct {
	Columns []Column
}

// New builds a table from a header row and data rows. Blank header names
// become column_<n>, duplicates get a ".<k>" suffix, rows shorter than the
// widest row are padded with empty cells, and rows with no values are dropped.
func New(header []string, rows [][]Cell) *Table {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	names := columnNames(header, width)
	t := &Table{Columns: make([]Column, width)}
	for i := range t.Columns {
		t.Columns[i].Name = names[i]
	}

	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		for i := range t.Columns {
			cell := EmptyCell()
			if i < len(row) {
				cell = row[i]
			}
			t.Columns[i].Cells = append(t.Columns[i].Cells, cell)
		}
	}

	for i := range t.Columns {
		t.Columns[i].Kind = InferKind(t.Columns[i].Cells)
	}
	return t
}

// FromStrings builds a table from string rows, typing each cell with ParseCell.
func FromStrings(header []string, rows [][]string) *Table {
	typed := make([][]Cell, len(rows))
	for i, row := range rows {
		typed[i] = make([]Cell, len(row))
		for j, s := range row {
			typed[i][j] = ParseCell(s)
		}
	}
	return New(header, typed)
}

// InferKind returns the kind shared by the non-empty cells. Integer and Float
// together widen to Float; any other mix is Text; no values at all is Empty.
func InferKind(cells []Cell) Kind {
	kind := Empty
	for _, c := range cells {
		switch {
		case c.Kind == Empty:
			continue
		case kind == Empty:
			kind = c.Kind
		case kind == c.Kind:
		case kind.Numeric() && c.Kind.Numeric():
			kind = Float
		default:
			return Text
		}
	}
	return kind
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// Slice returns a new table holding rows [start, end). Column names and kinds
// are carried over unchanged.
func (t *Table) Slice(start, end int) *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, end-start)
		copy(cells, c.Cells[start:end])
		out.Columns[i] = Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

func blankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func columnNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}
