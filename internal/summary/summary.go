// Package summary computes and renders descriptive statistics for a table.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/klytics/xlprompt/internal/table"
)

// Header is the first line of every rendered summary.
const Header = "=== DATA SUMMARY ==="

// ColumnInfo is the type and missing-value count of one column.
type ColumnInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Missing int    `json:"missing"`
}

// NumericStats describes the distribution of a numeric column. Std is nil
// when fewer than two values are present.
type NumericStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std,omitempty"`
	Min    float64  `json:"min"`
	P25    float64  `json:"p25"`
	P50    float64  `json:"p50"`
	P75    float64  `json:"p75"`
	Max    float64  `json:"max"`
}

// Stats is a read-only snapshot of one table.
type Stats struct {
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	MemoryBytes int            `json:"memoryBytes"`
	ColumnInfo  []ColumnInfo   `json:"columnInfo"`
	Numeric     []NumericStats `json:"numeric,omitempty"`
}

// Summarize computes statistics for t. Missing counts are taken from empty
// cells, i.e. from what the source left blank.
func Summarize(t *table.Table) *Stats {
	s := &Stats{
		Rows:        t.NumRows(),
		Columns:     t.NumCols(),
		MemoryBytes: memoryEstimate(t),
	}

	for _, col := range t.Columns {
		info := ColumnInfo{Name: col.Name, Type: col.Kind.String()}
		for _, c := range col.Cells {
			if c.IsEmpty() {
				info.Missing++
			}
		}
		s.ColumnInfo = append(s.ColumnInfo, info)

		if col.Kind.Numeric() {
			s.Numeric = append(s.Numeric, describe(col))
		}
	}

	return s
}

// MemoryKB returns the memory estimate in kilobytes.
func (s *Stats) MemoryKB() float64 {
	return float64(s.MemoryBytes) / 1024
}

func describe(col table.Column) NumericStats {
	values := make([]float64, 0, len(col.Cells))
	for _, c := range col.Cells {
		if v, ok := c.Number(); ok {
			values = append(values, v)
		}
	}
	sort.Float64s(values)

	ns := NumericStats{Column: col.Name, Count: len(values)}

	mean, std := stat.MeanStdDev(values, nil)
	ns.Mean = mean
	if len(values) > 1 {
		ns.Std = &std
	}

	ns.Min = values[0]
	ns.Max = values[len(values)-1]
	ns.P25 = quantile(values, 0.25)
	ns.P50 = quantile(values, 0.50)
	ns.P75 = quantile(values, 0.75)
	return ns
}

// quantile interpolates linearly between the closest ranks of sorted values
// (position q*(n-1)). stat.Quantile's LinInterp places ranks at q*n and gives
// different quartiles.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// memoryEstimate approximates the in-memory size of t: eight bytes per
// number or date, one per boolean, and a 16-byte header plus contents for
// text, empty cells and column names.
func memoryEstimate(t *table.Table) int {
	size := 0
	for _, col := range t.Columns {
		size += 16 + len(col.Name)
		for _, c := range col.Cells {
			switch c.Kind {
			case table.Integer, table.Float, table.Date:
				size += 8
			case table.Boolean:
				size++
			default:
				size += 16 + len(c.Str)
			}
		}
	}
	return size
}
