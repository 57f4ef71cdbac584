package summary

import (
	"fmt"
	"strings"
)

// Render formats s as a fixed-layout text block starting with Header.
func Render(s *Stats) string {
	var b strings.Builder

	b.WriteString(Header + "\n")
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Columns: %d\n", s.Columns)
	fmt.Fprintf(&b, "Memory Usage: %.2f KB\n", s.MemoryKB())

	b.WriteString("\nColumn Types:\n")
	for _, c := range s.ColumnInfo {
		fmt.Fprintf(&b, "  %s: %s\n", c.Name, c.Type)
	}

	// Only columns with missing values are listed; the section may be empty.
	b.WriteString("\nMissing Values:\n")
	for _, c := range s.ColumnInfo {
		if c.Missing > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", c.Name, c.Missing)
		}
	}

	if len(s.Numeric) > 0 {
		b.WriteString("\nNumeric Column Statistics:\n")
		for _, n := range s.Numeric {
			fmt.Fprintf(&b, "  %s:\n", n.Column)
			writeStat(&b, "count", float64(n.Count))
			writeStat(&b, "mean", n.Mean)
			if n.Std != nil {
				writeStat(&b, "std", *n.Std)
			}
			writeStat(&b, "min", n.Min)
			writeStat(&b, "25%", n.P25)
			writeStat(&b, "50%", n.P50)
			writeStat(&b, "75%", n.P75)
			writeStat(&b, "max", n.Max)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeStat(b *strings.Builder, name string, v float64) {
	fmt.Fprintf(b, "    %s: %.4f\n", name, v)
}
