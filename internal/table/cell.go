package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the semantic type of a cell or column.
type Kind uint8

const (
	Empty Kind = iota
	Text
	Integer
	Float
	Boolean
	Date
)

var kindLabels = [...]string{
	Empty:   "empty",
	Text:    "text",
	Integer: "integer",
	Float:   "float",
	Boolean: "boolean",
	Date:    "date",
}

func (k Kind) String() string {
	if int(k) < len(kindLabels) {
		return kindLabels[k]
	}
	return "unknown"
}

// Numeric reports whether k is Integer or Float.
func (k Kind) Numeric() bool {
	return k == Integer || k == Float
}

// Cell is a single typed value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

// EmptyCell returns a cell with no value.
func EmptyCell() Cell { return Cell{Kind: Empty} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: Text, Str: s} }

// IntCell returns an integer cell.
func IntCell(i int64) Cell { return Cell{Kind: Integer, Int: i} }

// FloatCell returns a floating-point cell.
func FloatCell(f float64) Cell { return Cell{Kind: Float, Float: f} }

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell { return Cell{Kind: Boolean, Bool: b} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: Date, Time: t} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == Empty
}

// Number returns the numeric value of Integer and Float cells.
func (c Cell) Number() (float64, bool) {
	switch c.Kind {
	case Integer:
		return float64(c.Int), true
	case Float:
		return c.Float, true
	}
	return 0, false
}

// String renders the cell as plain text. Empty cells render as "".
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Str
	case Integer:
		return strconv.FormatInt(c.Int, 10)
	case Float:
		return strconv.FormatFloat(c.Float, 'f', -1, 64)
	case Boolean:
		return strconv.FormatBool(c.Bool)
	case Date:
		return FormatDate(c.Time)
	}
	return ""
}

// FormatDate renders t as a date, adding the clock only when it is set.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
}

// ParseCell infers a typed cell from display text: integer, then float,
// then boolean, then an ISO date, falling back to text.
func ParseCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntCell(i)
	}
	if f, ok := parseFloat(s); ok {
		return FloatCell(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return BoolCell(true)
	case "false":
		return BoolCell(false)
	}
	if t, ok := ParseDate(s); ok {
		return DateCell(t)
	}
	return TextCell(s)
}

// ParseDate tries the ISO layouts ParseCell understands.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// ParseFloat also accepts hex mantissas and underscores; spreadsheets don't produce them.
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	return f, true
}
