// Package chunk splits tables into bounded row ranges so each piece fits a
// model's input limit.
package chunk

import (
	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/table"
)

// DefaultMaxRows is the row bound used when a caller asks for chunking
// without choosing a size.
const DefaultMaxRows = 1000

// Chunk is a contiguous row range of a table, tagged with its 1-based
// position among the chunks produced for that table.
type Chunk struct {
	Index int
	Total int
	Table *table.Table
}

// Split partitions t into consecutive chunks of at most maxRows rows. A table
// that already fits, including an empty one, yields a single chunk tagged 1/1.
func Split(t *table.Table, maxRows int) ([]Chunk, error) {
	if maxRows <= 0 {
		return nil, errs.New(errs.InvalidChunkSize, "chunk size must be positive, got %d", maxRows)
	}

	rows := t.NumRows()
	if rows <= maxRows {
		return []Chunk{{Index: 1, Total: 1, Table: t}}, nil
	}

	total := (rows + maxRows - 1) / maxRows
	chunks := make([]Chunk, 0, total)
	for start := 0; start < rows; start += maxRows {
		end := start + maxRows
		if end > rows {
			end = rows
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks) + 1,
			Total: total,
			Table: t.Slice(start, end),
		})
	}

	return chunks, nil
}
