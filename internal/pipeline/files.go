package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
)

// FileResult describes a workbook converted to files on disk.
type FileResult struct {
	Input   string      `json:"input"`
	Outputs []string    `json:"outputs"`
	Skipped []xlsx.Skip `json:"skipped,omitempty"`
}

// ConvertFile converts the workbook at path into outDir, naming the output
// after the workbook. With opts.MaxRows > 0 every chunk gets its own
// numbered file.
func ConvertFile(path, outDir string, opts Options) (*FileResult, error) {
	format, err := ResolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fr := &FileResult{Input: path}

	if opts.MaxRows > 0 {
		res, err := ConvertChunked(xlsx.Path(path), opts)
		if err != nil {
			return nil, err
		}
		fr.Skipped = res.Skipped
		fr.Outputs, err = output.WriteSegments(outDir, base, format.Extension(), res.Segments)
		return fr, err
	}

	res, err := Convert(xlsx.Path(path), opts)
	if err != nil {
		return nil, err
	}
	fr.Skipped = res.Skipped
	target := filepath.Join(outDir, base+format.Extension())
	if err := output.WriteText(target, res.Text); err != nil {
		return fr, err
	}
	fr.Outputs = []string{target}
	return fr, nil
}
