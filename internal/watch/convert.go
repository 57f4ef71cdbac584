package watch

import (
	"github.com/klytics/xlprompt/internal/pipeline"
)

// ConvertHandler returns a Handler that converts each workbook into outDir.
func ConvertHandler(outDir string, opts pipeline.Options) Handler {
	return func(path string) ([]string, error) {
		res, err := pipeline.ConvertFile(path, outDir, opts)
		if err != nil {
			return nil, err
		}
		return res.Outputs, nil
	}
}
