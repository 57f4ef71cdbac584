package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/klytics/xlprompt/internal/formats/convert"
)

// Job is a YAML file describing a sequence of conversions.
type Job struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Steps   []Step `yaml:"steps" json:"steps"`

	// Dir is the directory relative paths in steps are resolved against.
	Dir string `yaml:"-" json:"-"`
}

// Step converts one workbook.
type Step struct {
	ID           string   `yaml:"id" json:"id"`
	Input        string   `yaml:"input" json:"input"`
	Sheets       []string `yaml:"sheets,omitempty" json:"sheets,omitempty"`
	Format       string   `yaml:"format,omitempty" json:"format,omitempty"`
	Template     string   `yaml:"template,omitempty" json:"template,omitempty"`
	TemplateFile string   `yaml:"template_file,omitempty" json:"templateFile,omitempty"`
	Placeholder  string   `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Summary      *bool    `yaml:"summary,omitempty" json:"summary,omitempty"`
	ChunkSize    int      `yaml:"chunk_size,omitempty" json:"chunkSize,omitempty"`
	Output       string   `yaml:"output,omitempty" json:"output,omitempty"`
	OnFailure    string   `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// LoadJob reads and parses a job YAML file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job file not found: %s (check that the path is correct)", path)
		}
		return nil, fmt.Errorf("could not read job file %s: %w", path, err)
	}

	job, err := ParseJob(data)
	if err != nil {
		return nil, err
	}
	job.Dir = filepath.Dir(path)
	return job, nil
}

// ParseJob parses a job from YAML bytes.
func ParseJob(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("invalid job YAML: %w", err)
	}

	if err := validateJob(&j); err != nil {
		return nil, err
	}

	return &j, nil
}

func validateJob(j *Job) error {
	if j.Name == "" {
		return fmt.Errorf("job is missing a 'name' field")
	}

	if len(j.Steps) == 0 {
		return fmt.Errorf("job %q has no steps defined", j.Name)
	}

	seen := make(map[string]bool)
	for i, step := range j.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d is missing an 'id' field", i+1)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step ID %q: each step must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Input == "" {
			return fmt.Errorf("step %q is missing an 'input' field", step.ID)
		}
		if step.Format != "" {
			if _, err := convert.ParseFormat(step.Format); err != nil {
				return fmt.Errorf("step %q: %w", step.ID, err)
			}
		}
		if step.ChunkSize < 0 {
			return fmt.Errorf("step %q: chunk_size must not be negative", step.ID)
		}
		switch step.OnFailure {
		case "", "fail", "skip":
		default:
			return fmt.Errorf("step %q: on_failure must be 'fail' or 'skip', got %q", step.ID, step.OnFailure)
		}
		if step.Template != "" && step.TemplateFile != "" {
			return fmt.Errorf("step %q: set either 'template' or 'template_file', not both", step.ID)
		}
	}

	return nil
}
