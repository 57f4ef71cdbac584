package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/pipeline"
	"github.com/klytics/xlprompt/internal/prompt"
)

// Flags are the conversion flags shared by convert, batch and watch.
// Unset flags fall back to the configuration file.
type Flags struct {
	Sheets       []string
	Format       string
	Template     string
	TemplateFile string
	TemplateName string
	Placeholder  string
	Summary      bool
	ChunkSize    int
}

// Register adds the conversion flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.Sheets, "sheet", "s", nil, "Sheet to include (repeatable, default: all sheets)")
	fl.StringVarP(&f.Format, "format", "f", "", "Output format: csv | json | markdown (default from config)")
	fl.StringVarP(&f.Template, "template", "t", "", "Prompt template text containing the placeholder")
	fl.StringVar(&f.TemplateFile, "template-file", "", "Read the prompt template from a file")
	fl.StringVar(&f.TemplateName, "template-name", "", "Use a template from the template library")
	fl.StringVar(&f.Placeholder, "placeholder", "", "Placeholder token replaced with the data (default [formatted_data])")
	fl.BoolVar(&f.Summary, "summary", false, "Prefix the data with a statistical summary")
	fl.IntVar(&f.ChunkSize, "chunk-size", 0, "Split every sheet into chunks of at most N rows")
}

// Options resolves the flags against configuration into pipeline options.
func (f *Flags) Options(cmd *cobra.Command) (pipeline.Options, error) {
	fl := cmd.Flags()
	opts := pipeline.Options{
		Sheets:         f.Sheets,
		Format:         viper.GetString("format"),
		IncludeSummary: viper.GetBool("include_summary"),
		MaxRows:        viper.GetInt("chunk_size"),
	}
	if fl.Changed("format") {
		opts.Format = f.Format
	}
	if fl.Changed("summary") {
		opts.IncludeSummary = f.Summary
	}
	if fl.Changed("chunk-size") {
		if f.ChunkSize <= 0 {
			return opts, errs.New(errs.InvalidChunkSize, "--chunk-size must be positive, got %d", f.ChunkSize)
		}
		opts.MaxRows = f.ChunkSize
	}

	token := viper.GetString("placeholder")
	if fl.Changed("placeholder") {
		token = f.Placeholder
	}

	tmpl, err := f.template(token)
	if err != nil {
		return opts, err
	}
	opts.Template = tmpl
	return opts, nil
}

func (f *Flags) template(token string) (prompt.Template, error) {
	set := 0
	for _, v := range []string{f.Template, f.TemplateFile, f.TemplateName} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return prompt.Template{}, fmt.Errorf("use only one of --template, --template-file and --template-name")
	}

	switch {
	case f.TemplateFile != "":
		return prompt.LoadFile(f.TemplateFile, token)
	case f.TemplateName != "":
		lib, err := prompt.LoadLibrary(viper.GetString("templates_dir"))
		if err != nil {
			return prompt.Template{}, err
		}
		e, err := lib.Get(f.TemplateName)
		if err != nil {
			return prompt.Template{}, err
		}
		return prompt.Template{Text: e.Text, Token: token}, nil
	case f.Template != "":
		return prompt.Template{Text: f.Template, Token: token}, nil
	}
	return prompt.Template{Text: viper.GetString("template"), Token: token}, nil
}

// Source opens arg as a workbook source; "-" reads the workbook from in.
func Source(arg string, in io.Reader) (xlsx.Source, error) {
	if arg != "-" {
		return xlsx.Path(arg), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("could not read stdin: %w", err)
	}
	return xlsx.Bytes(data), nil
}

// BaseName is the output name derived from a workbook argument.
func BaseName(arg string) string {
	if arg == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
}

// FileSize reports the size of a workbook on disk, or -1 for stdin and
// unreadable paths.
func FileSize(arg string) int64 {
	if arg == "-" {
		return -1
	}
	info, err := os.Stat(arg)
	if err != nil {
		return -1
	}
	return info.Size()
}
