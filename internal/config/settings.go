package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/internal/formats/convert"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Wizard asks for the conversion defaults and saves them.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader, out io.Writer) error {
	if reader == nil {
		reader = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(reader)
	ask := func(question, def string) string {
		fmt.Fprintf(out, "  %s [%s]: ", question, def)
		if !scanner.Scan() {
			return def
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			return answer
		}
		return def
	}

	fmt.Fprintln(out, "xlprompt setup")
	fmt.Fprintln(out, strings.Repeat("-", 48))

	format := ask("Default format (csv, json, markdown)", viper.GetString("format"))
	f, err := convert.ParseFormat(format)
	if err != nil {
		return err
	}
	viper.Set("format", string(f))

	summary := ask("Include a data summary? (y/n)", yesNo(viper.GetBool("include_summary")))
	viper.Set("include_summary", strings.HasPrefix(strings.ToLower(summary), "y"))

	chunk := ask("Rows per chunk (0 disables chunking)", strconv.Itoa(viper.GetInt("chunk_size")))
	n, err := strconv.Atoi(chunk)
	if err != nil || n < 0 {
		return fmt.Errorf("chunk size must be a non-negative integer, got %q", chunk)
	}
	viper.Set("chunk_size", n)

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", ConfigPath())
	fmt.Fprintln(out, "Type 'xlprompt config show' to see all settings.")
	return nil
}

// WizardNonInteractive writes the defaults to the config file.
func WizardNonInteractive() error {
	for key, v := range defaults() {
		viper.Set(key, v)
	}
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if _, err := convert.ParseFormat(viper.GetString("format")); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "format",
			Severity: "error",
			Message:  err.Error(),
			Fix:      "xlprompt config set format csv",
		})
	}

	if n := viper.GetInt("chunk_size"); n < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "chunk_size",
			Severity: "error",
			Message:  fmt.Sprintf("chunk_size must not be negative, got %d", n),
			Fix:      "xlprompt config set chunk_size 0",
		})
	}

	placeholder := viper.GetString("placeholder")
	if placeholder == "" {
		issues = append(issues, ConfigIssue{
			Key:      "placeholder",
			Severity: "error",
			Message:  "placeholder is empty",
			Fix:      "xlprompt config reset",
		})
	}

	if tmpl := viper.GetString("template"); tmpl != "" && placeholder != "" && !strings.Contains(tmpl, placeholder) {
		issues = append(issues, ConfigIssue{
			Key:      "template",
			Severity: "warning",
			Message:  fmt.Sprintf("template does not contain %s; converted data will be dropped", placeholder),
		})
	}

	if dir := viper.GetString("templates_dir"); dir != "" {
		if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
			issues = append(issues, ConfigIssue{
				Key:      "templates_dir",
				Severity: "error",
				Message:  fmt.Sprintf("%s is not a directory", dir),
			})
		}
	}

	return issues
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys {
		if v := viper.GetString(key); v != "" {
			env["XLPROMPT_"+strings.ToUpper(envKeyReplacer.Replace(key))] = v
		}
	}
	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !known(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}

	var v any = value
	switch key {
	case "format":
		f, err := convert.ParseFormat(value)
		if err != nil {
			return err
		}
		v = string(f)
	case "chunk_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("chunk_size must be a non-negative integer, got %q", value)
		}
		v = n
	case "include_summary", "output.color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		v = b
	}

	viper.Set(key, v)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for key, v := range defaults() {
		viper.Set(key, v)
	}
	return nil
}

// SaveConfig writes the current config to ~/.xlprompt/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Conversion\n")
	sb.WriteString(fmt.Sprintf("  format:          %s\n", viper.GetString("format")))
	sb.WriteString(fmt.Sprintf("  include_summary: %t\n", viper.GetBool("include_summary")))
	sb.WriteString(fmt.Sprintf("  chunk_size:      %d\n", viper.GetInt("chunk_size")))
	sb.WriteString("\n")

	sb.WriteString("Templates\n")
	sb.WriteString(fmt.Sprintf("  placeholder:     %s\n", viper.GetString("placeholder")))
	if tmpl := viper.GetString("template"); tmpl != "" {
		sb.WriteString(fmt.Sprintf("  template:        %s\n", truncate(tmpl, 60)))
	}
	sb.WriteString(fmt.Sprintf("  templates_dir:   %s\n", viper.GetString("templates_dir")))
	sb.WriteString("\n")

	sb.WriteString("Output\n")
	sb.WriteString(fmt.Sprintf("  color:           %t\n", viper.GetBool("output.color")))

	return sb.String()
}

func known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
