// Package output provides formatting utilities for CLI output.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Divider separates segments when they are printed to a terminal.
const Divider = "\n----------------------------------------\n"

// SegmentPath returns the file name for the n-th (1-based) segment of base.
func SegmentPath(dir, base, ext string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
}

// WriteSegments writes each segment to its own numbered file in dir and
// returns the paths in segment order.
func WriteSegments(dir, base, ext string, segments []string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(segments))
	for i, seg := range segments {
		path := SegmentPath(dir, base, ext, i+1)
		if err := os.WriteFile(path, []byte(seg), 0644); err != nil {
			return paths, fmt.Errorf("could not write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteText writes text to path, creating parent directories as needed.
func WriteText(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// JoinSegments joins segments with Divider for terminal display.
func JoinSegments(segments []string) string {
	return strings.Join(segments, Divider)
}

// SplitOutputPath splits an output path such as out/report.txt into its
// directory, base name and extension. A path without an extension gets def.
func SplitOutputPath(path, def string) (dir, base, ext string) {
	dir = filepath.Dir(path)
	name := filepath.Base(path)
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = def
	}
	return dir, base, ext
}
