package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExpandSortsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xlsx"))
	touch(t, filepath.Join(dir, "a.xlsx"))

	files, err := expand([]string{filepath.Join(dir, "*.xlsx"), filepath.Join(dir, "a.xlsx")})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.xlsx" || filepath.Base(files[1]) != "b.xlsx" {
		t.Errorf("unexpected files %v", files)
	}
}

func TestExpandRejectsSameBaseName(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "east", "sales.xlsx"))
	touch(t, filepath.Join(dir, "west", "sales.xlsx"))

	_, err := expand([]string{filepath.Join(dir, "*", "sales.xlsx")})
	if err == nil {
		t.Fatal("expected an error for workbooks sharing a base name")
	}
	if !strings.Contains(err.Error(), `"sales"`) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestExpandRejectsSameBaseAcrossExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "q3.xlsx"))
	touch(t, filepath.Join(dir, "q3.xlsm"))

	if _, err := expand([]string{filepath.Join(dir, "q3.*")}); err == nil {
		t.Error("expected an error for q3.xlsx and q3.xlsm")
	}
}

func TestExpandNoMatches(t *testing.T) {
	if _, err := expand([]string{filepath.Join(t.TempDir(), "*.xlsx")}); err == nil {
		t.Error("expected an error when nothing matches")
	}
}
