//go:build ignore

// This program generates the sample workbook used for manual runs of xlprompt.
package main

import (
	"fmt"
	"os"

	"github.com/klytics/xlprompt/internal/formats/xlsx"
)

func main() {
	if err := generateXlsx(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

func generateXlsx() error {
	wb := &xlsx.Workbook{
		Sheets: []xlsx.Sheet{
			{
				Name: "Employees",
				Rows: [][]string{
					{"Name", "Age", "City", "Salary"},
					{"Alice", "30", "New York", "85000"},
					{"Bob", "25", "", "62000.5"},
					{"Carol", "41", "Boston", "91000"},
					{"Dan", "35", "Denver", "70000"},
				},
			},
			{
				Name: "Revenue",
				Rows: [][]string{
					{"Quarter", "Product", "Revenue", "Growth"},
					{"Q1 2024", "Enterprise", "1250000", "12%"},
					{"Q1 2024", "SMB", "450000", "8%"},
					{"Q2 2024", "Enterprise", "1380000", "10%"},
					{"Q2 2024", "SMB", "520000", "16%"},
					{"Q3 2024", "Enterprise", "1450000", "5%"},
					{"Q3 2024", "SMB", "580000", "12%"},
					{"Q4 2024", "Enterprise", "1620000", "12%"},
					{"Q4 2024", "SMB", "640000", "10%"},
				},
			},
			{Name: "Notes"},
		},
	}

	return xlsx.WriteFile(wb, "testdata/sample.xlsx")
}
