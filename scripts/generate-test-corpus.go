//go:build ignore

// Package main generates a synthetic corpus of plain-text lab reports
// for indexing benchmarks.
// Usage: go run scripts/generate-test-corpus.go -reports 100 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numReports = flag.Int("reports", 100, "Number of reports to generate")
	paragraphs = flag.Int("paragraphs", 40, "Paragraphs per report")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var analytes = []string{
	"Hemoglobin", "Hematocrit", "White blood cells", "Platelets",
	"Glucose", "Creatinine", "Total cholesterol", "HDL cholesterol",
	"LDL cholesterol", "Triglycerides", "ALT", "AST", "TSH",
	"Vitamin D", "Ferritin", "Sodium", "Potassium", "Calcium",
}

var units = []string{
	"g/dL", "%", "x10^3/uL", "mg/dL", "mmol/L", "U/L", "ng/mL", "uIU/mL",
}

var assessments = []string{
	"within the reference range",
	"slightly above the reference range",
	"slightly below the reference range",
	"markedly elevated and should be rechecked",
	"stable compared to the previous result",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *numReports; i++ {
		path := filepath.Join(*outputDir, fmt.Sprintf("report-%04d.txt", i))
		if err := os.WriteFile(path, []byte(generateReport(rng)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d reports in %s\n", *numReports, *outputDir)
}

func generateReport(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("LABORATORY REPORT\n\n")

	for p := 0; p < *paragraphs; p++ {
		analyte := analytes[rng.Intn(len(analytes))]
		unit := units[rng.Intn(len(units))]
		value := float64(rng.Intn(2000)) / 10.0
		assessment := assessments[rng.Intn(len(assessments))]

		fmt.Fprintf(&b, "%s measured at %.1f %s, which is %s. ", analyte, value, unit, assessment)
		fmt.Fprintf(&b, "The result was obtained from a fasting sample and verified by repeat analysis. ")
		fmt.Fprintf(&b, "Clinical correlation is recommended if symptoms persist.\n\n")
	}

	return b.String()
}
