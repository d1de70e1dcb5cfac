// routegate-benchcheck compares two `go test -bench` outputs for the guard
// benchmarks and fails when a tracked metric regressed past the threshold.
//
// Usage:
//
//	routegate-benchcheck --baseline old.txt --candidate new.txt [--threshold 0.30]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultThreshold = 0.30

var trackedMetrics = map[string][]string{
	"BenchmarkEvaluateProtected":         {"ns/op", "allocs/op"},
	"BenchmarkEvaluateMissingCredential": {"ns/op", "allocs/op"},
	"BenchmarkEvaluatePublic":            {"ns/op"},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	fs := pflag.NewFlagSet("routegate-benchcheck", pflag.ContinueOnError)
	fs.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	fs.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	fs.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if baselinePath == "" || candidatePath == "" {
		return errors.New("--baseline and --candidate are required")
	}
	if threshold < 0 {
		return errors.New("--threshold must be >= 0")
	}

	baseline, err := parseBenchmarkFile(baselinePath)
	if err != nil {
		return fmt.Errorf("parse baseline: %w", err)
	}
	candidate, err := parseBenchmarkFile(candidatePath)
	if err != nil {
		return fmt.Errorf("parse candidate: %w", err)
	}

	report := compare(baseline, candidate, threshold)
	fmt.Fprintln(out, "benchmark metric baseline candidate delta")
	for _, row := range report.rows {
		fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", row.benchmark, row.metric, row.baseline, row.candidate, row.delta*100)
	}

	if len(report.failures) > 0 {
		return &regressionError{failures: report.failures}
	}
	return nil
}

type regressionError struct {
	failures []string
}

func (e *regressionError) Error() string {
	msg := "performance regression threshold exceeded:"
	for _, f := range e.failures {
		msg += "\n  - " + f
	}
	return msg
}
