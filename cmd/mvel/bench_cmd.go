package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mvel "github.com/mvel/mvel-sub010"
)

// BenchResult holds benchmark statistics.
type BenchResult struct {
	Iterations int        `json:"iterations"`
	Warmup     int        `json:"warmup"`
	TotalNs    int64      `json:"total_ns"`
	OpsPerSec  float64    `json:"ops_per_sec"`
	MinNs      int64      `json:"min_ns"`
	MaxNs      int64      `json:"max_ns"`
	AvgNs      int64      `json:"avg_ns"`
	MedianNs   int64      `json:"median_ns"`
	P99Ns      int64      `json:"p99_ns"`
	Stats      mvel.Stats `json:"stats"`
}

var benchCmd = &cobra.Command{
	Use:   "bench [file]",
	Short: "Benchmark an expression",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := getCode(cmd, args)
		if err != nil {
			return err
		}
		varsText, _ := cmd.Flags().GetString("vars")
		iterations, _ := cmd.Flags().GetInt("iterations")
		warmup, _ := cmd.Flags().GetInt("warmup")
		format, _ := cmd.Flags().GetString("output")
		if iterations <= 0 {
			iterations = 1000
		}
		if warmup < 0 {
			warmup = 0
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		result, err := runBench(engine, code, varsText, warmup, iterations)
		if err != nil {
			return err
		}
		if format == "json" {
			out, err := getOutput(result, "json", !viper.GetBool("no-color") && isTerminalIO())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		printBench(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	f := benchCmd.Flags()
	f.StringP("code", "c", "", "Expression to benchmark")
	f.Bool("stdin", false, "Read the expression from stdin")
	f.String("vars", "", "Variables as a JSON object")
	f.IntP("iterations", "n", 1000, "Number of iterations")
	f.IntP("warmup", "w", 100, "Warmup iterations")
	f.StringP("output", "o", "", "Output format (json|text)")
}

func runBench(engine *mvel.Engine, code, varsText string, warmup, iterations int) (*BenchResult, error) {
	expr, err := engine.Compile(code)
	if err != nil {
		return nil, err
	}
	run := func() (time.Duration, error) {
		vars, err := parseVars(varsText)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		_, err = expr.Eval(context.Background(), nil, vars)
		return time.Since(start), err
	}
	for i := 0; i < warmup; i++ {
		if _, err := run(); err != nil {
			return nil, err
		}
	}
	durations := make([]int64, 0, iterations)
	var total int64
	for i := 0; i < iterations; i++ {
		d, err := run()
		if err != nil {
			return nil, err
		}
		durations = append(durations, d.Nanoseconds())
		total += d.Nanoseconds()
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	result := &BenchResult{
		Iterations: iterations,
		Warmup:     warmup,
		TotalNs:    total,
		MinNs:      durations[0],
		MaxNs:      durations[len(durations)-1],
		AvgNs:      total / int64(iterations),
		MedianNs:   durations[len(durations)/2],
		P99Ns:      durations[len(durations)*99/100],
		Stats:      engine.Stats(),
	}
	if total > 0 {
		result.OpsPerSec = float64(iterations) / (float64(total) / float64(time.Second))
	}
	return result, nil
}

func printBench(w io.Writer, r *BenchResult) {
	label := color.New(color.FgMagenta).SprintFunc()
	value := color.New(color.FgGreen).SprintFunc()
	row := func(name string, v any) {
		fmt.Fprintf(w, "%s %s\n", label(fmt.Sprintf("%-12s", name)), value(v))
	}
	row("Iterations:", r.Iterations)
	row("Warmup:", r.Warmup)
	row("Ops/sec:", fmt.Sprintf("%.0f", r.OpsPerSec))
	row("Avg:", time.Duration(r.AvgNs))
	row("Median:", time.Duration(r.MedianNs))
	row("Min:", time.Duration(r.MinNs))
	row("Max:", time.Duration(r.MaxNs))
	row("P99:", time.Duration(r.P99Ns))
	row("Sites:", r.Stats.Sites)
	row("Compiled:", r.Stats.Live)
	row("Pinned:", r.Stats.Pinned)
	row("Deopts:", r.Stats.Deopts)
}
