package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate an expression",
	Example: `  mvel eval -c "x * 2" --vars '{"x": 21}'
  mvel eval rules.mvel --vars '{"order": {"total": 120}}' --repeat 100 --stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := getCode(cmd, args)
		if err != nil {
			return err
		}
		varsText, _ := cmd.Flags().GetString("vars")
		format, _ := cmd.Flags().GetString("output")
		repeat, _ := cmd.Flags().GetInt("repeat")
		showStats, _ := cmd.Flags().GetBool("stats")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		expr, err := engine.Compile(code)
		if err != nil {
			return err
		}
		if repeat < 1 {
			repeat = 1
		}
		var result any
		for i := 0; i < repeat; i++ {
			// Each run gets a fresh copy so assignments don't accumulate.
			vars, err := parseVars(varsText)
			if err != nil {
				return err
			}
			if result, err = expr.Eval(context.Background(), nil, vars); err != nil {
				return err
			}
		}
		pretty := !viper.GetBool("no-color") && isTerminalIO()
		out, err := getOutput(result, format, pretty)
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		}
		if showStats {
			stats, err := getOutput(engine.Stats(), "json", pretty)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), stats)
		}
		return nil
	},
}

func init() {
	f := evalCmd.Flags()
	f.StringP("code", "c", "", "Expression to evaluate")
	f.Bool("stdin", false, "Read the expression from stdin")
	f.String("vars", "", "Variables as a JSON object")
	f.StringP("output", "o", "", "Output format (json|text)")
	f.IntP("repeat", "n", 1, "Evaluate the expression n times")
	f.Bool("stats", false, "Print tiering statistics to stderr")
	evalCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})
}
