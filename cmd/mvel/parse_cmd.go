package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the syntax tree of an expression",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := getCode(cmd, args)
		if err != nil {
			return err
		}
		prog, err := parser.Parse(context.Background(), code)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatProgram(prog))
		return nil
	},
}

func init() {
	parseCmd.Flags().StringP("code", "c", "", "Expression to parse")
	parseCmd.Flags().Bool("stdin", false, "Read the expression from stdin")
}

// formatProgram prints one line per statement: its node type, position and
// canonical form.
func formatProgram(prog *ast.Program) string {
	kind := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	var b strings.Builder
	for _, stmt := range prog.Stmts {
		pos := stmt.Pos()
		name := strings.TrimPrefix(fmt.Sprintf("%T", stmt), "*ast.")
		fmt.Fprintf(&b, "%s %s %s\n",
			kind(name),
			dim(fmt.Sprintf("%d:%d", pos.LineNumber(), pos.ColumnNumber())),
			stmt.String())
	}
	return b.String()
}
