package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mvelerrors "github.com/mvel/mvel-sub010/errors"
)

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

// printError prints err with source context when it carries a location.
func printError(err error) {
	fmt.Fprintln(os.Stderr, formatError(err, !viper.GetBool("no-color") && isTerminalIO()))
}

func formatError(err error, useColor bool) string {
	var fe mvelerrors.FormattableError
	if errors.As(err, &fe) {
		return mvelerrors.NewFormatter(useColor).Format(fe.ToFormatted())
	}
	if useColor {
		return red(err.Error())
	}
	return err.Error()
}

func isTerminalIO() bool {
	stdout := os.Stdout.Fd()
	return isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
}

// getCode determines the source to work on: --code, --stdin or a file path
// given as the first argument.
func getCode(cmd *cobra.Command, args []string) (string, error) {
	var codeFlagSet, stdinFlagSet bool
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		codeFlagSet = true
	}
	if f := cmd.Flags().Lookup("stdin"); f != nil && f.Changed {
		stdinFlagSet = true
	}
	pathSupplied := len(args) > 0
	if pathSupplied && (codeFlagSet || stdinFlagSet) {
		return "", errors.New("multiple input sources specified")
	} else if codeFlagSet && stdinFlagSet {
		return "", errors.New("multiple input sources specified")
	}
	switch {
	case stdinFlagSet:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	case codeFlagSet:
		return cmd.Flags().GetString("code")
	}
	return "", errors.New("no input: pass a file, --code or --stdin")
}

// parseVars decodes a JSON object of variables. Numbers that are whole are
// decoded as int.
func parseVars(s string) (map[string]any, error) {
	vars := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return vars, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&vars); err != nil {
		return nil, fmt.Errorf("invalid --vars: %w", err)
	}
	for k, v := range vars {
		vars[k] = normalizeJSON(v)
	}
	return vars, nil
}

func normalizeJSON(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case []any:
		for i := range v {
			v[i] = normalizeJSON(v[i])
		}
	case map[string]any:
		for k := range v {
			v[k] = normalizeJSON(v[k])
		}
	}
	return v
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result any, format string, pretty bool) (string, error) {
	switch strings.ToLower(format) {
	case "":
		// Print nothing for null, JSON when it marshals, else the string form.
		if result == nil {
			return "", nil
		}
		output, err := getOutputJSON(result, pretty)
		if err != nil {
			return fmt.Sprintf("%v", result), nil
		}
		return string(output), nil
	case "json":
		output, err := getOutputJSON(result, pretty)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		return fmt.Sprintf("%v", result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any, pretty bool) ([]byte, error) {
	if !pretty {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}
