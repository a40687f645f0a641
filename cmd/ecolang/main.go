// Command ecolang is the EcoLang CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecorun/ecolang/pkg/config"
	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/format"
	"github.com/ecorun/ecolang/pkg/interp"
	"github.com/ecorun/ecolang/pkg/value"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ecolang <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, check, fmt, repl")
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "help", "--help", "-h":
		fmt.Println("usage: ecolang <command> [options]")
		fmt.Println("commands:")
		fmt.Println("  run <file>   execute a program and print the JSON result")
		fmt.Println("  check <file> validate a program without executing it")
		fmt.Println("  fmt <file>   re-indent a program")
		fmt.Println("  repl         interactive session")
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

func cmdRun(args []string) int {
	var file string
	pretty := false
	traceEnabled := false
	inputsArg := ""
	configPath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--trace":
			traceEnabled = true
		case "--inputs":
			if i+1 < len(args) {
				i++
				inputsArg = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: ecolang run <file> [--inputs <json>] [--config <path>] [--pretty] [--trace]")
		return 1
	}

	src, exitCode := readSource(file)
	if exitCode != 0 {
		return exitCode
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %s\n", err)
		return 1
	}

	inputs, err := parseInputs(inputsArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing inputs: %s\n", err)
		return 1
	}

	opts := []interp.Option{
		interp.WithLimits(cfg.Limits),
		interp.WithParams(cfg.Params),
	}
	if traceEnabled {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.TraceLevel).
			With().Timestamp().Logger()
		opts = append(opts, interp.WithTrace(func(ev interp.TraceEvent) {
			logger.Trace().
				Str("kind", ev.Kind).
				Int("line", ev.Line).
				Str("detail", ev.Detail).
				Msg("exec")
		}))
	}

	res := interp.Run(src, inputs, opts...)

	if pretty {
		printPretty(res)
	} else {
		b, err := json.Marshal(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error serializing result: %s\n", err)
			return 1
		}
		fmt.Println(string(b))
	}

	return exitCodeFor(res.Err)
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: ecolang check <file> [--pretty]")
		return 1
	}

	src, exitCode := readSource(file)
	if exitCode != 0 {
		return exitCode
	}

	diags := interp.Check(src)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diag.FormatAll(diags, pretty))
		return 2
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: ecolang fmt <file> [--write]")
		return 1
	}

	if write && file == "-" {
		fmt.Fprintln(os.Stderr, "error: --write requires a file path")
		return 1
	}

	src, exitCode := readSource(file)
	if exitCode != 0 {
		return exitCode
	}

	formatted := format.Format(src)

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return 1
		}
		return 0
	}
	fmt.Print(formatted)
	return 0
}

// loadConfig loads an explicit config file, or discovers one from the
// working directory when no path is given.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.Discover(cwd), nil
}

// parseInputs decodes the --inputs argument: inline JSON, or @path to
// read a JSON file.
func parseInputs(arg string) (map[string]value.Value, error) {
	if arg == "" {
		return nil, nil
	}
	data := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		data = b
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("inputs must be a JSON object: %w", err)
	}
	return value.FromInputs(raw), nil
}

func printPretty(res interp.Result) {
	if res.Output != "" {
		fmt.Print(res.Output)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if res.Err != nil {
		fmt.Fprintln(os.Stderr, diag.Format(*res.Err, true))
		return
	}
	if res.Eco != nil {
		fmt.Fprintf(os.Stderr, "eco: %d ops, %.6g J, %.6g g CO2 (%dms)\n",
			res.Eco.TotalOps, res.Eco.EnergyJ, res.Eco.CO2G, res.DurationMS)
		for _, tip := range res.Eco.Tips {
			fmt.Fprintf(os.Stderr, "tip: %s\n", tip)
		}
	}
}

func readSource(file string) (string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", 1
		}
		return string(data), 0
	}

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read file: %s\n", file)
		return "", 1
	}
	return string(data), 0
}

func exitCodeFor(d *diag.Diagnostic) int {
	if d == nil {
		return 0
	}
	switch {
	case d.Code == diag.SyntaxError:
		return 2
	case d.IsResource():
		return 3
	default:
		return 4
	}
}
