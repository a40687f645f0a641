package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/interp"
	"github.com/ecorun/ecolang/pkg/source"
)

const (
	historyFile = ".ecolang_history"
	promptMain  = "eco> "
	promptCont  = "...> "
	banner      = "EcoLang REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands."
	replHelp    = `
REPL commands:
  :help            Show this help
  :quit / :exit    Exit the REPL
  :load <file>     Run a file
  :eco             Toggle the eco summary after each run
Each submission runs as a complete, isolated program.
`
)

func cmdRepl(args []string) int {
	configPath := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			i++
			configPath = args[i]
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %s\n", err)
		return 1
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	showEco := false
	opts := []interp.Option{
		interp.WithLimits(cfg.Limits),
		interp.WithParams(cfg.Params),
	}

	for {
		code, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			done := false
			switch fields := strings.Fields(trimmed); fields[0] {
			case ":help":
				fmt.Print(replHelp)
			case ":quit", ":exit":
				done = true
			case ":eco":
				showEco = !showEco
				fmt.Printf("eco summary %s\n", onOff(showEco))
			case ":load":
				if len(fields) < 2 {
					fmt.Println("usage: :load <file>")
					break
				}
				src, err := os.ReadFile(fields[1])
				if err != nil {
					fmt.Printf("cannot read %s: %v\n", fields[1], err)
					break
				}
				printResult(interp.Run(string(src), nil, opts...), showEco)
				ln.AppendHistory(trimmed)
			default:
				fmt.Println("unknown command. Type :help for help.")
			}
			if done {
				break
			}
			continue
		}

		printResult(interp.Run(code, nil, opts...), showEco)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readProgram accumulates lines until every opened block has a matching
// end, so multi-line statements can be typed naturally.
func readProgram(ln *liner.State) (string, bool) {
	var buf []string
	depth := 0

	for {
		prompt := promptMain
		if len(buf) > 0 {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", true
		}
		if err != nil {
			return "", false
		}

		buf = append(buf, line)

		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			switch kind := source.Classify(trimmed); {
			case kind == source.KindEnd:
				depth--
			case kind.OpensBlock():
				depth++
			}
		}

		if depth <= 0 {
			return strings.Join(buf, "\n"), true
		}
	}
}

func printResult(res interp.Result, showEco bool) {
	if res.Output != "" {
		fmt.Print(res.Output)
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if res.Err != nil {
		fmt.Println(diag.Format(*res.Err, true))
		return
	}
	if showEco && res.Eco != nil {
		fmt.Printf("eco: %d ops, %.6g J, %.6g g CO2\n",
			res.Eco.TotalOps, res.Eco.EnergyJ, res.Eco.CO2G)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
