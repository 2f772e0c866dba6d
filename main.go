package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/axe-run/axe-interpreter/config"
	"github.com/axe-run/axe-interpreter/display"
	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/parser"
	"github.com/axe-run/axe-interpreter/repl"
	"github.com/axe-run/axe-interpreter/vm"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		testStage   = flag.String("test", "interpreter", "Stage to exercise on the input: lexer, parser, or interpreter")
		configPath  = flag.String("config", "", "Path to a config.toml (default: platform config dir)")
		keysPath    = flag.String("keys", "", "Path to a key-bindings file (default: built-in bindings)")
	)
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.StringVar(testStage, "t", "interpreter", "Stage to exercise: lexer, parser, or interpreter (shorthand)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Axe Interpreter %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	bindings, err := loadBindings(*keysPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keymap: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		runREPL(cfg, bindings)
		return
	}

	inputPath := flag.Arg(0)
	source, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified program path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", inputPath)
		os.Exit(1)
	}

	switch *testStage {
	case "lexer":
		os.Exit(runLexerStage(string(source), inputPath))
	case "parser":
		os.Exit(runParserStage(string(source), inputPath))
	default:
		os.Exit(runInterpreterStage(string(source), inputPath, cfg, bindings))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func loadBindings(path string, cfg *config.Config) (*keymap.Bindings, error) {
	if path == "" {
		path = cfg.Keys.BindingsFile
	}
	if path == "" {
		return keymap.Default(), nil
	}
	return keymap.Load(path)
}

// runLexerStage tokenizes source and prints each token, one per line,
// the `-t lexer` diagnostic dump.
func runLexerStage(source, filename string) int {
	lexer := parser.NewLexer(source, filename)
	for _, tok := range lexer.TokenizeAll() {
		fmt.Printf("%-14s %q  (line %d, col %d)\n", tok.Type, tok.Literal, tok.Pos.Line, tok.Pos.Column)
	}
	if lexer.Errors().HasErrors() {
		fmt.Fprintln(os.Stderr, lexer.Errors())
		return 1
	}
	return 0
}

// runParserStage parses source and prints the flattened label table
// and statement count, the `-t parser` diagnostic dump.
func runParserStage(source, filename string) int {
	p := parser.NewParser(source, filename)
	program, err := p.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Parsed %d top-level statements\n", len(program.Statements))

	code := vm.Flatten(program)
	fmt.Printf("Flattened to %d steps, %d labels\n", len(code.Steps), len(code.Labels))
	for name, idx := range code.Labels {
		fmt.Printf("  %s -> step %d\n", name, idx)
	}
	return 0
}

// runInterpreterStage lexes, parses, flattens, and runs source against
// a terminal Display, the default `-t interpreter` stage.
func runInterpreterStage(source, filename string, cfg *config.Config, bindings *keymap.Bindings) int {
	p := parser.NewParser(source, filename)
	program, err := p.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	code := vm.Flatten(program)

	d, err := display.NewTcellDisplay(bindings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "display: %v\n", err)
		return 1
	}
	defer d.Close()
	d.SetTitle(cfg.Display.Title)

	calc := vm.NewCalculator(d, bindings)
	driver := vm.NewDriver(code, calc, cfg.Display.Scale)
	driver.PauseRatio = cfg.Execution.PauseRatio
	driver.Diagnostic = cfg.Trace.Diagnostic

	runErr := driver.Run()
	if runErr == nil {
		return 0
	}

	var exit *vm.SystemExit
	if ok := asSystemExit(runErr, &exit); ok {
		return exit.Code
	}

	fmt.Fprintln(os.Stderr, runErr)
	return 1
}

func asSystemExit(err error, target **vm.SystemExit) bool {
	se, ok := err.(*vm.SystemExit)
	if !ok {
		return false
	}
	*target = se
	return true
}

// runREPL starts the interactive session, reading program submissions
// from stdin (a blank line ends one submission) until stdin closes.
func runREPL(cfg *config.Config, bindings *keymap.Bindings) {
	fmt.Println("Axe Interpreter REPL - enter a program, blank line to run, Ctrl-D to quit")

	reader := repl.NewReader(os.Stdin)
	session := repl.NewSession(cfg, bindings, os.Stdout)

	newDisplay := func() (display.Display, error) {
		return display.NewTcellDisplay(bindings)
	}

	if err := session.Run(reader, newDisplay); err != nil {
		var exit *vm.SystemExit
		if asSystemExit(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
