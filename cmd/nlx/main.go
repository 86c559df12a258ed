// nlx CLI - the main entry point for running nlx scripts
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/nlx/manifest"
	"github.com/chazu/nlx/pkg/bytecode"
	"github.com/chazu/nlx/server"
	"github.com/chazu/nlx/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	disasm := flag.Bool("disasm", false, "Print disassembled bytecode before running")
	trace := flag.Bool("trace", false, "Trace each executed instruction")
	lspMode := flag.Bool("lsp", false, "Start language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nlx [options] [script.nlx]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the given nlx script, or the entry from nlx.toml if none is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  nlx script.nlx         # Run a script\n")
		fmt.Fprintf(os.Stderr, "  nlx -i                 # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  nlx -disasm script.nlx # Show bytecode, then run\n")
		fmt.Fprintf(os.Stderr, "  nlx --lsp              # Start language server on stdio\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	path := ""
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	// A manifest next to the script (or in any ancestor directory, falling
	// back to the working directory when no script is given) supplies the
	// default entry script and debug settings.
	m, err := manifest.FindAndLoad(manifestStartDir(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m != nil {
		if *verbose {
			fmt.Printf("Using manifest in %s\n", m.Dir)
		}
		*trace = *trace || m.Debug.Trace
		*disasm = *disasm || m.Debug.Disasm
		if path == "" && !*interactive {
			path = m.EntryPath()
		}
	}

	if *interactive || path == "" {
		runREPL(*trace)
		return
	}

	if err := runScript(path, *disasm, *trace); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// manifestStartDir returns where the manifest search begins: the script's
// directory when a script was given, the working directory otherwise.
func manifestStartDir(scriptPath string) string {
	if scriptPath == "" {
		return "."
	}
	return filepath.Dir(scriptPath)
}

// runScript compiles and executes a single script file.
func runScript(path string, disasm, trace bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	proto, diags := bytecode.Compile(string(data))
	if diags.HasErrors() {
		name := filepath.Base(path)
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s: line %d: %s\n", name, d.Kind, d.Line, d.Message)
		}
		return fmt.Errorf("%d errors in %s", len(diags), name)
	}

	if disasm {
		fmt.Print(proto.Disassemble())
	}

	v := vm.NewVM()
	v.Trace = trace
	return v.Interpret(proto)
}

// runREPL starts an interactive read-eval-print loop. Globals persist
// across lines because every line runs on the same VM.
func runREPL(trace bool) {
	fmt.Println("nlx REPL (type 'exit' to quit)")
	fmt.Println()

	v := vm.NewVM()
	v.Trace = trace

	scanner := bufio.NewScanner(os.Stdin)
	lineBuffer := strings.Builder{}

	for {
		if lineBuffer.Len() == 0 {
			fmt.Print(">> ")
		} else {
			fmt.Print(".. ")
		}

		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineBuffer.Len() == 0 && (line == "exit" || line == "quit") {
			break
		}

		if lineBuffer.Len() > 0 {
			lineBuffer.WriteString("\n")
		}
		lineBuffer.WriteString(line)

		input := lineBuffer.String()
		if !balanced(input) {
			// Wait for closing braces or brackets
			continue
		}
		lineBuffer.Reset()

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		evalLine(v, input)
	}

	fmt.Println()
}

// evalLine compiles and executes one REPL input on the shared VM.
func evalLine(v *vm.VM, input string) {
	// A bare expression gets an implicit print and semicolon
	source := input
	if !strings.HasSuffix(source, ";") && !strings.HasSuffix(source, "}") {
		source = "print " + source + ";"
	}

	proto, diags := bytecode.Compile(source)
	if diags.HasErrors() {
		// Retry the original input unchanged in case the implicit
		// print wrapped a statement
		if source != input {
			proto, diags = bytecode.Compile(input + ";")
		}
		if diags.HasErrors() {
			for _, d := range diags {
				fmt.Fprintf(os.Stderr, "%s: %s\n", d.Kind, d.Message)
			}
			return
		}
	}

	if err := v.Interpret(proto); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}

// balanced reports whether braces, brackets and parens are closed,
// ignoring string literals and comments.
func balanced(input string) bool {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"' || ch == '\n':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(input) && input[i+1] == '/' {
				for i < len(input) && input[i] != '\n' {
					i++
				}
			}
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}
	return depth <= 0
}
