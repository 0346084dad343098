// Command armc compiles robot-arm control programs into controller images.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strager/armc"
	"github.com/strager/armc/vm"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `armc - compiler for the robot-arm control language

Usage:
    armc <command> [arguments]

Commands:
    build <file>    Compile a program to a controller image
    check <file>    Parse and analyse a program
    asm <file>      Print the assembly listing of a program
    disasm <image>  Decode and list a controller image
    run <file>      Compile a program and run it on the simulator
    eval <code>     Run statements as the body of main
    help            Show this help message

Examples:
    armc build -o arm.byte -debug pick.arm
    armc run pick.arm
    armc eval 'print(6 * 7);'

Use "armc <command> -h" for more information about a command.
`)
}

// newFlagSet builds the flag set of one subcommand.
func newFlagSet(name, args, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: armc %s %s\n", name, args)
		fmt.Fprintf(os.Stderr, "%s\n\n", summary)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// oneArg parses args and returns the single positional argument.
func oneArg(fs *flag.FlagSet, args []string, what string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one %s argument\n", what)
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func readSource(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func compile(source string, opts armc.Options, verbose bool) *armc.Result {
	result, err := armc.Compile(source, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		for _, d := range result.Diagnostics {
			fmt.Println(d)
		}
	}
	return result
}

func printUsage(u armc.Usage) {
	fmt.Printf("Flash:    %6d bytes\n", u.Flash)
	fmt.Printf("Program:  %6d bytes\n", u.Program)
	fmt.Printf("Constant: %6d bytes\n", u.Constant)
	fmt.Printf("Global:   %6d bytes\n", u.Global)
	fmt.Printf("Stack:    %6d bytes\n", u.Stack)
	fmt.Printf("Memory:   %6d bytes\n", u.Memory())
}

func writeFile(name string, data []byte) {
	if err := os.WriteFile(name, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
		os.Exit(1)
	}
}

func buildCommand(args []string) {
	fs := newFlagSet("build", "[-o output] [-v] [-asm] [-debug] [-mem bytes] <file>", "Compile a program to a controller image")
	output := fs.String("o", "", "Output file path (default: <filename>.byte)")
	verbose := fs.Bool("v", false, "Show hints and memory usage")
	listing := fs.Bool("asm", false, "Also write the assembly listing next to the output")
	debug := fs.Bool("debug", false, "Also write debug_info.json next to the output")
	memory := fs.Int("mem", 0, "Reject images needing more than this many bytes of device memory")
	filename := oneArg(fs, args, "file")

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".byte"
	}
	if *verbose {
		fmt.Printf("Compiling %s to %s...\n", filename, outputFile)
	}

	result := compile(readSource(filename), armc.Options{DeviceMemory: *memory}, *verbose)
	writeFile(outputFile, result.Image)
	base := strings.TrimSuffix(outputFile, filepath.Ext(outputFile))
	if *listing {
		writeFile(base+".asm", []byte(result.Unit.String()))
	}
	if *debug {
		info, err := result.Debug.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding debug info: %v\n", err)
			os.Exit(1)
		}
		writeFile(filepath.Join(filepath.Dir(outputFile), "debug_info.json"), info)
	}

	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(result.Image))
	if *verbose {
		printUsage(result.Usage)
	}
}

func checkCommand(args []string) {
	fs := newFlagSet("check", "[-v] <file>", "Parse and analyse a program")
	verbose := fs.Bool("v", false, "Print the checked syntax tree")
	filename := oneArg(fs, args, "file")

	toks, err := armc.Tokenize(readSource(filename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lexing errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}
	prog, syms, err := armc.Parse(toks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parsing errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}
	diags, err := armc.Examine(prog, syms)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}
	for _, d := range diags {
		fmt.Println(d)
	}
	fmt.Printf("%s: no errors found\n", filename)
	if *verbose {
		fmt.Printf("AST: %s\n", armc.ToSExpr(prog))
	}
}

func asmCommand(args []string) {
	fs := newFlagSet("asm", "<file>", "Print the assembly listing of a program")
	filename := oneArg(fs, args, "file")
	result := compile(readSource(filename), armc.Options{}, false)
	fmt.Print(result.Unit.String())
}

func disasmCommand(args []string) {
	fs := newFlagSet("disasm", "<image>", "Decode and list a controller image")
	filename := oneArg(fs, args, "image")

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	img, err := vm.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", filename, err)
		os.Exit(1)
	}
	if err := vm.CheckLimits(img); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	text, err := vm.Listing(img)
	fmt.Print(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs a compiled image, printing program output as it happens
// and the robot commands afterwards.
func execute(result *armc.Result, steps int, verbose bool) {
	img, err := vm.Decode(result.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding image: %v\n", err)
		os.Exit(1)
	}
	robot := &vm.Recorder{Out: os.Stdout}
	m := vm.New(img, robot)
	runErr := m.Run(steps)
	for _, line := range robot.Log {
		if !strings.HasPrefix(line, "print ") {
			fmt.Printf("robot: %s\n", line)
		}
	}
	if verbose {
		fmt.Printf("Executed %d instructions\n", m.Steps)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Execution failed: %v\n", runErr)
		os.Exit(1)
	}
}

func runCommand(args []string) {
	fs := newFlagSet("run", "[-v] [-steps n] <file>", "Compile a program and run it on the simulator")
	verbose := fs.Bool("v", false, "Show hints and the instruction count")
	steps := fs.Int("steps", 1000000, "Stop after this many instructions (0 = no limit)")
	filename := oneArg(fs, args, "file")

	if *verbose {
		fmt.Printf("Compiling %s...\n", filename)
	}
	result := compile(readSource(filename), armc.Options{}, *verbose)
	execute(result, *steps, *verbose)
}

func evalCommand(args []string) {
	fs := newFlagSet("eval", "[-v] <code>", "Run statements as the body of main")
	verbose := fs.Bool("v", false, "Show hints and the instruction count")
	steps := fs.Int("steps", 1000000, "Stop after this many instructions (0 = no limit)")
	code := oneArg(fs, args, "code")

	if *verbose {
		fmt.Printf("Evaluating: %s\n", code)
	}
	result := compile("fn main() {\n"+code+"\n}\n", armc.Options{}, *verbose)
	execute(result, *steps, *verbose)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "asm":
		asmCommand(args)
	case "disasm":
		disasmCommand(args)
	case "run":
		runCommand(args)
	case "eval":
		evalCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
