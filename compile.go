// Package armc compiles the robot-arm control language into bytecode
// images for the arm controller's stack machine.
//
// The pipeline runs strictly forward:
//
//	Tokenize -> Parse -> Examine -> Assemble -> Generate
//
// Each stage is exported so tools can stop early. Compile runs them all.
package armc

import "fmt"

// Options tunes a compilation.
type Options struct {
	// DeviceMemory is the controller's RAM in bytes. If non-zero, images
	// whose memory usage exceeds it are rejected.
	DeviceMemory int
}

// Result holds everything one compilation produces.
type Result struct {
	Image       []byte
	Debug       *DebugInfo
	Diagnostics []Diagnostic
	Usage       Usage
	Unit        *Unit
	Program     *Program
}

// Compile runs the whole pipeline over src. The first error aborts it.
func Compile(src string, opts Options) (*Result, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	prog, syms, err := Parse(toks)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	diags, err := Examine(prog, syms)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	unit, err := Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	image, err := Generate(unit)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	usage, err := MeasureUsage(image)
	if err != nil {
		return nil, err
	}
	if opts.DeviceMemory > 0 && !usage.Fits(opts.DeviceMemory) {
		return nil, &CapacityError{Region: "device memory", Size: usage.Memory(), Limit: opts.DeviceMemory}
	}
	return &Result{
		Image:       image,
		Debug:       unit.Debug,
		Diagnostics: diags,
		Usage:       usage,
		Unit:        unit,
		Program:     prog,
	}, nil
}
