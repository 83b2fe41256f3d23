// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
	"venomc/internal/ast"
	"venomc/internal/ir"
	"venomc/internal/ir/passes"
	"venomc/internal/lowering"
	"venomc/internal/parser"
	"venomc/internal/semantic"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: kanso <file.ka>")
		fmt.Println("       kanso -venom <file.ka>  # lower to venom IR, optimize, print assembly")
		os.Exit(1)
	}

	venom := os.Args[1] == "-venom"
	pathIndex := 1
	if venom {
		pathIndex = 2
	}
	if len(os.Args) <= pathIndex {
		fmt.Println("Usage: kanso -venom <file.ka>")
		os.Exit(1)
	}
	path := os.Args[pathIndex]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Errorf("failed to read file: %w", err)
		os.Exit(1)
	}

	contract, err := parser.ParseSource(path, string(source))
	if err != nil {
		reportParseError(string(source), err)
		os.Exit(1)
	}

	if venom {
		runVenomPipeline(contract, path)
		return
	}

	fmt.Println(contract.String())

	color.Green("✅ Successfully processed %s", path)
}

// runVenomPipeline carries a parsed contract through semantic analysis,
// lowering to venom IR, SSA construction and the standard optimization
// pipeline (passes.Pipeline.Run runs ir.MakeSSA over every function before
// any pass, per spec.md §4.8/§4.9), a final ir.FreshenVarnames pass for
// deterministic output, and finally assembly emission — an end-to-end
// demonstration of the lower→normalize→optimize→print/assemble path this
// compiler core exists to run.
func runVenomPipeline(contract *ast.Contract, path string) {
	analyzer := semantic.NewAnalyzer()
	if semErrs := analyzer.Analyze(contract); len(semErrs) > 0 {
		for _, e := range semErrs {
			color.Red("semantic error: %s", e.Message)
		}
		os.Exit(1)
	}

	ctx, err := lowering.Lower(contract, analyzer.ContextRegistry())
	if err != nil {
		color.Red("lowering failed: %s", err)
		os.Exit(1)
	}

	pipeline := passes.NewPipeline()
	pipeline.Silent = true
	if err := pipeline.Run(ctx); err != nil {
		color.Red("optimization failed: %s", err)
		os.Exit(1)
	}

	for _, fn := range ctx.Functions {
		ir.FreshenVarnames(fn)
	}

	fmt.Println("Optimized venom IR:")
	fmt.Println(ir.PrintContext(ctx))

	spiller := ir.NewStackSpiller(ctx, nil)
	asms, err := ir.Compile(ctx, spiller)
	if err != nil {
		color.Red("assembly emission failed: %s", err)
		os.Exit(1)
	}

	for _, fn := range ctx.Functions {
		fmt.Printf("Assembly for %s:\n", fn.Name)
		fmt.Println(asms[fn.Name].String())
	}

	color.Green("✅ Successfully compiled %s to venom assembly", path)
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
