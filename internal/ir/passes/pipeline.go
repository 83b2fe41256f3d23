// Package passes implements the venom optimization passes: each pass takes
// a *ir.Function in valid SSA form and returns it in valid SSA form, and
// drops the function's whole AnalysisCache (InvalidateAll) whenever it
// changes anything (spec.md §4.3/§4.9). Pipeline.Run is the
// one place that precondition is actually established: it runs
// ir.MakeSSA over every function before anything else, so a caller that
// hands it flat (non-SSA, possibly multiply-assigned) IR still gets a
// pipeline that behaves per spec.md §4.8/§4.9, not just one that happens
// to work when the input is already in SSA form.
package passes

import (
	"fmt"

	"venomc/internal/ir"
)

// Pass is one optimization pass. Apply reports whether it changed
// anything, which drives Pipeline.Run's per-pass fixed-point loop; a pass
// that changes anything invalidates the function's analysis cache itself.
type Pass interface {
	Name() string
	Description() string
	Apply(fn *ir.Function) (bool, error)
}

// Pipeline runs an ordered list of passes over every function in a
// Context, in the teacher's OptimizationPipeline shape (register passes in
// construction order, Run walks them printing progress), generalized from
// one hard-coded concrete-IR pass list to venom's opcode-generic passes.
type Pipeline struct {
	passes []Pass
	Inline *Inline
	Silent bool
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		Inline: NewInline(),
		passes: []Pass{
			&SCCP{},
			&BranchOptimization{},
			&AlgebraicOptimization{},
			&LoadElimination{},
			&DeadStoreElimination{},
			&MemoryMerge{},
			&LiteralCodesize{},
			&DeadCodeElimination{},
			&DFTScheduling{},
		},
	}
}

func (p *Pipeline) AddPass(pass Pass) { p.passes = append(p.passes, pass) }

// Run inlines eligible call sites across the whole Context first (the one
// cross-function rewrite in the pipeline), then applies every registered
// per-function pass, in order, to every function in ctx. A pass is re-run
// on the same function until it reports no further change (simple fixed
// point).
func (p *Pipeline) Run(ctx *ir.Context) error {
	for _, fn := range ctx.Functions {
		if err := ir.MakeSSA(fn); err != nil {
			return fmt.Errorf("SSA construction on function %q: %w", fn.Name, err)
		}
	}

	if p.Inline != nil {
		if _, err := p.Inline.ApplyContext(ctx); err != nil {
			return err
		}
		if !p.Silent {
			fmt.Printf("  %s: %s\n", p.Inline.Name(), p.Inline.Description())
		}
	}
	for _, fn := range ctx.Functions {
		for _, pass := range p.passes {
			for {
				changed, err := pass.Apply(fn)
				if err != nil {
					return fmt.Errorf("pass %q on function %q: %w", pass.Name(), fn.Name, err)
				}
				if !p.Silent {
					fmt.Printf("  %s: %s\n", pass.Name(), pass.Description())
				}
				if !changed {
					break
				}
			}
		}
		if err := fn.Validate(); err != nil {
			return fmt.Errorf("function %q failed validation after optimization: %w", fn.Name, err)
		}
	}
	return nil
}
