package linker

import (
	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// Reachable is the result of a mark-and-sweep pass over every entry-stage
// function's transitive call graph, grounded on SPEC_FULL.md's
// "Entry-stage call-graph reachability" supplement: walk the
// FunctionExpression/ConstantExpression/StructTypeExpression/
// TypeExpression/AliasValueExpression references recorded during resolution,
// starting from every function whose entry_stage is set, in the same
// mark-and-sweep shape the teacher's bytecode compiler uses to strip
// unused builtins.
type Reachable struct {
	Functions map[int]bool
	Constants map[int]bool
	Structs   map[int]bool
	Aliases   map[int]bool
}

func newReachable() Reachable {
	return Reachable{
		Functions: make(map[int]bool),
		Constants: make(map[int]bool),
		Structs:   make(map[int]bool),
		Aliases:   make(map[int]bool),
	}
}

// ComputeReachable runs C10's DependencyChecker: a breadth-first mark
// phase seeded by every entry-stage function in ctx.Functions, following
// every function/constant/struct/alias reference reachable from its
// body (and, transitively, from any function/struct/alias it reaches).
// FunctionData.Used is set on every function this pass marks, matching
// the "marked by C10's DependencyChecker" contract documented on that
// field in internal/rctx/tables.go — ConstantData.Used is already
// maintained by the resolver's literal-folding pass (internal/resolver/
// literals.go's resolveConstantRef) and is left untouched here.
func ComputeReachable(ctx *rctx.Context) Reachable {
	reached := newReachable()
	var pos token.Position

	var funcQueue []int
	ctx.Functions.Range(func(idx int, data rctx.FunctionData) bool {
		if data.HasEntry {
			funcQueue = append(funcQueue, idx)
		}
		return true
	})

	var structQueue []int
	var aliasQueue []int

	markAlias := func(idx int) {
		if reached.Aliases[idx] {
			return
		}
		reached.Aliases[idx] = true
		aliasQueue = append(aliasQueue, idx)
	}
	markStruct := func(idx int) {
		if reached.Structs[idx] {
			return
		}
		reached.Structs[idx] = true
		structQueue = append(structQueue, idx)
	}
	markType := func(idx int) {
		tdata, err := ctx.Types.Retrieve(idx, pos)
		if err != nil || tdata.Content == nil {
			return
		}
		if st, ok := tdata.Content.(types.StructType); ok {
			markStruct(st.Idx)
		}
	}
	exprVisitor := func(e ast.Expression) {
		switch ev := e.(type) {
		case *ast.ConstantExpression:
			reached.Constants[ev.ConstIdx] = true
		case *ast.FunctionExpression:
			if !reached.Functions[ev.FuncIdx] {
				funcQueue = append(funcQueue, ev.FuncIdx)
			}
		case *ast.StructTypeExpression:
			markStruct(ev.StructIdx)
		case *ast.TypeExpression:
			markType(ev.TypeIdx)
		case *ast.AliasValueExpression:
			markAlias(ev.AliasIdx)
		}
	}

	for len(funcQueue) > 0 || len(structQueue) > 0 || len(aliasQueue) > 0 {
		for len(funcQueue) > 0 {
			idx := funcQueue[0]
			funcQueue = funcQueue[1:]
			if reached.Functions[idx] {
				continue
			}
			reached.Functions[idx] = true
			fdata, err := ctx.Functions.Retrieve(idx, pos)
			if err != nil || fdata.Node == nil {
				continue
			}
			if !fdata.Used {
				updated := *fdata
				updated.Used = true
				ctx.Functions.Update(idx, updated)
			}
			for _, p := range fdata.Node.Params {
				walkExpr(p.TypeAnnotation, exprVisitor)
			}
			walkExpr(fdata.Node.ReturnType, exprVisitor)
			if fdata.Node.Body != nil {
				walkStmt(fdata.Node.Body, func(ast.Statement) {}, exprVisitor)
			}
		}
		for len(structQueue) > 0 {
			idx := structQueue[0]
			structQueue = structQueue[1:]
			sdata, err := ctx.Structs.Retrieve(idx, pos)
			if err != nil || sdata.Desc == nil {
				continue
			}
			for _, m := range sdata.Desc.Members {
				walkExpr(m.Cond, exprVisitor)
				walkExpr(m.Builtin, exprVisitor)
				walkExpr(m.Interp, exprVisitor)
				walkExpr(m.LocationIndex, exprVisitor)
				walkExpr(m.TypeAnnotation, exprVisitor)
			}
		}
		for len(aliasQueue) > 0 {
			idx := aliasQueue[0]
			aliasQueue = aliasQueue[1:]
			adata, err := ctx.Aliases.Retrieve(idx, pos)
			if err != nil {
				continue
			}
			switch env.Kind(adata.TargetKind) {
			case env.KindFunction:
				if !reached.Functions[adata.TargetIdx] {
					funcQueue = append(funcQueue, adata.TargetIdx)
				}
			case env.KindStruct:
				markStruct(adata.TargetIdx)
			case env.KindConstant, env.KindOption:
				reached.Constants[adata.TargetIdx] = true
			}
		}
	}

	return reached
}
