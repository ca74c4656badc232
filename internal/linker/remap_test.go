package linker

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
)

func TestRemapShiftsFunctionIndicesAndLeavesOriginalUntouched(t *testing.T) {
	original := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareFunctionStatement{
			Name:    "helper",
			FuncIdx: 1,
			Body: &ast.MultiStatement{Statements: []ast.Statement{
				&ast.ExpressionStatement{Expr: &ast.CallFunction{Target: &ast.FunctionExpression{FuncIdx: 2}}},
			}},
		},
	}}

	gens := IndexGenerators{Function: func(old int) int { return old + 100 }}
	remapped := Remap(original, gens)

	origFn := original.Statements[0].(*ast.DeclareFunctionStatement)
	if origFn.FuncIdx != 1 {
		t.Errorf("Remap must not mutate the original module: FuncIdx changed to %d", origFn.FuncIdx)
	}

	remappedFn := remapped.Statements[0].(*ast.DeclareFunctionStatement)
	if remappedFn.FuncIdx != 101 {
		t.Errorf("expected remapped FuncIdx 101, got %d", remappedFn.FuncIdx)
	}

	call := remappedFn.Body.Statements[0].(*ast.ExpressionStatement).Expr.(*ast.CallFunction)
	callee := call.Target.(*ast.FunctionExpression)
	if callee.FuncIdx != 102 {
		t.Errorf("expected call target remapped to 102, got %d", callee.FuncIdx)
	}

	origCallee := origFn.Body.Statements[0].(*ast.ExpressionStatement).Expr.(*ast.CallFunction).Target.(*ast.FunctionExpression)
	if origCallee.FuncIdx != 2 {
		t.Errorf("Remap must not mutate the original call site, got %d", origCallee.FuncIdx)
	}
}

func TestRemapLeavesUngeneratedKindsUnchanged(t *testing.T) {
	original := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareConstStatement{Name: "kOne", ConstIdx: 5},
	}}
	remapped := Remap(original, IndexGenerators{})
	got := remapped.Statements[0].(*ast.DeclareConstStatement).ConstIdx
	if got != 5 {
		t.Errorf("expected ConstIdx to pass through unchanged with a nil generator, got %d", got)
	}
}
