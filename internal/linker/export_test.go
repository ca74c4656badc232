package linker

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
)

func TestWalkInvokesVisitorPerTopLevelDeclaration(t *testing.T) {
	module := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareConstStatement{Name: "kOne", ConstIdx: 0},
		&ast.DeclareFunctionStatement{Name: "main", FuncIdx: 0},
		&ast.DeclareStructStatement{Name: "Vertex", StructIdx: 0},
		&ast.DeclareExternalStatement{Name: "bindings"},
		&ast.DeclareOptionStatement{Name: "quality"},
	}}

	var consts, fns, structs []string
	Walk(module, ExportVisitor{
		Const:    func(c ExportedConst) { consts = append(consts, c.Name) },
		Function: func(f ExportedFunction) { fns = append(fns, f.Name) },
		Struct:   func(s ExportedStruct) { structs = append(structs, s.Name) },
	})

	if len(consts) != 1 || consts[0] != "kOne" {
		t.Errorf("expected one const callback for kOne, got %v", consts)
	}
	if len(fns) != 1 || fns[0] != "main" {
		t.Errorf("expected one function callback for main, got %v", fns)
	}
	if len(structs) != 1 || structs[0] != "Vertex" {
		t.Errorf("expected one struct callback for Vertex, got %v", structs)
	}
}

func TestWalkToleratesNilCallbacks(t *testing.T) {
	module := &ast.Module{Statements: []ast.Statement{
		&ast.DeclareConstStatement{Name: "kOne"},
	}}
	// Must not panic when only a subset of callbacks is set.
	Walk(module, ExportVisitor{})
}
