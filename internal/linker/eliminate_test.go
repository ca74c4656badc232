package linker

import (
	"testing"

	"github.com/shaderlang/slc/pkg/ast"
)

func TestEliminateUnusedDropsUnreachableFunctionsAndConstants(t *testing.T) {
	entry := &ast.DeclareFunctionStatement{Name: "main", FuncIdx: 0, Attributes: ast.FunctionAttributes{HasEntryStage: true}}
	used := &ast.DeclareFunctionStatement{Name: "helper", FuncIdx: 1}
	dead := &ast.DeclareFunctionStatement{Name: "dead", FuncIdx: 2}
	usedConst := &ast.DeclareConstStatement{Name: "kUsed", ConstIdx: 0}
	deadConst := &ast.DeclareConstStatement{Name: "kDead", ConstIdx: 1}
	ext := &ast.DeclareExternalStatement{Name: "bindings"}
	opt := &ast.DeclareOptionStatement{Name: "quality"}

	module := &ast.Module{Statements: []ast.Statement{entry, used, dead, usedConst, deadConst, ext, opt}}

	// Functions[0] ("main") is present because ComputeReachable always
	// seeds every entry-stage function into Reachable.Functions as a mark
	// phase root — EliminateUnused trusts that map rather than re-reading
	// Attributes.HasEntryStage off the node.
	reached := Reachable{
		Functions: map[int]bool{0: true, 1: true},
		Constants: map[int]bool{0: true},
		Structs:   map[int]bool{},
		Aliases:   map[int]bool{},
	}

	EliminateUnused(module, reached)

	var names []string
	for _, s := range module.Statements {
		switch v := s.(type) {
		case *ast.DeclareFunctionStatement:
			names = append(names, v.Name)
		case *ast.DeclareConstStatement:
			names = append(names, v.Name)
		case *ast.DeclareExternalStatement:
			names = append(names, v.Name)
		case *ast.DeclareOptionStatement:
			names = append(names, v.Name)
		}
	}

	want := map[string]bool{"main": true, "helper": true, "kUsed": true, "bindings": true, "quality": true}
	got := map[string]bool{}
	for _, n := range names {
		got[n] = true
	}
	for n := range want {
		if !got[n] {
			t.Errorf("expected %q to survive elimination, statements left: %v", n, names)
		}
	}
	if got["dead"] {
		t.Errorf("expected unreachable function %q to be eliminated, statements left: %v", "dead", names)
	}
	if got["kDead"] {
		t.Errorf("expected unreachable constant %q to be eliminated, statements left: %v", "kDead", names)
	}
}

func TestEliminateUnusedKeepsAliasOnlyWhenReachable(t *testing.T) {
	kept := &ast.DeclareAliasStatement{Name: "Vec", AliasIdx: 0}
	dropped := &ast.DeclareAliasStatement{Name: "Unused", AliasIdx: 1}
	module := &ast.Module{Statements: []ast.Statement{kept, dropped}}

	EliminateUnused(module, Reachable{
		Functions: map[int]bool{},
		Constants: map[int]bool{},
		Structs:   map[int]bool{},
		Aliases:   map[int]bool{0: true},
	})

	if len(module.Statements) != 1 {
		t.Fatalf("expected exactly one surviving statement, got %d", len(module.Statements))
	}
	if module.Statements[0].(*ast.DeclareAliasStatement).Name != "Vec" {
		t.Errorf("expected the reachable alias to survive, got %v", module.Statements[0])
	}
}
