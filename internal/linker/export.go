package linker

import (
	"github.com/shaderlang/slc/pkg/ast"
)

// ExportedConst, ExportedFunction, and ExportedStruct are the payloads
// ExportVisitor hands back for each top-level declaration it visits —
// C11's contract (§2: "traverses a module's root and invokes user
// callbacks for each exported const, fn, struct").
type ExportedConst struct {
	Name     string
	ConstIdx int
	Node     *ast.DeclareConstStatement
}

type ExportedFunction struct {
	Name    string
	FuncIdx int
	Node    *ast.DeclareFunctionStatement
}

type ExportedStruct struct {
	Name      string
	StructIdx int
	Node      *ast.DeclareStructStatement
}

// ExportVisitor receives one callback per top-level declaration Walk
// finds in a module. Any method left nil is simply not called.
type ExportVisitor struct {
	Const    func(ExportedConst)
	Function func(ExportedFunction)
	Struct   func(ExportedStruct)
}

// Walk traverses module's top-level statement list once, invoking the
// matching visitor callback for every const, fn, and struct declaration
// it carries — options and externals are surface declarations, not
// exports a consuming module binds against by name the way a const/fn/
// struct is, so Walk does not report them (a caller wanting the I/O
// surface reads DeclareOptionStatement/DeclareExternalStatement off
// module.Statements directly).
func Walk(module *ast.Module, visitor ExportVisitor) {
	for _, stmt := range module.Statements {
		switch s := stmt.(type) {
		case *ast.DeclareConstStatement:
			if visitor.Const != nil {
				visitor.Const(ExportedConst{Name: s.Name, ConstIdx: s.ConstIdx, Node: s})
			}
		case *ast.DeclareFunctionStatement:
			if visitor.Function != nil {
				visitor.Function(ExportedFunction{Name: s.Name, FuncIdx: s.FuncIdx, Node: s})
			}
		case *ast.DeclareStructStatement:
			if visitor.Struct != nil {
				visitor.Struct(ExportedStruct{Name: s.Name, StructIdx: s.StructIdx, Node: s})
			}
		}
	}
}
