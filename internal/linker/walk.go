// Package linker implements C9–C12: module linking proper (import
// resolution/cycle detection live inline in internal/resolver's
// resolveImport, §4.9 — this package supplies the pieces the spec
// keeps distinct once a module tree is fully resolved), entry-stage
// reachability (DependencyChecker/EliminateUnused, C10), the exported-
// symbol visitor (ExportVisitor, C11), and the index-remapping
// structural clone (IndexRemapper, C12). Grounded on the teacher's
// internal/semantic package for the "read-only tree walk over a closed
// node-kind switch" shape shared by every file here.
package linker

import (
	"github.com/shaderlang/slc/pkg/ast"
)

// walkExpr calls visit on e and recurses into every expression child,
// read-only — the same closed-switch dispatch internal/resolver/clone.go
// uses for copying, specialized here to observation rather than cloning.
func walkExpr(e ast.Expression, visit func(ast.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ast.AccessIdentifier:
		walkExpr(v.Expr, visit)
	case *ast.AccessField:
		walkExpr(v.Expr, visit)
	case *ast.AccessIndex:
		walkExpr(v.Expr, visit)
		for _, idx := range v.Indices {
			walkExpr(idx, visit)
		}
	case *ast.Binary:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.Unary:
		walkExpr(v.Operand, visit)
	case *ast.Cast:
		walkExpr(v.Target, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.Assign:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.Swizzle:
		walkExpr(v.Expr, visit)
	case *ast.CallFunction:
		walkExpr(v.Target, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.Intrinsic:
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.Conditional:
		walkExpr(v.Cond, visit)
		walkExpr(v.Then, visit)
		walkExpr(v.Else, visit)
	}
}

// walkStmt calls visitExpr on every expression reachable from s and
// visitStmt on s and every nested statement, recursing through every
// concrete ast.Statement kind.
func walkStmt(s ast.Statement, visitStmt func(ast.Statement), visitExpr func(ast.Expression)) {
	if s == nil {
		return
	}
	visitStmt(s)
	switch v := s.(type) {
	case *ast.MultiStatement:
		for _, c := range v.Statements {
			walkStmt(c, visitStmt, visitExpr)
		}
	case *ast.BranchStatement:
		for _, c := range v.CondStatements {
			walkExpr(c.Cond, visitExpr)
			walkStmt(c.Body, visitStmt, visitExpr)
		}
		if v.Else != nil {
			walkStmt(v.Else, visitStmt, visitExpr)
		}
	case *ast.ConditionalStatement:
		walkExpr(v.Cond, visitExpr)
		walkStmt(v.Stmt, visitStmt, visitExpr)
	case *ast.DeclareAliasStatement:
		walkExpr(v.Expr, visitExpr)
	case *ast.DeclareConstStatement:
		walkExpr(v.TypeAnnotation, visitExpr)
		walkExpr(v.Init, visitExpr)
	case *ast.DeclareVariableStatement:
		walkExpr(v.TypeAnnotation, visitExpr)
		walkExpr(v.Init, visitExpr)
	case *ast.DeclareStructStatement:
		for _, m := range v.Members {
			walkExpr(m.Cond, visitExpr)
			walkExpr(m.Builtin, visitExpr)
			walkExpr(m.Interp, visitExpr)
			walkExpr(m.LocationIndex, visitExpr)
			walkExpr(m.TypeAnnotation, visitExpr)
		}
	case *ast.DeclareOptionStatement:
		walkExpr(v.TypeAnnotation, visitExpr)
		walkExpr(v.Default, visitExpr)
	case *ast.DeclareFunctionStatement:
		for _, p := range v.Params {
			walkExpr(p.TypeAnnotation, visitExpr)
		}
		walkExpr(v.ReturnType, visitExpr)
		walkExpr(v.Attributes.Entry, visitExpr)
		walkExpr(v.Attributes.DepthWrite, visitExpr)
		walkExpr(v.Attributes.EarlyFragmentTests, visitExpr)
		for _, w := range v.Attributes.WorkgroupSize {
			walkExpr(w, visitExpr)
		}
		if v.Body != nil {
			walkStmt(v.Body, visitStmt, visitExpr)
		}
	case *ast.DeclareExternalStatement:
		for _, ev := range v.Vars {
			walkExpr(ev.TypeAnnotation, visitExpr)
			walkExpr(ev.BindingSet, visitExpr)
			walkExpr(ev.AutoBinding, visitExpr)
		}
	case *ast.ForStatement:
		walkExpr(v.From, visitExpr)
		walkExpr(v.To, visitExpr)
		walkExpr(v.Step, visitExpr)
		walkStmt(v.Body, visitStmt, visitExpr)
	case *ast.ForEachStatement:
		walkExpr(v.Array, visitExpr)
		walkStmt(v.Body, visitStmt, visitExpr)
	case *ast.WhileStatement:
		walkExpr(v.Cond, visitExpr)
		walkStmt(v.Body, visitStmt, visitExpr)
	case *ast.ReturnStatement:
		walkExpr(v.Value, visitExpr)
	case *ast.ExpressionStatement:
		walkExpr(v.Expr, visitExpr)
	}
}
