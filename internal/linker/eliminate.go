package linker

import (
	"github.com/shaderlang/slc/pkg/ast"
)

// EliminateUnused implements C10's "discard the rest" half: given the
// Reachable set a ComputeReachable pass produced, it rewrites module's
// top-level statement list in place, dropping any const/fn/struct/alias
// declaration that reachability didn't mark. Top-level statements of any
// other kind are kept.
//
// Externals, options, and imports are never eliminated: they are this
// module's I/O surface and caller-visible configuration surface (§2
// control-flow step 6, "run unused-symbol elimination against the set of
// entry-stage functions requested by the caller" — the surface a caller
// binds against must survive even when nothing inside the module still
// references it).
func EliminateUnused(module *ast.Module, reached Reachable) {
	kept := module.Statements[:0]
	for _, stmt := range module.Statements {
		if keepStatement(stmt, reached) {
			kept = append(kept, stmt)
		}
	}
	module.Statements = kept
}

func keepStatement(stmt ast.Statement, reached Reachable) bool {
	switch s := stmt.(type) {
	case *ast.DeclareFunctionStatement:
		// Entry-stage functions are always seeded into Reachable.Functions
		// by ComputeReachable (they are the mark phase's roots), so a bare
		// membership check here already keeps every entry point requested
		// for this Link call and drops every entry point that wasn't.
		return reached.Functions[funcIdxOf(s)]
	case *ast.DeclareConstStatement:
		return reached.Constants[s.ConstIdx]
	case *ast.DeclareOptionStatement:
		return true
	case *ast.DeclareStructStatement:
		return reached.Structs[structIdxOf(s)]
	case *ast.DeclareAliasStatement:
		return reached.Aliases[s.AliasIdx]
	case *ast.DeclareExternalStatement:
		return true
	case *ast.ImportStatement:
		return true
	default:
		return true
	}
}

// funcIdxOf and structIdxOf read back the index a declaration was
// registered under — resolveDeclareFunction/resolveDeclareStruct always
// assign one during resolution (internal/resolver/statements.go), so by
// the time EliminateUnused runs every declaration's index field is
// populated regardless of whether the source spelled it explicitly.
func funcIdxOf(s *ast.DeclareFunctionStatement) int {
	return s.FuncIdx
}

func structIdxOf(s *ast.DeclareStructStatement) int {
	return s.StructIdx
}
