// Package rctx implements TransformerContext (C5, §3): the aggregate of
// every IndexList[T] symbol table the resolver, linker, and downstream
// passes share, plus the partial-compilation and option-binding flags
// that change resolver behaviour (§5). Grounded on the teacher's
// Analyzer struct (internal/semantic/analyzer.go), which is the single
// object threading a SymbolTable and accumulated diagnostics through
// every analyze_*.go rule — generalized here from one flat symbol table
// to one IndexList per symbol *kind*, since §3 keeps aliases, constants,
// functions, structs, types, and variables in separate index spaces
// rather than one shared namespace (identifier-to-kind resolution
// happens in env.Environment, not here).
package rctx

import (
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/types"
)

// AliasData is a table entry for an alias identifier (§3).
type AliasData struct {
	Name            string
	ModuleIdx       int
	TargetIdx       int
	TargetKind      int // mirrors env.Kind, stored as int to avoid an import cycle
	ConditionalIdx  int
}

// ConstantData is a table entry for a named constant or option. Value
// is nil (None) for a partially-compiled placeholder awaiting a caller-
// supplied option value or a foldable default (§3).
type ConstantData struct {
	Value     constant.Value
	ModuleIdx int
	Type      types.ExpressionType
	Used      bool // marked by the resolver's resolveConstantRef
}

// FunctionData is a table entry for a function declaration.
type FunctionData struct {
	Node         *ast.DeclareFunctionStatement
	ModuleIdx    int
	EntryStage   ast.Stage
	HasEntry     bool
	Used         bool // marked by C10's DependencyChecker
}

// IntrinsicData is a table entry for a built-in intrinsic binding.
type IntrinsicData struct {
	Kind types.IntrinsicKind
}

// ModuleData is a table entry for an imported module.
type ModuleData struct {
	Module *ast.Module
	Name   string
}

// ExternalBlockData is a table entry for a named external block.
type ExternalBlockData struct {
	Name   string
	EnvIdx int
}

// StructData is a table entry for a struct declaration.
type StructData struct {
	Desc      *ast.DeclareStructStatement
	ModuleIdx int
}

// TypeData is a table entry in the types table: either a fully resolved
// ExpressionType, or a PartialType constructor awaiting instantiation
// (§3, §4.4.ter). Exactly one of Content/Partial is set.
type TypeData struct {
	Content types.ExpressionType
	Partial *PartialType
	Name    string
}

// VariableData is a table entry for a local variable, parameter, or
// external-block variable.
type VariableData struct {
	Type     types.ExpressionType
	ReadOnly bool
}
