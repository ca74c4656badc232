// Package ast defines the AST node types the resolver consumes and
// produces (§3, §4, §6). Lexing and parsing are an external
// collaborator (§1 Non-goals); this package only fixes the node shapes
// the Parser must hand in and the resolver must hand back.
//
// Grounded on the teacher's internal/ast package: a closed
// interface-per-category hierarchy (Node / Expression / Statement),
// concrete node structs embedding a small positional base, and a
// hand-written String() on every node for debugging — generalized from
// DWScript's dynamic-language node set (classes, properties, exceptions)
// to the shading language's concrete one (§9 "deep inheritance of node
// hierarchies": one closed enum per category, no open class hierarchy).
package ast

import (
	"strings"

	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// Node is the base interface every AST node implements.
type Node interface {
	Pos() token.Position
	String() string
}

// Expression is any node that produces a value. Every expression node
// carries an optional cached ExpressionType that the resolver fills in
// (§3: "every expression carries ... Option<cachedExpressionType>").
type Expression interface {
	Node
	exprNode()
	CachedType() types.ExpressionType
	SetCachedType(types.ExpressionType)
}

// Statement is any node that performs an action without itself
// producing a value (§3: "every statement carries only source_location").
type Statement interface {
	Node
	stmtNode()
}

// BaseExpr is embedded by every concrete Expression to provide the
// position and cached-type bookkeeping all of them share.
type BaseExpr struct {
	Location token.Position
	Cached   types.ExpressionType
}

func (b *BaseExpr) Pos() token.Position              { return b.Location }
func (b *BaseExpr) CachedType() types.ExpressionType { return b.Cached }
func (b *BaseExpr) SetCachedType(t types.ExpressionType) { b.Cached = t }
func (*BaseExpr) exprNode()                          {}

// BaseStmt is embedded by every concrete Statement to provide position
// bookkeeping.
type BaseStmt struct {
	Location token.Position
}

func (b *BaseStmt) Pos() token.Position { return b.Location }
func (*BaseStmt) stmtNode()             {}

// ModuleFeature is a named opt-in capability a module's metadata block
// may declare (e.g. enabling PrimitiveExternals for external blocks,
// §4 DeclareExternalStatement row).
type ModuleFeature string

const (
	FeaturePrimitiveExternals ModuleFeature = "PrimitiveExternals"
	FeatureConstLoop          ModuleFeature = "ConstLoop"
)

// ModuleMetadata is a module's declared identity and capabilities (§2,
// glossary "Module").
type ModuleMetadata struct {
	ModuleName      string
	LanguageVersion string
	Features        []ModuleFeature
}

// HasFeature reports whether feature is enabled in m.
func (m ModuleMetadata) HasFeature(feature ModuleFeature) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Module is the root node of a translation unit: a name, metadata, and
// a root statement list (glossary "Module"). ImportedModules is filled
// by the linker (C9) during resolution, one entry per imported module in
// first-import order, de-duplicated by metadata.ModuleName (§8 invariant 5).
type Module struct {
	Metadata        ModuleMetadata
	Statements      []Statement
	ImportedModules []*Module
}

func (m *Module) Pos() token.Position {
	if len(m.Statements) > 0 {
		return m.Statements[0].Pos()
	}
	return token.Position{}
}

func (m *Module) String() string {
	var sb strings.Builder
	for _, stmt := range m.Statements {
		sb.WriteString(stmt.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
