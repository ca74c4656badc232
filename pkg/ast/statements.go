package ast

import (
	"fmt"
	"strings"
)

// MultiStatement is a block of statements sharing one lexical scope
// (function bodies, loop/branch bodies, and the bodies synthesized by
// @unroll expansion, §8 scenario S5).
type MultiStatement struct {
	BaseStmt
	Statements []Statement
}

func (m *MultiStatement) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range m.Statements {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// CondBranch is one `cond { body }` arm of a BranchStatement.
type CondBranch struct {
	Cond Expression
	Body *MultiStatement
}

// BranchStatement is a runtime `if`/`else if`/`else` chain when
// IsConst is false, or a `const if` chain when true (§4 Statement rules).
type BranchStatement struct {
	BaseStmt
	CondStatements []CondBranch
	Else           *MultiStatement
	IsConst        bool
}

func (b *BranchStatement) String() string {
	var sb strings.Builder
	if b.IsConst {
		sb.WriteString("const ")
	}
	for i, c := range b.CondStatements {
		if i == 0 {
			sb.WriteString("if ")
		} else {
			sb.WriteString("else if ")
		}
		sb.WriteString(c.Cond.String())
		sb.WriteString(" ")
		sb.WriteString(c.Body.String())
		sb.WriteString(" ")
	}
	if b.Else != nil {
		sb.WriteString("else ")
		sb.WriteString(b.Else.String())
	}
	return sb.String()
}

// ConditionalStatement is `#[cond(expr)] stmt`: stmt only exists when
// expr, folded to a bool constant, is true (§4 Statement rules).
type ConditionalStatement struct {
	BaseStmt
	Cond Expression
	Stmt Statement
}

func (c *ConditionalStatement) String() string {
	return fmt.Sprintf("#[cond(%s)] %s", c.Cond, c.Stmt)
}

// DeclareAliasStatement introduces a source-level rename of a struct,
// function, module, or another alias (glossary "Alias").
type DeclareAliasStatement struct {
	BaseStmt
	Expr     Expression
	Name     string
	AliasIdx int
	HasIdx   bool
}

func (d *DeclareAliasStatement) String() string {
	return fmt.Sprintf("alias %s = %s;", d.Name, d.Expr)
}

// DeclareConstStatement declares a compile-time constant.
type DeclareConstStatement struct {
	BaseStmt
	TypeAnnotation Expression // optional
	Init           Expression
	Name           string
	ConstIdx       int
	HasIdx         bool
}

func (d *DeclareConstStatement) String() string {
	return fmt.Sprintf("const %s = %s;", d.Name, d.Init)
}

// DeclareVariableStatement declares a `let`/`var` binding, local to its
// enclosing scope (function body, loop body, branch arm).
type DeclareVariableStatement struct {
	BaseStmt
	TypeAnnotation Expression // optional
	Init           Expression // optional
	Name           string
	VarIdx         int
	HasIdx         bool
}

func (d *DeclareVariableStatement) String() string {
	if d.Init != nil {
		return fmt.Sprintf("let %s = %s;", d.Name, d.Init)
	}
	return fmt.Sprintf("let %s;", d.Name)
}

// StructMember is one field of a DeclareStructStatement.
type StructMember struct {
	Cond          Expression // optional; folds to bool, gates whether the field exists
	Builtin       Expression // optional; mutually exclusive with LocationIndex
	Interp        Expression // optional interpolation qualifier (string-valued)
	LocationIndex Expression // optional; mutually exclusive with Builtin
	TypeAnnotation Expression
	Name          string
	FieldIdx      int
}

// DeclareStructStatement declares a struct type (glossary entities; §4
// Statement rules table row).
type DeclareStructStatement struct {
	BaseStmt
	Members   []StructMember
	Name      string
	StructIdx int
	HasIdx    bool
}

func (d *DeclareStructStatement) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("struct %s {\n", d.Name))
	for _, m := range d.Members {
		sb.WriteString(fmt.Sprintf("  %s,\n", m.Name))
	}
	sb.WriteString("}")
	return sb.String()
}

// DeclareOptionStatement declares a module option (glossary "Option").
type DeclareOptionStatement struct {
	BaseStmt
	TypeAnnotation Expression
	Default        Expression // optional
	Name           string
	ConstIdx       int
	HasIdx         bool
}

func (d *DeclareOptionStatement) String() string {
	return fmt.Sprintf("option %s: %s;", d.Name, d.TypeAnnotation)
}

// Stage enumerates the shader entry-point stages (glossary "Entry point").
type Stage int

const (
	StageNone Stage = iota
	StageVertex
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "none"
	}
}

// FunctionAttributes captures the `@entry(stage)`/`@depth_write`/
// `@early_fragment_tests`/`@workgroup_size` attributes a function
// declaration may carry (§4 DeclareFunctionStatement row).
type FunctionAttributes struct {
	Entry               Expression // optional; folds to an identifier naming a Stage
	DepthWrite           Expression // optional bool
	EarlyFragmentTests   Expression // optional bool
	WorkgroupSize        [3]Expression // optional, each folds to u32

	EntryStage           Stage // filled once Entry is folded
	HasEntryStage        bool
}

// Param is one parameter of a function declaration.
type Param struct {
	TypeAnnotation Expression
	Name           string
	VarIdx         int
}

// DeclareFunctionStatement declares a function. Its body is resolved in
// the second pass via the driver's pending-functions list (§2 step 5,
// §9 "coroutine-like control flow").
type DeclareFunctionStatement struct {
	BaseStmt
	ReturnType Expression // optional; absent means void
	Body       *MultiStatement
	Attributes FunctionAttributes
	Params     []Param
	Name       string
	FuncIdx    int
	HasIdx     bool
}

func (d *DeclareFunctionStatement) String() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = p.Name
	}
	return fmt.Sprintf("fn %s(%s) %s", d.Name, strings.Join(parts, ", "), d.Body)
}

// ExternalVar is one resource binding inside a DeclareExternalStatement.
type ExternalVar struct {
	TypeAnnotation Expression
	BindingSet     Expression // optional; folds to u32
	AutoBinding    Expression // optional bool
	Name           string
	VarIdx         int
}

// DeclareExternalStatement declares a group of shader resources sharing
// a binding set, optionally named (glossary "External block").
type DeclareExternalStatement struct {
	BaseStmt
	Vars     []ExternalVar
	Name     string // "" for an anonymous block
	BlockIdx int
	HasIdx   bool
}

func (d *DeclareExternalStatement) String() string {
	if d.Name == "" {
		return "external { ... }"
	}
	return fmt.Sprintf("external %s { ... }", d.Name)
}

// LoopUnroll enumerates the `@unroll` attribute values a for/for-each
// loop may carry (§4 ForStatement row, §8 scenario S5).
type LoopUnroll int

const (
	UnrollNever LoopUnroll = iota
	UnrollAlways
	UnrollHint
)

// ForStatement is a counted loop `for i in from -> to : step`.
type ForStatement struct {
	BaseStmt
	From, To, Step Expression // Step optional
	Body           *MultiStatement
	Counter        string
	Unroll         LoopUnroll
	VarIdx         int
	HasIdx         bool
}

func (f *ForStatement) String() string {
	return fmt.Sprintf("for %s in %s -> %s %s", f.Counter, f.From, f.To, f.Body)
}

// ForEachStatement is `for x in array { ... }`.
type ForEachStatement struct {
	BaseStmt
	Array  Expression
	Body   *MultiStatement
	Var    string
	Unroll LoopUnroll
	VarIdx int
	HasIdx bool
}

func (f *ForEachStatement) String() string {
	return fmt.Sprintf("for %s in %s %s", f.Var, f.Array, f.Body)
}

// WhileStatement is a `while cond { ... }` loop.
type WhileStatement struct {
	BaseStmt
	Cond Expression
	Body *MultiStatement
}

func (w *WhileStatement) String() string { return fmt.Sprintf("while %s %s", w.Cond, w.Body) }

// ImportStatement imports a module by name, optionally selecting and
// re-exporting specific symbols, or aliasing the whole module
// (§4.9 / C9 module linker).
type ImportStatement struct {
	BaseStmt
	ModuleName string
	Alias      string // "" if not aliased
	Symbols    []ImportedSymbol
	ModuleIdx  int
	HasIdx     bool
}

// ImportedSymbol is one `name [as alias]` entry in a selective import,
// or empty (ModuleIdx-only import) for a whole-module import.
type ImportedSymbol struct {
	Name  string
	Alias string
}

func (i *ImportStatement) String() string {
	if i.Alias != "" {
		return fmt.Sprintf("import %s as %s;", i.ModuleName, i.Alias)
	}
	return fmt.Sprintf("import %s;", i.ModuleName)
}

// ReturnStatement returns from the enclosing function, with an optional value.
type ReturnStatement struct {
	BaseStmt
	Value Expression // optional
}

func (r *ReturnStatement) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s;", r.Value)
	}
	return "return;"
}

// DiscardStatement discards the current fragment; only legal in a
// Fragment-stage entry point (§7 semantic policy errors).
type DiscardStatement struct{ BaseStmt }

func (*DiscardStatement) String() string { return "discard;" }

// BreakStatement exits the nearest enclosing loop.
type BreakStatement struct{ BaseStmt }

func (*BreakStatement) String() string { return "break;" }

// ContinueStatement skips to the next iteration of the nearest enclosing loop.
type ContinueStatement struct{ BaseStmt }

func (*ContinueStatement) String() string { return "continue;" }

// ExpressionStatement wraps an expression evaluated for its side effect
// (a call or an assignment).
type ExpressionStatement struct {
	BaseStmt
	Expr Expression
}

func (e *ExpressionStatement) String() string { return e.Expr.String() + ";" }

var (
	_ Statement = (*MultiStatement)(nil)
	_ Statement = (*BranchStatement)(nil)
	_ Statement = (*ConditionalStatement)(nil)
	_ Statement = (*DeclareAliasStatement)(nil)
	_ Statement = (*DeclareConstStatement)(nil)
	_ Statement = (*DeclareVariableStatement)(nil)
	_ Statement = (*DeclareStructStatement)(nil)
	_ Statement = (*DeclareOptionStatement)(nil)
	_ Statement = (*DeclareFunctionStatement)(nil)
	_ Statement = (*DeclareExternalStatement)(nil)
	_ Statement = (*ForStatement)(nil)
	_ Statement = (*ForEachStatement)(nil)
	_ Statement = (*WhileStatement)(nil)
	_ Statement = (*ImportStatement)(nil)
	_ Statement = (*ReturnStatement)(nil)
	_ Statement = (*DiscardStatement)(nil)
	_ Statement = (*BreakStatement)(nil)
	_ Statement = (*ContinueStatement)(nil)
	_ Statement = (*ExpressionStatement)(nil)
)
