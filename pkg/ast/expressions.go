package ast

import (
	"fmt"
	"strings"

	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/types"
)

// Identifier is an unresolved name reference exactly as the parser
// produced it. Resolution replaces it with one of the typed nodes below
// per §4.4.bis; a well-formed fully-resolved tree contains no Identifier
// nodes (outside of partial-compilation leftovers).
type Identifier struct {
	BaseExpr
	Name string
}

func (i *Identifier) String() string { return i.Name }

// --- access expressions -------------------------------------------------

// AccessIdentifier is `expr.seg0.seg1...`, resolved per the dispatch
// table in §4 (struct field / swizzle / method / module member).
type AccessIdentifier struct {
	BaseExpr
	Expr     Expression
	Segments []string
}

func (a *AccessIdentifier) String() string {
	return fmt.Sprintf("%s.%s", a.Expr, strings.Join(a.Segments, "."))
}

// AccessField is the resolved form of a struct member access.
type AccessField struct {
	BaseExpr
	Expr     Expression
	FieldIdx int
}

func (a *AccessField) String() string { return fmt.Sprintf("%s.#%d", a.Expr, a.FieldIdx) }

// AccessIndex is `expr[i0, i1, ...]`: array/matrix/vector/struct
// indexing, or partial-type instantiation when Expr is a TypeExpression
// naming a PartialType (§4.4.ter).
type AccessIndex struct {
	BaseExpr
	Expr    Expression
	Indices []Expression
}

func (a *AccessIndex) String() string {
	parts := make([]string, len(a.Indices))
	for i, idx := range a.Indices {
		parts[i] = idx.String()
	}
	return fmt.Sprintf("%s[%s]", a.Expr, strings.Join(parts, ", "))
}

// --- operators -----------------------------------------------------------

// BinaryOp enumerates the binary operators §4's Binary row validates.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinCompEq
	BinCompNe
	BinCompLt
	BinCompLe
	BinCompGt
	BinCompGe
	BinLogicalAnd
	BinLogicalOr
	BinBitwiseAnd
	BinBitwiseOr
	BinBitwiseXor
	BinShiftLeft
	BinShiftRight
)

var binaryOpNames = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinCompEq: "==", BinCompNe: "!=", BinCompLt: "<", BinCompLe: "<=",
	BinCompGt: ">", BinCompGe: ">=", BinLogicalAnd: "&&", BinLogicalOr: "||",
	BinBitwiseAnd: "&", BinBitwiseOr: "|", BinBitwiseXor: "^",
	BinShiftLeft: "<<", BinShiftRight: ">>",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsComparison reports whether op is one of the Comp* kinds.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case BinCompEq, BinCompNe, BinCompLt, BinCompLe, BinCompGt, BinCompGe:
		return true
	default:
		return false
	}
}

// Binary is a binary-operator expression.
type Binary struct {
	BaseExpr
	Left, Right Expression
	Op          BinaryOp
}

func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// UnaryOp enumerates §4's Unary operators.
type UnaryOp int

const (
	UnaryLogicalNot UnaryOp = iota
	UnaryBitwiseNot
	UnaryMinus
	UnaryPlus
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryLogicalNot:
		return "!"
	case UnaryBitwiseNot:
		return "~"
	case UnaryMinus:
		return "-"
	case UnaryPlus:
		return "+"
	default:
		return "?"
	}
}

// Unary is a unary-operator expression.
type Unary struct {
	BaseExpr
	Operand Expression
	Op      UnaryOp
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// Cast is a validated type-cast, produced either directly by the
// parser (`vec3(1.0, 2.0, 3.0)` after CallFunction rewriting) or by the
// resolver rewriting a CallFunction against a TypeExpression (§4
// CallFunction row). Target is already a fully resolved ExpressionType,
// never a TypeExpression node, since Cast only exists post-resolution.
type Cast struct {
	BaseExpr
	Target Expression // nil once Target is resolved; kept for source fidelity pre-resolution
	Args   []Expression
}

func (c *Cast) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", types.String(c.CachedType()), strings.Join(parts, ", "))
}

// AssignOp enumerates simple and compound assignment operators; compound
// ops lower to Binary + Simple during resolution (§4 Assign row).
type AssignOp int

const (
	AssignSimple AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

func (op AssignOp) String() string {
	switch op {
	case AssignSimple:
		return "="
	case AssignAdd:
		return "+="
	case AssignSub:
		return "-="
	case AssignMul:
		return "*="
	case AssignDiv:
		return "/="
	default:
		return "?="
	}
}

// Assign is an assignment expression.
type Assign struct {
	BaseExpr
	Left, Right Expression
	Op          AssignOp
}

func (a *Assign) String() string { return fmt.Sprintf("(%s %s %s)", a.Left, a.Op, a.Right) }

// Swizzle is the resolved form of a vector component access
// (`v.xyz`, `v.x`). Per §9's resolved Open Question, a single-letter
// swizzle always produces this node (components=[i], count=1) rather
// than being collapsed to a bare scalar.
type Swizzle struct {
	BaseExpr
	Expr       Expression
	Components []int
}

func (s *Swizzle) String() string {
	letters := "xyzw"
	var sb strings.Builder
	for _, c := range s.Components {
		if c >= 0 && c < len(letters) {
			sb.WriteByte(letters[c])
		}
	}
	return fmt.Sprintf("%s.%s", s.Expr, sb.String())
}

// CallFunction is a call site before resolution has determined whether
// Target denotes a function, intrinsic, method, or type constructor
// (§4 CallFunction row — it is rewritten to Intrinsic/Cast accordingly
// once that is known, but the node itself also serves as the resolved
// "plain function call" form when Target stays a FunctionExpression).
type CallFunction struct {
	BaseExpr
	Target Expression
	Args   []Expression
}

func (c *CallFunction) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Target, strings.Join(parts, ", "))
}

// Intrinsic is a call to a built-in intrinsic operation, produced by
// rewriting a CallFunction whose target resolved to an
// IntrinsicFunctionType or MethodType (§4 CallFunction, Intrinsic rows).
type Intrinsic struct {
	BaseExpr
	Kind types.IntrinsicKind
	Args []Expression
}

func (i *Intrinsic) String() string {
	parts := make([]string, len(i.Args))
	for idx, a := range i.Args {
		parts[idx] = a.String()
	}
	return fmt.Sprintf("%s(%s)", i.Kind, strings.Join(parts, ", "))
}

// Conditional is a ternary-style expression. A fully foldable Conditional
// is replaced in place by whichever arm the constant
// condition selects (§4 Conditional row) — this node only survives into
// a resolved, non-partial tree if its condition could not be folded,
// which full compilation treats as an error.
type Conditional struct {
	BaseExpr
	Cond, Then, Else Expression
}

func (c *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond, c.Then, c.Else)
}

// --- resolved leaf expressions --------------------------------------------

// ConstantValueExpression is a fully folded scalar/vector/matrix/array
// constant value.
type ConstantValueExpression struct {
	BaseExpr
	Value constant.Value
}

func (c *ConstantValueExpression) String() string { return c.Value.String() }

// ConstantArrayValueExpression is a fully folded array-of-constants
// value, kept distinct from ConstantValueExpression so the folder can
// special-case arrays without a type switch on constant.Array (§4.5).
type ConstantArrayValueExpression struct {
	BaseExpr
	Values []constant.Value
}

func (c *ConstantArrayValueExpression) String() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ConstantExpression is a reference to a named constant or option by
// table index (§4 Constant row). Resolving it marks the constant used
// in its owning module for C10's reachability sweep.
type ConstantExpression struct {
	BaseExpr
	ConstIdx int
}

func (c *ConstantExpression) String() string { return fmt.Sprintf("const#%d", c.ConstIdx) }

// VariableValueExpression is a reference to a local variable or
// parameter by table index (§4 Variable row).
type VariableValueExpression struct {
	BaseExpr
	VarIdx int
}

func (v *VariableValueExpression) String() string { return fmt.Sprintf("var#%d", v.VarIdx) }

// AliasValueExpression is a reference to an alias by table index,
// preserved unless options.RemoveAliases splices it away (§4.4.bis).
type AliasValueExpression struct {
	BaseExpr
	AliasIdx int
}

func (a *AliasValueExpression) String() string { return fmt.Sprintf("alias#%d", a.AliasIdx) }

// FunctionExpression is a reference to a function by table index.
type FunctionExpression struct {
	BaseExpr
	FuncIdx int
}

func (f *FunctionExpression) String() string { return fmt.Sprintf("fn#%d", f.FuncIdx) }

// IntrinsicFunctionExpression is a reference to an intrinsic by kind,
// before it has been applied to arguments via CallFunction.
type IntrinsicFunctionExpression struct {
	BaseExpr
	Kind types.IntrinsicKind
}

func (f *IntrinsicFunctionExpression) String() string { return f.Kind.String() }

// StructTypeExpression is a reference to a struct by table index, used
// as the callee of a `Point(1.0, 2.0)` record-literal-style call.
type StructTypeExpression struct {
	BaseExpr
	StructIdx int
}

func (s *StructTypeExpression) String() string { return fmt.Sprintf("struct#%d", s.StructIdx) }

// TypeExpression is a reference to an entry in context.types: either a
// fully resolved type used as a first-class value, or a PartialType
// constructor awaiting AccessIndex/CallFunction instantiation (§4.4.ter).
type TypeExpression struct {
	BaseExpr
	TypeIdx int
}

func (t *TypeExpression) String() string { return fmt.Sprintf("type#%d", t.TypeIdx) }

// ModuleExpression is a reference to an imported module by table index.
type ModuleExpression struct {
	BaseExpr
	ModuleIdx int
}

func (m *ModuleExpression) String() string { return fmt.Sprintf("module#%d", m.ModuleIdx) }

// NamedExternalBlockExpression is a reference to a named external block
// by table index.
type NamedExternalBlockExpression struct {
	BaseExpr
	BlockIdx int
}

func (n *NamedExternalBlockExpression) String() string {
	return fmt.Sprintf("external_block#%d", n.BlockIdx)
}

var (
	_ Expression = (*Identifier)(nil)
	_ Expression = (*AccessIdentifier)(nil)
	_ Expression = (*AccessField)(nil)
	_ Expression = (*AccessIndex)(nil)
	_ Expression = (*Binary)(nil)
	_ Expression = (*Unary)(nil)
	_ Expression = (*Cast)(nil)
	_ Expression = (*Assign)(nil)
	_ Expression = (*Swizzle)(nil)
	_ Expression = (*CallFunction)(nil)
	_ Expression = (*Intrinsic)(nil)
	_ Expression = (*Conditional)(nil)
	_ Expression = (*ConstantValueExpression)(nil)
	_ Expression = (*ConstantArrayValueExpression)(nil)
	_ Expression = (*ConstantExpression)(nil)
	_ Expression = (*VariableValueExpression)(nil)
	_ Expression = (*AliasValueExpression)(nil)
	_ Expression = (*FunctionExpression)(nil)
	_ Expression = (*IntrinsicFunctionExpression)(nil)
	_ Expression = (*StructTypeExpression)(nil)
	_ Expression = (*TypeExpression)(nil)
	_ Expression = (*ModuleExpression)(nil)
	_ Expression = (*NamedExternalBlockExpression)(nil)
)
