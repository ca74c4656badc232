// Package types is the ExpressionType model (§3): a tagged variant of
// every type the language knows. Grounded on the teacher's own Type
// interface (internal/types: String/TypeKind/Equals on a closed set of
// concrete kinds) — generalized here from DWScript's dynamic-language
// type lattice (Integer/Float/String/class/interface) to the shading
// language's concrete-and-parametric one (scalars, vectors, matrices,
// arrays, external resources, partial-type constructors).
package types

import (
	"fmt"
	"strings"
)

// ExpressionType is implemented by every concrete type kind below.
// Unlike the teacher's Type, equality is not a method on the interface:
// §4's Binary/Assign/Cast rules compare types only after resolving
// aliases (resolve_alias), so equality lives in Equal(a, b) at package
// scope rather than risking an accidental unresolved-alias comparison.
type ExpressionType interface {
	fmt.Stringer
	TypeKind() string
	isExpressionType()
}

// Primitive enumerates the scalar kinds, including the two transient
// "Lit" kinds used only for unresolved numeric literals (§3).
type Primitive int

const (
	Bool Primitive = iota
	F32
	F64
	I32
	U32
	FloatLit
	IntLit
	Str
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case I32:
		return "i32"
	case U32:
		return "u32"
	case FloatLit:
		return "floatlit"
	case IntLit:
		return "intlit"
	case Str:
		return "string"
	default:
		return "<invalid primitive>"
	}
}

// IsNumeric reports whether p is one of the arithmetic scalar kinds
// (i.e. every primitive except Bool and Str).
func (p Primitive) IsNumeric() bool {
	switch p {
	case F32, F64, I32, U32, FloatLit, IntLit:
		return true
	default:
		return false
	}
}

// IsLiteral reports whether p is one of the two transient untyped-literal
// kinds that must be lowered before the tree is considered resolved.
func (p Primitive) IsLiteral() bool {
	return p == IntLit || p == FloatLit
}

// IsFloat reports whether p is a floating-point scalar (including the
// untyped float literal kind).
func (p Primitive) IsFloat() bool {
	return p == F32 || p == F64 || p == FloatLit
}

// IsInteger reports whether p is an integer scalar (including the
// untyped integer literal kind).
func (p Primitive) IsInteger() bool {
	return p == I32 || p == U32 || p == IntLit
}

// --- concrete ExpressionType kinds -----------------------------------

// NoType marks an expression whose type could not be determined, only
// legal while partial_compilation is active.
type NoType struct{}

func (NoType) isExpressionType() {}
func (NoType) TypeKind() string  { return "NoType" }
func (NoType) String() string    { return "<no type>" }

// PrimitiveType wraps a scalar Primitive as an ExpressionType.
type PrimitiveType struct {
	Kind Primitive
}

func (PrimitiveType) isExpressionType() {}
func (PrimitiveType) TypeKind() string  { return "Primitive" }
func (t PrimitiveType) String() string  { return t.Kind.String() }

// VectorType is a vector of Len components (2..4) of a scalar Elem.
type VectorType struct {
	Elem Primitive
	Len  int
}

func (VectorType) isExpressionType() {}
func (VectorType) TypeKind() string  { return "Vector" }
func (t VectorType) String() string  { return fmt.Sprintf("vec%d<%s>", t.Len, t.Elem) }

// MatrixType is Cols x Rows (2..4 each) of a floating Elem.
type MatrixType struct {
	Elem Primitive
	Cols int
	Rows int
}

func (MatrixType) isExpressionType() {}
func (MatrixType) TypeKind() string  { return "Matrix" }
func (t MatrixType) String() string {
	return fmt.Sprintf("mat%dx%d<%s>", t.Cols, t.Rows, t.Elem)
}

// ArrayType is a fixed-size (or, if Len == 0, unspecified-size) array.
type ArrayType struct {
	Elem ExpressionType
	Len  uint32
}

func (ArrayType) isExpressionType() {}
func (ArrayType) TypeKind() string  { return "Array" }
func (t ArrayType) String() string {
	if t.Len == 0 {
		return fmt.Sprintf("array<%s>", t.Elem)
	}
	return fmt.Sprintf("array<%s, %d>", t.Elem, t.Len)
}

// DynArrayType is a runtime-resizable array (length never embedded in the type).
type DynArrayType struct {
	Elem ExpressionType
}

func (DynArrayType) isExpressionType() {}
func (DynArrayType) TypeKind() string  { return "DynArray" }
func (t DynArrayType) String() string  { return fmt.Sprintf("dyn_array<%s>", t.Elem) }

// StructType references a struct by its index in context.structs.
type StructType struct {
	Idx int
}

func (StructType) isExpressionType() {}
func (StructType) TypeKind() string  { return "Struct" }
func (t StructType) String() string  { return fmt.Sprintf("struct#%d", t.Idx) }

// FunctionType references a function declaration by its index.
type FunctionType struct {
	Idx int
}

func (FunctionType) isExpressionType() {}
func (FunctionType) TypeKind() string  { return "Function" }
func (t FunctionType) String() string  { return fmt.Sprintf("fn#%d", t.Idx) }

// IntrinsicKind enumerates the built-in intrinsic operations the resolver
// can rewrite a CallFunction/AccessIndex method call into.
type IntrinsicKind int

const (
	IntrinsicUnknown IntrinsicKind = iota
	IntrinsicArraySize
	IntrinsicCrossProduct
	IntrinsicDotProduct
	IntrinsicExp
	IntrinsicInverse
	IntrinsicLength
	IntrinsicMax
	IntrinsicMin
	IntrinsicMod
	IntrinsicNormalize
	IntrinsicPow
	IntrinsicReflect
	IntrinsicRound
	IntrinsicSaturatingCast
	IntrinsicSelect
	IntrinsicTextureRead
	IntrinsicTextureSampleImplicitLod
	IntrinsicTextureSampleImplicitLodDepthComp
	IntrinsicTextureWrite
	IntrinsicTranspose
)

func (k IntrinsicKind) String() string {
	names := map[IntrinsicKind]string{
		IntrinsicArraySize:                          "array_size",
		IntrinsicCrossProduct:                        "cross",
		IntrinsicDotProduct:                          "dot",
		IntrinsicExp:                                 "exp",
		IntrinsicInverse:                             "inverse",
		IntrinsicLength:                              "length",
		IntrinsicMax:                                 "max",
		IntrinsicMin:                                 "min",
		IntrinsicMod:                                 "mod",
		IntrinsicNormalize:                            "normalize",
		IntrinsicPow:                                  "pow",
		IntrinsicReflect:                              "reflect",
		IntrinsicRound:                                "round",
		IntrinsicSaturatingCast:                       "saturating_cast",
		IntrinsicSelect:                               "select",
		IntrinsicTextureRead:                          "texture_read",
		IntrinsicTextureSampleImplicitLod:             "texture_sample",
		IntrinsicTextureSampleImplicitLodDepthComp:    "texture_sample_depth",
		IntrinsicTextureWrite:                         "texture_write",
		IntrinsicTranspose:                            "transpose",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "<unknown intrinsic>"
}

// IntrinsicFunctionType is the type of an identifier bound to a built-in
// intrinsic; resolving a CallFunction against it rewrites the call node
// into an Intrinsic expression (§4 CallFunction row).
type IntrinsicFunctionType struct {
	Kind IntrinsicKind
}

func (IntrinsicFunctionType) isExpressionType() {}
func (IntrinsicFunctionType) TypeKind() string  { return "IntrinsicFunction" }
func (t IntrinsicFunctionType) String() string  { return t.Kind.String() }

// TextureDim enumerates the sampler/texture dimensionality.
type TextureDim int

const (
	Dim1D TextureDim = iota
	Dim2D
	Dim3D
	DimCube
	Dim2DArray
	DimCubeArray
)

func (d TextureDim) String() string {
	switch d {
	case Dim1D:
		return "1D"
	case Dim2D:
		return "2D"
	case Dim3D:
		return "3D"
	case DimCube:
		return "Cube"
	case Dim2DArray:
		return "2DArray"
	case DimCubeArray:
		return "CubeArray"
	default:
		return "<invalid dim>"
	}
}

// SamplerType is the type of a `sampler2D<f32>`-style external resource.
type SamplerType struct {
	Elem  Primitive
	Dim   TextureDim
	Depth bool
}

func (SamplerType) isExpressionType() {}
func (SamplerType) TypeKind() string  { return "Sampler" }
func (t SamplerType) String() string {
	suffix := ""
	if t.Depth {
		suffix = "Shadow"
	}
	return fmt.Sprintf("sampler%s%s<%s>", t.Dim, suffix, t.Elem)
}

// AccessQualifier is the storage-access mode of a texture/storage binding.
type AccessQualifier int

const (
	AccessReadOnly AccessQualifier = iota
	AccessWriteOnly
	AccessReadWrite
)

func (a AccessQualifier) String() string {
	switch a {
	case AccessReadOnly:
		return "read"
	case AccessWriteOnly:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return "<invalid access>"
	}
}

// TextureFormat names the texel layout of a storage texture binding.
type TextureFormat string

// TextureType is the type of a `texture2D<f32, write, rgba8>`-style resource.
type TextureType struct {
	Format TextureFormat
	Elem   Primitive
	Dim    TextureDim
	Access AccessQualifier
}

func (TextureType) isExpressionType() {}
func (TextureType) TypeKind() string  { return "Texture" }
func (t TextureType) String() string {
	return fmt.Sprintf("texture%s<%s, %s, %s>", t.Dim, t.Elem, t.Access, t.Format)
}

// StorageType wraps a struct as a read/write storage-buffer binding.
type StorageType struct {
	StructIdx int
	Access    AccessQualifier
}

func (StorageType) isExpressionType() {}
func (StorageType) TypeKind() string  { return "Storage" }
func (t StorageType) String() string  { return fmt.Sprintf("storage<struct#%d, %s>", t.StructIdx, t.Access) }

// UniformType wraps a struct as a uniform-buffer binding.
type UniformType struct {
	StructIdx int
}

func (UniformType) isExpressionType() {}
func (UniformType) TypeKind() string  { return "Uniform" }
func (t UniformType) String() string  { return fmt.Sprintf("uniform<struct#%d>", t.StructIdx) }

// PushConstantType wraps a struct as a push-constant block.
type PushConstantType struct {
	StructIdx int
}

func (PushConstantType) isExpressionType() {}
func (PushConstantType) TypeKind() string  { return "PushConstant" }
func (t PushConstantType) String() string  { return fmt.Sprintf("push_constant<struct#%d>", t.StructIdx) }

// AliasType is an indirection through the aliases table; Target is what
// resolve_alias ultimately unwraps to.
type AliasType struct {
	Target   ExpressionType
	AliasIdx int
}

func (AliasType) isExpressionType() {}
func (AliasType) TypeKind() string  { return "Alias" }
func (t AliasType) String() string  { return fmt.Sprintf("alias#%d -> %s", t.AliasIdx, t.Target) }

// ModuleType is the type of an identifier bound to an imported module.
type ModuleType struct {
	Idx int
}

func (ModuleType) isExpressionType() {}
func (ModuleType) TypeKind() string  { return "Module" }
func (t ModuleType) String() string  { return fmt.Sprintf("module#%d", t.Idx) }

// NamedExternalBlockType is the type of an identifier bound to a named
// `external Foo { ... }` block.
type NamedExternalBlockType struct {
	Idx int
}

func (NamedExternalBlockType) isExpressionType() {}
func (NamedExternalBlockType) TypeKind() string  { return "NamedExternalBlock" }
func (t NamedExternalBlockType) String() string  { return fmt.Sprintf("external_block#%d", t.Idx) }

// MethodType is produced by AccessIdentifier against a sampler/texture/
// array-typed object; resolving the subsequent CallFunction rewrites it
// into the intrinsic the method index denotes (§4 AccessIdentifier, CallFunction).
type MethodType struct {
	Object    ExpressionType
	MethodIdx int
}

func (MethodType) isExpressionType() {}
func (MethodType) TypeKind() string  { return "Method" }
func (t MethodType) String() string  { return fmt.Sprintf("method#%d(%s)", t.MethodIdx, t.Object) }

// TypeRef is a reference into context.types: the type of an identifier
// that *denotes* a type (a partial-type constructor name, or a fully
// resolved type used as a first-class value ahead of Cast/AccessIndex
// rewriting). Distinct from an instantiated type per §3.
type TypeRef struct {
	Idx int
}

func (TypeRef) isExpressionType() {}
func (TypeRef) TypeKind() string  { return "Type" }
func (t TypeRef) String() string  { return fmt.Sprintf("type#%d", t.Idx) }

// --- helpers -----------------------------------------------------------

// IsStruct reports whether t is (after alias resolution by the caller) a
// struct-shaped type: bare StructType or a Uniform/Storage/PushConstant
// wrapper around one.
func IsStruct(t ExpressionType) bool {
	switch t.(type) {
	case StructType, UniformType, StorageType, PushConstantType:
		return true
	default:
		return false
	}
}

// IsPrimitive reports whether t is a bare scalar type.
func IsPrimitive(t ExpressionType) bool {
	_, ok := t.(PrimitiveType)
	return ok
}

// IsVector reports whether t is a vector type.
func IsVector(t ExpressionType) bool {
	_, ok := t.(VectorType)
	return ok
}

// IsMatrix reports whether t is a matrix type.
func IsMatrix(t ExpressionType) bool {
	_, ok := t.(MatrixType)
	return ok
}

// IsArray reports whether t is a fixed or dynamic array type.
func IsArray(t ExpressionType) bool {
	switch t.(type) {
	case ArrayType, DynArrayType:
		return true
	default:
		return false
	}
}

// IsNoType reports whether t is the partial-compilation placeholder.
func IsNoType(t ExpressionType) bool {
	_, ok := t.(NoType)
	return ok
}

// ResolveAlias chases AliasType indirection down to the concrete type it
// ultimately names. Used throughout §4 wherever the spec says
// "resolve_alias(x.type)" before comparing or branching on a type.
func ResolveAlias(t ExpressionType) ExpressionType {
	for {
		alias, ok := t.(AliasType)
		if !ok {
			return t
		}
		t = alias.Target
	}
}

// WrapExternal re-wraps inner (a struct-shaped field type) in the same
// Uniform/Storage/PushConstant wrapper that outer carries, preserving the
// wrapper across a field access into a resource-block struct (§4
// AccessField: "preserve outer Uniform/Storage wrapper around inner
// struct field type").
func WrapExternal(outer ExpressionType, inner ExpressionType) ExpressionType {
	switch o := outer.(type) {
	case UniformType:
		if s, ok := inner.(StructType); ok {
			return UniformType{StructIdx: s.Idx}
		}
	case StorageType:
		if s, ok := inner.(StructType); ok {
			return StorageType{StructIdx: s.Idx, Access: o.Access}
		}
	case PushConstantType:
		if s, ok := inner.(StructType); ok {
			return PushConstantType{StructIdx: s.Idx}
		}
	}
	return inner
}

// Equal compares two types for structural equality after resolving
// aliases on both sides, since §4 repeatedly requires
// "resolve_alias(l.type) == resolve_alias(r.type)".
func Equal(a, b ExpressionType) bool {
	a, b = ResolveAlias(a), ResolveAlias(b)
	if a.TypeKind() != b.TypeKind() {
		return false
	}
	switch av := a.(type) {
	case PrimitiveType:
		return av.Kind == b.(PrimitiveType).Kind
	case VectorType:
		bv := b.(VectorType)
		return av.Elem == bv.Elem && av.Len == bv.Len
	case MatrixType:
		bv := b.(MatrixType)
		return av.Elem == bv.Elem && av.Cols == bv.Cols && av.Rows == bv.Rows
	case ArrayType:
		bv := b.(ArrayType)
		return av.Len == bv.Len && Equal(av.Elem, bv.Elem)
	case DynArrayType:
		return Equal(av.Elem, b.(DynArrayType).Elem)
	case StructType:
		return av.Idx == b.(StructType).Idx
	case FunctionType:
		return av.Idx == b.(FunctionType).Idx
	case IntrinsicFunctionType:
		return av.Kind == b.(IntrinsicFunctionType).Kind
	case SamplerType:
		bv := b.(SamplerType)
		return av.Elem == bv.Elem && av.Dim == bv.Dim && av.Depth == bv.Depth
	case TextureType:
		bv := b.(TextureType)
		return av.Elem == bv.Elem && av.Dim == bv.Dim && av.Access == bv.Access && av.Format == bv.Format
	case StorageType:
		bv := b.(StorageType)
		return av.StructIdx == bv.StructIdx && av.Access == bv.Access
	case UniformType:
		return av.StructIdx == b.(UniformType).StructIdx
	case PushConstantType:
		return av.StructIdx == b.(PushConstantType).StructIdx
	case ModuleType:
		return av.Idx == b.(ModuleType).Idx
	case NamedExternalBlockType:
		return av.Idx == b.(NamedExternalBlockType).Idx
	case TypeRef:
		return av.Idx == b.(TypeRef).Idx
	case NoType:
		return true
	default:
		return false
	}
}

// String renders t the way §4.6's Stringifier closures do for
// user-facing diagnostics: t's own String() output, or "<nil type>"
// when t is nil.
func String(t ExpressionType) string {
	if t == nil {
		return "<nil type>"
	}
	var sb strings.Builder
	sb.WriteString(t.String())
	return sb.String()
}
