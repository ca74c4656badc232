package rctx

import (
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// ParamCategory enumerates what kind of argument a PartialType
// constructor accepts in a given parameter slot (§4.4.ter).
type ParamCategory int

const (
	ParamConstantValue ParamCategory = iota
	ParamFullType
	ParamPrimitiveType
	ParamStructType
)

// Param is one actual argument passed to a PartialType's Build, already
// classified and unwrapped to its payload by the caller (resolver.resolveAccessIndex).
type Param struct {
	Constant  constant.Value
	Type      types.ExpressionType
	Primitive types.Primitive
	StructIdx int
	Category  ParamCategory
}

// PartialType is a parameterised type constructor such as `array<T,N>`,
// `vec4<T>`, `uniform<S>`, `texture2D<T, Access, Format?>` (§4.4.ter,
// glossary "Partial type").
type PartialType struct {
	// Build validates params against Required/Optional and emits the
	// constructed type, or an error (CastIncompatibleTypes-family or
	// PartialTypeTooFewParameters/TooMany, raised by the caller when
	// len(params) falls outside [len(Required), len(Required)+len(Optional)]).
	Build func(params []Param, loc token.Position) (types.ExpressionType, error)

	Name     string
	Required []ParamCategory
	Optional []ParamCategory
}

// Arity returns the inclusive [min, max] number of parameters Build accepts.
func (p *PartialType) Arity() (min, max int) {
	return len(p.Required), len(p.Required) + len(p.Optional)
}

// CategoryAt returns the expected category for parameter index i (0-based),
// across the concatenation of Required then Optional.
func (p *PartialType) CategoryAt(i int) (ParamCategory, bool) {
	if i < len(p.Required) {
		return p.Required[i], true
	}
	j := i - len(p.Required)
	if j < len(p.Optional) {
		return p.Optional[j], true
	}
	return 0, false
}
