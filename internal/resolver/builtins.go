package resolver

import (
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// registerBuiltins populates the global environment and context.Types/
// context.Intrinsics with the language's built-in scalar type names,
// partial-type constructors (§4.4.ter), and intrinsic function bindings
// (§4 Intrinsic row), so an Identifier("vec3") or Identifier("dot")
// resolves the same way a user declaration would, via the ordinary
// env.Find path. Grounded on NZSL's SanitizeVisitor, which populates an
// equivalent set of built-in identifiers ahead of resolving any module.
func registerBuiltins(global *env.Environment, ctx *rctx.Context) {
	registerFullType(global, ctx, "bool", types.PrimitiveType{Kind: types.Bool})
	registerFullType(global, ctx, "f32", types.PrimitiveType{Kind: types.F32})
	registerFullType(global, ctx, "f64", types.PrimitiveType{Kind: types.F64})
	registerFullType(global, ctx, "i32", types.PrimitiveType{Kind: types.I32})
	registerFullType(global, ctx, "u32", types.PrimitiveType{Kind: types.U32})

	for _, n := range []int{2, 3, 4} {
		registerPartialType(global, ctx, vecPartial(n))
	}
	for _, c := range []int{2, 3, 4} {
		for _, r := range []int{2, 3, 4} {
			registerPartialType(global, ctx, matPartial(c, r))
		}
	}

	registerPartialType(global, ctx, arrayPartial())
	registerPartialType(global, ctx, dynArrayPartial())
	registerPartialType(global, ctx, uniformPartial())
	registerPartialType(global, ctx, storagePartial())
	registerPartialType(global, ctx, pushConstantPartial())

	for _, dim := range []types.TextureDim{types.Dim1D, types.Dim2D, types.Dim3D, types.DimCube, types.Dim2DArray, types.DimCubeArray} {
		registerPartialType(global, ctx, samplerPartial(dim, false))
		registerPartialType(global, ctx, samplerPartial(dim, true))
		registerPartialType(global, ctx, texturePartial(dim))
	}

	registerIntrinsic(global, ctx, "array_size", types.IntrinsicArraySize)
	registerIntrinsic(global, ctx, "cross", types.IntrinsicCrossProduct)
	registerIntrinsic(global, ctx, "dot", types.IntrinsicDotProduct)
	registerIntrinsic(global, ctx, "exp", types.IntrinsicExp)
	registerIntrinsic(global, ctx, "inverse", types.IntrinsicInverse)
	registerIntrinsic(global, ctx, "length", types.IntrinsicLength)
	registerIntrinsic(global, ctx, "max", types.IntrinsicMax)
	registerIntrinsic(global, ctx, "min", types.IntrinsicMin)
	registerIntrinsic(global, ctx, "mod", types.IntrinsicMod)
	registerIntrinsic(global, ctx, "normalize", types.IntrinsicNormalize)
	registerIntrinsic(global, ctx, "pow", types.IntrinsicPow)
	registerIntrinsic(global, ctx, "reflect", types.IntrinsicReflect)
	registerIntrinsic(global, ctx, "round", types.IntrinsicRound)
	registerIntrinsic(global, ctx, "saturating_cast", types.IntrinsicSaturatingCast)
	registerIntrinsic(global, ctx, "select", types.IntrinsicSelect)
	registerIntrinsic(global, ctx, "transpose", types.IntrinsicTranspose)
}

func registerFullType(global *env.Environment, ctx *rctx.Context, name string, t types.ExpressionType) int {
	idx := ctx.Types.RegisterNewIndex(false)
	ctx.Types.Update(idx, rctx.TypeData{Content: t, Name: name})
	global.Register(name, env.Data{Kind: env.KindType, Index: idx})
	return idx
}

func registerPartialType(global *env.Environment, ctx *rctx.Context, pt *rctx.PartialType) int {
	idx := ctx.Types.RegisterNewIndex(false)
	ctx.Types.Update(idx, rctx.TypeData{Partial: pt, Name: pt.Name})
	global.Register(pt.Name, env.Data{Kind: env.KindType, Index: idx})
	return idx
}

func registerIntrinsic(global *env.Environment, ctx *rctx.Context, name string, kind types.IntrinsicKind) int {
	idx := ctx.Intrinsics.RegisterNewIndex(false)
	ctx.Intrinsics.Update(idx, rctx.IntrinsicData{Kind: kind})
	global.Register(name, env.Data{Kind: env.KindIntrinsic, Index: idx})
	return idx
}

func vecPartial(n int) *rctx.PartialType {
	return &rctx.PartialType{
		Name:     vecName(n),
		Required: []rctx.ParamCategory{rctx.ParamPrimitiveType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			if len(params) != 1 {
				return nil, diag.New(diag.KindPartialTypeTooManyParameters, loc, "%s takes exactly one element type parameter", vecName(n))
			}
			return types.VectorType{Elem: params[0].Primitive, Len: n}, nil
		},
	}
}

func matPartial(cols, rows int) *rctx.PartialType {
	name := matName(cols, rows)
	return &rctx.PartialType{
		Name:     name,
		Required: []rctx.ParamCategory{rctx.ParamPrimitiveType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			if !params[0].Primitive.IsFloat() {
				return nil, diag.New(diag.KindCastIncompatibleBaseTypes, loc, "%s element type must be floating-point", name)
			}
			return types.MatrixType{Elem: params[0].Primitive, Cols: cols, Rows: rows}, nil
		},
	}
}

func arrayPartial() *rctx.PartialType {
	return &rctx.PartialType{
		Name:     "array",
		Required: []rctx.ParamCategory{rctx.ParamFullType, rctx.ParamConstantValue},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			n, err := constU32(params[1].Constant, loc)
			if err != nil {
				return nil, err
			}
			return types.ArrayType{Elem: params[0].Type, Len: n}, nil
		},
	}
}

func dynArrayPartial() *rctx.PartialType {
	return &rctx.PartialType{
		Name:     "dyn_array",
		Required: []rctx.ParamCategory{rctx.ParamFullType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.DynArrayType{Elem: params[0].Type}, nil
		},
	}
}

func uniformPartial() *rctx.PartialType {
	return &rctx.PartialType{
		Name:     "uniform",
		Required: []rctx.ParamCategory{rctx.ParamStructType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.UniformType{StructIdx: params[0].StructIdx}, nil
		},
	}
}

// storagePartial omits the Access qualifier as a type parameter — in
// this core it defaults to read_write and is narrowed, if at all, by a
// separate attribute on the owning DeclareExternalStatement var rather
// than by a second partial-type parameter, since §4.4.ter only lists
// the four param categories {ConstantValue, FullType, PrimitiveType,
// StructType} and an access-qualifier enum doesn't cleanly fit any of
// them without inventing a fifth category the spec doesn't define.
func storagePartial() *rctx.PartialType {
	return &rctx.PartialType{
		Name:     "storage",
		Required: []rctx.ParamCategory{rctx.ParamStructType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.StorageType{StructIdx: params[0].StructIdx, Access: types.AccessReadWrite}, nil
		},
	}
}

func pushConstantPartial() *rctx.PartialType {
	return &rctx.PartialType{
		Name:     "push_constant",
		Required: []rctx.ParamCategory{rctx.ParamStructType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.PushConstantType{StructIdx: params[0].StructIdx}, nil
		},
	}
}

func samplerPartial(dim types.TextureDim, depth bool) *rctx.PartialType {
	name := "sampler" + dim.String()
	if depth {
		name += "Shadow"
	}
	return &rctx.PartialType{
		Name:     name,
		Required: []rctx.ParamCategory{rctx.ParamPrimitiveType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.SamplerType{Elem: params[0].Primitive, Dim: dim, Depth: depth}, nil
		},
	}
}

// texturePartial likewise omits Access/Format as type parameters for
// the same reason storagePartial does; a storage texture's access mode
// and texel format are read off the owning external variable's
// attributes by the linker/backend, not encoded in the type itself here.
func texturePartial(dim types.TextureDim) *rctx.PartialType {
	name := "texture" + dim.String()
	return &rctx.PartialType{
		Name:     name,
		Required: []rctx.ParamCategory{rctx.ParamPrimitiveType},
		Build: func(params []rctx.Param, loc token.Position) (types.ExpressionType, error) {
			return types.TextureType{Elem: params[0].Primitive, Dim: dim, Access: types.AccessReadWrite}, nil
		},
	}
}

func vecName(n int) string {
	switch n {
	case 2:
		return "vec2"
	case 3:
		return "vec3"
	default:
		return "vec4"
	}
}

func matName(cols, rows int) string {
	return "mat" + digit(cols) + "x" + digit(rows)
}

func digit(n int) string {
	return string(rune('0' + n))
}

// constU32 narrows a folded constant to a non-negative array length.
func constU32(v constant.Value, loc token.Position) (uint32, error) {
	switch n := v.(type) {
	case constant.U32:
		return uint32(n), nil
	case constant.I32:
		if n < 0 {
			return 0, diag.New(diag.KindLiteralOutOfRange, loc, "array length must not be negative")
		}
		return uint32(n), nil
	case constant.IntLit:
		if n < 0 {
			return 0, diag.New(diag.KindLiteralOutOfRange, loc, "array length must not be negative")
		}
		return uint32(n), nil
	default:
		return 0, diag.New(diag.KindIndexUnexpectedType, loc, "array length must be an integer constant")
	}
}
