package resolver

import (
	"github.com/shaderlang/slc/internal/constfold"
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveAccessField implements the §4 AccessField row for nodes the
// parser produces directly (as opposed to ones resolveAccessIdentifier
// rewrites from a struct segment, which already carry the right type).
func (r *Resolver) resolveAccessField(a *ast.AccessField) (transform.Transformation, error) {
	expr, err := r.driver.Expr(a.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}
	outer := types.ResolveAlias(typeOf(expr))
	if !types.IsStruct(outer) {
		return transform.Transformation{}, r.err(diag.KindFieldUnexpectedType, a.Pos(), "field access requires a struct-shaped expression, got %s", outer)
	}
	structIdx := unwrapStructIdx(outer)
	desc, rerr := r.ctx.Structs.Retrieve(structIdx, a.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(a, "struct table: %v", rerr)
	}
	if a.FieldIdx < 0 || a.FieldIdx >= len(desc.Desc.Members) {
		return transform.Transformation{}, r.err(diag.KindIndexOutOfBounds, a.Pos(), "field index %d out of bounds for struct with %d members", a.FieldIdx, len(desc.Desc.Members))
	}
	member := desc.Desc.Members[a.FieldIdx]
	fieldType, terr := r.exprAnnotationType(member.TypeAnnotation, a.Pos())
	if terr != nil {
		return transform.Transformation{}, terr
	}
	a.Expr = expr
	a.SetCachedType(types.WrapExternal(outer, fieldType))
	return transform.Skip(), nil
}

// resolveAccessIndex implements the §4 AccessIndex row: partial-type
// instantiation when Expr names a PartialType, otherwise single-index
// container access into an array, matrix, vector, or struct.
func (r *Resolver) resolveAccessIndex(a *ast.AccessIndex) (transform.Transformation, error) {
	expr, err := r.driver.Expr(a.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}

	if typeExpr, ok := expr.(*ast.TypeExpression); ok {
		tdata, terr := r.ctx.Types.Retrieve(typeExpr.TypeIdx, a.Pos())
		if terr != nil {
			return transform.Transformation{}, r.internalf(a, "type table: %v", terr)
		}
		if tdata.Partial != nil {
			return r.instantiatePartialType(a, tdata.Partial)
		}
		return transform.Transformation{}, r.err(diag.KindExpectedPartialType, a.Pos(), "type is not a partial type and cannot be indexed")
	}

	if len(a.Indices) != 1 {
		return transform.Transformation{}, r.err(diag.KindIndexRequiresIntegerIndices, a.Pos(), "container access requires exactly one index")
	}
	idx, ierr := r.driver.Expr(a.Indices[0])
	if ierr != nil {
		return transform.Transformation{}, ierr
	}
	a.Indices[0] = idx
	idxType := types.ResolveAlias(typeOf(idx))
	idxPrim, isPrim := idxType.(types.PrimitiveType)
	if !isPrim || !idxPrim.Kind.IsInteger() {
		return transform.Transformation{}, r.err(diag.KindIndexRequiresIntegerIndices, a.Pos(), "index must be i32/u32, got %s", idxType)
	}

	outer := types.ResolveAlias(typeOf(expr))
	switch t := outer.(type) {
	case types.ArrayType:
		a.Expr = expr
		a.SetCachedType(t.Elem)
		return transform.Skip(), nil

	case types.DynArrayType:
		a.Expr = expr
		a.SetCachedType(t.Elem)
		return transform.Skip(), nil

	case types.MatrixType:
		a.Expr = expr
		a.SetCachedType(types.VectorType{Elem: t.Elem, Len: t.Rows})
		return transform.Skip(), nil

	case types.VectorType:
		a.Expr = expr
		a.SetCachedType(types.PrimitiveType{Kind: t.Elem})
		return transform.Skip(), nil

	default:
		if types.IsStruct(outer) {
			if idxPrim.Kind != types.I32 {
				return transform.Transformation{}, r.err(diag.KindIndexStructRequiresInt32Indices, a.Pos(), "struct indexing requires an i32 constant index")
			}
			value, foldable, ferr := constfold.Eval(r.ctx, idx)
			if ferr != nil {
				return transform.Transformation{}, ferr
			}
			fieldIdx, isI32 := value.(constant.I32)
			if !foldable || !isI32 {
				return transform.Transformation{}, r.err(diag.KindIndexStructRequiresInt32Indices, a.Pos(), "struct indexing requires an i32 constant index")
			}
			field := &ast.AccessField{BaseExpr: ast.BaseExpr{Location: a.Pos()}, Expr: expr, FieldIdx: int(fieldIdx)}
			if _, ferr := r.resolveAccessField(field); ferr != nil {
				return transform.Transformation{}, ferr
			}
			return transform.ReplaceExpr(field), nil
		}
		return transform.Transformation{}, r.err(diag.KindIndexUnexpectedType, a.Pos(), "cannot index a value of type %s", outer)
	}
}

// instantiatePartialType resolves every index expression, classifies
// each into the ParamCategory the partial type's Build expects, and
// invokes Build, rewriting the AccessIndex node to a TypeExpression
// naming the freshly registered concrete type (§4.4.ter).
func (r *Resolver) instantiatePartialType(a *ast.AccessIndex, pt *rctx.PartialType) (transform.Transformation, error) {
	minArity, maxArity := pt.Arity()
	if len(a.Indices) < minArity {
		return transform.Transformation{}, r.err(diag.KindPartialTypeTooFewParameters, a.Pos(), "%s requires at least %d type parameter(s), got %d", pt.Name, minArity, len(a.Indices))
	}
	if len(a.Indices) > maxArity {
		return transform.Transformation{}, r.err(diag.KindPartialTypeTooManyParameters, a.Pos(), "%s accepts at most %d type parameter(s), got %d", pt.Name, maxArity, len(a.Indices))
	}

	params := make([]rctx.Param, len(a.Indices))
	for i, idxExpr := range a.Indices {
		resolved, err := r.driver.Expr(idxExpr)
		if err != nil {
			return transform.Transformation{}, err
		}
		a.Indices[i] = resolved
		category, _ := pt.CategoryAt(i)
		param, err := r.classifyPartialParam(resolved, category, a.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		params[i] = param
	}

	built, err := pt.Build(params, a.Pos())
	if err != nil {
		return transform.Transformation{}, err
	}
	if r.opts.RemoveConstArraySize {
		if at, ok := built.(types.ArrayType); ok {
			built = types.ArrayType{Elem: at.Elem, Len: 0}
		}
	}

	idx := r.ctx.Types.RegisterNewIndex(false)
	r.ctx.Types.Update(idx, rctx.TypeData{Content: built, Name: built.String()})

	result := &ast.TypeExpression{BaseExpr: ast.BaseExpr{Location: a.Pos()}, TypeIdx: idx}
	result.SetCachedType(types.TypeRef{Idx: idx})
	return transform.ReplaceExpr(result), nil
}

// classifyPartialParam narrows a resolved index expression to the
// rctx.Param shape pt's Build expects for this slot.
func (r *Resolver) classifyPartialParam(expr ast.Expression, category rctx.ParamCategory, loc token.Position) (rctx.Param, error) {
	switch category {
	case rctx.ParamPrimitiveType:
		typeExpr, ok := expr.(*ast.TypeExpression)
		if !ok {
			return rctx.Param{}, r.err(diag.KindIntrinsicExpectedType, loc, "expected a primitive type parameter")
		}
		tdata, err := r.ctx.Types.Retrieve(typeExpr.TypeIdx, loc)
		if err != nil {
			return rctx.Param{}, r.internalf(expr, "type table: %v", err)
		}
		prim, ok := tdata.Content.(types.PrimitiveType)
		if !ok {
			return rctx.Param{}, r.err(diag.KindIntrinsicExpectedType, loc, "expected a primitive type parameter, got %s", tdata.Content)
		}
		return rctx.Param{Category: rctx.ParamPrimitiveType, Primitive: prim.Kind}, nil

	case rctx.ParamFullType:
		t, err := r.resolvedTypeOfExpr(expr, loc)
		if err != nil {
			return rctx.Param{}, err
		}
		return rctx.Param{Category: rctx.ParamFullType, Type: t}, nil

	case rctx.ParamStructType:
		t, err := r.resolvedTypeOfExpr(expr, loc)
		if err != nil {
			return rctx.Param{}, err
		}
		st, ok := t.(types.StructType)
		if !ok {
			return rctx.Param{}, r.err(diag.KindIntrinsicExpectedType, loc, "expected a struct type parameter, got %s", t)
		}
		return rctx.Param{Category: rctx.ParamStructType, StructIdx: st.Idx}, nil

	case rctx.ParamConstantValue:
		value, foldable, ferr := constfold.Eval(r.ctx, expr)
		if ferr != nil {
			return rctx.Param{}, ferr
		}
		if !foldable {
			return rctx.Param{}, r.err(diag.KindConstantExpressionRequired, loc, "expected a constant-valued type parameter")
		}
		return rctx.Param{Category: rctx.ParamConstantValue, Constant: value}, nil

	default:
		return rctx.Param{}, r.internalf(expr, "unhandled partial-type parameter category")
	}
}

// resolvedTypeOfExpr reads the ExpressionType a TypeExpression or
// StructTypeExpression denotes, for a FullType/StructType partial-type
// parameter slot.
func (r *Resolver) resolvedTypeOfExpr(expr ast.Expression, loc token.Position) (types.ExpressionType, error) {
	switch e := expr.(type) {
	case *ast.TypeExpression:
		tdata, err := r.ctx.Types.Retrieve(e.TypeIdx, loc)
		if err != nil {
			return nil, r.internalf(expr, "type table: %v", err)
		}
		if tdata.Partial != nil {
			return nil, r.err(diag.KindExpectedPartialType, loc, "expected a fully instantiated type, got an uninstantiated partial type %s", tdata.Partial.Name)
		}
		return tdata.Content, nil
	case *ast.StructTypeExpression:
		return types.StructType{Idx: e.StructIdx}, nil
	default:
		return nil, r.err(diag.KindIntrinsicExpectedType, loc, "expected a type parameter")
	}
}
