package resolver

import (
	"github.com/shaderlang/slc/internal/constfold"
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveCallFunction implements the §4 CallFunction row: dispatch on
// what kind of thing Target resolved to, rewriting the node or keeping
// it in the FunctionType case.
func (r *Resolver) resolveCallFunction(c *ast.CallFunction) (transform.Transformation, error) {
	target, err := r.driver.Expr(c.Target)
	if err != nil {
		return transform.Transformation{}, err
	}
	c.Target = target
	targetType := target.CachedType()

	switch tt := targetType.(type) {
	case types.FunctionType:
		return r.resolveFunctionCall(c, tt)
	case types.IntrinsicFunctionType:
		node := &ast.Intrinsic{BaseExpr: ast.BaseExpr{Location: c.Pos()}, Kind: tt.Kind, Args: c.Args}
		resolved, err := r.driver.Expr(node)
		if err != nil {
			return transform.Transformation{}, err
		}
		return transform.ReplaceExpr(resolved), nil
	case types.MethodType:
		kind, err := methodToIntrinsicKind(tt, c.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		args := append([]ast.Expression{target}, c.Args...)
		node := &ast.Intrinsic{BaseExpr: ast.BaseExpr{Location: c.Pos()}, Kind: kind, Args: args}
		resolved, err := r.resolveIntrinsicArgsAlreadyFirst(node)
		if err != nil {
			return transform.Transformation{}, err
		}
		return transform.ReplaceExpr(resolved), nil
	case types.TypeRef:
		return r.resolveTypeCast(c, tt)
	default:
		return transform.Transformation{}, r.err(diag.KindFunctionCallExpectedFunction, c.Pos(), "cannot call a value of type %s", targetType)
	}
}

func (r *Resolver) resolveFunctionCall(c *ast.CallFunction, tt types.FunctionType) (transform.Transformation, error) {
	fdata, err := r.ctx.Functions.Retrieve(tt.Idx, c.Pos())
	if err != nil {
		return transform.Transformation{}, r.internalf(c, "function table: %v", err)
	}
	if fdata.HasEntry {
		return transform.Transformation{}, r.err(diag.KindFunctionCallUnexpectedEntryFunction, c.Pos(), "entry-stage functions cannot be called")
	}
	if len(c.Args) != len(fdata.Node.Params) {
		return transform.Transformation{}, r.err(diag.KindFunctionCallUnmatchingParameterCount, c.Pos(), "expected %d arguments, got %d", len(fdata.Node.Params), len(c.Args))
	}
	args := make([]ast.Expression, len(c.Args))
	for i, arg := range c.Args {
		resolved, err := r.driver.Expr(arg)
		if err != nil {
			return transform.Transformation{}, err
		}
		args[i] = resolved
		paramType, err := r.exprAnnotationType(fdata.Node.Params[i].TypeAnnotation, c.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		if !types.Equal(typeOf(resolved), paramType) {
			return transform.Transformation{}, r.err(diag.KindFunctionCallUnmatchingParameterType, c.Pos(), "argument %d: expected %s, got %s", i, paramType, typeOf(resolved))
		}
	}
	c.Args = args

	var resultType types.ExpressionType = types.NoType{}
	if fdata.Node.ReturnType != nil {
		resultType, err = r.exprAnnotationType(fdata.Node.ReturnType, c.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
	}
	c.SetCachedType(resultType)
	return transform.Skip(), nil
}

// methodToIntrinsicKind maps an AccessIdentifier-tagged MethodType to
// the intrinsic CallFunction rewrites it into (§4 CallFunction row).
func methodToIntrinsicKind(m types.MethodType, pos token.Position) (types.IntrinsicKind, error) {
	switch obj := m.Object.(type) {
	case types.ArrayType, types.DynArrayType:
		return types.IntrinsicArraySize, nil
	case types.SamplerType:
		if obj.Depth {
			return types.IntrinsicTextureSampleImplicitLodDepthComp, nil
		}
		return types.IntrinsicTextureSampleImplicitLod, nil
	case types.TextureType:
		if m.MethodIdx == 1 {
			return types.IntrinsicTextureWrite, nil
		}
		return types.IntrinsicTextureRead, nil
	default:
		return 0, diag.New(diag.KindInvalidMethodIndex, pos, "method access on unsupported object type %s", m.Object)
	}
}

// resolveIntrinsicArgsAlreadyFirst resolves every argument past index 0
// (the object the method was accessed on, already resolved) and then
// runs the ordinary intrinsic validation.
func (r *Resolver) resolveIntrinsicArgsAlreadyFirst(node *ast.Intrinsic) (ast.Expression, error) {
	for i := 1; i < len(node.Args); i++ {
		resolved, err := r.driver.Expr(node.Args[i])
		if err != nil {
			return nil, err
		}
		node.Args[i] = resolved
	}
	if _, err := r.intrinsicResultType(node); err != nil {
		return nil, err
	}
	return node, nil
}

// resolveTypeCast implements the TypeExpression branch of CallFunction:
// a full type rewrites to Cast, a partial type invokes its Build with
// zero-arity-optional parameters treated as a no-argument instantiation
// (§4.4.ter "CallFunction(TypeExpression, args) with zero arguments also
// succeeds if arity = 0").
func (r *Resolver) resolveTypeCast(c *ast.CallFunction, tt types.TypeRef) (transform.Transformation, error) {
	tdata, err := r.ctx.Types.Retrieve(tt.Idx, c.Pos())
	if err != nil {
		return transform.Transformation{}, r.internalf(c, "type table: %v", err)
	}
	if tdata.Partial != nil {
		minArity, _ := tdata.Partial.Arity()
		if minArity != 0 {
			return transform.Transformation{}, r.err(diag.KindPartialTypeTooFewParameters, c.Pos(), "%s cannot be instantiated with zero type parameters", tdata.Partial.Name)
		}
		built, err := tdata.Partial.Build(nil, c.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		cast := &ast.Cast{BaseExpr: ast.BaseExpr{Location: c.Pos()}, Args: c.Args}
		cast.SetCachedType(built)
		resolved, err := r.driver.Expr(cast)
		if err != nil {
			return transform.Transformation{}, err
		}
		return transform.ReplaceExpr(resolved), nil
	}

	cast := &ast.Cast{BaseExpr: ast.BaseExpr{Location: c.Pos()}, Args: c.Args}
	cast.SetCachedType(tdata.Content)
	resolved, err := r.driver.Expr(cast)
	if err != nil {
		return transform.Transformation{}, err
	}
	return transform.ReplaceExpr(resolved), nil
}

// resolveIntrinsic implements the §4 Intrinsic row.
func (r *Resolver) resolveIntrinsic(i *ast.Intrinsic) (transform.Transformation, error) {
	args := make([]ast.Expression, len(i.Args))
	for idx, a := range i.Args {
		resolved, err := r.driver.Expr(a)
		if err != nil {
			return transform.Transformation{}, err
		}
		args[idx] = resolved
	}
	i.Args = args
	resultType, err := r.intrinsicResultType(i)
	if err != nil {
		return transform.Transformation{}, err
	}
	i.SetCachedType(resultType)
	return transform.Skip(), nil
}

// intrinsicResultType validates i.Args against the per-kind parameter
// categories this core's registered intrinsic set needs and derives the
// result type (§4 Intrinsic row). The result is U32 for array_size, the
// element scalar for dot/length, the swapped-dimension matrix for
// transpose, the saturating_cast target primitive, the texture-dependent
// type for the texture intrinsics, and the shared argument type for the
// remaining kinds.
func (r *Resolver) intrinsicResultType(i *ast.Intrinsic) (types.ExpressionType, error) {
	switch i.Kind {
	case types.IntrinsicArraySize:
		if len(i.Args) != 1 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "array_size takes exactly one argument")
		}
		if !types.IsArray(types.ResolveAlias(typeOf(i.Args[0]))) {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "array_size requires an array argument")
		}
		return types.PrimitiveType{Kind: types.U32}, nil

	case types.IntrinsicCrossProduct:
		if len(i.Args) != 2 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "cross takes exactly two arguments")
		}
		v, err := r.requireMatchingVectors(i, 3)
		if err != nil {
			return nil, err
		}
		return v, nil

	case types.IntrinsicDotProduct:
		if len(i.Args) != 2 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "dot takes exactly two arguments")
		}
		v, err := r.requireMatchingVectors(i, 0)
		if err != nil {
			return nil, err
		}
		return types.PrimitiveType{Kind: v.Elem}, nil

	case types.IntrinsicInverse, types.IntrinsicTranspose:
		if len(i.Args) != 1 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "%s takes exactly one argument", i.Kind)
		}
		m, ok := types.ResolveAlias(typeOf(i.Args[0])).(types.MatrixType)
		if !ok {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires a matrix argument", i.Kind)
		}
		if i.Kind == types.IntrinsicTranspose {
			return types.MatrixType{Elem: m.Elem, Cols: m.Rows, Rows: m.Cols}, nil
		}
		return m, nil

	case types.IntrinsicLength, types.IntrinsicNormalize:
		if len(i.Args) != 1 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "%s takes exactly one argument", i.Kind)
		}
		t := types.ResolveAlias(typeOf(i.Args[0]))
		v, ok := t.(types.VectorType)
		if !ok {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires a vector argument", i.Kind)
		}
		if i.Kind == types.IntrinsicLength {
			return types.PrimitiveType{Kind: v.Elem}, nil
		}
		return v, nil

	case types.IntrinsicMax, types.IntrinsicMin, types.IntrinsicMod, types.IntrinsicPow, types.IntrinsicReflect:
		if len(i.Args) != 2 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "%s takes exactly two arguments", i.Kind)
		}
		t0 := types.ResolveAlias(typeOf(i.Args[0]))
		if !isNumericShape(t0) {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires numeric arguments", i.Kind)
		}
		if !types.Equal(t0, types.ResolveAlias(typeOf(i.Args[1]))) {
			return nil, r.err(diag.KindIntrinsicUnmatchingVecComponent, i.Pos(), "%s requires matching argument types", i.Kind)
		}
		return t0, nil

	case types.IntrinsicExp, types.IntrinsicRound:
		if len(i.Args) != 1 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "%s takes exactly one argument", i.Kind)
		}
		t := types.ResolveAlias(typeOf(i.Args[0]))
		if !isFloatShape(t) {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires a floating-point argument", i.Kind)
		}
		return t, nil

	case types.IntrinsicSaturatingCast:
		return r.intrinsicSaturatingCastResultType(i)

	case types.IntrinsicSelect:
		if len(i.Args) != 3 {
			return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "select takes exactly three arguments")
		}
		if !isBoolType(types.ResolveAlias(typeOf(i.Args[2]))) {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "select's third argument must be bool")
		}
		t0 := types.ResolveAlias(typeOf(i.Args[0]))
		if !types.Equal(t0, types.ResolveAlias(typeOf(i.Args[1]))) {
			return nil, r.err(diag.KindIntrinsicUnmatchingVecComponent, i.Pos(), "select requires its first two arguments to share a type")
		}
		return t0, nil

	case types.IntrinsicTextureRead, types.IntrinsicTextureWrite,
		types.IntrinsicTextureSampleImplicitLod, types.IntrinsicTextureSampleImplicitLodDepthComp:
		return r.intrinsicTextureResultType(i)

	default:
		return nil, r.internalf(i, "unhandled intrinsic kind %s", i.Kind)
	}
}

// intrinsicSaturatingCastResultType handles saturating_cast(value, type):
// a numeric scalar value and a TypeExpression naming the numeric
// primitive to saturate into, result is that primitive.
func (r *Resolver) intrinsicSaturatingCastResultType(i *ast.Intrinsic) (types.ExpressionType, error) {
	if len(i.Args) != 2 {
		return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "saturating_cast takes exactly two arguments")
	}
	t0 := types.ResolveAlias(typeOf(i.Args[0]))
	p0, ok := t0.(types.PrimitiveType)
	if !ok || !p0.Kind.IsNumeric() {
		return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "saturating_cast requires a numeric scalar value, got %s", t0)
	}
	typeExpr, ok := i.Args[1].(*ast.TypeExpression)
	if !ok {
		return nil, r.err(diag.KindIntrinsicExpectedType, i.Pos(), "saturating_cast's second argument must name a target type")
	}
	tdata, err := r.ctx.Types.Retrieve(typeExpr.TypeIdx, i.Pos())
	if err != nil {
		return nil, r.internalf(i, "type table: %v", err)
	}
	target, ok := tdata.Content.(types.PrimitiveType)
	if !ok || !target.Kind.IsNumeric() {
		return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "saturating_cast target must be a numeric primitive type, got %s", tdata.Content)
	}
	return target, nil
}

func (r *Resolver) requireMatchingVectors(i *ast.Intrinsic, wantLen int) (types.VectorType, error) {
	t0, ok := types.ResolveAlias(typeOf(i.Args[0])).(types.VectorType)
	if !ok {
		return types.VectorType{}, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires vector arguments", i.Kind)
	}
	t1, ok := types.ResolveAlias(typeOf(i.Args[1])).(types.VectorType)
	if !ok || t0 != t1 {
		return types.VectorType{}, r.err(diag.KindIntrinsicUnmatchingVecComponent, i.Pos(), "%s requires matching vector arguments", i.Kind)
	}
	if wantLen != 0 && t0.Len != wantLen {
		return types.VectorType{}, r.err(diag.KindIntrinsicUnmatchingVecComponent, i.Pos(), "%s requires %d-component vectors", i.Kind, wantLen)
	}
	return t0, nil
}

func isFloatShape(t types.ExpressionType) bool {
	switch tv := t.(type) {
	case types.PrimitiveType:
		return tv.Kind.IsFloat()
	case types.VectorType:
		return tv.Elem.IsFloat()
	default:
		return false
	}
}

// intrinsicTextureResultType handles the four texture/sampler intrinsics
// this core's builtin set registers. The object is always args[0]
// (either the MethodType-tagged receiver prepended by resolveCallFunction,
// or, for a direct Intrinsic literal in partial-compilation leftovers,
// the first argument as written).
func (r *Resolver) intrinsicTextureResultType(i *ast.Intrinsic) (types.ExpressionType, error) {
	if len(i.Args) == 0 {
		return nil, r.err(diag.KindIntrinsicExpectedParameterCount, i.Pos(), "%s requires at least one argument", i.Kind)
	}
	obj := types.ResolveAlias(typeOf(i.Args[0]))
	switch i.Kind {
	case types.IntrinsicTextureSampleImplicitLod, types.IntrinsicTextureSampleImplicitLodDepthComp:
		s, ok := obj.(types.SamplerType)
		if !ok {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "%s requires a sampler receiver", i.Kind)
		}
		if i.Kind == types.IntrinsicTextureSampleImplicitLodDepthComp {
			return types.PrimitiveType{Kind: s.Elem}, nil
		}
		return types.VectorType{Elem: s.Elem, Len: 4}, nil
	case types.IntrinsicTextureRead:
		t, ok := obj.(types.TextureType)
		if !ok {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "texture_read requires a texture receiver")
		}
		return types.VectorType{Elem: t.Elem, Len: 4}, nil
	case types.IntrinsicTextureWrite:
		if _, ok := obj.(types.TextureType); !ok {
			return nil, r.err(diag.KindIntrinsicUnmatchingParameterType, i.Pos(), "texture_write requires a texture receiver")
		}
		return types.NoType{}, nil
	default:
		return nil, r.internalf(i, "unhandled texture intrinsic kind %s", i.Kind)
	}
}

// resolveConditional implements the §4 Conditional row. Because every
// node in this tree has exactly one parent, replacing the whole
// Conditional with whichever arm the folded condition selects needs no
// deep copy the way the original's reference-counted clone(t)/clone(f)
// did — the chosen arm's subtree is simply adopted in place.
func (r *Resolver) resolveConditional(c *ast.Conditional) (transform.Transformation, error) {
	cond, err := r.driver.Expr(c.Cond)
	if err != nil {
		return transform.Transformation{}, err
	}
	c.Cond = cond
	if !isBoolType(types.ResolveAlias(typeOf(cond))) {
		return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, c.Pos(), "conditional expression's condition must be bool")
	}

	value, foldable, err := constfold.EvalBool(r.ctx, cond)
	if err != nil {
		return transform.Transformation{}, err
	}
	if !foldable {
		if r.allowUnknown {
			then, err := r.driver.Expr(c.Then)
			if err != nil {
				return transform.Transformation{}, err
			}
			els, err := r.driver.Expr(c.Else)
			if err != nil {
				return transform.Transformation{}, err
			}
			c.Then, c.Else = then, els
			return transform.Skip(), nil
		}
		return transform.Transformation{}, r.err(diag.KindConstantExpressionRequired, c.Pos(), "conditional expression's condition must fold to a constant")
	}

	chosen := c.Then
	if !value {
		chosen = c.Else
	}
	resolved, err := r.driver.Expr(chosen)
	if err != nil {
		return transform.Transformation{}, err
	}
	return transform.ReplaceExpr(resolved), nil
}
