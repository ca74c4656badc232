package resolver

import (
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveCast implements the §4 Cast row and §4.4.quater's shape table.
// Target is already a fully resolved ExpressionType by the time Cast
// exists in the tree (produced only by resolveCallFunction rewriting a
// CallFunction against a TypeExpression), so this rule reads it off the
// node's own cached type rather than re-resolving a Target expression.
func (r *Resolver) resolveCast(c *ast.Cast) (transform.Transformation, error) {
	args := make([]ast.Expression, len(c.Args))
	for i, arg := range c.Args {
		resolved, err := r.driver.Expr(arg)
		if err != nil {
			return transform.Transformation{}, err
		}
		args[i] = resolved
	}
	c.Args = args

	target := c.CachedType()
	if target == nil {
		return transform.Transformation{}, r.internalf(c, "Cast node reached resolveCast with no target type set")
	}

	resultType, err := validateCastShape(target, args, c.Pos())
	if err != nil {
		return transform.Transformation{}, err
	}
	c.SetCachedType(resultType)
	return transform.Skip(), nil
}

// validateCastShape implements §4.4.quater.
func validateCastShape(target types.ExpressionType, args []ast.Expression, pos token.Position) (types.ExpressionType, error) {
	switch t := target.(type) {
	case types.MatrixType:
		return validateMatrixCast(t, args, pos)
	case types.VectorType:
		return validateVectorCast(t, args, pos)
	case types.PrimitiveType:
		if len(args) != 1 {
			return nil, diag.New(diag.KindCastComponentMismatch, pos, "scalar cast takes exactly one argument, got %d", len(args))
		}
		if !convertiblePrimitive(t.Kind, args[0]) {
			return nil, diag.New(diag.KindCastIncompatibleTypes, pos, "cannot cast %s to %s", typeOf(args[0]), t)
		}
		return t, nil
	case types.ArrayType:
		elemCount := t.Len
		if elemCount == 0 {
			elemCount = uint32(len(args))
		}
		if uint32(len(args)) != elemCount {
			return nil, diag.New(diag.KindCastComponentMismatch, pos, "array cast expects %d elements, got %d", elemCount, len(args))
		}
		for _, a := range args {
			if !types.Equal(typeOf(a), t.Elem) {
				return nil, diag.New(diag.KindCastIncompatibleTypes, pos, "array element type mismatch: expected %s, got %s", t.Elem, typeOf(a))
			}
		}
		return types.ArrayType{Elem: t.Elem, Len: elemCount}, nil
	default:
		return nil, diag.New(diag.KindInvalidCast, pos, "cannot cast to %s", target)
	}
}

func validateMatrixCast(t types.MatrixType, args []ast.Expression, pos token.Position) (types.ExpressionType, error) {
	if len(args) == 1 {
		if m, ok := types.ResolveAlias(typeOf(args[0])).(types.MatrixType); ok {
			if m.Elem != t.Elem {
				return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "matrix cast requires matching element type, got %s", m.Elem)
			}
			return t, nil
		}
		if v, ok := types.ResolveAlias(typeOf(args[0])).(types.VectorType); ok {
			_ = v
			return nil, diag.New(diag.KindCastMatrixVectorComponentMismatch, pos, "matrix cast from a single vector requires %d vectors of %d components, got 1", t.Cols, t.Rows)
		}
	}
	allVectors := true
	allPrimitives := true
	for _, a := range args {
		switch types.ResolveAlias(typeOf(a)).(type) {
		case types.VectorType:
			allPrimitives = false
		case types.PrimitiveType:
			allVectors = false
		default:
			allVectors, allPrimitives = false, false
		}
	}
	if allVectors {
		if len(args) != t.Cols {
			return nil, diag.New(diag.KindCastMatrixExpectedVectorOrScalar, pos, "matrix cast from column vectors expects %d vectors, got %d", t.Cols, len(args))
		}
		for _, a := range args {
			v := types.ResolveAlias(typeOf(a)).(types.VectorType)
			if v.Elem != t.Elem || v.Len != t.Rows {
				return nil, diag.New(diag.KindCastMatrixVectorComponentMismatch, pos, "each column vector must be %d components of %s", t.Rows, t.Elem)
			}
		}
		return t, nil
	}
	if allPrimitives {
		full := t.Cols * t.Rows
		if len(args) == full {
			for _, a := range args {
				p := types.ResolveAlias(typeOf(a)).(types.PrimitiveType)
				if p.Kind != t.Elem {
					return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "matrix cast elements must all be %s", t.Elem)
				}
			}
			return t, nil
		}
		if len(args) == 1 {
			p := types.ResolveAlias(typeOf(args[0])).(types.PrimitiveType)
			if p.Kind != t.Elem {
				return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "matrix diagonal cast element must be %s", t.Elem)
			}
			return t, nil
		}
		return nil, diag.New(diag.KindCastComponentMismatch, pos, "matrix cast from scalars expects 1 (diagonal) or %d (full) arguments, got %d", full, len(args))
	}
	return nil, diag.New(diag.KindCastMatrixExpectedVectorOrScalar, pos, "matrix cast expects vector or scalar arguments")
}

func validateVectorCast(t types.VectorType, args []ast.Expression, pos token.Position) (types.ExpressionType, error) {
	sum := 0
	for _, a := range args {
		at := types.ResolveAlias(typeOf(a))
		switch av := at.(type) {
		case types.PrimitiveType:
			if av.Kind != t.Elem && !primitiveConvertible(av.Kind, t.Elem) {
				return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "vector cast component must convert to %s, got %s", t.Elem, av.Kind)
			}
			sum++
		case types.VectorType:
			if av.Len == t.Len && len(args) == 1 {
				if av.Elem != t.Elem && !primitiveConvertible(av.Elem, t.Elem) {
					return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "vector cast requires convertible element type, got %s", av.Elem)
				}
				return t, nil
			}
			if av.Elem != t.Elem {
				return nil, diag.New(diag.KindCastIncompatibleBaseTypes, pos, "vector cast component must be %s, got %s", t.Elem, av.Elem)
			}
			sum += av.Len
		default:
			return nil, diag.New(diag.KindCastIncompatibleTypes, pos, "vector cast arguments must be scalars or vectors, got %s", at)
		}
	}
	if sum != t.Len {
		return nil, diag.New(diag.KindCastComponentMismatch, pos, "vector cast component count %d does not match target length %d", sum, t.Len)
	}
	return t, nil
}

// convertiblePrimitive reports whether arg's type can convert to target
// under the §4.4.quater primitive convertibility matrix.
func convertiblePrimitive(target types.Primitive, arg ast.Expression) bool {
	at := types.ResolveAlias(typeOf(arg))
	p, ok := at.(types.PrimitiveType)
	if !ok {
		return false
	}
	return p.Kind == target || primitiveConvertible(p.Kind, target)
}

// primitiveConvertible implements "primitive→primitive if both ∈
// {f32,f64,i32,u32}" (§4.4.quater), plus untyped literals converting to
// any numeric primitive they'd otherwise be defaulted into.
func primitiveConvertible(from, to types.Primitive) bool {
	numeric := map[types.Primitive]bool{types.F32: true, types.F64: true, types.I32: true, types.U32: true}
	if from.IsLiteral() {
		return to.IsNumeric()
	}
	return numeric[from] && numeric[to]
}
