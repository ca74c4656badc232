package resolver

import (
	"math"

	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveConstantValue implements the §4 ConstantValue row, lowering any
// untyped literal payload to its default concrete primitive ("Untyped
// literals": IntLit -> i32, FloatLit -> f32) before caching the type.
// Idempotent: a node the driver revisits after it already carries a
// cached type is left untouched (§8 invariant 2, fixed point).
func (r *Resolver) resolveConstantValue(c *ast.ConstantValueExpression) (transform.Transformation, error) {
	if c.CachedType() != nil {
		return transform.Skip(), nil
	}
	lowered, t, err := r.lowerValue(c.Value, c.Pos())
	if err != nil {
		return transform.Transformation{}, err
	}
	c.Value = lowered
	c.SetCachedType(t)
	return transform.Skip(), nil
}

// resolveConstantArrayValue implements the §4 ConstantArrayValue row:
// every element is lowered individually and must agree on a single
// element type once lowered.
func (r *Resolver) resolveConstantArrayValue(c *ast.ConstantArrayValueExpression) (transform.Transformation, error) {
	if c.CachedType() != nil {
		return transform.Skip(), nil
	}
	var elemType types.ExpressionType
	lowered := make([]constant.Value, len(c.Values))
	for i, v := range c.Values {
		lv, t, err := r.lowerValue(v, c.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		lowered[i] = lv
		if i == 0 {
			elemType = t
		} else if !types.Equal(elemType, t) {
			return transform.Transformation{}, r.err(diag.KindUnmatchingTypes, c.Pos(), "array literal elements must share a type, got %s and %s", elemType, t)
		}
	}
	if elemType == nil {
		elemType = types.NoType{}
	}
	c.Values = lowered
	c.SetCachedType(types.ArrayType{Elem: elemType, Len: uint32(len(lowered))})
	return transform.Skip(), nil
}

// resolveConstantRef implements the §4 Constant row: table lookup and
// marking the referenced constant/option used for C10's reachability sweep.
func (r *Resolver) resolveConstantRef(c *ast.ConstantExpression) (transform.Transformation, error) {
	cdata, err := r.ctx.Constants.Retrieve(c.ConstIdx, c.Pos())
	if err != nil {
		return transform.Transformation{}, r.internalf(c, "constant table: %v", err)
	}
	if !cdata.Used {
		updated := *cdata
		updated.Used = true
		r.ctx.Constants.Update(c.ConstIdx, updated)
	}
	if c.CachedType() == nil {
		c.SetCachedType(cdata.Type)
	}
	return transform.Skip(), nil
}

// resolveVariableRef implements the §4 Variable row: table lookup of the
// local variable's/parameter's declared type.
func (r *Resolver) resolveVariableRef(v *ast.VariableValueExpression) (transform.Transformation, error) {
	if v.CachedType() != nil {
		return transform.Skip(), nil
	}
	vdata, err := r.ctx.Variables.Retrieve(v.VarIdx, v.Pos())
	if err != nil {
		return transform.Transformation{}, r.internalf(v, "variable table: %v", err)
	}
	v.SetCachedType(vdata.Type)
	return transform.Skip(), nil
}

// resolveExprWithExpectedType resolves expr the same way r.driver.Expr
// does, except that an untyped literal expression directly at this
// position (not one buried inside a nested subexpression) is lowered to
// expected instead of its i32/f32 default: "resolve_untyped(declared_type,
// value) lowers to the declared type when a typed context is present,
// falling back to the default only if a typed context is absent."
func (r *Resolver) resolveExprWithExpectedType(expr ast.Expression, expected types.ExpressionType) (ast.Expression, error) {
	if expected != nil {
		switch c := expr.(type) {
		case *ast.ConstantValueExpression:
			if c.CachedType() == nil {
				lowered, t, err := r.lowerValueToType(c.Value, c.Pos(), expected)
				if err != nil {
					return nil, err
				}
				c.Value = lowered
				c.SetCachedType(t)
				return c, nil
			}
		case *ast.ConstantArrayValueExpression:
			if c.CachedType() == nil {
				lowered, t, err := r.lowerValueToType(constant.Array{Elements: c.Values}, c.Pos(), expected)
				if err != nil {
					return nil, err
				}
				c.Values = lowered.(constant.Array).Elements
				c.SetCachedType(t)
				return c, nil
			}
		}
	}
	return r.driver.Expr(expr)
}

// maxUint32 bounds lowerValueToType's IntLit -> u32 range check.
const maxUint32 = 1<<32 - 1

// lowerValueToType lowers v the way lowerValue does, except that an
// untyped literal kind (IntLit/FloatLit) is converted to expected
// instead of its default primitive when expected names a compatible
// concrete type. Falls back to lowerValue's default behaviour for
// already-concrete values and for an expected type that doesn't apply
// (e.g. a literal under a struct-typed annotation).
func (r *Resolver) lowerValueToType(v constant.Value, pos token.Position, expected types.ExpressionType) (constant.Value, types.ExpressionType, error) {
	switch vv := v.(type) {
	case constant.IntLit:
		pt, ok := expected.(types.PrimitiveType)
		if !ok {
			return r.lowerValue(v, pos)
		}
		switch pt.Kind {
		case types.I32:
			if int64(vv) < math.MinInt32 || int64(vv) > math.MaxInt32 {
				return nil, nil, r.err(diag.KindLiteralOutOfRange, pos, "integer literal %d does not fit in i32", int64(vv))
			}
			return constant.I32(vv), pt, nil
		case types.U32:
			if int64(vv) < 0 || int64(vv) > maxUint32 {
				return nil, nil, r.err(diag.KindLiteralOutOfRange, pos, "integer literal %d does not fit in u32", int64(vv))
			}
			return constant.U32(vv), pt, nil
		case types.F32:
			return constant.F32(vv), pt, nil
		case types.F64:
			return constant.F64(vv), pt, nil
		default:
			return r.lowerValue(v, pos)
		}

	case constant.FloatLit:
		pt, ok := expected.(types.PrimitiveType)
		if !ok {
			return r.lowerValue(v, pos)
		}
		switch pt.Kind {
		case types.F32:
			f := float64(vv)
			if f > math.MaxFloat32 || f < -math.MaxFloat32 {
				return nil, nil, r.err(diag.KindLiteralOutOfRange, pos, "float literal %g does not fit in f32", f)
			}
			return constant.F32(vv), pt, nil
		case types.F64:
			return constant.F64(vv), pt, nil
		default:
			return r.lowerValue(v, pos)
		}

	case constant.Vector:
		vt, ok := expected.(types.VectorType)
		if !ok {
			return r.lowerValue(v, pos)
		}
		comps := make([]constant.Value, len(vv.Components))
		for i, c := range vv.Components {
			lc, _, err := r.lowerValueToType(c, pos, types.PrimitiveType{Kind: vt.Elem})
			if err != nil {
				return nil, nil, err
			}
			comps[i] = lc
		}
		return constant.Vector{Components: comps}, vt, nil

	case constant.Matrix:
		mt, ok := expected.(types.MatrixType)
		if !ok {
			return r.lowerValue(v, pos)
		}
		cols := make([]constant.Vector, len(vv.Columns))
		colType := types.VectorType{Elem: mt.Elem, Len: mt.Rows}
		for i, col := range vv.Columns {
			lc, _, err := r.lowerValueToType(col, pos, colType)
			if err != nil {
				return nil, nil, err
			}
			lv, ok := lc.(constant.Vector)
			if !ok {
				return nil, nil, r.err(diag.KindInvalidConstantIndex, pos, "matrix constant column must be a vector")
			}
			cols[i] = lv
		}
		return constant.Matrix{Columns: cols}, mt, nil

	case constant.Array:
		at, ok := expected.(types.ArrayType)
		if !ok {
			return r.lowerValue(v, pos)
		}
		elems := make([]constant.Value, len(vv.Elements))
		for i, e := range vv.Elements {
			le, _, err := r.lowerValueToType(e, pos, at.Elem)
			if err != nil {
				return nil, nil, err
			}
			elems[i] = le
		}
		return constant.Array{Elements: elems}, at, nil

	default:
		return r.lowerValue(v, pos)
	}
}

// lowerValue lowers v if it is an untyped literal, returning the
// replacement value (unchanged if already concrete) and its
// ExpressionType. Aggregate values (Vector/Matrix/Array) are lowered
// component-wise.
func (r *Resolver) lowerValue(v constant.Value, pos token.Position) (constant.Value, types.ExpressionType, error) {
	switch vv := v.(type) {
	case constant.Bool:
		return vv, types.PrimitiveType{Kind: types.Bool}, nil
	case constant.I32:
		return vv, types.PrimitiveType{Kind: types.I32}, nil
	case constant.U32:
		return vv, types.PrimitiveType{Kind: types.U32}, nil
	case constant.F32:
		return vv, types.PrimitiveType{Kind: types.F32}, nil
	case constant.F64:
		return vv, types.PrimitiveType{Kind: types.F64}, nil

	case constant.IntLit:
		if int64(vv) < math.MinInt32 || int64(vv) > math.MaxInt32 {
			return nil, nil, r.err(diag.KindLiteralOutOfRange, pos, "integer literal %d does not fit in i32", int64(vv))
		}
		return constant.I32(vv), types.PrimitiveType{Kind: types.I32}, nil

	case constant.FloatLit:
		f := float64(vv)
		if f > math.MaxFloat32 || f < -math.MaxFloat32 {
			return nil, nil, r.err(diag.KindLiteralOutOfRange, pos, "float literal %g does not fit in f32", f)
		}
		return constant.F32(vv), types.PrimitiveType{Kind: types.F32}, nil

	case constant.Vector:
		comps := make([]constant.Value, len(vv.Components))
		var elem types.Primitive
		for i, c := range vv.Components {
			lc, t, err := r.lowerValue(c, pos)
			if err != nil {
				return nil, nil, err
			}
			comps[i] = lc
			p, ok := t.(types.PrimitiveType)
			if !ok {
				return nil, nil, r.err(diag.KindInvalidConstantIndex, pos, "vector constant component must be a scalar")
			}
			elem = p.Kind
		}
		return constant.Vector{Components: comps}, types.VectorType{Elem: elem, Len: len(comps)}, nil

	case constant.Matrix:
		cols := make([]constant.Vector, len(vv.Columns))
		var elem types.Primitive
		rows := 0
		for i, col := range vv.Columns {
			lowered, t, err := r.lowerValue(col, pos)
			if err != nil {
				return nil, nil, err
			}
			lv, ok := lowered.(constant.Vector)
			if !ok {
				return nil, nil, r.err(diag.KindInvalidConstantIndex, pos, "matrix constant column must be a vector")
			}
			cols[i] = lv
			vt := t.(types.VectorType)
			elem, rows = vt.Elem, vt.Len
		}
		return constant.Matrix{Columns: cols}, types.MatrixType{Elem: elem, Cols: len(cols), Rows: rows}, nil

	case constant.Array:
		elems := make([]constant.Value, len(vv.Elements))
		var elemType types.ExpressionType
		for i, e := range vv.Elements {
			le, t, err := r.lowerValue(e, pos)
			if err != nil {
				return nil, nil, err
			}
			elems[i] = le
			if i == 0 {
				elemType = t
			} else if !types.Equal(elemType, t) {
				return nil, nil, r.err(diag.KindUnmatchingTypes, pos, "array constant elements must share a type")
			}
		}
		if elemType == nil {
			elemType = types.NoType{}
		}
		return constant.Array{Elements: elems}, types.ArrayType{Elem: elemType, Len: uint32(len(elems))}, nil

	default:
		return nil, nil, r.internalf(&ast.ConstantValueExpression{BaseExpr: ast.BaseExpr{Location: pos}}, "unhandled constant value kind %T", v)
	}
}
