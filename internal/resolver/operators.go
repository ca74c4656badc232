package resolver

import (
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveBinary implements the §4 Binary row.
func (r *Resolver) resolveBinary(b *ast.Binary) (transform.Transformation, error) {
	left, err := r.driver.Expr(b.Left)
	if err != nil {
		return transform.Transformation{}, err
	}
	right, err := r.driver.Expr(b.Right)
	if err != nil {
		return transform.Transformation{}, err
	}
	b.Left, b.Right = left, right

	lt := types.ResolveAlias(typeOf(left))
	rt := types.ResolveAlias(typeOf(right))

	result, err := validateBinaryOp(b.Op, lt, rt, b.Pos())
	if err != nil {
		return transform.Transformation{}, err
	}
	b.SetCachedType(result)
	return transform.Skip(), nil
}

// validateBinaryOp is the §4 Binary row's decision table. Modulo on
// floats is not a primitive operator at this level — the folder/backend
// lowers it to a runtime routine call, so this rule only needs to
// accept the type combination, not emit the call itself.
func validateBinaryOp(op ast.BinaryOp, lt, rt types.ExpressionType, pos token.Position) (types.ExpressionType, error) {
	if op.IsComparison() {
		switch op {
		case ast.BinCompEq, ast.BinCompNe:
			if !types.Equal(lt, rt) {
				return nil, diag.New(diag.KindUnmatchingTypes, pos, "comparison requires matching types, got %s and %s", lt, rt)
			}
			return types.PrimitiveType{Kind: types.Bool}, nil
		default: // Lt/Le/Gt/Ge
			if isBoolType(lt) || isBoolType(rt) {
				return nil, diag.New(diag.KindBinaryUnsupported, pos, "relational operators do not accept bool operands")
			}
			if !types.Equal(lt, rt) {
				return nil, diag.New(diag.KindUnmatchingTypes, pos, "comparison requires matching types, got %s and %s", lt, rt)
			}
			return types.PrimitiveType{Kind: types.Bool}, nil
		}
	}

	switch op {
	case ast.BinLogicalAnd, ast.BinLogicalOr:
		if !isBoolType(lt) || !isBoolType(rt) {
			return nil, diag.New(diag.KindBinaryUnsupported, pos, "logical operators require bool operands, got %s and %s", lt, rt)
		}
		return types.PrimitiveType{Kind: types.Bool}, nil

	case ast.BinBitwiseAnd, ast.BinBitwiseOr, ast.BinBitwiseXor, ast.BinShiftLeft, ast.BinShiftRight:
		lp, lok := lt.(types.PrimitiveType)
		rp, rok := rt.(types.PrimitiveType)
		if !lok || !rok || !lp.Kind.IsInteger() || !rp.Kind.IsInteger() {
			return nil, diag.New(diag.KindBinaryUnsupported, pos, "bitwise operators require integer operands, got %s and %s", lt, rt)
		}
		return lt, nil

	default: // Add, Sub, Mul, Div, Mod
		return validateArithmeticOp(op, lt, rt, pos)
	}
}

func validateArithmeticOp(op ast.BinaryOp, lt, rt types.ExpressionType, pos token.Position) (types.ExpressionType, error) {
	// scalar * scalar, vector/matrix (componentwise or scalar broadcast)
	if types.Equal(lt, rt) {
		if isNumericShape(lt) {
			return lt, nil
		}
		return nil, diag.New(diag.KindBinaryUnsupported, pos, "arithmetic operators require numeric operands, got %s", lt)
	}

	// componentwise vector/matrix x scalar broadcast, either order
	if broadcast, ok := broadcastResult(op, lt, rt); ok {
		return broadcast, nil
	}
	if broadcast, ok := broadcastResult(op, rt, lt); ok {
		return broadcast, nil
	}

	return nil, diag.New(diag.KindBinaryIncompatibleTypes, pos, "incompatible operand types %s and %s", lt, rt)
}

// broadcastResult handles container OP scalar (vector/matrix times a
// matching-element-type scalar), returning the container's own type.
func broadcastResult(op ast.BinaryOp, container, scalar types.ExpressionType) (types.ExpressionType, bool) {
	scalarPrim, ok := scalar.(types.PrimitiveType)
	if !ok {
		return nil, false
	}
	switch c := container.(type) {
	case types.VectorType:
		if c.Elem == scalarPrim.Kind {
			return c, true
		}
	case types.MatrixType:
		if op == ast.BinMul && c.Elem == scalarPrim.Kind {
			return c, true
		}
	}
	return nil, false
}

func isNumericShape(t types.ExpressionType) bool {
	switch tv := t.(type) {
	case types.PrimitiveType:
		return tv.Kind.IsNumeric()
	case types.VectorType, types.MatrixType:
		return true
	default:
		return false
	}
}

func isBoolType(t types.ExpressionType) bool {
	p, ok := t.(types.PrimitiveType)
	return ok && p.Kind == types.Bool
}

// resolveUnary implements the §4 Unary row.
func (r *Resolver) resolveUnary(u *ast.Unary) (transform.Transformation, error) {
	operand, err := r.driver.Expr(u.Operand)
	if err != nil {
		return transform.Transformation{}, err
	}
	u.Operand = operand
	t := types.ResolveAlias(typeOf(operand))

	switch u.Op {
	case ast.UnaryLogicalNot:
		if !isBoolType(t) {
			return transform.Transformation{}, r.err(diag.KindUnaryUnsupported, u.Pos(), "! requires a bool operand, got %s", t)
		}
	case ast.UnaryBitwiseNot:
		p, ok := t.(types.PrimitiveType)
		if !ok || !p.Kind.IsInteger() {
			return transform.Transformation{}, r.err(diag.KindUnaryUnsupported, u.Pos(), "~ requires an integer operand, got %s", t)
		}
	case ast.UnaryMinus, ast.UnaryPlus:
		if !isNumericScalarOrVector(t) {
			return transform.Transformation{}, r.err(diag.KindUnaryUnsupported, u.Pos(), "unary %s requires a numeric scalar or vector operand, got %s", u.Op, t)
		}
	}
	u.SetCachedType(t)
	return transform.Skip(), nil
}

func isNumericScalarOrVector(t types.ExpressionType) bool {
	switch tv := t.(type) {
	case types.PrimitiveType:
		return tv.Kind.IsNumeric()
	case types.VectorType:
		return true
	default:
		return false
	}
}

// resolveAssign implements the §4 Assign row. Compound operators lower
// to Binary + Simple in place, so downstream passes only ever see a
// Simple assignment node.
func (r *Resolver) resolveAssign(a *ast.Assign) (transform.Transformation, error) {
	left, err := r.driver.Expr(a.Left)
	if err != nil {
		return transform.Transformation{}, err
	}
	if !isLValue(left) {
		return transform.Transformation{}, r.err(diag.KindAssignTemporary, a.Pos(), "left-hand side of an assignment must be an l-value")
	}
	a.Left = left

	if a.Op != ast.AssignSimple {
		binOp := compoundToBinaryOp(a.Op)
		a.Right = &ast.Binary{BaseExpr: ast.BaseExpr{Location: a.Pos()}, Left: left, Right: a.Right, Op: binOp}
		a.Op = ast.AssignSimple
	}

	right, err := r.driver.Expr(a.Right)
	if err != nil {
		return transform.Transformation{}, err
	}
	a.Right = right

	lt := types.ResolveAlias(typeOf(left))
	rt := types.ResolveAlias(typeOf(right))
	if !types.Equal(lt, rt) {
		return transform.Transformation{}, r.err(diag.KindUnmatchingTypes, a.Pos(), "cannot assign %s to %s", rt, lt)
	}
	a.SetCachedType(lt)
	return transform.Skip(), nil
}

func compoundToBinaryOp(op ast.AssignOp) ast.BinaryOp {
	switch op {
	case ast.AssignAdd:
		return ast.BinAdd
	case ast.AssignSub:
		return ast.BinSub
	case ast.AssignMul:
		return ast.BinMul
	case ast.AssignDiv:
		return ast.BinDiv
	default:
		return ast.BinAdd
	}
}

// isLValue reports whether expr denotes a mutable storage location
// rather than a temporary (§4 Assign row, AssignTemporary error).
func isLValue(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.VariableValueExpression:
		return true
	case *ast.AccessField:
		return isLValue(e.Expr)
	case *ast.AccessIndex:
		return isLValue(e.Expr)
	case *ast.Swizzle:
		return isLValue(e.Expr)
	default:
		return false
	}
}

// resolveSwizzle handles a Swizzle node the driver revisits after
// resolveAccessIdentifier already built it (§8 invariant 2, fixed
// point): re-validate against the (already resolved) child without
// rebuilding, since the node is already in its final shape.
func (r *Resolver) resolveSwizzle(s *ast.Swizzle) (transform.Transformation, error) {
	if s.CachedType() != nil {
		return transform.Skip(), nil
	}
	child, err := r.driver.Expr(s.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}
	s.Expr = child
	t := types.ResolveAlias(typeOf(child))
	if !isSwizzleCandidate(t) {
		return transform.Transformation{}, r.err(diag.KindSwizzleUnexpectedType, s.Pos(), "swizzle requires a vector or scalar expression, got %s", t)
	}
	vecLen := 1
	elem := types.F32
	if v, ok := t.(types.VectorType); ok {
		vecLen, elem = v.Len, v.Elem
	} else if p, ok := t.(types.PrimitiveType); ok {
		elem = p.Kind
	}
	for _, c := range s.Components {
		if c < 0 || c >= vecLen {
			return transform.Transformation{}, r.err(diag.KindInvalidSwizzle, s.Pos(), "swizzle component out of range for this vector")
		}
	}
	if len(s.Components) == 1 {
		s.SetCachedType(types.PrimitiveType{Kind: elem})
	} else {
		s.SetCachedType(types.VectorType{Elem: elem, Len: len(s.Components)})
	}
	return transform.Skip(), nil
}
