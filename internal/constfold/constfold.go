// Package constfold implements ConstantPropagation (C8, §4.5): a
// recursive evaluator that folds an already-resolved expression tree
// down to a constant.Value when every operand is itself constant.
// Grounded on the teacher's own constant-folding pass
// (internal/semantic/analyze_expr.go's literal-folding special cases)
// generalized here into its own standalone pass operating over already
// type-checked nodes, the way NZSL's ConstantPropagationVisitor is a
// separate AST pass run after (and re-run during) sanitization rather
// than inlined into the type checker.
//
// Numeric semantics follow IEEE-754 for floating operations and
// two's-complement wraparound for integer arithmetic; saturation only
// happens when an explicit saturating intrinsic is folded. Division by
// zero on integers is refused (Eval reports not-foldable rather than
// raising an error), leaving the expression for the backend to lower.
package constfold

import (
	"math"

	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/types"
)

// Eval attempts to fold expr to a constant.Value. It returns ok=false
// (never an error) when expr is well-formed but not foldable — e.g. it
// reads a runtime variable, or folding would require an operation this
// pass refuses (integer division/modulo by a zero divisor). err is
// reserved for genuine inconsistencies in an already-resolved tree
// (a missing table entry), which should not occur in practice.
func Eval(ctx *rctx.Context, expr ast.Expression) (constant.Value, bool, error) {
	switch e := expr.(type) {
	case *ast.ConstantValueExpression:
		return e.Value, true, nil

	case *ast.ConstantArrayValueExpression:
		return constant.Array{Elements: e.Values}, true, nil

	case *ast.ConstantExpression:
		data, err := ctx.Constants.Retrieve(e.ConstIdx, e.Pos())
		if err != nil {
			return nil, false, err
		}
		if data.Value == nil {
			return nil, false, nil
		}
		return data.Value, true, nil

	case *ast.Binary:
		return evalBinary(ctx, e)

	case *ast.Unary:
		return evalUnary(ctx, e)

	case *ast.Cast:
		return evalCast(ctx, e)

	case *ast.Swizzle:
		return evalSwizzle(ctx, e)

	case *ast.AccessIndex:
		return evalAccessIndex(ctx, e)

	case *ast.Intrinsic:
		return evalIntrinsic(ctx, e)

	case *ast.Conditional:
		cond, ok, err := Eval(ctx, e.Cond)
		if err != nil || !ok {
			return nil, false, err
		}
		b, ok := cond.(constant.Bool)
		if !ok {
			return nil, false, nil
		}
		if bool(b) {
			return Eval(ctx, e.Then)
		}
		return Eval(ctx, e.Else)

	default:
		return nil, false, nil
	}
}

// EvalBool folds expr and narrows the result to a bool, for callers that
// specifically need a boolean condition (Conditional/BranchStatement/@unroll).
func EvalBool(ctx *rctx.Context, expr ast.Expression) (bool, bool, error) {
	v, ok, err := Eval(ctx, expr)
	if err != nil || !ok {
		return false, false, err
	}
	b, ok := v.(constant.Bool)
	if !ok {
		return false, false, nil
	}
	return bool(b), true, nil
}

func evalBinary(ctx *rctx.Context, b *ast.Binary) (constant.Value, bool, error) {
	l, ok, err := Eval(ctx, b.Left)
	if err != nil || !ok {
		return nil, false, err
	}
	r, ok, err := Eval(ctx, b.Right)
	if err != nil || !ok {
		return nil, false, err
	}
	return foldBinaryScalarOrVector(b.Op, l, r)
}

func foldBinaryScalarOrVector(op ast.BinaryOp, l, r constant.Value) (constant.Value, bool, error) {
	lv, lIsVec := l.(constant.Vector)
	rv, rIsVec := r.(constant.Vector)
	switch {
	case lIsVec && rIsVec:
		if len(lv.Components) != len(rv.Components) {
			return nil, false, nil
		}
		out := make([]constant.Value, len(lv.Components))
		for i := range out {
			v, ok, err := foldBinaryScalar(op, lv.Components[i], rv.Components[i])
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	case lIsVec:
		out := make([]constant.Value, len(lv.Components))
		for i := range out {
			v, ok, err := foldBinaryScalar(op, lv.Components[i], r)
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	case rIsVec:
		out := make([]constant.Value, len(rv.Components))
		for i := range out {
			v, ok, err := foldBinaryScalar(op, l, rv.Components[i])
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	default:
		return foldBinaryScalar(op, l, r)
	}
}

func foldBinaryScalar(op ast.BinaryOp, l, r constant.Value) (constant.Value, bool, error) {
	if op.IsComparison() {
		return foldComparison(op, l, r)
	}
	switch op {
	case ast.BinLogicalAnd, ast.BinLogicalOr:
		lb, lok := l.(constant.Bool)
		rb, rok := r.(constant.Bool)
		if !lok || !rok {
			return nil, false, nil
		}
		if op == ast.BinLogicalAnd {
			return constant.Bool(bool(lb) && bool(rb)), true, nil
		}
		return constant.Bool(bool(lb) || bool(rb)), true, nil
	}

	switch lv := l.(type) {
	case constant.I32:
		rv, ok := r.(constant.I32)
		if !ok {
			return nil, false, nil
		}
		return foldI32(op, lv, rv)
	case constant.U32:
		rv, ok := r.(constant.U32)
		if !ok {
			return nil, false, nil
		}
		return foldU32(op, lv, rv)
	case constant.F32:
		rv, ok := r.(constant.F32)
		if !ok {
			return nil, false, nil
		}
		return foldF32(op, lv, rv)
	case constant.F64:
		rv, ok := r.(constant.F64)
		if !ok {
			return nil, false, nil
		}
		return foldF64(op, lv, rv)
	default:
		return nil, false, nil
	}
}

func foldComparison(op ast.BinaryOp, l, r constant.Value) (constant.Value, bool, error) {
	cmp, ok := compareScalar(l, r)
	if !ok {
		return nil, false, nil
	}
	switch op {
	case ast.BinCompEq:
		return constant.Bool(cmp == 0), true, nil
	case ast.BinCompNe:
		return constant.Bool(cmp != 0), true, nil
	case ast.BinCompLt:
		return constant.Bool(cmp < 0), true, nil
	case ast.BinCompLe:
		return constant.Bool(cmp <= 0), true, nil
	case ast.BinCompGt:
		return constant.Bool(cmp > 0), true, nil
	case ast.BinCompGe:
		return constant.Bool(cmp >= 0), true, nil
	default:
		return nil, false, nil
	}
}

func compareScalar(l, r constant.Value) (int, bool) {
	switch lv := l.(type) {
	case constant.I32:
		rv, ok := r.(constant.I32)
		if !ok {
			return 0, false
		}
		return cmpInt64(int64(lv), int64(rv)), true
	case constant.U32:
		rv, ok := r.(constant.U32)
		if !ok {
			return 0, false
		}
		return cmpUint64(uint64(lv), uint64(rv)), true
	case constant.F32:
		rv, ok := r.(constant.F32)
		if !ok {
			return 0, false
		}
		return cmpFloat64(float64(lv), float64(rv)), true
	case constant.F64:
		rv, ok := r.(constant.F64)
		if !ok {
			return 0, false
		}
		return cmpFloat64(float64(lv), float64(rv)), true
	case constant.Bool:
		rv, ok := r.(constant.Bool)
		if !ok {
			return 0, false
		}
		if lv == rv {
			return 0, true
		}
		if !bool(lv) {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// foldI32 applies op with two's-complement 32-bit wraparound semantics,
// refusing to fold a division or modulo by zero (§4.5).
func foldI32(op ast.BinaryOp, l, r constant.I32) (constant.Value, bool, error) {
	switch op {
	case ast.BinAdd:
		return constant.I32(int32(l) + int32(r)), true, nil
	case ast.BinSub:
		return constant.I32(int32(l) - int32(r)), true, nil
	case ast.BinMul:
		return constant.I32(int32(l) * int32(r)), true, nil
	case ast.BinDiv:
		if r == 0 {
			return nil, false, nil
		}
		return constant.I32(int32(l) / int32(r)), true, nil
	case ast.BinMod:
		if r == 0 {
			return nil, false, nil
		}
		return constant.I32(int32(l) % int32(r)), true, nil
	case ast.BinBitwiseAnd:
		return constant.I32(int32(l) & int32(r)), true, nil
	case ast.BinBitwiseOr:
		return constant.I32(int32(l) | int32(r)), true, nil
	case ast.BinBitwiseXor:
		return constant.I32(int32(l) ^ int32(r)), true, nil
	case ast.BinShiftLeft:
		return constant.I32(int32(l) << uint32(r)), true, nil
	case ast.BinShiftRight:
		return constant.I32(int32(l) >> uint32(r)), true, nil
	default:
		return nil, false, nil
	}
}

func foldU32(op ast.BinaryOp, l, r constant.U32) (constant.Value, bool, error) {
	switch op {
	case ast.BinAdd:
		return constant.U32(uint32(l) + uint32(r)), true, nil
	case ast.BinSub:
		return constant.U32(uint32(l) - uint32(r)), true, nil
	case ast.BinMul:
		return constant.U32(uint32(l) * uint32(r)), true, nil
	case ast.BinDiv:
		if r == 0 {
			return nil, false, nil
		}
		return constant.U32(uint32(l) / uint32(r)), true, nil
	case ast.BinMod:
		if r == 0 {
			return nil, false, nil
		}
		return constant.U32(uint32(l) % uint32(r)), true, nil
	case ast.BinBitwiseAnd:
		return constant.U32(uint32(l) & uint32(r)), true, nil
	case ast.BinBitwiseOr:
		return constant.U32(uint32(l) | uint32(r)), true, nil
	case ast.BinBitwiseXor:
		return constant.U32(uint32(l) ^ uint32(r)), true, nil
	case ast.BinShiftLeft:
		return constant.U32(uint32(l) << uint32(r)), true, nil
	case ast.BinShiftRight:
		return constant.U32(uint32(l) >> uint32(r)), true, nil
	default:
		return nil, false, nil
	}
}

// foldF32/foldF64 apply IEEE-754 arithmetic directly via Go's own
// float32/float64 semantics, which are themselves IEEE-754. Modulo is
// not a primitive float operator at this level (§4 Binary row: lowered
// to a runtime `mod` call by the backend), so it is left unfolded here.
func foldF32(op ast.BinaryOp, l, r constant.F32) (constant.Value, bool, error) {
	switch op {
	case ast.BinAdd:
		return constant.F32(float32(l) + float32(r)), true, nil
	case ast.BinSub:
		return constant.F32(float32(l) - float32(r)), true, nil
	case ast.BinMul:
		return constant.F32(float32(l) * float32(r)), true, nil
	case ast.BinDiv:
		return constant.F32(float32(l) / float32(r)), true, nil
	default:
		return nil, false, nil
	}
}

func foldF64(op ast.BinaryOp, l, r constant.F64) (constant.Value, bool, error) {
	switch op {
	case ast.BinAdd:
		return constant.F64(float64(l) + float64(r)), true, nil
	case ast.BinSub:
		return constant.F64(float64(l) - float64(r)), true, nil
	case ast.BinMul:
		return constant.F64(float64(l) * float64(r)), true, nil
	case ast.BinDiv:
		return constant.F64(float64(l) / float64(r)), true, nil
	default:
		return nil, false, nil
	}
}

func evalUnary(ctx *rctx.Context, u *ast.Unary) (constant.Value, bool, error) {
	v, ok, err := Eval(ctx, u.Operand)
	if err != nil || !ok {
		return nil, false, err
	}
	return foldUnary(u.Op, v)
}

func foldUnary(op ast.UnaryOp, v constant.Value) (constant.Value, bool, error) {
	if vec, ok := v.(constant.Vector); ok {
		out := make([]constant.Value, len(vec.Components))
		for i, c := range vec.Components {
			folded, ok, err := foldUnary(op, c)
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = folded
		}
		return constant.Vector{Components: out}, true, nil
	}

	switch op {
	case ast.UnaryLogicalNot:
		b, ok := v.(constant.Bool)
		if !ok {
			return nil, false, nil
		}
		return constant.Bool(!bool(b)), true, nil
	case ast.UnaryBitwiseNot:
		switch n := v.(type) {
		case constant.I32:
			return constant.I32(^int32(n)), true, nil
		case constant.U32:
			return constant.U32(^uint32(n)), true, nil
		default:
			return nil, false, nil
		}
	case ast.UnaryMinus:
		switch n := v.(type) {
		case constant.I32:
			return constant.I32(-int32(n)), true, nil
		case constant.U32:
			return constant.U32(-uint32(n)), true, nil
		case constant.F32:
			return constant.F32(-float32(n)), true, nil
		case constant.F64:
			return constant.F64(-float64(n)), true, nil
		default:
			return nil, false, nil
		}
	case ast.UnaryPlus:
		return v, true, nil
	default:
		return nil, false, nil
	}
}

func evalCast(ctx *rctx.Context, c *ast.Cast) (constant.Value, bool, error) {
	target, ok := types.ResolveAlias(c.CachedType()).(types.PrimitiveType)
	if !ok || len(c.Args) != 1 {
		return nil, false, nil
	}
	v, ok, err := Eval(ctx, c.Args[0])
	if err != nil || !ok {
		return nil, false, err
	}
	return castScalar(target.Kind, v)
}

func castScalar(target types.Primitive, v constant.Value) (constant.Value, bool, error) {
	var f float64
	var i int64
	var isFloat bool
	switch n := v.(type) {
	case constant.I32:
		i, isFloat = int64(n), false
	case constant.U32:
		i, isFloat = int64(n), false
	case constant.IntLit:
		i, isFloat = int64(n), false
	case constant.F32:
		f, isFloat = float64(n), true
	case constant.F64:
		f, isFloat = float64(n), true
	case constant.FloatLit:
		f, isFloat = float64(n), true
	default:
		return nil, false, nil
	}
	if !isFloat {
		f = float64(i)
	}
	switch target {
	case types.I32:
		if isFloat {
			return constant.I32(int32(math.Trunc(f))), true, nil
		}
		return constant.I32(int32(i)), true, nil
	case types.U32:
		if isFloat {
			return constant.U32(uint32(int64(math.Trunc(f)))), true, nil
		}
		return constant.U32(uint32(i)), true, nil
	case types.F32:
		return constant.F32(float32(f)), true, nil
	case types.F64:
		return constant.F64(f), true, nil
	default:
		return nil, false, nil
	}
}

func evalSwizzle(ctx *rctx.Context, s *ast.Swizzle) (constant.Value, bool, error) {
	v, ok, err := Eval(ctx, s.Expr)
	if err != nil || !ok {
		return nil, false, err
	}
	vec, ok := v.(constant.Vector)
	if !ok {
		if len(s.Components) == 1 && s.Components[0] == 0 {
			return v, true, nil
		}
		return nil, false, nil
	}
	out := make([]constant.Value, len(s.Components))
	for i, c := range s.Components {
		if c < 0 || c >= len(vec.Components) {
			return nil, false, nil
		}
		out[i] = vec.Components[c]
	}
	if len(out) == 1 {
		return out[0], true, nil
	}
	return constant.Vector{Components: out}, true, nil
}

func evalAccessIndex(ctx *rctx.Context, a *ast.AccessIndex) (constant.Value, bool, error) {
	if len(a.Indices) != 1 {
		return nil, false, nil
	}
	container, ok, err := Eval(ctx, a.Expr)
	if err != nil || !ok {
		return nil, false, err
	}
	idxVal, ok, err := Eval(ctx, a.Indices[0])
	if err != nil || !ok {
		return nil, false, err
	}
	idx, ok := asInt(idxVal)
	if !ok {
		return nil, false, nil
	}
	switch c := container.(type) {
	case constant.Vector:
		if idx < 0 || idx >= len(c.Components) {
			return nil, false, nil
		}
		return c.Components[idx], true, nil
	case constant.Array:
		if idx < 0 || idx >= len(c.Elements) {
			return nil, false, nil
		}
		return c.Elements[idx], true, nil
	case constant.Matrix:
		if idx < 0 || idx >= len(c.Columns) {
			return nil, false, nil
		}
		return c.Columns[idx], true, nil
	default:
		return nil, false, nil
	}
}

// evalIntrinsic folds the pure arithmetic intrinsics named in §4.5's
// Intrinsic row. Resource-dependent (array_size, texture*) or
// unimplemented (inverse, saturating_cast) kinds are left unfolded for
// the backend rather than erroring.
func evalIntrinsic(ctx *rctx.Context, in *ast.Intrinsic) (constant.Value, bool, error) {
	args := make([]constant.Value, len(in.Args))
	for i, a := range in.Args {
		v, ok, err := Eval(ctx, a)
		if err != nil || !ok {
			return nil, false, err
		}
		args[i] = v
	}

	switch in.Kind {
	case types.IntrinsicDotProduct:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldDot(args[0], args[1])

	case types.IntrinsicCrossProduct:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldCross(args[0], args[1])

	case types.IntrinsicLength:
		if len(args) != 1 {
			return nil, false, nil
		}
		return foldLength(args[0])

	case types.IntrinsicNormalize:
		if len(args) != 1 {
			return nil, false, nil
		}
		return foldNormalize(args[0])

	case types.IntrinsicMax, types.IntrinsicMin:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldMinMax(in.Kind == types.IntrinsicMax, args[0], args[1])

	case types.IntrinsicMod:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldMod(args[0], args[1])

	case types.IntrinsicPow:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldFloatBinary(args[0], args[1], math.Pow)

	case types.IntrinsicReflect:
		if len(args) != 2 {
			return nil, false, nil
		}
		return foldReflect(args[0], args[1])

	case types.IntrinsicExp:
		if len(args) != 1 {
			return nil, false, nil
		}
		return foldFloatUnary(args[0], math.Exp)

	case types.IntrinsicRound:
		if len(args) != 1 {
			return nil, false, nil
		}
		return foldFloatUnary(args[0], math.Round)

	case types.IntrinsicTranspose:
		if len(args) != 1 {
			return nil, false, nil
		}
		return foldTranspose(args[0])

	case types.IntrinsicSelect:
		if len(args) != 3 {
			return nil, false, nil
		}
		cond, ok := args[2].(constant.Bool)
		if !ok {
			return nil, false, nil
		}
		if bool(cond) {
			return args[0], true, nil
		}
		return args[1], true, nil

	default:
		return nil, false, nil
	}
}

func scalarToFloat(v constant.Value) (float64, bool) {
	switch n := v.(type) {
	case constant.F32:
		return float64(n), true
	case constant.F64:
		return float64(n), true
	default:
		return 0, false
	}
}

// floatFromScalar reconstructs a folded float result in the same
// concrete primitive kind (f32 or f64) as like, its source operand.
func floatFromScalar(like constant.Value, f float64) constant.Value {
	if _, ok := like.(constant.F64); ok {
		return constant.F64(f)
	}
	return constant.F32(float32(f))
}

func foldDot(a, b constant.Value) (constant.Value, bool, error) {
	av, aok := a.(constant.Vector)
	bv, bok := b.(constant.Vector)
	if !aok || !bok || len(av.Components) != len(bv.Components) || len(av.Components) == 0 {
		return nil, false, nil
	}
	sum := 0.0
	for i := range av.Components {
		af, ok1 := scalarToFloat(av.Components[i])
		bf, ok2 := scalarToFloat(bv.Components[i])
		if !ok1 || !ok2 {
			return nil, false, nil
		}
		sum += af * bf
	}
	return floatFromScalar(av.Components[0], sum), true, nil
}

func foldCross(a, b constant.Value) (constant.Value, bool, error) {
	av, aok := a.(constant.Vector)
	bv, bok := b.(constant.Vector)
	if !aok || !bok || len(av.Components) != 3 || len(bv.Components) != 3 {
		return nil, false, nil
	}
	var af, bf [3]float64
	for i := 0; i < 3; i++ {
		var ok1, ok2 bool
		af[i], ok1 = scalarToFloat(av.Components[i])
		bf[i], ok2 = scalarToFloat(bv.Components[i])
		if !ok1 || !ok2 {
			return nil, false, nil
		}
	}
	result := [3]float64{
		af[1]*bf[2] - af[2]*bf[1],
		af[2]*bf[0] - af[0]*bf[2],
		af[0]*bf[1] - af[1]*bf[0],
	}
	comps := make([]constant.Value, 3)
	for i, f := range result {
		comps[i] = floatFromScalar(av.Components[0], f)
	}
	return constant.Vector{Components: comps}, true, nil
}

func foldLength(a constant.Value) (constant.Value, bool, error) {
	av, ok := a.(constant.Vector)
	if !ok {
		return nil, false, nil
	}
	sum := 0.0
	for _, c := range av.Components {
		f, ok := scalarToFloat(c)
		if !ok {
			return nil, false, nil
		}
		sum += f * f
	}
	if len(av.Components) == 0 {
		return nil, false, nil
	}
	return floatFromScalar(av.Components[0], math.Sqrt(sum)), true, nil
}

func foldNormalize(a constant.Value) (constant.Value, bool, error) {
	av, ok := a.(constant.Vector)
	if !ok || len(av.Components) == 0 {
		return nil, false, nil
	}
	floats := make([]float64, len(av.Components))
	sum := 0.0
	for i, c := range av.Components {
		f, ok := scalarToFloat(c)
		if !ok {
			return nil, false, nil
		}
		floats[i] = f
		sum += f * f
	}
	if sum == 0 {
		return nil, false, nil
	}
	inv := 1 / math.Sqrt(sum)
	comps := make([]constant.Value, len(av.Components))
	for i, f := range floats {
		comps[i] = floatFromScalar(av.Components[i], f*inv)
	}
	return constant.Vector{Components: comps}, true, nil
}

func foldMinMax(isMax bool, a, b constant.Value) (constant.Value, bool, error) {
	av, aIsVec := a.(constant.Vector)
	bv, bIsVec := b.(constant.Vector)
	switch {
	case aIsVec && bIsVec:
		if len(av.Components) != len(bv.Components) {
			return nil, false, nil
		}
		out := make([]constant.Value, len(av.Components))
		for i := range out {
			v, ok, err := foldMinMax(isMax, av.Components[i], bv.Components[i])
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	case aIsVec || bIsVec:
		return nil, false, nil
	default:
		cmp, ok := compareScalar(a, b)
		if !ok {
			return nil, false, nil
		}
		if (isMax && cmp >= 0) || (!isMax && cmp <= 0) {
			return a, true, nil
		}
		return b, true, nil
	}
}

func foldMod(a, b constant.Value) (constant.Value, bool, error) {
	switch av := a.(type) {
	case constant.I32:
		bv, ok := b.(constant.I32)
		if !ok || bv == 0 {
			return nil, false, nil
		}
		return constant.I32(int32(av) % int32(bv)), true, nil
	case constant.U32:
		bv, ok := b.(constant.U32)
		if !ok || bv == 0 {
			return nil, false, nil
		}
		return constant.U32(uint32(av) % uint32(bv)), true, nil
	default:
		return foldFloatBinary(a, b, math.Mod)
	}
}

func foldReflect(i, n constant.Value) (constant.Value, bool, error) {
	dot, ok, err := foldDot(i, n)
	if err != nil || !ok {
		return nil, false, err
	}
	d, ok := scalarToFloat(dot)
	if !ok {
		return nil, false, nil
	}
	iv, ok := i.(constant.Vector)
	if !ok {
		return nil, false, nil
	}
	nv, ok := n.(constant.Vector)
	if !ok || len(nv.Components) != len(iv.Components) {
		return nil, false, nil
	}
	comps := make([]constant.Value, len(iv.Components))
	for idx := range iv.Components {
		ic, ok1 := scalarToFloat(iv.Components[idx])
		nc, ok2 := scalarToFloat(nv.Components[idx])
		if !ok1 || !ok2 {
			return nil, false, nil
		}
		comps[idx] = floatFromScalar(iv.Components[idx], ic-2*d*nc)
	}
	return constant.Vector{Components: comps}, true, nil
}

func foldFloatBinary(a, b constant.Value, fn func(x, y float64) float64) (constant.Value, bool, error) {
	av, aIsVec := a.(constant.Vector)
	bv, bIsVec := b.(constant.Vector)
	switch {
	case aIsVec && bIsVec:
		if len(av.Components) != len(bv.Components) {
			return nil, false, nil
		}
		out := make([]constant.Value, len(av.Components))
		for i := range out {
			v, ok, err := foldFloatBinary(av.Components[i], bv.Components[i], fn)
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	case !aIsVec && !bIsVec:
		af, ok1 := scalarToFloat(a)
		bf, ok2 := scalarToFloat(b)
		if !ok1 || !ok2 {
			return nil, false, nil
		}
		return floatFromScalar(a, fn(af, bf)), true, nil
	default:
		return nil, false, nil
	}
}

func foldFloatUnary(a constant.Value, fn func(float64) float64) (constant.Value, bool, error) {
	if av, ok := a.(constant.Vector); ok {
		out := make([]constant.Value, len(av.Components))
		for i, c := range av.Components {
			v, ok, err := foldFloatUnary(c, fn)
			if err != nil || !ok {
				return nil, false, err
			}
			out[i] = v
		}
		return constant.Vector{Components: out}, true, nil
	}
	f, ok := scalarToFloat(a)
	if !ok {
		return nil, false, nil
	}
	return floatFromScalar(a, fn(f)), true, nil
}

func foldTranspose(a constant.Value) (constant.Value, bool, error) {
	m, ok := a.(constant.Matrix)
	if !ok || len(m.Columns) == 0 {
		return nil, false, nil
	}
	rows := len(m.Columns[0].Components)
	cols := len(m.Columns)
	newCols := make([]constant.Vector, rows)
	for r := 0; r < rows; r++ {
		comps := make([]constant.Value, cols)
		for c := 0; c < cols; c++ {
			if r >= len(m.Columns[c].Components) {
				return nil, false, nil
			}
			comps[c] = m.Columns[c].Components[r]
		}
		newCols[r] = constant.Vector{Components: comps}
	}
	return constant.Matrix{Columns: newCols}, true, nil
}

func asInt(v constant.Value) (int, bool) {
	switch n := v.(type) {
	case constant.I32:
		return int(n), true
	case constant.U32:
		return int(n), true
	case constant.IntLit:
		return int(n), true
	default:
		return 0, false
	}
}
