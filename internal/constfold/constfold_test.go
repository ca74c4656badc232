package constfold

import (
	"testing"

	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/types"
)

func vec3f32(x, y, z float32) *ast.ConstantValueExpression {
	return &ast.ConstantValueExpression{Value: constant.Vector{Components: []constant.Value{
		constant.F32(x), constant.F32(y), constant.F32(z),
	}}}
}

// TestEvalIntrinsicFoldsDotProduct covers §4.5's Intrinsic row: a
// fully-constant intrinsic call folds the same way Binary/Unary/Cast do.
func TestEvalIntrinsicFoldsDotProduct(t *testing.T) {
	ctx := rctx.New()
	intr := &ast.Intrinsic{Kind: types.IntrinsicDotProduct, Args: []ast.Expression{
		vec3f32(1, 2, 3), vec3f32(4, 5, 6),
	}}

	v, ok, err := Eval(ctx, intr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected dot(vec3, vec3) to fold")
	}
	if got := float32(v.(constant.F32)); got != 32 {
		t.Errorf("expected dot product 32, got %v", got)
	}
}

func TestEvalIntrinsicFoldsNormalize(t *testing.T) {
	ctx := rctx.New()
	intr := &ast.Intrinsic{Kind: types.IntrinsicNormalize, Args: []ast.Expression{vec3f32(3, 0, 0)}}

	v, ok, err := Eval(ctx, intr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected normalize(vec3) to fold")
	}
	vec := v.(constant.Vector)
	if got := float32(vec.Components[0].(constant.F32)); got != 1 {
		t.Errorf("expected normalize((3,0,0)) = (1,0,0), got x=%v", got)
	}
}

// TestEvalIntrinsicLeavesResourceDependentKindsUnfolded covers the
// kinds §4.5 does not ask ConstantPropagation to fold: array_size reads
// runtime buffer state, so Eval reports not-foldable rather than erroring.
func TestEvalIntrinsicLeavesResourceDependentKindsUnfolded(t *testing.T) {
	ctx := rctx.New()
	intr := &ast.Intrinsic{Kind: types.IntrinsicArraySize, Args: []ast.Expression{vec3f32(1, 2, 3)}}

	_, ok, err := Eval(ctx, intr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected array_size to remain unfolded (resource-dependent)")
	}
}
