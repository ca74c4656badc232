package resolver

import (
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveIdentifier implements §4.4.bis: look Name up in the current
// scope chain and rewrite the bare Identifier into the table-indexed,
// typed node its Kind calls for.
func (r *Resolver) resolveIdentifier(id *ast.Identifier) (transform.Transformation, error) {
	data, ok := r.cur.Find(id.Name)
	if !ok {
		if r.allowUnknown {
			return transform.Skip(), nil
		}
		return transform.Transformation{}, r.err(diag.KindUnknownIdentifier, id.Pos(), "unknown identifier %q", id.Name)
	}

	// §4.4.bis step 2: a hit tagged with a conditional index other than
	// the one currently active was declared under an inactive branch; in
	// partial compilation it is left unresolved rather than mistakenly bound.
	if data.ConditionalIndex != 0 && data.ConditionalIndex != r.cur.ActiveConditional() {
		if r.allowUnknown {
			return transform.Skip(), nil
		}
		return transform.Transformation{}, r.err(diag.KindUnknownIdentifier, id.Pos(), "identifier %q not visible under the active condition", id.Name)
	}

	expr, err := r.identifierValue(id, data)
	if err != nil {
		return transform.Transformation{}, err
	}
	return transform.ReplaceExpr(expr), nil
}

// identifierValue builds the resolved leaf expression for one
// env.Data hit, caching its type on the node as every resolved
// expression carries (§3 "cachedExpressionType").
func (r *Resolver) identifierValue(id *ast.Identifier, data env.Data) (ast.Expression, error) {
	base := ast.BaseExpr{Location: id.Pos()}
	switch data.Kind {
	case env.KindAlias:
		aliasData, err := r.ctx.Aliases.Retrieve(data.Index, id.Pos())
		if err != nil {
			return nil, r.internalf(id, "alias table: %v", err)
		}
		targetType, err := r.typeOfAlias(*aliasData, id.Pos())
		if err != nil {
			return nil, err
		}
		e := &ast.AliasValueExpression{BaseExpr: base, AliasIdx: data.Index}
		e.SetCachedType(types.AliasType{Target: targetType, AliasIdx: data.Index})
		return e, nil

	case env.KindConstant, env.KindOption:
		e := &ast.ConstantExpression{BaseExpr: base, ConstIdx: data.Index}
		cdata, err := r.ctx.Constants.Retrieve(data.Index, id.Pos())
		if err != nil {
			return nil, r.internalf(id, "constant table: %v", err)
		}
		e.SetCachedType(cdata.Type)
		return e, nil

	case env.KindExternalBlock:
		e := &ast.NamedExternalBlockExpression{BaseExpr: base, BlockIdx: data.Index}
		e.SetCachedType(types.NamedExternalBlockType{Idx: data.Index})
		return e, nil

	case env.KindExternalVariable, env.KindVariable, env.KindParameter:
		e := &ast.VariableValueExpression{BaseExpr: base, VarIdx: data.Index}
		vdata, err := r.ctx.Variables.Retrieve(data.Index, id.Pos())
		if err != nil {
			return nil, r.internalf(id, "variable table: %v", err)
		}
		e.SetCachedType(vdata.Type)
		return e, nil

	case env.KindFunction:
		e := &ast.FunctionExpression{BaseExpr: base, FuncIdx: data.Index}
		e.SetCachedType(types.FunctionType{Idx: data.Index})
		return e, nil

	case env.KindIntrinsic:
		idata, err := r.ctx.Intrinsics.Retrieve(data.Index, id.Pos())
		if err != nil {
			return nil, r.internalf(id, "intrinsic table: %v", err)
		}
		e := &ast.IntrinsicFunctionExpression{BaseExpr: base, Kind: idata.Kind}
		e.SetCachedType(types.IntrinsicFunctionType{Kind: idata.Kind})
		return e, nil

	case env.KindModule:
		e := &ast.ModuleExpression{BaseExpr: base, ModuleIdx: data.Index}
		e.SetCachedType(types.ModuleType{Idx: data.Index})
		return e, nil

	case env.KindStruct:
		e := &ast.StructTypeExpression{BaseExpr: base, StructIdx: data.Index}
		e.SetCachedType(types.TypeRef{Idx: data.Index})
		return e, nil

	case env.KindType:
		e := &ast.TypeExpression{BaseExpr: base, TypeIdx: data.Index}
		e.SetCachedType(types.TypeRef{Idx: data.Index})
		return e, nil

	case env.KindField, env.KindReservedName, env.KindUnresolved:
		return nil, r.err(diag.KindUnexpectedIdentifier, id.Pos(), "identifier %q cannot be used as a value here", id.Name)

	default:
		return nil, r.internalf(id, "identifier %q resolved to unhandled kind %s", id.Name, data.Kind)
	}
}

func (r *Resolver) typeOfAlias(data rctx.AliasData, loc token.Position) (types.ExpressionType, error) {
	childData := env.Data{Kind: env.Kind(data.TargetKind), Index: data.TargetIdx}
	expr, err := r.identifierValue(&ast.Identifier{BaseExpr: ast.BaseExpr{Location: loc}, Name: data.Name}, childData)
	if err != nil {
		return nil, err
	}
	return typeOf(expr), nil
}

// resolveAccessIdentifier implements the §4 AccessIdentifier dispatch:
// the child is resolved first (so its type is known), then each segment
// is consumed against the running type in turn, rewriting the whole
// chain into AccessField/Swizzle/MethodType-bearing nodes as it goes.
func (r *Resolver) resolveAccessIdentifier(a *ast.AccessIdentifier) (transform.Transformation, error) {
	expr, err := r.driver.Expr(a.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}

	cur := expr
	t := types.ResolveAlias(typeOf(cur))

	if isModuleOrBlock(t) {
		if len(a.Segments) != 1 {
			return transform.Transformation{}, r.err(diag.KindUnexpectedAccessedType, a.Pos(), "module and external-block access takes exactly one member name")
		}
		resolved, err := r.resolveMemberOfModuleOrBlock(t, a.Segments[0], a.Pos())
		if err != nil {
			return transform.Transformation{}, err
		}
		return transform.ReplaceExpr(resolved), nil
	}

	for _, seg := range a.Segments {
		t = types.ResolveAlias(typeOf(cur))
		switch {
		case types.IsStruct(t):
			next, err := r.resolveStructSegment(cur, t, seg, a.Pos())
			if err != nil {
				return transform.Transformation{}, err
			}
			cur = next

		case isSwizzleCandidate(t):
			next, err := resolveSwizzleSegment(cur, t, seg, a.Pos())
			if err != nil {
				return transform.Transformation{}, err
			}
			cur = next

		case isMethodCandidate(t):
			idx, err := methodIndex(t, seg, a.Pos())
			if err != nil {
				return transform.Transformation{}, err
			}
			tagged := cloneWithType(cur, types.MethodType{Object: t, MethodIdx: idx})
			cur = tagged

		default:
			return transform.Transformation{}, r.err(diag.KindUnexpectedAccessedType, a.Pos(), "cannot access member %q of %s", seg, t)
		}
	}

	return transform.ReplaceExpr(cur), nil
}

// resolveStructSegment looks name up among the struct's own fields (and,
// transparently, the Uniform/Storage/PushConstant wrapper preserved
// across the access) and rewrites to AccessField.
func (r *Resolver) resolveStructSegment(base ast.Expression, outer types.ExpressionType, name string, loc token.Position) (ast.Expression, error) {
	structIdx := unwrapStructIdx(outer)
	desc, err := r.ctx.Structs.Retrieve(structIdx, loc)
	if err != nil {
		return nil, r.internalf(base, "struct table: %v", err)
	}
	member, ok := lookupStructField(desc.Desc, name)
	if !ok {
		return nil, r.err(diag.KindUnknownField, loc, "struct has no field %q", name)
	}
	fieldType, err := r.exprAnnotationType(member.TypeAnnotation, loc)
	if err != nil {
		return nil, err
	}
	wrapped := types.WrapExternal(outer, fieldType)
	e := &ast.AccessField{BaseExpr: ast.BaseExpr{Location: loc}, Expr: base, FieldIdx: member.FieldIdx}
	e.SetCachedType(wrapped)
	return e, nil
}

// exprAnnotationType reads the ExpressionType a resolved type-valued
// expression (TypeExpression/StructTypeExpression, already folded by
// resolveDeclareStruct before fields are consulted) denotes.
func (r *Resolver) exprAnnotationType(annotation ast.Expression, loc token.Position) (types.ExpressionType, error) {
	switch a := annotation.(type) {
	case *ast.TypeExpression:
		tdata, err := r.ctx.Types.Retrieve(a.TypeIdx, loc)
		if err != nil {
			return nil, r.internalf(a, "type table: %v", err)
		}
		return tdata.Content, nil
	case *ast.StructTypeExpression:
		return types.StructType{Idx: a.StructIdx}, nil
	default:
		if t := annotation.CachedType(); t != nil {
			if tr, ok := t.(types.TypeRef); ok {
				tdata, err := r.ctx.Types.Retrieve(tr.Idx, loc)
				if err != nil {
					return nil, r.internalf(annotation, "type table: %v", err)
				}
				return tdata.Content, nil
			}
		}
		return nil, r.internalf(annotation, "struct field type annotation did not resolve to a type")
	}
}

// unwrapStructIdx extracts the struct index from a bare StructType or
// a Uniform/Storage/PushConstant wrapper around one.
func unwrapStructIdx(t types.ExpressionType) int {
	switch s := t.(type) {
	case types.StructType:
		return s.Idx
	case types.UniformType:
		return s.StructIdx
	case types.StorageType:
		return s.StructIdx
	case types.PushConstantType:
		return s.StructIdx
	default:
		return -1
	}
}

func lookupStructField(desc *ast.DeclareStructStatement, name string) (ast.StructMember, bool) {
	for _, m := range desc.Members {
		if m.Name == name {
			return m, true
		}
	}
	return ast.StructMember{}, false
}

// isSwizzleCandidate reports whether t is a vector or scalar, either of
// which accepts a component-letter segment (§4.4 Swizzle row; a scalar
// swizzle is legal as a length-1-vector-shaped read).
func isSwizzleCandidate(t types.ExpressionType) bool {
	return types.IsVector(t) || types.IsPrimitive(t)
}

var swizzleLetterIndex = map[byte]int{'x': 0, 'y': 1, 'z': 2, 'w': 3}

// resolveSwizzleSegment rewrites one `.xyz`-style segment into a
// Swizzle node. Per §9's resolved Open Question, a single-letter
// swizzle always produces a Swizzle node (never collapses to a bare
// scalar), so the Components slice length directly reflects the source text.
func resolveSwizzleSegment(base ast.Expression, t types.ExpressionType, seg string, loc token.Position) (ast.Expression, error) {
	if len(seg) < 1 || len(seg) > 4 {
		return nil, &diag.Diagnostic{Kind: diag.KindInvalidSwizzle, Pos: loc, Message: "swizzle must name 1 to 4 components"}
	}
	vecLen := 1
	elem := types.F32
	if v, ok := t.(types.VectorType); ok {
		vecLen = v.Len
		elem = v.Elem
	} else if p, ok := t.(types.PrimitiveType); ok {
		elem = p.Kind
	}
	components := make([]int, len(seg))
	for i := 0; i < len(seg); i++ {
		idx, ok := swizzleLetterIndex[seg[i]]
		if !ok {
			return nil, &diag.Diagnostic{Kind: diag.KindInvalidSwizzle, Pos: loc, Message: "swizzle component must be one of x, y, z, w"}
		}
		if idx >= vecLen {
			return nil, &diag.Diagnostic{Kind: diag.KindInvalidSwizzle, Pos: loc, Message: "swizzle component out of range for this vector"}
		}
		components[i] = idx
	}
	e := &ast.Swizzle{BaseExpr: ast.BaseExpr{Location: loc}, Expr: base, Components: components}
	if len(components) == 1 {
		e.SetCachedType(types.PrimitiveType{Kind: elem})
	} else {
		e.SetCachedType(types.VectorType{Elem: elem, Len: len(components)})
	}
	return e, nil
}

// isMethodCandidate reports whether t exposes named methods rather than
// fields or swizzles (arrays' .size()-style methods, samplers' and
// textures' sampling/read/write methods).
func isMethodCandidate(t types.ExpressionType) bool {
	switch t.(type) {
	case types.ArrayType, types.DynArrayType, types.SamplerType, types.TextureType:
		return true
	default:
		return false
	}
}

// methodIndex maps a method name to a stable small integer tagging which
// intrinsic the subsequent CallFunction rewrites to (§4 AccessIdentifier,
// CallFunction rows). Only the method names this core's intrinsic set
// actually covers are recognised; anything else is UnknownMethod.
func methodIndex(t types.ExpressionType, name string, loc token.Position) (int, error) {
	switch t.(type) {
	case types.ArrayType, types.DynArrayType:
		if name == "size" {
			return 0, nil
		}
	case types.SamplerType:
		switch name {
		case "sample":
			return 0, nil
		case "sample_level":
			return 1, nil
		}
	case types.TextureType:
		switch name {
		case "read":
			return 0, nil
		case "write":
			return 1, nil
		}
	}
	return 0, &diag.Diagnostic{Kind: diag.KindUnknownMethod, Pos: loc, Message: "no method named " + name + " on " + t.String()}
}

// cloneWithType returns a shallow copy of expr tagged with a new cached
// type, used when a method-access segment doesn't change the underlying
// node shape, only the type riding along with it for the subsequent
// CallFunction rule to read.
func cloneWithType(expr ast.Expression, t types.ExpressionType) ast.Expression {
	expr.SetCachedType(t)
	return expr
}

// isModuleOrBlock reports whether t denotes an imported module or a
// named external block, the two identifier kinds whose members are
// looked up in a dedicated child environment rather than via
// struct/vector/array access rules (§9 second Open Question).
func isModuleOrBlock(t types.ExpressionType) bool {
	switch t.(type) {
	case types.ModuleType, types.NamedExternalBlockType:
		return true
	default:
		return false
	}
}

// resolveMemberOfModuleOrBlock looks segment up in the environment
// recorded for the module/block t denotes, the same lexically-scoped
// Find every other identifier uses, per §9's decision that modules and
// external blocks get no special resolution tier.
func (r *Resolver) resolveMemberOfModuleOrBlock(t types.ExpressionType, segment string, loc token.Position) (ast.Expression, error) {
	var scope *env.Environment
	switch tv := t.(type) {
	case types.ModuleType:
		scope = r.moduleScopes[tv.Idx]
	case types.NamedExternalBlockType:
		scope = r.blockScopes[tv.Idx]
	}
	if scope == nil {
		return nil, r.err(diag.KindInternalError, loc, "no scope recorded for %s", t)
	}
	data, ok := scope.FindLocal(segment)
	if !ok {
		if r.allowUnknown {
			return &ast.Identifier{BaseExpr: ast.BaseExpr{Location: loc}, Name: segment}, nil
		}
		return nil, r.err(diag.KindUnknownIdentifier, loc, "%s has no member %q", t, segment)
	}
	return r.identifierValue(&ast.Identifier{BaseExpr: ast.BaseExpr{Location: loc}, Name: segment}, data)
}
