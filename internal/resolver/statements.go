package resolver

import (
	"github.com/shaderlang/slc/internal/constfold"
	"github.com/shaderlang/slc/internal/diag"
	"github.com/shaderlang/slc/internal/env"
	"github.com/shaderlang/slc/internal/rctx"
	"github.com/shaderlang/slc/internal/transform"
	"github.com/shaderlang/slc/pkg/ast"
	"github.com/shaderlang/slc/pkg/constant"
	"github.com/shaderlang/slc/pkg/token"
	"github.com/shaderlang/slc/pkg/types"
)

// resolveBlockInScope drives b's own children under a fresh, short-lived
// scope layer on the current environment, for any statement rule whose
// body must not leak declarations into the surrounding scope (§4.2:
// "branch arms, loop bodies ... resolve in a fresh scope"). The generic
// stmtChildren dispatch (internal/transform/children.go) performs no
// scope management of its own, so every rule needing one drives its
// body explicitly instead of returning transform.Visit().
func (r *Resolver) resolveBlockInScope(body *ast.MultiStatement) error {
	r.cur.PushScope()
	defer r.cur.PopScope()
	_, _, err := r.driver.Stmt(body)
	return err
}

// resolveBranch implements the §4 BranchStatement row, both the runtime
// if/else-if/else chain and the `const if` variant selected by IsConst.
func (r *Resolver) resolveBranch(b *ast.BranchStatement) (transform.Transformation, error) {
	if !b.IsConst {
		for i := range b.CondStatements {
			cond, err := r.driver.Expr(b.CondStatements[i].Cond)
			if err != nil {
				return transform.Transformation{}, err
			}
			b.CondStatements[i].Cond = cond
			if !isBoolType(types.ResolveAlias(typeOf(cond))) {
				return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, cond.Pos(), "branch condition must be bool, got %s", types.String(typeOf(cond)))
			}
			if err := r.resolveBlockInScope(b.CondStatements[i].Body); err != nil {
				return transform.Transformation{}, err
			}
		}
		if b.Else != nil {
			if err := r.resolveBlockInScope(b.Else); err != nil {
				return transform.Transformation{}, err
			}
		}
		return transform.Skip(), nil
	}

	for i := range b.CondStatements {
		cond, err := r.driver.Expr(b.CondStatements[i].Cond)
		if err != nil {
			return transform.Transformation{}, err
		}
		b.CondStatements[i].Cond = cond
		if !isBoolType(types.ResolveAlias(typeOf(cond))) {
			return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, cond.Pos(), "const if condition must be bool, got %s", types.String(typeOf(cond)))
		}
		value, foldable, err := constfold.EvalBool(r.ctx, cond)
		if err != nil {
			return transform.Transformation{}, err
		}
		if !foldable {
			if r.allowUnknown {
				return transform.Skip(), nil
			}
			return transform.Transformation{}, r.err(diag.KindConstantExpressionRequired, cond.Pos(), "const if condition must fold to a constant")
		}
		if value {
			if err := r.resolveBlockInScope(b.CondStatements[i].Body); err != nil {
				return transform.Transformation{}, err
			}
			return transform.ReplaceStmt(b.CondStatements[i].Body), nil
		}
	}
	if b.Else != nil {
		if err := r.resolveBlockInScope(b.Else); err != nil {
			return transform.Transformation{}, err
		}
		return transform.ReplaceStmt(b.Else), nil
	}
	return transform.Remove(), nil
}

// resolveConditionalStatement implements the §4 ConditionalStatement row
// (`#[cond(expr)] stmt`).
func (r *Resolver) resolveConditionalStatement(c *ast.ConditionalStatement) (transform.Transformation, error) {
	cond, err := r.driver.Expr(c.Cond)
	if err != nil {
		return transform.Transformation{}, err
	}
	c.Cond = cond
	if !isBoolType(types.ResolveAlias(typeOf(cond))) {
		return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, c.Pos(), "#[cond(...)] expression must be bool")
	}

	value, foldable, err := constfold.EvalBool(r.ctx, cond)
	if err != nil {
		return transform.Transformation{}, err
	}
	if foldable {
		if !value {
			return transform.Remove(), nil
		}
		replacement, removed, err := r.driver.Stmt(c.Stmt)
		if err != nil {
			return transform.Transformation{}, err
		}
		if removed {
			return transform.Remove(), nil
		}
		return transform.ReplaceStmt(replacement), nil
	}

	tag := r.ctx.NextConditionalTag()
	prev := r.cur.PushConditional(tag)
	replacement, removed, err := r.driver.Stmt(c.Stmt)
	r.cur.PopConditional(prev)
	if err != nil {
		return transform.Transformation{}, err
	}
	if removed {
		c.Stmt = nil
	} else {
		c.Stmt = replacement
	}
	return transform.Skip(), nil
}

// resolveDeclareAlias implements the §4 DeclareAliasStatement row.
func (r *Resolver) resolveDeclareAlias(d *ast.DeclareAliasStatement) (transform.Transformation, error) {
	expr, err := r.driver.Expr(d.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}
	d.Expr = expr

	kind, idx, err := aliasTarget(expr, d.Pos())
	if err != nil {
		return transform.Transformation{}, err
	}

	data := rctx.AliasData{Name: d.Name, TargetIdx: idx, TargetKind: int(kind)}
	regIdx, rerr := r.ctx.Aliases.Register(data, d.AliasIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "alias table: %v", rerr)
	}
	d.AliasIdx = regIdx
	d.HasIdx = true
	r.cur.Register(d.Name, env.Data{Kind: env.KindAlias, Index: regIdx})

	if r.opts.RemoveAliases {
		return transform.Remove(), nil
	}
	return transform.Skip(), nil
}

// aliasTarget reads the resolved alias target's own kind (Struct/
// Function/Alias/Module, §4 DeclareAliasStatement row) directly off its
// concrete node type rather than its ExpressionType, since a struct
// reference's cached type is a TypeRef rather than a StructType.
func aliasTarget(expr ast.Expression, pos token.Position) (env.Kind, int, error) {
	switch e := expr.(type) {
	case *ast.StructTypeExpression:
		return env.KindStruct, e.StructIdx, nil
	case *ast.FunctionExpression:
		return env.KindFunction, e.FuncIdx, nil
	case *ast.AliasValueExpression:
		return env.KindAlias, e.AliasIdx, nil
	case *ast.ModuleExpression:
		return env.KindModule, e.ModuleIdx, nil
	default:
		return 0, 0, diag.New(diag.KindUnexpectedIdentifier, pos, "alias target must be a struct, function, alias, or module")
	}
}

// resolveDeclareConst implements the §4 DeclareConstStatement row.
func (r *Resolver) resolveDeclareConst(d *ast.DeclareConstStatement) (transform.Transformation, error) {
	var annType types.ExpressionType
	if d.TypeAnnotation != nil {
		ann, err := r.driver.Expr(d.TypeAnnotation)
		if err != nil {
			return transform.Transformation{}, err
		}
		d.TypeAnnotation = ann
		t, terr := r.exprAnnotationType(ann, d.Pos())
		if terr != nil {
			return transform.Transformation{}, terr
		}
		annType = t
	}

	init, err := r.resolveExprWithExpectedType(d.Init, annType)
	if err != nil {
		return transform.Transformation{}, err
	}
	d.Init = init

	value, foldable, ferr := constfold.Eval(r.ctx, init)
	if ferr != nil {
		return transform.Transformation{}, ferr
	}
	if !foldable && !r.allowUnknown {
		return transform.Transformation{}, r.err(diag.KindConstantExpressionRequired, d.Pos(), "const %s: initializer must fold to a constant", d.Name)
	}

	initType := typeOf(init)
	if annType != nil {
		if !types.Equal(annType, initType) {
			return transform.Transformation{}, r.err(diag.KindUnmatchingTypes, d.Pos(), "const %s: declared type %s does not match initializer type %s", d.Name, types.String(annType), types.String(initType))
		}
	} else {
		annType = initType
	}

	data := rctx.ConstantData{Value: value, Type: annType}
	idx, rerr := r.ctx.Constants.Register(data, d.ConstIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "constant table: %v", rerr)
	}
	d.ConstIdx = idx
	d.HasIdx = true
	r.cur.Register(d.Name, env.Data{Kind: env.KindConstant, Index: idx})

	if r.opts.RemoveSingleConstDeclaration {
		return transform.Remove(), nil
	}
	return transform.Skip(), nil
}

// resolveDeclareVariable implements the §4 DeclareVariableStatement row.
func (r *Resolver) resolveDeclareVariable(d *ast.DeclareVariableStatement) (transform.Transformation, error) {
	var annType types.ExpressionType
	if d.TypeAnnotation != nil {
		ann, err := r.driver.Expr(d.TypeAnnotation)
		if err != nil {
			return transform.Transformation{}, err
		}
		d.TypeAnnotation = ann
		t, terr := r.exprAnnotationType(ann, d.Pos())
		if terr != nil {
			return transform.Transformation{}, terr
		}
		annType = t
	}

	if d.Init == nil {
		if annType == nil {
			return transform.Transformation{}, r.err(diag.KindConstantExpectedValue, d.Pos(), "variable %s needs either a type annotation or an initializer", d.Name)
		}
	} else {
		init, err := r.resolveExprWithExpectedType(d.Init, annType)
		if err != nil {
			return transform.Transformation{}, err
		}
		d.Init = init
		initType := typeOf(init)
		if annType != nil {
			if !types.Equal(annType, initType) {
				return transform.Transformation{}, r.err(diag.KindUnmatchingTypes, d.Pos(), "variable %s: declared type %s does not match initializer type %s", d.Name, types.String(annType), types.String(initType))
			}
		} else {
			annType = initType
		}
	}

	data := rctx.VariableData{Type: annType}
	idx, rerr := r.ctx.Variables.Register(data, d.VarIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "variable table: %v", rerr)
	}
	d.VarIdx = idx
	d.HasIdx = true
	r.cur.Register(d.Name, env.Data{Kind: env.KindVariable, Index: idx})
	return transform.Skip(), nil
}

// validateStd140 implements the std140-legality half of the §4
// DeclareStructStatement row: no bool field anywhere in the layout,
// checked recursively through nested structs and arrays.
func (r *Resolver) validateStd140(t types.ExpressionType, pos token.Position) error {
	switch tv := types.ResolveAlias(t).(type) {
	case types.PrimitiveType:
		if tv.Kind == types.Bool {
			return r.err(diag.KindStd140LayoutMismatch, pos, "bool is not a std140-legal field type")
		}
	case types.VectorType:
		if tv.Elem == types.Bool {
			return r.err(diag.KindStd140LayoutMismatch, pos, "a bool vector is not a std140-legal field type")
		}
	case types.ArrayType:
		return r.validateStd140(tv.Elem, pos)
	case types.StructType:
		desc, err := r.ctx.Structs.Retrieve(tv.Idx, pos)
		if err != nil {
			return r.internalf(&ast.DeclareStructStatement{BaseStmt: ast.BaseStmt{Location: pos}}, "struct table: %v", err)
		}
		for _, m := range desc.Desc.Members {
			ft, terr := r.exprAnnotationType(m.TypeAnnotation, pos)
			if terr != nil {
				return terr
			}
			if err := r.validateStd140(ft, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveDeclareStruct implements the §4 DeclareStructStatement row.
func (r *Resolver) resolveDeclareStruct(d *ast.DeclareStructStatement) (transform.Transformation, error) {
	kept := make([]ast.StructMember, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Cond != nil {
			cond, err := r.driver.Expr(m.Cond)
			if err != nil {
				return transform.Transformation{}, err
			}
			m.Cond = cond
			if !isBoolType(types.ResolveAlias(typeOf(cond))) {
				return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, d.Pos(), "struct field %q condition must be bool", m.Name)
			}
			value, foldable, ferr := constfold.EvalBool(r.ctx, cond)
			if ferr != nil {
				return transform.Transformation{}, ferr
			}
			if !foldable {
				if !r.allowUnknown {
					return transform.Transformation{}, r.err(diag.KindConstantExpressionRequired, d.Pos(), "struct field %q condition must fold to a constant", m.Name)
				}
			} else if !value {
				continue
			}
		}

		if m.Builtin != nil {
			builtin, err := r.driver.Expr(m.Builtin)
			if err != nil {
				return transform.Transformation{}, err
			}
			m.Builtin = builtin
		}
		if m.Interp != nil {
			interp, err := r.driver.Expr(m.Interp)
			if err != nil {
				return transform.Transformation{}, err
			}
			m.Interp = interp
		}
		if m.LocationIndex != nil {
			loc, err := r.driver.Expr(m.LocationIndex)
			if err != nil {
				return transform.Transformation{}, err
			}
			m.LocationIndex = loc
		}
		if m.Builtin != nil && m.LocationIndex != nil {
			return transform.Transformation{}, r.err(diag.KindStructFieldBuiltinAndLocation, d.Pos(), "struct field %q cannot have both a builtin and a location index", m.Name)
		}

		ann, err := r.driver.Expr(m.TypeAnnotation)
		if err != nil {
			return transform.Transformation{}, err
		}
		m.TypeAnnotation = ann
		fieldType, terr := r.exprAnnotationType(ann, d.Pos())
		if terr != nil {
			return transform.Transformation{}, terr
		}
		if err := r.validateStd140(fieldType, d.Pos()); err != nil {
			return transform.Transformation{}, err
		}

		for _, existing := range kept {
			if existing.Name == m.Name {
				return transform.Transformation{}, r.err(diag.KindStructFieldMultipleDefinition, d.Pos(), "struct field %q declared more than once", m.Name)
			}
		}

		m.FieldIdx = len(kept)
		kept = append(kept, m)
	}
	d.Members = kept

	idx, rerr := r.ctx.Structs.Register(rctx.StructData{Desc: d}, d.StructIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "struct table: %v", rerr)
	}
	d.StructIdx = idx
	d.HasIdx = true

	// The struct's own index doubles as its entry in the types table
	// (identifiers.go's env.KindStruct case builds a TypeRef of the same
	// index), so the type-table entry is forced to share it.
	if _, terr := r.ctx.Types.Register(rctx.TypeData{Content: types.StructType{Idx: idx}, Name: d.Name}, idx, true, d.Pos()); terr != nil {
		return transform.Transformation{}, r.internalf(d, "type table: %v", terr)
	}

	r.cur.Register(d.Name, env.Data{Kind: env.KindStruct, Index: idx})
	return transform.Skip(), nil
}

// isConstantType reports whether t is a shape constant.Value can hold
// (used to gate §4 DeclareOptionStatement's annotated type).
func isConstantType(t types.ExpressionType) bool {
	switch tv := t.(type) {
	case types.PrimitiveType, types.VectorType, types.MatrixType:
		return true
	case types.ArrayType:
		return isConstantType(tv.Elem)
	default:
		return false
	}
}

// resolveDeclareOption implements the §4 DeclareOptionStatement row.
func (r *Resolver) resolveDeclareOption(d *ast.DeclareOptionStatement) (transform.Transformation, error) {
	ann, err := r.driver.Expr(d.TypeAnnotation)
	if err != nil {
		return transform.Transformation{}, err
	}
	d.TypeAnnotation = ann
	optType, terr := r.exprAnnotationType(ann, d.Pos())
	if terr != nil {
		return transform.Transformation{}, terr
	}
	if !isConstantType(optType) {
		return transform.Transformation{}, r.err(diag.KindExpectedPartialType, d.Pos(), "option %s must have a constant-compatible type, got %s", d.Name, types.String(optType))
	}

	var value constant.Value
	if v, ok := r.ctx.OptionValues[HashOption(d.Name)]; ok {
		value = v
	} else if d.Default != nil {
		def, derr := r.resolveExprWithExpectedType(d.Default, optType)
		if derr != nil {
			return transform.Transformation{}, derr
		}
		d.Default = def
		if !r.allowUnknown {
			folded, foldable, ferr := constfold.Eval(r.ctx, def)
			if ferr != nil {
				return transform.Transformation{}, ferr
			}
			if !foldable {
				return transform.Transformation{}, r.err(diag.KindConstantExpressionRequired, d.Pos(), "option %s's default must fold to a constant", d.Name)
			}
			if defType := typeOf(def); !types.Equal(optType, defType) {
				return transform.Transformation{}, r.err(diag.KindUnmatchingTypes, d.Pos(), "option %s: declared type %s does not match default type %s", d.Name, types.String(optType), types.String(defType))
			}
			value = folded
		}
	} else if !r.allowUnknown {
		return transform.Transformation{}, r.err(diag.KindConstantExpectedValue, d.Pos(), "option %s has no caller-supplied value or default", d.Name)
	}

	data := rctx.ConstantData{Value: value, Type: optType}
	idx, rerr := r.ctx.Constants.Register(data, d.ConstIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "constant table: %v", rerr)
	}
	d.ConstIdx = idx
	d.HasIdx = true
	r.cur.Register(d.Name, env.Data{Kind: env.KindOption, Index: idx})

	if r.opts.RemoveOptionDeclaration && value != nil {
		return transform.Remove(), nil
	}
	return transform.Skip(), nil
}

// stageFromName maps an `@entry(name)` identifier to its Stage, the
// fold half of the §4 DeclareFunctionStatement row's "stage" attribute.
func stageFromName(name string) (ast.Stage, bool) {
	switch name {
	case "vertex":
		return ast.StageVertex, true
	case "fragment":
		return ast.StageFragment, true
	case "compute":
		return ast.StageCompute, true
	default:
		return ast.StageNone, false
	}
}

// resolveDeclareFunction implements the §4 DeclareFunctionStatement row:
// parameters and return type resolve eagerly, attributes fold, and the
// body is deferred to the second pass (§2 step 5).
func (r *Resolver) resolveDeclareFunction(d *ast.DeclareFunctionStatement) (transform.Transformation, error) {
	scope := env.NewChild(r.cur, r.cur.ModuleID())
	for i := range d.Params {
		ann, err := r.driver.Expr(d.Params[i].TypeAnnotation)
		if err != nil {
			return transform.Transformation{}, err
		}
		d.Params[i].TypeAnnotation = ann
		pType, terr := r.exprAnnotationType(ann, d.Pos())
		if terr != nil {
			return transform.Transformation{}, terr
		}
		vdata := rctx.VariableData{Type: pType, ReadOnly: true}
		vidx, verr := r.ctx.Variables.Register(vdata, 0, false, d.Pos())
		if verr != nil {
			return transform.Transformation{}, r.internalf(d, "variable table: %v", verr)
		}
		d.Params[i].VarIdx = vidx
		scope.Register(d.Params[i].Name, env.Data{Kind: env.KindParameter, Index: vidx})
	}

	if d.ReturnType != nil {
		ret, err := r.driver.Expr(d.ReturnType)
		if err != nil {
			return transform.Transformation{}, err
		}
		d.ReturnType = ret
		if _, terr := r.exprAnnotationType(ret, d.Pos()); terr != nil {
			return transform.Transformation{}, terr
		}
	}

	attrs := &d.Attributes
	if attrs.Entry != nil {
		id, ok := attrs.Entry.(*ast.Identifier)
		if !ok {
			return transform.Transformation{}, r.err(diag.KindUnexpectedIdentifier, d.Pos(), "@entry requires a stage name")
		}
		stage, ok := stageFromName(id.Name)
		if !ok {
			return transform.Transformation{}, r.err(diag.KindUnexpectedIdentifier, d.Pos(), "unknown entry stage %q", id.Name)
		}
		attrs.EntryStage = stage
		attrs.HasEntryStage = true
	}
	if attrs.DepthWrite != nil {
		dw, err := r.driver.Expr(attrs.DepthWrite)
		if err != nil {
			return transform.Transformation{}, err
		}
		attrs.DepthWrite = dw
		if !isBoolType(types.ResolveAlias(typeOf(dw))) {
			return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, d.Pos(), "@depth_write requires a bool expression")
		}
	}
	if attrs.EarlyFragmentTests != nil {
		eft, err := r.driver.Expr(attrs.EarlyFragmentTests)
		if err != nil {
			return transform.Transformation{}, err
		}
		attrs.EarlyFragmentTests = eft
		if !isBoolType(types.ResolveAlias(typeOf(eft))) {
			return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, d.Pos(), "@early_fragment_tests requires a bool expression")
		}
	}
	for i := range attrs.WorkgroupSize {
		if attrs.WorkgroupSize[i] == nil {
			continue
		}
		dim, err := r.driver.Expr(attrs.WorkgroupSize[i])
		if err != nil {
			return transform.Transformation{}, err
		}
		attrs.WorkgroupSize[i] = dim
		p, ok := types.ResolveAlias(typeOf(dim)).(types.PrimitiveType)
		if !ok || p.Kind != types.U32 {
			return transform.Transformation{}, r.err(diag.KindIntrinsicUnmatchingParameterType, d.Pos(), "@workgroup_size components must be u32")
		}
	}

	fdata := rctx.FunctionData{Node: d, EntryStage: attrs.EntryStage, HasEntry: attrs.HasEntryStage}
	idx, rerr := r.ctx.Functions.Register(fdata, d.FuncIdx, d.HasIdx, d.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(d, "function table: %v", rerr)
	}
	d.FuncIdx = idx
	d.HasIdx = true
	r.cur.Register(d.Name, env.Data{Kind: env.KindFunction, Index: idx})
	r.funcScopes[idx] = scope

	if d.Body != nil {
		r.module.DeferFunction(d)
	}
	return transform.Skip(), nil
}

// isAllowedExternalType implements the type-legality half of the §4
// DeclareExternalStatement row.
func (r *Resolver) isAllowedExternalType(t types.ExpressionType) bool {
	switch tv := types.ResolveAlias(t).(type) {
	case types.SamplerType, types.TextureType, types.UniformType, types.StorageType, types.PushConstantType:
		return true
	case types.ArrayType:
		return isSamplerOrTexture(tv.Elem)
	case types.DynArrayType:
		return isSamplerOrTexture(tv.Elem)
	case types.PrimitiveType, types.VectorType, types.MatrixType:
		return r.moduleNode != nil && r.moduleNode.Metadata.HasFeature(ast.FeaturePrimitiveExternals)
	default:
		return false
	}
}

func isSamplerOrTexture(t types.ExpressionType) bool {
	switch types.ResolveAlias(t).(type) {
	case types.SamplerType, types.TextureType:
		return true
	default:
		return false
	}
}

// resolveDeclareExternal implements the §4 DeclareExternalStatement row.
func (r *Resolver) resolveDeclareExternal(d *ast.DeclareExternalStatement) (transform.Transformation, error) {
	var blockScope *env.Environment
	if d.Name != "" {
		blockScope = env.NewChild(r.cur, r.cur.ModuleID())
	}

	for i := range d.Vars {
		v := &d.Vars[i]
		ann, err := r.driver.Expr(v.TypeAnnotation)
		if err != nil {
			return transform.Transformation{}, err
		}
		v.TypeAnnotation = ann
		varType, terr := r.exprAnnotationType(ann, d.Pos())
		if terr != nil {
			return transform.Transformation{}, terr
		}
		if !r.isAllowedExternalType(varType) {
			return transform.Transformation{}, r.err(diag.KindFieldUnexpectedType, d.Pos(), "external variable %q has a type not allowed in an external block: %s", v.Name, types.String(varType))
		}

		if v.BindingSet != nil {
			bs, berr := r.driver.Expr(v.BindingSet)
			if berr != nil {
				return transform.Transformation{}, berr
			}
			v.BindingSet = bs
			p, ok := types.ResolveAlias(typeOf(bs)).(types.PrimitiveType)
			if !ok || p.Kind != types.U32 {
				return transform.Transformation{}, r.err(diag.KindIntrinsicUnmatchingParameterType, d.Pos(), "binding_set must be u32")
			}
		}
		if v.AutoBinding != nil {
			ab, aerr := r.driver.Expr(v.AutoBinding)
			if aerr != nil {
				return transform.Transformation{}, aerr
			}
			v.AutoBinding = ab
			if !isBoolType(types.ResolveAlias(typeOf(ab))) {
				return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, d.Pos(), "auto_binding must be bool")
			}
		} else if r.opts.ForceAutoBindingResolve {
			lit := &ast.ConstantValueExpression{BaseExpr: ast.BaseExpr{Location: d.Pos()}, Value: constant.Bool(true)}
			lit.SetCachedType(types.PrimitiveType{Kind: types.Bool})
			v.AutoBinding = lit
		}

		vdata := rctx.VariableData{Type: varType}
		vidx, verr := r.ctx.Variables.Register(vdata, 0, false, d.Pos())
		if verr != nil {
			return transform.Transformation{}, r.internalf(d, "variable table: %v", verr)
		}
		v.VarIdx = vidx

		if blockScope != nil {
			blockScope.Register(v.Name, env.Data{Kind: env.KindExternalVariable, Index: vidx})
		} else {
			r.cur.Register(v.Name, env.Data{Kind: env.KindExternalVariable, Index: vidx})
		}
	}

	if d.Name != "" {
		idx, berr := r.ctx.NamedExternalBlocks.Register(rctx.ExternalBlockData{Name: d.Name}, d.BlockIdx, d.HasIdx, d.Pos())
		if berr != nil {
			return transform.Transformation{}, r.internalf(d, "external block table: %v", berr)
		}
		d.BlockIdx = idx
		d.HasIdx = true
		r.blockScopes[idx] = blockScope
		r.cur.Register(d.Name, env.Data{Kind: env.KindExternalBlock, Index: idx})
	}

	return transform.Skip(), nil
}

// asInt64 narrows a folded numeric constant to an int64 loop bound, used
// only by @unroll expansion (§8 scenario S5) which is integer-only.
func asInt64(v constant.Value) (int64, bool) {
	switch n := v.(type) {
	case constant.I32:
		return int64(n), true
	case constant.U32:
		return int64(n), true
	case constant.IntLit:
		return int64(n), true
	default:
		return 0, false
	}
}

func intToConstant(p types.Primitive, i int64) constant.Value {
	if p == types.U32 {
		return constant.U32(uint32(i))
	}
	return constant.I32(int32(i))
}

// resolveFor implements the §4 ForStatement row, including the
// @unroll(Always) + options.UnrollForLoops expansion path.
func (r *Resolver) resolveFor(f *ast.ForStatement) (transform.Transformation, error) {
	from, err := r.driver.Expr(f.From)
	if err != nil {
		return transform.Transformation{}, err
	}
	f.From = from
	to, err := r.driver.Expr(f.To)
	if err != nil {
		return transform.Transformation{}, err
	}
	f.To = to
	var step ast.Expression
	if f.Step != nil {
		step, err = r.driver.Expr(f.Step)
		if err != nil {
			return transform.Transformation{}, err
		}
		f.Step = step
	}

	fromType := types.ResolveAlias(typeOf(from))
	p, ok := fromType.(types.PrimitiveType)
	if !ok || !p.Kind.IsNumeric() {
		return transform.Transformation{}, r.err(diag.KindIntrinsicUnmatchingParameterType, f.Pos(), "for loop bounds must be numeric, got %s", types.String(fromType))
	}

	if f.Unroll == ast.UnrollAlways && r.opts.UnrollForLoops {
		fromVal, fromOk, ferr := constfold.Eval(r.ctx, from)
		if ferr != nil {
			return transform.Transformation{}, ferr
		}
		toVal, toOk, terr := constfold.Eval(r.ctx, to)
		if terr != nil {
			return transform.Transformation{}, terr
		}
		stepVal := constant.Value(constant.I32(1))
		stepOk := true
		if f.Step != nil {
			stepVal, stepOk, err = constfold.Eval(r.ctx, step)
			if err != nil {
				return transform.Transformation{}, err
			}
		}
		if fromOk && toOk && stepOk {
			unrolled, uerr := r.unrollFor(f, p.Kind, fromVal, toVal, stepVal)
			if uerr != nil {
				return transform.Transformation{}, uerr
			}
			return transform.ReplaceStmt(unrolled), nil
		}
	}

	vdata := rctx.VariableData{Type: fromType}
	idx, rerr := r.ctx.Variables.Register(vdata, f.VarIdx, f.HasIdx, f.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(f, "variable table: %v", rerr)
	}
	f.VarIdx = idx
	f.HasIdx = true

	r.cur.PushScope()
	r.cur.Register(f.Counter, env.Data{Kind: env.KindVariable, Index: idx})
	r.loopDepth++
	_, _, berr := r.driver.Stmt(f.Body)
	r.loopDepth--
	r.cur.PopScope()
	if berr != nil {
		return transform.Transformation{}, berr
	}
	return transform.Skip(), nil
}

// unrollFor expands f into a sequence of `{const counter = literal;
// <cloned body>}` scopes, one per iteration, per §4's ForStatement row
// and §8 scenario S5.
func (r *Resolver) unrollFor(f *ast.ForStatement, elemKind types.Primitive, fromVal, toVal, stepVal constant.Value) (*ast.MultiStatement, error) {
	fromI, ok1 := asInt64(fromVal)
	toI, ok2 := asInt64(toVal)
	stepI, ok3 := asInt64(stepVal)
	if !ok1 || !ok2 || !ok3 {
		return nil, r.internalf(f, "@unroll requires integer for-loop bounds")
	}
	if stepI == 0 {
		return nil, r.err(diag.KindLiteralOutOfRange, f.Pos(), "for loop step must not be zero")
	}

	out := &ast.MultiStatement{BaseStmt: ast.BaseStmt{Location: f.Pos()}}
	for i := fromI; (stepI > 0 && i < toI) || (stepI < 0 && i > toI); i += stepI {
		iter := &ast.MultiStatement{BaseStmt: ast.BaseStmt{Location: f.Pos()}}
		constDecl := &ast.DeclareConstStatement{
			BaseStmt: ast.BaseStmt{Location: f.Pos()},
			Init:     &ast.ConstantValueExpression{BaseExpr: ast.BaseExpr{Location: f.Pos()}, Value: intToConstant(elemKind, i)},
			Name:     f.Counter,
		}
		iter.Statements = append(iter.Statements, constDecl)
		bodyClone := cloneStatement(f.Body).(*ast.MultiStatement)
		iter.Statements = append(iter.Statements, bodyClone.Statements...)

		r.cur.PushScope()
		r.loopDepth++
		_, _, err := r.driver.Stmt(iter)
		r.loopDepth--
		r.cur.PopScope()
		if err != nil {
			return nil, err
		}
		out.Statements = append(out.Statements, iter)
	}
	return out, nil
}

// resolveForEach implements the §4 ForEachStatement row: the same
// unroll philosophy as ForStatement, applied over a fixed-size array.
func (r *Resolver) resolveForEach(f *ast.ForEachStatement) (transform.Transformation, error) {
	arr, err := r.driver.Expr(f.Array)
	if err != nil {
		return transform.Transformation{}, err
	}
	f.Array = arr
	arrType := types.ResolveAlias(typeOf(arr))

	var elemType types.ExpressionType
	switch t := arrType.(type) {
	case types.ArrayType:
		elemType = t.Elem
	case types.DynArrayType:
		elemType = t.Elem
	default:
		return transform.Transformation{}, r.err(diag.KindIndexUnexpectedType, f.Pos(), "for-each requires an array expression, got %s", types.String(arrType))
	}

	if f.Unroll == ast.UnrollAlways && r.opts.UnrollForEachLoops {
		if arrT, ok := arrType.(types.ArrayType); ok {
			unrolled, uerr := r.unrollForEach(f, arrT)
			if uerr != nil {
				return transform.Transformation{}, uerr
			}
			return transform.ReplaceStmt(unrolled), nil
		}
	}

	vdata := rctx.VariableData{Type: elemType}
	idx, rerr := r.ctx.Variables.Register(vdata, f.VarIdx, f.HasIdx, f.Pos())
	if rerr != nil {
		return transform.Transformation{}, r.internalf(f, "variable table: %v", rerr)
	}
	f.VarIdx = idx
	f.HasIdx = true

	r.cur.PushScope()
	r.cur.Register(f.Var, env.Data{Kind: env.KindVariable, Index: idx})
	r.loopDepth++
	_, _, berr := r.driver.Stmt(f.Body)
	r.loopDepth--
	r.cur.PopScope()
	if berr != nil {
		return transform.Transformation{}, berr
	}
	return transform.Skip(), nil
}

// unrollForEach expands f into one `{const elem = array[i]; <cloned
// body>}` scope per element of a fixed-size array (§4 ForEachStatement
// row, "same philosophy over arrays").
func (r *Resolver) unrollForEach(f *ast.ForEachStatement, arrType types.ArrayType) (*ast.MultiStatement, error) {
	out := &ast.MultiStatement{BaseStmt: ast.BaseStmt{Location: f.Pos()}}
	for i := uint32(0); i < arrType.Len; i++ {
		iter := &ast.MultiStatement{BaseStmt: ast.BaseStmt{Location: f.Pos()}}
		idxLit := &ast.ConstantValueExpression{BaseExpr: ast.BaseExpr{Location: f.Pos()}, Value: constant.U32(i)}
		idxLit.SetCachedType(types.PrimitiveType{Kind: types.U32})
		access := &ast.AccessIndex{BaseExpr: ast.BaseExpr{Location: f.Pos()}, Expr: cloneExpression(f.Array), Indices: []ast.Expression{idxLit}}
		access.SetCachedType(arrType.Elem)
		constDecl := &ast.DeclareConstStatement{BaseStmt: ast.BaseStmt{Location: f.Pos()}, Init: access, Name: f.Var}
		iter.Statements = append(iter.Statements, constDecl)
		bodyClone := cloneStatement(f.Body).(*ast.MultiStatement)
		iter.Statements = append(iter.Statements, bodyClone.Statements...)

		r.cur.PushScope()
		r.loopDepth++
		_, _, err := r.driver.Stmt(iter)
		r.loopDepth--
		r.cur.PopScope()
		if err != nil {
			return nil, err
		}
		out.Statements = append(out.Statements, iter)
	}
	return out, nil
}

// resolveWhile implements the §4 WhileStatement row.
func (r *Resolver) resolveWhile(w *ast.WhileStatement) (transform.Transformation, error) {
	cond, err := r.driver.Expr(w.Cond)
	if err != nil {
		return transform.Transformation{}, err
	}
	w.Cond = cond
	if !isBoolType(types.ResolveAlias(typeOf(cond))) {
		return transform.Transformation{}, r.err(diag.KindConditionExpectedBool, w.Pos(), "while condition must be bool")
	}

	r.cur.PushScope()
	r.loopDepth++
	_, _, berr := r.driver.Stmt(w.Body)
	r.loopDepth--
	r.cur.PopScope()
	if berr != nil {
		return transform.Transformation{}, berr
	}
	return transform.Skip(), nil
}

// resolveImport implements §4.9: resolve the imported module against the
// caller-supplied ModuleResolver, detect circular imports via the
// Context's moduleByName sentinel, and expose its exported symbols
// through an isolated child environment (§4.2).
func (r *Resolver) resolveImport(i *ast.ImportStatement) (transform.Transformation, error) {
	if r.opts.ModuleResolver == nil {
		return transform.Transformation{}, r.err(diag.KindModuleNotFound, i.Pos(), "import %q: no module resolver configured", i.ModuleName)
	}

	if alreadyInProgress := r.ctx.BeginImport(i.ModuleName); alreadyInProgress {
		return transform.Transformation{}, r.err(diag.KindCircularImport, i.Pos(), "import %q forms a cycle", i.ModuleName)
	}

	mod, found := r.opts.ModuleResolver.Resolve(i.ModuleName)
	if !found || mod == nil {
		r.ctx.EndImport(i.ModuleName)
		return transform.Transformation{}, r.err(diag.KindModuleNotFound, i.Pos(), "module %q not found", i.ModuleName)
	}

	resolvedName := mod.Metadata.ModuleName
	alreadyResolved := resolvedName != i.ModuleName && r.ctx.KnowsModule(resolvedName)
	if !alreadyResolved {
		if _, errs := Resolve(mod, r.ctx, r.opts); errs != nil {
			r.ctx.EndImport(i.ModuleName)
			return transform.Transformation{}, errs[0]
		}
	}
	r.ctx.EndImport(i.ModuleName)

	modData := rctx.ModuleData{Module: mod, Name: resolvedName}
	idx, merr := r.ctx.Modules.Register(modData, i.ModuleIdx, i.HasIdx, i.Pos())
	if merr != nil {
		return transform.Transformation{}, r.internalf(i, "module table: %v", merr)
	}
	i.ModuleIdx = idx
	i.HasIdx = true

	modEnv := env.New(resolvedName)
	registerModuleExports(modEnv, mod)
	r.moduleScopes[idx] = modEnv

	name := i.ModuleName
	if i.Alias != "" {
		name = i.Alias
	}
	r.cur.Register(name, env.Data{Kind: env.KindModule, Index: idx})

	for _, sym := range i.Symbols {
		data, ok := modEnv.FindLocal(sym.Name)
		if !ok {
			return transform.Transformation{}, r.err(diag.KindUnknownIdentifier, i.Pos(), "module %q has no exported symbol %q", resolvedName, sym.Name)
		}
		alias := sym.Name
		if sym.Alias != "" {
			alias = sym.Alias
		}
		r.cur.Register(alias, data)
	}

	duplicate := false
	for _, prior := range r.moduleNode.ImportedModules {
		if prior.Metadata.ModuleName == resolvedName {
			duplicate = true
			break
		}
	}
	if !duplicate {
		r.moduleNode.ImportedModules = append(r.moduleNode.ImportedModules, mod)
	}
	return transform.Skip(), nil
}

// registerModuleExports populates env with every top-level declaration
// of mod's already-resolved statement list, the export surface an
// ImportStatement's selective symbol list or module-qualified access
// (AccessIdentifier against a ModuleExpression) draws from.
func registerModuleExports(e *env.Environment, mod *ast.Module) {
	for _, stmt := range mod.Statements {
		switch s := stmt.(type) {
		case *ast.DeclareAliasStatement:
			e.Register(s.Name, env.Data{Kind: env.KindAlias, Index: s.AliasIdx})
		case *ast.DeclareConstStatement:
			e.Register(s.Name, env.Data{Kind: env.KindConstant, Index: s.ConstIdx})
		case *ast.DeclareOptionStatement:
			e.Register(s.Name, env.Data{Kind: env.KindOption, Index: s.ConstIdx})
		case *ast.DeclareStructStatement:
			e.Register(s.Name, env.Data{Kind: env.KindStruct, Index: s.StructIdx})
		case *ast.DeclareFunctionStatement:
			e.Register(s.Name, env.Data{Kind: env.KindFunction, Index: s.FuncIdx})
		case *ast.DeclareExternalStatement:
			if s.Name != "" {
				e.Register(s.Name, env.Data{Kind: env.KindExternalBlock, Index: s.BlockIdx})
			}
			for _, v := range s.Vars {
				e.Register(v.Name, env.Data{Kind: env.KindExternalVariable, Index: v.VarIdx})
			}
		}
	}
}

// resolveReturn implements the §4 ReturnStatement row (§7
// ReturnOutsideFunction policy).
func (r *Resolver) resolveReturn(s *ast.ReturnStatement) (transform.Transformation, error) {
	if !r.inFunction {
		return transform.Transformation{}, r.err(diag.KindReturnOutsideFunction, s.Pos(), "return outside a function body")
	}
	if s.Value != nil {
		value, err := r.driver.Expr(s.Value)
		if err != nil {
			return transform.Transformation{}, err
		}
		s.Value = value
	}
	return transform.Skip(), nil
}

// resolveDiscard implements the §4 DiscardStatement row (§7
// DiscardOutsideFragment policy).
func (r *Resolver) resolveDiscard(s *ast.DiscardStatement) (transform.Transformation, error) {
	if !r.inFunction || !r.hasEntryStage || r.entryStage != ast.StageFragment {
		return transform.Transformation{}, r.err(diag.KindDiscardOutsideFragment, s.Pos(), "discard outside a fragment entry point")
	}
	return transform.Skip(), nil
}

// resolveLoopControl implements the §4 BreakStatement/ContinueStatement
// rows (§7 LoopControlOutsideLoop policy).
func (r *Resolver) resolveLoopControl(s ast.Statement) (transform.Transformation, error) {
	if r.loopDepth == 0 {
		return transform.Transformation{}, r.err(diag.KindLoopControlOutsideLoop, s.Pos(), "break/continue outside a loop")
	}
	return transform.Skip(), nil
}

// resolveExpressionStatement implements the §4 ExpressionStatement row.
func (r *Resolver) resolveExpressionStatement(s *ast.ExpressionStatement) (transform.Transformation, error) {
	expr, err := r.driver.Expr(s.Expr)
	if err != nil {
		return transform.Transformation{}, err
	}
	s.Expr = expr
	return transform.Skip(), nil
}
