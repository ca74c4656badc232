package transform

import "github.com/shaderlang/slc/pkg/ast"

// exprChildren recurses into expr's own children in place, dispatching
// on concrete type. Leaf expressions (Identifier, the table-index
// leaves, the constant leaves) have no children and fall through the
// default case untouched.
func (d *Driver) exprChildren(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.AccessIdentifier:
		child, err := d.Expr(e.Expr)
		if err != nil {
			return err
		}
		e.Expr = child

	case *ast.AccessField:
		child, err := d.Expr(e.Expr)
		if err != nil {
			return err
		}
		e.Expr = child

	case *ast.AccessIndex:
		child, err := d.Expr(e.Expr)
		if err != nil {
			return err
		}
		e.Expr = child
		if err := d.exprList(e.Indices); err != nil {
			return err
		}

	case *ast.Binary:
		left, err := d.Expr(e.Left)
		if err != nil {
			return err
		}
		e.Left = left
		right, err := d.Expr(e.Right)
		if err != nil {
			return err
		}
		e.Right = right

	case *ast.Unary:
		operand, err := d.Expr(e.Operand)
		if err != nil {
			return err
		}
		e.Operand = operand

	case *ast.Cast:
		target, err := d.Expr(e.Target)
		if err != nil {
			return err
		}
		e.Target = target
		if err := d.exprList(e.Args); err != nil {
			return err
		}

	case *ast.Assign:
		left, err := d.Expr(e.Left)
		if err != nil {
			return err
		}
		e.Left = left
		right, err := d.Expr(e.Right)
		if err != nil {
			return err
		}
		e.Right = right

	case *ast.Swizzle:
		child, err := d.Expr(e.Expr)
		if err != nil {
			return err
		}
		e.Expr = child

	case *ast.CallFunction:
		target, err := d.Expr(e.Target)
		if err != nil {
			return err
		}
		e.Target = target
		if err := d.exprList(e.Args); err != nil {
			return err
		}

	case *ast.Intrinsic:
		if err := d.exprList(e.Args); err != nil {
			return err
		}

	case *ast.Conditional:
		cond, err := d.Expr(e.Cond)
		if err != nil {
			return err
		}
		e.Cond = cond
		then, err := d.Expr(e.Then)
		if err != nil {
			return err
		}
		e.Then = then
		elseExpr, err := d.Expr(e.Else)
		if err != nil {
			return err
		}
		e.Else = elseExpr
	}
	return nil
}

// stmtChildren recurses into stmt's own children in place.
func (d *Driver) stmtChildren(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.MultiStatement:
		return d.block(s)

	case *ast.BranchStatement:
		for i := range s.CondStatements {
			cond, err := d.Expr(s.CondStatements[i].Cond)
			if err != nil {
				return err
			}
			s.CondStatements[i].Cond = cond
			if err := d.block(s.CondStatements[i].Body); err != nil {
				return err
			}
		}
		if s.Else != nil {
			if err := d.block(s.Else); err != nil {
				return err
			}
		}

	case *ast.ConditionalStatement:
		cond, err := d.Expr(s.Cond)
		if err != nil {
			return err
		}
		s.Cond = cond
		replacement, removed, err := d.Stmt(s.Stmt)
		if err != nil {
			return err
		}
		if removed {
			s.Stmt = nil
		} else {
			s.Stmt = replacement
		}

	case *ast.DeclareAliasStatement:
		expr, err := d.Expr(s.Expr)
		if err != nil {
			return err
		}
		s.Expr = expr

	case *ast.DeclareConstStatement:
		ann, err := d.Expr(s.TypeAnnotation)
		if err != nil {
			return err
		}
		s.TypeAnnotation = ann
		init, err := d.Expr(s.Init)
		if err != nil {
			return err
		}
		s.Init = init

	case *ast.DeclareVariableStatement:
		ann, err := d.Expr(s.TypeAnnotation)
		if err != nil {
			return err
		}
		s.TypeAnnotation = ann
		init, err := d.Expr(s.Init)
		if err != nil {
			return err
		}
		s.Init = init

	case *ast.DeclareStructStatement:
		for i := range s.Members {
			m := &s.Members[i]
			cond, err := d.Expr(m.Cond)
			if err != nil {
				return err
			}
			m.Cond = cond
			builtin, err := d.Expr(m.Builtin)
			if err != nil {
				return err
			}
			m.Builtin = builtin
			interp, err := d.Expr(m.Interp)
			if err != nil {
				return err
			}
			m.Interp = interp
			loc, err := d.Expr(m.LocationIndex)
			if err != nil {
				return err
			}
			m.LocationIndex = loc
			ann, err := d.Expr(m.TypeAnnotation)
			if err != nil {
				return err
			}
			m.TypeAnnotation = ann
		}

	case *ast.DeclareOptionStatement:
		ann, err := d.Expr(s.TypeAnnotation)
		if err != nil {
			return err
		}
		s.TypeAnnotation = ann
		def, err := d.Expr(s.Default)
		if err != nil {
			return err
		}
		s.Default = def

	case *ast.DeclareFunctionStatement:
		ret, err := d.Expr(s.ReturnType)
		if err != nil {
			return err
		}
		s.ReturnType = ret
		for i := range s.Params {
			ann, err := d.Expr(s.Params[i].TypeAnnotation)
			if err != nil {
				return err
			}
			s.Params[i].TypeAnnotation = ann
		}
		entry, err := d.Expr(s.Attributes.Entry)
		if err != nil {
			return err
		}
		s.Attributes.Entry = entry
		depthWrite, err := d.Expr(s.Attributes.DepthWrite)
		if err != nil {
			return err
		}
		s.Attributes.DepthWrite = depthWrite
		eft, err := d.Expr(s.Attributes.EarlyFragmentTests)
		if err != nil {
			return err
		}
		s.Attributes.EarlyFragmentTests = eft
		for i := range s.Attributes.WorkgroupSize {
			dim, err := d.Expr(s.Attributes.WorkgroupSize[i])
			if err != nil {
				return err
			}
			s.Attributes.WorkgroupSize[i] = dim
		}
		if s.Body != nil {
			if err := d.block(s.Body); err != nil {
				return err
			}
		}

	case *ast.DeclareExternalStatement:
		for i := range s.Vars {
			ann, err := d.Expr(s.Vars[i].TypeAnnotation)
			if err != nil {
				return err
			}
			s.Vars[i].TypeAnnotation = ann
			bindingSet, err := d.Expr(s.Vars[i].BindingSet)
			if err != nil {
				return err
			}
			s.Vars[i].BindingSet = bindingSet
			autoBinding, err := d.Expr(s.Vars[i].AutoBinding)
			if err != nil {
				return err
			}
			s.Vars[i].AutoBinding = autoBinding
		}

	case *ast.ForStatement:
		from, err := d.Expr(s.From)
		if err != nil {
			return err
		}
		s.From = from
		to, err := d.Expr(s.To)
		if err != nil {
			return err
		}
		s.To = to
		step, err := d.Expr(s.Step)
		if err != nil {
			return err
		}
		s.Step = step
		if err := d.block(s.Body); err != nil {
			return err
		}

	case *ast.ForEachStatement:
		arr, err := d.Expr(s.Array)
		if err != nil {
			return err
		}
		s.Array = arr
		if err := d.block(s.Body); err != nil {
			return err
		}

	case *ast.WhileStatement:
		cond, err := d.Expr(s.Cond)
		if err != nil {
			return err
		}
		s.Cond = cond
		if err := d.block(s.Body); err != nil {
			return err
		}

	case *ast.ReturnStatement:
		value, err := d.Expr(s.Value)
		if err != nil {
			return err
		}
		s.Value = value

	case *ast.ExpressionStatement:
		expr, err := d.Expr(s.Expr)
		if err != nil {
			return err
		}
		s.Expr = expr

	// ImportStatement, DiscardStatement, BreakStatement, ContinueStatement
	// carry no child expressions or statements.
	}
	return nil
}
