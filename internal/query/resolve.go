package query

import (
	"fmt"

	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

var comparisonOperators = map[string]BinaryOperator{
	"eq": OpEq, "ne": OpNe, "lt": OpLt, "le": OpLe, "gt": OpGt, "ge": OpGe,
}

var logicalOperators = map[string]BinaryOperator{
	"and": OpAnd, "or": OpOr,
	"add": OpAdd, "sub": OpSub, "mul": OpMul, "div": OpDiv, "mod": OpMod,
}

// Resolve binds the identifiers of node to the properties of target and
// returns the typed expression tree. Grouping parentheses are dropped;
// consumers recompute them from operator precedence.
func Resolve(node ASTNode, target *edm.EntityType) (Expr, error) {
	switch n := node.(type) {
	case *GroupExpr:
		return Resolve(n.Expr, target)

	case *BinaryExpr:
		op, ok := logicalOperators[n.Operator]
		if !ok {
			return nil, odataerr.BadRequest("Unsupported operator %s", n.Operator)
		}
		return resolveBinary(op, n.Left, n.Right, target)

	case *ComparisonExpr:
		op, ok := comparisonOperators[n.Operator]
		if !ok {
			return nil, odataerr.BadRequest("Unsupported operator %s", n.Operator)
		}
		return resolveBinary(op, n.Left, n.Right, target)

	case *UnaryExpr:
		operand, err := Resolve(n.Operand, target)
		if err != nil {
			return nil, err
		}
		op := OpMinus
		if n.Operator == "not" {
			op = OpNot
		}
		return &Unary{Op: op, Operand: operand}, nil

	case *FunctionCallExpr:
		return resolveMethod(n, target)

	case *IdentifierExpr:
		return ResolvePath(target, n.Path)

	case *LiteralExpr:
		return &Literal{Type: n.Type, Text: n.Text}, nil
	}

	return nil, odataerr.Internal("Unsupported expression node %T", node)
}

func resolveBinary(op BinaryOperator, l, r ASTNode, target *edm.EntityType) (Expr, error) {
	left, err := Resolve(l, target)
	if err != nil {
		return nil, err
	}
	right, err := Resolve(r, target)
	if err != nil {
		return nil, err
	}
	return &Binary{Op: op, Left: left, Right: right}, nil
}

func resolveMethod(n *FunctionCallExpr, target *edm.EntityType) (Expr, error) {
	name := MethodName(n.Function)
	arity, ok := methodArity[name]
	if !ok {
		return nil, odataerr.BadRequest("Unknown method %s at position %d", n.Function, n.Pos)
	}
	if len(n.Args) < arity[0] || len(n.Args) > arity[1] {
		return nil, odataerr.BadRequest("Method %s expects %s, got %d", n.Function, arityText(arity), len(n.Args))
	}
	args := make([]Expr, 0, len(n.Args))
	for _, a := range n.Args {
		arg, err := Resolve(a, target)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &Method{Method: name, Args: args}, nil
}

func arityText(arity [2]int) string {
	if arity[0] == arity[1] {
		if arity[0] == 1 {
			return "1 argument"
		}
		return fmt.Sprintf("%d arguments", arity[0])
	}
	return fmt.Sprintf("%d to %d arguments", arity[0], arity[1])
}

// ResolvePath resolves a property path such as Status, Address/City or
// Entity2/Entity3/Name starting at target.
func ResolvePath(target *edm.EntityType, path []string) (Expr, error) {
	if len(path) == 0 {
		return nil, odataerr.BadRequest("Empty property path")
	}
	prop, ok := target.Property(path[0])
	if !ok {
		return nil, odataerr.BadRequest("Property %s not found on type %s", path[0], target.FQN())
	}
	var result Expr = &Property{Property: prop, Owner: target}
	owner := prop

	for _, segment := range path[1:] {
		if owner.Kind == edm.KindSimple {
			return nil, odataerr.BadRequest("Property %s of type %s has no member %s", owner.Name, owner.Type, segment)
		}
		next, ok := owner.Target.Property(segment)
		if !ok {
			return nil, odataerr.BadRequest("Property %s not found on type %s", segment, owner.Target.FQN())
		}
		result = &Member{Path: result, Property: next, Owner: owner.Target}
		owner = next
	}
	return result, nil
}

// ResolveFilter parses and resolves a $filter value. The filter must be a
// boolean expression; bare literals are rejected since they carry no
// predicate.
func ResolveFilter(raw string, target *edm.EntityType) (Expr, error) {
	node, err := parseCached(raw)
	if err != nil {
		return nil, odataerr.BadRequest("Invalid $filter").Wrap(err)
	}
	expr, err := Resolve(node, target)
	if err != nil {
		return nil, err
	}
	if _, ok := expr.(*Literal); ok {
		return nil, odataerr.BadRequest("Invalid $filter: %s is not a predicate", raw)
	}
	if !IsBoolean(expr) {
		return nil, odataerr.BadRequest("Filter must be a boolean expression: %s", raw)
	}
	return expr, nil
}

// IsBoolean reports whether e yields Edm.Boolean.
func IsBoolean(e Expr) bool {
	switch n := e.(type) {
	case *Binary:
		return n.Op <= OpGe
	case *Unary:
		return n.Op == OpNot
	case *Method:
		switch n.Method {
		case MethodStartsWith, MethodEndsWith, MethodSubstringOf, MethodIsOf:
			return true
		}
		return false
	case *Property:
		return n.Property.Kind == edm.KindSimple && n.Property.Type == edm.Boolean
	case *Member:
		return n.Property.Kind == edm.KindSimple && n.Property.Type == edm.Boolean
	case *Literal:
		return n.Type == edm.Boolean
	}
	return false
}
