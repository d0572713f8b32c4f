package sqlquery

import (
	"fmt"

	"github.com/nlstn/go-odata-sql/internal/binding"
	"github.com/nlstn/go-odata-sql/internal/edm"
	"github.com/nlstn/go-odata-sql/internal/odataerr"
	"github.com/nlstn/go-odata-sql/internal/query"
)

// binaryPriority orders operators from loosest (OR) to tightest binding. A
// child expression is parenthesized when its parent binds tighter.
var binaryPriority = map[query.BinaryOperator]int{
	query.OpMul: 60,
	query.OpDiv: 60,
	query.OpMod: 60,
	query.OpAdd: 50,
	query.OpSub: 50,
	query.OpLt:  40,
	query.OpGt:  40,
	query.OpLe:  40,
	query.OpGe:  40,
	query.OpEq:  30,
	query.OpNe:  30,
	query.OpAnd: 20,
	query.OpOr:  10,
}

var comparisonSQL = map[query.BinaryOperator]string{
	query.OpEq:  "=",
	query.OpNe:  "<>",
	query.OpLt:  "<",
	query.OpLe:  "<=",
	query.OpGt:  ">",
	query.OpGe:  ">=",
	query.OpAnd: "AND",
	query.OpOr:  "OR",
}

// fragment is the result of folding one expression node.
type fragment struct {
	text string
	// column is set when the fragment is a plain column reference.
	column *binding.ColumnInfo
	// structural is the entity or complex type a navigation or complex
	// property yields. Such fragments have no text.
	structural *edm.EntityType
	// bound is the 1-based index of the parameter a literal was bound to.
	bound int
}

// visitor folds a resolved filter expression into SQL text. The parameter
// list is threaded through the fold so that its order always matches the
// placeholders of the text produced so far.
type visitor struct {
	b      *SelectBuilder
	target *edm.EntityType
}

// whereClause translates e into a predicate over target.
func (b *SelectBuilder) whereClause(target *edm.EntityType, e query.Expr) (*WhereClause, error) {
	if e == nil {
		return NewWhereClause(""), nil
	}
	v := &visitor{b: b, target: target}
	f, params, err := v.visit(e, nil)
	if err != nil {
		return nil, err
	}
	if f.structural != nil {
		return nil, odataerr.BadRequest("Filter must be a boolean expression")
	}
	if bin, ok := e.(*query.Binary); ok && bin.Op == query.OpOr {
		return newDisjunction(f.text, params), nil
	}
	return NewWhereClause(f.text, params...), nil
}

func (v *visitor) visit(e query.Expr, params []Param) (fragment, []Param, error) {
	switch n := e.(type) {
	case *query.Binary:
		return v.binary(n, params)
	case *query.Unary:
		return v.unary(n, params)
	case *query.Method:
		return v.method(n, params)
	case *query.Member:
		return v.member(n, params)
	case *query.Property:
		return v.property(n, params)
	case *query.Literal:
		return v.literal(n, "", params)
	}
	return fragment{}, params, odataerr.Internal("Unsupported expression %T", e)
}

// literal binds l as a parameter. A non-empty format rewrites the literal
// text first, e.g. to add LIKE wildcards. Null is written inline.
func (v *visitor) literal(l *query.Literal, format string, params []Param) (fragment, []Param, error) {
	if l.IsNull() {
		return fragment{text: "NULL"}, params, nil
	}
	text := l.Text
	if format != "" {
		text = fmt.Sprintf(format, text)
	}
	value, err := edm.ParseLiteral(l.Type, text)
	if err != nil {
		return fragment{}, params, odataerr.BadRequest("Invalid %s literal '%s'", l.Type, l.Text).Wrap(err)
	}
	params = append(params, Param{Value: value, Type: l.Type})
	return fragment{text: "?", bound: len(params)}, params, nil
}

func (v *visitor) binary(n *query.Binary, params []Param) (fragment, []Param, error) {
	op, ok := comparisonSQL[n.Op]
	if !ok {
		return fragment{}, params, odataerr.NotImplemented("Binary operator %s is not supported", n.Op)
	}

	left, params, err := v.visit(n.Left, params)
	if err != nil {
		return fragment{}, params, err
	}
	right, params, err := v.visit(n.Right, params)
	if err != nil {
		return fragment{}, params, err
	}
	if left.structural != nil || right.structural != nil {
		return fragment{}, params, odataerr.NotImplemented("Property access is not supported in %s expressions", n.Op)
	}

	bindColumn(params, left, right)
	bindColumn(params, right, left)

	if lit, ok := n.Right.(*query.Literal); ok && lit.IsNull() {
		switch n.Op {
		case query.OpEq:
			op = "IS"
		case query.OpNe:
			op = "IS NOT"
		}
	}

	text := parenthesize(n, n.Left, left.text) + " " + op + " " + parenthesize(n, n.Right, right.text)
	return fragment{text: text}, params, nil
}

// bindColumn records the column a bound literal is compared with.
func bindColumn(params []Param, lit, col fragment) {
	if lit.bound > 0 && col.column != nil {
		params[lit.bound-1].Column = *col.column
	}
}

func parenthesize(parent *query.Binary, child query.Expr, text string) string {
	if c, ok := child.(*query.Binary); ok && binaryPriority[parent.Op] > binaryPriority[c.Op] {
		return "(" + text + ")"
	}
	return text
}

func (v *visitor) unary(n *query.Unary, params []Param) (fragment, []Param, error) {
	operand, params, err := v.visit(n.Operand, params)
	if err != nil {
		return fragment{}, params, err
	}
	if operand.structural != nil {
		return fragment{}, params, odataerr.BadRequest("Operator %s requires a primitive operand", n.Op)
	}
	op := "NOT"
	if n.Op == query.OpMinus {
		op = "-"
	}
	format := "%s %s"
	switch n.Operand.(type) {
	case *query.Unary, *query.Binary:
		format = "%s(%s)"
	}
	return fragment{text: fmt.Sprintf(format, op, operand.text)}, params, nil
}

func (v *visitor) method(n *query.Method, params []Param) (fragment, []Param, error) {
	switch n.Method {
	case query.MethodStartsWith:
		return v.like(n.Args[0], n.Args[1], "%s%%", "Invalid startswith usage", params)
	case query.MethodEndsWith:
		return v.like(n.Args[0], n.Args[1], "%%%s", "Invalid like syntax", params)
	case query.MethodSubstringOf:
		return v.like(n.Args[1], n.Args[0], "%%%s%%", "Invalid substringof usage", params)
	case query.MethodConcat:
		first, params, err := v.primitive(n.Args[0], params)
		if err != nil {
			return fragment{}, params, err
		}
		second, params, err := v.primitive(n.Args[1], params)
		if err != nil {
			return fragment{}, params, err
		}
		return fragment{text: fmt.Sprintf("CONCAT(%s,%s)", first.text, second.text)}, params, nil
	case query.MethodLength:
		return v.function("LENGTH", n.Args[0], params)
	case query.MethodToLower:
		return v.function("LOWER", n.Args[0], params)
	case query.MethodToUpper:
		return v.function("UPPER", n.Args[0], params)
	}
	return fragment{}, params, odataerr.NotImplemented("Method %s is not supported", n.Method)
}

// like renders target LIKE pattern. A literal pattern gets its wildcards from
// format; the target must be a column.
func (v *visitor) like(target, pattern query.Expr, format, usage string, params []Param) (fragment, []Param, error) {
	col, params, err := v.visit(target, params)
	if err != nil {
		return fragment{}, params, err
	}
	if col.column == nil {
		return fragment{}, params, odataerr.BadRequest("%s", usage)
	}
	var pat fragment
	if lit, ok := pattern.(*query.Literal); ok {
		pat, params, err = v.literal(lit, format, params)
	} else {
		pat, params, err = v.primitive(pattern, params)
	}
	if err != nil {
		return fragment{}, params, err
	}
	bindColumn(params, pat, col)
	return fragment{text: col.text + " LIKE " + pat.text}, params, nil
}

func (v *visitor) function(name string, arg query.Expr, params []Param) (fragment, []Param, error) {
	f, params, err := v.primitive(arg, params)
	if err != nil {
		return fragment{}, params, err
	}
	return fragment{text: name + "(" + f.text + ")"}, params, nil
}

// primitive visits e and rejects navigation or complex values.
func (v *visitor) primitive(e query.Expr, params []Param) (fragment, []Param, error) {
	f, params, err := v.visit(e, params)
	if err != nil {
		return fragment{}, params, err
	}
	if f.structural != nil {
		return fragment{}, params, odataerr.BadRequest("Expected a primitive value but got %s", f.structural.Name)
	}
	return f, params, nil
}

// member resolves nav/prop paths. Every level registers the join from the
// type it reaches to the type it starts from.
func (v *visitor) member(n *query.Member, params []Param) (fragment, []Param, error) {
	var err error
	if _, params, err = v.visit(n.Path, params); err != nil {
		return fragment{}, params, err
	}

	if pm, ok := n.Path.(*query.Member); ok {
		_, err = v.b.Join(pm.Property.Target, pm.Owner)
	} else {
		_, err = v.b.Join(n.Owner, v.target)
	}
	if err != nil {
		return fragment{}, params, err
	}

	switch n.Property.Kind {
	case edm.KindSimple:
		info, err := v.b.column(n.Owner, n.Property)
		if err != nil {
			return fragment{}, params, err
		}
		return fragment{text: info.Name, column: &info}, params, nil
	case edm.KindNavigation, edm.KindComplex:
		return fragment{structural: n.Property.Target}, params, nil
	}
	return fragment{}, params, odataerr.Internal("Error during processing member clause between path %s and property %s: Unsupported property kind %s",
		n.Owner.FQN(), n.Property.Name, n.Property.Kind)
}

func (v *visitor) property(n *query.Property, params []Param) (fragment, []Param, error) {
	if !n.Property.IsSimple() {
		return fragment{structural: n.Property.Target}, params, nil
	}
	owner := n.Owner
	if owner == nil {
		owner = v.target
	}
	info, err := v.b.column(owner, n.Property)
	if err != nil {
		return fragment{}, params, err
	}
	return fragment{text: info.Name, column: &info}, params, nil
}
