package query

import (
	"fmt"

	"github.com/nlstn/go-odata-sql/internal/edm"
)

// Expr is an expression resolved against the entity data model. The set of
// implementations is closed: *Binary, *Unary, *Method, *Member, *Property
// and *Literal. Consumers switch over the concrete type.
type Expr interface {
	expr()
}

// BinaryOperator is an infix operator.
type BinaryOperator int

const (
	OpOr BinaryOperator = iota
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var binaryOperatorNames = map[BinaryOperator]string{
	OpOr: "or", OpAnd: "and",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
}

func (op BinaryOperator) String() string {
	if name, ok := binaryOperatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BinaryOperator(%d)", int(op))
}

// UnaryOperator is a prefix operator.
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpMinus
)

func (op UnaryOperator) String() string {
	if op == OpNot {
		return "not"
	}
	return "-"
}

// MethodName is a built-in OData method.
type MethodName string

const (
	MethodStartsWith  MethodName = "startswith"
	MethodEndsWith    MethodName = "endswith"
	MethodSubstringOf MethodName = "substringof"
	MethodConcat      MethodName = "concat"
	MethodLength      MethodName = "length"
	MethodToLower     MethodName = "tolower"
	MethodToUpper     MethodName = "toupper"
	MethodIndexOf     MethodName = "indexof"
	MethodReplace     MethodName = "replace"
	MethodSubstring   MethodName = "substring"
	MethodTrim        MethodName = "trim"
	MethodDay         MethodName = "day"
	MethodHour        MethodName = "hour"
	MethodMinute      MethodName = "minute"
	MethodMonth       MethodName = "month"
	MethodSecond      MethodName = "second"
	MethodYear        MethodName = "year"
	MethodRound       MethodName = "round"
	MethodFloor       MethodName = "floor"
	MethodCeiling     MethodName = "ceiling"
	MethodIsOf        MethodName = "isof"
	MethodCast        MethodName = "cast"
)

// methodArity holds the accepted argument counts of every known method.
var methodArity = map[MethodName][2]int{
	MethodStartsWith:  {2, 2},
	MethodEndsWith:    {2, 2},
	MethodSubstringOf: {2, 2},
	MethodConcat:      {2, 2},
	MethodLength:      {1, 1},
	MethodToLower:     {1, 1},
	MethodToUpper:     {1, 1},
	MethodIndexOf:     {2, 2},
	MethodReplace:     {3, 3},
	MethodSubstring:   {2, 3},
	MethodTrim:        {1, 1},
	MethodDay:         {1, 1},
	MethodHour:        {1, 1},
	MethodMinute:      {1, 1},
	MethodMonth:       {1, 1},
	MethodSecond:      {1, 1},
	MethodYear:        {1, 1},
	MethodRound:       {1, 1},
	MethodFloor:       {1, 1},
	MethodCeiling:     {1, 1},
	MethodIsOf:        {1, 2},
	MethodCast:        {1, 2},
}

// Binary is a logical, comparison or arithmetic expression.
type Binary struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// Unary is not or unary minus.
type Unary struct {
	Op      UnaryOperator
	Operand Expr
}

// Method is a built-in method call.
type Method struct {
	Method MethodName
	Args   []Expr
}

// Member accesses Property on the structural value produced by Path, e.g.
// Entity2/Name. Path is a *Property or a nested *Member whose property is
// complex or navigation.
type Member struct {
	Path     Expr
	Property *edm.Property
	// Owner is the type Property is declared on, which is the type Path yields.
	Owner *edm.EntityType
}

// Property is a property of the target entity type.
type Property struct {
	Property *edm.Property
	Owner    *edm.EntityType
}

// Literal is a constant. Text holds the literal without quotes or type prefix.
type Literal struct {
	Type edm.SimpleType
	Text string
}

func (*Binary) expr()   {}
func (*Unary) expr()    {}
func (*Method) expr()   {}
func (*Member) expr()   {}
func (*Property) expr() {}
func (*Literal) expr()  {}

// IsNull reports whether l is the null literal.
func (l *Literal) IsNull() bool { return l.Type == edm.Null }

// Value coerces the literal text into its Go value.
func (l *Literal) Value() (any, error) {
	return edm.ParseLiteral(l.Type, l.Text)
}

// StructuralType returns the complex or entity type an expression yields,
// or nil when it yields a primitive value.
func StructuralType(e Expr) *edm.EntityType {
	var p *edm.Property
	switch n := e.(type) {
	case *Property:
		p = n.Property
	case *Member:
		p = n.Property
	default:
		return nil
	}
	if p.Kind == edm.KindSimple {
		return nil
	}
	return p.Target
}
