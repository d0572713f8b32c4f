package query

import "github.com/nlstn/go-odata-sql/internal/edm"

// ASTNode represents a node in the abstract syntax tree of a $filter or
// $orderby expression before it is resolved against an entity type.
type ASTNode interface {
	astNode()
}

// BinaryExpr represents a logical or arithmetic expression (A and B, X add Y)
type BinaryExpr struct {
	Left     ASTNode
	Operator string
	Right    ASTNode
}

func (e *BinaryExpr) astNode() {}

// UnaryExpr represents a unary expression (not X, -X)
type UnaryExpr struct {
	Operator string
	Operand  ASTNode
}

func (e *UnaryExpr) astNode() {}

// ComparisonExpr represents a comparison (e.g., Price gt 100)
type ComparisonExpr struct {
	Left     ASTNode
	Operator string
	Right    ASTNode
}

func (e *ComparisonExpr) astNode() {}

// FunctionCallExpr represents a method call (e.g., substringof('x', Name))
type FunctionCallExpr struct {
	Function string
	Args     []ASTNode
	Pos      int
}

func (e *FunctionCallExpr) astNode() {}

// IdentifierExpr represents a property path such as Status or Entity2/Name
type IdentifierExpr struct {
	Path []string
	Pos  int
}

func (e *IdentifierExpr) astNode() {}

// LiteralExpr represents a literal value with its primitive type
type LiteralExpr struct {
	Type edm.SimpleType
	Text string
}

func (e *LiteralExpr) astNode() {}

// GroupExpr represents a grouped expression (parentheses)
type GroupExpr struct {
	Expr ASTNode
}

func (e *GroupExpr) astNode() {}
