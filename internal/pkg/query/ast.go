// Package query implements the filter expressions accepted by the log
// endpoints, e.g.
//
//	priority:error AND NOT file:"src/retry.rs"
//	(message:timeout OR counter>=100) AND ts<1700000000000000000
//
// A bare word or quoted string searches priority, file and message.
package query

// Op is a comparison operator.
type Op string

const (
	OpEq       Op = "="
	OpNeq      Op = "!="
	OpContains Op = "CONTAINS"
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpLt       Op = "<"
	OpLte      Op = "<="
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	node()
}

// BinaryExpr joins two expressions with AND or OR.
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
}

func (BinaryExpr) node() {}

// MatchExpr compares a field against a value. An empty Key is a
// full-text search.
type MatchExpr struct {
	Key   string
	Value string
	Op    Op
}

func (MatchExpr) node() {}

// NotExpr negates its inner expression.
type NotExpr struct {
	Expr Node
}

func (NotExpr) node() {}
