package query

import (
	"strconv"
	"strings"
)

// Record is the view of a log entry the evaluator needs.
// It keeps this package independent of the model package.
type Record interface {
	GetTimestamp() uint64
	GetPriority() string
	GetFile() string
	GetLine() uint32
	GetMessage() string
	GetCounter() uint64
}

// Match evaluates node against rec. A nil node matches everything.
func Match(node Node, rec Record) bool {
	if node == nil {
		return true
	}

	switch n := node.(type) {
	case BinaryExpr:
		switch n.Op {
		case "AND":
			return Match(n.Left, rec) && Match(n.Right, rec)
		case "OR":
			return Match(n.Left, rec) || Match(n.Right, rec)
		}
		return false
	case MatchExpr:
		return evalMatch(n, rec)
	case NotExpr:
		return !Match(n.Expr, rec)
	default:
		return false
	}
}

func evalMatch(expr MatchExpr, rec Record) bool {
	if expr.Key == "" {
		return matchFullText(expr.Value, rec)
	}

	if numericField(expr.Key) {
		want, err := strconv.ParseUint(expr.Value, 10, 64)
		if err != nil {
			// A non-numeric value never equals a number.
			return expr.Op == OpNeq
		}
		return compareUint(numericValue(expr.Key, rec), want, expr.Op)
	}

	value := textValue(expr.Key, rec)
	switch expr.Op {
	case OpNeq:
		return !strings.EqualFold(value, expr.Value)
	case OpContains:
		return containsFold(value, expr.Value)
	default:
		return strings.EqualFold(value, expr.Value)
	}
}

func compareUint(got, want uint64, op Op) bool {
	switch op {
	case OpNeq:
		return got != want
	case OpGt:
		return got > want
	case OpGte:
		return got >= want
	case OpLt:
		return got < want
	case OpLte:
		return got <= want
	default:
		return got == want
	}
}

func knownField(key string) bool {
	switch strings.ToLower(key) {
	case "priority", "level", "file", "message", "msg":
		return true
	}
	return numericField(key)
}

func numericField(key string) bool {
	switch strings.ToLower(key) {
	case "timestamp", "ts", "line", "counter":
		return true
	}
	return false
}

func numericValue(key string, rec Record) uint64 {
	switch strings.ToLower(key) {
	case "timestamp", "ts":
		return rec.GetTimestamp()
	case "line":
		return uint64(rec.GetLine())
	case "counter":
		return rec.GetCounter()
	}
	return 0
}

func textValue(key string, rec Record) string {
	switch strings.ToLower(key) {
	case "priority", "level":
		return rec.GetPriority()
	case "file":
		return rec.GetFile()
	case "message", "msg":
		return rec.GetMessage()
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchFullText(q string, rec Record) bool {
	for _, f := range []string{rec.GetPriority(), rec.GetFile(), rec.GetMessage()} {
		if containsFold(f, q) {
			return true
		}
	}
	return false
}
