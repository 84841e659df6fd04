package expr

import "fmt"

// AST values are one of: float64, bool, string, nil. Evaluation walks the
// tree directly with no dynamic code execution.

type node interface {
	eval() (interface{}, error)
}

type literalNode struct {
	val interface{}
}

func (n *literalNode) eval() (interface{}, error) {
	return n.val, nil
}

// logicalNode is && / ||. Like the editor's original evaluator it returns
// the deciding operand rather than a bare bool, and short-circuits.
type logicalNode struct {
	op          string
	left, right node
}

func (n *logicalNode) eval() (interface{}, error) {
	left, err := n.left.eval()
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "&&":
		if !truthy(left) {
			return left, nil
		}
		return n.right.eval()
	case "||":
		if truthy(left) {
			return left, nil
		}
		return n.right.eval()
	}
	return nil, fmt.Errorf("unknown logical operator %q", n.op)
}

type comparisonNode struct {
	op          string
	left, right node
}

func (n *comparisonNode) eval() (interface{}, error) {
	left, err := n.left.eval()
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval()
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "==":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	}
	// Ordering: numbers with numbers, strings with strings.
	if lf, ok := left.(float64); ok {
		rf, ok := right.(float64)
		if !ok {
			return nil, orderTypeError(n.op, left, right)
		}
		switch n.op {
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		}
	}
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return nil, orderTypeError(n.op, left, right)
		}
		switch n.op {
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		}
	}
	return nil, orderTypeError(n.op, left, right)
}

func orderTypeError(op string, left, right interface{}) error {
	return fmt.Errorf("operator %q not supported between %s and %s", op, typeName(left), typeName(right))
}

type arithmeticNode struct {
	op          string
	left, right node
}

func (n *arithmeticNode) eval() (interface{}, error) {
	left, err := n.left.eval()
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval()
	if err != nil {
		return nil, err
	}
	if ls, ok := left.(string); ok && n.op == "+" {
		if rs, ok := right.(string); ok {
			return ls + rs, nil
		}
	}
	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %q not supported between %s and %s", n.op, typeName(left), typeName(right))
	}
	switch n.op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("unknown arithmetic operator %q", n.op)
}

type negateNode struct {
	expr node
}

func (n *negateNode) eval() (interface{}, error) {
	v, err := n.expr.eval()
	if err != nil {
		return nil, err
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("unary minus not supported for %s", typeName(v))
	}
	return -f, nil
}

// equalValues compares without cross-type coercion: a number never equals
// its string rendering.
func equalValues(a, b interface{}) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

// truthy coerces a value to bool: false, zero, the empty string, and None
// are false; everything else is true.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	}
	return true
}

func typeName(v interface{}) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case nil:
		return "None"
	}
	return fmt.Sprintf("%T", v)
}
