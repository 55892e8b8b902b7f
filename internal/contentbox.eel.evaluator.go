package internal

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// EelEvaluator evaluates expression AST nodes against a context
type EelEvaluator struct {
	helpers *HelperRegistry
	ctx     *Context
}

// NewEelEvaluator creates a new expression evaluator
func NewEelEvaluator(helpers *HelperRegistry, ctx *Context) *EelEvaluator {
	return &EelEvaluator{
		helpers: helpers,
		ctx:     ctx,
	}
}

// Evaluate evaluates an expression and returns the result
func (e *EelEvaluator) Evaluate(node EelNode) (any, error) {
	if node == nil {
		return nil, NewEelEvalError(ErrMsgEelNilNode, "")
	}

	switch n := node.(type) {
	case *EelLiteral:
		return n.Value, nil
	case *EelIdentifier:
		return e.evaluateIdentifier(n)
	case *EelUnary:
		return e.evaluateUnary(n)
	case *EelBinary:
		return e.evaluateBinary(n)
	case *EelCall:
		return e.evaluateCall(n)
	case *EelMember:
		target, err := e.Evaluate(n.Target)
		if err != nil {
			return nil, err
		}
		value, _, err := Traverse(target, n.Name)
		return value, err
	case *EelIndex:
		return e.evaluateIndex(n)
	case *EelTernary:
		cond, err := e.Evaluate(n.Cond)
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return e.Evaluate(n.Then)
		}
		return e.Evaluate(n.Else)
	case *EelArray:
		result := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			value, err := e.Evaluate(el)
			if err != nil {
				return nil, err
			}
			result[i] = value
		}
		return result, nil
	case *EelObject:
		result := NewOrderedMap()
		for i, key := range n.Keys {
			value, err := e.Evaluate(n.Values[i])
			if err != nil {
				return nil, err
			}
			result.Set(key, value)
		}
		return result, nil
	default:
		return nil, NewEelEvalError(ErrMsgEelUnknownNodeType, fmt.Sprintf("%T", node))
	}
}

// EvaluateBool evaluates an expression and coerces the result to a boolean
func (e *EelEvaluator) EvaluateBool(node EelNode) (bool, error) {
	result, err := e.Evaluate(node)
	if err != nil {
		return false, err
	}
	return isTruthy(result), nil
}

// evaluateIdentifier resolves a context path; unknown names yield null
func (e *EelEvaluator) evaluateIdentifier(node *EelIdentifier) (any, error) {
	if e.ctx == nil {
		return nil, nil
	}
	value, _, err := e.ctx.Lookup(node.Name)
	return value, err
}

func (e *EelEvaluator) evaluateIndex(node *EelIndex) (any, error) {
	target, err := e.Evaluate(node.Target)
	if err != nil {
		return nil, err
	}
	index, err := e.Evaluate(node.Index)
	if err != nil {
		return nil, err
	}
	value, _, err := Traverse(target, anyToString(index))
	return value, err
}

// evaluateUnary evaluates a unary operation
func (e *EelEvaluator) evaluateUnary(node *EelUnary) (any, error) {
	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case EelTokenNot:
		return !isTruthy(right), nil
	case EelTokenMinus:
		f, ok := toNumber(right)
		if !ok {
			return nil, NewEelEvalError(ErrMsgEelTypeMismatch, fmt.Sprintf("cannot negate %T", right))
		}
		return normalizeNumber(-f), nil
	default:
		return nil, NewEelEvalError(ErrMsgEelUnknownOperator, string(node.Op))
	}
}

// evaluateBinary evaluates a binary operation.
// Logical operators short-circuit and return the deciding operand.
func (e *EelEvaluator) evaluateBinary(node *EelBinary) (any, error) {
	left, err := e.Evaluate(node.Left)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case EelTokenAnd:
		if !isTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	case EelTokenOr:
		if isTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	}

	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case EelTokenEq:
		return compareEqual(left, right), nil
	case EelTokenNeq:
		return !compareEqual(left, right), nil
	case EelTokenLt:
		return compareLess(left, right)
	case EelTokenGt:
		return compareLess(right, left)
	case EelTokenLte:
		greater, err := compareLess(right, left)
		if err != nil {
			return nil, err
		}
		return !greater, nil
	case EelTokenGte:
		less, err := compareLess(left, right)
		if err != nil {
			return nil, err
		}
		return !less, nil
	case EelTokenPlus:
		return add(left, right)
	case EelTokenMinus, EelTokenStar, EelTokenSlash, EelTokenPercent:
		return arithmetic(node.Op, left, right)
	default:
		return nil, NewEelEvalError(ErrMsgEelUnknownOperator, string(node.Op))
	}
}

// evaluateCall evaluates a helper call
func (e *EelEvaluator) evaluateCall(node *EelCall) (any, error) {
	if e.helpers == nil {
		return nil, NewEelEvalError(ErrMsgEelNoHelpers, node.Name)
	}

	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		val, err := e.Evaluate(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	return e.helpers.Call(node.Name, args)
}

// add concatenates when either side is a string, otherwise adds numbers
func add(left, right any) (any, error) {
	_, leftIsString := left.(string)
	_, rightIsString := right.(string)
	if leftIsString || rightIsString {
		return anyToString(left) + anyToString(right), nil
	}
	return arithmetic(EelTokenPlus, left, right)
}

func arithmetic(op EelTokenType, left, right any) (any, error) {
	a, err := anyToFloat(left, string(op), ArgIndexFirst)
	if err != nil {
		return nil, NewEelEvalError(ErrMsgEelTypeMismatch, fmt.Sprintf("%T %s %T", left, op, right))
	}
	b, err := anyToFloat(right, string(op), ArgIndexSecond)
	if err != nil {
		return nil, NewEelEvalError(ErrMsgEelTypeMismatch, fmt.Sprintf("%T %s %T", left, op, right))
	}

	switch op {
	case EelTokenPlus:
		return normalizeNumber(a + b), nil
	case EelTokenMinus:
		return normalizeNumber(a - b), nil
	case EelTokenStar:
		return normalizeNumber(a * b), nil
	case EelTokenSlash:
		if b == 0 {
			return nil, NewEelEvalError(ErrMsgEelDivisionByZero, "")
		}
		return normalizeNumber(a / b), nil
	case EelTokenPercent:
		if b == 0 {
			return nil, NewEelEvalError(ErrMsgEelDivisionByZero, "")
		}
		return normalizeNumber(math.Mod(a, b)), nil
	default:
		return nil, NewEelEvalError(ErrMsgEelUnknownOperator, string(op))
	}
}

// compareEqual checks if two values are equal
func compareEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr == bStr
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool == bBool
	}

	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// compareLess checks if a < b
func compareLess(a, b any) (bool, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum < bNum, nil
	}

	aStr, aIsStr := toString(a)
	bStr, bIsStr := toString(b)
	if aIsStr && bIsStr {
		return strings.Compare(aStr, bStr) < 0, nil
	}

	return false, NewEelEvalError(ErrMsgEelTypeMismatch, fmt.Sprintf("cannot compare %T and %T", a, b))
}

// EelEvalError represents an expression evaluation error
type EelEvalError struct {
	Message string
	Detail  string
}

// NewEelEvalError creates a new expression evaluation error
func NewEelEvalError(message, detail string) *EelEvalError {
	return &EelEvalError{
		Message: message,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *EelEvalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(ErrFmtWithDetail, e.Message, e.Detail)
	}
	return e.Message
}

// Expression evaluator error messages
const (
	ErrMsgEelNilNode         = "nil expression node"
	ErrMsgEelUnknownNodeType = "unknown expression node type"
	ErrMsgEelUnknownOperator = "unknown operator"
	ErrMsgEelNoHelpers       = "no helper registry available"
	ErrMsgEelTypeMismatch    = "type mismatch"
	ErrMsgEelDivisionByZero  = "division by zero"
)

// EvaluateEel is a convenience function that parses and evaluates an expression string
func EvaluateEel(expr string, helpers *HelperRegistry, ctx *Context) (any, error) {
	node, err := ParseEel(expr)
	if err != nil {
		return nil, err
	}
	return NewEelEvaluator(helpers, ctx).Evaluate(node)
}
