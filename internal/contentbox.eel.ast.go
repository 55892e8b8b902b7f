package internal

import (
	"fmt"
	"strings"
)

// EelNodeType identifies the type of expression AST node
type EelNodeType int

// Expression node type constants
const (
	EelNodeLiteral EelNodeType = iota
	EelNodeIdentifier
	EelNodeUnary
	EelNodeBinary
	EelNodeCall
	EelNodeMember
	EelNodeIndex
	EelNodeTernary
	EelNodeArray
	EelNodeObject
)

// EelNode is the interface for all expression AST nodes
type EelNode interface {
	// Type returns the node type
	Type() EelNodeType
	// String returns a string representation for debugging
	String() string
	eelNode()
}

// EelLiteral represents a literal value (string, number, bool, null)
type EelLiteral struct {
	Value any
}

func (n *EelLiteral) Type() EelNodeType { return EelNodeLiteral }
func (n *EelLiteral) eelNode()          {}

func (n *EelLiteral) String() string {
	switch v := n.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return EelKeywordNull
	default:
		return fmt.Sprintf("%v", v)
	}
}

// EelIdentifier represents a context path (may include dot notation)
type EelIdentifier struct {
	Name string
}

func (n *EelIdentifier) Type() EelNodeType { return EelNodeIdentifier }
func (n *EelIdentifier) eelNode()          {}
func (n *EelIdentifier) String() string    { return n.Name }

// EelUnary represents a unary operation (!x, -x)
type EelUnary struct {
	Op    EelTokenType
	Right EelNode
}

func (n *EelUnary) Type() EelNodeType { return EelNodeUnary }
func (n *EelUnary) eelNode()          {}

func (n *EelUnary) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, n.Right.String())
}

// EelBinary represents a binary operation
type EelBinary struct {
	Left  EelNode
	Op    EelTokenType
	Right EelNode
}

func (n *EelBinary) Type() EelNodeType { return EelNodeBinary }
func (n *EelBinary) eelNode()          {}

func (n *EelBinary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// EelCall represents a helper call (e.g. String.toUpperCase(title))
type EelCall struct {
	Name string
	Args []EelNode
}

func (n *EelCall) Type() EelNodeType { return EelNodeCall }
func (n *EelCall) eelNode()          {}

func (n *EelCall) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
}

// EelMember represents property access on a computed value (x[0].name)
type EelMember struct {
	Target EelNode
	Name   string
}

func (n *EelMember) Type() EelNodeType { return EelNodeMember }
func (n *EelMember) eelNode()          {}
func (n *EelMember) String() string    { return n.Target.String() + "." + n.Name }

// EelIndex represents bracket access (items[0], map['key'])
type EelIndex struct {
	Target EelNode
	Index  EelNode
}

func (n *EelIndex) Type() EelNodeType { return EelNodeIndex }
func (n *EelIndex) eelNode()          {}

func (n *EelIndex) String() string {
	return fmt.Sprintf("%s[%s]", n.Target.String(), n.Index.String())
}

// EelTernary represents cond ? then : else
type EelTernary struct {
	Cond EelNode
	Then EelNode
	Else EelNode
}

func (n *EelTernary) Type() EelNodeType { return EelNodeTernary }
func (n *EelTernary) eelNode()          {}

func (n *EelTernary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond.String(), n.Then.String(), n.Else.String())
}

// EelArray represents an array literal
type EelArray struct {
	Elements []EelNode
}

func (n *EelArray) Type() EelNodeType { return EelNodeArray }
func (n *EelArray) eelNode()          {}

func (n *EelArray) String() string {
	parts := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EelObject represents an object literal; key order is kept
type EelObject struct {
	Keys   []string
	Values []EelNode
}

func (n *EelObject) Type() EelNodeType { return EelNodeObject }
func (n *EelObject) eelNode()          {}

func (n *EelObject) String() string {
	parts := make([]string, len(n.Keys))
	for i, key := range n.Keys {
		parts[i] = key + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
