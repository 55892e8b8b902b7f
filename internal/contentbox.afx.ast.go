package internal

import (
	"fmt"
	"strings"
)

// Position represents a location in a source text
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// AFXNodeKind identifies AFX AST node kinds
type AFXNodeKind int

// AFX node kind constants
const (
	AFXNodeText AFXNodeKind = iota
	AFXNodeExpression
	AFXNodeElement
)

// AFX node kind names for debugging
const (
	AFXNodeNameText       = "TEXT"
	AFXNodeNameExpression = "EXPRESSION"
	AFXNodeNameElement    = "ELEMENT"
)

// String returns the string representation of the node kind
func (k AFXNodeKind) String() string {
	switch k {
	case AFXNodeText:
		return AFXNodeNameText
	case AFXNodeExpression:
		return AFXNodeNameExpression
	case AFXNodeElement:
		return AFXNodeNameElement
	default:
		return AFXNodeNameText
	}
}

// AFXAttributeKind identifies how an attribute value was written
type AFXAttributeKind int

// AFX attribute kind constants
const (
	AFXAttrString AFXAttributeKind = iota
	AFXAttrExpression
	AFXAttrBoolean
	AFXAttrSpread
)

// AFXAttribute is a single attribute of an element
type AFXAttribute struct {
	Kind  AFXAttributeKind
	Name  string // empty for spreads
	Value string // string value or expression source
	Pos   Position
}

// IsMeta reports whether the attribute addresses a meta property (@if, @key, ...)
func (a AFXAttribute) IsMeta() bool {
	return strings.HasPrefix(a.Name, AFXMetaPrefix)
}

// AFXNode is a node of the parsed markup tree
type AFXNode struct {
	Kind        AFXNodeKind
	Pos         Position
	Text        string // text content or expression source
	Name        string // element name
	Attributes  []AFXAttribute
	Children    []*AFXNode
	SelfClosing bool
}

// IsFusionObject reports whether the element names a Fusion prototype (Vendor:Name)
func (n *AFXNode) IsFusionObject() bool {
	return n.Kind == AFXNodeElement && strings.Contains(n.Name, string(CharColon))
}

// Attribute returns the first attribute with the given name
func (n *AFXNode) Attribute(name string) (AFXAttribute, bool) {
	for _, attr := range n.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return AFXAttribute{}, false
}

// String returns a string representation
func (n *AFXNode) String() string {
	switch n.Kind {
	case AFXNodeText:
		content := n.Text
		if len(content) > MaxStringDisplayLength {
			content = content[:TruncatedStringLength] + TruncationSuffix
		}
		return fmt.Sprintf("Text{%q @ %s}", content, n.Pos)
	case AFXNodeExpression:
		return fmt.Sprintf("Expression{%s @ %s}", n.Text, n.Pos)
	default:
		return fmt.Sprintf("Element{%s, attrs=%d, children=%d @ %s}", n.Name, len(n.Attributes), len(n.Children), n.Pos)
	}
}

// AFX meta attribute names
const (
	AFXMetaPrefix   = "@"
	AFXMetaKey      = "@key"
	AFXMetaPath     = "@path"
	AFXMetaChildren = "@children"
)

// AFX syntax markers
const (
	AFXCommentOpen  = "<!--"
	AFXCommentClose = "-->"
	AFXCloseTagOpen = "</"
	AFXSelfClose    = "/>"
	AFXSpread       = "..."
)

// AFXError represents a markup error with position
type AFXError struct {
	Message  string
	Detail   string
	Position Position
}

// NewAFXError creates a new markup error
func NewAFXError(message, detail string, pos Position) *AFXError {
	return &AFXError{
		Message:  message,
		Detail:   detail,
		Position: pos,
	}
}

// Error implements the error interface
func (e *AFXError) Error() string {
	msg := e.Message
	if e.Detail != StringValueEmpty {
		msg = fmt.Sprintf(ErrFmtWithDetail, e.Message, e.Detail)
	}
	return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
}

// AFX error message constants
const (
	ErrMsgAFXUnclosedTag        = "unclosed tag"
	ErrMsgAFXMismatchedTag      = "mismatched closing tag"
	ErrMsgAFXUnexpectedClose    = "unexpected closing tag"
	ErrMsgAFXInvalidTagName     = "invalid tag name"
	ErrMsgAFXInvalidAttribute   = "invalid attribute syntax"
	ErrMsgAFXUnterminatedString = "unterminated attribute string"
	ErrMsgAFXUnbalancedBraces   = "unbalanced expression braces"
	ErrMsgAFXUnexpectedBrace    = "unexpected closing brace"
	ErrMsgAFXUnterminatedComm   = "unterminated comment"
	ErrMsgAFXInvalidSpread      = "invalid spread attribute"
	ErrMsgAFXEmptyExpression    = "empty expression"
)
