package internal

import (
	"fmt"
	"sort"
	"strings"
)

// Fusion meta property names
const (
	FusionMetaPrefix           = "@"
	FusionMetaClass            = "@class"
	FusionMetaIf               = "@if"
	FusionMetaProcess          = "@process"
	FusionMetaContext          = "@context"
	FusionMetaApply            = "@apply"
	FusionMetaPosition         = "@position"
	FusionMetaGlue             = "@glue"
	FusionMetaIgnoreProperties = "@ignoreProperties"
	FusionMetaCache            = "@cache"
	FusionMetaExpression       = "expression"
)

// FusionNode is one path of the configuration tree.
// A node may carry an object type, a literal value or an Eel expression,
// plus ordered children. Meta properties are children whose key starts with '@'.
type FusionNode struct {
	ObjectType    string
	Value         any
	HasValue      bool
	Expression    string
	HasExpression bool
	Removed       bool
	Children      map[string]*FusionNode
	Keys          []string
	Pos           Position
	Origin        string
}

// NewFusionNode creates an empty node
func NewFusionNode() *FusionNode {
	return &FusionNode{Children: make(map[string]*FusionNode)}
}

// Child returns the direct child with the given key
func (n *FusionNode) Child(key string) (*FusionNode, bool) {
	if n == nil {
		return nil, false
	}
	child, ok := n.Children[key]
	if !ok || child.Removed {
		return nil, false
	}
	return child, true
}

// ChildAt walks a path of keys
func (n *FusionNode) ChildAt(keys ...string) (*FusionNode, bool) {
	current := n
	for _, key := range keys {
		next, ok := current.Child(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// EnsureChild returns the child under key, creating it when missing.
// A removed child is replaced by a fresh node.
func (n *FusionNode) EnsureChild(key string) *FusionNode {
	if n.Children == nil {
		n.Children = make(map[string]*FusionNode)
	}
	child, ok := n.Children[key]
	if ok && !child.Removed {
		return child
	}
	fresh := NewFusionNode()
	n.SetChild(key, fresh)
	return fresh
}

// SetChild assigns a child, keeping the original key position when it exists
func (n *FusionNode) SetChild(key string, child *FusionNode) {
	if n.Children == nil {
		n.Children = make(map[string]*FusionNode)
	}
	if _, exists := n.Children[key]; !exists {
		n.Keys = append(n.Keys, key)
	}
	n.Children[key] = child
}

// SetValue assigns a literal value, clearing type and expression
func (n *FusionNode) SetValue(value any) {
	n.ObjectType = StringValueEmpty
	n.Expression = StringValueEmpty
	n.HasExpression = false
	n.Value = value
	n.HasValue = true
	n.Removed = false
}

// SetExpression assigns an Eel expression, clearing type and value
func (n *FusionNode) SetExpression(expr string) {
	n.ObjectType = StringValueEmpty
	n.Value = nil
	n.HasValue = false
	n.Expression = expr
	n.HasExpression = true
	n.Removed = false
}

// SetObjectType assigns an object type, clearing value and expression
func (n *FusionNode) SetObjectType(objectType string) {
	n.Value = nil
	n.HasValue = false
	n.Expression = StringValueEmpty
	n.HasExpression = false
	n.ObjectType = objectType
	n.Removed = false
}

// HasOwnValue reports whether the node defines a type, value or expression
func (n *FusionNode) HasOwnValue() bool {
	return n.ObjectType != StringValueEmpty || n.HasValue || n.HasExpression
}

// PropertyKeys returns the non-meta, non-removed child keys in declaration order
func (n *FusionNode) PropertyKeys() []string {
	keys := make([]string, 0, len(n.Keys))
	for _, key := range n.Keys {
		if strings.HasPrefix(key, FusionMetaPrefix) || n.Children[key].Removed {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// HasProperties reports whether the node has any non-meta children
func (n *FusionNode) HasProperties() bool {
	return len(n.PropertyKeys()) > 0
}

// Clone returns a deep copy of the node
func (n *FusionNode) Clone() *FusionNode {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Keys = append([]string(nil), n.Keys...)
	clone.Children = make(map[string]*FusionNode, len(n.Children))
	for k, child := range n.Children {
		clone.Children[k] = child.Clone()
	}
	return &clone
}

// MergeFusionNodes returns a new node with override applied on top of base.
// When override defines its own type, value or expression it replaces the
// base definition; children merge recursively and removed children stay removed.
func MergeFusionNodes(base, override *FusionNode) *FusionNode {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}
	if override.Removed {
		return override.Clone()
	}

	merged := base.Clone()
	if override.HasOwnValue() {
		merged.ObjectType = override.ObjectType
		merged.Value = override.Value
		merged.HasValue = override.HasValue
		merged.Expression = override.Expression
		merged.HasExpression = override.HasExpression
	}
	merged.Removed = false
	merged.Pos = override.Pos
	merged.Origin = override.Origin

	for _, key := range override.Keys {
		overrideChild := override.Children[key]
		baseChild, exists := merged.Children[key]
		if !exists || baseChild.Removed {
			merged.SetChild(key, overrideChild.Clone())
			continue
		}
		merged.SetChild(key, MergeFusionNodes(baseChild, overrideChild))
	}
	return merged
}

// String returns a debug representation of the node
func (n *FusionNode) String() string {
	switch {
	case n == nil:
		return StringValueNil
	case n.Removed:
		return "(removed)"
	case n.ObjectType != StringValueEmpty:
		return n.ObjectType
	case n.HasExpression:
		return FusionEelOpen + truncateForDisplay(n.Expression) + FusionEelClose
	case n.HasValue:
		return fmt.Sprintf("%v", n.Value)
	default:
		return fmt.Sprintf("{%d children}", len(n.Keys))
	}
}

func truncateForDisplay(s string) string {
	if len(s) > MaxStringDisplayLength {
		return s[:TruncatedStringLength] + TruncationSuffix
	}
	return s
}

// FusionPrototype is a root-level prototype definition
type FusionPrototype struct {
	Name   string
	Parent string
	Node   *FusionNode
	Pos    Position
	Origin string
}

// FusionConfig is the parsed configuration tree
type FusionConfig struct {
	Root       *FusionNode
	Prototypes map[string]*FusionPrototype
}

// NewFusionConfig creates an empty configuration
func NewFusionConfig() *FusionConfig {
	return &FusionConfig{
		Root:       NewFusionNode(),
		Prototypes: make(map[string]*FusionPrototype),
	}
}

// Prototype returns the named prototype definition
func (c *FusionConfig) Prototype(name string) (*FusionPrototype, bool) {
	p, ok := c.Prototypes[name]
	return p, ok
}

// EnsurePrototype returns the named prototype, creating it when missing
func (c *FusionConfig) EnsurePrototype(name string) *FusionPrototype {
	if p, ok := c.Prototypes[name]; ok {
		return p
	}
	p := &FusionPrototype{Name: name, Node: NewFusionNode()}
	c.Prototypes[name] = p
	return p
}

// PrototypeNames returns all prototype names in sorted order
func (c *FusionConfig) PrototypeNames() []string {
	names := make([]string, 0, len(c.Prototypes))
	for name := range c.Prototypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the node at a dotted or slash separated path from the root
func (c *FusionConfig) Path(path string) (*FusionNode, bool) {
	return c.Root.ChildAt(SplitFusionPath(path)...)
}

// SplitFusionPath splits "a.b" or "a/b" into keys
func SplitFusionPath(path string) []string {
	path = strings.Trim(path, "/.")
	if path == StringValueEmpty {
		return nil
	}
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '.' })
}

// FusionSource is one Fusion source text with its origin
type FusionSource struct {
	Origin string
	Code   string
}
