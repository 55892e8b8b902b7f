package internal

import (
	"context"
)

// FusionObject is an object being evaluated. It exposes the merged
// properties of its path and evaluates them lazily and at most once.
// It is bound to "this" inside the object's expressions.
type FusionObject struct {
	runtime *Runtime
	node    *FusionNode
	path    string
	scope   evalScope

	properties map[string]propertyResult
	applied    *OrderedMap
	applying   bool
	applyErr   error
	applyDone  bool
}

type propertyResult struct {
	value   any
	present bool
	err     error
}

func newFusionObject(r *Runtime, node *FusionNode, path string, scope evalScope) *FusionObject {
	obj := &FusionObject{
		runtime:    r,
		node:       node,
		path:       path,
		properties: make(map[string]propertyResult),
	}
	scope.this = obj
	obj.scope = scope
	return obj
}

// Type returns the object type, empty for untyped paths
func (o *FusionObject) Type() string {
	return o.node.ObjectType
}

// Path returns the evaluation path of the object
func (o *FusionObject) Path() string {
	return o.path
}

// Node returns the merged configuration node
func (o *FusionObject) Node() *FusionNode {
	return o.node
}

// Context returns the evaluation context the object's properties see
func (o *FusionObject) Context() *Context {
	return o.scope.ctx
}

// GoContext returns the request context of the evaluation
func (o *FusionObject) GoContext() context.Context {
	return o.scope.goctx
}

// Helpers returns the Eel helpers of the runtime
func (o *FusionObject) Helpers() *HelperRegistry {
	return o.runtime.helpers
}

// GetProperty implements PropertyAccessor so expressions can read this.name
func (o *FusionObject) GetProperty(name string) (any, bool, error) {
	return o.property(name)
}

// Property evaluates a property; missing or cancelled properties yield nil
func (o *FusionObject) Property(name string) (any, error) {
	value, _, err := o.property(name)
	return value, err
}

// StringProperty evaluates a property and converts it to a string
func (o *FusionObject) StringProperty(name string) (string, error) {
	value, err := o.Property(name)
	if err != nil {
		return StringValueEmpty, err
	}
	return anyToString(value), nil
}

// PropertyOr evaluates a property, falling back to def when it is absent or nil
func (o *FusionObject) PropertyOr(name string, def any) (any, error) {
	value, present, err := o.property(name)
	if err != nil {
		return nil, err
	}
	if !present || value == nil {
		return def, nil
	}
	return value, nil
}

// HasProperty reports whether the object defines or applies a property
func (o *FusionObject) HasProperty(name string) bool {
	if _, ok := o.node.Child(name); ok {
		return true
	}
	if applied, err := o.appliedProperties(); err == nil {
		_, ok := applied.Get(name)
		return ok
	}
	return false
}

func (o *FusionObject) property(name string) (any, bool, error) {
	if cached, ok := o.properties[name]; ok {
		return cached.value, cached.present, cached.err
	}

	applied, err := o.appliedProperties()
	if err != nil {
		return nil, false, err
	}
	if value, ok := applied.Get(name); ok {
		o.properties[name] = propertyResult{value: value, present: true}
		return value, true, nil
	}

	child, ok := o.node.Child(name)
	if !ok {
		return nil, false, nil
	}
	value, present, err := o.runtime.evaluateNode(o.scope, child, o.path+fusionPathSeparator+name)
	o.properties[name] = propertyResult{value: value, present: present, err: err}
	return value, present, err
}

// EvaluateProperty evaluates a property in ctx instead of the object's context.
// The result is not memoized; renderers use this once per iteration.
func (o *FusionObject) EvaluateProperty(name string, ctx *Context) (any, bool, error) {
	child, ok := o.node.Child(name)
	if !ok {
		return nil, false, nil
	}
	scope := o.scope
	scope.ctx = ctx
	return o.runtime.evaluateNode(scope, child, o.path+fusionPathSeparator+name)
}

// EvaluateNode evaluates an arbitrary node as a child of this object
func (o *FusionObject) EvaluateNode(node *FusionNode, name string, ctx *Context) (any, bool, error) {
	scope := o.scope
	if ctx != nil {
		scope.ctx = ctx
	}
	return o.runtime.evaluateNode(scope, node, o.path+fusionPathSeparator+name)
}

// PropertyKeys returns the property names ordered by @position.
// Applied properties not declared on the path follow the declared ones;
// names listed in @ignoreProperties are omitted.
func (o *FusionObject) PropertyKeys() ([]string, error) {
	ignored, err := o.ignoredProperties()
	if err != nil {
		return nil, err
	}

	keys := o.runtime.sortedKeys(o.scope, o.node, o.path)
	seen := make(map[string]bool, len(keys))
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		seen[key] = true
		if !ignored[key] {
			result = append(result, key)
		}
	}

	applied, err := o.appliedProperties()
	if err != nil {
		return nil, err
	}
	for _, key := range applied.Keys() {
		if !seen[key] && !ignored[key] {
			result = append(result, key)
		}
	}
	return result, nil
}

// Glue returns the evaluated @glue or an empty string
func (o *FusionObject) Glue() (string, error) {
	glue, ok := o.node.Child(FusionMetaGlue)
	if !ok {
		return StringValueEmpty, nil
	}
	value, _, err := o.runtime.evaluateNode(o.scope, glue, o.path+fusionPathSeparator+FusionMetaGlue)
	if err != nil {
		return StringValueEmpty, err
	}
	return anyToString(value), nil
}

func (o *FusionObject) ignoredProperties() (map[string]bool, error) {
	ignoreNode, ok := o.node.Child(FusionMetaIgnoreProperties)
	if !ok {
		return nil, nil
	}
	value, _, err := o.runtime.evaluateNode(o.scope, ignoreNode, o.path+fusionPathSeparator+FusionMetaIgnoreProperties)
	if err != nil {
		return nil, err
	}
	ignored := make(map[string]bool)
	items, ok := toIterable(value)
	if !ok {
		ignored[anyToString(value)] = true
		return ignored, nil
	}
	for _, item := range items {
		ignored[anyToString(item.Value)] = true
	}
	return ignored, nil
}

// appliedProperties evaluates @apply entries in @position order and
// merges their key/value pairs. Properties referenced while the entries
// are being evaluated resolve without applied values.
func (o *FusionObject) appliedProperties() (*OrderedMap, error) {
	if o.applyDone {
		return o.applied, o.applyErr
	}
	if o.applying {
		return NewOrderedMap(), nil
	}

	applied := NewOrderedMap()
	applyNode, ok := o.node.Child(FusionMetaApply)
	if !ok {
		o.applied, o.applyDone = applied, true
		return applied, nil
	}

	o.applying = true
	defer func() { o.applying = false }()

	for _, key := range o.runtime.sortedKeys(o.scope, applyNode, o.path) {
		entryPath := o.path + fusionPathSeparator + FusionMetaApply + fusionPathSeparator + key
		value, present, err := o.runtime.evaluateNode(o.scope, applyNode.Children[key], entryPath)
		if err != nil {
			o.applyErr, o.applyDone = err, true
			return nil, err
		}
		if !present || value == nil {
			continue
		}
		if err := mergeApplied(applied, value); err != nil {
			o.applyErr, o.applyDone = NewEvaluationError(entryPath, ErrMsgRuntimeInvalidApply, err), true
			return nil, o.applyErr
		}
	}

	o.applied, o.applyDone = applied, true
	return applied, nil
}

// KeyedProperties is implemented by lazily evaluated property sets
type KeyedProperties interface {
	PropertyAccessor
	PropertyKeys() ([]string, error)
}

func mergeApplied(target *OrderedMap, value any) error {
	if keyed, ok := value.(KeyedProperties); ok {
		keys, err := keyed.PropertyKeys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			v, present, err := keyed.GetProperty(key)
			if err != nil {
				return err
			}
			if present {
				target.Set(key, v)
			}
		}
		return nil
	}

	items, ok := toIterable(value)
	if !ok {
		return NewEelEvalError(ErrMsgEelTypeMismatch, typeName(value))
	}
	for _, item := range items {
		target.Set(anyToString(item.Key), item.Value)
	}
	return nil
}

// LazyProps exposes the properties of an object, excluding some names,
// for binding as "props" in component renderers
type LazyProps struct {
	object  *FusionObject
	exclude map[string]bool
}

// NewLazyProps creates lazy props over object without the excluded names
func NewLazyProps(object *FusionObject, exclude ...string) *LazyProps {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}
	return &LazyProps{object: object, exclude: excluded}
}

// GetProperty implements PropertyAccessor
func (p *LazyProps) GetProperty(name string) (any, bool, error) {
	if p.exclude[name] {
		return nil, false, nil
	}
	return p.object.GetProperty(name)
}

// PropertyKeys returns the visible property names
func (p *LazyProps) PropertyKeys() ([]string, error) {
	keys, err := p.object.PropertyKeys()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		if !p.exclude[key] {
			result = append(result, key)
		}
	}
	return result, nil
}

// String renders nothing; props are not meant to be printed
func (p *LazyProps) String() string {
	return StringValueEmpty
}
