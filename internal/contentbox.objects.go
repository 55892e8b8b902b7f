package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// Implementation class names of the core object types
const (
	ClassValue         = "Neos\\Fusion\\FusionObjects\\ValueImplementation"
	ClassTag           = "Neos\\Fusion\\FusionObjects\\TagImplementation"
	ClassJoin          = "Neos\\Fusion\\FusionObjects\\JoinImplementation"
	ClassDataStructure = "Neos\\Fusion\\FusionObjects\\DataStructureImplementation"
	ClassLoop          = "Neos\\Fusion\\FusionObjects\\LoopImplementation"
	ClassMap           = "Neos\\Fusion\\FusionObjects\\MapImplementation"
	ClassComponent     = "Neos\\Fusion\\FusionObjects\\ComponentImplementation"
	ClassCase          = "Neos\\Fusion\\FusionObjects\\CaseImplementation"
	ClassMatcher       = "Neos\\Fusion\\FusionObjects\\MatcherImplementation"
	ClassRenderer      = "Neos\\Fusion\\FusionObjects\\RendererImplementation"
)

// Core prototype names
const (
	PrototypeMatcher = "Neos.Fusion:Matcher"
)

// Object property names
const (
	PropValue             = "value"
	PropTagName           = "tagName"
	PropOmitClosingTag    = "omitClosingTag"
	PropSelfClosingTag    = "selfClosingTag"
	PropAttributes        = "attributes"
	PropContent           = "content"
	PropAllowEmpty        = "allowEmptyAttributes"
	PropItems             = "items"
	PropItemName          = "itemName"
	PropItemKey           = "itemKey"
	PropIterationName     = "iterationName"
	PropItemRenderer      = "itemRenderer"
	PropKeyRenderer       = "keyRenderer"
	PropRenderer          = "renderer"
	PropCondition         = "condition"
	PropType              = "type"
	PropRenderPath        = "renderPath"
	PropElement           = "element"
	ContextNameProps      = "props"
	DefaultTagName        = "div"
	DefaultItemName       = "item"
	DefaultItemKey        = "itemKey"
	DefaultIterationName  = "iteration"
	IterationIndex        = "index"
	IterationCycle        = "cycle"
	IterationIsFirst      = "isFirst"
	IterationIsLast       = "isLast"
	IterationIsEven       = "isEven"
	IterationIsOdd        = "isOdd"
	absolutePathIndicator = "/"
)

// Object error messages
const (
	ErrMsgObjectNotIterable   = "items is not iterable"
	ErrMsgObjectRenderPath    = "render path not found"
	ErrMsgObjectNothingToRend = "matcher defines neither type, renderPath nor renderer"
)

// selfClosingTags are rendered as <tag /> without content
var selfClosingTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "command": true,
	"embed": true, "hr": true, "img": true, "input": true, "keygen": true,
	"link": true, "meta": true, "param": true, "source": true, "track": true,
	"wbr": true,
}

// existingEntity matches character references that must not be encoded twice
var existingEntity = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// noMatch is returned by matchers whose condition failed
type noMatch struct{}

var matcherNoMatch = noMatch{}

// RegisterCoreImplementations registers the core object implementations
func RegisterCoreImplementations(r *ImplementationRegistry) {
	r.MustRegister(ClassValue, ImplementationFunc(evaluateValue))
	r.MustRegister(ClassTag, ImplementationFunc(evaluateTag))
	r.MustRegister(ClassJoin, ImplementationFunc(evaluateJoin))
	r.MustRegister(ClassDataStructure, ImplementationFunc(evaluateDataStructure))
	r.MustRegister(ClassLoop, ImplementationFunc(evaluateLoop))
	r.MustRegister(ClassMap, ImplementationFunc(evaluateMap))
	r.MustRegister(ClassComponent, ImplementationFunc(evaluateComponent))
	r.MustRegister(ClassCase, ImplementationFunc(evaluateCase))
	r.MustRegister(ClassMatcher, ImplementationFunc(evaluateMatcher))
	r.MustRegister(ClassRenderer, ImplementationFunc(evaluateRenderer))
}

func evaluateValue(object *FusionObject) (any, error) {
	return object.Property(PropValue)
}

func evaluateTag(object *FusionObject) (any, error) {
	tagName, err := object.PropertyOr(PropTagName, DefaultTagName)
	if err != nil {
		return nil, err
	}
	name := anyToString(tagName)

	omitClosing, err := object.Property(PropOmitClosingTag)
	if err != nil {
		return nil, err
	}
	selfClosingValue, err := object.Property(PropSelfClosingTag)
	if err != nil {
		return nil, err
	}
	selfClosing := isTruthy(selfClosingValue) || selfClosingTags[strings.ToLower(name)]

	allowEmpty, err := object.PropertyOr(PropAllowEmpty, true)
	if err != nil {
		return nil, err
	}
	attributes, err := object.Property(PropAttributes)
	if err != nil {
		return nil, err
	}
	renderedAttributes, err := renderAttributes(attributes, isTruthy(allowEmpty))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<" + name + renderedAttributes)
	if selfClosing {
		sb.WriteString(" /")
	}
	sb.WriteString(">")
	if !isTruthy(omitClosing) && !selfClosing {
		content, err := object.StringProperty(PropContent)
		if err != nil {
			return nil, err
		}
		sb.WriteString(content + "</" + name + ">")
	}
	return sb.String(), nil
}

// renderAttributes renders an attribute collection. True and empty values
// render as bare attributes, nil and false are skipped, lists are joined
// with a space.
func renderAttributes(attributes any, allowEmpty bool) (string, error) {
	if attributes == nil {
		return StringValueEmpty, nil
	}
	if s, ok := attributes.(string); ok {
		if s == StringValueEmpty {
			return s, nil
		}
		return " " + strings.TrimSpace(s), nil
	}
	items, err := iterateItems(attributes)
	if err != nil {
		return StringValueEmpty, err
	}

	var sb strings.Builder
	for _, item := range items {
		name := escapeHTMLNoDoubleEncode(anyToString(item.Key))
		value := item.Value
		if value == nil || value == false {
			continue
		}
		if slice, isSlice := value.([]any); isSlice {
			parts := make([]string, 0, len(slice))
			for _, part := range slice {
				parts = append(parts, anyToString(part))
			}
			value = strings.Join(parts, " ")
		}
		if value == true || value == StringValueEmpty {
			sb.WriteString(" " + name)
			if !allowEmpty {
				sb.WriteString(`=""`)
			}
			continue
		}
		sb.WriteString(" " + name + `="` + escapeHTMLNoDoubleEncode(anyToString(value)) + `"`)
	}
	return sb.String(), nil
}

// escapeHTMLNoDoubleEncode escapes & < > and double quotes, leaving
// existing character references intact
func escapeHTMLNoDoubleEncode(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			if existingEntity.MatchString(s[i:]) {
				sb.WriteByte('&')
			} else {
				sb.WriteString("&amp;")
			}
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func evaluateJoin(object *FusionObject) (any, error) {
	glue, err := object.Glue()
	if err != nil {
		return nil, err
	}
	keys, err := object.PropertyKeys()
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value, present, err := object.property(key)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		parts = append(parts, anyToString(value))
	}
	return strings.Join(parts, glue), nil
}

func evaluateDataStructure(object *FusionObject) (any, error) {
	keys, err := object.PropertyKeys()
	if err != nil {
		return nil, err
	}

	result := NewOrderedMap()
	for _, key := range keys {
		value, present, err := object.property(key)
		if err != nil {
			return nil, err
		}
		if present {
			result.Set(key, value)
		}
	}
	return result, nil
}

// iterationNames holds the context names a loop binds per item
type iterationNames struct {
	item      string
	key       string
	iteration string
}

func loopNames(object *FusionObject) (iterationNames, error) {
	names := iterationNames{}
	for _, binding := range []struct {
		prop   string
		def    string
		target *string
	}{
		{PropItemName, DefaultItemName, &names.item},
		{PropItemKey, DefaultItemKey, &names.key},
		{PropIterationName, DefaultIterationName, &names.iteration},
	} {
		value, err := object.PropertyOr(binding.prop, binding.def)
		if err != nil {
			return names, err
		}
		*binding.target = anyToString(value)
	}
	return names, nil
}

// iterationContext binds the item, its key and the iteration information
func iterationContext(ctx *Context, names iterationNames, item IterationItem, index, count int) *Context {
	ctx = ctx.Push(names.item, item.Value)
	if names.key != StringValueEmpty {
		ctx = ctx.Push(names.key, item.Key)
	}
	if names.iteration != StringValueEmpty {
		cycle := index + 1
		iteration := NewOrderedMap()
		iteration.Set(IterationIndex, index)
		iteration.Set(IterationCycle, cycle)
		iteration.Set(IterationIsFirst, index == 0)
		iteration.Set(IterationIsLast, index == count-1)
		iteration.Set(IterationIsEven, cycle%2 == 0)
		iteration.Set(IterationIsOdd, cycle%2 != 0)
		ctx = ctx.Push(names.iteration, iteration)
	}
	return ctx
}

func evaluateLoop(object *FusionObject) (any, error) {
	items, names, err := loopItems(object)
	if err != nil {
		return nil, err
	}
	glue, err := object.Glue()
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(items))
	for i, item := range items {
		ctx := iterationContext(object.Context(), names, item, i, len(items))
		value, present, err := object.EvaluateProperty(PropItemRenderer, ctx)
		if err != nil {
			return nil, err
		}
		if present {
			parts = append(parts, anyToString(value))
		}
	}
	return strings.Join(parts, glue), nil
}

func evaluateMap(object *FusionObject) (any, error) {
	rawItems, err := object.Property(PropItems)
	if err != nil {
		return nil, err
	}
	items, names, err := loopItems(object)
	if err != nil {
		return nil, err
	}
	keyed := !isListValue(rawItems)
	hasKeyRenderer := object.HasProperty(PropKeyRenderer)

	list := make([]any, 0, len(items))
	mapped := NewOrderedMap()
	for i, item := range items {
		ctx := iterationContext(object.Context(), names, item, i, len(items))
		value, present, err := object.EvaluateProperty(PropItemRenderer, ctx)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}

		key := anyToString(item.Key)
		if hasKeyRenderer {
			renderedKey, keyPresent, err := object.EvaluateProperty(PropKeyRenderer, ctx)
			if err != nil {
				return nil, err
			}
			if keyPresent {
				key = anyToString(renderedKey)
			}
		}
		list = append(list, value)
		mapped.Set(key, value)
	}

	if keyed || hasKeyRenderer {
		return mapped, nil
	}
	return list, nil
}

func isListValue(v any) bool {
	if v == nil {
		return true
	}
	return typeName(v) == TypeNameArray
}

func loopItems(object *FusionObject) ([]IterationItem, iterationNames, error) {
	names, err := loopNames(object)
	if err != nil {
		return nil, names, err
	}
	raw, err := object.Property(PropItems)
	if err != nil {
		return nil, names, err
	}
	items, err := iterateItems(raw)
	if err != nil {
		return nil, names, NewEvaluationError(object.Path(), ErrMsgObjectNotIterable, err)
	}
	return items, names, nil
}

// iterateItems turns a collection, including lazily evaluated property sets, into key/value pairs
func iterateItems(value any) ([]IterationItem, error) {
	if keyed, ok := value.(KeyedProperties); ok {
		keys, err := keyed.PropertyKeys()
		if err != nil {
			return nil, err
		}
		items := make([]IterationItem, 0, len(keys))
		for _, key := range keys {
			v, present, err := keyed.GetProperty(key)
			if err != nil {
				return nil, err
			}
			if present {
				items = append(items, IterationItem{Key: key, Value: v})
			}
		}
		return items, nil
	}
	items, ok := toIterable(value)
	if !ok {
		return nil, NewEelEvalError(ErrMsgEelTypeMismatch, typeName(value))
	}
	return items, nil
}

func evaluateComponent(object *FusionObject) (any, error) {
	props := NewLazyProps(object, PropRenderer)
	ctx := object.Context().Push(ContextNameProps, props)
	value, _, err := object.EvaluateProperty(PropRenderer, ctx)
	return value, err
}

func evaluateCase(object *FusionObject) (any, error) {
	_, matcherDefined := object.runtime.config.Prototypes[PrototypeMatcher]
	for _, key := range object.runtime.sortedKeys(object.scope, object.node, object.path) {
		matcher := object.node.Children[key]
		implicit := matcher.ObjectType == StringValueEmpty && !matcher.HasValue && !matcher.HasExpression

		var (
			value   any
			present bool
			err     error
		)
		switch {
		case implicit && !matcherDefined:
			present = true
			value, err = evaluateMatcher(newFusionObject(object.runtime, matcher, object.path+fusionPathSeparator+key, object.scope))
		case implicit:
			matcher = matcher.Clone()
			matcher.SetObjectType(PrototypeMatcher)
			fallthrough
		default:
			value, present, err = object.EvaluateNode(matcher, key, nil)
		}
		if err != nil {
			return nil, err
		}
		if present && value != matcherNoMatch {
			return value, nil
		}
	}
	return nil, nil
}

func evaluateMatcher(object *FusionObject) (any, error) {
	condition, err := object.Property(PropCondition)
	if err != nil {
		return nil, err
	}
	if !isTruthy(condition) {
		return matcherNoMatch, nil
	}
	return renderDelegate(object)
}

func evaluateRenderer(object *FusionObject) (any, error) {
	return renderDelegate(object)
}

// renderDelegate renders the type, renderPath or renderer of an object, in that order
func renderDelegate(object *FusionObject) (any, error) {
	objectType, err := object.Property(PropType)
	if err != nil {
		return nil, err
	}
	if name := anyToString(objectType); name != StringValueEmpty {
		element := NewFusionNode()
		if defined, ok := object.node.Child(PropElement); ok {
			element = defined.Clone()
		}
		element.SetObjectType(name)
		value, _, err := object.EvaluateNode(element, PropElement, nil)
		return value, err
	}

	renderPath, err := object.Property(PropRenderPath)
	if err != nil {
		return nil, err
	}
	if path := anyToString(renderPath); path != StringValueEmpty {
		return renderPathValue(object, path)
	}

	if object.HasProperty(PropRenderer) {
		return object.Property(PropRenderer)
	}
	return nil, NewEvaluationError(object.Path(), ErrMsgObjectNothingToRend, nil)
}

// renderPathValue evaluates an absolute path from the root or a path relative to the object
func renderPathValue(object *FusionObject, path string) (any, error) {
	var (
		node *FusionNode
		ok   bool
	)
	if strings.HasPrefix(path, absolutePathIndicator) {
		node, ok = object.runtime.config.Root.ChildAt(SplitFusionPath(strings.TrimPrefix(path, absolutePathIndicator))...)
	} else {
		node, ok = object.node.ChildAt(SplitFusionPath(path)...)
	}
	if !ok {
		return nil, NewEvaluationError(object.Path(), fmt.Sprintf(ErrFmtWithDetail, ErrMsgObjectRenderPath, path), nil)
	}
	value, _, err := object.EvaluateNode(node, PropRenderPath, nil)
	return value, err
}
